package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/mlkit"
	"github.com/viant/mlkit/model/task"
)

var (
	configURL    string
	accessKey    string
	secretKey    string
	secretsURL   string
	secretsKey   string
	iamUserID    int64
	endpointHost string
	region       string
	scheme       string
	botAppID     string
	botAppSecret string
	journalPath  string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:          "mlkit",
	Short:        "Submit and manage compute tasks on the Volcengine ML platform.",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configURL, "config", "", "Configuration URL (any supported scheme, e.g. /etc/mlkit/config.yaml).")
	flags.StringVar(&accessKey, "access-key", "", "Access key ID used to sign platform requests.")
	flags.StringVar(&secretKey, "secret-key", "", "Secret access key used to sign platform requests.")
	flags.StringVar(&secretsURL, "secrets-url", "", "Secret store URL holding the signing keypair as JSON.")
	flags.StringVar(&secretsKey, "secrets-key", "", "Encryption key for --secrets-url, e.g. 'blowfish://default'.")
	flags.Int64Var(&iamUserID, "iam-user-id", 0, "IAM account ID used to recognise tasks created by the caller.")
	flags.StringVar(&endpointHost, "endpoint", "", "Platform API host override.")
	flags.StringVar(&region, "region", "", "Platform region override.")
	flags.StringVar(&scheme, "scheme", "", "Platform URL scheme override.")
	flags.StringVar(&botAppID, "bot-app-id", "", "Chat bot application ID for notifications.")
	flags.StringVar(&botAppSecret, "bot-app-secret", "", "Chat bot application secret.")
	flags.StringVar(&journalPath, "journal", "", "Path of the local submission journal database.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newService builds the client from the loaded configuration with flag
// overrides applied on top.
func newService(ctx context.Context) (*mlkit.Service, error) {
	logger := logrus.StandardLogger()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	options := []mlkit.Option{mlkit.WithLogger(logger)}
	if configURL != "" {
		config, err := mlkit.LoadConfig(ctx, configURL)
		if err != nil {
			return nil, err
		}
		options = append(options, mlkit.WithConfig(config))
	}
	if accessKey != "" || secretKey != "" {
		options = append(options, mlkit.WithCredentials(accessKey, secretKey))
	}
	if secretsURL != "" {
		options = append(options, mlkit.WithSecrets(secretsURL, secretsKey))
	}
	if iamUserID != 0 {
		options = append(options, mlkit.WithIAMUserID(iamUserID))
	}
	if endpointHost != "" {
		options = append(options, mlkit.WithEndpoint(endpointHost))
	}
	if region != "" {
		options = append(options, mlkit.WithRegion(region))
	}
	if scheme != "" {
		options = append(options, mlkit.WithScheme(scheme))
	}
	if botAppID != "" {
		options = append(options, mlkit.WithBot(botAppID, botAppSecret))
	}
	if journalPath != "" {
		options = append(options, mlkit.WithJournalPath(journalPath))
	}
	return mlkit.New(options...)
}

// colorState renders a task state with terminal colour.
func colorState(state task.State) string {
	switch {
	case state.IsSuccess():
		return color.GreenString(string(state))
	case state == task.StateFailed || state == task.StateFailedHolding ||
		state == task.StateException || state == task.StateKilled:
		return color.RedString(string(state))
	case state == task.StateCancelled:
		return color.YellowString(string(state))
	default:
		return color.CyanString(string(state))
	}
}
