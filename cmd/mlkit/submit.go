package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/viant/mlkit"
	"github.com/viant/mlkit/model/task"
	"github.com/viant/mlkit/profile"
)

var (
	submitName          string
	submitDescription   string
	submitTags          []string
	submitImageRepo     string
	submitImageTag      string
	submitImageURL      string
	submitCommands      []string
	submitQueue         string
	submitBackupQueues  []string
	submitFlavor        string
	submitPriority      int
	submitPreemptible   bool
	submitRoleName      string
	submitVepfsPaths    []string
	submitEnvs          []string
	submitDeadlineHours int
	submitDelayMinutes  int
	submitInterval      int
	submitPrintProgress bool
	submitPrintParams   bool
	submitNotifyCreate  bool
	submitNotifyFinish  bool
	submitChats         []string

	submitProfile     string
	submitProfilesURL string
	submitWatch       bool
	submitBestEffort  bool
)

func init() {
	rootCmd.AddCommand(submitCmd)

	flags := submitCmd.Flags()
	flags.StringVarP(&submitName, "name", "n", "", "Task name.")
	flags.StringVar(&submitDescription, "description", "", "Task description.")
	flags.StringArrayVar(&submitTags, "tag", nil, "Task tag, repeatable.")
	flags.StringVar(&submitImageRepo, "image-repo", "", "Image repository ID validated against the platform registry.")
	flags.StringVar(&submitImageTag, "image-tag", "", "Image tag within --image-repo.")
	flags.StringVar(&submitImageURL, "image-url", "", "Full image URL, bypasses registry validation.")
	flags.StringArrayVarP(&submitCommands, "command", "c", nil, "Entrypoint command line, repeatable.")
	flags.StringVarP(&submitQueue, "queue", "q", "", "Default resource queue ID.")
	flags.StringArrayVar(&submitBackupQueues, "backup-queue", nil, "Backup resource queue ID, repeatable.")
	flags.StringVarP(&submitFlavor, "flavor", "f", "", "Flavor ID of the machine configuration to run on.")
	flags.IntVar(&submitPriority, "priority", 0, "Task priority (2, 4 or 6).")
	flags.BoolVar(&submitPreemptible, "preemptible", false, "Allow the platform to preempt the task.")
	flags.StringVar(&submitRoleName, "role-name", "", "Role name of the single task replica.")
	flags.StringArrayVar(&submitVepfsPaths, "vepfs-path", nil, "vePFS directory to mount, repeatable.")
	flags.StringArrayVarP(&submitEnvs, "env", "e", nil, "Environment variable NAME=VALUE, repeatable.")
	flags.IntVar(&submitDeadlineHours, "active-deadline-hours", 0, "Hours before the platform stops the task.")
	flags.IntVar(&submitDelayMinutes, "delay-exit-minutes", 0, "Minutes containers stay up after the entrypoint exits.")
	flags.IntVar(&submitInterval, "interval", 0, "Status tracking interval in seconds.")
	flags.BoolVar(&submitPrintProgress, "print-progress", false, "Log the task state on every tracking poll.")
	flags.BoolVar(&submitPrintParams, "print-task-params", false, "Log the task form before submitting.")
	flags.BoolVar(&submitNotifyCreate, "notify-creation", true, "Notify group chats when the task is created.")
	flags.BoolVar(&submitNotifyFinish, "notify-termination", true, "Notify group chats when the task terminates.")
	flags.StringArrayVar(&submitChats, "chat", nil, "Group chat ID to notify, repeatable.")

	flags.StringVarP(&submitProfile, "profile", "p", "", "Submission profile to start from; explicit flags override it.")
	flags.StringVar(&submitProfilesURL, "profiles-url", "", "Base URL of the profile store (default ~/.mlkit/profiles).")
	flags.BoolVarP(&submitWatch, "watch", "w", false, "Track the task until it terminates.")
	flags.BoolVar(&submitBestEffort, "best-effort", false, "Log submission failures instead of failing.")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a task to a resource queue with capacity headroom.",
	Long: `Submit validates the container image, picks the default queue when it has
capacity headroom for the flavor (falling back to backup queues), attaches the
requested vePFS directories and creates the task. With --watch the command
tracks the task until it reaches a terminal state.`,
	RunE:         runSubmit,
	SilenceUsage: true,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	request := &mlkit.SubmitRequest{}
	if submitProfile != "" {
		store := profile.New(nil, profilesBaseURL())
		if err := store.Load(ctx, submitProfile, request); err != nil {
			return err
		}
	}
	if err := applySubmitFlags(cmd.Flags(), request); err != nil {
		return err
	}

	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	var options []mlkit.SubmitOption
	if submitBestEffort {
		options = append(options, mlkit.WithBestEffort())
	}
	handle, err := service.SubmitTask(ctx, request, options...)
	if err != nil {
		return err
	}
	if handle == nil {
		return nil
	}
	defer handle.Stop()
	fmt.Println(handle.ID())

	if !submitWatch {
		return nil
	}
	status, err := handle.Wait(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("task %v finished in state %v", status.ID, colorState(status.State))
	if !status.State.IsSuccess() {
		os.Exit(1)
	}
	return nil
}

// applySubmitFlags overlays every explicitly set flag onto the request, so
// flags win over profile values.
func applySubmitFlags(flags *pflag.FlagSet, request *mlkit.SubmitRequest) error {
	if flags.Changed("name") {
		request.Name = submitName
	}
	if flags.Changed("description") {
		request.Description = submitDescription
	}
	if flags.Changed("tag") {
		request.Tags = submitTags
	}
	if flags.Changed("image-repo") {
		request.ImageRepo = submitImageRepo
	}
	if flags.Changed("image-tag") {
		request.ImageTag = submitImageTag
	}
	if flags.Changed("image-url") {
		request.ImageURL = submitImageURL
	}
	if flags.Changed("command") {
		request.Commands = submitCommands
	}
	if flags.Changed("queue") {
		request.DefaultQueueID = submitQueue
	}
	if flags.Changed("backup-queue") {
		request.BackupQueueIDs = submitBackupQueues
	}
	if flags.Changed("flavor") {
		request.FlavorID = submitFlavor
	}
	if flags.Changed("priority") {
		request.Priority = submitPriority
	}
	if flags.Changed("preemptible") {
		request.Preemptible = submitPreemptible
	}
	if flags.Changed("role-name") {
		request.RoleName = submitRoleName
	}
	if flags.Changed("vepfs-path") {
		request.VepfsSubPaths = submitVepfsPaths
	}
	if flags.Changed("env") {
		envs, err := parseEnvVars(submitEnvs)
		if err != nil {
			return err
		}
		request.Envs = envs
	}
	if flags.Changed("active-deadline-hours") {
		request.ActiveDeadlineHours = submitDeadlineHours
	}
	if flags.Changed("delay-exit-minutes") {
		request.DelayExitMinutes = submitDelayMinutes
	}
	if flags.Changed("interval") {
		request.TrackingIntervalSeconds = submitInterval
	}
	if flags.Changed("print-progress") {
		request.PrintProgress = submitPrintProgress
	}
	if flags.Changed("print-task-params") {
		request.PrintTaskParams = submitPrintParams
	}
	if flags.Changed("notify-creation") {
		request.NotifyUponCreation = &submitNotifyCreate
	}
	if flags.Changed("notify-termination") {
		request.NotifyUponTermination = &submitNotifyFinish
	}
	if flags.Changed("chat") {
		request.GroupChatIDs = submitChats
	}
	return nil
}

func parseEnvVars(pairs []string) ([]task.EnvVar, error) {
	var envs []task.EnvVar
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected NAME=VALUE", pair)
		}
		envs = append(envs, task.EnvVar{Name: name, Value: value})
	}
	return envs, nil
}

func profilesBaseURL() string {
	if submitProfilesURL != "" {
		return submitProfilesURL
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "profiles"
	}
	return filepath.Join(home, ".mlkit", "profiles")
}
