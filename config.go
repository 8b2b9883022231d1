package mlkit

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/service/notifier"
	"github.com/viant/mlkit/service/platform"
	"github.com/viant/mlkit/service/tracker"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the client configuration. It
// can be populated from YAML or JSON; the zero value inherits package
// defaults for every nested section, except that notifications default to
// off (DefaultConfig enables them).
type Config struct {
	Endpoint      EndpointConfig     `json:"endpoint" yaml:"endpoint"`
	IAMUserID     UserID             `json:"iamUserID,omitempty" yaml:"iamUserID,omitempty"`
	SecretsURL    string             `json:"secretsURL,omitempty" yaml:"secretsURL,omitempty"`
	SecretsKey    string             `json:"secretsKey,omitempty" yaml:"secretsKey,omitempty"`
	Tracking      TrackingConfig     `json:"tracking" yaml:"tracking"`
	Buffers       capacity.Buffers   `json:"buffers" yaml:"buffers"`
	Bot           notifier.Config    `json:"bot,omitempty" yaml:"bot,omitempty"`
	Notifications NotificationConfig `json:"notifications" yaml:"notifications"`
	JournalPath   string             `json:"journalPath,omitempty" yaml:"journalPath,omitempty"`
}

// EndpointConfig selects the platform endpoint and signing credentials.
// Leave the keypair empty and set Config.SecretsURL to load it from a
// secret store instead.
type EndpointConfig struct {
	AccessKeyID     string `json:"accessKeyID,omitempty" yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
	Host            string `json:"host,omitempty" yaml:"host,omitempty"`
	Scheme          string `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	TimeoutSeconds  int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

func (e *EndpointConfig) platformConfig() *platform.Config {
	config := &platform.Config{
		AccessKeyID:     e.AccessKeyID,
		SecretAccessKey: e.SecretAccessKey,
		Host:            e.Host,
		Scheme:          e.Scheme,
		Region:          e.Region,
	}
	if e.TimeoutSeconds > 0 {
		config.Timeout = time.Duration(e.TimeoutSeconds) * time.Second
	}
	return config
}

// TrackingConfig sets the default pacing of task status tracking.
type TrackingConfig struct {
	IntervalSeconds int  `json:"intervalSeconds,omitempty" yaml:"intervalSeconds,omitempty"`
	PrintProgress   bool `json:"printProgress,omitempty" yaml:"printProgress,omitempty"`
}

func (t *TrackingConfig) interval() time.Duration {
	if t.IntervalSeconds == 0 {
		return tracker.DefaultInterval
	}
	return time.Duration(t.IntervalSeconds) * time.Second
}

// NotificationConfig sets the default notification behaviour; submissions
// may override it per task.
type NotificationConfig struct {
	OnCreation    bool     `json:"onCreation" yaml:"onCreation"`
	OnTermination bool     `json:"onTermination" yaml:"onTermination"`
	GroupChatIDs  []string `json:"groupChatIDs,omitempty" yaml:"groupChatIDs,omitempty"`
}

// UserID is an IAM account ID. Config documents may carry it as a number or
// a numeric string.
type UserID int64

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	return u.parse(strings.Trim(string(data), `"`))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *UserID) UnmarshalYAML(node *yaml.Node) error {
	return u.parse(node.Value)
}

func (u *UserID) parse(value string) error {
	value = strings.TrimSpace(value)
	if value == "" || value == "null" {
		*u = 0
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid IAM user ID %q: %w", value, err)
	}
	*u = UserID(parsed)
	return nil
}

// DefaultConfig returns a Config with the production endpoint, default
// tracking cadence and buffers, and notifications enabled.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			Host:           platform.DefaultHost,
			Scheme:         platform.DefaultScheme,
			Region:         platform.DefaultRegion,
			TimeoutSeconds: int(platform.DefaultTimeout / time.Second),
		},
		Tracking: TrackingConfig{
			IntervalSeconds: int(tracker.DefaultInterval / time.Second),
		},
		Buffers: capacity.DefaultBuffers(),
		Bot:     notifier.Config{PageSize: notifier.DefaultPageSize},
		Notifications: NotificationConfig{
			OnCreation:    true,
			OnTermination: true,
		},
	}
}

// Validate returns an error describing invalid settings or nil. Credentials
// must be resolved (directly or via SecretsURL) before validation.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config was nil")
	}
	if c.Endpoint.AccessKeyID == "" {
		return fmt.Errorf("access key ID is required")
	}
	if c.Endpoint.SecretAccessKey == "" {
		return fmt.Errorf("secret access key is required")
	}
	if c.Tracking.IntervalSeconds < 0 {
		return fmt.Errorf("tracking interval must not be negative")
	}
	return c.Buffers.Validate()
}

// LoadConfig reads a YAML configuration from URL (any scheme afs
// understands, including embed), expanding ${env.KEY} references before
// decoding. Settings absent from the document keep their defaults.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expandEnvExpr(string(data))), config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	return config, nil
}

// expandEnvExpr replaces every ${env.KEY} in value with the KEY environment
// variable, leaving malformed expressions untouched.
func expandEnvExpr(value string) string {
	const prefix = "${env."
	var b strings.Builder
	for {
		idx := strings.Index(value, prefix)
		if idx < 0 {
			b.WriteString(value)
			return b.String()
		}
		b.WriteString(value[:idx])
		rest := value[idx+len(prefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(value[idx:])
			return b.String()
		}
		key := rest[:end]
		if !isEnvKey(key) {
			b.WriteString(prefix)
			value = rest
			continue
		}
		b.WriteString(os.Getenv(key))
		value = rest[end+1:]
	}
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
