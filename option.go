package mlkit

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/service/journal"
	"github.com/viant/mlkit/service/platform"
	"github.com/viant/mlkit/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service
type Option func(s *Service)

// WithConfig replaces the whole configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithCredentials sets the signing keypair
func WithCredentials(accessKeyID, secretAccessKey string) Option {
	return func(s *Service) {
		s.config.Endpoint.AccessKeyID = accessKeyID
		s.config.Endpoint.SecretAccessKey = secretAccessKey
	}
}

// WithSecrets loads the signing keypair from a secret store URL, e.g.
// "gcp://secretmanager/.../mlkit" or a local encrypted file. Key selects
// the encryption key ("blowfish://default" etc.).
func WithSecrets(URL, key string) Option {
	return func(s *Service) {
		s.config.SecretsURL = URL
		s.config.SecretsKey = key
	}
}

// WithIAMUserID sets the account ID used to recognise tasks created by the
// caller before stopping or deleting them.
func WithIAMUserID(id int64) Option {
	return func(s *Service) {
		s.config.IAMUserID = UserID(id)
	}
}

// WithEndpoint sets the platform host
func WithEndpoint(host string) Option {
	return func(s *Service) {
		s.config.Endpoint.Host = host
	}
}

// WithScheme sets the platform URL scheme
func WithScheme(scheme string) Option {
	return func(s *Service) {
		s.config.Endpoint.Scheme = scheme
	}
}

// WithRegion sets the platform region
func WithRegion(region string) Option {
	return func(s *Service) {
		s.config.Endpoint.Region = region
	}
}

// WithTimeout sets the platform request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.config.Endpoint.TimeoutSeconds = int(timeout / time.Second)
	}
}

// WithBot sets the chat bot application credentials
func WithBot(appID, appSecret string) Option {
	return func(s *Service) {
		s.config.Bot.AppID = appID
		s.config.Bot.AppSecret = appSecret
	}
}

// WithGroupChats sets the default group chats notified about task lifecycle
// events; submissions may override the list per task.
func WithGroupChats(chatIDs ...string) Option {
	return func(s *Service) {
		s.config.Notifications.GroupChatIDs = chatIDs
	}
}

// WithBuffers sets the default capacity buffers applied during queue matching
func WithBuffers(buffers capacity.Buffers) Option {
	return func(s *Service) {
		s.config.Buffers = buffers
	}
}

// WithTrackingInterval sets the default task status polling interval
func WithTrackingInterval(seconds int) Option {
	return func(s *Service) {
		s.config.Tracking.IntervalSeconds = seconds
	}
}

// WithJournalPath enables the local submission journal at the supplied
// sqlite file path
func WithJournalPath(path string) Option {
	return func(s *Service) {
		s.config.JournalPath = path
	}
}

// WithJournal sets the submission journal service
func WithJournal(service *journal.Service) Option {
	return func(s *Service) {
		s.journal = service
	}
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNotifier sets the notifier service
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithPlatform sets the platform client
func WithPlatform(client *platform.Client) Option {
	return func(s *Service) {
		s.platform = client
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
