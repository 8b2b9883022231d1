package mlkit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/model/image"
	"github.com/viant/mlkit/model/task"
	"github.com/viant/mlkit/service/journal"
	"github.com/viant/mlkit/service/matcher"
	"github.com/viant/mlkit/service/notifier"
	"github.com/viant/mlkit/service/platform"
	"github.com/viant/mlkit/service/tracker"
	"github.com/viant/scy"
)

var (
	_ matcher.QueueSource  = (*platform.Client)(nil)
	_ tracker.StatusSource = (*platform.Client)(nil)
	_ Notifier             = (*notifier.Service)(nil)
)

// Notifier delivers task lifecycle messages to group chats.
type Notifier interface {
	TaskCreated(ctx context.Context, chatIDs []string, status *task.Status)
	TaskTerminated(ctx context.Context, chatIDs []string, status *task.Status)
	SendText(ctx context.Context, chatIDs []string, text string)
	ListGroupChats(ctx context.Context) []string
}

// Service is the client facade: it submits tasks to matching queues and
// manages their lifecycle.
type Service struct {
	config   *Config
	logger   *logrus.Logger
	platform *platform.Client
	matcher  *matcher.Service
	notifier Notifier
	journal  *journal.Service
	secrets  *scy.Service
}

func (s *Service) init(ctx context.Context, options []Option) error {
	for _, option := range options {
		option(s)
	}
	return s.ensureBaseSetup(ctx)
}

func (s *Service) ensureBaseSetup(ctx context.Context) error {
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.platform == nil {
		if s.config.Endpoint.AccessKeyID == "" && s.config.SecretsURL != "" {
			if s.secrets == nil {
				s.secrets = scy.New()
			}
			pair, err := loadKeypair(ctx, s.secrets, s.config.SecretsURL, s.config.SecretsKey)
			if err != nil {
				return err
			}
			s.config.Endpoint.AccessKeyID = pair.AccessKeyID
			s.config.Endpoint.SecretAccessKey = pair.SecretAccessKey
		}
		if err := s.config.Validate(); err != nil {
			return err
		}
		s.platform = platform.New(s.config.Endpoint.platformConfig(), s.logger)
	}
	if s.matcher == nil {
		s.matcher = matcher.New(s.platform, s.logger)
	}
	if s.notifier == nil && s.config.Bot.Enabled() {
		s.notifier = notifier.New(&s.config.Bot, s.logger)
	}
	if s.journal == nil && s.config.JournalPath != "" {
		journalService, err := journal.Open(s.config.JournalPath, s.logger)
		if err != nil {
			return err
		}
		s.journal = journalService
	}
	return nil
}

// New creates a service with the supplied options applied on top of
// DefaultConfig. When credentials are neither set directly nor resolvable
// from the configured secret store the call fails.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	if err := ret.init(context.Background(), options); err != nil {
		return nil, err
	}
	return ret, nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// GetTask returns the current status of a task.
func (s *Service) GetTask(ctx context.Context, taskID string) (*task.Status, error) {
	return s.platform.GetTask(ctx, taskID)
}

// ListTasks returns task statuses matching the query.
func (s *Service) ListTasks(ctx context.Context, query *platform.ListQuery) ([]*task.Status, error) {
	return s.platform.ListTasks(ctx, query)
}

// ListQueues returns resource queues matching the query.
func (s *Service) ListQueues(ctx context.Context, query *platform.ListQuery) ([]*capacity.Queue, error) {
	return s.platform.ListQueues(ctx, query)
}

// ListImageRepos returns container image repositories matching the query.
func (s *Service) ListImageRepos(ctx context.Context, query *platform.ListQuery) ([]*image.Repo, error) {
	return s.platform.ListImageRepos(ctx, query)
}

// TaskLogs returns up to lines recent log lines of a task.
func (s *Service) TaskLogs(ctx context.Context, taskID string, lines int) ([]string, error) {
	return s.platform.TaskLogs(ctx, taskID, lines)
}

// StopTask requests the platform to stop a running task. It returns false
// without an error when the task does not exist or the caller is not
// permitted to stop it; other failures are returned as errors.
func (s *Service) StopTask(ctx context.Context, taskID string) (bool, error) {
	status, err := s.platform.GetTask(ctx, taskID)
	if err != nil {
		if platform.IsNotFound(err) {
			s.logger.Errorf("%v", err)
			return false, nil
		}
		return false, err
	}
	if s.config.IAMUserID != 0 && status.CreatorUserID != int64(s.config.IAMUserID) {
		s.logger.Warnf("Attempting to stop task %v created by other user", taskID)
	}
	switch status.State {
	case task.StateSuccess, task.StateFailed, task.StateCancelled, task.StateKilled, task.StateException:
		s.logger.Warnf("Attempting to stop task %v in `%v` state", taskID, status.State)
	}
	if err := s.platform.StopTask(ctx, taskID); err != nil {
		if platform.IsUnauthorized(err) {
			s.logger.Errorf("%v", err)
			return false, nil
		}
		return false, err
	}
	s.logger.Infof("Requested to stop task %v", taskID)
	return true, nil
}

// DeleteTask requests the platform to delete a task. It returns false
// without an error when the task does not exist, the caller is not
// permitted to delete it, or the task has not reached a terminal state yet;
// other failures are returned as errors.
func (s *Service) DeleteTask(ctx context.Context, taskID string) (bool, error) {
	status, err := s.platform.GetTask(ctx, taskID)
	if err != nil {
		if platform.IsNotFound(err) {
			s.logger.Errorf("%v", err)
			return false, nil
		}
		return false, err
	}
	if s.config.IAMUserID != 0 && status.CreatorUserID != int64(s.config.IAMUserID) {
		s.logger.Warnf("Attempting to delete task %v created by other user", taskID)
	}
	if err := s.platform.DeleteTask(ctx, taskID); err != nil {
		if platform.IsUnauthorized(err) || platform.IsTaskNotTerminal(err) {
			s.logger.Errorf("%v", err)
			return false, nil
		}
		return false, err
	}
	s.logger.Infof("Requested to delete task %v", taskID)
	return true, nil
}

// AttachTask resumes tracking of a previously submitted task.
func (s *Service) AttachTask(ctx context.Context, taskID string) (*Task, error) {
	status, err := s.platform.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	aTracker := tracker.New(s.platform, status, tracker.Config{
		Interval:      s.config.Tracking.interval(),
		PrintProgress: s.config.Tracking.PrintProgress,
		OnTerminal:    s.terminalHook(nil, s.config.Notifications.OnTermination),
	}, s.logger)
	aTracker.Start(context.Background())
	return newTask(taskID, aTracker), nil
}

// ListGroupChats returns the IDs of every group chat the configured bot is
// a member of.
func (s *Service) ListGroupChats(ctx context.Context) ([]string, error) {
	if s.notifier == nil {
		return nil, fmt.Errorf("chat bot is not configured")
	}
	return s.notifier.ListGroupChats(ctx), nil
}

// History returns up to limit recent submissions recorded in the journal,
// newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*journal.Entry, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("submission journal is not configured")
	}
	return s.journal.List(ctx, limit)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// chatTargets resolves the chats to notify: the explicit list when set, the
// configured default list otherwise, and finally every chat the bot is in.
func (s *Service) chatTargets(ctx context.Context, explicit []string) []string {
	if len(explicit) > 0 {
		return explicit
	}
	if len(s.config.Notifications.GroupChatIDs) > 0 {
		return s.config.Notifications.GroupChatIDs
	}
	if s.notifier == nil {
		return nil
	}
	return s.notifier.ListGroupChats(ctx)
}

// terminalHook records the final state in the journal and optionally
// notifies group chats; the tracker invokes it once per tracked task.
func (s *Service) terminalHook(explicitChats []string, notify bool) func(*task.Status) {
	return func(status *task.Status) {
		ctx := context.Background()
		if s.journal != nil {
			if err := s.journal.UpdateState(ctx, status.ID, status.State); err != nil {
				s.logger.Warnf("failed to update journal for task %v: %v", status.ID, err)
			}
		}
		if notify && s.notifier != nil {
			s.notifier.TaskTerminated(ctx, s.chatTargets(ctx, explicitChats), status)
		}
	}
}
