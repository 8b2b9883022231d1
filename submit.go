package mlkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/model/task"
	"github.com/viant/mlkit/model/vepfs"
	"github.com/viant/mlkit/service/journal"
	"github.com/viant/mlkit/service/matcher"
	"github.com/viant/mlkit/service/tracker"
)

const (
	// DefaultRoleName is the role assigned to the single task replica.
	DefaultRoleName = "worker"
	// DefaultActiveDeadlineHours caps task runtime when the submission does
	// not set a deadline.
	DefaultActiveDeadlineHours = 240
)

// SubmitRequest describes one task submission. Only Name, DefaultQueueID,
// FlavorID and an image reference are required; everything else inherits
// package or configuration defaults.
type SubmitRequest struct {
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags            []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	EnableRangeType string   `json:"enableRangeType,omitempty" yaml:"enableRangeType,omitempty"`

	// ImageRepo plus ImageTag reference an image validated against the
	// platform registry; ImageURL bypasses registry validation and submits
	// a custom image directly.
	ImageRepo string `json:"imageRepo,omitempty" yaml:"imageRepo,omitempty"`
	ImageTag  string `json:"imageTag,omitempty" yaml:"imageTag,omitempty"`
	ImageURL  string `json:"imageURL,omitempty" yaml:"imageURL,omitempty"`

	// Commands become the container entrypoint, one line each.
	Commands []string `json:"commands,omitempty" yaml:"commands,omitempty"`

	DefaultQueueID string            `json:"defaultQueueID" yaml:"defaultQueueID"`
	BackupQueueIDs []string          `json:"backupQueueIDs,omitempty" yaml:"backupQueueIDs,omitempty"`
	FlavorID       string            `json:"flavorID" yaml:"flavorID"`
	Buffers        *capacity.Buffers `json:"buffers,omitempty" yaml:"buffers,omitempty"`

	Priority    int    `json:"priority,omitempty" yaml:"priority,omitempty"`
	Preemptible bool   `json:"preemptible,omitempty" yaml:"preemptible,omitempty"`
	RoleName    string `json:"roleName,omitempty" yaml:"roleName,omitempty"`

	VepfsSubPaths []string      `json:"vepfsSubPaths,omitempty" yaml:"vepfsSubPaths,omitempty"`
	Envs          []task.EnvVar `json:"envs,omitempty" yaml:"envs,omitempty"`

	ActiveDeadlineHours int `json:"activeDeadlineHours,omitempty" yaml:"activeDeadlineHours,omitempty"`
	DelayExitMinutes    int `json:"delayExitMinutes,omitempty" yaml:"delayExitMinutes,omitempty"`

	TrackingIntervalSeconds int  `json:"trackingIntervalSeconds,omitempty" yaml:"trackingIntervalSeconds,omitempty"`
	PrintProgress           bool `json:"printProgress,omitempty" yaml:"printProgress,omitempty"`
	PrintTaskParams         bool `json:"printTaskParams,omitempty" yaml:"printTaskParams,omitempty"`

	// Nil notification flags inherit the configured defaults.
	NotifyUponCreation    *bool    `json:"notifyUponCreation,omitempty" yaml:"notifyUponCreation,omitempty"`
	NotifyUponTermination *bool    `json:"notifyUponTermination,omitempty" yaml:"notifyUponTermination,omitempty"`
	GroupChatIDs          []string `json:"groupChatIDs,omitempty" yaml:"groupChatIDs,omitempty"`
}

// Init fills defaults for optional fields.
func (r *SubmitRequest) Init() {
	if r.EnableRangeType == "" {
		r.EnableRangeType = task.AccessPublic
	}
	if r.Priority == 0 {
		r.Priority = task.DefaultPriority
	}
	if r.RoleName == "" {
		r.RoleName = DefaultRoleName
	}
	if r.ActiveDeadlineHours == 0 {
		r.ActiveDeadlineHours = DefaultActiveDeadlineHours
	}
}

// Validate checks that the request carries everything a submission needs.
func (r *SubmitRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if r.DefaultQueueID == "" {
		return fmt.Errorf("default queue ID is required")
	}
	if r.FlavorID == "" {
		return fmt.Errorf("flavor ID is required")
	}
	if r.ImageURL == "" && (r.ImageRepo == "" || r.ImageTag == "") {
		return fmt.Errorf("image repo and tag are required")
	}
	if r.Buffers != nil {
		return r.Buffers.Validate()
	}
	return nil
}

func (r *SubmitRequest) notifyUponCreation(fallback bool) bool {
	if r.NotifyUponCreation != nil {
		return *r.NotifyUponCreation
	}
	return fallback
}

func (r *SubmitRequest) notifyUponTermination(fallback bool) bool {
	if r.NotifyUponTermination != nil {
		return *r.NotifyUponTermination
	}
	return fallback
}

// SubmitOption customises a single submission.
type SubmitOption func(o *submitOptions)

type submitOptions struct {
	bestEffort bool
}

// WithBestEffort downgrades submission failures to logged errors: SubmitTask
// returns a nil task instead of the error.
func WithBestEffort() SubmitOption {
	return func(o *submitOptions) {
		o.bestEffort = true
	}
}

// SubmitTask validates the request, picks a queue with capacity headroom,
// creates the task and starts tracking it in the background. The returned
// Task reports progress until the task reaches a terminal state.
func (s *Service) SubmitTask(ctx context.Context, request *SubmitRequest, options ...SubmitOption) (*Task, error) {
	opts := &submitOptions{}
	for _, option := range options {
		option(opts)
	}
	result, err := s.submit(ctx, request)
	if err != nil && opts.bestEffort {
		s.logger.Errorf("task submission failed: %v", err)
		return nil, nil
	}
	return result, err
}

func (s *Service) submit(ctx context.Context, request *SubmitRequest) (*Task, error) {
	request.Init()
	if err := request.Validate(); err != nil {
		return nil, err
	}
	imageSpec, err := s.resolveImage(ctx, request)
	if err != nil {
		return nil, err
	}
	flavors, err := s.platform.ListFlavors(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := s.matcher.Match(ctx, &matcher.Request{
		DefaultQueueID: request.DefaultQueueID,
		BackupQueueIDs: request.BackupQueueIDs,
		FlavorID:       request.FlavorID,
		Flavors:        flavors,
		Buffers:        s.resolveBuffers(request),
	})
	if err != nil {
		return nil, err
	}
	storages, err := s.buildVepfsStorages(ctx, request.VepfsSubPaths, queue.ID)
	if err != nil {
		return nil, err
	}

	form := buildForm(request, imageSpec, queue, flavors.Find(queue.ZoneID, request.FlavorID), storages)
	form.Init()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if request.PrintTaskParams {
		if data, err := json.MarshalIndent(form, "", "    "); err == nil {
			s.logger.Infof("Task parameters:\n%s", data)
		}
	}

	taskID, err := s.platform.CreateTask(ctx, form)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Created task %v in queue %v", taskID, queue.ID)

	status, err := s.platform.GetTask(ctx, taskID)
	if err != nil {
		s.logger.Warnf("failed to fetch initial status of task %v: %v", taskID, err)
		status = &task.Status{ID: taskID, Name: request.Name, ResourceQueueID: queue.ID}
	}
	if s.journal != nil {
		s.journal.Record(&journal.Entry{
			TaskID:   taskID,
			Name:     request.Name,
			QueueID:  queue.ID,
			FlavorID: request.FlavorID,
			ImageURL: imageSpec.URL,
			State:    string(status.State),
		})
	}
	if request.notifyUponCreation(s.config.Notifications.OnCreation) && s.notifier != nil {
		s.notifier.TaskCreated(ctx, s.chatTargets(ctx, request.GroupChatIDs), status)
	}

	aTracker := tracker.New(s.platform, status, tracker.Config{
		Interval:      s.trackingInterval(request),
		PrintProgress: request.PrintProgress,
		OnTerminal: s.terminalHook(request.GroupChatIDs,
			request.notifyUponTermination(s.config.Notifications.OnTermination)),
	}, s.logger)
	aTracker.Start(context.Background())
	return newTask(taskID, aTracker), nil
}

func (s *Service) resolveBuffers(request *SubmitRequest) capacity.Buffers {
	if request.Buffers != nil {
		return *request.Buffers
	}
	return s.config.Buffers
}

func (s *Service) trackingInterval(request *SubmitRequest) time.Duration {
	if request.TrackingIntervalSeconds > 0 {
		return time.Duration(request.TrackingIntervalSeconds) * time.Second
	}
	return s.config.Tracking.interval()
}

// resolveImage turns the request's image reference into an image spec. A
// repo and tag pair is checked against the platform registry; a direct URL
// is only checked syntactically.
func (s *Service) resolveImage(ctx context.Context, request *SubmitRequest) (*task.ImageSpec, error) {
	if request.ImageURL != "" {
		if _, err := name.ParseReference(request.ImageURL); err != nil {
			return nil, fmt.Errorf("invalid image URL %v: %w", request.ImageURL, err)
		}
		return &task.ImageSpec{URL: request.ImageURL, Type: task.ImageTypeCustom}, nil
	}
	repo, err := s.platform.GetImageRepo(ctx, request.ImageRepo)
	if err != nil {
		return nil, err
	}
	url := request.ImageRepo + ":" + request.ImageTag
	if !repo.HasTag(url) {
		return nil, fmt.Errorf("tag `%v` does not exist in image repo [%v]", request.ImageTag, request.ImageRepo)
	}
	return &task.ImageSpec{URL: url}, nil
}

// buildVepfsStorages maps each requested sub path to a storage attachment on
// the queue's vePFS mount, carrying over the user's directory permission.
func (s *Service) buildVepfsStorages(ctx context.Context, subPaths []string, queueID string) ([]task.Storage, error) {
	if len(subPaths) == 0 {
		return nil, nil
	}
	mount, err := s.platform.GetVepfsMount(ctx, queueID)
	if err != nil {
		return nil, err
	}
	storages := make([]task.Storage, 0, len(subPaths))
	for _, path := range subPaths {
		var readOnly bool
		switch mount.AccessFor(path) {
		case vepfs.AccessReadWrite:
			readOnly = false
		case vepfs.AccessReadOnly:
			readOnly = true
		default:
			return nil, fmt.Errorf("`%v` not in vePFS directories %v", path, mount.Directories())
		}
		storages = append(storages, task.Storage{
			Type:          mount.StorageType,
			MountPath:     "/" + mount.VepfsName + path,
			VepfsName:     mount.VepfsName,
			ReadOnly:      readOnly,
			SubPath:       strings.TrimPrefix(path, "/"),
			VepfsID:       mount.VepfsID,
			VepfsHostPath: "/mnt/" + mount.VepfsName,
		})
	}
	return storages, nil
}

func buildForm(request *SubmitRequest, imageSpec *task.ImageSpec, queue *capacity.Queue,
	flavor *capacity.Flavor, storages []task.Storage) *task.Form {
	return &task.Form{
		Name:            request.Name,
		Description:     request.Description,
		Tags:            request.Tags,
		EnableRangeType: request.EnableRangeType,
		ImageSpec:       *imageSpec,
		EntrypointPath:  strings.Join(request.Commands, "\n"),
		ResourceQueueID: queue.ID,
		Priority:        request.Priority,
		Preemptible:     request.Preemptible,
		TaskRoleSpecs: []task.RoleSpec{
			task.NewRoleSpec(request.RoleName, task.ResourceSpec{
				FlavorID: request.FlavorID,
				ZoneID:   queue.ZoneID,
				GPUType:  flavor.GPUType,
			}),
		},
		Storages:              storages,
		Envs:                  request.Envs,
		ActiveDeadlineSeconds: request.ActiveDeadlineHours * 60 * 60,
		DelayExitTimeSeconds:  request.DelayExitMinutes * 60,
	}
}
