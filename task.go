package mlkit

import (
	"context"
	"time"

	"github.com/viant/mlkit/model/task"
	"github.com/viant/mlkit/service/tracker"
)

// Task is a handle on a submitted task. Its status is refreshed in the
// background until the task reaches a terminal state.
type Task struct {
	id      string
	tracker *tracker.Tracker
}

func newTask(id string, aTracker *tracker.Tracker) *Task {
	return &Task{id: id, tracker: aTracker}
}

// ID returns the platform task ID.
func (t *Task) ID() string {
	return t.id
}

// Status returns a copy of the latest status snapshot.
func (t *Task) Status() *task.Status {
	return t.tracker.Status()
}

// State returns the latest known task state.
func (t *Task) State() task.State {
	return t.tracker.State()
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.tracker.Status().Name
}

// Description returns the task description.
func (t *Task) Description() string {
	return t.tracker.Status().Description
}

// Tags returns the task tags.
func (t *Task) Tags() []string {
	return t.tracker.Status().Tags
}

// QueueID returns the resource queue the task landed in.
func (t *Task) QueueID() string {
	return t.tracker.Status().ResourceQueueID
}

// GroupID returns the resource group of the task's queue.
func (t *Task) GroupID() string {
	return t.tracker.Status().ResourceGroupID
}

// ExitCode returns the task exit code; it is meaningful only once the task
// is done.
func (t *Task) ExitCode() int {
	return t.tracker.Status().ExitCode
}

// CreateTime returns when the task was created.
func (t *Task) CreateTime() time.Time {
	return t.tracker.Status().CreateTime.Time
}

// LaunchTime returns when the task containers started.
func (t *Task) LaunchTime() time.Time {
	return t.tracker.Status().LaunchTime.Time
}

// FinishTime returns when the task reached a terminal state.
func (t *Task) FinishTime() time.Time {
	return t.tracker.Status().FinishTime.Time
}

// UpdateTime returns when the platform last updated the task.
func (t *Task) UpdateTime() time.Time {
	return t.tracker.Status().UpdateTime.Time
}

// Done reports whether the task reached a terminal state.
func (t *Task) Done() bool {
	return t.tracker.Done()
}

// Wait blocks until the task reaches a terminal state or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) (*task.Status, error) {
	return t.tracker.Wait(ctx)
}

// Stop ends background tracking without affecting the task on the platform.
func (t *Task) Stop() {
	t.tracker.Stop()
}
