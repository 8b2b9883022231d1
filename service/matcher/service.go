// Package matcher selects the resource queue a submission should land in,
// preferring the default queue and falling back to backups by capacity.
package matcher

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/model/capacity"
)

// QueueSource provides resource queue lookups.
type QueueSource interface {
	GetQueue(ctx context.Context, queueID string) (*capacity.Queue, error)
}

// Service matches submissions to queues by capacity headroom.
type Service struct {
	queues QueueSource
	logger *logrus.Logger
}

// New returns a matcher backed by the given queue source.
func New(queues QueueSource, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{queues: queues, logger: logger}
}

// Request describes one queue selection round.
type Request struct {
	DefaultQueueID string
	BackupQueueIDs []string
	FlavorID       string
	Flavors        capacity.FlavorsByZone
	Buffers        capacity.Buffers
}

// Match returns the default queue when it has headroom for the flavor plus
// buffers, otherwise the first backup queue that does. Evaluation problems
// on the default queue are fatal; on backup queues they are logged and the
// queue skipped. When no queue has headroom the default queue is returned
// anyway so the platform can queue the task.
func (s *Service) Match(ctx context.Context, request *Request) (*capacity.Queue, error) {
	if request.FlavorID == "" {
		return nil, fmt.Errorf("flavor ID is required")
	}
	if err := request.Buffers.Validate(); err != nil {
		return nil, err
	}

	defaultQueue, err := s.queues.GetQueue(ctx, request.DefaultQueueID)
	if err != nil {
		return nil, err
	}
	vacant, err := s.evaluate(defaultQueue, request)
	if err != nil {
		return nil, err
	}
	if vacant {
		return defaultQueue, nil
	}

	for _, backupID := range request.BackupQueueIDs {
		backupQueue, err := s.queues.GetQueue(ctx, backupID)
		if err != nil {
			s.logger.Warnf("skipping backup queue %v: %v", backupID, err)
			continue
		}
		vacant, err := s.evaluate(backupQueue, request)
		if err != nil {
			s.logger.Warnf("skipping backup queue %v: %v", backupID, err)
			continue
		}
		if vacant {
			s.logger.Infof("using backup %s", backupQueue)
			return backupQueue, nil
		}
	}
	return defaultQueue, nil
}

// evaluate reports whether the queue currently has headroom for the
// requested flavor. An unknown or deprecated flavor, or a queue whose total
// capability cannot hold the flavor, is an error rather than a miss.
func (s *Service) evaluate(queue *capacity.Queue, request *Request) (bool, error) {
	flavor := request.Flavors.Find(queue.ZoneID, request.FlavorID)
	if flavor == nil {
		return false, fmt.Errorf("flavor %v not in zone %q of queue %s", request.FlavorID, queue.ZoneID, queue)
	}
	if flavor.Deprecated {
		return false, fmt.Errorf("%s is deprecated", flavor)
	}
	if !queue.Fit(flavor) {
		return false, fmt.Errorf("%s does not fit %s", queue, flavor)
	}
	return queue.VacantFor(flavor, request.Buffers), nil
}
