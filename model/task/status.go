package task

import (
	"encoding/json"
	"time"
)

// timeLayout is the timestamp format the platform uses.
const timeLayout = "2006-01-02T15:04:05Z"

// Time decodes platform timestamps, where an empty string stands for a
// timestamp that has not been set yet.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.Format(timeLayout))
}

// Status is a point-in-time snapshot of a task as reported by the platform.
type Status struct {
	ID              string   `json:"Id"`
	Name            string   `json:"Name"`
	Description     string   `json:"Description"`
	Tags            []string `json:"Tags"`
	State           State    `json:"State"`
	CacheType       string   `json:"CacheType"`
	ClusterID       string   `json:"ClusterId"`
	CreatorUserID   int64    `json:"CreatorUserId"`
	ResourceGroupID string   `json:"ResourceGroupId"`
	ResourceQueueID string   `json:"ResourceQueueId"`
	DiagInfo        string   `json:"DiagInfo"`
	ExitCode        int      `json:"ExitCode"`
	HasPermission   bool     `json:"HasPermission"`
	CreateTime      Time     `json:"CreateTime"`
	LaunchTime      Time     `json:"LaunchTime"`
	FinishTime      Time     `json:"FinishTime"`
	UpdateTime      Time     `json:"UpdateTime"`
}

// Clone returns a copy the caller can keep without racing the tracker.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Tags != nil {
		clone.Tags = append([]string(nil), s.Tags...)
	}
	return &clone
}
