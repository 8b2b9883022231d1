package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusUnmarshal(t *testing.T) {
	payload := `{
		"Id": "t-20240801-x1",
		"Name": "train-encoder",
		"Description": "",
		"Tags": ["exp"],
		"State": "Running",
		"CacheType": "Cloudfs",
		"ClusterId": "cluster-1",
		"CreatorUserId": 4211,
		"ResourceGroupId": "rg-1",
		"ResourceQueueId": "q-1",
		"DiagInfo": "",
		"ExitCode": 0,
		"HasPermission": true,
		"CreateTime": "2024-08-01T10:30:00Z",
		"LaunchTime": "2024-08-01T10:31:12Z",
		"FinishTime": "",
		"UpdateTime": "2024-08-01T11:00:00Z"
	}`

	var status Status
	require.NoError(t, json.Unmarshal([]byte(payload), &status))

	assert.Equal(t, "t-20240801-x1", status.ID)
	assert.Equal(t, State("Running"), status.State)
	assert.Equal(t, int64(4211), status.CreatorUserID)
	assert.Equal(t, time.Date(2024, 8, 1, 10, 30, 0, 0, time.UTC), status.CreateTime.Time)
	assert.False(t, status.LaunchTime.IsZero())
	assert.True(t, status.FinishTime.IsZero(), "empty timestamp decodes as zero time")
}

func TestTimeRoundTrip(t *testing.T) {
	var parsed Time
	require.NoError(t, json.Unmarshal([]byte(`"2024-08-01T10:30:00Z"`), &parsed))
	encoded, err := json.Marshal(parsed)
	require.NoError(t, err)
	assert.Equal(t, `"2024-08-01T10:30:00Z"`, string(encoded))

	var zero Time
	encoded, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, `""`, string(encoded))

	assert.Error(t, json.Unmarshal([]byte(`"01/02/2024"`), &parsed))
}

func TestStatusClone(t *testing.T) {
	status := &Status{ID: "t-1", State: StateSuccess, Tags: []string{"a"}}
	clone := status.Clone()
	clone.Tags[0] = "b"
	clone.State = StateFailed
	assert.Equal(t, "a", status.Tags[0])
	assert.Equal(t, StateSuccess, status.State)

	var nilStatus *Status
	assert.Nil(t, nilStatus.Clone())
}
