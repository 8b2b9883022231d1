package profile

import (
	"context"
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/mlkit/model/task"
)

//go:embed testdata/*
var testFS embed.FS

// submitValues mirrors the submission request fields profiles populate.
type submitValues struct {
	Name                string
	ImageRepo           string
	ImageTag            string
	Commands            []string
	DefaultQueueID      string
	BackupQueueIDs      []string
	FlavorID            string
	Priority            int
	VepfsSubPaths       []string
	Envs                []task.EnvVar
	ActiveDeadlineHours int
	DelayExitMinutes    int
}

func newTestStore() *Store {
	return New(afs.New(), "embed:///testdata", &testFS)
}

func TestStoreLoad(t *testing.T) {
	store := newTestStore()

	var values submitValues
	err := store.Load(context.Background(), "train", &values)
	require.NoError(t, err)

	assert.EqualValues(t, "llm-train", values.Name)
	assert.EqualValues(t, "team/train", values.ImageRepo)
	assert.EqualValues(t, "v1", values.ImageTag)
	assert.EqualValues(t, []string{"q-backup-1", "q-backup-2"}, values.BackupQueueIDs)
	assert.EqualValues(t, "ml.g1.large", values.FlavorID)
	assert.Equal(t, 4, values.Priority)
	assert.EqualValues(t, []string{"/fs_users"}, values.VepfsSubPaths)
	assert.Equal(t, 48, values.ActiveDeadlineHours)
	if assert.Equal(t, 1, len(values.Envs)) {
		assert.EqualValues(t, "NCCL_DEBUG", values.Envs[0].Name)
		assert.EqualValues(t, "INFO", values.Envs[0].Value)
	}
}

func TestStoreLoadOverlaysExistingValues(t *testing.T) {
	store := newTestStore()

	// values set before the load survive unless the profile names them
	values := submitValues{Priority: 6, DelayExitMinutes: 10}
	err := store.Load(context.Background(), "train", &values)
	require.NoError(t, err)

	assert.Equal(t, 4, values.Priority)
	assert.Equal(t, 10, values.DelayExitMinutes)
}

func TestStoreLoadYmlExtension(t *testing.T) {
	store := newTestStore()

	var values submitValues
	err := store.Load(context.Background(), "debug.yml", &values)
	require.NoError(t, err)
	assert.EqualValues(t, "debug-shell", values.Name)
	assert.Equal(t, 30, values.DelayExitMinutes)
}

func TestStoreLoadErrors(t *testing.T) {
	var tests = []struct {
		name        string
		profile     string
		expectedErr string
	}{
		{
			name:        "unknown profile",
			profile:     "nonexistent",
			expectedErr: "failed to load profile",
		},
		{
			name:        "malformed document",
			profile:     "broken",
			expectedErr: "failed to parse profile",
		},
	}

	store := newTestStore()
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			var values submitValues
			err := store.Load(context.Background(), testCase.profile, &values)
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.expectedErr)
		})
	}
}

func TestStoreNames(t *testing.T) {
	store := newTestStore()
	names, err := store.Names(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, []string{"broken", "debug", "train"}, names)
}
