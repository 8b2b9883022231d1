package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/model/task"
)

// testHandler receives the decoded action form and returns the HTTP status
// and raw response body to send back.
type testHandler func(action string, form map[string]any) (int, string)

func newTestClient(t *testing.T, handler testHandler) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("Action")
		assert.Equal(t, APIVersion, r.URL.Query().Get("Version"))
		var form map[string]any
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			form = map[string]any{}
		}
		status, body := handler(action, form)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	endpoint, err := url.Parse(server.URL)
	require.NoError(t, err)
	return New(&Config{
		AccessKeyID:     "test-ak",
		SecretAccessKey: "test-sk",
		Host:            endpoint.Host,
		Scheme:          "http",
	}, nil)
}

func resultEnvelope(result string) string {
	return fmt.Sprintf(`{"ResponseMetadata":{"RequestId":"req-1"},"Result":%s}`, result)
}

func errorEnvelope(code string, codeN int, message string) string {
	return fmt.Sprintf(
		`{"ResponseMetadata":{"RequestId":"req-1","Error":{"Code":%q,"CodeN":%d,"Message":%q}}}`,
		code, codeN, message,
	)
}

func TestCallAPIUnregisteredAction(t *testing.T) {
	client := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, resultEnvelope(`{}`)
	})
	_, err := client.CallAPI(context.Background(), "LaunchRocket", nil)
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, CodeOther, apiErr.Code)
}

func TestCallAPIMissingResult(t *testing.T) {
	client := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ResponseMetadata":{"RequestId":"req-1"}}`
	})
	_, err := client.CallAPI(context.Background(), ActionGetMetrics, map[string]string{})
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, CodeMissingResult, apiErr.Code)
	assert.Equal(t, ActionGetMetrics, apiErr.API)
}

func TestCallAPIProviderError(t *testing.T) {
	client := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusForbidden, errorEnvelope(CodeUnauthorized, 100403, "operation denied")
	})
	_, err := client.CallAPI(context.Background(), ActionStopCustomTask, &signalForm{ID: "t-1"})
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, CodeUnauthorized, apiErr.Code)
	assert.Equal(t, 100403, apiErr.CodeN)
	assert.Equal(t, "operation denied", apiErr.Message)
	assert.True(t, IsUnauthorized(err))
}

func TestGetQueue(t *testing.T) {
	queueJSON := `{
		"Id": "q-1", "Name": "research", "ZoneId": "cn-beijing-a",
		"State": "Running", "Role": "Admin",
		"QuotaCapability": {"VCPU": 100, "Memory": 400, "GPUResources": {"A100": 8}, "RdmaEniCount": 0},
		"QuotaAllocated": {"VCPU": 10, "Memory": 40, "GPUResources": {"A100": 2}, "RdmaEniCount": 0},
		"VolumeCapability": [{"Id": "v-1", "Num": 10, "ZoneId": "cn-beijing-a", "Name": "essd"}],
		"VolumeAllocated": []
	}`
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionGetResourceQueue, action)
		assert.Equal(t, "q-1", form["Id"])
		return http.StatusOK, resultEnvelope(queueJSON)
	})

	queue, err := client.GetQueue(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, "q-1", queue.ID)
	assert.Equal(t, 90, queue.VacantCPU())
	assert.Equal(t, 6, queue.VacantGPU("A100"))
}

func TestGetQueueNotFound(t *testing.T) {
	client := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusBadRequest, errorEnvelope(CodeInvalidParameter, 100004, "no such queue")
	})
	_, err := client.GetQueue(context.Background(), "q-missing")
	require.Error(t, err)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "resource queue", notFound.Kind)
	assert.Equal(t, "q-missing", notFound.ID)
	assert.True(t, IsNotFound(err))
}

func TestGetQueueRejectsUnusable(t *testing.T) {
	tests := []struct {
		name  string
		queue string
	}{
		{
			name:  "blank role",
			queue: `{"Id": "q-1", "State": "Running", "Role": ""}`,
		},
		{
			name:  "stopped queue",
			queue: `{"Id": "q-1", "State": "Stopped", "Role": "Admin"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(string, map[string]any) (int, string) {
				return http.StatusOK, resultEnvelope(tc.queue)
			})
			_, err := client.GetQueue(context.Background(), "q-1")
			assert.Error(t, err)
		})
	}
}

func TestListFlavors(t *testing.T) {
	flavorsJSON := `{
		"List": {
			"cn-beijing-a": {
				"GPU型": [
					{"Id": "ml.pni2.3xlarge", "Name": "pni2", "Type": "GPU型", "vCPU": 14, "Memory": 100, "GPUType": "A100", "GPUNum": 1},
					{"Id": "ml.xni3.28xlarge", "Name": "xni3", "Type": "GPU型", "vCPU": 112, "Memory": 1600, "GPUType": "", "GPUNum": 8}
				],
				"通用型": [
					{"Id": "ml.g1.large", "Name": "g1", "Type": "通用型", "vCPU": 8, "Memory": 32}
				]
			}
		}
	}`
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionListFlavors, action)
		assert.Equal(t, "Scheduling", form["DisplayType"])
		return http.StatusOK, resultEnvelope(flavorsJSON)
	})

	flavors, err := client.ListFlavors(context.Background())
	require.NoError(t, err)
	require.Len(t, flavors["cn-beijing-a"], 3)

	// GPU type of ml.xni* flavors is filled in during normalization.
	xni := flavors.Find("cn-beijing-a", "ml.xni3.28xlarge")
	require.NotNil(t, xni)
	assert.Equal(t, "X3C", xni.GPUType)
	assert.Equal(t, capacity.FlavorTypeGPU, xni.Type)
}

func TestGetTask(t *testing.T) {
	taskJSON := `{
		"Id": "t-1", "Name": "train", "State": "Running", "CreatorUserId": 42,
		"ResourceQueueId": "q-1", "CreateTime": "2024-08-01T10:30:00Z", "FinishTime": ""
	}`
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionGetCustomTask, action)
		return http.StatusOK, resultEnvelope(taskJSON)
	})

	status, err := client.GetTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, task.State("Running"), status.State)
	assert.Equal(t, int64(42), status.CreatorUserID)
	assert.True(t, status.FinishTime.IsZero())
}

func TestGetTaskNotFound(t *testing.T) {
	client := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusBadRequest, errorEnvelope(CodeResourceNotFound, 100005, "no such task")
	})
	_, err := client.GetTask(context.Background(), "t-missing")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "custom task", notFound.Kind)
}

func TestCreateTask(t *testing.T) {
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionCreateCustomTask, action)
		assert.Equal(t, "train", form["Name"])
		// auto-filled fields travel with the form
		assert.Equal(t, float64(-1), form["SourceCodeState"])
		return http.StatusOK, resultEnvelope(`{"Id": "t-new"}`)
	})

	form := &task.Form{
		Name:            "train",
		ImageSpec:       task.ImageSpec{URL: "repo:v1"},
		ResourceQueueID: "q-1",
		TaskRoleSpecs:   []task.RoleSpec{task.NewRoleSpec("worker", task.ResourceSpec{FlavorID: "ml.g1.large", ZoneID: "cn-beijing-a"})},
	}
	form.Init()
	id, err := client.CreateTask(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "t-new", id)
}

func TestStopTaskErrorCode(t *testing.T) {
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionStopCustomTask, action)
		assert.Equal(t, false, form["EnableDiagnosis"])
		return http.StatusForbidden, errorEnvelope(CodeUnauthorized, 100403, "not yours")
	})
	err := client.StopTask(context.Background(), "t-1")
	assert.True(t, IsUnauthorized(err))
}

func TestDeleteTaskNotTerminal(t *testing.T) {
	client := newTestClient(t, func(string, map[string]any) (int, string) {
		return http.StatusConflict, errorEnvelope(CodeTaskNotTerminal, 100409, "task still running")
	})
	err := client.DeleteTask(context.Background(), "t-1")
	assert.True(t, IsTaskNotTerminal(err))
}

func TestGetImageRepo(t *testing.T) {
	repoJSON := `{
		"Id": "vision", "Namespace": "team", "Name": "vision", "Preset": false,
		"Tags": ["vision:v1", "vision:v2"], "Registry": "cr-cn-beijing"
	}`
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionGetImageRepo, action)
		return http.StatusOK, resultEnvelope(repoJSON)
	})

	repo, err := client.GetImageRepo(context.Background(), "vision")
	require.NoError(t, err)
	assert.True(t, repo.HasTag("vision:v1"))
	assert.False(t, repo.HasTag("vision:v3"))
}

func TestGetVepfsMount(t *testing.T) {
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		switch action {
		case ActionListMountPoints:
			assert.Equal(t, "Vepfs", form["StorageType"])
			return http.StatusOK, resultEnvelope(`{"List": [
				{"StorageType": "Vepfs", "VepfsName": "broken", "Status": "Error", "VepfsId": "vp-0"},
				{"StorageType": "Vepfs", "VepfsName": "shared", "Status": "Running", "VepfsId": "vp-1"},
				{"StorageType": "Vepfs", "VepfsName": "other", "Status": "Running", "VepfsId": "vp-2"}
			]}`)
		case ActionGetUserVepfsFilesetPermission:
			ids, _ := form["VepfsIds"].([]any)
			require.Len(t, ids, 1)
			assert.Equal(t, "vp-1", ids[0])
			return http.StatusOK, resultEnvelope(`{"VepfsIdToDirectories": {
				"vp-1": {"ReadWriteDirectories": ["/fs_users"], "ReadOnlyDirectories": ["/fs_data"]}
			}}`)
		}
		return http.StatusBadRequest, errorEnvelope(CodeInvalidParameter, 100004, "unexpected action")
	})

	mount, err := client.GetVepfsMount(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, "shared", mount.VepfsName)
	assert.Equal(t, []string{"/fs_users"}, mount.ReadWriteDirectories)
	assert.Equal(t, []string{"/fs_data"}, mount.ReadOnlyDirectories)
}

func TestGetVepfsMountNoneRunning(t *testing.T) {
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		return http.StatusOK, resultEnvelope(`{"List": [
			{"StorageType": "Vepfs", "VepfsName": "broken", "Status": "Error", "VepfsId": "vp-0"},
			{"StorageType": "Vepfs", "VepfsName": "anon", "Status": "Running", "VepfsId": ""}
		]}`)
	})
	_, err := client.GetVepfsMount(context.Background(), "q-1")
	assert.Error(t, err)
}

func TestListTasks(t *testing.T) {
	client := newTestClient(t, func(action string, form map[string]any) (int, string) {
		assert.Equal(t, ActionListCustomTasks, action)
		assert.Equal(t, float64(2), form["PageSize"])
		return http.StatusOK, resultEnvelope(`{"Total": 2, "List": [
			{"Id": "t-1", "State": "Running"},
			{"Id": "t-2", "State": "Success"}
		]}`)
	})
	tasks, err := client.ListTasks(context.Background(), &ListQuery{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.True(t, tasks[1].State.IsTerminal())
}
