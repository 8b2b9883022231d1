package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/model/image"
	"github.com/viant/mlkit/model/task"
	"github.com/viant/mlkit/model/vepfs"
)

type idForm struct {
	ID string `json:"Id"`
}

type signalForm struct {
	ID              string `json:"Id"`
	EnableDiagnosis bool   `json:"EnableDiagnosis"`
}

// ListQuery pages through list actions; zero fields are omitted so the
// platform applies its own defaults.
type ListQuery struct {
	PageNumber int    `json:"PageNumber,omitempty"`
	PageSize   int    `json:"PageSize,omitempty"`
	Name       string `json:"Name,omitempty"`
}

// GetQueue fetches a resource queue and verifies it is usable for
// submissions: the caller holds a role on it and the queue is running.
func (c *Client) GetQueue(ctx context.Context, queueID string) (*capacity.Queue, error) {
	result, err := c.CallAPI(ctx, ActionGetResourceQueue, &idForm{ID: queueID})
	if err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Kind: "resource queue", ID: queueID}
		}
		return nil, err
	}
	queue := &capacity.Queue{}
	if err := json.Unmarshal(result, queue); err != nil {
		return nil, fmt.Errorf("failed to decode resource queue %v: %w", queueID, err)
	}
	if queue.Role == "" {
		return nil, fmt.Errorf("invalid role for queue %v", queueID)
	}
	if queue.State != capacity.QueueStateRunning {
		return nil, fmt.Errorf("invalid state %q for queue %v", queue.State, queueID)
	}
	return queue, nil
}

// ListQueues returns the resource queues visible to the caller.
func (c *Client) ListQueues(ctx context.Context, query *ListQuery) ([]*capacity.Queue, error) {
	if query == nil {
		query = &ListQuery{}
	}
	result, err := c.CallAPI(ctx, ActionListResourceQueues, query)
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []*capacity.Queue `json:"List"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode resource queues: %w", err)
	}
	return payload.List, nil
}

// ListFlavors returns all schedulable flavors indexed by zone and flavor ID.
func (c *Client) ListFlavors(ctx context.Context) (capacity.FlavorsByZone, error) {
	result, err := c.CallAPI(ctx, ActionListFlavors, map[string]string{"DisplayType": "Scheduling"})
	if err != nil {
		return nil, err
	}
	// Flavors arrive grouped by zone and then by flavor family.
	var payload struct {
		List map[string]map[string][]*capacity.Flavor `json:"List"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode flavors: %w", err)
	}
	flavors := capacity.FlavorsByZone{}
	for zoneID, families := range payload.List {
		zone := map[string]*capacity.Flavor{}
		for _, familyFlavors := range families {
			for _, flavor := range familyFlavors {
				flavor.Normalize()
				zone[flavor.ID] = flavor
			}
		}
		flavors[zoneID] = zone
	}
	return flavors, nil
}

// GetTask returns the current status snapshot of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*task.Status, error) {
	result, err := c.CallAPI(ctx, ActionGetCustomTask, &idForm{ID: taskID})
	if err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Kind: "custom task", ID: taskID}
		}
		return nil, err
	}
	status := &task.Status{}
	if err := json.Unmarshal(result, status); err != nil {
		return nil, fmt.Errorf("failed to decode task %v: %w", taskID, err)
	}
	return status, nil
}

// ListTasks returns task status snapshots matching the query.
func (c *Client) ListTasks(ctx context.Context, query *ListQuery) ([]*task.Status, error) {
	if query == nil {
		query = &ListQuery{}
	}
	result, err := c.CallAPI(ctx, ActionListCustomTasks, query)
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []*task.Status `json:"List"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return payload.List, nil
}

// CreateTask submits the form and returns the new task ID.
func (c *Client) CreateTask(ctx context.Context, form *task.Form) (string, error) {
	result, err := c.CallAPI(ctx, ActionCreateCustomTask, form)
	if err != nil {
		return "", err
	}
	var payload struct {
		ID string `json:"Id"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return "", fmt.Errorf("failed to decode created task ID: %w", err)
	}
	return payload.ID, nil
}

// StopTask asks the platform to stop a task. Authorization and state
// conflicts surface as *APIError for the caller to interpret.
func (c *Client) StopTask(ctx context.Context, taskID string) error {
	_, err := c.CallAPI(ctx, ActionStopCustomTask, &signalForm{ID: taskID})
	return err
}

// DeleteTask asks the platform to delete a terminal task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	_, err := c.CallAPI(ctx, ActionDeleteCustomTask, &signalForm{ID: taskID})
	return err
}

// TaskLogs fetches recent container log lines of a task.
func (c *Client) TaskLogs(ctx context.Context, taskID string, lines int) ([]string, error) {
	form := struct {
		ID    string `json:"Id"`
		Lines int    `json:"Lines,omitempty"`
	}{ID: taskID, Lines: lines}
	result, err := c.CallAPI(ctx, ActionGetContainerLogs, &form)
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []string `json:"List"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode container logs: %w", err)
	}
	return payload.List, nil
}

// GetImageRepo returns the image repository with its published tags.
func (c *Client) GetImageRepo(ctx context.Context, repoID string) (*image.Repo, error) {
	result, err := c.CallAPI(ctx, ActionGetImageRepo, &idForm{ID: repoID})
	if err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Kind: "image repo", ID: repoID}
		}
		return nil, err
	}
	repo := &image.Repo{}
	if err := json.Unmarshal(result, repo); err != nil {
		return nil, fmt.Errorf("failed to decode image repo %v: %w", repoID, err)
	}
	return repo, nil
}

// ListImageRepos returns image repositories visible to the caller.
func (c *Client) ListImageRepos(ctx context.Context, query *ListQuery) ([]*image.Repo, error) {
	if query == nil {
		query = &ListQuery{}
	}
	result, err := c.CallAPI(ctx, ActionListImageRepos, query)
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []*image.Repo `json:"List"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode image repos: %w", err)
	}
	return payload.List, nil
}

// GetVepfsMount returns the first running vePFS mount visible to the queue,
// augmented with the directory permissions the caller holds on it.
func (c *Client) GetVepfsMount(ctx context.Context, queueID string) (*vepfs.Mount, error) {
	form := struct {
		StorageType     string `json:"StorageType"`
		ResourceQueueID string `json:"ResourceQueueId"`
	}{StorageType: task.StorageTypeVepfs, ResourceQueueID: queueID}
	result, err := c.CallAPI(ctx, ActionListMountPoints, &form)
	if err != nil {
		return nil, err
	}
	var payload struct {
		List []vepfs.Mount `json:"List"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode mount points: %w", err)
	}
	for i := range payload.List {
		mount := payload.List[i]
		if mount.VepfsID == "" || mount.Status != vepfs.StatusRunning {
			continue
		}
		// Only the first usable mount matters.
		readWrite, readOnly, err := c.vepfsFilesetDirectories(ctx, mount.VepfsID)
		if err != nil {
			return nil, err
		}
		mount.ReadWriteDirectories = readWrite
		mount.ReadOnlyDirectories = readOnly
		return &mount, nil
	}
	c.logger.Errorf("failed to get vePFS mount from: %s", result)
	return nil, fmt.Errorf("failed to get vePFS mount for queue %v", queueID)
}

// vepfsFilesetDirectories returns the fileset directories the caller may
// read and write on the given vePFS instance.
func (c *Client) vepfsFilesetDirectories(ctx context.Context, vepfsID string) ([]string, []string, error) {
	form := struct {
		VepfsIDs []string `json:"VepfsIds"`
	}{VepfsIDs: []string{vepfsID}}
	result, err := c.CallAPI(ctx, ActionGetUserVepfsFilesetPermission, &form)
	if err != nil {
		return nil, nil, err
	}
	var payload struct {
		VepfsIDToDirectories map[string]struct {
			ReadWriteDirectories []string `json:"ReadWriteDirectories"`
			ReadOnlyDirectories  []string `json:"ReadOnlyDirectories"`
		} `json:"VepfsIdToDirectories"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode fileset permissions: %w", err)
	}
	directories, ok := payload.VepfsIDToDirectories[vepfsID]
	if !ok {
		return nil, nil, fmt.Errorf("no fileset permissions for vePFS %v", vepfsID)
	}
	return directories.ReadWriteDirectories, directories.ReadOnlyDirectories, nil
}
