package platform

import (
	"net/http"
	"net/url"

	"github.com/volcengine/volc-sdk-golang/base"
)

// Actions registered with the signed API client. Each is invoked as a POST
// with the action name and version in the query string.
const (
	ActionCreateCustomTask              = "CreateCustomTask"
	ActionGetCustomTask                 = "GetCustomTask"
	ActionListCustomTasks               = "ListCustomTasks"
	ActionStopCustomTask                = "StopCustomTask"
	ActionGetContainerLogs              = "GetContainerLogs"
	ActionDeleteCustomTask              = "DeleteCustomTask"
	ActionGetCustomTaskInstances        = "GetCustomTaskInstances"
	ActionGetResourceQueue              = "GetResourceQueue"
	ActionListResourceQueues            = "ListResourceQueues"
	ActionGetMetrics                    = "GetMetrics"
	ActionListImageRepos                = "ListImageRepos"
	ActionGetImageRepo                  = "GetImageRepo"
	ActionListMountPoints               = "ListMountPoints"
	ActionListFlavors                   = "ListFlavorsV2"
	ActionGetUserVepfsFilesetPermission = "GetUserVepfsFilesetPermission"
)

// Actions lists every action this client may call.
var Actions = []string{
	ActionCreateCustomTask,
	ActionGetCustomTask,
	ActionListCustomTasks,
	ActionStopCustomTask,
	ActionGetContainerLogs,
	ActionDeleteCustomTask,
	ActionGetCustomTaskInstances,
	ActionGetResourceQueue,
	ActionListResourceQueues,
	ActionGetMetrics,
	ActionListImageRepos,
	ActionGetImageRepo,
	ActionListMountPoints,
	ActionListFlavors,
	ActionGetUserVepfsFilesetPermission,
}

func apiInfoList() map[string]*base.ApiInfo {
	list := make(map[string]*base.ApiInfo, len(Actions))
	for _, action := range Actions {
		list[action] = &base.ApiInfo{
			Method: http.MethodPost,
			Path:   "/",
			Query: url.Values{
				"Action":  []string{action},
				"Version": []string{APIVersion},
			},
		}
	}
	return list
}
