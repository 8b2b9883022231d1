package task

import "fmt"

// Fixed values the platform expects on every custom task form submitted by
// this client.
const (
	FrameworkCustom     = "Custom"
	RestartPolicyNever  = "Never"
	SourceCodeStateNone = -1

	AccessPublic  = "Public"
	AccessPrivate = "Private"

	ImageTypePreset     = "Preset"
	ImageTypeVolcEngine = "VolcEngine"
	ImageTypeCustom     = "Custom"

	StorageTypeVepfs = "Vepfs"
)

// Task priorities accepted by the platform.
const (
	PriorityLow    = 2
	PriorityNormal = 4
	PriorityHigh   = 6

	DefaultPriority = PriorityHigh
)

// Deadline bounds enforced by the platform.
const (
	DefaultActiveDeadlineSeconds = 864000
	maxActiveDeadlineSeconds     = 100000000
	maxDelayExitTimeSeconds      = 864000
)

// ImageSpec selects the container image a task runs in.
type ImageSpec struct {
	URL      string   `json:"Url"`
	Type     string   `json:"Type,omitempty"`
	Purposes []string `json:"Purposes,omitempty"`
	Mode     string   `json:"Mode,omitempty"`
}

// ResourceSpec binds a role to a flavor in a zone.
type ResourceSpec struct {
	FlavorID      string         `json:"FlavorID"`
	ZoneID        string         `json:"ZoneId"`
	ResourceSlice map[string]int `json:"ResourceSlice,omitempty"`
	GPUType       string         `json:"GPUType"`
}

// RoleSpec describes a single task role. This client always submits one
// non-restarting single-replica role.
type RoleSpec struct {
	RoleName                 string       `json:"RoleName"`
	RoleReplicas             int          `json:"RoleReplicas"`
	ResourceSpec             ResourceSpec `json:"ResourceSpec"`
	RoleMinReplicas          int          `json:"RoleMinReplicas"`
	RoleMaxFailed            int          `json:"RoleMaxFailed"`
	RoleRestartPolicy        string       `json:"RoleRestartPolicy"`
	RoleRestartMaxRetryCount int          `json:"RoleRestartMaxRetryCount"`
}

// NewRoleSpec returns a role spec with the fixed replica and restart
// settings applied.
func NewRoleSpec(roleName string, spec ResourceSpec) RoleSpec {
	return RoleSpec{
		RoleName:                 roleName,
		RoleReplicas:             1,
		ResourceSpec:             spec,
		RoleMinReplicas:          1,
		RoleMaxFailed:            0,
		RoleRestartPolicy:        RestartPolicyNever,
		RoleRestartMaxRetryCount: 0,
	}
}

// Storage attaches a shared filesystem directory to the task containers.
type Storage struct {
	Type          string `json:"Type"`
	MountPath     string `json:"MountPath"`
	VepfsName     string `json:"VepfsName"`
	ReadOnly      bool   `json:"ReadOnly"`
	SubPath       string `json:"SubPath"`
	VepfsID       string `json:"VepfsId"`
	VepfsHostPath string `json:"VepfsHostPath"`
}

// DiagOption toggles one of the platform's diagnosis probes.
type DiagOption struct {
	Name   string `json:"Name"`
	Enable bool   `json:"Enable"`
}

// DefaultDiagOptions returns the probe set the platform requires, all
// disabled.
func DefaultDiagOptions() []DiagOption {
	return []DiagOption{
		{Name: "HostPing"},
		{Name: "PythonDetection"},
		{Name: "LogDetection"},
	}
}

// EnvVar is an environment variable visible to task containers.
type EnvVar struct {
	Name      string `json:"Name"`
	Value     string `json:"Value"`
	IsPrivate bool   `json:"IsPrivate"`
}

// RetryOptions controls platform-side task retries.
type RetryOptions struct {
	EnableRetry bool `json:"EnableRetry"`
}

// Form is the CreateCustomTask request payload.
type Form struct {
	Name                  string         `json:"Name"`
	Description           string         `json:"Description"`
	Tags                  []string       `json:"Tags"`
	EnableRangeType       string         `json:"EnableRangeType"`
	ImageSpec             ImageSpec      `json:"ImageSpec"`
	SourceCodeState       int            `json:"SourceCodeState"`
	EntrypointPath        string         `json:"EntrypointPath"`
	ResourceQueueID       string         `json:"ResourceQueueId"`
	Priority              int            `json:"Priority"`
	Preemptible           bool           `json:"Preemptible"`
	Framework             string         `json:"Framework"`
	TaskRoleSpecs         []RoleSpec     `json:"TaskRoleSpecs"`
	Storages              []Storage      `json:"Storages"`
	DiagOptions           []DiagOption   `json:"DiagOptions"`
	RetryOptions          RetryOptions   `json:"RetryOptions"`
	EnableTensorBoard     bool           `json:"EnableTensorBoard"`
	TensorBoardPath       string         `json:"TensorBoardPath"`
	AccessTypes           []string       `json:"AccessTypes"`
	AccessUserIDs         []string       `json:"AccessUserIds"`
	CodeSource            string         `json:"CodeSource"`
	CodeOriPath           string         `json:"CodeOriPath"`
	LocalCodePath         string         `json:"LocalCodePath"`
	TOSCodePath           string         `json:"TOSCodePath"`
	Envs                  []EnvVar       `json:"Envs"`
	AdvanceArgs           map[string]any `json:"AdvanceArgs"`
	ActiveDeadlineSeconds int            `json:"ActiveDeadlineSeconds"`
	DelayExitTimeSeconds  int            `json:"DelayExitTimeSeconds"`
}

// Init applies the fixed auto-filled fields and fills defaults for optional
// ones. It must be called before Validate.
func (f *Form) Init() {
	if f.EnableRangeType == "" {
		f.EnableRangeType = AccessPublic
	}
	if f.Priority == 0 {
		f.Priority = DefaultPriority
	}
	if f.Framework == "" {
		f.Framework = FrameworkCustom
	}
	if f.DiagOptions == nil {
		f.DiagOptions = DefaultDiagOptions()
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.Storages == nil {
		f.Storages = []Storage{}
	}
	if f.Envs == nil {
		f.Envs = []EnvVar{}
	}
	f.SourceCodeState = SourceCodeStateNone
	f.RetryOptions = RetryOptions{EnableRetry: false}
	f.AccessTypes = []string{f.EnableRangeType}
	f.AccessUserIDs = []string{}
	f.CodeSource = ""
	f.CodeOriPath = ""
	f.LocalCodePath = ""
	f.TOSCodePath = ""
	f.AdvanceArgs = map[string]any{}
}

// Validate checks the form against platform constraints.
func (f *Form) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if f.EnableRangeType != AccessPublic && f.EnableRangeType != AccessPrivate {
		return fmt.Errorf("invalid range type %q", f.EnableRangeType)
	}
	if f.ImageSpec.URL == "" {
		return fmt.Errorf("image URL is required")
	}
	if t := f.ImageSpec.Type; t != "" && t != ImageTypePreset && t != ImageTypeVolcEngine && t != ImageTypeCustom {
		return fmt.Errorf("invalid image type %q", t)
	}
	if f.ResourceQueueID == "" {
		return fmt.Errorf("resource queue ID is required")
	}
	if f.Priority != PriorityLow && f.Priority != PriorityNormal && f.Priority != PriorityHigh {
		return fmt.Errorf("priority must be one of %d, %d or %d, got %d", PriorityLow, PriorityNormal, PriorityHigh, f.Priority)
	}
	if len(f.TaskRoleSpecs) != 1 {
		return fmt.Errorf("exactly one task role spec is required, got %d", len(f.TaskRoleSpecs))
	}
	if f.ActiveDeadlineSeconds < 0 || f.ActiveDeadlineSeconds >= maxActiveDeadlineSeconds {
		return fmt.Errorf("active deadline %ds out of range [0, %d)", f.ActiveDeadlineSeconds, maxActiveDeadlineSeconds)
	}
	if f.DelayExitTimeSeconds < 0 || f.DelayExitTimeSeconds > maxDelayExitTimeSeconds {
		return fmt.Errorf("delay exit time %ds out of range [0, %d]", f.DelayExitTimeSeconds, maxDelayExitTimeSeconds)
	}
	return nil
}
