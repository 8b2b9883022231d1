package capacity

import "fmt"

// QueueStateRunning is the only queue state that accepts submissions.
const QueueStateRunning = "Running"

// Quota holds per-dimension resource quantities of a queue, either its total
// capability or its currently allocated share.
type Quota struct {
	VCPU         int            `json:"VCPU"`
	Memory       int            `json:"Memory"`
	GPUResources map[string]int `json:"GPUResources"`
	RdmaEniCount int            `json:"RdmaEniCount"`
}

// Volume describes a block of attachable volumes in a zone.
type Volume struct {
	ID     string `json:"Id"`
	Num    int    `json:"Num"`
	ZoneID string `json:"ZoneId"`
	Name   string `json:"Name"`
}

// Queue is a resource queue descriptor as returned by the platform, with
// derived headroom accessors and flavor fitness predicates.
type Queue struct {
	ID                 string   `json:"Id"`
	Name               string   `json:"Name"`
	Description        string   `json:"Description"`
	ClusterID          string   `json:"ClusterId"`
	ZoneID             string   `json:"ZoneId"`
	DevZoneID          string   `json:"DevZoneId"`
	State              string   `json:"State"`
	Role               string   `json:"Role"`
	ResourceGroupID    string   `json:"ResourceGroupId"`
	CapableFlavorTypes string   `json:"CapableFlavorTypes"`
	Shareable          bool     `json:"Shareable"`
	SupportMGPU        bool     `json:"SupportMGPU"`
	QuotaCapability    Quota    `json:"QuotaCapability"`
	QuotaAllocated     Quota    `json:"QuotaAllocated"`
	VolumeCapability   []Volume `json:"VolumeCapability"`
	VolumeAllocated    []Volume `json:"VolumeAllocated"`
}

func (q *Queue) String() string {
	return fmt.Sprintf("[resource queue ID=%s name=%s]", q.ID, q.Name)
}

// TotalCPU returns the queue CPU capability in cores.
func (q *Queue) TotalCPU() int { return q.QuotaCapability.VCPU }

// AllocatedCPU returns currently allocated CPU cores.
func (q *Queue) AllocatedCPU() int { return q.QuotaAllocated.VCPU }

// VacantCPU returns CPU headroom in cores.
func (q *Queue) VacantCPU() int { return q.TotalCPU() - q.AllocatedCPU() }

// TotalMemory returns the queue memory capability.
func (q *Queue) TotalMemory() int { return q.QuotaCapability.Memory }

// AllocatedMemory returns currently allocated memory.
func (q *Queue) AllocatedMemory() int { return q.QuotaAllocated.Memory }

// VacantMemory returns memory headroom.
func (q *Queue) VacantMemory() int { return q.TotalMemory() - q.AllocatedMemory() }

// TotalGPU returns the queue capability for the given GPU type.
func (q *Queue) TotalGPU(gpuType string) int {
	return q.QuotaCapability.GPUResources[gpuType]
}

// AllocatedGPU returns currently allocated GPUs of the given type.
func (q *Queue) AllocatedGPU(gpuType string) int {
	return q.QuotaAllocated.GPUResources[gpuType]
}

// VacantGPU returns GPU headroom for the given type.
func (q *Queue) VacantGPU(gpuType string) int {
	return q.TotalGPU(gpuType) - q.AllocatedGPU(gpuType)
}

// VacantVolume returns the number of unallocated volumes across all zones.
func (q *Queue) VacantVolume() int {
	var total, allocated int
	for _, v := range q.VolumeCapability {
		total += v.Num
	}
	for _, v := range q.VolumeAllocated {
		allocated += v.Num
	}
	return total - allocated
}

// Fit reports whether the queue total capability can hold the flavor at all,
// ignoring current allocation. HPC GPU flavors are never schedulable through
// this client.
func (q *Queue) Fit(flavor *Flavor) bool {
	if flavor.Type == FlavorTypeHPCGPU {
		return false
	}
	if q.TotalCPU() < flavor.VCPU || q.TotalMemory() < flavor.Memory {
		return false
	}
	if flavor.Type == FlavorTypeGPU {
		return q.TotalGPU(flavor.GPUType) >= flavor.GPUNum
	}
	return true
}

// VacantFor reports whether current headroom admits the flavor with the
// given safety buffers on top. GPU headroom is compared without a buffer;
// the volume buffer is an absolute floor rather than an increment.
func (q *Queue) VacantFor(flavor *Flavor, buffers Buffers) bool {
	if flavor.Type == FlavorTypeHPCGPU {
		return false
	}
	if flavor.Type == FlavorTypeGPU && q.VacantGPU(flavor.GPUType) < flavor.GPUNum {
		return false
	}
	return q.VacantCPU() >= flavor.VCPU+buffers.CPU &&
		q.VacantMemory() >= flavor.Memory+buffers.Memory &&
		q.VacantVolume() >= buffers.Volume
}
