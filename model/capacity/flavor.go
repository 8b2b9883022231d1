package capacity

import (
	"fmt"
	"strings"
)

// FlavorType identifies a flavor family. The platform reports families as
// fixed display literals.
type FlavorType string

const (
	FlavorTypeGeneral FlavorType = "通用型"
	FlavorTypeCompute FlavorType = "计算型"
	FlavorTypeMemory  FlavorType = "内存型"
	FlavorTypeGPU     FlavorType = "GPU型"
	FlavorTypeHPCGPU  FlavorType = "高性能计算GPU型"
)

// xniGPUType is the GPU type of ml.xni* flavors, which the platform omits
// from flavor listings.
const xniGPUType = "X3C"

// Flavor describes a workload shape (machine configuration) offered by the
// platform.
type Flavor struct {
	Name                string     `json:"Name"`
	ID                  string     `json:"Id"`
	Type                FlavorType `json:"Type"`
	Deprecated          bool       `json:"Deprecated"`
	SupportVolumeTypeID string     `json:"SupportVolumeTypeId"`
	VCPU                int        `json:"vCPU"`
	Memory              int        `json:"Memory"`
	GPUType             string     `json:"GPUType"`
	GPUMemory           int        `json:"GPUMemory"`
	GPUNum              int        `json:"GPUNum"`
	MaxSlicesPerGPU     int        `json:"MaxSlicesPerGPU"`
	EniCount            int        `json:"EniCount"`
	NetQuota            string     `json:"NetQuota"`
}

// Normalize fixes up fields the platform reports inconsistently.
func (f *Flavor) Normalize() {
	if strings.HasPrefix(f.ID, "ml.xni") {
		f.GPUType = xniGPUType
	}
}

func (f *Flavor) String() string {
	return fmt.Sprintf("[flavor ID=%s type=%s]", f.ID, f.Type)
}

// FlavorsByZone indexes flavors by zone ID and then by flavor ID.
type FlavorsByZone map[string]map[string]*Flavor

// Find returns the flavor registered in the given zone or nil.
func (f FlavorsByZone) Find(zoneID, flavorID string) *Flavor {
	zone, ok := f[zoneID]
	if !ok {
		return nil
	}
	return zone[flavorID]
}
