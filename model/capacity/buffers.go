package capacity

import "fmt"

// DefaultVolumeBuffer is the minimum vacant volume count a queue must retain
// to be considered for a new task.
const DefaultVolumeBuffer = 5

// Buffers are safety margins applied on top of a flavor's demand when
// checking queue headroom.
type Buffers struct {
	CPU    int `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	Memory int `json:"memory,omitempty" yaml:"memory,omitempty"`
	Volume int `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// DefaultBuffers returns the buffers applied when a submission does not set
// its own.
func DefaultBuffers() Buffers {
	return Buffers{Volume: DefaultVolumeBuffer}
}

// Validate rejects negative buffers.
func (b Buffers) Validate() error {
	if b.CPU < 0 || b.Memory < 0 || b.Volume < 0 {
		return fmt.Errorf("resource buffers must be non-negative, got cpu=%d memory=%d volume=%d", b.CPU, b.Memory, b.Volume)
	}
	return nil
}
