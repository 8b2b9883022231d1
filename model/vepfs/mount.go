// Package vepfs models shared parallel filesystem (vePFS) mounts exposed to
// resource queues.
package vepfs

// Mount is a vePFS mount point together with the directory permissions the
// calling user holds on it.
type Mount struct {
	StorageType          string   `json:"StorageType"`
	VepfsName            string   `json:"VepfsName"`
	VepfsID              string   `json:"VepfsId"`
	Status               string   `json:"Status"`
	ReadWriteDirectories []string `json:"ReadWriteDirectories"`
	ReadOnlyDirectories  []string `json:"ReadOnlyDirectories"`
}

// StatusRunning marks a mount as usable.
const StatusRunning = "Running"

// Access classifies a directory path against the mount permissions.
type Access int

const (
	AccessNone Access = iota
	AccessReadWrite
	AccessReadOnly
)

// AccessFor returns the permission the user holds on the given directory.
func (m *Mount) AccessFor(path string) Access {
	for _, dir := range m.ReadWriteDirectories {
		if dir == path {
			return AccessReadWrite
		}
	}
	for _, dir := range m.ReadOnlyDirectories {
		if dir == path {
			return AccessReadOnly
		}
	}
	return AccessNone
}

// Directories returns all directories reachable through the mount.
func (m *Mount) Directories() []string {
	dirs := make([]string, 0, len(m.ReadWriteDirectories)+len(m.ReadOnlyDirectories))
	dirs = append(dirs, m.ReadWriteDirectories...)
	dirs = append(dirs, m.ReadOnlyDirectories...)
	return dirs
}
