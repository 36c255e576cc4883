// Package volumeinfo enumerates locally mounted volumes for the dual-pane
// volume picker and the API's /api/volumes endpoint, replacing the
// teacher's ADB/MTP device scanner with a local-filesystem equivalent.
package volumeinfo

import "module/internal/volumeid"

// Info describes one locally mounted volume.
type Info struct {
	ID        uint64 `json:"id"`
	MountPath string `json:"mountPath"`
	Label     string `json:"label"`
	Removable bool   `json:"removable"`
}

// List returns every volume currently mounted on the host. Platform-specific
// enumeration lives in volumeinfo_unix.go and volumeinfo_windows.go.
func List() ([]Info, error) {
	return list()
}

func idFor(mountPath string) uint64 {
	return volumeid.Resolve(mountPath)
}
