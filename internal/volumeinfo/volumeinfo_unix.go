//go:build !windows

package volumeinfo

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// pseudoFilesystems are mount entries that are never useful destinations.
var pseudoFilesystems = map[string]bool{
	"proc": true, "sysfs": true, "devtmpfs": true, "devpts": true,
	"tmpfs": true, "cgroup": true, "cgroup2": true, "overlay": true,
	"squashfs": true, "debugfs": true, "tracefs": true, "mqueue": true,
	"securityfs": true, "pstore": true, "bpf": true, "autofs": true,
}

func list() ([]Info, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		// Non-Linux Unix (e.g. darwin): report the root as the one known volume.
		return []Info{{ID: idFor("/"), MountPath: "/", Label: "/", Removable: false}}, nil
	}
	defer f.Close()
	return parseMounts(f)
}

// parseMounts reads /proc/mounts-formatted lines (device mountpoint fstype
// options dump pass), skipping pseudo-filesystems.
func parseMounts(r io.Reader) ([]Info, error) {
	var volumes []Info
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountPath, fsType := fields[1], fields[2]
		if pseudoFilesystems[fsType] {
			continue
		}
		volumes = append(volumes, Info{
			ID:        idFor(mountPath),
			MountPath: mountPath,
			Label:     mountPath,
			Removable: strings.HasPrefix(mountPath, "/media/") || strings.HasPrefix(mountPath, "/run/media/"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return volumes, nil
}
