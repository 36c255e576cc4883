//go:build windows

package volumeinfo

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const driveTypeRemovable = 2

func list() ([]Info, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, err
	}

	var volumes []Info
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		root := fmt.Sprintf("%c:\\", 'A'+i)
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		driveType := windows.GetDriveType(rootPtr)

		var label [windows.MAX_PATH + 1]uint16
		_ = windows.GetVolumeInformation(rootPtr, &label[0], uint32(len(label)), nil, nil, nil, nil, 0)

		volumes = append(volumes, Info{
			ID:        idFor(root),
			MountPath: root,
			Label:     windows.UTF16ToString(label[:]),
			Removable: driveType == driveTypeRemovable,
		})
	}
	return volumes, nil
}
