//go:build !windows

package volumeinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMountsSkipsPseudoFilesystems(t *testing.T) {
	input := strings.Join([]string{
		"proc /proc proc rw,nosuid,nodev,noexec 0 0",
		"tmpfs /run tmpfs rw,nosuid,nodev 0 0",
		"/dev/sda1 / ext4 rw,relatime 0 0",
		"/dev/sdb1 /media/usb vfat rw,relatime 0 0",
	}, "\n")

	volumes, err := parseMounts(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, volumes, 2)

	assert.Equal(t, "/", volumes[0].MountPath)
	assert.False(t, volumes[0].Removable)

	assert.Equal(t, "/media/usb", volumes[1].MountPath)
	assert.True(t, volumes[1].Removable)
}
