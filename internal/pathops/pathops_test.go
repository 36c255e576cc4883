package pathops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPathIndependentOfExistence(t *testing.T) {
	h1 := HashPath("/tmp/does-not-exist/a.txt")
	h2 := HashPath("/tmp/does-not-exist/a.txt")
	assert.Equal(t, h1, h2)
}

func TestHashPathNormalizesTrailingSlash(t *testing.T) {
	assert.Equal(t, HashPath("/a/b/"), HashPath("/a/b"))
}

func TestHashPathNormalizesSeparators(t *testing.T) {
	assert.Equal(t, HashPath("/a/b/c"), HashPath(`\a\b\c`))
}

func TestPathHierarchyTerminatesAtRoot(t *testing.T) {
	h := PathHierarchy("/a/b/c")
	require.Equal(t, []string{"/a/b/c", "/a/b", "/a", "/"}, h)

	for i := 1; i < len(h); i++ {
		assert.Less(t, len(h[i]), len(h[i-1]), "hierarchy must be strictly descending by length")
	}
	assert.Equal(t, "/", h[len(h)-1])
}

func TestPathHierarchyRoot(t *testing.T) {
	assert.Equal(t, []string{"/"}, PathHierarchy("/"))
}

func TestSplitNameExt(t *testing.T) {
	cases := []struct {
		name, base, ext string
	}{
		{"a.txt", "a", "txt"},
		{".rc", "", "rc"},
		{"noext", "noext", ""},
		{"archive.tar.gz", "archive.tar", "gz"},
	}
	for _, c := range cases {
		base, ext := SplitNameExt(c.name)
		assert.Equal(t, c.base, base, c.name)
		assert.Equal(t, c.ext, ext, c.name)
	}
}

func TestLongestCommonRootPath(t *testing.T) {
	assert.Equal(t, "/a/b", LongestCommonRootPath("/a/b/c.txt", "/a/b/d/e.txt"))
	assert.Equal(t, "/a", LongestCommonRootPath("/a/b", "/a/c"))
	assert.Equal(t, "/x/y", LongestCommonRootPath("/x/y", "/x/y/z"))
}

func TestLongestCommonRootPathNoCommonAncestor(t *testing.T) {
	assert.Equal(t, "", LongestCommonRootPath("relative/a", "other/b"))
}

func TestFileSizeToString(t *testing.T) {
	assert.Equal(t, "512 B", FileSizeToString(512, 0, ""))
	assert.Equal(t, "1.5 KiB", FileSizeToString(1536, 0, ""))
	assert.Equal(t, "1.0 MiB", FileSizeToString(1024*1024, 0, ""))
	assert.Equal(t, "2.0 GiB", FileSizeToString(2*1024*1024*1024, 0, ""))
}

func TestFileSizeToStringMaxUnit(t *testing.T) {
	// Capped at KiB: a value that would normally render as MiB stays in KiB.
	assert.Equal(t, "1024.0 KiB", FileSizeToString(1024*1024, 'K', ""))
}
