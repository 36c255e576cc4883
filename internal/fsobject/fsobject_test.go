package fsobject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module/internal/pathops"
)

func writeFile(t *testing.T, path string, contents []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, contents, 0644))
}

func TestHashIndependentOfExistence(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")

	obj := New(missing)
	assert.Equal(t, pathops.HashPath(missing), obj.Hash())
	assert.False(t, obj.Properties().Exists)
}

func TestEqualityAgreesWithHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, []byte("hi"))

	a := New(path)
	b := New(path)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestRefreshClassifiesFileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.txt")
	writeFile(t, filePath, []byte("helloworld"))

	file := New(filePath)
	props := file.Properties()
	require.True(t, props.Exists)
	assert.Equal(t, File, props.Type)
	assert.Equal(t, uint64(10), props.Size)
	assert.Equal(t, "a", props.BaseName)
	assert.Equal(t, "txt", props.Extension)
	assert.True(t, props.IsValid())

	subdir := New(filepath.Join(dir, "sub"))
	require.NoError(t, os.Mkdir(subdir.Properties().FullPath, 0755))
	subdir.Refresh()
	assert.Equal(t, Directory, subdir.Properties().Type)
	assert.Equal(t, uint64(0), subdir.Properties().Size)
}

func TestDotFileExtensionPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".rc")
	writeFile(t, path, nil)

	obj := New(path)
	props := obj.Properties()
	assert.Equal(t, "", props.BaseName)
	assert.Equal(t, "rc", props.Extension)
}

func TestIsCdUp(t *testing.T) {
	obj := New("/tmp/some/..")
	assert.True(t, obj.IsCdUp())
}

func TestIsChildOfCaseInsensitive(t *testing.T) {
	parent := New("/Tmp/Parent")
	child := New("/tmp/parent/child.txt")
	assert.True(t, child.IsChildOf(parent))
	assert.False(t, parent.IsChildOf(child))
}

func TestCopyAtomicallyProducesIdenticalBytes(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.txt")
	destDir := filepath.Join(dir, "dest")
	require.NoError(t, os.Mkdir(destDir, 0755))
	writeFile(t, srcPath, []byte("helloworld"))

	src := New(srcPath)
	require.Equal(t, Ok, src.CopyAtomically(destDir, ""))

	got, err := os.ReadFile(filepath.Join(destDir, "src.txt"))
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(got))
}

func TestMoveAtomicallySameVolume(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.txt")
	destDir := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(destDir, 0755))
	writeFile(t, srcPath, []byte("helloworld"))

	obj := New(srcPath)
	require.Equal(t, Ok, obj.MoveAtomically(destDir, ""))

	_, err := os.Stat(srcPath)
	assert.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(filepath.Join(destDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(got))
}

func TestMoveAtomicallyMissingSource(t *testing.T) {
	dir := t.TempDir()
	obj := New(filepath.Join(dir, "missing.txt"))
	assert.Equal(t, ObjectDoesNotExist, obj.MoveAtomically(dir, ""))
}

func TestMoveAtomicallyTargetAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.txt")
	destDir := filepath.Join(dir, "dest")
	require.NoError(t, os.Mkdir(destDir, 0755))
	writeFile(t, srcPath, []byte("a"))
	writeFile(t, filepath.Join(destDir, "a.txt"), []byte("existing"))

	obj := New(srcPath)
	assert.Equal(t, TargetAlreadyExists, obj.MoveAtomically(destDir, ""))
}

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, []byte("a"))

	obj := New(path)
	require.Equal(t, Ok, obj.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	obj := New(sub)
	require.Equal(t, Ok, obj.Remove())
}

func TestRemoveNonexistentIsObjectDoesNotExist(t *testing.T) {
	dir := t.TempDir()
	obj := New(filepath.Join(dir, "gone"))
	assert.Equal(t, ObjectDoesNotExist, obj.Remove())
}

func TestChunkedCopierRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.bin")
	destDir := filepath.Join(dir, "dest")
	require.NoError(t, os.Mkdir(destDir, 0755))

	contents := make([]byte, 300*1024)
	for i := range contents {
		contents[i] = byte(i)
	}
	writeFile(t, srcPath, contents)

	obj := New(srcPath)
	copier := obj.Copier()

	var chunks int
	for {
		result := copier.CopyChunk(64*1024, destDir, "")
		chunks++
		if result == Ok && !copier.CopyInProgress() {
			break
		}
		require.Equal(t, Ok, result)
	}
	assert.GreaterOrEqual(t, chunks, 4)

	got, err := os.ReadFile(filepath.Join(destDir, "src.bin"))
	require.NoError(t, err)
	assert.Equal(t, contents, got)
	assert.False(t, copier.CopyInProgress())
	assert.Equal(t, int64(0), copier.BytesCopied())
}

func TestChunkedCopierCancelRemovesPartialDestination(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.bin")
	destDir := filepath.Join(dir, "dest")
	require.NoError(t, os.Mkdir(destDir, 0755))
	writeFile(t, srcPath, make([]byte, 128*1024))

	obj := New(srcPath)
	copier := obj.Copier()

	require.Equal(t, Ok, copier.CopyChunk(4096, destDir, ""))
	require.True(t, copier.CopyInProgress())

	require.Equal(t, Ok, copier.CancelCopy())
	assert.False(t, copier.CopyInProgress())

	_, err := os.Stat(filepath.Join(destDir, "src.bin"))
	assert.True(t, os.IsNotExist(err))
}
