package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(t *testing.T, pattern string, exclude ...string) []string {
	t.Helper()
	got, err := ScanInputs(pattern, exclude...)
	require.NoError(t, err)
	out := make([]string, 0, len(got))
	for _, f := range got {
		out = append(out, f.Name)
	}
	return out
}

func TestScanInputs_SortedTxtOnly(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.txt"))
	touch(t, filepath.Join(root, "a.txt"))
	touch(t, filepath.Join(root, "c.log"))
	touch(t, filepath.Join(root, "sub", "d.txt"))

	assert.Equal(t, []string{"a.txt", "b.txt"}, names(t, filepath.Join(root, "*.txt")))
}

func TestScanInputs_SkipsDirsAndHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ok.txt"))
	touch(t, filepath.Join(root, ".hidden.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir.txt"), 0o755))

	assert.Equal(t, []string{"ok.txt"}, names(t, filepath.Join(root, "*.txt")))
	assert.Equal(t, []string{".hidden.txt"}, names(t, filepath.Join(root, ".*.txt")))
}

func TestScanInputs_ExcludeOutput(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "in.csv"))
	touch(t, filepath.Join(root, "out.csv"))

	assert.Equal(t, []string{"in.csv"}, names(t, filepath.Join(root, "*.csv"), filepath.Join(root, "out.csv")))
}

func TestScanInputs_EmptyDir(t *testing.T) {
	got, err := ScanInputs(filepath.Join(t.TempDir(), "*.txt"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanInputs_AbsPathAndSize(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x.txt"))

	got, err := ScanInputs(filepath.Join(root, "*.txt"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, filepath.IsAbs(got[0].AbsPath))
	assert.Equal(t, int64(1), got[0].Size)
}

func TestScanInputs_KeepsDanglingSymlink(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.txt"))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "b.txt")))

	got, err := ScanInputs(filepath.Join(root, "*.txt"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b.txt", got[1].Name)
	assert.Equal(t, int64(0), got[1].Size)
}

func TestScanInputs_BadPattern(t *testing.T) {
	_, err := ScanInputs("[")
	assert.Error(t, err)

	_, err = ScanInputs("  ")
	assert.Error(t, err)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}
