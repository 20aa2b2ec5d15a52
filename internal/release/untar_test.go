package release

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTarball(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "top/", Typeflag: tar.TypeDir, Mode: 0o755}))
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestUntar(t *testing.T) {
	dir := t.TempDir()
	tarball := filepath.Join(dir, "rel.tar.gz")
	writeTarball(t, tarball, map[string]string{
		"top/graypaper.tex": `\section{One}`,
	})

	dest := filepath.Join(dir, "src")
	require.NoError(t, untar(tarball, dest))

	data, err := os.ReadFile(filepath.Join(dest, "top", "graypaper.tex"))
	require.NoError(t, err)
	assert.Equal(t, `\section{One}`, string(data))

	t.Run("sole subdir found", func(t *testing.T) {
		root, err := soleSubdir(dest)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dest, "top"), root)
	})
}

func TestUntarRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	tarball := filepath.Join(dir, "evil.tar.gz")
	writeTarball(t, tarball, map[string]string{
		"../evil.txt": "boom",
	})

	err := untar(tarball, filepath.Join(dir, "src"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "escapes")
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.6.4", Version("v0.6.4"))
	assert.Equal(t, "0.6.4", Version("0.6.4"))
}
