package xarc

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/xarc/container"
	"github.com/nguyengg/xarc/internal/fsx"
	"github.com/nguyengg/xarc/registry"
)

const blockSize = 512

func octalField(n int64, width int) []byte {
	var digits []byte
	if n == 0 {
		digits = []byte{'0'}
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%8)}, digits...)
		n /= 8
	}
	out := make([]byte, width)
	pad := width - len(digits) - 1
	if pad < 0 {
		pad = 0
	}
	for i := 0; i < pad; i++ {
		out[i] = '0'
	}
	copy(out[pad:], digits)
	return out
}

func tarRegularHeader(name string, size, mode, mtime int64) []byte {
	h := make([]byte, blockSize)
	copy(h[0:100], name)
	copy(h[100:108], octalField(mode, 8))
	copy(h[124:136], octalField(size, 12))
	copy(h[136:148], octalField(mtime, 12))
	h[156] = '0'
	return h
}

func tarDirHeader(name string, mode int64) []byte {
	h := make([]byte, blockSize)
	copy(h[0:100], name)
	copy(h[100:108], octalField(mode, 8))
	h[156] = '5'
	return h
}

func tarLongNameHeader(name string) []byte {
	h := make([]byte, blockSize)
	h[156] = 'L'
	copy(h[124:136], octalField(int64(len(name)+1), 12))
	return h
}

func tarPayload(body string) []byte {
	padded := (len(body) + blockSize - 1) / blockSize * blockSize
	out := make([]byte, padded)
	copy(out, body)
	return out
}

// buildPlainTar assembles the fixture used by end-to-end scenarios 1 and 3:
// hello.txt (regular file, mtime 1577934245) plus sub/empty/ (directory).
func buildPlainTar() []byte {
	var buf bytes.Buffer
	buf.Write(tarRegularHeader("hello.txt", 6, 0o644, 1577934245))
	buf.Write(tarPayload("hello\n"))
	buf.Write(tarDirHeader("sub/empty/", 0o755))
	buf.Write(make([]byte, blockSize*2))
	return buf.Bytes()
}

func TestPlainTarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "test.tar")
	require.NoError(t, os.WriteFile(archivePath, buildPlainTar(), 0o644))

	out := filepath.Join(dir, "T")
	require.NoError(t, os.Mkdir(out, 0o755))

	h := Open(archivePath, WithType(registry.Auto), WithCallbackDirs())
	defer h.Close()

	var notified []string
	cb := func(relPath string, props uint8) { notified = append(notified, relPath) }

	for h.Next() == nil {
		_, err := h.Info()
		require.NoError(t, err)
		require.NoError(t, h.Extract(out, cb))
	}
	assert.True(t, h.Ok())

	body, err := os.ReadFile(filepath.Join(out, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(body))

	info, err := os.Stat(filepath.Join(out, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(1577934245), info.ModTime().Unix())

	info, err = os.Stat(filepath.Join(out, "sub", "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Contains(t, notified, "hello.txt")
	assert.Contains(t, notified, "sub")
	assert.Contains(t, notified, "sub/empty")
}

func TestGNULongName(t *testing.T) {
	dir := t.TempDir()
	name := ""
	for i := 0; i < 200; i++ {
		name += "a"
	}

	var buf bytes.Buffer
	buf.Write(tarLongNameHeader(name))
	buf.Write(tarPayload(name))
	buf.Write(tarRegularHeader(name[:100], 5, 0o644, 0))
	buf.Write(tarPayload("abcde"))
	buf.Write(make([]byte, blockSize*2))

	archivePath := filepath.Join(dir, "long.tar")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))

	h := Open(archivePath)
	defer h.Close()

	require.NoError(t, h.Next())
	info, err := h.Info()
	require.NoError(t, err)

	want := container.Entry{Path: name, Properties: 0, ModTime: fsx.Timestamp{}}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestCompressedTarAutoDetect(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "test.tar.gz")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write(buildPlainTar())
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "T")
	require.NoError(t, os.Mkdir(out, 0o755))

	h := Open(archivePath, WithCallbackDirs())
	defer h.Close()

	for h.Next() == nil {
		require.NoError(t, h.Extract(out, nil))
	}
	assert.True(t, h.Ok())

	body, err := os.ReadFile(filepath.Join(out, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(body))
}

func TestZipUTF8Filename(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "test.zip")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	fh := &zip.FileHeader{Name: "テスト.txt", Method: zip.Deflate, Modified: time.Now()}
	fh.Flags |= 0x800
	w, err := zw.CreateHeader(fh)
	require.NoError(t, err)
	_, err = w.Write([]byte("unicode\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	h := Open(archivePath)
	defer h.Close()

	require.NoError(t, h.Next())
	info, err := h.Info()
	require.NoError(t, err)
	assert.Equal(t, "テスト.txt", info.Path)
}

func TestShortTruncatedTar(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "truncated.tar")
	header := tarRegularHeader("x.txt", 6, 0o644, 0)
	require.NoError(t, os.WriteFile(archivePath, header[:256], 0o644))

	h := Open(archivePath)
	defer h.Close()

	err := h.Next()
	assert.Error(t, err)
	assert.False(t, h.Ok())
	assert.Equal(t, "module error", h.ErrKind().String())
}

func TestMissingBasePath(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "test.tar")
	require.NoError(t, os.WriteFile(archivePath, buildPlainTar(), 0o644))

	h := Open(archivePath)
	defer h.Close()

	require.NoError(t, h.Next())
	err := h.Extract(filepath.Join(dir, "does-not-exist"), nil)
	require.Error(t, err)
	assert.Equal(t, "base path does not exist", h.ErrKind().String())
}

func TestOpenNonExistentPath(t *testing.T) {
	h := Open("/does/not/exist.zip")
	defer h.Close()
	assert.False(t, h.Ok())
	assert.Error(t, h.Err())
}
