package ziparc

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip writes a ZIP archive to memory using the standard library writer
// (acting only as a fixture generator here; production reads never go
// through archive/zip).
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		fh := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Date(2023, 11, 5, 14, 30, 42, 0, time.UTC),
		}
		fh.SetModTime(fh.Modified)
		fh.Flags |= 0x800 // UTF-8 name

		w, err := zw.CreateHeader(fh)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipRoundTrip(t *testing.T) {
	data := buildZip(t, map[string]string{
		"hello.txt": "hello\n",
		"テスト.txt":   "unicode body\n",
	})

	h, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	defer h.Close()

	seen := map[string]string{}
	for {
		err := h.Next()
		if err != nil {
			break
		}
		info, err := h.Info()
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, h.Extract(&out))
		seen[info.Path] = out.String()
	}

	assert.Equal(t, map[string]string{
		"hello.txt": "hello\n",
		"テスト.txt":   "unicode body\n",
	}, seen)
}

func TestZipDirectoryEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fh := &zip.FileHeader{Name: "sub/empty/", Method: zip.Store}
	fh.Flags |= 0x800
	_, err := zw.CreateHeader(fh)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	h, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Next())
	info, err := h.Info()
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "sub/empty/", info.Path)
}

func TestZipEmptyArchiveNoMoreItems(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	h, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	defer h.Close()

	err = h.Next()
	assert.Error(t, err)
}

func TestDecodeNameCP437(t *testing.T) {
	// byte 0xE0 in CP437 is the lower-case alpha character.
	got := decodeName(string([]byte{'a', 0xE0}), 0)
	assert.Equal(t, "aα", got)
}
