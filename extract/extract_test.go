package extract

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/xarc/container"
)

// discardLogger silences Debug output for tests that don't assert on it,
// the same "send all logs to nowhere" default the façade wires in.
func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeHandler is a minimal container.Handler stand-in that extracts a fixed
// body and records whether SetProps was invoked.
type fakeHandler struct {
	body          string
	setPropsCalls []string
}

func (f *fakeHandler) Next() error                    { return nil }
func (f *fakeHandler) Info() (container.Entry, error) { return container.Entry{}, nil }
func (f *fakeHandler) Close() error                   { return nil }

func (f *fakeHandler) Extract(w io.Writer) error {
	_, err := io.WriteString(w, f.body)
	return err
}

func (f *fakeHandler) SetProps(path string) error {
	f.setPropsCalls = append(f.setPropsCalls, path)
	return nil
}

func TestEntryFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHandler{body: "hello\n"}
	e := container.Entry{Path: "sub/hello.txt"}

	var notified []string
	cb := func(relPath string, props uint8) {
		notified = append(notified, relPath)
	}

	err := Entry(h, e, dir, CallbackDirs, cb, discardLogger())
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "sub", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
	assert.Contains(t, h.setPropsCalls, filepath.Join(dir, "sub", "hello.txt"))
	assert.Contains(t, notified, "sub")
	assert.Contains(t, notified, "sub/hello.txt")
}

func TestEntryDirectory(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHandler{}
	e := container.Entry{Path: "sub/empty/", Properties: container.IsDirectory}

	err := Entry(h, e, dir, 0, nil, discardLogger())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "sub", "empty"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEntryNoCallbackDirsFlag(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHandler{body: "x"}
	e := container.Entry{Path: "a/b/c.txt"}

	var notified []string
	cb := func(relPath string, props uint8) {
		notified = append(notified, relPath)
	}

	err := Entry(h, e, dir, 0, cb, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"a/b/c.txt"}, notified)
}

func TestEntryMissingBasePath(t *testing.T) {
	h := &fakeHandler{body: "x"}
	e := container.Entry{Path: "a.txt"}

	err := Entry(h, e, filepath.Join(t.TempDir(), "does-not-exist"), 0, nil, discardLogger())
	require.Error(t, err)
}

func TestEntryAncestorIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	h := &fakeHandler{body: "x"}
	e := container.Entry{Path: "blocker/child.txt"}

	err := Entry(h, e, dir, 0, nil, discardLogger())
	require.Error(t, err)
	assert.True(t, errors.As(err, new(interface{ Error() string })))
}

func TestEntryIdempotentReExtraction(t *testing.T) {
	dir := t.TempDir()
	e := container.Entry{Path: "sub/hello.txt"}

	require.NoError(t, Entry(&fakeHandler{body: "first\n"}, e, dir, 0, nil, discardLogger()))
	require.NoError(t, Entry(&fakeHandler{body: "second\n"}, e, dir, 0, nil, discardLogger()))

	out, err := os.ReadFile(filepath.Join(dir, "sub", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(out))
}
