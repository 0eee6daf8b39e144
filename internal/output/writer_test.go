package output

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir)

	path, err := w.Write(context.Background(), "demo-tutorial.md", "# Demo\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demo-tutorial.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Demo\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not remain")
}

func TestWriter_Overwrites(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.Write(context.Background(), "a.md", "first")
	require.NoError(t, err)
	path, err := w.Write(context.Background(), "a.md", "second")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriter_InvalidName(t *testing.T) {
	w := NewWriter(t.TempDir())
	for _, name := range []string{"", "../escape.md", `a\b.md`} {
		_, err := w.Write(context.Background(), name, "x")
		assert.Error(t, err, name)
	}
}

func TestWriteChunked(t *testing.T) {
	content := strings.Repeat("abcdefgh", ChunkSize/4)
	var buf countingWriter
	require.NoError(t, writeChunked(context.Background(), &buf, content))

	assert.Equal(t, content, buf.String())
	assert.Equal(t, 2, buf.calls)
}

func TestWriteChunked_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf countingWriter
	assert.ErrorIs(t, writeChunked(ctx, &buf, "data"), context.Canceled)
	assert.Zero(t, buf.calls)
}

func TestTutorialFileName(t *testing.T) {
	tests := []struct {
		project, want string
	}{
		{"Widgets", "widgets-tutorial.md"},
		{"My  Cool\tApp", "my-cool-app-tutorial.md"},
		{"acme/widgets", "acme-widgets-tutorial.md"},
		{"  ", "project-tutorial.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TutorialFileName(tt.project), tt.project)
	}
}

type countingWriter struct {
	buf   bytes.Buffer
	calls int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.calls++
	return c.buf.Write(p)
}

func (c *countingWriter) String() string {
	return c.buf.String()
}
