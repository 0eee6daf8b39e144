// Package output persists generated documents.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ChunkSize is the largest slice of a document written in one call.
const ChunkSize = 1 << 20

// Writer writes documents into a directory, creating it on first use.
type Writer struct {
	dir string
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stores content as name inside the output directory and returns the
// file path. The document is written to a temporary file in ChunkSize
// pieces and renamed into place, so readers never see a partial file.
func (w *Writer) Write(ctx context.Context, name, content string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := writeChunked(ctx, tmp, content); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	committed = true
	return path, nil
}

func writeChunked(ctx context.Context, w io.Writer, content string) error {
	for start := 0; start < len(content); start += ChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+ChunkSize, len(content))
		if _, err := io.WriteString(w, content[start:end]); err != nil {
			return err
		}
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

// TutorialFileName returns the document name for a project:
// lower-cased, whitespace replaced by "-", suffixed "-tutorial.md".
// Path separators are replaced too so the name stays inside the output directory.
func TutorialFileName(project string) string {
	name := strings.ToLower(strings.TrimSpace(project))
	name = whitespace.ReplaceAllString(name, "-")
	name = strings.NewReplacer("/", "-", `\`, "-").Replace(name)
	if name == "" {
		name = "project"
	}
	return name + "-tutorial.md"
}
