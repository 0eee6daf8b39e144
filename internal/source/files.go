// Package source enumerates the code files a tutorial is generated from,
// either from a local directory or from a shallow clone of a remote repository.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects files by glob and size.
//
// Patterns without a "/" match the file's base name anywhere in the tree
// (so "*.ts" matches "src/a.ts"); patterns with a "/" match the path
// relative to the root. "**" crosses directories.
type Filter struct {
	Include []string
	Exclude []string
	// MaxSize is the largest file, in bytes, that is read. Zero means no limit.
	MaxSize int64
}

// Validate reports malformed glob patterns.
func (f Filter) Validate() error {
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Matches reports whether the slash-separated relative path rel passes the
// include and exclude patterns. An empty include list includes everything.
func (f Filter) Matches(rel string) bool {
	if len(f.Include) > 0 && !matchAny(f.Include, rel) {
		return false
	}
	return !matchAny(f.Exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}
	for _, p := range patterns {
		target := rel
		if !strings.Contains(p, "/") {
			target = base
		}
		if ok, _ := doublestar.Match(p, target); ok {
			return true
		}
	}
	return false
}

// Find walks root and returns the content of every matching file, keyed by
// slash-separated path relative to root.
//
// Hidden files and directories are skipped. Files over MaxSize and files
// that cannot be read are logged and skipped; only a missing or unreadable
// root fails the call.
func Find(ctx context.Context, root string, filter Filter, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("read source directory: %s is not a directory", root)
	}

	files := make(map[string]string)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !filter.Matches(rel) {
			return nil
		}

		content, ok := readFile(path, rel, filter.MaxSize, logger)
		if ok {
			files[rel] = content
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	logger.Debug("files found", slog.String("root", root), slog.Int("count", len(files)))
	return files, nil
}

func readFile(path, rel string, maxSize int64, logger *slog.Logger) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("skipping unreadable file", slog.String("path", rel), slog.String("error", err.Error()))
		return "", false
	}
	if maxSize > 0 && info.Size() > maxSize {
		logger.Warn("skipping file over size limit",
			slog.String("path", rel),
			slog.Int64("size", info.Size()),
			slog.Int64("max_size", maxSize))
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("skipping unreadable file", slog.String("path", rel), slog.String("error", err.Error()))
		return "", false
	}
	return string(data), true
}
