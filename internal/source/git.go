package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
)

// ErrNoSource is returned when a request names neither a repository nor a directory.
var ErrNoSource = errors.New("either a repository URL or a local directory is required")

// Request describes where files come from and which ones to keep.
// Exactly one of RepoURL and LocalDir is set.
type Request struct {
	RepoURL  string
	LocalDir string
	Filter   Filter
}

// Fetcher reads files from a local directory or a remote git repository.
type Fetcher struct {
	gitPath string
	tempDir string
	retry   perrors.RetryConfig
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithGitPath sets the git binary. Default "git".
func WithGitPath(path string) Option {
	return func(f *Fetcher) {
		if path != "" {
			f.gitPath = path
		}
	}
}

// WithTempDir sets the parent directory for disposable checkouts.
// Default is the system temp directory.
func WithTempDir(dir string) Option {
	return func(f *Fetcher) {
		f.tempDir = dir
	}
}

// WithCloneRetry sets the retry policy for clones. Default perrors.DefaultRetry.
func WithCloneRetry(cfg perrors.RetryConfig) Option {
	return func(f *Fetcher) {
		f.retry = cfg
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		gitPath: "git",
		retry:   perrors.DefaultRetry,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the matching files of the requested source.
//
// A repository is shallow-cloned into a fresh temporary directory that is
// removed before Fetch returns, whether or not the fetch succeeded.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (map[string]string, error) {
	switch {
	case req.RepoURL != "":
		f.logger.Info("fetching files from repository", slog.String("repo", req.RepoURL))
		return f.fetchRemote(ctx, req)
	case req.LocalDir != "":
		f.logger.Info("reading files from local directory", slog.String("dir", req.LocalDir))
		return Find(ctx, req.LocalDir, req.Filter, f.logger)
	default:
		return nil, ErrNoSource
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, req Request) (files map[string]string, err error) {
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(f.tempDir, "tutorgen-clone-")
	if err != nil {
		return nil, fmt.Errorf("create checkout directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			f.logger.Warn("failed to remove checkout", slog.String("dir", dir), slog.String("error", rmErr.Error()))
		}
	}()

	cfg := f.retry
	cfg.OnRetry = func(attempt int, err error) {
		f.logger.Warn("clone failed, retrying",
			slog.Int("attempt", attempt),
			slog.String("repo", req.RepoURL),
			slog.String("error", err.Error()))
	}
	result := perrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		// A failed attempt can leave a partial checkout behind.
		if err := emptyDir(dir); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, f.clone(ctx, req.RepoURL, dir)
	})
	if result.Err != nil {
		return nil, result.Err
	}

	return Find(ctx, dir, req.Filter, f.logger)
}

// clone runs git clone --depth 1 url dir.
func (f *Fetcher) clone(ctx context.Context, url, dir string) error {
	cmd := exec.CommandContext(ctx, f.gitPath, "clone", "--depth", "1", "--quiet", url, dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return perrors.Permanent(ctx.Err(), "clone cancelled")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &perrors.ExternalCallError{
			Service:   "git",
			Op:        "clone " + url,
			Permanent: errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist),
			Err:       err,
		}
	}
	return nil
}

func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
