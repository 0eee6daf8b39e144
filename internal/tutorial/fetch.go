package tutorial

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/tutorgraph/internal/source"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
)

// FileSource produces the files of a source tree.
type FileSource interface {
	Fetch(ctx context.Context, req source.Request) (map[string]string, error)
}

// fetchFiles reads RepoURL or LocalDir and the filter inputs; writes Files.
type fetchFiles struct {
	src FileSource
}

func (s *fetchFiles) Prepare(ctx pipeline.Context, st *State) (source.Request, error) {
	if st.RepoURL == "" && st.LocalDir == "" {
		return source.Request{}, pipeline.MissingInput(ctx.NodeID(), "repo_url", "local_dir")
	}
	return st.sourceRequest(), nil
}

func (s *fetchFiles) Process(ctx pipeline.Context, req source.Request) (map[string]string, error) {
	return s.src.Fetch(ctx, req)
}

func (s *fetchFiles) PostProcess(ctx pipeline.Context, st *State, _ source.Request, files map[string]string) (pipeline.Action, error) {
	if files == nil {
		files = map[string]string{}
	}
	st.Files = files
	ctx.Logger().Info("files fetched", slog.Int("count", len(files)))
	return pipeline.ActionDefault, nil
}
