package tutorial

import (
	"log/slog"
	"slices"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/llm"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
)

type sourceFile struct {
	Path    string
	Content string
}

type fileAbstractions struct {
	Path         string
	Abstractions []Abstraction
}

// identifyAbstractions reads Files; writes Abstractions.
// One model call per file, in path order.
type identifyAbstractions struct {
	client  llm.Client
	prompts *prompt.Set
}

func (s *identifyAbstractions) PrepareBatch(ctx pipeline.Context, st *State) ([]sourceFile, error) {
	if st.Files == nil {
		return nil, pipeline.MissingInput(ctx.NodeID(), "files")
	}
	paths := make([]string, 0, len(st.Files))
	for p := range st.Files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	items := make([]sourceFile, len(paths))
	for i, p := range paths {
		items[i] = sourceFile{Path: p, Content: st.Files[p]}
	}
	if len(items) == 0 {
		ctx.Logger().Info("no files to analyze")
	}
	return items, nil
}

func (s *identifyAbstractions) ProcessItem(ctx pipeline.Context, f sourceFile) (fileAbstractions, error) {
	text, err := s.prompts.Render(PromptIdentifyAbstractions, map[string]any{
		"file_path": f.Path,
		"content":   f.Content,
	})
	if err != nil {
		return fileAbstractions{}, err
	}

	resp, err := llm.Ask(ctx, s.client, text)
	if err != nil {
		return fileAbstractions{}, err
	}

	var out struct {
		Abstractions []Abstraction `yaml:"abstractions"`
	}
	if err := llm.DecodeYAML(PromptIdentifyAbstractions, resp, &out); err != nil {
		return fileAbstractions{}, err
	}
	for i, a := range out.Abstractions {
		if a.Name == "" {
			return fileAbstractions{}, perrors.Malformed(PromptIdentifyAbstractions, resp, "abstraction %d has no name", i)
		}
	}
	return fileAbstractions{Path: f.Path, Abstractions: out.Abstractions}, nil
}

func (s *identifyAbstractions) HandleItemError(ctx pipeline.Context, f sourceFile, err error) {
	ctx.Logger().Warn("skipping file", slog.String("file", f.Path), slog.String("error", err.Error()))
}

func (s *identifyAbstractions) PostProcessBatch(ctx pipeline.Context, st *State, _ []sourceFile, results []fileAbstractions) (pipeline.Action, error) {
	merged := make(map[string]Abstraction)
	for _, r := range results {
		for _, a := range r.Abstractions {
			a.File = r.Path
			merged[a.Name] = a
		}
	}
	st.Abstractions = merged
	ctx.Logger().Info("abstractions identified", slog.Int("count", len(merged)))
	return pipeline.ActionDefault, nil
}
