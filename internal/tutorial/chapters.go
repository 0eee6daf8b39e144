package tutorial

import (
	"log/slog"
	"strings"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/llm"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
)

type orderInput struct {
	Abstractions  map[string]Abstraction
	Relationships []Relationship
}

// orderChapters reads Abstractions and Relationships; writes ChapterOrder.
type orderChapters struct {
	client  llm.Client
	prompts *prompt.Set
}

func (s *orderChapters) Prepare(ctx pipeline.Context, st *State) (orderInput, error) {
	var missing []string
	if st.Abstractions == nil {
		missing = append(missing, "abstractions")
	}
	if st.Relationships == nil {
		missing = append(missing, "relationships")
	}
	if len(missing) > 0 {
		return orderInput{}, pipeline.MissingInput(ctx.NodeID(), missing...)
	}
	return orderInput{Abstractions: st.Abstractions, Relationships: st.Relationships}, nil
}

func (s *orderChapters) Process(ctx pipeline.Context, in orderInput) ([]Chapter, error) {
	abstractions, err := toYAML(in.Abstractions)
	if err != nil {
		return nil, err
	}
	relationships, err := toYAML(in.Relationships)
	if err != nil {
		return nil, err
	}
	text, err := s.prompts.Render(PromptOrderChapters, map[string]any{
		"abstractions":  abstractions,
		"relationships": relationships,
	})
	if err != nil {
		return nil, err
	}

	resp, err := llm.Ask(ctx, s.client, text)
	if err != nil {
		return nil, err
	}

	var out struct {
		Chapters []Chapter `yaml:"chapters"`
	}
	if err := llm.DecodeYAML(PromptOrderChapters, resp, &out); err != nil {
		return nil, err
	}
	if len(out.Chapters) == 0 {
		return nil, perrors.Malformed(PromptOrderChapters, resp, "no chapters")
	}

	seen := make(map[string]bool, len(out.Chapters))
	for i := range out.Chapters {
		ch := &out.Chapters[i]
		ch.Title = strings.TrimSpace(ch.Title)
		if ch.Title == "" {
			return nil, perrors.Malformed(PromptOrderChapters, resp, "chapter %d has no title", i+1)
		}
		if seen[ch.Title] {
			return nil, perrors.Malformed(PromptOrderChapters, resp, "duplicate chapter title %q", ch.Title)
		}
		seen[ch.Title] = true
		ch.Order = i + 1
	}
	return out.Chapters, nil
}

func (s *orderChapters) PostProcess(ctx pipeline.Context, st *State, _ orderInput, chapters []Chapter) (pipeline.Action, error) {
	st.ChapterOrder = chapters
	ctx.Logger().Info("chapters ordered", slog.Int("count", len(chapters)))
	return pipeline.ActionDefault, nil
}

// chapterBrief is everything needed to write one chapter.
type chapterBrief struct {
	Chapter       Chapter
	Abstractions  map[string]Abstraction
	Relationships []Relationship
	Language      string
	ProjectName   string
}

type chapterText struct {
	Title   string
	Content string
}

// writeChapters reads ChapterOrder, Abstractions and Relationships; writes Chapters.
// One model call per chapter.
type writeChapters struct {
	client  llm.Client
	prompts *prompt.Set
}

func (s *writeChapters) PrepareBatch(ctx pipeline.Context, st *State) ([]chapterBrief, error) {
	var missing []string
	if st.ChapterOrder == nil {
		missing = append(missing, "chapter_order")
	}
	if st.Abstractions == nil {
		missing = append(missing, "abstractions")
	}
	if st.Relationships == nil {
		missing = append(missing, "relationships")
	}
	if len(missing) > 0 {
		return nil, pipeline.MissingInput(ctx.NodeID(), missing...)
	}

	briefs := make([]chapterBrief, len(st.ChapterOrder))
	for i, ch := range st.ChapterOrder {
		relevant := make(map[string]Abstraction)
		for _, name := range ch.Abstractions {
			if a, ok := st.Abstractions[name]; ok {
				relevant[name] = a
			}
		}
		var rels []Relationship
		for _, r := range st.Relationships {
			if r.Touches(ch.Abstractions) {
				rels = append(rels, r)
			}
		}
		briefs[i] = chapterBrief{
			Chapter:       ch,
			Abstractions:  relevant,
			Relationships: rels,
			Language:      st.Language,
			ProjectName:   st.ProjectName,
		}
	}
	return briefs, nil
}

func (s *writeChapters) ProcessItem(ctx pipeline.Context, b chapterBrief) (chapterText, error) {
	vars := map[string]any{
		"language":     b.Language,
		"project_name": b.ProjectName,
	}
	for key, v := range map[string]any{
		"chapter":       b.Chapter,
		"abstractions":  b.Abstractions,
		"relationships": b.Relationships,
	} {
		payload, err := toYAML(v)
		if err != nil {
			return chapterText{}, err
		}
		vars[key] = payload
	}

	text, err := s.prompts.Render(PromptWriteChapter, vars)
	if err != nil {
		return chapterText{}, err
	}
	resp, err := llm.Ask(ctx, s.client, text)
	if err != nil {
		return chapterText{}, err
	}

	var out struct {
		Title   string `yaml:"title"`
		Content string `yaml:"content"`
	}
	if err := llm.DecodeYAML(PromptWriteChapter, resp, &out); err != nil {
		return chapterText{}, err
	}
	content := strings.TrimSpace(out.Content)
	if content == "" {
		return chapterText{}, perrors.Malformed(PromptWriteChapter, resp, "chapter %q has no content", b.Chapter.Title)
	}
	return chapterText{Title: b.Chapter.Title, Content: content}, nil
}

func (s *writeChapters) HandleItemError(ctx pipeline.Context, b chapterBrief, err error) {
	ctx.Logger().Warn("skipping chapter",
		slog.String("chapter", b.Chapter.Title),
		slog.Int("order", b.Chapter.Order),
		slog.String("error", err.Error()))
}

func (s *writeChapters) PostProcessBatch(ctx pipeline.Context, st *State, briefs []chapterBrief, results []chapterText) (pipeline.Action, error) {
	chapters := make(map[string]string, len(results))
	for _, r := range results {
		chapters[r.Title] = r.Content
	}
	st.Chapters = chapters
	ctx.Logger().Info("chapters written",
		slog.Int("written", len(results)),
		slog.Int("planned", len(briefs)))
	return pipeline.ActionDefault, nil
}
