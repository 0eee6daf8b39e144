package tutorial

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/tutorgraph/internal/output"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/llm"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
)

// polishChunkSize is how many chapters go into one polish call.
const polishChunkSize = 5

type section struct {
	Title string
	Body  string
}

type combineInput struct {
	ProjectName string
	Language    string
	Sections    []section
}

// combineDocument reads ChapterOrder, Chapters and the output inputs;
// writes Document and OutputPath.
type combineDocument struct {
	client  llm.Client
	prompts *prompt.Set
	polish  bool
}

func (s *combineDocument) Prepare(ctx pipeline.Context, st *State) (combineInput, error) {
	var missing []string
	if st.ChapterOrder == nil {
		missing = append(missing, "chapter_order")
	}
	if st.Chapters == nil {
		missing = append(missing, "chapters")
	}
	if len(missing) > 0 {
		return combineInput{}, pipeline.MissingInput(ctx.NodeID(), missing...)
	}

	in := combineInput{ProjectName: st.ProjectName, Language: st.Language}
	for _, ch := range st.ChapterOrder {
		body, ok := st.Chapters[ch.Title]
		if !ok {
			ctx.Logger().Warn("chapter missing from document", slog.String("chapter", ch.Title))
			continue
		}
		in.Sections = append(in.Sections, section{Title: ch.Title, Body: body})
	}
	return in, nil
}

func (s *combineDocument) Process(ctx pipeline.Context, in combineInput) (string, error) {
	var body string
	if s.polish {
		var err error
		if body, err = s.polishSections(ctx, in); err != nil {
			return "", err
		}
	} else {
		body = joinSections(in.Sections)
	}
	return fmt.Sprintf("# %s Tutorial\n\n%s\n", in.ProjectName, body), nil
}

// polishSections sends the sections through the model polishChunkSize at a time.
func (s *combineDocument) polishSections(ctx pipeline.Context, in combineInput) (string, error) {
	var parts []string
	for start := 0; start < len(in.Sections); start += polishChunkSize {
		end := min(start+polishChunkSize, len(in.Sections))
		text, err := s.prompts.Render(PromptPolishDocument, map[string]any{
			"language": in.Language,
			"chapters": joinSections(in.Sections[start:end]),
		})
		if err != nil {
			return "", err
		}
		resp, err := llm.Ask(ctx, s.client, text)
		if err != nil {
			return "", err
		}
		md, err := llm.ExtractFenced(PromptPolishDocument, resp, "markdown")
		if err != nil {
			return "", err
		}
		parts = append(parts, md)
	}
	return strings.Join(parts, "\n\n"), nil
}

func joinSections(sections []section) string {
	parts := make([]string, len(sections))
	for i, sec := range sections {
		parts[i] = fmt.Sprintf("## %s\n\n%s", sec.Title, sec.Body)
	}
	return strings.Join(parts, "\n\n")
}

func (s *combineDocument) PostProcess(ctx pipeline.Context, st *State, in combineInput, doc string) (pipeline.Action, error) {
	w := output.NewWriter(outputDir(st.OutputDir))
	path, err := w.Write(ctx, output.TutorialFileName(in.ProjectName), doc)
	if err != nil {
		return pipeline.ActionStop, err
	}
	st.Document = doc
	st.OutputPath = path
	ctx.Logger().Info("tutorial written", slog.String("path", path), slog.Int("bytes", len(doc)))
	return pipeline.ActionDefault, nil
}

func outputDir(dir string) string {
	if dir == "" {
		return "tutorials"
	}
	return dir
}
