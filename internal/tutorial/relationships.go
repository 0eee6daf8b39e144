package tutorial

import (
	"log/slog"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/llm"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
)

// analyzeRelationships reads Abstractions; writes Relationships.
type analyzeRelationships struct {
	client  llm.Client
	prompts *prompt.Set
}

func (s *analyzeRelationships) Prepare(ctx pipeline.Context, st *State) (map[string]Abstraction, error) {
	if st.Abstractions == nil {
		return nil, pipeline.MissingInput(ctx.NodeID(), "abstractions")
	}
	return st.Abstractions, nil
}

func (s *analyzeRelationships) Process(ctx pipeline.Context, abstractions map[string]Abstraction) ([]Relationship, error) {
	payload, err := toYAML(abstractions)
	if err != nil {
		return nil, err
	}
	text, err := s.prompts.Render(PromptAnalyzeRelationships, map[string]any{"abstractions": payload})
	if err != nil {
		return nil, err
	}

	resp, err := llm.Ask(ctx, s.client, text)
	if err != nil {
		return nil, err
	}

	var out struct {
		Relationships []Relationship `yaml:"relationships"`
	}
	if err := llm.DecodeYAML(PromptAnalyzeRelationships, resp, &out); err != nil {
		return nil, err
	}
	for i, r := range out.Relationships {
		if r.From == "" || r.To == "" {
			return nil, perrors.Malformed(PromptAnalyzeRelationships, resp, "relationship %d is missing an endpoint", i)
		}
	}
	return out.Relationships, nil
}

func (s *analyzeRelationships) PostProcess(ctx pipeline.Context, st *State, _ map[string]Abstraction, rels []Relationship) (pipeline.Action, error) {
	if rels == nil {
		rels = []Relationship{}
	}
	st.Relationships = rels
	ctx.Logger().Info("relationships analyzed", slog.Int("count", len(rels)))
	return pipeline.ActionDefault, nil
}
