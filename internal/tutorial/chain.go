package tutorial

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/tutorgraph/internal/source"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/llm"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
)

// Stage names, used as node names in logs, metrics, and errors.
const (
	StageFetchFiles           = "fetch_files"
	StageIdentifyAbstractions = "identify_abstractions"
	StageAnalyzeRelationships = "analyze_relationships"
	StageOrderChapters        = "order_chapters"
	StageWriteChapters        = "write_chapters"
	StageCombineDocument      = "combine_document"
)

// Stages lists the stage names in chain order.
var Stages = []string{
	StageFetchFiles,
	StageIdentifyAbstractions,
	StageAnalyzeRelationships,
	StageOrderChapters,
	StageWriteChapters,
	StageCombineDocument,
}

// Deps are the collaborators of the chain.
type Deps struct {
	// Source fetches files. Required.
	Source FileSource
	// Client answers prompts. Required.
	Client llm.Client
	// Prompts overrides the default prompt set.
	Prompts *prompt.Set
	// Concurrency bounds parallel model calls inside batch stages.
	Concurrency int
	// Polish sends the combined document back through the model.
	Polish bool
}

// NewChain builds and validates the six-stage chain.
func NewChain(deps Deps) (*pipeline.Flow[State], error) {
	if deps.Source == nil {
		return nil, errors.New("tutorial: file source is required")
	}
	if deps.Client == nil {
		return nil, errors.New("tutorial: model client is required")
	}
	prompts := deps.Prompts
	if prompts == nil {
		prompts = prompt.NewSet(defaultPrompts)
	}
	concurrency := pipeline.WithConcurrency(deps.Concurrency)

	fetch := pipeline.NewNode[State, source.Request, map[string]string](StageFetchFiles,
		&fetchFiles{src: deps.Source})
	identify := pipeline.NewBatchNode[State, sourceFile, fileAbstractions](StageIdentifyAbstractions,
		&identifyAbstractions{client: deps.Client, prompts: prompts}, concurrency)
	relate := pipeline.NewNode[State, map[string]Abstraction, []Relationship](StageAnalyzeRelationships,
		&analyzeRelationships{client: deps.Client, prompts: prompts})
	order := pipeline.NewNode[State, orderInput, []Chapter](StageOrderChapters,
		&orderChapters{client: deps.Client, prompts: prompts})
	write := pipeline.NewBatchNode[State, chapterBrief, chapterText](StageWriteChapters,
		&writeChapters{client: deps.Client, prompts: prompts}, concurrency)
	combine := pipeline.NewNode[State, combineInput, string](StageCombineDocument,
		&combineDocument{client: deps.Client, prompts: prompts, polish: deps.Polish})

	fetch.Connect(identify).
		Connect(relate).
		Connect(order).
		Connect(write).
		Connect(combine)

	if err := pipeline.Validate(fetch); err != nil {
		return nil, fmt.Errorf("tutorial: invalid chain: %w", err)
	}
	return pipeline.NewFlow(fetch), nil
}
