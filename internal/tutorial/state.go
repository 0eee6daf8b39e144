// Package tutorial implements the six-stage tutorial generation chain:
//
//	FetchFiles -> IdentifyAbstractions -> AnalyzeRelationships ->
//	OrderChapters -> WriteChapters -> CombineDocument
//
// Every stage reads the fields of State written by earlier stages in its
// Prepare phase and writes its own fields only in PostProcess.
package tutorial

import "github.com/randalmurphal/tutorgraph/internal/source"

// State is threaded through one run of the chain.
//
// The input fields are set by the caller. Each stage fills in exactly one
// output field, replacing any value left by a previous run.
type State struct {
	// Inputs. Exactly one of RepoURL and LocalDir is set.
	RepoURL     string
	LocalDir    string
	ProjectName string
	Language    string
	Include     []string
	Exclude     []string
	OutputDir   string
	MaxFileSize int64

	// Files maps relative path to content. Written by FetchFiles.
	Files map[string]string
	// Abstractions maps name to descriptor. Written by IdentifyAbstractions.
	Abstractions map[string]Abstraction
	// Relationships is written by AnalyzeRelationships.
	Relationships []Relationship
	// ChapterOrder is written by OrderChapters.
	ChapterOrder []Chapter
	// Chapters maps chapter title to markdown body. Written by WriteChapters.
	Chapters map[string]string
	// Document is the combined tutorial. Written by CombineDocument.
	Document string
	// OutputPath is where Document was persisted. Written by CombineDocument.
	OutputPath string
}

// Abstraction is a named concept found in the code.
type Abstraction struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Description  string   `yaml:"description"`
	Location     string   `yaml:"location,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	// File is the path of the file the abstraction was found in.
	File string `yaml:"file"`
}

// Relationship links two abstractions.
type Relationship struct {
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Kind        string `yaml:"type"`
	Description string `yaml:"description"`
}

// Touches reports whether the relationship involves any of names.
func (r Relationship) Touches(names []string) bool {
	for _, n := range names {
		if r.From == n || r.To == n {
			return true
		}
	}
	return false
}

// Chapter is one entry of the chapter order.
type Chapter struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Abstractions []string `yaml:"abstractions"`
	// Order is the 1-based position in the tutorial.
	Order int `yaml:"order"`
}

// sourceRequest builds the file fetch request from the inputs.
func (s *State) sourceRequest() source.Request {
	return source.Request{
		RepoURL:  s.RepoURL,
		LocalDir: s.LocalDir,
		Filter: source.Filter{
			Include: s.Include,
			Exclude: s.Exclude,
			MaxSize: s.MaxFileSize,
		},
	}
}
