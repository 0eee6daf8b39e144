package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Settings is the decoded configuration of one tutorial run.
type Settings struct {
	// Source. Exactly one of RepoURL and LocalDir must be set.
	RepoURL  string
	LocalDir string

	ProjectName string
	Language    string

	Include     []string
	Exclude     []string
	MaxFileSize int64
	OutputDir   string

	LLM      LLMSettings
	Pipeline PipelineSettings

	// Prompts overrides stage prompt templates by name.
	Prompts map[string]string
}

// LLMSettings configures the model client.
type LLMSettings struct {
	Model         string
	CLIPath       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// CachePath is the SQLite response cache file. Empty disables caching;
	// ":memory:" keeps the cache for the process lifetime only.
	CachePath string
}

// PipelineSettings configures execution.
type PipelineSettings struct {
	// Concurrency bounds how many batch items run at once. 1 is sequential.
	Concurrency int
	// Polish sends the combined document back through the model.
	Polish bool
}

// Default values, shared by NewViper and Decode.
var (
	DefaultInclude     = []string{"*.js", "*.jsx", "*.ts", "*.tsx"}
	DefaultExclude     = []string{"node_modules/*", "dist/*", "build/*"}
	DefaultLanguage    = "english"
	DefaultOutputDir   = "tutorials"
	DefaultMaxFileSize = int64(1_000_000)
)

func defaultValues() map[string]any {
	return map[string]any{
		"repo":                 "",
		"dir":                  "",
		"name":                 "",
		"language":             DefaultLanguage,
		"include":              DefaultInclude,
		"exclude":              DefaultExclude,
		"output":               DefaultOutputDir,
		"max_size":             DefaultMaxFileSize,
		"llm.model":            "",
		"llm.cli_path":         "claude",
		"llm.timeout":          "5m",
		"llm.retry.attempts":   3,
		"llm.retry.delay":      "1s",
		"llm.cache":            "",
		"pipeline.concurrency": 1,
		"pipeline.polish":      false,
	}
}

// Decode extracts Settings from cfg, filling in defaults and deriving the
// project name from the source when none is given.
func Decode(cfg Config) (Settings, error) {
	s := Settings{
		RepoURL:     strings.TrimSpace(cfg.String("repo", "")),
		LocalDir:    strings.TrimSpace(cfg.String("dir", "")),
		ProjectName: strings.TrimSpace(cfg.String("name", "")),
		Language:    cfg.String("language", DefaultLanguage),
		Include:     cfg.StringSlice("include", DefaultInclude),
		Exclude:     cfg.StringSlice("exclude", DefaultExclude),
		MaxFileSize: cfg.Int64("max_size", DefaultMaxFileSize),
		OutputDir:   cfg.String("output", DefaultOutputDir),
		LLM: LLMSettings{
			Model:         cfg.String("llm.model", ""),
			CLIPath:       cfg.String("llm.cli_path", "claude"),
			Timeout:       cfg.Duration("llm.timeout", 5*time.Minute),
			RetryAttempts: cfg.Int("llm.retry.attempts", 3),
			RetryDelay:    cfg.Duration("llm.retry.delay", time.Second),
			CachePath:     cfg.String("llm.cache", ""),
		},
		Pipeline: PipelineSettings{
			Concurrency: cfg.Int("pipeline.concurrency", 1),
			Polish:      cfg.Bool("pipeline.polish", false),
		},
		Prompts: cfg.StringMap("prompts"),
	}

	if s.ProjectName == "" {
		s.ProjectName = ProjectNameFromSource(s.RepoURL, s.LocalDir)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks settings that cannot be defaulted.
func (s Settings) Validate() error {
	var errs []error
	switch {
	case s.RepoURL == "" && s.LocalDir == "":
		errs = append(errs, errors.New("one of repo or dir is required"))
	case s.RepoURL != "" && s.LocalDir != "":
		errs = append(errs, errors.New("repo and dir are mutually exclusive"))
	}
	if s.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("max_size must be positive, got %d", s.MaxFileSize))
	}
	if s.LLM.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("llm.retry.attempts must be at least 1, got %d", s.LLM.RetryAttempts))
	}
	if s.Pipeline.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("pipeline.concurrency must be at least 1, got %d", s.Pipeline.Concurrency))
	}
	if s.OutputDir == "" {
		errs = append(errs, errors.New("output must not be empty"))
	}
	return errors.Join(errs...)
}

// ProjectNameFromSource derives a project name from a repository URL or
// local directory: the last path element, without a ".git" suffix.
func ProjectNameFromSource(repoURL, localDir string) string {
	src := repoURL
	if src == "" {
		src = localDir
	}
	src = strings.TrimRight(src, "/\\")
	if src == "" {
		return ""
	}
	if i := strings.LastIndexAny(src, "/:\\"); i >= 0 {
		src = src[i+1:]
	} else {
		src = filepath.Base(src)
	}
	return strings.TrimSuffix(src, ".git")
}
