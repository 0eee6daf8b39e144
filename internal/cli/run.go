package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/randalmurphal/tutorgraph/internal/source"
	"github.com/randalmurphal/tutorgraph/internal/tutorial"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/cache"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/config"
	perrors "github.com/randalmurphal/tutorgraph/pkg/pipeline/errors"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/llm"
	"github.com/spf13/viper"
)

func run(ctx context.Context, stdout, stderr io.Writer, v *viper.Viper, configPath string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	settings, err := config.Decode(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.Bool("verbose", false))
	prompts, err := tutorial.NewPrompts(settings.Prompts)
	if err != nil {
		return err
	}

	client, closeClient, err := newClient(settings.LLM, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	flow, err := tutorial.NewChain(tutorial.Deps{
		Source:      source.NewFetcher(source.WithLogger(logger)),
		Client:      client,
		Prompts:     prompts,
		Concurrency: settings.Pipeline.Concurrency,
		Polish:      settings.Pipeline.Polish,
	})
	if err != nil {
		return err
	}

	st := newState(settings)
	out := newStatus(stdout)
	origin := st.LocalDir
	if st.RepoURL != "" {
		origin = st.RepoURL
	}
	out.info(fmt.Sprintf("Starting tutorial generation for: %s in %s language", origin, st.Language))

	result, err := flow.Run(pipeline.NewContext(ctx, pipeline.WithLogger(logger)), st,
		pipeline.WithObservabilityLogger(logger),
		pipeline.WithMetrics(true),
		pipeline.WithTracing(true),
	)
	if err != nil {
		fmt.Fprintln(stderr, out.errorLine("Error running tutorial generation: "+err.Error()))
		return &reportedError{err: err}
	}

	if n := len(result.ItemErrors); n > 0 {
		out.warn(fmt.Sprintf("%d item(s) failed and were left out; rerun with --verbose for details", n))
	}
	out.success("Tutorial generation completed successfully!")
	out.info("Written to " + st.OutputPath)
	return nil
}

func newState(s config.Settings) *tutorial.State {
	return &tutorial.State{
		RepoURL:     s.RepoURL,
		LocalDir:    s.LocalDir,
		ProjectName: s.ProjectName,
		Language:    s.Language,
		Include:     s.Include,
		Exclude:     s.Exclude,
		OutputDir:   s.OutputDir,
		MaxFileSize: s.MaxFileSize,
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newClient builds the model client: the claude CLI with fixed-delay
// retries, behind the response cache when one is configured.
func newClient(s config.LLMSettings, logger *slog.Logger) (llm.Client, func(), error) {
	cli := llm.NewClaudeCLI(
		llm.WithClaudePath(s.CLIPath),
		llm.WithModel(s.Model),
		llm.WithTimeout(s.Timeout),
	)
	var client llm.Client = llm.NewRetryingClient(cli, perrors.NewRetryConfig(
		perrors.WithMaxAttempts(s.RetryAttempts),
		perrors.WithFixedDelay(s.RetryDelay),
	), logger)

	if s.CachePath == "" {
		return client, func() {}, nil
	}
	store, err := cache.NewSQLiteStore(s.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open response cache: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close response cache", slog.String("error", err.Error()))
		}
	}
	return llm.NewCachingClient(client, store, cli.Model(), logger), closeStore, nil
}
