// Package cli implements the tutorgen command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/config"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the tutorgen command.
//
// Every flag is bound to the configuration key of the same name
// (max-size -> max_size), so TUTORGEN_* variables and the config file
// can supply anything the flags can.
func NewRootCommand() *cobra.Command {
	v := config.NewViper()
	var configPath string

	cmd := &cobra.Command{
		Use:   "tutorgen",
		Short: "Generate a tutorial for a codebase with a language model",
		Long: `tutorgen reads a codebase from a git repository or a local directory,
asks a language model to identify its abstractions and how they relate,
orders them into chapters, writes each chapter, and combines the result
into a single markdown tutorial.`,
		Example: `  tutorgen --dir ./myproject
  tutorgen --repo https://github.com/acme/widgets.git --language spanish
  tutorgen -d . -i "*.go" -e "vendor/**" -o docs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), v, configPath)
		},
	}

	f := cmd.Flags()
	f.StringP("repo", "r", "", "Git repository URL")
	f.StringP("dir", "d", "", "Path to a local directory")
	f.StringP("name", "n", "", "Project name (default: repository or directory name)")
	f.StringP("language", "l", config.DefaultLanguage, "Tutorial language")
	f.StringSliceP("include", "i", config.DefaultInclude, "File patterns to include")
	f.StringSliceP("exclude", "e", config.DefaultExclude, "File patterns to exclude")
	f.StringP("output", "o", config.DefaultOutputDir, "Output directory")
	f.Int64P("max-size", "s", config.DefaultMaxFileSize, "Maximum file size in bytes")
	f.BoolP("verbose", "v", false, "Enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("repo", "dir")

	// Bound before --config is added; the config path is not a setting.
	if err := config.BindFlags(v, f); err != nil {
		panic(err)
	}
	f.StringVar(&configPath, "config", "", "Config file (yaml or json)")

	return cmd
}

// Execute runs the root command and reports any failure on stderr.
func Execute(ctx context.Context, version string, stderr io.Writer) error {
	cmd := NewRootCommand()
	cmd.Version = version
	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(stderr, newStatus(stderr).errorLine("Error: "+err.Error()))
		}
		return err
	}
	return nil
}
