// Package cobra provides the Cobra-based CLI command tree for expbox.
package cobra

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/commands"
	"github.com/NielsdaWheelz/expbox/internal/config"
	"github.com/NielsdaWheelz/expbox/internal/logging"
	"github.com/NielsdaWheelz/expbox/internal/version"
)

// GlobalOpts holds global options parsed before subcommand dispatch.
type GlobalOpts struct {
	Verbose     bool
	Root        string
	ResultsRoot string
	LogLevel    string
	LogFormat   string
}

// globalOpts stores the parsed global options for access by subcommands.
var globalOpts GlobalOpts

// GetGlobalOpts returns the parsed global options.
func GetGlobalOpts() GlobalOpts {
	return globalOpts
}

// NewRootCmd creates the root cobra command for expbox.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "expbox",
		Short: "File-system experiment boxes with reproducible metadata",
		Long: `expbox - file-system experiment boxes with reproducible metadata

Each experiment gets a box under results/<exp_id>/ holding its config
snapshot, logs, figures, artifacts, and a meta.json recording git state.
A privacy-safe index under .expbox/index/ keeps one flat record per box
for listing and export. Nothing is ever deleted: archive and sweep only
change a box's status.`,
		Version:       version.FullVersion(),
		SilenceErrors: true, // We handle error printing in main.go
		SilenceUsage:  true, // We handle usage printing manually
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(globalOpts.LogLevel)
			if err != nil {
				return err
			}
			format, err := logging.ParseFormat(globalOpts.LogFormat)
			if err != nil {
				return err
			}
			logging.Init(level, format, cmd.ErrOrStderr())
			return nil
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&globalOpts.Verbose, "verbose", false, "show detailed error context")
	pf.StringVar(&globalOpts.Root, "root", "", "project root (default: $EXPBOX_ROOT or current directory)")
	pf.StringVar(&globalOpts.ResultsRoot, "results-root", "", "results directory (default: $EXPBOX_RESULTS_ROOT or <root>/results)")
	pf.StringVar(&globalOpts.LogLevel, "log-level", "warn", "diagnostic log level: debug, info, warn, error")
	pf.StringVar(&globalOpts.LogFormat, "log-format", "text", "diagnostic log format: text or json")

	// Disable Cobra's default completion command (we register our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newSetupCmd(),
		newInitCmd(),
		newLoadCmd(),
		newSaveCmd(),
		newArchiveCmd(),
		newSweepCmd(),
		newExportCmd(),
		newShowCmd(),
		newPathCmd(),
		newLogCmd(),
		newActiveCmd(),
		newCompletionCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
// This is the main entry point from main.go.
func Execute(ctx context.Context, stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

// commandEnv builds the command environment from the global flags.
func commandEnv() (commands.Env, error) {
	return commands.OSEnv(config.WorkspaceFlags{
		Root:        globalOpts.Root,
		ResultsRoot: globalOpts.ResultsRoot,
	})
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// completeBoxIDs completes the first positional argument with exp_ids.
func completeBoxIDs(includeArchived bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		env, err := commandEnv()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		opts := commands.CompleteOpts{Prefix: toComplete, IncludeArchived: includeArchived}
		return commands.CompleteBoxes(cmdContext(cmd), env, opts), cobra.ShellCompDirectiveNoFileComp
	}
}

// optionalRef returns the single optional box argument.
func optionalRef(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
