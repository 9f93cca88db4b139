package cobra

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

func newCompletionCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts.
By default, prints the script to stdout.
Use --output to write directly to a file.

Arguments:
  shell    target shell: bash, zsh, or fish

Installation:

  bash (with bash-completion package):
    expbox completion bash > ~/.local/share/bash-completion/completions/expbox

  zsh (with fpath):
    expbox completion zsh > ~/.zsh/completions/_expbox
    # ensure ~/.zsh/completions is in fpath before compinit

  fish:
    expbox completion fish > ~/.config/fish/completions/expbox.fish

Box arguments complete to exp_ids, newest first.
After installation, restart your shell.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			rootCmd := cmd.Root()

			var buf bytes.Buffer
			var genErr error
			switch shell {
			case "bash":
				genErr = rootCmd.GenBashCompletionV2(&buf, true)
			case "zsh":
				genErr = rootCmd.GenZshCompletion(&buf)
			case "fish":
				genErr = rootCmd.GenFishCompletion(&buf, true)
			default:
				return errors.New(errors.EUsage, fmt.Sprintf("unsupported shell: %s (supported: bash, zsh, fish)", shell))
			}
			if genErr != nil {
				return errors.Wrap(errors.EInternal, "failed to generate completion script", genErr)
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			fsys := fs.NewRealFS()
			dir := filepath.Dir(output)
			if err := fsys.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(errors.EInternal, fmt.Sprintf("failed to create directory %s", dir), err)
			}
			if err := fs.WriteFileAtomic(fsys, output, buf.Bytes(), 0o644); err != nil {
				return errors.Wrap(errors.EInternal, fmt.Sprintf("failed to write %s", output), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "write completion script to file instead of stdout")

	return cmd
}
