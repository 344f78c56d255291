package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCompletionCmd returns a cobra.Command that generates shell completion
// scripts for the given root command. If hidden is true, the command will not
// show up in the root command's list of available commands.
func NewCompletionCmd(rootCmd *cobra.Command, hidden bool) *cobra.Command {
	var shell string
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Long: fmt.Sprintf(`Generate a completion script for bash, zsh or fish and print it to STDOUT.

To load completions in the current bash session:

   $ . <(%s completion)
`, rootCmd.Use),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch shell {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unsupported shell %q (must be bash, zsh or fish)", shell)
			}
		},
		Hidden: hidden,
		Args:   cobra.NoArgs,
	}

	cmd.Flags().StringVar(&shell, "shell", "bash", "target shell: bash | zsh | fish")

	return cmd
}
