package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/waterfall/pkg/photo"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for bash, zsh, fish or powershell.

Besides commands and flags, the scripts complete photos files for the
commands that read one and tier names for --tier.

  $ source <(waterfall completion bash)
  $ waterfall completion zsh > "${fpath[1]}/_waterfall"
  $ waterfall completion fish > ~/.config/fish/completions/waterfall.fish
  PS> waterfall completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return root.GenBashCompletionV2(out, true)
			}
		},
	}
}

// completePhotosFile completes the optional photos file argument.
func completePhotosFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeTier completes a --tier flag value.
func completeTier(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(photo.Tiers))
	for i, t := range photo.Tiers {
		names[i] = string(t)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
