package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/updatecheck/pkg/deps/ecosystems"
)

var completionShells = map[string]func(*cobra.Command, io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for updatecheck.

Bash:
  $ source <(updatecheck completion bash)

Zsh:
  $ updatecheck completion zsh > "${fpath[1]}/_updatecheck"

Fish:
  $ updatecheck completion fish > ~/.config/fish/completions/updatecheck.fish

PowerShell:
  PS> updatecheck completion powershell | Out-String | Invoke-Expression

Flags such as --ecosystem and --strategy complete their known values.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd.Root(), os.Stdout)
		},
	}
}

// completeFixed completes a flag from a fixed list.
func completeFixed(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, prefix) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerCheckCompletions wires value completion for the check flags.
func registerCheckCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("ecosystem", completeFixed(ecosystems.Names()...))
	_ = cmd.RegisterFlagCompletionFunc("strategy", completeFixed(
		"bump_versions_if_necessary", "bump_versions", "widen_ranges", "lockfile_only",
	))
}
