package cli

import (
	"bytes"
	"slices"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteFixed(t *testing.T) {
	complete := completeFixed("bump_versions_if_necessary", "bump_versions", "widen_ranges")
	got, directive := complete(nil, nil, "bump")
	if !slices.Equal(got, []string{"bump_versions_if_necessary", "bump_versions"}) {
		t.Errorf("completions = %v", got)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
}

func TestCompletionShells(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	for shell, gen := range completionShells {
		var buf bytes.Buffer
		if err := gen(root, &buf); err != nil {
			t.Errorf("%s: %v", shell, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty script", shell)
		}
	}
}
