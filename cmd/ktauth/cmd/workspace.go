package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keytriage/ktauth/internal/workspace"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace [identifier]",
	Short: "Show or pin the helpdesk workspace",
	Long: `Without arguments, prints the workspace the other commands will use.
With an identifier (bare label, hostname, or URL), normalizes and pins it.

Examples:
  ktauth workspace
  ktauth workspace acme
  ktauth workspace https://acme.zendesk.com/agent
  ktauth workspace --forget
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkspace,
}

func init() {
	workspaceCmd.Flags().Bool("forget", false, "clear the pinned and remembered workspace")
	rootCmd.AddCommand(workspaceCmd)
}

func runWorkspace(cmd *cobra.Command, args []string) error {
	forget, _ := cmd.Flags().GetBool("forget")

	if forget {
		cfg.Workspace = ""
		cfg.LastWorkspace = ""
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println("Workspace cleared.")
		return nil
	}

	if len(args) == 0 {
		ws := currentWorkspace()
		source := "default"
		switch {
		case workspace.Normalize(cfg.Workspace) != "":
			source = "configured"
		case cfg.RememberWorkspace && workspace.Normalize(cfg.LastWorkspace) != "":
			source = "remembered"
		}
		fmt.Printf("%s (%s)\n", ws, source)
		return nil
	}

	ws := workspace.Normalize(args[0])
	if ws == "" {
		return fmt.Errorf("%q is not a valid workspace; expected something like acme or acme%s", args[0], workspace.DomainSuffix)
	}

	cfg.Workspace = ws
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Workspace pinned to %s\n", ws)
	return nil
}
