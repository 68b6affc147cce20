package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keytriage/ktauth/internal/session"
)

var switchCmd = &cobra.Command{
	Use:   "switch <tenant-id>",
	Short: "Re-scope the current session to another tenant",
	Long: `Switch the verified session to a different tenant of the same identity.

Examples:
  ktauth switch t_12345
  ktauth switch --list
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitch,
}

func init() {
	switchCmd.Flags().Bool("list", false, "list tenants available to this identity")
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	ctx := cmd.Context()

	ws := currentWorkspace()

	store, closeStore := openStore()
	defer closeStore()

	client, err := identityClient()
	if err != nil {
		return err
	}

	verifier := &session.Verifier{Service: client, Store: store, Logger: logger}
	sess, err := verifier.Verify(ctx, ws)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		return fmt.Errorf("not authenticated; run `ktauth login` first")
	}

	if list || len(args) == 0 {
		if len(sess.Tenants) == 0 {
			fmt.Println("Single-tenant identity; nothing to switch to.")
			return nil
		}
		for _, t := range sess.Tenants {
			marker := " "
			if sess.Tenant != nil && sess.Tenant.ID == t.ID {
				marker = "*"
			}
			fmt.Printf("%s %s  %s (%s)\n", marker, t.ID, t.Name, t.Status)
		}
		return nil
	}

	if err := session.Switch(ctx, client, sess, args[0]); err != nil {
		return err
	}

	fmt.Printf("Switched to tenant %s (%s)\n", sess.Tenant.Name, sess.Tenant.ID)
	return nil
}
