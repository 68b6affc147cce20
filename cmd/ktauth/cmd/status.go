package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keytriage/ktauth/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status for the current workspace",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the JSON shape of `ktauth status --json`.
type statusReport struct {
	Workspace     string               `json:"workspace"`
	Authenticated bool                 `json:"authenticated"`
	Email         string               `json:"email,omitempty"`
	Tenant        string               `json:"tenant,omitempty"`
	TenantCount   int                  `json:"tenant_count,omitempty"`
	Mode          session.Mode         `json:"mode"`
	Capabilities  session.Capabilities `json:"capabilities"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
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

	mode := session.EnforceTenantStatus(session.ParseMode(cfg.WorkspaceMode), sess.Tenant)
	caps := session.ComputeCapabilities(sess, mode)

	report := statusReport{
		Workspace:     ws,
		Authenticated: sess.Authenticated(),
		Mode:          mode,
		Capabilities:  caps,
	}
	if sess.Authenticated() {
		report.Email = sess.User.Email
		report.TenantCount = len(sess.Tenants)
		if sess.Tenant != nil {
			report.Tenant = sess.Tenant.Name
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if !report.Authenticated {
		fmt.Printf("Workspace %s: not authenticated. Run `ktauth login`.\n", ws)
		return nil
	}

	fmt.Printf("Workspace:  %s\n", report.Workspace)
	fmt.Printf("Signed in:  %s\n", report.Email)
	if report.Tenant != "" {
		fmt.Printf("Tenant:     %s (%d available)\n", report.Tenant, report.TenantCount)
	}
	fmt.Printf("Mode:       %s (read=%v write=%v)\n", report.Mode, caps.CanRead, caps.CanWrite)
	return nil
}
