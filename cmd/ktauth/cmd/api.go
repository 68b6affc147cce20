package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/session"
)

var apiCmd = &cobra.Command{
	Use:   "api <path>",
	Short: "Make an authenticated Tenant API request",
	Long: `Issue a GET against the Tenant API with the stored token and print the
JSON response. A 401 clears the stored token, same as every other
authenticated call.

Examples:
  ktauth api /api/v1/tickets
  ktauth api /api/v1/settings
`,
	Args: cobra.ExactArgs(1),
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws := currentWorkspace()

	store, closeStore := openStore()
	defer closeStore()

	client, err := session.NewAPIClient(cfg.TenantAPIBase(), ws, store, logger)
	if err != nil {
		return err
	}

	var out json.RawMessage
	if err := client.Get(ctx, args[0], &out); err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			return fmt.Errorf("not authenticated; run `ktauth login` first")
		}
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
