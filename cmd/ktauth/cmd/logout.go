package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ws := currentWorkspace()

	store, closeStore := openStore()
	defer closeStore()

	store.Clear(ws)
	fmt.Printf("Logged out of %s\n", ws)
	return nil
}
