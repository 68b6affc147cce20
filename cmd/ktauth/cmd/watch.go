package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keytriage/ktauth/internal/session"
	"github.com/keytriage/ktauth/internal/tokenstore"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the token store and report session changes",
	Long: `Follow the token database for writes made by other ktauth sessions and
re-verify the session after each change. Useful when a login completes in
another terminal or the token is revoked out from under this one.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws := currentWorkspace()

	path := cfg.StorePath
	if path == "" {
		path = tokenstore.DefaultPath()
	}

	store, closeStore := openStore()
	defer closeStore()

	client, err := identityClient()
	if err != nil {
		return err
	}
	verifier := &session.Verifier{Service: client, Store: store, Logger: logger}

	watcher, err := tokenstore.Watch(path)
	if err != nil {
		return fmt.Errorf("watch token store: %w", err)
	}
	defer watcher.Close()

	report := func() {
		sess, verr := verifier.Verify(ctx, ws)
		if verr != nil {
			logger.Warn("verification failed", "error", verr)
			return
		}
		if sess.Authenticated() {
			fmt.Printf("%s: authenticated as %s\n", ws, sess.User.Email)
		} else {
			fmt.Printf("%s: not authenticated\n", ws)
		}
	}

	report()
	fmt.Println("Watching for token changes (Ctrl+C to stop)...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigCh:
			return nil
		case evt, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			logger.Debug("token store changed", "path", evt.Path)
			report()
		case werr, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			logger.Warn("token store watch error", "error", werr)
		}
	}
}
