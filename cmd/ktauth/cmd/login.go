package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/keytriage/ktauth/internal/handshake"
	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/msgbus"
	"github.com/keytriage/ktauth/internal/popup"
	"github.com/keytriage/ktauth/internal/session"
	"github.com/keytriage/ktauth/internal/tokenstore"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Run the OAuth handshake and store the session token",
	Long: `Authenticate against the helpdesk workspace.

By default an authorization window opens and completion is raced between
the local callback channel and status polling. With --no-browser the URL
is printed instead and completion is resolved by polling alone.

Examples:
  ktauth login
  ktauth login --workspace acme
  ktauth login --no-browser --timeout 3m
`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().Bool("no-browser", false, "print the URL and complete by polling only")
	loginCmd.Flags().Duration("timeout", 0, "override the handshake deadline")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx := cmd.Context()

	ws, err := resolveWorkspace(ctx)
	if err != nil {
		return err
	}

	store, closeStore := openStore()
	defer closeStore()

	client, err := identityClient()
	if err != nil {
		return err
	}

	hsCfg := handshake.Config{
		Deadline:     cfg.HandshakeTimeout,
		PollInterval: cfg.PollInterval,
	}
	if timeout > 0 {
		hsCfg.Deadline = timeout
	}

	if noBrowser {
		err = loginByPolling(ctx, client, store, hsCfg, ws)
	} else {
		err = loginWithBrowser(ctx, client, store, hsCfg, ws)
	}
	if err != nil {
		return err
	}

	verifier := &session.Verifier{Service: client, Store: store, Logger: logger}
	sess, err := verifier.Verify(ctx, ws)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		return fmt.Errorf("authentication did not produce a valid session")
	}

	rememberWorkspace(ws)

	fmt.Printf("Logged in to %s as %s\n", ws, sess.User.Email)
	if sess.Tenant != nil {
		fmt.Printf("Active tenant: %s (%s)\n", sess.Tenant.Name, sess.Tenant.ID)
	}
	return nil
}

// loginWithBrowser opens the authorization window and races the callback
// channel against polling. If the callback listener cannot bind, polling
// alone still completes the flow.
func loginWithBrowser(ctx context.Context, client *identity.Client, store tokenstore.Store, hsCfg handshake.Config, ws string) error {
	h := &handshake.Handshake{
		Flows:  client,
		Opener: popup.NewChromeOpener(logger),
		Store:  store,
		Config: hsCfg,
		Logger: logger,
	}

	bus := msgbus.NewMemory()
	callback, err := msgbus.NewCallbackServer(bus, logger)
	if err != nil {
		logger.Warn("callback channel unavailable, polling only", "error", err)
	} else {
		go func() {
			if serveErr := callback.Start(); serveErr != nil && serveErr != http.ErrServerClosed {
				logger.Debug("callback server stopped", "error", serveErr)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			callback.Shutdown(shutCtx)
		}()

		h.Bus = bus
		h.PostOrigin = callback.Origin()
	}

	_, err = h.Connect(ctx, ws)
	return err
}

// loginByPolling prints the consent URL for the operator to open themselves
// and resolves the flow by polling. The token is then confirmed with the
// service so a server-side session exists for it.
func loginByPolling(ctx context.Context, client *identity.Client, store tokenstore.Store, hsCfg handshake.Config, ws string) error {
	start, err := client.Start(ctx, ws, "standalone", "")
	if err != nil {
		return err
	}

	fmt.Printf("Open this URL in your browser to authorize:\n\n  %s\n\n", start.RedirectURL)
	fmt.Println("Waiting for authorization...")

	h := &handshake.Handshake{Flows: client, Store: store, Config: hsCfg, Logger: logger}
	token, err := h.PollFlowToken(ctx, start.FlowID)
	if err != nil {
		return err
	}

	if err := client.Complete(ctx, token); err != nil {
		logger.Warn("session confirmation failed", "error", err)
	}

	store.Set(ws, token)
	return nil
}
