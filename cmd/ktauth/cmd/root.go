// Package cmd implements the CLI commands for ktauth.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/keytriage/ktauth/internal/config"
	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/tokenstore"
	"github.com/keytriage/ktauth/internal/workspace"
)

var rootCmd = &cobra.Command{
	Use:   "ktauth",
	Short: "Authenticate a support agent against a Zendesk workspace",
	Long: `ktauth runs the KeyTriage OAuth handshake from the terminal: it opens
an authorization window, waits for completion over two independent
channels, verifies the resulting session, and keeps one token per
workspace for reuse.`,
	SilenceUsage: true,
}

var (
	cfg    *config.Config
	logger *slog.Logger

	flagVerbose   bool
	flagAPIURL    string
	flagWorkspace string
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Identity Service base URL")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "helpdesk workspace identifier")
	rootCmd.PersistentPreRunE = setup
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		cfg.APIBaseURL = flagAPIURL
	}
	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}
	return nil
}

// openStore opens the persisted token store, degrading to memory-only when
// the backend cannot be opened. The caller must invoke the returned close
// func.
func openStore() (tokenstore.Store, func()) {
	path := cfg.StorePath
	if path == "" {
		path = tokenstore.DefaultPath()
	}

	var sealer *tokenstore.Sealer
	if cfg.SealTokens {
		s, err := loadSealer(path)
		if err != nil {
			logger.Warn("token sealing unavailable, storing plaintext", "error", err)
		} else {
			sealer = s
		}
	}

	backend, err := tokenstore.OpenSQLite(path, sealer)
	if err != nil {
		logger.Warn("token store unavailable, using memory only", "error", err)
		return tokenstore.NewFallback(nil, logger), func() {}
	}
	return tokenstore.NewFallback(backend, logger), func() { backend.Close() }
}

func loadSealer(storePath string) (*tokenstore.Sealer, error) {
	passphrase := os.Getenv("KTAUTH_PASSPHRASE")
	if passphrase == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("KTAUTH_PASSPHRASE is not set and stdin is not a terminal")
		}
		fmt.Fprint(os.Stderr, "Store passphrase: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		passphrase = string(raw)
		if passphrase == "" {
			return nil, fmt.Errorf("empty passphrase")
		}
	}

	saltPath := storePath + ".salt"
	salt, err := os.ReadFile(saltPath)
	if os.IsNotExist(err) {
		salt, err = tokenstore.NewSalt()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(saltPath), 0700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		if err := os.WriteFile(saltPath, salt, 0600); err != nil {
			return nil, fmt.Errorf("write salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}

	return tokenstore.NewSealer(passphrase, salt)
}

func identityClient() (*identity.Client, error) {
	return identity.NewClient(cfg.APIBaseURL, identity.WithLogger(logger))
}

// resolveWorkspace walks the full fallback chain, ending at an interactive
// prompt.
func resolveWorkspace(ctx context.Context) (string, error) {
	resolver := &workspace.Resolver{
		Explicit: cfg.Workspace,
		Prompter: &workspace.TerminalPrompter{In: os.Stdin, Out: os.Stdout},
	}
	if cfg.RememberWorkspace {
		resolver.Remembered = cfg.LastWorkspace
	}
	return resolver.Resolve(ctx)
}

// currentWorkspace resolves without prompting, for read-only commands.
func currentWorkspace() string {
	if ws := workspace.Normalize(cfg.Workspace); ws != "" {
		return ws
	}
	if cfg.RememberWorkspace {
		if ws := workspace.Normalize(cfg.LastWorkspace); ws != "" {
			return ws
		}
	}
	return tokenstore.DefaultWorkspace
}

func rememberWorkspace(ws string) {
	if !cfg.RememberWorkspace || ws == "" || ws == cfg.LastWorkspace {
		return
	}
	cfg.LastWorkspace = ws
	if err := cfg.Save(); err != nil {
		logger.Debug("could not remember workspace", "error", err)
	}
}
