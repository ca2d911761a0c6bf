package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through a browser and store the session",
		Long: `Login opens a browser on the forum's login page, waits until you have
signed in and pressed Enter, then stores the forum cookies in the session
file. The stored session is used by 'forumscan crawl' until the forum
rejects it.

Any stored session is replaced, even if it is still valid.

Examples:
  # Log in with the default browser
  forumscan login

  # Log in through a SOCKS5 proxy, allowing ten minutes
  forumscan login --proxy 127.0.0.1:9050 --login-timeout 10m`,
		Args: cobra.NoArgs,
		RunE: runLoginCmd,
	}

	addForumFlags(cmd)

	return cmd
}

// runLoginCmd executes the login command.
func runLoginCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	e, err := setupEgress(ctx, cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer e.Close(logger)

	manager, err := newSessionManager(cmd, cfg, e, logger)
	if err != nil {
		return fmt.Errorf("failed to set up session: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Opening %s/login in a browser...\n", strings.TrimSuffix(cfg.BaseURL, "/"))

	s, err := manager.Bootstrap(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged in to %s\n", manager.Host())
	fmt.Fprintf(out, "Session saved to %s (%d cookies: %s)\n",
		cfg.SessionFile, len(s.Cookies), strings.Join(s.CookieNames(), ", "))
	return nil
}
