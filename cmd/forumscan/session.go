package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/session"
)

// NewSessionCmd creates the session command.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Check whether the stored session is still accepted",
		Long: `Session loads the stored session and performs one validation request
against the category listing. It never opens a browser; run
'forumscan login' when the session is missing or rejected.

The command exits with an error when the session is missing or invalid,
so it can be used in scripts.

Examples:
  forumscan session
  forumscan session --session-file ./session.json`,
		Args: cobra.NoArgs,
		RunE: runSessionCmd,
	}

	addForumFlags(cmd)

	return cmd
}

// runSessionCmd executes the session command.
func runSessionCmd(cmd *cobra.Command, _ []string) error {
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

	out := cmd.OutOrStdout()
	store := session.NewFileStore(cfg.SessionFile)

	s, err := store.Load()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintf(out, "No session stored at %s\n", store.Path())
		return errors.New("no session (run 'forumscan login')")
	}
	if err != nil {
		return err
	}

	e, err := setupEgress(ctx, cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer e.Close(logger)

	// Validation never calls the authenticator.
	manager, err := session.NewManager(store, session.StaticAuthenticator{}, e.client, cfg.CategoryURL(),
		session.WithValidateTimeout(cfg.ValidateTimeout),
		session.WithManagerLogger(logger),
	)
	if err != nil {
		return err
	}

	valid := manager.Validate(ctx, s)
	printSessionStatus(out, store.Path(), manager.Host(), s, valid, time.Now())
	if !valid {
		return fmt.Errorf("%w (run 'forumscan login')", session.ErrSessionInvalid)
	}
	return nil
}

// printSessionStatus writes a short description of a stored session.
// Cookie values are never printed.
func printSessionStatus(w io.Writer, path, host string, s *model.Session, valid bool, now time.Time) {
	status := "valid"
	if !valid {
		status = "rejected"
	}

	fmt.Fprintf(w, "Session file: %s\n", path)
	fmt.Fprintf(w, "Forum host:   %s\n", host)
	fmt.Fprintf(w, "Created:      %s (%s ago)\n",
		s.CreatedAt.Local().Format(time.DateTime), now.Sub(s.CreatedAt).Round(time.Minute))
	fmt.Fprintf(w, "Cookies:      %s\n", strings.Join(s.CookieNames(), ", "))

	var expired []string
	for _, c := range s.Cookies {
		if c.Expired(now) {
			expired = append(expired, c.Name)
		}
	}
	if len(expired) > 0 {
		fmt.Fprintf(w, "Expired:      %s\n", strings.Join(expired, ", "))
	}
	fmt.Fprintf(w, "Status:       %s\n", status)
}
