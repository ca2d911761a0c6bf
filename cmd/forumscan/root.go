package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for forumscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forumscan",
		Short: "Crawl a Discourse forum category into structured post records",
		Long: `forumscan crawls one category of a Discourse forum as a logged-in user.

It lists the category's topics, keeps those created inside a date window,
fetches every post of each topic and writes one record per post with its
plain text, Markdown, tags, reply counts, accepted-answer flag and a
content fingerprint.

The first run opens a browser so you can log in; the session cookies are
kept in the XDG state directory and reused until the forum rejects them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewSessionCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
