package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/forumscan/internal/classify"
	"github.com/nao1215/forumscan/internal/config"
	"github.com/nao1215/forumscan/internal/crawler"
	applog "github.com/nao1215/forumscan/internal/log"
	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/pipeline"
	"github.com/nao1215/forumscan/internal/record"
	"github.com/nao1215/forumscan/internal/session"
	"github.com/nao1215/forumscan/internal/transport"
)

// addConfigFlag adds --config, shared by every command that reads settings.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .forumscan in current or home directory)")
}

// addForumFlags adds the flags needed to reach the forum and hold a session.
func addForumFlags(cmd *cobra.Command) {
	addConfigFlag(cmd)

	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Forum origin")
	cmd.Flags().String("category", config.DefaultCategoryPath,
		"Category path, for example courses/tds-kb")
	cmd.Flags().Int64("category-id", config.DefaultCategoryID,
		"Numeric category id")
	cmd.Flags().String("session-file", "",
		"Session file (default: session.json in the XDG state directory)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Duration("login-timeout", config.DefaultLoginTimeout,
		"Time allowed to complete the browser login")
	cmd.Flags().String("browser-bin", "",
		"Browser executable used for login (default: downloaded Chromium)")

	// Egress flags
	cmd.Flags().StringP("proxy", "x", "",
		"Route traffic through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route traffic through it")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
}

// applyFlag copies a flag value onto dst when the user set the flag.
// Unset flags keep the value from the defaults or the config file.
func applyFlag[T any](cmd *cobra.Command, name string, get func(string) (T, error), dst *T) error {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// applyDateFlag parses a YYYY-MM-DD flag onto dst when the user set it.
func applyDateFlag(cmd *cobra.Command, name string, dst *model.DateWindow, from bool) error {
	var raw string
	if err := applyFlag(cmd, name, cmd.Flags().GetString, &raw); err != nil || raw == "" {
		return err
	}
	t, err := config.ParseDate(raw)
	if err != nil {
		return fmt.Errorf("--%s: %w", name, err)
	}
	if from {
		dst.From = t
	} else {
		dst.To = t
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the config file and the
// command's flags, in increasing priority.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	if err := applyFlag(cmd, "config", cmd.Flags().GetString, &cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise a missing file silently leaves the defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.ApplyTo(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	f := cmd.Flags()
	steps := []error{
		applyFlag(cmd, "base-url", f.GetString, &cfg.BaseURL),
		applyFlag(cmd, "category", f.GetString, &cfg.CategoryPath),
		applyFlag(cmd, "category-id", f.GetInt64, &cfg.CategoryID),
		applyFlag(cmd, "session-file", f.GetString, &cfg.SessionFile),
		applyFlag(cmd, "timeout", f.GetDuration, &cfg.Timeout),
		applyFlag(cmd, "login-timeout", f.GetDuration, &cfg.LoginTimeout),
		applyFlag(cmd, "browser-bin", f.GetString, &cfg.BrowserBin),
		applyFlag(cmd, "proxy", f.GetString, &cfg.ProxyAddress),
		applyFlag(cmd, "tor", f.GetBool, &cfg.UseEmbeddedTor),
		applyFlag(cmd, "tor-timeout", f.GetDuration, &cfg.TorStartupTimeout),
		applyFlag(cmd, "concurrency", f.GetInt, &cfg.Concurrency),
		applyFlag(cmd, "rate", f.GetFloat64, &cfg.RateLimit),
		applyFlag(cmd, "retries", f.GetInt, &cfg.MaxRetries),
		applyFlag(cmd, "max-pages", f.GetInt, &cfg.MaxListingPages),
		applyFlag(cmd, "continue-on-error", f.GetBool, &cfg.ContinueOnError),
		applyFlag(cmd, "output-dir", f.GetString, &cfg.OutputDir),
		applyFlag(cmd, "json-file", f.GetString, &cfg.JSONFile),
		applyFlag(cmd, "csv-file", f.GetString, &cfg.CSVFile),
		applyFlag(cmd, "summary", f.GetString, &cfg.SummaryFile),
		applyFlag(cmd, "fingerprint", f.GetString, &cfg.Fingerprint),
		applyFlag(cmd, "only-new", f.GetBool, &cfg.OnlyNew),
		applyFlag(cmd, "redis-addr", f.GetString, &cfg.RedisAddr),
		applyFlag(cmd, "db-dir", f.GetString, &cfg.DBDir),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}

	var noDB bool
	if err := applyFlag(cmd, "no-db", f.GetBool, &noDB); err != nil {
		return nil, err
	}
	if noDB {
		cfg.SaveToDB = false
	}

	window := cfg.Window()
	if err := applyDateFlag(cmd, "from", &window, true); err != nil {
		return nil, err
	}
	if err := applyDateFlag(cmd, "to", &window, false); err != nil {
		return nil, err
	}
	cfg.DateFrom, cfg.DateTo = window.From, window.To

	return cfg, nil
}

// setupLogger creates the credential-masking logger on the command's stderr.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	return applog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// egress is the network path shared by the API client and the login browser.
type egress struct {
	client *transport.Client
	proxy  string
	tor    *transport.EmbeddedTor
}

// Close stops the embedded Tor daemon, if one was started.
func (e *egress) Close(logger *slog.Logger) {
	if e.tor == nil {
		return
	}
	logger.Info("stopping embedded Tor daemon...")
	if err := e.tor.Stop(); err != nil {
		logger.Error("failed to stop embedded Tor", "error", err)
	}
}

// setupEgress builds the HTTP transport, starting an embedded Tor daemon
// or verifying an external proxy when one is configured.
func setupEgress(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*egress, error) {
	e := &egress{proxy: cfg.ProxyAddress}

	if cfg.UseEmbeddedTor {
		fmt.Fprintln(out, "Starting embedded Tor daemon...")
		fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		e.tor = transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := e.tor.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		e.proxy = e.tor.SocksAddr()
		logger.Info("embedded Tor daemon started",
			"socksAddr", e.tor.SocksAddr(),
			"controlAddr", e.tor.ControlAddr(),
		)
	}

	opts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
	}
	if e.proxy != "" {
		opts = append(opts, transport.WithProxy(e.proxy))
	}

	client, err := transport.NewClient(opts...)
	if err != nil {
		e.Close(logger)
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	e.client = client

	if client.UsesProxy() {
		if err := client.CheckProxy(ctx).Error(); err != nil {
			e.Close(logger)
			return nil, fmt.Errorf("proxy check failed for %s: %w", e.proxy, err)
		}
		logger.Info("proxy connection verified", "address", e.proxy)
	}

	return e, nil
}

// newSessionManager wires the session file, the browser login and the
// validation request.
func newSessionManager(cmd *cobra.Command, cfg *config.Config, e *egress, logger *slog.Logger) (*session.Manager, error) {
	browserOpts := []session.BrowserOption{
		session.WithLoginTimeout(cfg.LoginTimeout),
		session.WithBrowserLogger(logger),
	}
	if e.proxy != "" {
		browserOpts = append(browserOpts, session.WithBrowserProxy(e.proxy))
	}
	if cfg.BrowserBin != "" {
		browserOpts = append(browserOpts, session.WithBrowserBin(cfg.BrowserBin))
	}

	auth, err := session.NewBrowserAuthenticator(cfg.BaseURL, cmd.InOrStdin(), cmd.ErrOrStderr(), browserOpts...)
	if err != nil {
		return nil, err
	}

	return session.NewManager(
		session.NewFileStore(cfg.SessionFile),
		auth,
		e.client,
		cfg.CategoryURL(),
		session.WithValidateTimeout(cfg.ValidateTimeout),
		session.WithManagerLogger(logger),
	)
}

// newAssembler creates the record assembler with the configured fingerprint.
func newAssembler(cfg *config.Config) (*record.Assembler, error) {
	fp, err := classify.NewFingerprinter(classify.Algorithm(cfg.Fingerprint))
	if err != nil {
		return nil, err
	}
	return record.NewAssembler(cfg.BaseURL, record.WithFingerprinter(fp)), nil
}

// sourceFactory builds the API client once the session is known.
func sourceFactory(cfg *config.Config, tc *transport.Client, host string, logger *slog.Logger) pipeline.SourceFactory {
	return func(s *model.Session) (pipeline.Source, error) {
		c, err := crawler.NewClient(
			tc.NewHTTPClient(s, host),
			cfg.BaseURL,
			crawler.WithCategory(cfg.CategoryPath, cfg.CategoryID),
			crawler.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
			crawler.WithRetry(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
			crawler.WithMaxListingPages(cfg.MaxListingPages),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
