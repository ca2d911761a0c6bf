package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".forumscan"

// dateLayout is the calendar date format accepted in the config file and flags.
const dateLayout = "2006-01-02"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the .forumscan configuration file.
//
// Every field is optional. Unset fields leave the corresponding Config
// value untouched.
type File struct {
	Forum   ForumSection   `yaml:"forum"`
	Window  WindowSection  `yaml:"window"`
	Crawl   CrawlSection   `yaml:"crawl"`
	Session SessionSection `yaml:"session"`
	Output  OutputSection  `yaml:"output"`
	Dedup   DedupSection   `yaml:"dedup"`
	Proxy   ProxySection   `yaml:"proxy"`
}

// ForumSection selects the forum and category.
type ForumSection struct {
	BaseURL      string `yaml:"base_url"`
	CategoryPath string `yaml:"category_path"`
	CategoryID   int64  `yaml:"category_id"`
	UserAgent    string `yaml:"user_agent"`
}

// WindowSection holds the topic date window as YYYY-MM-DD dates.
type WindowSection struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CrawlSection tunes request pacing and failure handling.
// Durations use time.ParseDuration syntax ("30s", "500ms").
type CrawlSection struct {
	Concurrency     int      `yaml:"concurrency"`
	RateLimit       *float64 `yaml:"rate_limit"`
	RateBurst       int      `yaml:"rate_burst"`
	MaxRetries      *int     `yaml:"max_retries"`
	RetryBaseDelay  string   `yaml:"retry_base_delay"`
	RetryMaxDelay   string   `yaml:"retry_max_delay"`
	Timeout         string   `yaml:"timeout"`
	MaxListingPages int      `yaml:"max_listing_pages"`
	ContinueOnError *bool    `yaml:"continue_on_error"`
}

// SessionSection configures session persistence and the login browser.
type SessionSection struct {
	File            string `yaml:"file"`
	ValidateTimeout string `yaml:"validate_timeout"`
	LoginTimeout    string `yaml:"login_timeout"`
	BrowserBin      string `yaml:"browser_bin"`
}

// OutputSection configures the record files and the run database.
type OutputSection struct {
	Dir         string  `yaml:"dir"`
	JSONFile    *string `yaml:"json_file"`
	CSVFile     *string `yaml:"csv_file"`
	SummaryFile string  `yaml:"summary_file"`
	DBDir       string  `yaml:"db_dir"`
	SaveToDB    *bool   `yaml:"save_to_db"`
	Fingerprint string  `yaml:"fingerprint"`
}

// DedupSection configures the fingerprint index used by --only-new.
type DedupSection struct {
	OnlyNew       *bool  `yaml:"only_new"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

// ProxySection routes traffic through a SOCKS5 proxy or an embedded Tor daemon.
type ProxySection struct {
	Address           string `yaml:"address"`
	EmbeddedTor       *bool  `yaml:"embedded_tor"`
	TorStartupTimeout string `yaml:"tor_startup_timeout"`
}

// LoadConfigFile loads the configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .forumscan in the current directory
// 3. Look for .forumscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// ApplyTo copies every value set in the file onto cfg.
// It stops at the first malformed date or duration.
func (f *File) ApplyTo(cfg *Config) error {
	setString(&cfg.BaseURL, f.Forum.BaseURL)
	setString(&cfg.CategoryPath, f.Forum.CategoryPath)
	if f.Forum.CategoryID != 0 {
		cfg.CategoryID = f.Forum.CategoryID
	}
	setString(&cfg.UserAgent, f.Forum.UserAgent)

	if err := setDate(&cfg.DateFrom, "window.from", f.Window.From); err != nil {
		return err
	}
	if err := setDate(&cfg.DateTo, "window.to", f.Window.To); err != nil {
		return err
	}

	if f.Crawl.Concurrency != 0 {
		cfg.Concurrency = f.Crawl.Concurrency
	}
	if f.Crawl.RateLimit != nil {
		cfg.RateLimit = *f.Crawl.RateLimit
	}
	if f.Crawl.RateBurst != 0 {
		cfg.RateBurst = f.Crawl.RateBurst
	}
	if f.Crawl.MaxRetries != nil {
		cfg.MaxRetries = *f.Crawl.MaxRetries
	}
	if f.Crawl.MaxListingPages != 0 {
		cfg.MaxListingPages = f.Crawl.MaxListingPages
	}
	if f.Crawl.ContinueOnError != nil {
		cfg.ContinueOnError = *f.Crawl.ContinueOnError
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"crawl.retry_base_delay", f.Crawl.RetryBaseDelay, &cfg.RetryBaseDelay},
		{"crawl.retry_max_delay", f.Crawl.RetryMaxDelay, &cfg.RetryMaxDelay},
		{"crawl.timeout", f.Crawl.Timeout, &cfg.Timeout},
		{"session.validate_timeout", f.Session.ValidateTimeout, &cfg.ValidateTimeout},
		{"session.login_timeout", f.Session.LoginTimeout, &cfg.LoginTimeout},
		{"proxy.tor_startup_timeout", f.Proxy.TorStartupTimeout, &cfg.TorStartupTimeout},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key, d.value); err != nil {
			return err
		}
	}

	setString(&cfg.SessionFile, f.Session.File)
	setString(&cfg.BrowserBin, f.Session.BrowserBin)

	setString(&cfg.OutputDir, f.Output.Dir)
	if f.Output.JSONFile != nil {
		cfg.JSONFile = *f.Output.JSONFile
	}
	if f.Output.CSVFile != nil {
		cfg.CSVFile = *f.Output.CSVFile
	}
	setString(&cfg.SummaryFile, f.Output.SummaryFile)
	setString(&cfg.DBDir, f.Output.DBDir)
	if f.Output.SaveToDB != nil {
		cfg.SaveToDB = *f.Output.SaveToDB
	}
	setString(&cfg.Fingerprint, f.Output.Fingerprint)

	if f.Dedup.OnlyNew != nil {
		cfg.OnlyNew = *f.Dedup.OnlyNew
	}
	setString(&cfg.RedisAddr, f.Dedup.RedisAddr)
	setString(&cfg.RedisPassword, f.Dedup.RedisPassword)
	if f.Dedup.RedisDB != 0 {
		cfg.RedisDB = f.Dedup.RedisDB
	}
	setString(&cfg.RedisKey, f.Dedup.RedisKey)

	setString(&cfg.ProxyAddress, f.Proxy.Address)
	if f.Proxy.EmbeddedTor != nil {
		cfg.UseEmbeddedTor = *f.Proxy.EmbeddedTor
	}

	return nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDateWindow, s)
	}
	return t, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDate(dst *time.Time, key, v string) error {
	if v == "" {
		return nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = t
	return nil
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
