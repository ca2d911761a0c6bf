package config

import (
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/forumscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "forumscan"

	// DefaultBaseURL is the Discourse instance crawled by default.
	DefaultBaseURL = "https://discourse.onlinedegree.iitm.ac.in"

	// DefaultCategoryPath and DefaultCategoryID select the knowledge-base category.
	DefaultCategoryPath = "courses/tds-kb"
	DefaultCategoryID   = 34

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultValidateTimeout bounds the single session validation request.
	DefaultValidateTimeout = 10 * time.Second

	// DefaultLoginTimeout bounds the interactive login.
	DefaultLoginTimeout = 5 * time.Minute

	// DefaultConcurrency is the number of topics fetched at once.
	DefaultConcurrency = 4

	// DefaultRateLimit is the request budget per second shared by all workers.
	DefaultRateLimit = 4.0

	// DefaultRateBurst allows a short burst above the steady rate.
	DefaultRateBurst = 2

	// DefaultMaxRetries is the number of retries for transient failures.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay and DefaultRetryMaxDelay bound exponential backoff.
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay  = 10 * time.Second

	// DefaultMaxBodySize limits how much of one response is read.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

	// DefaultUserAgent identifies forumscan in HTTP requests.
	DefaultUserAgent = "forumscan/1.0 (+https://github.com/nao1215/forumscan)"

	// DefaultFingerprint is the content fingerprint algorithm.
	DefaultFingerprint = "sha256"

	// DefaultJSONFile and DefaultCSVFile are the record output file names.
	DefaultJSONFile = "discourse_posts.json"
	DefaultCSVFile  = "discourse_posts.csv"

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// SessionFileName is the session file inside the XDG state directory.
	SessionFileName = "session.json"
)

// DefaultDateFrom and DefaultDateTo bound the default topic window.
var (
	DefaultDateFrom = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	DefaultDateTo   = time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)
)

// Config holds all configuration options for forumscan.
//
// Design decision: We use a single flat struct populated from defaults,
// the config file and CLI flags, and pass it explicitly instead of using
// global state.
type Config struct {
	// BaseURL is the forum origin, for example https://forum.example.com.
	BaseURL string

	// CategoryPath and CategoryID select the listed category.
	CategoryPath string
	CategoryID   int64

	// DateFrom and DateTo bound topic creation time, both inclusive.
	DateFrom time.Time
	DateTo   time.Time

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// ValidateTimeout bounds the session validation request.
	ValidateTimeout time.Duration

	// LoginTimeout bounds the interactive browser login.
	LoginTimeout time.Duration

	// Concurrency is the number of topics processed at once.
	Concurrency int

	// RateLimit is the number of requests per second across all workers.
	// Zero disables limiting.
	RateLimit float64

	// RateBurst is the number of requests allowed above the steady rate.
	RateBurst int

	// MaxRetries is the number of retries for transient request failures.
	MaxRetries int

	// RetryBaseDelay and RetryMaxDelay bound exponential backoff.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// MaxListingPages stops pagination early. Zero means no limit.
	MaxListingPages int

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// ContinueOnError skips failed topics instead of aborting the run.
	ContinueOnError bool

	// UserAgent is the User-Agent header sent with API requests.
	UserAgent string

	// Fingerprint is the content fingerprint algorithm (sha256 or sha3-256).
	Fingerprint string

	// OutputDir receives the record files.
	OutputDir string

	// JSONFile and CSVFile are the record file names inside OutputDir.
	// An empty name disables that output.
	JSONFile string
	CSVFile  string

	// SummaryFile is an optional Markdown run summary path.
	SummaryFile string

	// SessionFile is where the authenticated session is persisted.
	SessionFile string

	// BrowserBin is an optional browser executable for the login.
	BrowserBin string

	// DBDir is the directory of the run database.
	DBDir string

	// SaveToDB stores every run in the run database.
	SaveToDB bool

	// OnlyNew emits only records whose fingerprint was not seen before.
	OnlyNew bool

	// RedisAddr switches the fingerprint index to Redis when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// ProxyAddress routes API requests and the login browser through a
	// SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseEmbeddedTor starts an embedded Tor daemon and routes traffic through it.
	UseEmbeddedTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor daemon.
	TorStartupTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		CategoryPath:      DefaultCategoryPath,
		CategoryID:        DefaultCategoryID,
		DateFrom:          DefaultDateFrom,
		DateTo:            DefaultDateTo,
		Timeout:           DefaultTimeout,
		ValidateTimeout:   DefaultValidateTimeout,
		LoginTimeout:      DefaultLoginTimeout,
		Concurrency:       DefaultConcurrency,
		RateLimit:         DefaultRateLimit,
		RateBurst:         DefaultRateBurst,
		MaxRetries:        DefaultMaxRetries,
		RetryBaseDelay:    DefaultRetryBaseDelay,
		RetryMaxDelay:     DefaultRetryMaxDelay,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		Fingerprint:       DefaultFingerprint,
		OutputDir:         ".",
		JSONFile:          DefaultJSONFile,
		CSVFile:           DefaultCSVFile,
		SessionFile:       filepath.Join(XDGStateDir(), SessionFileName),
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// Window returns the topic creation window.
func (c *Config) Window() model.DateWindow {
	return model.DateWindow{From: c.DateFrom, To: c.DateTo}
}

// CategoryURL returns the listing URL used for session validation.
func (c *Config) CategoryURL() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.JoinPath("c", c.CategoryPath, strconv.FormatInt(c.CategoryID, 10)+".json").String()
}

// XDGDataDir returns the XDG data directory for forumscan.
// On Linux: ~/.local/share/forumscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for forumscan.
// On Linux: ~/.config/forumscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for forumscan, where the
// session is kept.
// On Linux: ~/.local/state/forumscan
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.CategoryPath == "" || c.CategoryID <= 0 {
		return ErrInvalidCategory
	}

	if !c.DateFrom.IsZero() && !c.DateTo.IsZero() && c.DateFrom.After(c.DateTo) {
		return ErrInvalidDateWindow
	}

	if c.Timeout <= 0 || c.ValidateTimeout <= 0 || c.LoginTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.RateLimit < 0 || c.RateBurst < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxRetries < 0 || c.RetryBaseDelay < 0 || c.RetryMaxDelay < 0 {
		return ErrInvalidRetries
	}

	switch c.Fingerprint {
	case "", "sha256", "sha3-256":
	default:
		return ErrInvalidFingerprint
	}

	if c.ProxyAddress != "" && c.UseEmbeddedTor {
		return ErrConflictingProxy
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
