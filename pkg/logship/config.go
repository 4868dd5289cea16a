package logship

import (
	"net/url"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/domain"
)

// DefaultInputURL is the ingestion URL the API key is appended to.
const DefaultInputURL = "https://api.logmatic.io/v1/input/"

// Default values applied by SetDefaults.
const (
	DefaultLinger         = app.DefaultLinger
	DefaultMaxPostCount   = app.DefaultMaxPostCount
	DefaultMaxContentSize = app.DefaultMaxContentSize
	DefaultBackoffBase    = app.DefaultBackoffBase
	DefaultBackoffMax     = app.DefaultBackoffMax
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultLevelKey       = domain.DefaultLevelKey
	DefaultErrorKey       = "err"
	Unbounded             = app.Unbounded
)

// Config holds the configuration of a Shipper.
// Start from DefaultConfig(): zero is a meaningful Linger and
// MaxWaitingCount, so SetDefaults leaves those untouched.
type Config struct {
	// APIKey is appended to DefaultInputURL. Ignored when Endpoint is set.
	APIKey string

	// Endpoint is the full ingestion URL. It overrides APIKey.
	Endpoint string

	// Linger is how long records wait for company before a flush.
	// Zero flushes on the next timer tick; negative takes DefaultLinger.
	Linger time.Duration

	// MaxPostCount caps the records per request. Values below 1 take
	// DefaultMaxPostCount.
	MaxPostCount int

	// MaxWaitingCount bounds the queue; the oldest records are evicted
	// beyond it. Any negative value (Unbounded) keeps every record.
	MaxWaitingCount int

	// MaxContentSize caps the bytes of records per request. A record larger
	// than the cap is replaced by a warning. Zero takes
	// DefaultMaxContentSize; negative disables the cap.
	MaxContentSize int

	// BackoffBase and BackoffMax bound the retry delay while sends fail.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// BackoffJitter spreads retry delays by ±BackoffJitter (0.2 = ±20%).
	BackoffJitter float64

	// HTTPTimeout bounds each request of the default HTTP client.
	// Negative disables the timeout.
	HTTPTimeout time.Duration

	// LevelKey is the record attribute holding the severity.
	LevelKey string

	// ErrorKey is the record attribute holding error details.
	ErrorKey string

	// IPTracking asks the backend to store the client IP under this
	// attribute. Empty disables it.
	IPTracking string

	// UserAgentTracking asks the backend to store the client user agent
	// under this attribute. Empty disables it.
	UserAgentTracking string

	// Compress gzips request bodies.
	Compress bool

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string

	// Metas are merged into every record.
	Metas map[string]any
}

// DefaultConfig returns a Config with default values.
// At minimum APIKey or Endpoint must be set before calling New.
func DefaultConfig() Config {
	return Config{
		Linger:          DefaultLinger,
		MaxPostCount:    DefaultMaxPostCount,
		MaxWaitingCount: Unbounded,
		MaxContentSize:  DefaultMaxContentSize,
		BackoffBase:     DefaultBackoffBase,
		BackoffMax:      DefaultBackoffMax,
		HTTPTimeout:     DefaultHTTPTimeout,
		LevelKey:        DefaultLevelKey,
		ErrorKey:        DefaultErrorKey,
	}
}

// SetDefaults fills unset fields with default values. A zero Linger or
// MaxWaitingCount is kept as configured.
func (c *Config) SetDefaults() {
	if c.Linger < 0 {
		c.Linger = DefaultLinger
	}
	if c.MaxPostCount < 1 {
		c.MaxPostCount = DefaultMaxPostCount
	}
	if c.MaxWaitingCount < 0 {
		c.MaxWaitingCount = Unbounded
	}
	if c.MaxContentSize == 0 {
		c.MaxContentSize = DefaultMaxContentSize
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.LevelKey == "" {
		c.LevelKey = DefaultLevelKey
	}
	if c.ErrorKey == "" {
		c.ErrorKey = DefaultErrorKey
	}
}

// Validate checks the configuration for errors.
// Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.APIKey == "" && c.Endpoint == "" {
		return ewrap.Wrap(domain.ErrInvalidConfig, "api key or endpoint is required")
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return ewrap.Wrap(domain.ErrInvalidConfig, "endpoint must be an absolute http(s) URL").
				WithMetadata("endpoint", c.Endpoint)
		}
	}
	if c.BackoffMax < c.BackoffBase {
		return ewrap.Wrapf(domain.ErrInvalidConfig, "backoff max %s is below backoff base %s", c.BackoffMax, c.BackoffBase)
	}
	if c.BackoffJitter < 0 || c.BackoffJitter >= 1 {
		return ewrap.Wrapf(domain.ErrInvalidConfig, "backoff jitter %v must be in [0, 1)", c.BackoffJitter)
	}
	return nil
}

// InputURL returns the URL batches are posted to.
func (c Config) InputURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultInputURL + url.PathEscape(c.APIKey)
}

// BulkOptions returns the batching parameters of the configuration.
func (c Config) BulkOptions() BulkOptions {
	return BulkOptions{
		Linger:          c.Linger,
		MaxPostCount:    c.MaxPostCount,
		MaxWaitingCount: c.MaxWaitingCount,
		MaxContentSize:  c.MaxContentSize,
	}
}

// BulkOptions are the batching parameters that can be changed while running
// with Shipper.SetBulkOptions.
type BulkOptions = app.BulkOptions

// DefaultBulkOptions returns the default batching parameters.
func DefaultBulkOptions() BulkOptions {
	return app.DefaultBulkOptions()
}
