package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/peermark/internal/banner"
)

// Default configuration values.
const (
	// DefaultServiceURL is the base URL of the comment service.
	DefaultServiceURL = "https://pubpeer.com"

	// DefaultClientTag identifies this client to the lookup service and is
	// used as utm_source and utm_campaign on every outbound link.
	DefaultClientTag = "Safari"

	// DefaultClientVersion is sent in every lookup request body.
	DefaultClientVersion = "0.3.3"

	// DefaultTimeout bounds a single lookup or page fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of pages annotated at once in batch mode.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "peermark"

	// DefaultUserAgent is sent with lookup requests and page fetches.
	DefaultUserAgent = "peermark/1.0 (+https://github.com/nao1215/peermark)"

	// DefaultMaxBodySize limits how much of a lookup response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultListenAddress is where `peermark serve` listens.
	DefaultListenAddress = "127.0.0.1:7878"

	// endpointPath is appended to the service URL to form the lookup endpoint.
	endpointPath = "/v3/publications"

	// devkeyPrefix is prepended to the client tag in the devkey parameter.
	devkeyPrefix = "PubMed"
)

// Config holds all configuration options for peermark.
// It is populated from CLI flags and the optional config file and passed
// through the application rather than kept in global state.
type Config struct {
	// ServiceURL is the base URL of the comment service. The lookup endpoint
	// and the multi-publication search link are derived from it.
	ServiceURL string

	// ClientTag identifies the client build ("Safari", "Chrome", ...).
	ClientTag string

	// ClientVersion is reported to the lookup service.
	ClientVersion string

	// Timeout is the timeout for each lookup request and page fetch.
	Timeout time.Duration

	// MaxBodySize is the maximum lookup response size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// DataDir is the directory holding the settings database.
	// Defaults to the XDG data directory (~/.local/share/peermark on Linux).
	DataDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// Concurrency is the number of pages processed at once in batch mode.
	Concurrency int

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty the report goes to stdout.
	ReportFile string

	// OutputDir receives the annotated HTML of every processed page.
	// When empty no HTML is written.
	OutputDir string

	// ShellAddress is the address of a running `peermark serve`. When set,
	// annotate announces each page to it and applies the reply, and host
	// preferences are read and written through it instead of the local
	// database.
	ShellAddress string

	// ListenAddress is the address `peermark serve` binds to.
	ListenAddress string

	// PageURL is the URL assigned to pages read from local files.
	PageURL string

	// Selectors overrides the ordered list of candidate container selectors.
	// Empty means the built-in list.
	Selectors []string

	// Shims is merged over the built-in banner shim table.
	Shims banner.ShimTable

	// Targets is the list of page URLs, files or globs to annotate.
	Targets []string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ServiceURL:    DefaultServiceURL,
		ClientTag:     DefaultClientTag,
		ClientVersion: DefaultClientVersion,
		Timeout:       DefaultTimeout,
		MaxBodySize:   DefaultMaxBodySize,
		UserAgent:     DefaultUserAgent,
		DataDir:       XDGDataDir(),
		Concurrency:   DefaultConcurrency,
		ListenAddress: DefaultListenAddress,
	}
}

// XDGDataDir returns the XDG data directory for peermark.
// On Linux: ~/.local/share/peermark
// On macOS: ~/Library/Application Support/peermark
// On Windows: %LOCALAPPDATA%\peermark
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for peermark.
// On Linux: ~/.config/peermark
// On macOS: ~/Library/Application Support/peermark
// On Windows: %APPDATA%\peermark
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Endpoint returns the lookup endpoint derived from ServiceURL and ClientTag,
// for example https://pubpeer.com/v3/publications?devkey=PubMedSafari.
func (c *Config) Endpoint() string {
	base := strings.TrimRight(c.ServiceURL, "/")
	return base + endpointPath + "?devkey=" + url.QueryEscape(devkeyPrefix+c.ClientTag)
}

// ServiceBase returns ServiceURL without a trailing slash.
func (c *Config) ServiceBase() string {
	return strings.TrimRight(c.ServiceURL, "/")
}

// ApplyFile overlays the settings from a config file. Flags that the user
// set explicitly are applied after this call by the caller.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.Service.URL != "" {
		c.ServiceURL = f.Service.URL
	}
	if f.Service.ClientTag != "" {
		c.ClientTag = f.Service.ClientTag
	}
	if f.Service.ClientVersion != "" {
		c.ClientVersion = f.Service.ClientVersion
	}
	if len(f.Selectors) > 0 {
		c.Selectors = append([]string(nil), f.Selectors...)
	}
	if len(f.Shims) > 0 {
		if c.Shims == nil {
			c.Shims = banner.ShimTable{}
		}
		c.Shims = c.Shims.Merge(f.Shims)
	}
}

// ShimTable returns the built-in shims with the configured ones merged over them.
func (c *Config) ShimTable() banner.ShimTable {
	return banner.DefaultShims().Merge(c.Shims)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.ValidateService()
}

// ValidateService checks everything except the targets. Subcommands that do
// not annotate pages (hosts, serve) use it directly.
func (c *Config) ValidateService() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServiceURL
	}

	if strings.TrimSpace(c.ClientTag) == "" {
		return ErrEmptyClientTag
	}

	return nil
}
