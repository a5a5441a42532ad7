// Package config provides configuration management for the clipper agent and CLI.
// Configuration is loaded from environment variables with sensible defaults; a
// .env file, when present, fills in variables that are not already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort             = 8788
	DefaultLogLevel         = "info"
	DefaultDownloadPlatform = "youtube"
	DefaultUploadPlatform   = "vimeo"
	DefaultDotenvFile       = ".env"

	// Timeouts, in seconds
	DefaultCallTimeout      = 60
	DefaultJobTimeout       = 600
	DefaultMetadataCacheTTL = 300

	// Environment variable names
	EnvPort     = "CLIPPER_PORT"
	EnvLogLevel = "CLIPPER_LOG_LEVEL"
	EnvAPIToken = "CLIPPER_API_TOKEN"
	EnvHeadless = "CLIPPER_HEADLESS"

	// Remote backend environment variable names
	EnvRemoteBaseURL    = "CLIPPER_REMOTE_BASE_URL"
	EnvRemoteToken      = "CLIPPER_REMOTE_TOKEN"
	EnvDownloadPlatform = "CLIPPER_DOWNLOAD_PLATFORM"
	EnvUploadPlatform   = "CLIPPER_UPLOAD_PLATFORM"
	EnvCallTimeout      = "CLIPPER_CALL_TIMEOUT"
	EnvJobTimeout       = "CLIPPER_JOB_TIMEOUT"
	EnvMetadataCacheTTL = "CLIPPER_METADATA_CACHE_TTL"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	APIToken() string
	Headless() bool
	RemoteBaseURL() string
	RemoteToken() string
	RemoteEnabled() bool
	DownloadPlatform() string
	UploadPlatform() string
	CallTimeout() time.Duration
	JobTimeout() time.Duration
	MetadataCacheTTL() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	apiToken string
	headless bool

	remoteBaseURL    string
	remoteToken      string
	downloadPlatform string
	uploadPlatform   string

	callTimeout      time.Duration
	jobTimeout       time.Duration
	metadataCacheTTL time.Duration
}

// New loads the given dotenv files (DefaultDotenvFile when none are given),
// then builds an EnvConfig from the environment. Missing dotenv files are
// ignored; variables already set in the environment take precedence.
func New(dotenvFiles ...string) (*EnvConfig, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{DefaultDotenvFile}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return FromEnv()
}

// FromEnv creates a new EnvConfig with defaults and environment variable overrides
func FromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:             DefaultPort,
		logLevel:         DefaultLogLevel,
		downloadPlatform: DefaultDownloadPlatform,
		uploadPlatform:   DefaultUploadPlatform,
		callTimeout:      DefaultCallTimeout * time.Second,
		jobTimeout:       DefaultJobTimeout * time.Second,
		metadataCacheTTL: DefaultMetadataCacheTTL * time.Second,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	cfg.apiToken = strings.TrimSpace(os.Getenv(EnvAPIToken))

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.remoteBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv(EnvRemoteBaseURL)), "/")
	cfg.remoteToken = strings.TrimSpace(os.Getenv(EnvRemoteToken))

	if dp := os.Getenv(EnvDownloadPlatform); dp != "" {
		cfg.downloadPlatform = dp
	}
	if up := os.Getenv(EnvUploadPlatform); up != "" {
		cfg.uploadPlatform = up
	}

	var err error
	if cfg.callTimeout, err = secondsFromEnv(EnvCallTimeout, cfg.callTimeout, false); err != nil {
		return nil, err
	}
	if cfg.jobTimeout, err = secondsFromEnv(EnvJobTimeout, cfg.jobTimeout, false); err != nil {
		return nil, err
	}
	// A zero TTL disables metadata caching.
	if cfg.metadataCacheTTL, err = secondsFromEnv(EnvMetadataCacheTTL, cfg.metadataCacheTTL, true); err != nil {
		return nil, err
	}

	return cfg, nil
}

func secondsFromEnv(name string, def time.Duration, allowZero bool) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n < 0 || (n == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be a positive number of seconds", name)
	}
	return time.Duration(n) * time.Second, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// APIToken returns the bearer token guarding the local API, or "" when one
// should be generated at startup.
func (c *EnvConfig) APIToken() string {
	return c.apiToken
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) RemoteBaseURL() string {
	return c.remoteBaseURL
}

func (c *EnvConfig) RemoteToken() string {
	return c.remoteToken
}

// RemoteEnabled reports whether a backend is configured. Without one the
// stub client is used.
func (c *EnvConfig) RemoteEnabled() bool {
	return c.remoteBaseURL != ""
}

func (c *EnvConfig) DownloadPlatform() string {
	return c.downloadPlatform
}

func (c *EnvConfig) UploadPlatform() string {
	return c.uploadPlatform
}

func (c *EnvConfig) CallTimeout() time.Duration {
	return c.callTimeout
}

func (c *EnvConfig) JobTimeout() time.Duration {
	return c.jobTimeout
}

func (c *EnvConfig) MetadataCacheTTL() time.Duration {
	return c.metadataCacheTTL
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
