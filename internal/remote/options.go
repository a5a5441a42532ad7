package remote

import (
	"log/slog"
	"time"
)

// ModeStub labels the client returned when no backend is configured.
const ModeStub = "stub"

// Options selects and tunes a Client.
type Options struct {
	BaseURL          string
	Token            string
	CallTimeout      time.Duration
	JobTimeout       time.Duration
	MetadataCacheTTL time.Duration
	Logger           *slog.Logger
}

// New returns the client described by opts and a label for it: ModeStub when
// BaseURL is empty, otherwise the base URL. A positive MetadataCacheTTL wraps
// the HTTP client in a CachingClient.
func New(opts Options) (Client, string) {
	if opts.BaseURL == "" {
		return NewStubClient(opts.Logger), ModeStub
	}

	httpClient := NewHTTPClient(opts.BaseURL, opts.Token, opts.Logger)
	httpClient.SetTimeouts(opts.CallTimeout, opts.JobTimeout)

	if opts.MetadataCacheTTL > 0 {
		return NewCachingClient(httpClient, opts.MetadataCacheTTL, opts.Logger), httpClient.baseURL
	}
	return httpClient, httpClient.baseURL
}
