package remote

import (
	"testing"
	"time"
)

func TestNew_SelectsClient(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantMode  string
		wantCache bool
		wantStub  bool
	}{
		{
			name:     "no base url",
			opts:     Options{},
			wantMode: ModeStub,
			wantStub: true,
		},
		{
			name:     "http without cache",
			opts:     Options{BaseURL: "https://backend.example.com/"},
			wantMode: "https://backend.example.com",
		},
		{
			name:      "http with cache",
			opts:      Options{BaseURL: "https://backend.example.com", MetadataCacheTTL: time.Minute},
			wantMode:  "https://backend.example.com",
			wantCache: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = testLogger()
			client, mode := New(tt.opts)

			if mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", mode, tt.wantMode)
			}
			_, isStub := client.(*StubClient)
			if isStub != tt.wantStub {
				t.Errorf("stub = %v, want %v", isStub, tt.wantStub)
			}
			_, isCache := client.(*CachingClient)
			if isCache != tt.wantCache {
				t.Errorf("caching = %v, want %v", isCache, tt.wantCache)
			}
		})
	}
}

func TestNew_AppliesTimeouts(t *testing.T) {
	client, _ := New(Options{
		BaseURL:     "https://backend.example.com",
		CallTimeout: 3 * time.Second,
		JobTimeout:  time.Minute,
		Logger:      testLogger(),
	})

	hc, ok := client.(*HTTPClient)
	if !ok {
		t.Fatalf("client = %T, want *HTTPClient", client)
	}
	if hc.callTimeout != 3*time.Second || hc.jobTimeout != time.Minute {
		t.Errorf("timeouts = %v/%v, want 3s/1m", hc.callTimeout, hc.jobTimeout)
	}
}
