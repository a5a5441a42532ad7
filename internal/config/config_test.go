package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnv = []string{
	EnvPort, EnvLogLevel, EnvAPIToken, EnvHeadless,
	EnvRemoteBaseURL, EnvRemoteToken, EnvDownloadPlatform, EnvUploadPlatform,
	EnvCallTimeout, EnvJobTimeout, EnvMetadataCacheTTL,
}

// clearEnv blanks every CLIPPER_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allEnv {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel(), "info")
	}
	if cfg.APIToken() != "" {
		t.Errorf("APIToken = %q, want empty", cfg.APIToken())
	}
	if cfg.Headless() {
		t.Error("Headless = true, want false")
	}
	if cfg.RemoteEnabled() {
		t.Error("RemoteEnabled = true without base URL")
	}
	if cfg.DownloadPlatform() != "youtube" || cfg.UploadPlatform() != "vimeo" {
		t.Errorf("platforms = %q/%q, want youtube/vimeo", cfg.DownloadPlatform(), cfg.UploadPlatform())
	}
	if cfg.CallTimeout() != 60*time.Second {
		t.Errorf("CallTimeout = %v, want 60s", cfg.CallTimeout())
	}
	if cfg.JobTimeout() != 10*time.Minute {
		t.Errorf("JobTimeout = %v, want 10m", cfg.JobTimeout())
	}
	if cfg.MetadataCacheTTL() != 5*time.Minute {
		t.Errorf("MetadataCacheTTL = %v, want 5m", cfg.MetadataCacheTTL())
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvAPIToken, " secret-token ")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvRemoteBaseURL, "https://backend.example.com/")
	t.Setenv(EnvRemoteToken, "remote-token")
	t.Setenv(EnvDownloadPlatform, "vimeo")
	t.Setenv(EnvUploadPlatform, "youtube")
	t.Setenv(EnvCallTimeout, "5")
	t.Setenv(EnvJobTimeout, "30")
	t.Setenv(EnvMetadataCacheTTL, "0")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port())
	}
	if cfg.APIToken() != "secret-token" {
		t.Errorf("APIToken = %q, want %q", cfg.APIToken(), "secret-token")
	}
	if !cfg.Headless() {
		t.Error("Headless = false, want true")
	}
	if cfg.RemoteBaseURL() != "https://backend.example.com" {
		t.Errorf("RemoteBaseURL = %q, want trailing slash trimmed", cfg.RemoteBaseURL())
	}
	if !cfg.RemoteEnabled() {
		t.Error("RemoteEnabled = false with base URL set")
	}
	if cfg.DownloadPlatform() != "vimeo" || cfg.UploadPlatform() != "youtube" {
		t.Errorf("platforms = %q/%q, want vimeo/youtube", cfg.DownloadPlatform(), cfg.UploadPlatform())
	}
	if cfg.CallTimeout() != 5*time.Second {
		t.Errorf("CallTimeout = %v, want 5s", cfg.CallTimeout())
	}
	if cfg.JobTimeout() != 30*time.Second {
		t.Errorf("JobTimeout = %v, want 30s", cfg.JobTimeout())
	}
	if cfg.MetadataCacheTTL() != 0 {
		t.Errorf("MetadataCacheTTL = %v, want 0", cfg.MetadataCacheTTL())
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvHeadless, "maybe"},
		{EnvCallTimeout, "0"},
		{EnvJobTimeout, "-1"},
		{EnvMetadataCacheTTL, "5m"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.value)

			_, err := FromEnv()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.env) {
				t.Errorf("error %q does not name %s", err, tt.env)
			}
		})
	}
}

func TestNew_LoadsDotenvWithoutOverriding(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "warn")

	path := filepath.Join(t.TempDir(), "clipper.env")
	content := EnvRemoteBaseURL + "=https://from-dotenv.example.com\n" +
		EnvLogLevel + "=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg, err := New(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RemoteBaseURL() != "https://from-dotenv.example.com" {
		t.Errorf("RemoteBaseURL = %q, want value from dotenv", cfg.RemoteBaseURL())
	}
	if cfg.LogLevel() != "warn" {
		t.Errorf("LogLevel = %q, want environment value to win", cfg.LogLevel())
	}
}

func TestNew_MissingDotenvIgnored(t *testing.T) {
	clearEnv(t)

	if _, err := New(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
