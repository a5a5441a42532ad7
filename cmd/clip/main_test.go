package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/crosswalk/clipper/internal/config"
	"github.com/crosswalk/clipper/internal/remote"
)

type recordingClient struct {
	*remote.StubClient

	mu        sync.Mutex
	submitted []remote.ClipJobRequest
	jobErr    error
}

func (c *recordingClient) SubmitClipJob(ctx context.Context, req remote.ClipJobRequest) (*remote.ClipJobResult, error) {
	c.mu.Lock()
	c.submitted = append(c.submitted, req)
	c.mu.Unlock()
	if c.jobErr != nil {
		return nil, c.jobErr
	}
	return &remote.ClipJobResult{UploadURL: "https://dest/x", DownloadURL: "https://dest/x.mp4"}, nil
}

func runClip(t *testing.T, client *recordingClient, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.EnvLogLevel, "error")

	envFile := filepath.Join(t.TempDir(), "absent.env")
	args = append([]string{"-env", envFile}, args...)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr,
		func(cfg config.Config, logger *slog.Logger) remote.Client {
			client.StubClient = remote.NewStubClient(logger)
			return client
		})
	return code, stdout.String(), stderr.String()
}

func TestRun_ConfirmedClip(t *testing.T) {
	client := &recordingClient{}
	code, stdout, stderr := runClip(t, client, "y\n",
		"-id", "abc123", "-start", "00:01:00", "-end", "00:02:30", "-title", "Intro", "-download")

	if code != exitOK {
		t.Fatalf("exit code = %d, want %d (stderr %s)", code, exitOK, stderr)
	}
	if strings.TrimSpace(stdout) != "https://dest/x" {
		t.Errorf("stdout = %q, want the upload URL", stdout)
	}
	if !strings.Contains(stderr, "Title:     Stub video abc123") {
		t.Errorf("stderr does not describe the video: %s", stderr)
	}
	if !strings.Contains(stderr, "download: https://dest/x.mp4") {
		t.Errorf("stderr does not show the download URL: %s", stderr)
	}

	if len(client.submitted) != 1 {
		t.Fatalf("submitted %d jobs, want 1", len(client.submitted))
	}
	req := client.submitted[0]
	if req.StartTimeSec != 60 || req.EndTimeSec != 150 {
		t.Errorf("range = %d..%d, want 60..150", req.StartTimeSec, req.EndTimeSec)
	}
	if req.Quality != "1080p" || !req.DownloadOnCompletion {
		t.Errorf("quality/download = %q/%v, want 1080p/true", req.Quality, req.DownloadOnCompletion)
	}
}

func TestRun_RejectedAtPrompt(t *testing.T) {
	client := &recordingClient{}
	code, stdout, _ := runClip(t, client, "n\n",
		"-id", "abc123", "-start", "00:01:00", "-end", "00:02:30", "-title", "Intro")

	if code != exitRejected {
		t.Fatalf("exit code = %d, want %d", code, exitRejected)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if len(client.submitted) != 0 {
		t.Errorf("submitted %d jobs after rejection, want 0", len(client.submitted))
	}
}

func TestRun_YesSkipsPromptAndUsesThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600); err != nil {
		t.Fatalf("write thumbnail: %v", err)
	}

	client := &recordingClient{}
	code, _, stderr := runClip(t, client, "",
		"-id", "abc123", "-start", "10", "-end", "01:00", "-title", "Intro",
		"-thumbnail", path, "-quality", "720p", "-yes")

	if code != exitOK {
		t.Fatalf("exit code = %d, want %d (stderr %s)", code, exitOK, stderr)
	}
	req := client.submitted[0]
	if !strings.HasPrefix(req.ThumbnailObjectKey, "stub-") {
		t.Errorf("ThumbnailObjectKey = %q, want stub key", req.ThumbnailObjectKey)
	}
	if req.Quality != "720p" {
		t.Errorf("Quality = %q, want 720p", req.Quality)
	}
	if req.StartTimeSec != 10 || req.EndTimeSec != 60 {
		t.Errorf("range = %d..%d, want 10..60", req.StartTimeSec, req.EndTimeSec)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing id", []string{"-start", "00:00:01", "-end", "00:00:02", "-title", "t"}},
		{"invalid id", []string{"-id", "bad id", "-start", "00:00:01", "-end", "00:00:02", "-title", "t", "-yes"}},
		{"missing title", []string{"-id", "abc123", "-start", "00:00:01", "-end", "00:00:02", "-yes"}},
		{"end before start", []string{"-id", "abc123", "-start", "00:00:05", "-end", "00:00:02", "-title", "t", "-yes"}},
		{"unknown quality", []string{"-id", "abc123", "-start", "00:00:01", "-end", "00:00:02", "-title", "t", "-quality", "8K", "-yes"}},
		{"stray argument", []string{"-id", "abc123", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &recordingClient{}
			code, _, _ := runClip(t, client, "", tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if len(client.submitted) != 0 {
				t.Errorf("submitted %d jobs, want 0", len(client.submitted))
			}
		})
	}
}

func TestRun_JobFailure(t *testing.T) {
	client := &recordingClient{jobErr: errors.New("backend down")}
	code, stdout, stderr := runClip(t, client, "",
		"-id", "abc123", "-start", "00:00:01", "-end", "00:00:02", "-title", "t", "-yes")

	if code != exitFailure {
		t.Fatalf("exit code = %d, want %d", code, exitFailure)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "clip job failed") {
		t.Errorf("stderr = %q, want job failure message", stderr)
	}
}
