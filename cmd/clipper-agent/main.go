package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/crosswalk/clipper/internal/api"
	"github.com/crosswalk/clipper/internal/config"
	"github.com/crosswalk/clipper/internal/logging"
	"github.com/crosswalk/clipper/internal/orchestrator"
	"github.com/crosswalk/clipper/internal/remote"
	"github.com/crosswalk/clipper/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipper agent", "version", config.Version, "commit", config.GitCommit)

	authToken := cfg.APIToken()
	if authToken == "" {
		authToken, err = generateToken()
		if err != nil {
			return fmt.Errorf("failed to generate api token: %w", err)
		}
	}

	client, remoteMode := newRemoteClient(cfg, logger)

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                   CLIPPER AGENT v%-24s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Remote:     %-45s ║\n", remoteMode)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	orch := orchestrator.New(orchestrator.Config{
		Client:           client,
		DownloadPlatform: cfg.DownloadPlatform(),
		UploadPlatform:   cfg.UploadPlatform(),
		Logger:           logger,
	})

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Requests:   orch,
		APIToken:   authToken,
		RemoteMode: remoteMode,
		Version:    config.Version,
		Logger:     logger,
		StartTime:  startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		statusURL := fmt.Sprintf("http://127.0.0.1:%d/", cfg.Port())
		tray := ui.NewTray(ui.TrayConfig{
			Requests: orch,
			Logger:   logger,
			OnOpenStatusPage: func() {
				if err := openBrowser(statusURL); err != nil {
					logger.Warn("failed to open status page", "url", statusURL, "error", err)
				}
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Closing the orchestrator first ends open /events streams so Shutdown
	// does not wait on them.
	orch.Close()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func newRemoteClient(cfg config.Config, logger *slog.Logger) (remote.Client, string) {
	client, mode := remote.New(remote.Options{
		BaseURL:          cfg.RemoteBaseURL(),
		Token:            cfg.RemoteToken(),
		CallTimeout:      cfg.CallTimeout(),
		JobTimeout:       cfg.JobTimeout(),
		MetadataCacheTTL: cfg.MetadataCacheTTL(),
		Logger:           logger,
	})
	if mode == remote.ModeStub {
		logger.Warn("no remote backend configured, using stub client", "env", config.EnvRemoteBaseURL)
		return client, mode
	}

	logger.Info("remote backend enabled",
		"base_url", mode,
		"token", logging.SanitizeToken(cfg.RemoteToken()),
		"call_timeout", cfg.CallTimeout().String(),
		"job_timeout", cfg.JobTimeout().String(),
		"metadata_cache_ttl", cfg.MetadataCacheTTL().String(),
	)
	return client, mode
}

func generateToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
