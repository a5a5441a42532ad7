package ui

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/crosswalk/clipper/internal/orchestrator"
)

// RequestSource is the orchestrator surface the tray mirrors.
type RequestSource interface {
	Snapshot() orchestrator.Snapshot
	Subscribe(buffer int) (<-chan orchestrator.Event, func())
	Cancel() error
}

type Tray struct {
	requests RequestSource
	logger   *slog.Logger

	statusItem   *systray.MenuItem
	sourceItem   *systray.MenuItem
	lastClipItem *systray.MenuItem
	cancelItem   *systray.MenuItem

	mu sync.Mutex

	onOpenStatusPage func()
	onQuit           func()
}

type TrayConfig struct {
	Requests         RequestSource
	Logger           *slog.Logger
	OnOpenStatusPage func()
	OnQuit           func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		requests:         cfg.Requests,
		logger:           cfg.Logger,
		onOpenStatusPage: cfg.OnOpenStatusPage,
		onQuit:           cfg.OnQuit,
	}
}

// Run blocks until the tray exits.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Clipper")
	systray.SetTooltip("Clipper Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current request status")
	t.statusItem.Disable()

	t.sourceItem = systray.AddMenuItem("Source: none", "Source video id")
	t.sourceItem.Disable()

	t.lastClipItem = systray.AddMenuItem("Last clip: none", "Destination of the last clip")
	t.lastClipItem.Disable()

	systray.AddSeparator()

	t.cancelItem = systray.AddMenuItem("Cancel Lookup", "Reject the pending source")
	t.cancelItem.Disable()

	openItem := systray.AddMenuItem("Open Status Page", "Show the request in a browser")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Clipper Agent")

	events, unsubscribe := t.requests.Subscribe(0)
	t.apply(viewOf(t.requests.Snapshot()))

	go func() {
		defer unsubscribe()
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return
				}
				t.apply(viewOf(t.requests.Snapshot()))
			case <-t.cancelItem.ClickedCh:
				if err := t.requests.Cancel(); err != nil {
					t.logger.Warn("cancel from tray failed", "error", err)
				}
			case <-openItem.ClickedCh:
				if t.onOpenStatusPage != nil {
					t.onOpenStatusPage()
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) apply(v trayView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.statusItem.SetTitle(v.status)
	t.sourceItem.SetTitle(v.source)
	t.lastClipItem.SetTitle(v.lastClip)
	if v.cancellable {
		t.cancelItem.Enable()
	} else {
		t.cancelItem.Disable()
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}

type trayView struct {
	status      string
	source      string
	lastClip    string
	cancellable bool
}

const maxMenuTitle = 48

func viewOf(s orchestrator.Snapshot) trayView {
	v := trayView{
		status:      "Status: " + stateLabel(s.State),
		source:      "Source: none",
		lastClip:    "Last clip: none",
		cancellable: s.State == orchestrator.StateLookingUp || s.State == orchestrator.StateAwaitingConfirmation,
	}
	if s.SubmissionInFlight && s.State != orchestrator.StateSubmitting {
		v.status += " (finishing previous job)"
	}
	if s.SourceID != "" {
		v.source = "Source: " + s.SourceID
		if s.Metadata != nil && s.Metadata.Title != "" {
			v.source += " - " + s.Metadata.Title
		}
	}
	if s.LastResult != nil && s.LastResult.UploadURL != "" {
		v.lastClip = "Last clip: " + s.LastResult.UploadURL
	}

	v.source = truncate(v.source, maxMenuTitle)
	v.lastClip = truncate(v.lastClip, maxMenuTitle)
	return v
}

func stateLabel(s orchestrator.State) string {
	switch s {
	case orchestrator.StateIdle:
		return "Idle"
	case orchestrator.StateLookingUp:
		return "Looking up source"
	case orchestrator.StateAwaitingConfirmation:
		return "Awaiting confirmation"
	case orchestrator.StateReady:
		return "Ready"
	case orchestrator.StateSubmitting:
		return "Creating clip"
	default:
		return string(s)
	}
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes-3]) + "..."
}
