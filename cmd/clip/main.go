// Command clip creates a single clip from the terminal: it looks up the source
// video, asks for confirmation, submits the clip job and prints the resulting
// URL on stdout.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/crosswalk/clipper/internal/config"
	"github.com/crosswalk/clipper/internal/logging"
	"github.com/crosswalk/clipper/internal/orchestrator"
	"github.com/crosswalk/clipper/internal/remote"
	"github.com/crosswalk/clipper/internal/thumbnail"
	"github.com/crosswalk/clipper/internal/timecode"
	"github.com/crosswalk/clipper/internal/validate"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRejected = 3
)

var errRejected = errors.New("source rejected")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil))
}

type options struct {
	sourceID  string
	start     string
	end       string
	title     string
	thumbnail string
	quality   string
	download  bool
	yes       bool
	envFile   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("clip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.sourceID, "id", "", "source video id (required)")
	fs.StringVar(&opts.start, "start", "", "clip start, hh:mm:ss (required)")
	fs.StringVar(&opts.end, "end", "", "clip end, hh:mm:ss (required)")
	fs.StringVar(&opts.title, "title", "", "clip title (required)")
	fs.StringVar(&opts.thumbnail, "thumbnail", "", "path to a .jpg or .png thumbnail")
	fs.StringVar(&opts.quality, "quality", "", "quality label, defaults to the highest available")
	fs.BoolVar(&opts.download, "download", false, "request a download link as well")
	fs.BoolVar(&opts.yes, "yes", false, "skip the confirmation prompt")
	fs.StringVar(&opts.envFile, "env", config.DefaultDotenvFile, "dotenv file to load")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.sourceID == "" {
		return opts, errors.New("-id is required")
	}
	return opts, nil
}

// clientFactory builds the remote client; nil selects one from configuration.
type clientFactory func(cfg config.Config, logger *slog.Logger) remote.Client

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, newClient clientFactory) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "clip: %v\n", err)
		}
		return exitUsage
	}

	cfg, err := config.New(opts.envFile)
	if err != nil {
		fmt.Fprintf(stderr, "clip: failed to load config: %v\n", err)
		return exitUsage
	}

	logger := logging.NewLoggerTo(stderr, cfg.LogLevel())

	var client remote.Client
	if newClient != nil {
		client = newClient(cfg, logger)
	} else {
		var mode string
		client, mode = remote.New(remote.Options{
			BaseURL:     cfg.RemoteBaseURL(),
			Token:       cfg.RemoteToken(),
			CallTimeout: cfg.CallTimeout(),
			JobTimeout:  cfg.JobTimeout(),
			Logger:      logger,
		})
		if mode == remote.ModeStub {
			fmt.Fprintf(stderr, "clip: %s is not set, using the offline stub backend\n", config.EnvRemoteBaseURL)
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Client:           client,
		DownloadPlatform: cfg.DownloadPlatform(),
		UploadPlatform:   cfg.UploadPlatform(),
		Logger:           logger,
	})
	defer orch.Close()

	result, err := createClip(ctx, orch, opts, bufio.NewReader(stdin), stderr)
	switch {
	case err == nil:
	case errors.Is(err, errRejected):
		fmt.Fprintln(stderr, "clip: cancelled")
		return exitRejected
	case errors.Is(err, orchestrator.ErrValidation), errors.Is(err, orchestrator.ErrUnknownQuality),
		errors.Is(err, thumbnail.ErrUnsupportedType), errors.Is(err, thumbnail.ErrTooLarge),
		errors.Is(err, thumbnail.ErrEmpty):
		fmt.Fprintf(stderr, "clip: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "clip: %v\n", err)
		return exitFailure
	}

	fmt.Fprintln(stdout, result.UploadURL)
	if result.DownloadURL != "" {
		fmt.Fprintf(stderr, "download: %s\n", result.DownloadURL)
	}
	return exitOK
}

func createClip(ctx context.Context, orch *orchestrator.Orchestrator, opts options, in *bufio.Reader, prompt io.Writer) (*orchestrator.ClipJobResult, error) {
	var thumb *thumbnail.Thumbnail
	if opts.thumbnail != "" {
		loaded, err := thumbnail.Load(opts.thumbnail)
		if err != nil {
			return nil, err
		}
		thumb = &loaded
	}

	events, unsubscribe := orch.Subscribe(0)
	defer unsubscribe()

	if !validate.IsValidSourceID(opts.sourceID) {
		return nil, fmt.Errorf("%w: invalid source id %q", orchestrator.ErrValidation, opts.sourceID)
	}
	if err := orch.SetSourceID(opts.sourceID); err != nil {
		return nil, err
	}

	evt, err := awaitEvent(ctx, events, func(e orchestrator.Event) bool {
		return e.Type == orchestrator.EventStateChanged &&
			(e.State == orchestrator.StateAwaitingConfirmation || e.State == orchestrator.StateIdle)
	})
	if err != nil {
		return nil, err
	}
	if evt.State == orchestrator.StateIdle {
		return nil, fmt.Errorf("could not find video %q", opts.sourceID)
	}

	snap := orch.Snapshot()
	describe(prompt, snap.Metadata)

	if !opts.yes {
		ok, err := confirm(in, prompt, "Is this the right video? [y/N] ")
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := orch.Cancel(); err != nil {
				return nil, err
			}
			return nil, errRejected
		}
	}

	if err := orch.Confirm(); err != nil {
		return nil, err
	}

	update := orchestrator.FieldUpdate{
		StartTime:            &opts.start,
		EndTime:              &opts.end,
		Title:                &opts.title,
		DownloadOnCompletion: &opts.download,
	}
	if opts.quality != "" {
		update.Quality = &opts.quality
	}
	if err := orch.UpdateFields(update); err != nil {
		return nil, err
	}
	if err := orch.SetThumbnail(thumb); err != nil {
		return nil, err
	}

	submissionID, err := orch.Submit()
	if err != nil {
		return nil, err
	}

	start, _ := timecode.ParseSeconds(opts.start)
	end, _ := timecode.ParseSeconds(opts.end)
	fmt.Fprintf(prompt, "Creating a %s clip, this can take several minutes...\n", timecode.FormatSeconds(end-start))

	evt, err = awaitEvent(ctx, events, func(e orchestrator.Event) bool {
		return e.Type == orchestrator.EventJobFinished && e.SubmissionID == submissionID
	})
	if err != nil {
		return nil, err
	}
	if evt.Result == nil {
		return nil, errors.New("clip job failed")
	}
	return evt.Result, nil
}

func awaitEvent(ctx context.Context, events <-chan orchestrator.Event, match func(orchestrator.Event) bool) (orchestrator.Event, error) {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return orchestrator.Event{}, orchestrator.ErrClosed
			}
			if match(evt) {
				return evt, nil
			}
		case <-ctx.Done():
			return orchestrator.Event{}, ctx.Err()
		}
	}
}

func describe(w io.Writer, md *orchestrator.SourceVideoMetadata) {
	if md == nil {
		return
	}
	fmt.Fprintf(w, "Title:     %s\n", md.Title)
	fmt.Fprintf(w, "Author:    %s\n", md.Author)
	fmt.Fprintf(w, "Published: %s\n", md.PublishDate)
	if md.LengthSec > 0 {
		fmt.Fprintf(w, "Length:    %s\n", timecode.FormatSeconds(md.LengthSec))
	}
	if len(md.AvailableQualities) > 0 {
		fmt.Fprintf(w, "Qualities: %s\n", strings.Join(md.AvailableQualities, ", "))
	}
}

func confirm(in *bufio.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprint(w, question)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
