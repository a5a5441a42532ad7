// Package orchestrator drives a single clip request from source lookup through
// confirmation, validation, thumbnail upload and job submission.
//
// All state lives behind one mutex. Remote calls run on goroutines tagged with
// the generation that issued them; a completion whose generation no longer
// matches is discarded, and changing the source id or cancelling cancels the
// outstanding call's context.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crosswalk/clipper/internal/logging"
	"github.com/crosswalk/clipper/internal/remote"
	"github.com/crosswalk/clipper/internal/thumbnail"
	"github.com/crosswalk/clipper/internal/timecode"
	"github.com/crosswalk/clipper/internal/validate"
)

var (
	ErrInvalidTransition  = errors.New("operation not allowed in current state")
	ErrInputsDisabled     = errors.New("clip inputs are disabled")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrValidation         = errors.New("clip request is invalid")
	ErrUnknownQuality     = errors.New("quality not offered for this source")
	ErrClosed             = errors.New("orchestrator is closed")
)

const (
	DefaultDownloadPlatform = "youtube"
	DefaultUploadPlatform   = "vimeo"
)

// Config holds the collaborators of an Orchestrator.
type Config struct {
	Client           remote.Client
	DownloadPlatform string
	UploadPlatform   string
	Logger           *slog.Logger
}

// Orchestrator owns the clip request lifecycle. It is safe for concurrent use.
type Orchestrator struct {
	client           remote.Client
	downloadPlatform string
	uploadPlatform   string
	logger           *slog.Logger
	events           *hub

	baseCtx    context.Context
	baseCancel context.CancelFunc
	tasks      sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	state      State
	sourceID   string
	metadata   *SourceVideoMetadata
	fields     clipFields
	lastResult *ClipJobResult

	generation uint64
	cancelTask context.CancelFunc

	// submitting stays set until the submission goroutine returns, even when
	// the submission was preempted by a source change.
	submitting bool
}

type clipFields struct {
	startTime string
	endTime   string
	title     string
	thumbnail *thumbnail.Thumbnail
	quality   string
	download  bool
}

// New returns an Orchestrator in StateIdle.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithComponent(logger, "orchestrator")

	downloadPlatform := cfg.DownloadPlatform
	if downloadPlatform == "" {
		downloadPlatform = DefaultDownloadPlatform
	}
	uploadPlatform := cfg.UploadPlatform
	if uploadPlatform == "" {
		uploadPlatform = DefaultUploadPlatform
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		client:           cfg.Client,
		downloadPlatform: downloadPlatform,
		uploadPlatform:   uploadPlatform,
		logger:           logger,
		events:           newHub(logger),
		baseCtx:          ctx,
		baseCancel:       cancel,
		state:            StateIdle,
	}
}

// Subscribe returns a channel receiving every event published after the call
// and a function that detaches it. The channel is closed on detach or Close.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Event, func()) {
	return o.events.subscribe(buffer)
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns a copy of the observable state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		State:                o.state,
		SourceID:             o.sourceID,
		Metadata:             o.metadata.clone(),
		StartTime:            o.fields.startTime,
		EndTime:              o.fields.endTime,
		Title:                o.fields.title,
		Quality:              o.fields.quality,
		DownloadOnCompletion: o.fields.download,
		InputsEnabled:        o.inputsEnabledLocked(),
		SubmissionInFlight:   o.submitting,
	}
	if o.fields.thumbnail != nil {
		snap.ThumbnailName = o.fields.thumbnail.Name
	}
	if o.lastResult != nil {
		result := *o.lastResult
		snap.LastResult = &result
	}
	return snap
}

// SetSourceID replaces the source id. Any outstanding remote call is
// cancelled and its result will be ignored, and every dependent field is
// cleared. A valid id starts a metadata lookup; an invalid one returns the
// orchestrator to StateIdle without any remote call.
//
// Setting the id already held is a no-op unless the orchestrator is idle, so
// re-entering an id after a failed lookup retries it.
func (o *Orchestrator) SetSourceID(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if id == o.sourceID && o.state != StateIdle {
		return nil
	}

	o.abortTaskLocked()
	o.sourceID = id
	o.metadata = nil
	o.fields = clipFields{}
	o.lastResult = nil

	if !validate.IsValidSourceID(id) {
		o.transitionLocked(StateIdle)
		return nil
	}

	o.transitionLocked(StateLookingUp)

	gen := o.generation
	ctx, cancel := context.WithCancel(o.baseCtx)
	o.cancelTask = cancel

	o.tasks.Add(1)
	go o.lookup(ctx, gen, id)
	return nil
}

func (o *Orchestrator) lookup(ctx context.Context, gen uint64, id string) {
	defer o.tasks.Done()

	logger := logging.WithGeneration(logging.WithSourceID(o.logger, id), gen)
	logger.Debug("metadata lookup started", "platform", o.downloadPlatform)

	md, err := o.client.FetchMetadata(ctx, o.downloadPlatform, id)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation || o.state != StateLookingUp {
		logger.Debug("stale metadata result dropped", "current_generation", o.generation)
		return
	}
	o.releaseTaskLocked()

	if err != nil || md == nil {
		logger.Warn("metadata lookup failed", "error", err, "kind", remote.KindOf(err).String())
		o.metadata = nil
		o.fields = clipFields{}
		o.transitionLocked(StateIdle)
		return
	}

	o.metadata = metadataFromRemote(md, id)
	o.fields.quality = o.metadata.HighestQuality()
	logger.Info("metadata received",
		"title", o.metadata.Title,
		"qualities", len(o.metadata.AvailableQualities),
	)
	o.publishLocked(Event{Type: EventMetadataReady, Metadata: o.metadata.clone()})
	o.transitionLocked(StateAwaitingConfirmation)
}

// Confirm accepts the fetched metadata and enables the clip inputs.
func (o *Orchestrator) Confirm() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.state != StateAwaitingConfirmation {
		return fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, o.state)
	}
	o.transitionLocked(StateReady)
	return nil
}

// Cancel rejects the fetched metadata, or abandons a lookup still in
// progress, and returns to StateIdle with every dependent field cleared. The
// source id itself is kept.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	switch o.state {
	case StateAwaitingConfirmation, StateLookingUp:
	default:
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, o.state)
	}

	o.abortTaskLocked()
	o.metadata = nil
	o.fields = clipFields{}
	o.transitionLocked(StateIdle)
	return nil
}

// SetStartTime stores the clip start as typed; it is validated on Submit.
func (o *Orchestrator) SetStartTime(s string) error {
	return o.editFields(func(f *clipFields) error {
		f.startTime = s
		return nil
	})
}

// SetEndTime stores the clip end as typed; it is validated on Submit.
func (o *Orchestrator) SetEndTime(s string) error {
	return o.editFields(func(f *clipFields) error {
		f.endTime = s
		return nil
	})
}

func (o *Orchestrator) SetTitle(s string) error {
	return o.editFields(func(f *clipFields) error {
		f.title = s
		return nil
	})
}

func (o *Orchestrator) SetThumbnail(t *thumbnail.Thumbnail) error {
	return o.editFields(func(f *clipFields) error {
		f.thumbnail = t
		return nil
	})
}

func (o *Orchestrator) ClearThumbnail() error {
	return o.SetThumbnail(nil)
}

func (o *Orchestrator) SetDownloadOnCompletion(download bool) error {
	return o.editFields(func(f *clipFields) error {
		f.download = download
		return nil
	})
}

// SetQuality selects one of the qualities the source offers. When the
// platform reported no qualities any label is accepted.
func (o *Orchestrator) SetQuality(q string) error {
	return o.editFields(func(f *clipFields) error {
		return o.setQualityLocked(f, q)
	})
}

// FieldUpdate carries the clip fields to change; nil fields are left alone.
type FieldUpdate struct {
	StartTime            *string
	EndTime              *string
	Title                *string
	Quality              *string
	DownloadOnCompletion *bool
}

// UpdateFields applies every field in u or, on error, none of them.
func (o *Orchestrator) UpdateFields(u FieldUpdate) error {
	return o.editFields(func(f *clipFields) error {
		if u.Quality != nil {
			if err := o.setQualityLocked(f, *u.Quality); err != nil {
				return err
			}
		}
		if u.StartTime != nil {
			f.startTime = *u.StartTime
		}
		if u.EndTime != nil {
			f.endTime = *u.EndTime
		}
		if u.Title != nil {
			f.title = *u.Title
		}
		if u.DownloadOnCompletion != nil {
			f.download = *u.DownloadOnCompletion
		}
		return nil
	})
}

func (o *Orchestrator) setQualityLocked(f *clipFields, q string) error {
	if len(o.metadata.AvailableQualities) > 0 && !o.metadata.hasQuality(q) {
		return fmt.Errorf("%w: %q", ErrUnknownQuality, q)
	}
	f.quality = q
	return nil
}

// editFields runs edit on a copy of the fields and stores it only if edit
// succeeds.
func (o *Orchestrator) editFields(edit func(*clipFields) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if !o.state.InputsEnabled() {
		return fmt.Errorf("%w: state is %s", ErrInputsDisabled, o.state)
	}
	if o.submitting {
		return fmt.Errorf("%w: fields are locked until it returns", ErrSubmissionInFlight)
	}

	next := o.fields
	if err := edit(&next); err != nil {
		return err
	}
	o.fields = next
	return nil
}

// inputsEnabledLocked reports whether the clip fields accept edits.
func (o *Orchestrator) inputsEnabledLocked() bool {
	return !o.closed && o.state.InputsEnabled() && !o.submitting
}

// Submit validates the clip fields and, if they pass, starts the submission
// in the background and returns its id. Validation failures leave the state
// unchanged, publish EventValidationFailed and wrap ErrValidation together
// with the validate package's sentinels.
func (o *Orchestrator) Submit() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return "", ErrClosed
	}
	if o.state != StateReady {
		return "", fmt.Errorf("%w: submit from %s", ErrInvalidTransition, o.state)
	}
	if o.submitting {
		return "", ErrSubmissionInFlight
	}

	f := o.fields
	if err := validate.ValidateSubmission(f.startTime, f.endTime, f.title); err != nil {
		problems := problemList(err)
		o.logger.Info("submission blocked by validation",
			"source_id", o.sourceID,
			"problems", problems,
		)
		o.publishLocked(Event{Type: EventValidationFailed, Problems: problems})
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	start, err := timecode.ParseSeconds(f.startTime)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	end, err := timecode.ParseSeconds(f.endTime)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	req := ClipRequest{
		SourceID:             o.sourceID,
		StartTimeSec:         start,
		EndTimeSec:           end,
		Title:                f.title,
		Thumbnail:            f.thumbnail,
		Quality:              f.quality,
		DownloadOnCompletion: f.download,
	}

	o.generation++
	gen := o.generation
	ctx, cancel := context.WithCancel(o.baseCtx)
	o.cancelTask = cancel
	o.submitting = true
	o.lastResult = nil

	submissionID := uuid.NewString()
	o.transitionLocked(StateSubmitting)

	o.tasks.Add(1)
	go o.submit(ctx, gen, submissionID, req)
	return submissionID, nil
}

func (o *Orchestrator) submit(ctx context.Context, gen uint64, submissionID string, req ClipRequest) {
	defer o.tasks.Done()

	logger := logging.WithGeneration(
		logging.WithSubmissionID(logging.WithSourceID(o.logger, req.SourceID), submissionID),
		gen,
	)
	started := time.Now()

	objectKey := o.uploadThumbnail(ctx, logger, req.Thumbnail)

	var (
		result *remote.ClipJobResult
		err    error
	)
	if ctx.Err() != nil {
		err = ctx.Err()
	} else {
		result, err = o.client.SubmitClipJob(ctx, remote.ClipJobRequest{
			DownloadPlatform:     o.downloadPlatform,
			UploadPlatform:       o.uploadPlatform,
			SourceID:             req.SourceID,
			StartTimeSec:         req.StartTimeSec,
			EndTimeSec:           req.EndTimeSec,
			ThumbnailObjectKey:   objectKey,
			Quality:              req.Quality,
			Title:                req.Title,
			DownloadOnCompletion: req.DownloadOnCompletion,
		})
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.submitting = false

	if gen != o.generation || o.state != StateSubmitting {
		logger.Info("preempted submission finished", "error", err)
		return
	}
	o.releaseTaskLocked()

	var out *ClipJobResult
	switch {
	case err != nil || result == nil:
		logger.Warn("clip job failed",
			"error", err,
			"kind", remote.KindOf(err).String(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	case result.UploadURL == "":
		logger.Warn("clip job finished without a destination URL",
			"duration_ms", time.Since(started).Milliseconds(),
		)
	default:
		out = &ClipJobResult{UploadURL: result.UploadURL, DownloadURL: result.DownloadURL}
		o.lastResult = out
		logger.Info("clip job finished",
			"upload_url", out.UploadURL,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}

	o.transitionLocked(StateReady)

	evt := Event{Type: EventJobFinished, SubmissionID: submissionID}
	if out != nil {
		copied := *out
		evt.Result = &copied
	}
	o.publishLocked(evt)
}

// uploadThumbnail returns the object key for t, or "" when there is no
// thumbnail or the upload failed. A failed upload never blocks the job.
func (o *Orchestrator) uploadThumbnail(ctx context.Context, logger *slog.Logger, t *thumbnail.Thumbnail) string {
	if t == nil {
		return ""
	}

	res, err := o.client.UploadThumbnail(ctx, remote.ThumbnailUpload{
		ContentBase64: t.Base64(),
		Name:          t.Name,
	})
	if err != nil || res == nil {
		logger.Warn("thumbnail upload failed, submitting without thumbnail",
			"name", t.Name,
			"error", err,
		)
		return ""
	}

	logger.Debug("thumbnail uploaded", "name", t.Name, "object_key", res.ObjectKey)
	return res.ObjectKey
}

// Close cancels any outstanding call, discards its result and waits for the
// background goroutines to return. Subscriber channels are closed.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.abortTaskLocked()
	o.mu.Unlock()

	o.baseCancel()
	o.tasks.Wait()
	o.events.closeAll()
}

// abortTaskLocked invalidates any outstanding completion and cancels its call.
func (o *Orchestrator) abortTaskLocked() {
	o.generation++
	o.releaseTaskLocked()
}

func (o *Orchestrator) releaseTaskLocked() {
	if o.cancelTask != nil {
		o.cancelTask()
		o.cancelTask = nil
	}
}

func (o *Orchestrator) transitionLocked(to State) {
	from := o.state
	if from == to {
		return
	}
	o.state = to

	o.logger.Info("state transition",
		"from", from.String(),
		"to", to.String(),
		"source_id", o.sourceID,
		"generation", o.generation,
	)
	o.publishLocked(Event{Type: EventStateChanged, Previous: from})
}

func (o *Orchestrator) publishLocked(evt Event) {
	evt.State = o.state
	evt.SourceID = o.sourceID
	evt.At = time.Now().UTC()
	o.events.publish(evt)
}

func problemList(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		problems := make([]string, 0, len(errs))
		for _, e := range errs {
			problems = append(problems, e.Error())
		}
		return problems
	}
	return []string{err.Error()}
}
