package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crosswalk/clipper/internal/orchestrator"
	"github.com/crosswalk/clipper/internal/thumbnail"
	"github.com/crosswalk/clipper/internal/validate"
)

const maxJSONBodyBytes = 64 * 1024

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard(cfg.Logger))
		r.Get("/", statusPageHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.APIToken, cfg.Logger))

		r.Get("/request", getRequestHandler(cfg))
		r.Put("/request/source", setSourceHandler(cfg))
		r.Post("/request/confirm", confirmHandler(cfg))
		r.Post("/request/cancel", cancelHandler(cfg))
		r.Patch("/request/fields", updateFieldsHandler(cfg))
		r.Put("/request/thumbnail", putThumbnailHandler(cfg))
		r.Delete("/request/thumbnail", deleteThumbnailHandler(cfg))
		r.Post("/request/submit", submitHandler(cfg))
		r.Get("/events", eventsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:     "ok",
			Version:    cfg.Version,
			UptimeS:    uptime,
			RemoteMode: cfg.RemoteMode,
		})
	}
}

func getRequestHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Requests.Snapshot()))
	}
}

func setSourceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetSourceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := cfg.Requests.SetSourceID(req.SourceID); err != nil {
			writeRequestError(w, err)
			return
		}

		// 202 when a lookup was started; the result arrives on /events.
		status := http.StatusOK
		if validate.IsValidSourceID(req.SourceID) {
			status = http.StatusAccepted
		}
		WriteJSON(w, status, SnapshotToResponse(cfg.Requests.Snapshot()))
	}
}

func confirmHandler(cfg ServerConfig) http.HandlerFunc {
	return transitionHandler(cfg, cfg.Requests.Confirm)
}

func cancelHandler(cfg ServerConfig) http.HandlerFunc {
	return transitionHandler(cfg, cfg.Requests.Cancel)
}

func transitionHandler(cfg ServerConfig, apply func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := apply(); err != nil {
			writeRequestError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Requests.Snapshot()))
	}
}

func updateFieldsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateFieldsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		err := cfg.Requests.UpdateFields(orchestrator.FieldUpdate{
			StartTime:            req.StartTime,
			EndTime:              req.EndTime,
			Title:                req.Title,
			Quality:              req.Quality,
			DownloadOnCompletion: req.DownloadOnCompletion,
		})
		if err != nil {
			writeRequestError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Requests.Snapshot()))
	}
}

func putThumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			WriteError(w, http.StatusBadRequest, "name query parameter is required", "INVALID_REQUEST")
			return
		}

		body := http.MaxBytesReader(w, r.Body, thumbnail.MaxBytes)
		data, err := io.ReadAll(body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				WriteError(w, http.StatusRequestEntityTooLarge, thumbnail.ErrTooLarge.Error(), "THUMBNAIL_TOO_LARGE")
				return
			}
			WriteError(w, http.StatusBadRequest, "failed to read thumbnail", "INVALID_REQUEST")
			return
		}

		thumb, err := thumbnail.New(name, data)
		if err != nil {
			writeRequestError(w, err)
			return
		}
		if err := cfg.Requests.SetThumbnail(&thumb); err != nil {
			writeRequestError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, SnapshotToResponse(cfg.Requests.Snapshot()))
	}
}

func deleteThumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return transitionHandler(cfg, cfg.Requests.ClearThumbnail)
}

func submitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := cfg.Requests.Submit()
		if err != nil {
			writeRequestError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SubmitResponse{SubmissionID: id})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
		return false
	}
	return true
}

// writeRequestError maps orchestrator and thumbnail errors to HTTP responses.
func writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrValidation):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    "clip request is invalid",
			Code:     "VALIDATION_FAILED",
			Problems: validationProblems(err),
		})
	case errors.Is(err, orchestrator.ErrSubmissionInFlight):
		WriteError(w, http.StatusConflict, err.Error(), "SUBMISSION_IN_FLIGHT")
	case errors.Is(err, orchestrator.ErrInputsDisabled):
		WriteError(w, http.StatusConflict, err.Error(), "INPUTS_DISABLED")
	case errors.Is(err, orchestrator.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, err.Error(), "INVALID_STATE")
	case errors.Is(err, orchestrator.ErrUnknownQuality):
		WriteError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_QUALITY")
	case errors.Is(err, orchestrator.ErrClosed):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "SHUTTING_DOWN")
	case errors.Is(err, thumbnail.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, err.Error(), "THUMBNAIL_TOO_LARGE")
	case errors.Is(err, thumbnail.ErrEmpty), errors.Is(err, thumbnail.ErrUnsupportedType):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_THUMBNAIL")
	default:
		WriteError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}

func validationProblems(err error) []string {
	var problems []string
	for _, sentinel := range []error{
		validate.ErrInvalidStartTime,
		validate.ErrInvalidEndTime,
		validate.ErrMissingTitle,
		validate.ErrEndNotAfterStart,
	} {
		if errors.Is(err, sentinel) {
			problems = append(problems, sentinel.Error())
		}
	}
	return problems
}
