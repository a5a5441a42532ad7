package api

import (
	"github.com/crosswalk/clipper/internal/orchestrator"
)

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	UptimeS    int64  `json:"uptime_s"`
	RemoteMode string `json:"remote_mode"`
}

type ErrorResponse struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Problems []string `json:"problems,omitempty"`
}

type SetSourceRequest struct {
	SourceID string `json:"source_id"`
}

// UpdateFieldsRequest carries a partial update; absent fields are left as is.
type UpdateFieldsRequest struct {
	StartTime            *string `json:"start_time,omitempty"`
	EndTime              *string `json:"end_time,omitempty"`
	Title                *string `json:"title,omitempty"`
	Quality              *string `json:"quality,omitempty"`
	DownloadOnCompletion *bool   `json:"download_on_completion,omitempty"`
}

type SubmitResponse struct {
	SubmissionID string `json:"submission_id"`
}

type MetadataResponse struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	LengthSec          int      `json:"length_sec,omitempty"`
	PublishDate        string   `json:"publish_date"`
	AvailableQualities []string `json:"available_qualities"`
}

type ResultResponse struct {
	UploadURL   string `json:"upload_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

type RequestResponse struct {
	State                string            `json:"state"`
	SourceID             string            `json:"source_id"`
	Metadata             *MetadataResponse `json:"metadata,omitempty"`
	StartTime            string            `json:"start_time"`
	EndTime              string            `json:"end_time"`
	Title                string            `json:"title"`
	ThumbnailName        string            `json:"thumbnail_name,omitempty"`
	Quality              string            `json:"quality,omitempty"`
	DownloadOnCompletion bool              `json:"download_on_completion"`
	InputsEnabled        bool              `json:"inputs_enabled"`
	SubmissionInFlight   bool              `json:"submission_in_flight"`
	LastResult           *ResultResponse   `json:"last_result,omitempty"`
}

// StreamMessage is the first frame written on /events; later frames are
// orchestrator events.
type StreamMessage struct {
	Type    string          `json:"type"`
	Request RequestResponse `json:"request"`
}

func SnapshotToResponse(s orchestrator.Snapshot) RequestResponse {
	resp := RequestResponse{
		State:                s.State.String(),
		SourceID:             s.SourceID,
		StartTime:            s.StartTime,
		EndTime:              s.EndTime,
		Title:                s.Title,
		ThumbnailName:        s.ThumbnailName,
		Quality:              s.Quality,
		DownloadOnCompletion: s.DownloadOnCompletion,
		InputsEnabled:        s.InputsEnabled,
		SubmissionInFlight:   s.SubmissionInFlight,
	}
	if s.Metadata != nil {
		qualities := s.Metadata.AvailableQualities
		if qualities == nil {
			qualities = []string{}
		}
		resp.Metadata = &MetadataResponse{
			ID:                 s.Metadata.ID,
			Title:              s.Metadata.Title,
			Author:             s.Metadata.Author,
			LengthSec:          s.Metadata.LengthSec,
			PublishDate:        s.Metadata.PublishDate,
			AvailableQualities: qualities,
		}
	}
	if s.LastResult != nil {
		resp.LastResult = &ResultResponse{
			UploadURL:   s.LastResult.UploadURL,
			DownloadURL: s.LastResult.DownloadURL,
		}
	}
	return resp
}
