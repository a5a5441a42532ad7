// Package remote talks to the clip job backend: metadata lookup, thumbnail
// staging and the long-running clip job itself.
package remote

import "context"

// Client is the backend contract consumed by the orchestrator. Every method may
// fail with a *CallError; callers that only care whether a value came back can
// treat any error as an absent result.
type Client interface {
	FetchMetadata(ctx context.Context, platform, sourceID string) (*Metadata, error)
	UploadThumbnail(ctx context.Context, upload ThumbnailUpload) (*ThumbnailResult, error)
	SubmitClipJob(ctx context.Context, req ClipJobRequest) (*ClipJobResult, error)
}

// Metadata describes a source video as reported by the download platform.
type Metadata struct {
	ID                 string   `json:"videoId"`
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	LengthSec          int      `json:"lengthInSec,omitempty"`
	PublishDate        string   `json:"publishDate"`
	AvailableQualities []string `json:"resolutions,omitempty"`
}

func (m *Metadata) clone() *Metadata {
	copied := *m
	copied.AvailableQualities = append([]string(nil), m.AvailableQualities...)
	return &copied
}

// ThumbnailUpload carries an image already encoded as base64.
type ThumbnailUpload struct {
	ContentBase64 string `json:"image_content"`
	Name          string `json:"image_name,omitempty"`
}

type ThumbnailResult struct {
	ObjectKey string `json:"objectKey"`
}

// ClipJobRequest is the wire form of a clip submission.
type ClipJobRequest struct {
	DownloadPlatform     string `json:"download_platform"`
	UploadPlatform       string `json:"upload_platform"`
	SourceID             string `json:"video_id"`
	StartTimeSec         int    `json:"start_time_in_sec"`
	EndTimeSec           int    `json:"end_time_in_sec"`
	ThumbnailObjectKey   string `json:"image_identifier"`
	Quality              string `json:"resolution,omitempty"`
	Title                string `json:"title"`
	DownloadOnCompletion bool   `json:"download"`
}

type ClipJobResult struct {
	UploadURL   string `json:"uploadUrl"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}
