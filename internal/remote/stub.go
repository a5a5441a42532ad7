package remote

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// StubClient answers every call locally. It lets the agent run without a
// configured backend.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (s *StubClient) FetchMetadata(ctx context.Context, platform, sourceID string) (*Metadata, error) {
	s.logger.Info("remote stub: metadata requested", "platform", platform, "source_id", sourceID)
	return &Metadata{
		ID:                 sourceID,
		Title:              "Stub video " + sourceID,
		Author:             "stub",
		LengthSec:          600,
		PublishDate:        "2024-01-01",
		AvailableQualities: []string{"360p", "720p", "1080p"},
	}, nil
}

func (s *StubClient) UploadThumbnail(ctx context.Context, upload ThumbnailUpload) (*ThumbnailResult, error) {
	s.logger.Info("remote stub: thumbnail upload requested", "name", upload.Name, "encoded_bytes", len(upload.ContentBase64))
	return &ThumbnailResult{ObjectKey: "stub-" + uuid.NewString()}, nil
}

func (s *StubClient) SubmitClipJob(ctx context.Context, req ClipJobRequest) (*ClipJobResult, error) {
	s.logger.Info("remote stub: clip job requested",
		"source_id", req.SourceID,
		"start_sec", req.StartTimeSec,
		"end_sec", req.EndTimeSec,
		"thumbnail", req.ThumbnailObjectKey,
	)
	return &ClipJobResult{UploadURL: "https://example.invalid/clips/" + uuid.NewString()}, nil
}
