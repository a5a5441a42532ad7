package orchestrator

import (
	"sort"
	"strconv"

	"github.com/crosswalk/clipper/internal/remote"
	"github.com/crosswalk/clipper/internal/thumbnail"
)

// SourceVideoMetadata is immutable once fetched.
type SourceVideoMetadata struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	LengthSec          int      `json:"length_sec,omitempty"`
	PublishDate        string   `json:"publish_date"`
	AvailableQualities []string `json:"available_qualities,omitempty"`
}

func (m *SourceVideoMetadata) clone() *SourceVideoMetadata {
	if m == nil {
		return nil
	}
	copied := *m
	copied.AvailableQualities = append([]string(nil), m.AvailableQualities...)
	return &copied
}

func (m *SourceVideoMetadata) hasQuality(q string) bool {
	for _, available := range m.AvailableQualities {
		if available == q {
			return true
		}
	}
	return false
}

// HighestQuality returns the last entry of the sorted quality list, or "" when
// the platform reported none.
func (m *SourceVideoMetadata) HighestQuality() string {
	if len(m.AvailableQualities) == 0 {
		return ""
	}
	return m.AvailableQualities[len(m.AvailableQualities)-1]
}

func metadataFromRemote(md *remote.Metadata, requestedID string) *SourceVideoMetadata {
	id := md.ID
	if id == "" {
		id = requestedID
	}
	qualities := make([]string, 0, len(md.AvailableQualities))
	for _, q := range md.AvailableQualities {
		if q != "" {
			qualities = append(qualities, q)
		}
	}
	sortQualities(qualities)

	return &SourceVideoMetadata{
		ID:                 id,
		Title:              md.Title,
		Author:             md.Author,
		LengthSec:          md.LengthSec,
		PublishDate:        md.PublishDate,
		AvailableQualities: qualities,
	}
}

// sortQualities orders labels such as "360p" and "1080p" by their numeric
// prefix, ascending. Labels without a number sort first.
func sortQualities(qs []string) {
	sort.SliceStable(qs, func(i, j int) bool {
		return qualityRank(qs[i]) < qualityRank(qs[j])
	})
}

func qualityRank(q string) int {
	end := 0
	for end < len(q) && q[end] >= '0' && q[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(q[:end])
	if err != nil {
		return -1
	}
	return n
}

// ClipRequest is the validated, converted form of the user's input for one
// submission.
type ClipRequest struct {
	SourceID             string
	StartTimeSec         int
	EndTimeSec           int
	Title                string
	Thumbnail            *thumbnail.Thumbnail
	Quality              string
	DownloadOnCompletion bool
}

// ClipJobResult is the terminal artifact of a successful submission.
type ClipJobResult struct {
	UploadURL   string `json:"upload_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Snapshot is a point-in-time copy of the orchestrator's observable state.
type Snapshot struct {
	State                State                `json:"state"`
	SourceID             string               `json:"source_id"`
	Metadata             *SourceVideoMetadata `json:"metadata,omitempty"`
	StartTime            string               `json:"start_time"`
	EndTime              string               `json:"end_time"`
	Title                string               `json:"title"`
	ThumbnailName        string               `json:"thumbnail_name,omitempty"`
	Quality              string               `json:"quality,omitempty"`
	DownloadOnCompletion bool                 `json:"download_on_completion"`
	InputsEnabled        bool                 `json:"inputs_enabled"`
	SubmissionInFlight   bool                 `json:"submission_in_flight"`
	LastResult           *ClipJobResult       `json:"last_result,omitempty"`
}
