package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	FunctionGetMetadata     = "get-video-metadata"
	FunctionUploadThumbnail = "upload-thumbnail"
	FunctionProcessVideo    = "process-video"

	DefaultCallTimeout = 60 * time.Second
	DefaultJobTimeout  = 10 * time.Minute

	maxResponseBytes = 1 << 20
)

// HTTPClient invokes the backend functions over HTTP. Each function answers
// with an invocation envelope whose body is itself a JSON document.
type HTTPClient struct {
	baseURL     string
	token       string
	callTimeout time.Duration
	jobTimeout  time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		callTimeout: DefaultCallTimeout,
		jobTimeout:  DefaultJobTimeout,
		httpClient:  &http.Client{},
		logger:      logger,
	}
}

// SetTimeouts overrides the per-call deadlines. Zero values keep the current
// setting.
func (c *HTTPClient) SetTimeouts(call, job time.Duration) {
	if call > 0 {
		c.callTimeout = call
	}
	if job > 0 {
		c.jobTimeout = job
	}
}

type envelope struct {
	StatusCode   int    `json:"statusCode"`
	Body         string `json:"body,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (c *HTTPClient) FetchMetadata(ctx context.Context, platform, sourceID string) (*Metadata, error) {
	payload := map[string]any{
		"queryStringParameters": map[string]string{
			"platform": platform,
			"video_id": sourceID,
		},
	}

	var md Metadata
	if err := c.invoke(ctx, FunctionGetMetadata, payload, c.callTimeout, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

func (c *HTTPClient) UploadThumbnail(ctx context.Context, upload ThumbnailUpload) (*ThumbnailResult, error) {
	var result ThumbnailResult
	if err := c.invoke(ctx, FunctionUploadThumbnail, map[string]any{"body": upload}, c.callTimeout, &result); err != nil {
		return nil, err
	}
	if result.ObjectKey == "" {
		return nil, &CallError{Op: FunctionUploadThumbnail, Kind: KindDecode, Err: errors.New("response has no object key")}
	}
	return &result, nil
}

func (c *HTTPClient) SubmitClipJob(ctx context.Context, req ClipJobRequest) (*ClipJobResult, error) {
	var result ClipJobResult
	if err := c.invoke(ctx, FunctionProcessVideo, map[string]any{"body": req}, c.jobTimeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) invoke(ctx context.Context, function string, payload any, timeout time.Duration, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &CallError{Op: function, Kind: KindDecode, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/functions/%s/invoke", c.baseURL, function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &CallError{Op: function, Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Clipper-Request-Id", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Info("invoking remote function",
		"function", function,
		"request_id", requestID,
		"body_bytes", len(body),
		"timeout", timeout.String(),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CallError{Op: function, Kind: classifyTransport(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &CallError{Op: function, Kind: classifyTransport(ctx, err), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &CallError{Op: function, Kind: KindRemote, StatusCode: resp.StatusCode, Err: errors.New(truncate(string(respBody), 512))}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &CallError{Op: function, Kind: KindDecode, Err: fmt.Errorf("unmarshal envelope: %w", err)}
	}
	if env.StatusCode < 200 || env.StatusCode >= 300 {
		msg := env.ErrorMessage
		if msg == "" {
			msg = "function returned an error status"
		}
		return &CallError{Op: function, Kind: KindRemote, StatusCode: env.StatusCode, Err: errors.New(msg)}
	}
	if env.Body == "" {
		return &CallError{Op: function, Kind: KindDecode, Err: errors.New("empty function body")}
	}
	if err := json.Unmarshal([]byte(env.Body), out); err != nil {
		return &CallError{Op: function, Kind: KindDecode, Err: fmt.Errorf("unmarshal body: %w", err)}
	}

	c.logger.Info("remote function succeeded",
		"function", function,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func classifyTransport(ctx context.Context, err error) Kind {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindNetwork
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
