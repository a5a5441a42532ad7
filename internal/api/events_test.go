package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crosswalk/clipper/internal/orchestrator"
)

func dialEvents(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	return websocket.DefaultDialer.Dial(url, header)
}

func TestEvents_RequiresAuth(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, resp, err := dialEvents(t, srv, nil)
	if err == nil {
		t.Fatal("dial succeeded without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %v, want 401", resp)
	}
}

func TestEvents_StreamsSnapshotThenEvents(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := dialEvents(t, srv, http.Header{"Authorization": {"Bearer " + testToken}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first StreamMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != "snapshot" || first.Request.State != string(orchestrator.StateIdle) {
		t.Fatalf("first frame = %+v, want idle snapshot", first)
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/request/source", bytes.NewReader([]byte(`{"source_id":"abc123"}`)))
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /request/source: %v", err)
	}
	resp.Body.Close()

	var sawMetadata bool
	for {
		var evt orchestrator.Event
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if evt.Type == orchestrator.EventMetadataReady {
			sawMetadata = true
			if evt.Metadata == nil || evt.Metadata.ID != "abc123" {
				t.Errorf("metadata = %+v, want id abc123", evt.Metadata)
			}
		}
		if evt.Type == orchestrator.EventStateChanged && evt.State == orchestrator.StateAwaitingConfirmation {
			break
		}
	}
	if !sawMetadata {
		t.Error("no metadata_ready event before awaiting_confirmation")
	}
}

func TestEvents_QueryTokenAndJSONShape(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?" + TokenQueryParam + "=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["request"]; !ok {
		t.Errorf("snapshot frame %s has no request field", data)
	}
}
