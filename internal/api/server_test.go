package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theanh9911/agno-console/internal/run"
	"github.com/theanh9911/agno-console/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := store.New(8)
	t.Cleanup(s.Close)
	return NewServer(DefaultServerConfig(), s, nil, nil), s
}

func TestHandleStatus_NoManager(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "disconnected" {
		t.Fatalf("expected disconnected without a manager, got %v", body["status"])
	}
}

func TestHandleSessions(t *testing.T) {
	srv, st := newTestServer(t)

	st.SetSessionName("s1", "alpha", 10)
	st.SetSessionName("s2", "beta", 20)
	st.SetStreamState("s2", func(ss *store.StreamState) { ss.IsStreaming = true })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	var body struct {
		Data []struct {
			SessionID   string `json:"session_id"`
			Name        string `json:"name"`
			IsStreaming bool   `json:"is_streaming"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(body.Data))
	}
	// Most recently updated first.
	if body.Data[0].SessionID != "s2" || !body.Data[0].IsStreaming {
		t.Fatalf("ordering or streaming flag wrong: %+v", body.Data)
	}
	if body.Data[1].Name != "alpha" {
		t.Fatalf("session name lost: %+v", body.Data[1])
	}
}

func TestHandleSessionRuns_MergesCollections(t *testing.T) {
	srv, st := newTestServer(t)

	st.SetHistory("s1", []*run.WorkflowRun{
		{RunID: "r1", CreatedAt: 1, Status: run.StatusCompleted},
	})
	st.MutateStreaming("s1", func(runs []*run.WorkflowRun) []*run.WorkflowRun {
		return append(runs, &run.WorkflowRun{RunID: "r2", CreatedAt: 2, Status: run.StatusRunning})
	})
	st.SetStreamState("s1", func(ss *store.StreamState) { ss.IsStreaming = true })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/runs", nil))

	var body struct {
		Data        []*run.WorkflowRun `json:"data"`
		IsStreaming bool               `json:"is_streaming"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].RunID != "r1" || body.Data[1].RunID != "r2" {
		t.Fatalf("merged view wrong: %+v", body.Data)
	}
	if !body.IsStreaming {
		t.Fatalf("streaming flag not reported")
	}
}

func TestHandleSessionRuns_UnknownSessionIsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/nope/runs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code %d", rec.Code)
	}
	var body struct {
		Data []*run.WorkflowRun `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Data) != 0 {
		t.Fatalf("expected empty data, got %+v", body.Data)
	}
}

func TestHandleSSE_StreamsChanges(t *testing.T) {
	srv, st := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("reading sse stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return event, data
			}
		}
	}

	event, _ := readEvent()
	if event != "connected" {
		t.Fatalf("expected connected handshake, got %q", event)
	}

	// A store mutation after subscription shows up as a change event.
	go func() {
		time.Sleep(50 * time.Millisecond)
		st.SetSessionName("s1", "renamed", 1)
	}()

	event, data := readEvent()
	if event != "change" {
		t.Fatalf("expected change event, got %q", event)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decoding change payload: %v", err)
	}
	if payload["session_id"] != "s1" || payload["reason"] != string(store.ReasonSessions) {
		t.Fatalf("change payload wrong: %v", payload)
	}
}
