package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"replicated-log/internal/entry"
)

func TestAppendSendsMessageAndW(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(AppendResponse{Status: "ok", ID: "1", Order: 0})
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	resp, err := c.Append(context.Background(), "hello", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != "1" || resp.Order != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotBody["message"] != "hello" || gotBody["w"] != float64(2) {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestAppendSurfacesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "message must be non-empty"})
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	_, err := c.Append(context.Background(), "", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", apiErr.Status)
	}
}

func TestListReturnsPayloadsOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []string{"a", "b"}})
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestFullMessagesReturnsEntries(t *testing.T) {
	entries := []entry.LogEntry{{ID: "1", Order: 0, Message: "a"}}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": entries})
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	got, err := c.FullMessages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Message != "a" {
		t.Fatalf("expected [{a}], got %v", got)
	}
}

func TestReplicateSendsEntry(t *testing.T) {
	var gotEntry entry.LogEntry
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotEntry)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	e := entry.LogEntry{ID: "1", Order: 3, Message: "hi"}
	if err := c.Replicate(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEntry != e {
		t.Fatalf("expected entry %+v, got %+v", e, gotEntry)
	}
}

func TestTriggerSyncSendsAddress(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	if err := c.TriggerSync(context.Background(), "http://secondary-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody["address"] != "http://secondary-1" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestNewDefaultsTimeout(t *testing.T) {
	c := New("http://example.invalid", 0)
	if c.httpClient.Timeout != 10*time.Second {
		t.Fatalf("expected default 10s timeout, got %v", c.httpClient.Timeout)
	}
}
