package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"replicated-log/internal/secondary"
)

func newSecondaryRouter(faultRate float64) *gin.Engine {
	s := secondary.New(nil, faultRate)
	r := gin.New()
	NewSecondaryHandler(s).Register(r)
	return r
}

func TestReplicateHandlerAcksOnSuccess(t *testing.T) {
	r := newSecondaryRouter(0)
	rec := doJSON(r, http.MethodPost, "/replicate", map[string]any{"id": "1", "order": 0, "message": "a"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ACK" {
		t.Fatalf("expected ACK, got %v", resp)
	}
}

func TestReplicateHandlerRejectsMissingID(t *testing.T) {
	r := newSecondaryRouter(0)
	rec := doJSON(r, http.MethodPost, "/replicate", map[string]any{"order": 0, "message": "a"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing id, got %d", rec.Code)
	}
}

func TestReplicateHandlerAcceptsOrderZero(t *testing.T) {
	// Order 0 is the first valid order and must not be rejected — this is
	// why replicateBody carries Order as *int64 rather than binding:"required"
	// on an int64, which would treat the zero value as absent.
	r := newSecondaryRouter(0)
	rec := doJSON(r, http.MethodPost, "/replicate", map[string]any{"id": "1", "order": 0, "message": "a"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for order=0, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReplicateHandlerRejectsMissingOrder(t *testing.T) {
	r := newSecondaryRouter(0)
	rec := doJSON(r, http.MethodPost, "/replicate", map[string]any{"id": "1", "message": "a"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing order, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReplicateHandlerSurfacesInjectedFaultAs500(t *testing.T) {
	r := newSecondaryRouter(1.0)
	rec := doJSON(r, http.MethodPost, "/replicate", map[string]any{"id": "1", "order": 0, "message": "a"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on injected fault, got %d", rec.Code)
	}
}

func TestSecondaryListAndClearHandlers(t *testing.T) {
	r := newSecondaryRouter(0)
	doJSON(r, http.MethodPost, "/replicate", map[string]any{"id": "1", "order": 0, "message": "a"})

	rec := doJSON(r, http.MethodGet, "/messages", nil)
	var listResp struct {
		Messages []string `json:"messages"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &listResp)
	if len(listResp.Messages) != 1 || listResp.Messages[0] != "a" {
		t.Fatalf("expected [a], got %v", listResp.Messages)
	}

	doJSON(r, http.MethodPost, "/clear", nil)
	rec = doJSON(r, http.MethodGet, "/messages", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &listResp)
	if len(listResp.Messages) != 0 {
		t.Fatalf("expected empty log after clear, got %v", listResp.Messages)
	}
}
