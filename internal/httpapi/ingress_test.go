package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/meridian-commerce/core/internal/shared/errors"
)

type decodeTarget struct {
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		v, err := decode[decodeTarget](json.RawMessage(`{"name":"widget"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v.Name != "widget" {
			t.Errorf("expected name widget, got %s", v.Name)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		if _, err := decode[decodeTarget](nil); err == nil {
			t.Error("expected error decoding an empty payload")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		if _, err := decode[decodeTarget](json.RawMessage(`{`)); err == nil {
			t.Error("expected error decoding malformed json")
		}
	})
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": 1})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type application/json, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("expected success:true in body, got %s", w.Body.String())
	}
}

func TestWriteErrorMapsAppErrorStatus(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, apperrors.Validation("slug is required", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a validation error, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "slug is required") {
		t.Errorf("expected error message in body, got %s", w.Body.String())
	}
}

func TestWriteErrorFallsBackToInternalForPlainError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, errUnknown{})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 for a non-AppError, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal error") {
		t.Errorf("expected generic internal error message in body, got %s", w.Body.String())
	}
}

type errUnknown struct{}

func (errUnknown) Error() string { return "boom" }

func TestHandleCommandRejectsUnknownType(t *testing.T) {
	h := NewHandler(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader(`{"type":"doesNotExist","payload":{}}`))
	w := httptest.NewRecorder()

	h.HandleCommand(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for an unknown command type, got %d", w.Code)
	}
}

func TestHandleCommandRejectsMalformedBody(t *testing.T) {
	h := NewHandler(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader(`not json`))
	w := httptest.NewRecorder()

	h.HandleCommand(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a malformed request body, got %d", w.Code)
	}
}

func TestHandleQueryRejectsUnknownType(t *testing.T) {
	h := NewHandler(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queries", strings.NewReader(`{"type":"doesNotExist","params":{}}`))
	w := httptest.NewRecorder()

	h.HandleQuery(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for an unknown query type, got %d", w.Code)
	}
}
