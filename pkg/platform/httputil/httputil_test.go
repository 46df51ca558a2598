package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "roster/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits message and detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewWithDetail(dErrors.CodeInternal, "db failed", "stack"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["message"] != "internal server error" {
			t.Fatalf("expected generic message, got %q", body["message"])
		}
		if _, ok := body["error"]; ok {
			t.Fatalf("expected error detail to be omitted for internal errors")
		}
		if body["success"] != false {
			t.Fatalf("expected success=false")
		}
	})

	t.Run("conflict includes message and detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewWithDetail(dErrors.CodeConflict, "already enrolled", "the user is already enrolled in the course"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["message"] != "already enrolled" {
			t.Fatalf("expected message to pass through, got %q", body["message"])
		}
		if body["error"] != "the user is already enrolled in the course" {
			t.Fatalf("expected detail to pass through, got %q", body["error"])
		}
		if body["code"] != float64(http.StatusConflict) {
			t.Fatalf("expected envelope code to match status, got %v", body["code"])
		}
	})
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, http.StatusCreated, "enrolled successfully", map[string]int{"courseId": 2})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true")
	}
	if body["message"] != "enrolled successfully" {
		t.Fatalf("unexpected message %q", body["message"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["courseId"] != float64(2) {
		t.Fatalf("unexpected data %v", body["data"])
	}
}
