package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(http.StatusBadRequest, ErrCodeInvalidSource, "Type must be dataView or esql").
		WithFields(map[string]string{"dataSource.type": "Type is required"}).
		WithRequestID("req-123")

	if resp.Error != "Bad Request" {
		t.Errorf("Expected Error 'Bad Request', got '%s'", resp.Error)
	}
	if resp.Code != ErrCodeInvalidSource {
		t.Errorf("Expected Code ErrCodeInvalidSource, got '%s'", resp.Code)
	}
	if resp.Fields["dataSource.type"] != "Type is required" {
		t.Errorf("unexpected fields: %v", resp.Fields)
	}
	if resp.RequestID != "req-123" {
		t.Errorf("Expected RequestID 'req-123', got '%s'", resp.RequestID)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		wantStatus int
		wantCode   ErrorCode
	}{
		{"validation", func(w http.ResponseWriter, r *http.Request) {
			ValidationError(w, r, "Validation failed", map[string]string{"id": "ID is required"})
		}, http.StatusBadRequest, ErrCodeValidation},
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON")
		}, http.StatusBadRequest, ErrCodeInvalidJSON},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			UnauthorizedError(w, r, "Missing bearer token")
		}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			ForbiddenError(w, r, "Invalid token")
		}, http.StatusForbidden, ErrCodeForbidden},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			InternalError(w, r, "Registry rebuild failed")
		}, http.StatusInternalServerError, ErrCodeInternal},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			NotFoundError(w, r, notFoundMessage("acme"))
		}, http.StatusNotFound, ErrCodeNotFound},
		{"too large", func(w http.ResponseWriter, r *http.Request) {
			RequestTooLargeError(w, r, "Request body too large")
		}, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge},
		{"rate limited", RateLimitedError, http.StatusTooManyRequests, ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/v1/definitions", nil)
			r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-7"))

			tt.write(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Expected Code %s, got '%s'", tt.wantCode, resp.Code)
			}
			if resp.RequestID != "req-7" {
				t.Errorf("Expected request ID from context, got '%s'", resp.RequestID)
			}
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := notFoundMessage("acme-logs"); got != "Profile definition acme-logs not found" {
		t.Errorf("notFoundMessage = %q", got)
	}
}
