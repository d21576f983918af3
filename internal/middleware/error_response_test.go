package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/accountlink/internal/model"
)

func TestWriteError_AppError_UsesStatusAndMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"missing code", model.NewMissingCodeError(), http.StatusBadRequest, "Missing code parameter."},
		{"invalid assertion", model.NewInvalidAssertionError(), http.StatusBadRequest, "Invalid Steam login."},
		{"not configured", model.NewConfigurationError(), http.StatusInternalServerError, "Discord OAuth is not configured. Set environment variables first."},
		{"wrapped exchange", fmt.Errorf("callback: %w", model.NewProviderExchangeError(`{"error":"invalid_grant"}`)), http.StatusInternalServerError, `Failed to exchange code: {"error":"invalid_grant"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/auth/discord/callback", nil)

			WriteError(w, r, tt.err)

			resp := w.Result()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
			body, _ := io.ReadAll(resp.Body)
			if got := strings.TrimSpace(string(body)); got != tt.body {
				t.Errorf("body = %q, want %q", got, tt.body)
			}
		})
	}
}

func TestWriteError_PlainError_Returns500(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/steam/callback", nil)

	WriteError(w, r, errors.New("failed to save links: disk full"))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	body, _ := io.ReadAll(resp.Body)
	if got := strings.TrimSpace(string(body)); got != "Unexpected error: failed to save links: disk full" {
		t.Errorf("body = %q", got)
	}
}
