package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geoclash/geoclash/internal/database"
)

func TestHandleHealth(t *testing.T) {
	// Real SQLite in-memory DB — lightweight, no mocks needed.
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	h := handleHealth(slog.Default(), db)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]struct{ Status string }
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got := body["sqlite"].Status; got != "ok" {
		t.Errorf("sqlite = %q, want %q", got, "ok")
	}
}

func TestHandleHealthSQLiteDown(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	db.Close()

	h := handleHealth(slog.Default(), db)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
