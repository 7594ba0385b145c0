package upload

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/meltforce/movassist/internal/ingest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeRecording(t *testing.T, dir, exercise, name, content string) string {
	t.Helper()
	exDir := filepath.Join(dir, exercise)
	if err := os.MkdirAll(exDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(exDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestStateDBRoundtrip verifies the uploaded-recordings state survives a
// mark/check cycle and records the session ID.
func TestStateDBRoundtrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("opening state db: %v", err)
	}
	defer state.Close()

	uploaded, err := state.IsUploaded("squat/a.jsonl", 100, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uploaded {
		t.Error("fresh db reports file as uploaded")
	}

	if err := state.MarkUploaded("squat/a.jsonl", 100, "abc", "session-1"); err != nil {
		t.Fatalf("marking uploaded: %v", err)
	}

	uploaded, err = state.IsUploaded("squat/a.jsonl", 100, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uploaded {
		t.Error("marked file not reported as uploaded")
	}

	// Changed hash means the file was modified: must re-upload
	uploaded, err = state.IsUploaded("squat/a.jsonl", 100, "different")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uploaded {
		t.Error("modified file reported as uploaded")
	}

	id, err := state.SessionID("squat/a.jsonl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "session-1" {
		t.Errorf("session id = %q, want %q", id, "session-1")
	}
}

// TestHashFile verifies hashing is stable and content-sensitive.
func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jsonl")
	if err := os.WriteFile(a, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := HashFile(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := HashFile(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Error("hash not stable for identical content")
	}

	if err := os.WriteFile(a, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	h3, err := HashFile(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 == h3 {
		t.Error("hash unchanged after content change")
	}
}

// TestUploaderRun verifies new recordings are sent with the right exercise
// and already-ingested ones are skipped on the next run.
func TestUploaderRun(t *testing.T) {
	recordings := t.TempDir()
	writeRecording(t, recordings, "squat", "morning.jsonl", `{"frame":0,"landmarks":{}}`)

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.URL.Query().Get("exercise"); got != "squat" {
			t.Errorf("exercise = %q, want squat", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("api key = %q, want test-key", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": ingest.Result{SessionID: "abc-123", RepsDetected: 3, GoodReps: 2, BadReps: 1},
		})
	}))
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("opening state db: %v", err)
	}
	defer state.Close()

	client := NewClient(srv.URL, "test-key")
	u := New(client, state, recordings, 30, false, testLogger())

	stats, err := u.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesUploaded != 1 {
		t.Errorf("uploaded = %d, want 1", stats.FilesUploaded)
	}
	if stats.RepsDetected != 3 || stats.GoodReps != 2 || stats.BadReps != 1 {
		t.Errorf("rep stats = %+v, want 3/2/1", stats)
	}

	// Second run: same file, nothing new to send
	u2 := New(client, state, recordings, 30, false, testLogger())
	stats, err = u2.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesSkipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.FilesSkipped)
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1", requests)
	}
}

// TestUploaderDryRun verifies dry-run mode sends nothing and marks nothing.
func TestUploaderDryRun(t *testing.T) {
	recordings := t.TempDir()
	writeRecording(t, recordings, "pushup", "set1.jsonl", `{"frame":0,"landmarks":{}}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("dry-run should not hit the server")
	}))
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("opening state db: %v", err)
	}
	defer state.Close()

	u := New(NewClient(srv.URL, "k"), state, recordings, 0, true, testLogger())
	stats, err := u.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesUploaded != 0 {
		t.Errorf("uploaded = %d, want 0", stats.FilesUploaded)
	}
	if stats.FilesTotal != 1 {
		t.Errorf("total = %d, want 1", stats.FilesTotal)
	}
}

// TestClientRetriesOnError verifies the client surfaces an error after the
// server keeps failing.
func TestClientRetriesOnError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	_, err := client.SendRecording("squat", 0, []byte("{}"))
	if err == nil {
		t.Fatal("expected error after repeated failures")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
