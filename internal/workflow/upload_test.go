package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datasightlabs/datasight-cli/internal/api"
	"github.com/datasightlabs/datasight-cli/internal/session"
)

func testSession() session.Session {
	return session.Session{Token: "tok", Username: "alice"}
}

func testClient(url string) *api.Client {
	return api.New(url, 5*time.Second, 1, time.Millisecond, time.Millisecond)
}

func writeCSV(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func countingServer(t *testing.T, hits *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		handler(w, r)
	}))
}

func TestChooseRejectsNonCSVWithoutNetwork(t *testing.T) {
	var hits int32
	s := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {})
	defer s.Close()

	up := NewUploader(testClient(s.URL), testSession())
	if err := up.Choose("data.txt"); err == nil {
		t.Fatal("Choose must reject a non-.csv name")
	}
	if up.State() != UploadFailed {
		t.Fatalf("state = %v, want upload-failed", up.State())
	}
	msg, _ := up.Failure()
	if msg != "Only CSV files are supported." {
		t.Fatalf("message = %q, want the fixed message", msg)
	}
	// Start after a failed Choose must also send nothing.
	if _, err := up.Start(context.Background(), "data.txt", false); err == nil {
		t.Fatal("Start after failed Choose must error")
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("server hits = %d, want 0", hits)
	}
}

func TestStartWithoutSessionFailsLocally(t *testing.T) {
	var hits int32
	s := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {})
	defer s.Close()

	up := NewUploader(testClient(s.URL), session.Session{})
	path := writeCSV(t, "sales.csv")
	if err := up.Choose(path); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	_, err := up.Start(context.Background(), path, false)
	if !errors.Is(err, session.ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("server hits = %d, want 0", hits)
	}
}

func TestStartSuccessHoldsDataset(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"filename": "sales.csv",
			"columns":  []string{"a", "b"},
			"n_rows":   1, "n_columns": 2,
			"message": "File received and parsed!",
		})
	}))
	defer s.Close()

	up := NewUploader(testClient(s.URL), testSession())
	path := writeCSV(t, "sales.csv")
	if err := up.Choose(path); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	ds, err := up.Start(context.Background(), path, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if up.State() != Uploaded {
		t.Fatalf("state = %v, want uploaded", up.State())
	}
	if got := up.Dataset(); got != ds || got.Filename != "sales.csv" {
		t.Fatalf("Dataset = %+v", got)
	}
}

func TestStartIsGuardedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{"filename": "sales.csv", "columns": []string{"a"}})
	}))
	defer s.Close()

	up := NewUploader(testClient(s.URL), testSession())
	path := writeCSV(t, "sales.csv")
	if err := up.Choose(path); err != nil {
		t.Fatalf("Choose: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := up.Start(context.Background(), path, false)
		done <- err
	}()
	for !up.InFlight() {
		time.Sleep(time.Millisecond)
	}
	if _, err := up.Start(context.Background(), path, false); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Start = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Start: %v", err)
	}
}

func TestRemoteErrorPicksClassificationHint(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not enough samples per class"})
	}))
	defer s.Close()

	up := NewUploader(testClient(s.URL), testSession())
	path := writeCSV(t, "sales.csv")
	if err := up.Choose(path); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if _, err := up.Start(context.Background(), path, false); err == nil {
		t.Fatal("Start must surface the backend error")
	}
	if up.State() != UploadFailed {
		t.Fatalf("state = %v, want upload-failed", up.State())
	}
	_, hint := up.Failure()
	if hint.Title != "Classification Error" {
		t.Fatalf("hint = %+v, want the classification-specific hint, not the generic one", hint)
	}
}

func TestUnmatchedRemoteErrorHasNoSpecificHint(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer s.Close()

	up := NewUploader(testClient(s.URL), testSession())
	path := writeCSV(t, "sales.csv")
	if err := up.Choose(path); err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if _, err := up.Start(context.Background(), path, false); err == nil {
		t.Fatal("Start must fail on transport error")
	}
	_, hint := up.Failure()
	if hint.Title != "" {
		t.Fatalf("transport failures carry no remediation hint, got %+v", hint)
	}
}
