package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testClient(baseURL string) *Client {
	return New(baseURL, 5*time.Second, 3, time.Millisecond, 5*time.Millisecond)
}

func TestLoginSendsFormAndReturnsToken(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			http.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostFormValue("username") != "alice" || r.PostFormValue("password") != "secret" {
			t.Errorf("unexpected credentials: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}))
	defer s.Close()

	token, err := testClient(s.URL).Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q, want tok-1", token)
	}
}

func TestLoginFailureSurfacesDetail(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
	}))
	defer s.Close()

	_, err := testClient(s.URL).Login(context.Background(), "alice", "wrong")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if authErr.Message != "Incorrect username or password" {
		t.Fatalf("message = %q, want server detail", authErr.Message)
	}
}

func writeTempCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadSuccess(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("save_to_db"); got != "true" {
			t.Errorf("save_to_db = %q, want true", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			f.Close()
			if hdr.Filename != "sales.csv" {
				t.Errorf("filename = %q", hdr.Filename)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"filename":    "sales.csv",
			"columns":     []string{"a", "b"},
			"n_rows":      1,
			"n_columns":   2,
			"null_counts": map[string]int{"a": 0, "b": 0},
			"message":     "File received and parsed!",
		})
	}))
	defer s.Close()

	ds, err := testClient(s.URL).Upload(context.Background(), "tok-1", writeTempCSV(t), true)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ds.Filename != "sales.csv" || ds.RowCount != 1 || ds.ColumnCount != 2 {
		t.Fatalf("dataset = %+v", ds)
	}
	if !ds.HasColumn("b") || ds.HasColumn("c") {
		t.Fatalf("HasColumn misbehaves on %v", ds.Columns)
	}
}

func TestUploadStructuredErrorBecomesRemoteError(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to parse CSV: bad header"})
	}))
	defer s.Close()

	_, err := testClient(s.URL).Upload(context.Background(), "tok-1", writeTempCSV(t), false)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if remote.Message != "Failed to parse CSV: bad header" {
		t.Fatalf("message = %q", remote.Message)
	}
}

func TestPredictDecodesResult(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		var req PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.TargetColumn != "Sales" || req.ModelType != ModelLinearRegression {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"target_column":      "Sales",
			"feature_columns":    []string{"TV"},
			"model_type":         "linear_regression",
			"is_classification":  false,
			"metrics":            map[string]float64{"r2_score": 0.9, "rmse": 1.5, "mean_squared_error": 2.25},
			"feature_importance": map[string]float64{"TV": 0.4},
			"sample_predictions": map[string][]float64{"actual": {1}, "predicted": {1.2}},
			"charts":             map[string]string{},
			"recommendations":    []string{},
		})
	}))
	defer s.Close()

	res, err := testClient(s.URL).Predict(context.Background(), "tok-1", PredictRequest{
		Filename:     "sales.csv",
		TargetColumn: "Sales",
		ModelType:    ModelLinearRegression,
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Metrics.Regression == nil || res.Metrics.Regression.R2Score != 0.9 {
		t.Fatalf("result = %+v", res)
	}
}

func TestPredictStructuredError(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not enough samples per class"})
	}))
	defer s.Close()

	_, err := testClient(s.URL).Predict(context.Background(), "tok-1", PredictRequest{
		Filename: "f.csv", TargetColumn: "c", ModelType: ModelNaiveBayes,
	})
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if !strings.Contains(remote.Message, "Not enough samples per class") {
		t.Fatalf("message = %q", remote.Message)
	}
}

func TestListResultsRetriesOn5xx(t *testing.T) {
	var hits int32
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer s.Close()

	items, err := testClient(s.URL).ListResults(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("items = %v, want empty slice", items)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("hits = %d, want 2 (one retry)", got)
	}
}

func TestGetResultNonOKIsGenericFailure(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Result not found"})
	}))
	defer s.Close()

	_, err := testClient(s.URL).GetResult(context.Background(), "tok-1", "abc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		t.Fatal("collection fetch failures must stay generic, not structured")
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
}

func TestProtectedGetSendsBearer(t *testing.T) {
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-9" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer s.Close()

	if _, err := testClient(s.URL).ListFiles(context.Background(), "tok-9"); err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
}
