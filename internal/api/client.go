// Package api is the HTTP client for the Smart Data Analyzer backend. The
// backend owns all analysis semantics; this package only encodes requests,
// attaches the bearer token, and decodes the documented response shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/datasightlabs/datasight-cli/internal/report"
)

type Client struct {
	httpClient       *http.Client
	baseURL          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// New returns a client with the given base URL and retry strategy. Zero
// values fall back to defaults.
func New(baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// Login exchanges credentials for an access token. Credentials go
// form-encoded; a non-2xx response surfaces the backend's detail message.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.WithField("endpoint", "/login").Debug("api request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &raw)
		msg := raw.Detail
		if msg == "" {
			msg = "Login failed"
		}
		return "", &AuthError{APIError: &APIError{StatusCode: resp.StatusCode, Message: msg}}
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("login response missing access_token")
	}
	return out.AccessToken, nil
}

// Upload sends a dataset file as multipart form data. A 2xx body carrying an
// error field is returned as *RemoteError.
func (c *Client) Upload(ctx context.Context, token, path string, saveToDB bool) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish form: %w", err)
	}

	endpoint := c.baseURL + "/upload?save_to_db=" + strconv.FormatBool(saveToDB)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.WithField("endpoint", "/upload").WithField("file", filepath.Base(path)).Debug("api request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, readMessage(resp.Body))
	}
	var payload struct {
		Error string `json:"error"`
		Dataset
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error != "" {
		return nil, &RemoteError{Message: payload.Error}
	}
	return &payload.Dataset, nil
}

// Predict asks the backend to fit a model. The result is returned once,
// transiently; the backend also stores it for the results collection.
func (c *Client) Predict(ctx context.Context, token string, pr PredictRequest) (*report.Result, error) {
	payload, err := json.Marshal(pr)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	log.WithField("endpoint", "/predict").WithField("model", pr.ModelType).Debug("api request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, readMessage(resp.Body))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var probe struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &probe)
	if probe.Error != "" {
		return nil, &RemoteError{Message: probe.Error}
	}
	var res report.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}

// ListFiles fetches the user's stored datasets.
func (c *Client) ListFiles(ctx context.Context, token string) ([]StoredFile, error) {
	var out []StoredFile
	if err := c.getJSON(ctx, token, "/user/files", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResults fetches the user's stored result summaries.
func (c *Client) ListResults(ctx context.Context, token string) ([]StoredResult, error) {
	var out []StoredResult
	if err := c.getJSON(ctx, token, "/user/results", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetResult fetches one stored result by id.
func (c *Client) GetResult(ctx context.Context, token, id string) (*StoredResult, error) {
	var out StoredResult
	if err := c.getJSON(ctx, token, "/user/results/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getJSON performs an authenticated GET with retry on 5xx and transient
// network errors. Reads are idempotent, so the retry stays invisible to the
// workflow layer; POSTs are never retried.
func (c *Client) getJSON(ctx context.Context, token, path string, out any) error {
	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		log.WithField("endpoint", path).WithField("attempt", attempt).Debug("api request")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				lastErr = err
				backoff = c.sleep(backoff)
				continue
			}
			return fmt.Errorf("http request: %w", err)
		}
		done, err := func() (bool, error) {
			defer resp.Body.Close()
			if resp.StatusCode >= 500 && resp.StatusCode <= 599 && attempt < c.retryMaxAttempts {
				return false, &ServerError{APIError: &APIError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return true, classifyStatus(resp.StatusCode, readMessage(resp.Body))
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return true, fmt.Errorf("decode response: %w", err)
			}
			return true, nil
		}()
		if done {
			return err
		}
		lastErr = err
		backoff = c.sleep(backoff)
	}
	return lastErr
}

// sleep waits one backoff step with jitter and returns the next step.
func (c *Client) sleep(backoff time.Duration) time.Duration {
	d := withJitter(backoff)
	if c.retryMaxDelay > 0 && d > c.retryMaxDelay {
		d = c.retryMaxDelay
	}
	time.Sleep(d)
	return backoff * 2
}

func readMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 8<<10))
	var raw struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &raw)
	if raw.Detail != "" {
		return raw.Detail
	}
	return raw.Message
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
