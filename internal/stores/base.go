package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/sanitize"
	"github.com/nupi-ai/webstore-publish/internal/version"
)

const (
	maxResponseSize = 1 << 20 // 1 MB
	errorBodyLimit  = 2048
	traceBodyLimit  = 512
)

// base carries what every store client shares: the HTTP client, request
// pacing and polling parameters.
type base struct {
	store        browser.ID
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func newBase(store browser.ID, defaultBaseURL string, cfg Config) base {
	b := base{
		store:        store,
		baseURL:      strings.TrimRight(defaultBaseURL, "/"),
		http:         cfg.HTTPClient,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
	}
	if cfg.BaseURL != "" {
		b.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if b.http == nil {
		b.http = newHTTPClient()
	}
	if b.pollInterval <= 0 {
		b.pollInterval = constants.StorePollInterval
	}
	if b.pollTimeout <= 0 {
		b.pollTimeout = constants.StorePollMaxElapsed
	}
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = constants.StoreRequestInterval
	}
	b.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return b
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: constants.StoreHTTPTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			// Block redirects to non-HTTP(S) schemes (SSRF prevention)
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to disallowed scheme: %s", req.URL.Scheme)
			}
			return nil
		},
	}
}

// session is the per-submission context: diagnostics, the credential
// values to keep out of logs, and how to authorize a request.
type session struct {
	log     *diag.Logger
	secrets []string
	auth    func(req *http.Request) error
}

func newSession(opts browser.Options, log *diag.Logger) *session {
	return &session{log: log, secrets: opts.Secrets()}
}

func (s *session) addSecret(v string) {
	if v != "" {
		s.secrets = append(s.secrets, v)
	}
}

// outgoing describes one request.
type outgoing struct {
	method      string
	path        string
	body        io.Reader
	size        int64
	contentType string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// send performs one request against the store. Non-2xx responses become
// *APIError with a sanitized body.
func (b *base) send(ctx context.Context, s *session, out outgoing) (*response, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := b.baseURL + out.path

	req, err := http.NewRequestWithContext(ctx, out.method, url, out.body)
	if err != nil {
		return nil, err
	}
	if out.body != nil && out.size >= 0 {
		req.ContentLength = out.size
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if out.contentType != "" {
		req.Header.Set("Content-Type", out.contentType)
	}
	if s.auth != nil {
		if err := s.auth(req); err != nil {
			return nil, fmt.Errorf("authorize request: %w", err)
		}
	}

	s.log.Log("%s %s", out.method, url)
	started := time.Now()
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if diag.VerboseSignal() {
		s.log.Log("HTTP %d after %s: %s", resp.StatusCode, time.Since(started).Round(time.Millisecond),
			sanitize.ForLog(string(data), traceBodyLimit, s.secrets...))
	} else {
		s.log.Log("HTTP %d after %s", resp.StatusCode, time.Since(started).Round(time.Millisecond))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Store:      b.store,
			Method:     out.method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       sanitize.ForLog(strings.TrimSpace(string(data)), errorBodyLimit, s.secrets...),
		}
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// sendJSON sends payload (if any) as JSON and decodes the reply into dst
// (if any).
func (b *base) sendJSON(ctx context.Context, s *session, method, path string, payload, dst any) (*response, error) {
	out := outgoing{method: method, path: path, size: -1}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		out.body = bytes.NewReader(data)
		out.size = int64(len(data))
		out.contentType = "application/json"
	}
	resp, err := b.send(ctx, s, out)
	if err != nil {
		return nil, err
	}
	if dst != nil {
		if err := decodeJSON(resp.body, dst); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

func decodeJSON(data []byte, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fileBody opens path for streaming as a request body.
func fileBody(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// multipartForm builds a multipart body from plain fields and files
// (field name → path).
func multipartForm(fields map[string]string, files map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for field, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		part, err := w.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			f.Close()
			return nil, "", err
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// poll calls check until it reports done, fails, or the poll timeout
// elapses. check returns errPending to keep waiting.
func (b *base) poll(ctx context.Context, what string, check func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := check()
		if err == nil || errors.Is(err, errPending) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(b.pollInterval)),
		backoff.WithMaxElapsedTime(b.pollTimeout),
	)
	if errors.Is(err, errPending) {
		return fmt.Errorf("timed out after %s waiting for %s", b.pollTimeout, what)
	}
	return err
}
