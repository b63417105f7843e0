package objects

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/core"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// HTTPObjects is a remote object store. Every call is a single request: failures
// are returned to the caller without retrying.
type HTTPObjects struct {
	URL    url.URL
	client *http.Client
}

var _ Objects = (*HTTPObjects)(nil)

func NewHTTPObjects(baseURL url.URL) *HTTPObjects {
	return &HTTPObjects{
		URL:    baseURL,
		client: http.DefaultClient,
	}
}

// WithClient replaces the HTTP client.
func (h *HTTPObjects) WithClient(client *http.Client) *HTTPObjects {
	h.client = client
	return h
}

func (h *HTTPObjects) objectURL(c checksum.Checksum) *url.URL {
	return h.URL.JoinPath(c.String())
}

func (h *HTTPObjects) PutObject(ctx context.Context, c checksum.Checksum, r io.Reader, force bool) (bool, error) {
	u := h.objectURL(c)
	if force {
		q := u.Query()
		q.Set("force", "true")
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), r)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, &core.NetworkError{Method: http.MethodPut, URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("put object", slog.String("url", u.String()), slog.Int("status", resp.StatusCode))
	if !success(resp.StatusCode) {
		return false, responseError(resp)
	}
	return true, nil
}

func (h *HTTPObjects) GetObject(ctx context.Context, c checksum.Checksum) (*source.Source, error) {
	u := h.objectURL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &core.NetworkError{Method: http.MethodGet, URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("get object", slog.String("url", u.String()), slog.Int("status", resp.StatusCode))
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !success(resp.StatusCode) {
		return nil, responseError(resp)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, &core.NetworkError{Method: http.MethodGet, URL: u.String(), Err: err}
	}
	return source.FromBytes(u.String(), buf.Bytes()), nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func responseError(resp *http.Response) error {
	e := &core.NetworkError{
		Method: resp.Request.Method,
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
	}
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil && utf8.Valid(b) {
		e.Body = strings.TrimSpace(string(b))
	}
	return e
}
