package objects

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
)

// FromURL builds an object store for a file:, http(s): or memory: URL.
func FromURL(rawURL string) (Objects, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing objects URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		p := FilePath(u)
		slog.Debug("using file objects", slog.String("path", p))
		return NewFileObjects(p), nil
	case "http", "https":
		slog.Debug("using http objects", slog.String("url", u.String()))
		return NewHTTPObjects(*u), nil
	case "memory":
		slog.Warn("using in-memory objects, content is lost on exit")
		return NewMemoryObjects(MemoryConfig{}), nil
	default:
		return nil, fmt.Errorf("unsupported objects scheme %q", u.Scheme)
	}
}

// FilePath extracts the local path of a file: URL. Both file:///abs and file:rel forms are accepted.
func FilePath(u *url.URL) string {
	if u.Opaque != "" {
		return filepath.FromSlash(u.Opaque)
	}
	return filepath.Join(u.Hostname(), filepath.FromSlash(u.Path))
}
