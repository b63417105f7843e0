package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/thepwagner/schemarepo/pkg/objects"
)

type SchemeKind int

const (
	// LocalFile is a file: URL or a plain path.
	LocalFile SchemeKind = iota
	// VersionControlled is git+<inner>: a remote checked out with git.
	VersionControlled
	// HTTP is an http: or https: URL.
	HTTP
)

func (k SchemeKind) String() string {
	switch k {
	case LocalFile:
		return "file"
	case VersionControlled:
		return "git"
	case HTTP:
		return "http"
	default:
		return fmt.Sprintf("SchemeKind(%d)", int(k))
	}
}

// Scheme is a repository URL parsed once at startup.
type Scheme struct {
	Kind SchemeKind
	// Raw is the URL as configured.
	Raw string
	// URL has any git+ prefix removed from its scheme.
	URL *url.URL
	// Path is the local path of a LocalFile scheme.
	Path string
}

// ParseScheme classifies a repository URL. Strings without a scheme are local paths.
func ParseScheme(raw string) (Scheme, error) {
	if raw == "" {
		return Scheme{}, fmt.Errorf("empty repository URL")
	}
	if filepath.IsAbs(raw) {
		return Scheme{Kind: LocalFile, Raw: raw, Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Scheme{}, fmt.Errorf("error parsing repository URL: %w", err)
	}

	switch {
	case u.Scheme == "":
		return Scheme{Kind: LocalFile, Raw: raw, Path: filepath.FromSlash(u.Path)}, nil
	case u.Scheme == "file":
		return Scheme{Kind: LocalFile, Raw: raw, URL: u, Path: objects.FilePath(u)}, nil
	case u.Scheme == "http" || u.Scheme == "https":
		return Scheme{Kind: HTTP, Raw: raw, URL: u}, nil
	case strings.HasPrefix(u.Scheme, "git+"):
		inner := *u
		inner.Scheme = strings.TrimPrefix(u.Scheme, "git+")
		if inner.Scheme == "" {
			return Scheme{}, fmt.Errorf("missing scheme after git+ in %q", raw)
		}
		return Scheme{Kind: VersionControlled, Raw: raw, URL: &inner}, nil
	default:
		return Scheme{}, fmt.Errorf("unsupported repository scheme %q", u.Scheme)
	}
}

// Remote is the location handed to git for a VersionControlled scheme.
func (s Scheme) Remote() string {
	if s.URL == nil {
		return s.Path
	}
	if s.URL.Scheme == "file" {
		return objects.FilePath(s.URL)
	}
	u := *s.URL
	u.Fragment = ""
	return u.String()
}

// Revision is the URL fragment of a VersionControlled scheme, naming the branch to
// check out. Empty selects git.DefaultRevision.
func (s Scheme) Revision() string {
	if s.URL == nil {
		return ""
	}
	return s.URL.Fragment
}

func (s Scheme) String() string {
	return s.Raw
}
