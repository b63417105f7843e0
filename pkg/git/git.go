// Package git drives an external git binary to keep a working tree in sync with a
// remote index and to record publishes as commits.
//
// Every invocation runs with GIT_DIR and GIT_WORK_TREE pointing at this Repo, so
// independent checkouts share one binary without picking up each other's state.
// Operations against one checkout are not locked: callers must not run them
// concurrently.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thepwagner/schemarepo/pkg/core"
)

// BinaryEnv overrides the git executable.
const BinaryEnv = "SCHEMAREPO_GIT"

// DefaultRevision is fetched when Config.Revision is empty.
const DefaultRevision = "master"

// Client is the version-control capability the git-backed index needs.
type Client interface {
	// Path is the working tree.
	Path() string
	// Update replaces the working tree with the remote revision.
	Update(ctx context.Context) error
	// Add stages a path relative to the working tree.
	Add(ctx context.Context, path string) error
	// Commit records staged changes.
	Commit(ctx context.Context, message string) error
}

type Config struct {
	// Remote is the URL or path fetched by Update.
	Remote string
	// Revision is the branch or ref fetched by Update.
	Revision string
	// WorkTree is the checkout directory.
	WorkTree string
	// GitDir defaults to WorkTree/.git.
	GitDir string
	// Env is appended to every invocation's environment.
	Env []string
}

// Repo is a Client that shells out to git.
type Repo struct {
	bin      string
	remote   string
	revision string
	workTree string
	gitDir   string
	env      []string
}

var _ Client = (*Repo)(nil)

// NewRepo returns a Repo without touching the filesystem.
func NewRepo(cfg Config) *Repo {
	bin := os.Getenv(BinaryEnv)
	if bin == "" {
		bin = "git"
	}
	revision := cfg.Revision
	if revision == "" {
		revision = DefaultRevision
	}
	gitDir := cfg.GitDir
	if gitDir == "" {
		gitDir = filepath.Join(cfg.WorkTree, ".git")
	}
	return &Repo{
		bin:      bin,
		remote:   cfg.Remote,
		revision: revision,
		workTree: cfg.WorkTree,
		gitDir:   gitDir,
		env:      cfg.Env,
	}
}

// Open returns a Repo, initializing the working tree if it does not exist yet.
func Open(ctx context.Context, cfg Config) (*Repo, error) {
	r := NewRepo(cfg)
	if err := r.initIfAbsent(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) Path() string {
	return r.workTree
}

func (r *Repo) initIfAbsent(ctx context.Context) error {
	if _, err := os.Stat(r.gitDir); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking git dir: %w", err)
	}

	slog.Debug("initializing git repository", slog.String("work_tree", r.workTree))
	if err := os.MkdirAll(r.workTree, 0755); err != nil {
		return fmt.Errorf("creating work tree: %w", err)
	}
	_, err := r.Run(ctx, "init")
	return err
}

func (r *Repo) Update(ctx context.Context) error {
	slog.Debug("updating git repository",
		slog.String("remote", r.remote),
		slog.String("revision", r.revision),
		slog.String("work_tree", r.workTree),
	)
	if _, err := r.Run(ctx, "fetch", r.remote, r.revision); err != nil {
		return err
	}
	_, err := r.Run(ctx, "reset", "--hard", "FETCH_HEAD")
	return err
}

func (r *Repo) Add(ctx context.Context, path string) error {
	_, err := r.Run(ctx, "add", "--", path)
	return err
}

func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := r.Run(ctx, "commit", "-m", message)
	return err
}

// Run executes git with this repository's environment and returns stdout.
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Dir = r.workTree
	cmd.Env = append(os.Environ(), "GIT_DIR="+r.gitDir, "GIT_WORK_TREE="+r.workTree)
	cmd.Env = append(cmd.Env, r.env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	fullArgs := append([]string{r.bin}, args...)
	slog.Debug("running git", slog.String("args", strings.Join(fullArgs, " ")))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &core.VersionControlError{
				Args:     fullArgs,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", &core.VersionControlError{Args: fullArgs, ExitCode: -1, Err: err}
	}
	return stdout.String(), nil
}
