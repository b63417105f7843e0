package git

import (
	"context"
	"fmt"
)

// MemoryClient is a Client that records calls instead of running git.
// The working tree is a plain directory managed by the caller.
type MemoryClient struct {
	Dir     string
	Updates int
	Staged  []string
	Commits []Commit

	// Err, when set, is returned by every operation.
	Err error
}

// Commit is a recorded commit.
type Commit struct {
	Message string
	Paths   []string
}

var _ Client = (*MemoryClient)(nil)

func NewMemoryClient(dir string) *MemoryClient {
	return &MemoryClient{Dir: dir}
}

func (m *MemoryClient) Path() string {
	return m.Dir
}

func (m *MemoryClient) Update(context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	m.Updates++
	return nil
}

func (m *MemoryClient) Add(_ context.Context, path string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Staged = append(m.Staged, path)
	return nil
}

func (m *MemoryClient) Commit(_ context.Context, message string) error {
	if m.Err != nil {
		return m.Err
	}
	if len(m.Staged) == 0 {
		return fmt.Errorf("nothing to commit")
	}
	m.Commits = append(m.Commits, Commit{Message: message, Paths: m.Staged})
	m.Staged = nil
	return nil
}
