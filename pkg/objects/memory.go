package objects

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/thepwagner/schemarepo/pkg/checksum"
	"github.com/thepwagner/schemarepo/pkg/source"
)

// MemoryObjects keeps objects in a bounded in-memory LRU. Evicted objects are gone.
type MemoryObjects struct {
	lru *expirable.LRU[checksum.Checksum, []byte]
}

type MemoryConfig struct {
	Size int `yaml:"size"`
}

var _ Objects = (*MemoryObjects)(nil)

func NewMemoryObjects(cfg MemoryConfig) *MemoryObjects {
	size := cfg.Size
	if size <= 0 {
		size = 1024
	}
	return &MemoryObjects{
		lru: expirable.NewLRU[checksum.Checksum, []byte](size, nil, 0),
	}
}

func (m *MemoryObjects) PutObject(_ context.Context, c checksum.Checksum, r io.Reader, force bool) (bool, error) {
	if !force && m.lru.Contains(c) {
		return false, nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return false, fmt.Errorf("reading object: %w", err)
	}
	m.lru.Add(c, b)
	return true, nil
}

func (m *MemoryObjects) GetObject(_ context.Context, c checksum.Checksum) (*source.Source, error) {
	b, ok := m.lru.Get(c)
	if !ok {
		return nil, nil
	}
	return source.FromBytes("memory:"+c.String(), bytes.Clone(b)), nil
}

// Len is the number of stored objects.
func (m *MemoryObjects) Len() int {
	return m.lru.Len()
}
