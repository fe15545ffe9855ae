package storage

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

type memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns a Storage that keeps values in memory. It is safe for concurrent use.
func NewMemory() Storage {
	return &memory{
		values: make(map[string][]byte),
	}
}

func (m *memory) Has(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok, nil
}

func (m *memory) Put(ctx context.Context, key string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = bytes.Clone(content)
	return nil
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(content), nil
}

func (m *memory) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	content, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	return nil
}

func (m *memory) Update(ctx context.Context, key string, fn func(content []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.values[key]
	if !ok {
		return ErrNotFound
	}
	out, err := fn(bytes.Clone(content))
	if err != nil {
		return err
	}
	m.values[key] = bytes.Clone(out)
	return nil
}

func (m *memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
