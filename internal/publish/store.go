// Package publish mirrors a written documentation tree into an object store
// so a hosted viewer can serve it.
package publish

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("object not found")

// Store holds documentation files under a prefix (one prefix per published
// tree).
type Store interface {
	Put(ctx context.Context, prefix, name string, content []byte) error
	Get(ctx context.Context, prefix, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// objectKey joins prefix and name into a slash-separated key.
func objectKey(prefix, name string) string {
	return strings.TrimSuffix(strings.TrimSpace(prefix), "/") + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

func checkArgs(prefix, name string) error {
	if strings.TrimSpace(prefix) == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// contentType picks a MIME type from the file extension.
func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml":
		return "application/xml"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// MemoryStore keeps objects in a map. It backs tests and dry runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, prefix, name string, content []byte) error {
	if err := checkArgs(prefix, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectKey(prefix, name)] = append([]byte(nil), content...)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, prefix, name string) ([]byte, error) {
	if err := checkArgs(prefix, name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[objectKey(prefix, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

// List implements Store. Names are returned sorted and relative to prefix.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, fmt.Errorf("prefix is required")
	}
	p := strings.TrimSuffix(strings.TrimSpace(prefix), "/") + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for key := range s.data {
		if strings.HasPrefix(key, p) {
			out = append(out, strings.TrimPrefix(key, p))
		}
	}
	sort.Strings(out)
	return out, nil
}
