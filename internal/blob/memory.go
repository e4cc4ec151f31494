package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory blob store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put seeds an object without going through Upload.
func (m *MemoryStore) Put(object string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[object] = data
}

// Objects returns the current object names.
func (m *MemoryStore) Objects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	return names
}

func (m *MemoryStore) Download(_ context.Context, object string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[object]
	if !ok {
		return nil, fmt.Errorf("object %s does not exist", object)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryStore) Upload(_ context.Context, object string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[object] = cp
	return nil
}

func (m *MemoryStore) SignedURL(object string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + object, nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			delete(m.objects, name)
			deleted++
		}
	}
	return deleted, nil
}
