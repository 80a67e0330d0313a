package storage

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage はローカル開発とテスト用
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string]Object
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: map[string]Object{}}
}

func (m *MemoryStorage) Upload(ctx context.Context, obj Object, pathHint string) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	name := path.Join(strings.Trim(pathHint, "/"), uuid.NewString()+extFor(obj))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = obj
	return Stored{URL: "memory://" + name, Path: name}, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectPath]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectPath)
	return nil
}

func (m *MemoryStorage) Open(ctx context.Context, objectPath string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectPath]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return obj.Bytes, nil
}

func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
