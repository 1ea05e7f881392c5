package kvstore

import (
	"sync"

	"github.com/knadh/koanf/v2"
)

// MemoryBackend keeps every scope in memory. It is intended for tests and
// throwaway sessions. Scopes outlive the handles opened on them, so a second
// Open of the same scope sees what earlier handles synced.
type MemoryBackend struct {
	mu       sync.Mutex
	scopes   map[Scope]*koanf.Koanf
	statuses map[Scope]Status
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		scopes:   map[Scope]*koanf.Koanf{},
		statuses: map[Scope]Status{},
	}
}

// Open opens scope. Fallbacks have no effect: memory scopes have no
// organization- or system-wide layers.
func (b *MemoryBackend) Open(scope Scope, opts OpenOptions) (Handle, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	return openHandle(&memoryStorage{backend: b, scope: scope}, nil, opts), nil
}

// Seed writes values straight into scope, bypassing handles.
func (b *MemoryBackend) Seed(scope Scope, values map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tree, ok := b.scopes[scope]
	if !ok {
		tree = newTree()
		b.scopes[scope] = tree
	}
	for k, v := range values {
		if err := tree.Set(k, v); err != nil {
			logger.Warningf("seeding %q in %s: %v", k, scope, err)
		}
	}
}

// Snapshot returns the flattened contents of scope.
func (b *MemoryBackend) Snapshot(scope Scope) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string]any{}
	if tree, ok := b.scopes[scope]; ok {
		for k, v := range tree.All() {
			out[k] = v
		}
	}
	return out
}

// SetSyncStatus makes every following save of scope fail with status.
// Passing NoError clears the failure.
func (b *MemoryBackend) SetSyncStatus(scope Scope, status Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == NoError {
		delete(b.statuses, scope)
		return
	}
	b.statuses[scope] = status
}

type memoryStorage struct {
	backend *MemoryBackend
	scope   Scope
}

func (s *memoryStorage) path() string {
	return "memory:" + s.scope.String()
}

func (s *memoryStorage) load() (*koanf.Koanf, Status) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if tree, ok := s.backend.scopes[s.scope]; ok {
		return tree.Copy(), NoError
	}
	return newTree(), NoError
}

func (s *memoryStorage) save(tree *koanf.Koanf) Status {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if status, failing := s.backend.statuses[s.scope]; failing {
		return status
	}
	s.backend.scopes[s.scope] = tree.Copy()
	return NoError
}

func (s *memoryStorage) lock() (func(), error) {
	return func() {}, nil
}
