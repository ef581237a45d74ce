package artifacts

import (
	"context"
	"sync"
)

// MemoryService is an in-memory artifact service used in tests and for
// ephemeral deployments
type MemoryService struct {
	mu       sync.RWMutex
	versions map[string][]Artifact
}

// NewMemoryService creates a new in-memory artifact service
func NewMemoryService() *MemoryService {
	return &MemoryService{versions: make(map[string][]Artifact)}
}

func memKey(scope Scope, id string) string {
	return scope.AppName + "/" + scope.UserID + "/" + scope.SessionID + "/" + id
}

// Save appends a new version of the artifact
func (s *MemoryService) Save(ctx context.Context, scope Scope, id string, art Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(scope, id)
	s.versions[key] = append(s.versions[key], art)
	return nil
}

// Load returns the latest version of the artifact
func (s *MemoryService) Load(ctx context.Context, scope Scope, id string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arts := s.versions[memKey(scope, id)]
	if len(arts) == 0 {
		return nil, ErrNotFound
	}
	latest := arts[len(arts)-1]
	return &latest, nil
}

// Versions lists stored version numbers, oldest first
func (s *MemoryService) Versions(ctx context.Context, scope Scope, id string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arts := s.versions[memKey(scope, id)]
	versions := make([]int, len(arts))
	for i := range arts {
		versions[i] = i
	}
	return versions, nil
}

// Delete removes all versions of the artifact
func (s *MemoryService) Delete(ctx context.Context, scope Scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, memKey(scope, id))
	return nil
}

// Close is a no-op for the in-memory backend
func (s *MemoryService) Close() error {
	return nil
}
