package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// LocalService stores artifacts on the local filesystem, mirroring the GCS
// object layout: <dir>/<app>/<user>/<session>/<id>/<version> with a
// sidecar <version>.mime file holding the content type.
type LocalService struct {
	dir string
	mu  sync.Mutex
}

// NewLocalService creates a filesystem-backed artifact service
func NewLocalService(dir string) (*LocalService, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &LocalService{dir: dir}, nil
}

func (s *LocalService) artifactDir(scope Scope, id string) string {
	return filepath.Join(s.dir, scope.AppName, scope.UserID, scope.SessionID, id)
}

// Save writes the next version of the artifact
func (s *LocalService) Save(ctx context.Context, scope Scope, id string, art Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.versionsLocked(scope, id)
	if err != nil {
		return err
	}
	next := 0
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	dir := s.artifactDir(scope, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, strconv.Itoa(next))
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.WriteFile(path+".mime", []byte(art.MIMEType), 0644); err != nil {
		return fmt.Errorf("failed to write artifact metadata: %w", err)
	}
	return nil
}

// Load reads the latest version of the artifact
func (s *LocalService) Load(ctx context.Context, scope Scope, id string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.versionsLocked(scope, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	latest := versions[len(versions)-1]

	path := filepath.Join(s.artifactDir(scope, id), strconv.Itoa(latest))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	mime, err := os.ReadFile(path + ".mime")
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact metadata: %w", err)
	}

	return &Artifact{Data: data, MIMEType: string(mime)}, nil
}

// Versions lists stored version numbers for the artifact, oldest first
func (s *LocalService) Versions(ctx context.Context, scope Scope, id string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versionsLocked(scope, id)
}

func (s *LocalService) versionsLocked(scope Scope, id string) ([]int, error) {
	entries, err := os.ReadDir(s.artifactDir(scope, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list artifact versions: %w", err)
	}

	var versions []int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".mime") {
			continue
		}
		v, convErr := strconv.Atoi(e.Name())
		if convErr != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// Delete removes all versions of the artifact
func (s *LocalService) Delete(ctx context.Context, scope Scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(s.artifactDir(scope, id)); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem backend
func (s *LocalService) Close() error {
	return nil
}
