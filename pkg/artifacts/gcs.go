package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSService stores artifacts in a Google Cloud Storage bucket under
// <app>/<user>/<session>/<id>/<version> objects, the same layout the agent
// framework's artifact service uses.
type GCSService struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSService creates a GCS-backed artifact service. Credentials come
// from the application default credentials of the environment.
func NewGCSService(ctx context.Context, projectID, bucketName string) (*GCSService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSService{
		client: client,
		bucket: client.Bucket(bucketName),
	}, nil
}

func objectPrefix(scope Scope, id string) string {
	return fmt.Sprintf("%s/%s/%s/%s/", scope.AppName, scope.UserID, scope.SessionID, id)
}

// Save writes the next version of the artifact
func (s *GCSService) Save(ctx context.Context, scope Scope, id string, art Artifact) error {
	versions, err := s.Versions(ctx, scope, id)
	if err != nil {
		return err
	}
	next := 0
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	obj := s.bucket.Object(objectPrefix(scope, id) + strconv.Itoa(next))
	w := obj.NewWriter(ctx)
	w.ContentType = art.MIMEType
	if _, err := w.Write(art.Data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Load reads the latest version of the artifact
func (s *GCSService) Load(ctx context.Context, scope Scope, id string) (*Artifact, error) {
	versions, err := s.Versions(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	latest := versions[len(versions)-1]

	obj := s.bucket.Object(objectPrefix(scope, id) + strconv.Itoa(latest))
	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return &Artifact{Data: data, MIMEType: r.Attrs.ContentType}, nil
}

// Versions lists stored version numbers for the artifact, oldest first
func (s *GCSService) Versions(ctx context.Context, scope Scope, id string) ([]int, error) {
	prefix := objectPrefix(scope, id)
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var versions []int
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		v, convErr := strconv.Atoi(strings.TrimPrefix(attrs.Name, prefix))
		if convErr != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// Delete removes all versions of the artifact
func (s *GCSService) Delete(ctx context.Context, scope Scope, id string) error {
	prefix := objectPrefix(scope, id)
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		if err := s.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", attrs.Name, err)
		}
	}
	return nil
}

// Close releases the underlying client
func (s *GCSService) Close() error {
	return s.client.Close()
}
