package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/williamn/expense-assistant/pkg/models"
)

var (
	// ErrNotFound is returned when no artifact exists for the given ID
	ErrNotFound = errors.New("artifact not found")
)

// Scope namespaces artifacts the way the agent framework does: one folder
// per application, user and session.
type Scope struct {
	AppName   string
	UserID    string
	SessionID string
}

// Artifact is a stored binary with its MIME type
type Artifact struct {
	Data     []byte
	MIMEType string
}

// Service stores and retrieves content-addressed image artifacts
type Service interface {
	// Save stores data under the given ID, creating a new version
	Save(ctx context.Context, scope Scope, id string, art Artifact) error
	// Load returns the latest version of the artifact
	Load(ctx context.Context, scope Scope, id string) (*Artifact, error)
	// Versions returns the stored version numbers for the artifact,
	// oldest first. An empty slice means the artifact does not exist.
	Versions(ctx context.Context, scope Scope, id string) ([]int, error)
	// Delete removes all versions of the artifact
	Delete(ctx context.Context, scope Scope, id string) error
	Close() error
}

// Config selects and configures an artifact backend
type Config struct {
	Backend    string // "gcs", "local" or "memory"
	BucketName string // GCS bucket
	Dir        string // local backend root directory
	ProjectID  string
}

// New creates an artifact service based on configuration
func New(ctx context.Context, cfg Config) (Service, error) {
	switch cfg.Backend {
	case "gcs":
		return NewGCSService(ctx, cfg.ProjectID, cfg.BucketName)
	case "local", "":
		dir := cfg.Dir
		if dir == "" {
			dir = "./artifacts"
		}
		return NewLocalService(dir)
	case "memory":
		return NewMemoryService(), nil
	default:
		return nil, fmt.Errorf("unsupported artifact backend: %s", cfg.Backend)
	}
}

// HashID derives the artifact ID from the image content: the first 12 hex
// characters of its SHA-256. Identical uploads always map to the same ID.
func HashID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

// StoreImage decodes an uploaded image and stores it under its content
// hash. When a version already exists the upload is skipped, so resending
// the same receipt is free. Returns the hash ID and the decoded bytes.
func StoreImage(ctx context.Context, svc Service, scope Scope, img models.ImageData) (string, []byte, error) {
	data, err := base64.StdEncoding.DecodeString(img.SerializedImage)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}

	id := HashID(data)

	versions, err := svc.Versions(ctx, scope, id)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list versions for %s: %w", id, err)
	}
	if len(versions) > 0 {
		return id, data, nil
	}

	if err := svc.Save(ctx, scope, id, Artifact{Data: data, MIMEType: img.MIMEType}); err != nil {
		return "", nil, fmt.Errorf("failed to save artifact %s: %w", id, err)
	}
	return id, data, nil
}

// FetchImage loads an artifact and returns it in wire form
func FetchImage(ctx context.Context, svc Service, scope Scope, id string) (*models.ImageData, error) {
	art, err := svc.Load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return &models.ImageData{
		SerializedImage: base64.StdEncoding.EncodeToString(art.Data),
		MIMEType:        art.MIMEType,
	}, nil
}
