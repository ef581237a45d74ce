package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/williamn/expense-assistant/pkg/models"
)

var (
	// ErrReceiptNotFound is returned when no receipt exists for an ID
	ErrReceiptNotFound = errors.New("receipt not found")
)

// Store defines the interface for receipt metadata persistence.
// Memory, SQLite and Firestore all implement this interface.
type Store interface {
	// PutReceipt creates or replaces the record for a receipt. Records are
	// keyed by content hash, so storing the same receipt twice is a no-op
	// apart from refreshing metadata.
	PutReceipt(ctx context.Context, receipt *models.Receipt) error
	GetReceipt(ctx context.Context, id string) (*models.Receipt, error)
	ListReceiptsByUser(ctx context.Context, userID string) ([]*models.Receipt, error)
	ListReceiptsBySession(ctx context.Context, userID, sessionID string) ([]*models.Receipt, error)
	DeleteReceipt(ctx context.Context, id string) error

	// Lifecycle
	HealthCheck(ctx context.Context) error
	Close() error
}

// Config holds database configuration
type Config struct {
	Type string // "memory", "sqlite" or "firestore"

	// SQLite
	Path string

	// Firestore
	ProjectID  string
	Collection string
}

// NewStore creates a store based on configuration
func NewStore(ctx context.Context, config Config) (Store, error) {
	switch config.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		path := config.Path
		if path == "" {
			path = "receipts.db"
		}
		return NewSQLiteStore(path)
	case "firestore":
		return NewFirestoreStore(ctx, config.ProjectID, config.Collection)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}
