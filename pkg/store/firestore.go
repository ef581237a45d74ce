package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/williamn/expense-assistant/pkg/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps receipt records in a Firestore collection, the
// backend the hosted deployment uses. Documents are keyed by receipt ID.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore creates a Firestore-backed receipt store. Credentials
// come from the application default credentials of the environment.
func NewFirestoreStore(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, errors.New("firestore store requires a project ID")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

// PutReceipt creates or replaces a receipt record
func (s *FirestoreStore) PutReceipt(ctx context.Context, receipt *models.Receipt) error {
	_, err := s.client.Collection(s.collection).Doc(receipt.ID).Set(ctx, receipt)
	if err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID
func (s *FirestoreStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt: %w", err)
	}

	var r models.Receipt
	if err := snap.DataTo(&r); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return &r, nil
}

// ListReceiptsByUser returns all receipts for a user, newest first
func (s *FirestoreStore) ListReceiptsByUser(ctx context.Context, userID string) ([]*models.Receipt, error) {
	q := s.client.Collection(s.collection).
		Where("user_id", "==", userID).
		OrderBy("stored_at", firestore.Desc)
	return s.runQuery(ctx, q)
}

// ListReceiptsBySession returns all receipts for a user session, newest first
func (s *FirestoreStore) ListReceiptsBySession(ctx context.Context, userID, sessionID string) ([]*models.Receipt, error) {
	q := s.client.Collection(s.collection).
		Where("user_id", "==", userID).
		Where("session_id", "==", sessionID).
		OrderBy("stored_at", firestore.Desc)
	return s.runQuery(ctx, q)
}

func (s *FirestoreStore) runQuery(ctx context.Context, q firestore.Query) ([]*models.Receipt, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	receipts := make([]*models.Receipt, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate receipts: %w", err)
		}
		var r models.Receipt
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("failed to decode receipt: %w", err)
		}
		receipts = append(receipts, &r)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt record
func (s *FirestoreStore) DeleteReceipt(ctx context.Context, id string) error {
	doc := s.client.Collection(s.collection).Doc(id)
	if _, err := doc.Get(ctx); status.Code(err) == codes.NotFound {
		return ErrReceiptNotFound
	}
	if _, err := doc.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

// HealthCheck issues a cheap read against the collection
func (s *FirestoreStore) HealthCheck(ctx context.Context) error {
	it := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore health check failed: %w", err)
	}
	return nil
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
