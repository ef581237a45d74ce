package store

import (
	"context"
	"sort"
	"sync"

	"github.com/williamn/expense-assistant/pkg/models"
)

// MemoryStore is an in-memory implementation of the receipt store
type MemoryStore struct {
	receipts map[string]*models.Receipt
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{receipts: make(map[string]*models.Receipt)}
}

// PutReceipt creates or replaces a receipt record
func (s *MemoryStore) PutReceipt(ctx context.Context, receipt *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *receipt
	s.receipts[receipt.ID] = &copied
	return nil
}

// GetReceipt retrieves a receipt by ID
func (s *MemoryStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[id]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	copied := *r
	return &copied, nil
}

// ListReceiptsByUser returns all receipts for a user, newest first
func (s *MemoryStore) ListReceiptsByUser(ctx context.Context, userID string) ([]*models.Receipt, error) {
	return s.list(func(r *models.Receipt) bool {
		return r.UserID == userID
	})
}

// ListReceiptsBySession returns all receipts for a user session, newest first
func (s *MemoryStore) ListReceiptsBySession(ctx context.Context, userID, sessionID string) ([]*models.Receipt, error) {
	return s.list(func(r *models.Receipt) bool {
		return r.UserID == userID && r.SessionID == sessionID
	})
}

func (s *MemoryStore) list(match func(*models.Receipt) bool) ([]*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := make([]*models.Receipt, 0)
	for _, r := range s.receipts {
		if match(r) {
			copied := *r
			receipts = append(receipts, &copied)
		}
	}
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].StoredAt.After(receipts[j].StoredAt)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt record
func (s *MemoryStore) DeleteReceipt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[id]; !ok {
		return ErrReceiptNotFound
	}
	delete(s.receipts, id)
	return nil
}

// HealthCheck always succeeds for the in-memory store
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
