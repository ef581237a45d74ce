package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/williamn/expense-assistant/pkg/models"
)

func testReceipt(id, user, session string, storedAt time.Time) *models.Receipt {
	return &models.Receipt{
		ID:        id,
		UserID:    user,
		SessionID: session,
		MIMEType:  "image/png",
		SizeBytes: 1024,
		StoredAt:  storedAt,
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	if err := s.PutReceipt(ctx, testReceipt("aaa111bbb222", "alice", "s1", now)); err != nil {
		t.Fatalf("PutReceipt failed: %v", err)
	}

	got, err := s.GetReceipt(ctx, "aaa111bbb222")
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if got.UserID != "alice" || got.MIMEType != "image/png" {
		t.Errorf("unexpected receipt: %+v", got)
	}

	if _, err := s.GetReceipt(ctx, "missing"); !errors.Is(err, ErrReceiptNotFound) {
		t.Errorf("expected ErrReceiptNotFound, got %v", err)
	}

	if err := s.DeleteReceipt(ctx, "aaa111bbb222"); err != nil {
		t.Fatalf("DeleteReceipt failed: %v", err)
	}
	if err := s.DeleteReceipt(ctx, "aaa111bbb222"); !errors.Is(err, ErrReceiptNotFound) {
		t.Errorf("expected ErrReceiptNotFound on second delete, got %v", err)
	}
}

func TestMemoryStoreListing(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	s.PutReceipt(ctx, testReceipt("r1", "alice", "s1", base.Add(-2*time.Hour)))
	s.PutReceipt(ctx, testReceipt("r2", "alice", "s1", base.Add(-1*time.Hour)))
	s.PutReceipt(ctx, testReceipt("r3", "alice", "s2", base))
	s.PutReceipt(ctx, testReceipt("r4", "bob", "s1", base))

	byUser, err := s.ListReceiptsByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListReceiptsByUser failed: %v", err)
	}
	if len(byUser) != 3 {
		t.Fatalf("expected 3 receipts for alice, got %d", len(byUser))
	}
	if byUser[0].ID != "r3" {
		t.Errorf("expected newest first, got %s", byUser[0].ID)
	}

	bySession, err := s.ListReceiptsBySession(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("ListReceiptsBySession failed: %v", err)
	}
	if len(bySession) != 2 {
		t.Fatalf("expected 2 receipts in session s1, got %d", len(bySession))
	}
	if bySession[0].ID != "r2" || bySession[1].ID != "r1" {
		t.Errorf("unexpected session ordering: %s, %s", bySession[0].ID, bySession[1].ID)
	}
}

func TestMemoryStorePutIsIdempotentByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	r := testReceipt("samehash0000", "alice", "s1", time.Now())
	s.PutReceipt(ctx, r)
	s.PutReceipt(ctx, r)

	all, _ := s.ListReceiptsByUser(ctx, "alice")
	if len(all) != 1 {
		t.Errorf("expected a single record per content hash, got %d", len(all))
	}
}
