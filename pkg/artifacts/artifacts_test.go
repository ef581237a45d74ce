package artifacts

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/williamn/expense-assistant/pkg/models"
)

var testScope = Scope{AppName: "expense-assistant", UserID: "alice", SessionID: "s1"}

func TestHashID(t *testing.T) {
	id := HashID([]byte("receipt bytes"))
	if len(id) != 12 {
		t.Fatalf("expected 12 character ID, got %q", id)
	}
	if id != HashID([]byte("receipt bytes")) {
		t.Error("same content must hash to the same ID")
	}
	if id == HashID([]byte("other bytes")) {
		t.Error("different content must hash to different IDs")
	}
}

func TestStoreImageIsIdempotent(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	img := models.ImageData{
		SerializedImage: base64.StdEncoding.EncodeToString([]byte("fake png")),
		MIMEType:        "image/png",
	}

	id1, data, err := StoreImage(ctx, svc, testScope, img)
	if err != nil {
		t.Fatalf("StoreImage failed: %v", err)
	}
	if string(data) != "fake png" {
		t.Errorf("unexpected decoded bytes: %q", data)
	}

	// Second upload of identical content must not create a new version
	id2, _, err := StoreImage(ctx, svc, testScope, img)
	if err != nil {
		t.Fatalf("StoreImage failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("IDs differ: %s vs %s", id1, id2)
	}

	versions, err := svc.Versions(ctx, testScope, id1)
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("expected exactly one version, got %d", len(versions))
	}
}

func TestStoreImageRejectsBadBase64(t *testing.T) {
	svc := NewMemoryService()
	_, _, err := StoreImage(context.Background(), svc, testScope, models.ImageData{
		SerializedImage: "not base64!!",
		MIMEType:        "image/png",
	})
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchImage(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	err := svc.Save(ctx, testScope, "abc123def456", Artifact{Data: []byte("jpeg data"), MIMEType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	img, err := FetchImage(ctx, svc, testScope, "abc123def456")
	if err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("unexpected MIME type: %s", img.MIMEType)
	}
	decoded, _ := base64.StdEncoding.DecodeString(img.SerializedImage)
	if string(decoded) != "jpeg data" {
		t.Errorf("unexpected content: %q", decoded)
	}

	if _, err := FetchImage(ctx, svc, testScope, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalServiceRoundTrip(t *testing.T) {
	svc, err := NewLocalService(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalService failed: %v", err)
	}
	ctx := context.Background()

	art := Artifact{Data: []byte("local bytes"), MIMEType: "image/png"}
	if err := svc.Save(ctx, testScope, "deadbeef0123", art); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := svc.Save(ctx, testScope, "deadbeef0123", art); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	versions, err := svc.Versions(ctx, testScope, "deadbeef0123")
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 2 || versions[0] != 0 || versions[1] != 1 {
		t.Errorf("unexpected versions: %v", versions)
	}

	got, err := svc.Load(ctx, testScope, "deadbeef0123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got.Data) != "local bytes" || got.MIMEType != "image/png" {
		t.Errorf("unexpected artifact: %+v", got)
	}

	if _, err := svc.Load(ctx, testScope, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCache(t *testing.T) {
	backend := NewMemoryService()
	cache := NewCache(backend)
	ctx := context.Background()

	art := Artifact{Data: []byte("cached"), MIMEType: "image/png"}
	if err := backend.Save(ctx, testScope, "cachedid0000", art); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// First load misses, second hits
	if _, err := cache.Load(ctx, testScope, "cachedid0000"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := cache.Load(ctx, testScope, "cachedid0000"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}
