package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/storage"
)

// Verify that *storage.Local and *storage.S3 implement domain.BlobStore at compile time.
var (
	_ domain.BlobStore = (*storage.Local)(nil)
	_ domain.BlobStore = (*storage.S3)(nil)
)

func TestLocal_PutGetDelete(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "home-designs/covers/a.jpg", []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err := store.Exists(ctx, "home-designs/covers/a.jpg")
	if err != nil || !ok {
		t.Fatalf("expected blob to exist, ok=%v err=%v", ok, err)
	}

	data, err := store.Get(ctx, "home-designs/covers/a.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "jpeg" {
		t.Fatalf("expected %q, got %q", "jpeg", data)
	}

	if err := store.Delete(ctx, "home-designs/covers/a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err = store.Exists(ctx, "home-designs/covers/a.jpg")
	if err != nil || ok {
		t.Fatalf("expected blob to be gone, ok=%v err=%v", ok, err)
	}
}

func TestLocal_DeleteMissing(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	err = store.Delete(context.Background(), "floor-designs/files/missing.pdf")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocal_GetMissing(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	_, err = store.Get(context.Background(), "nope.png")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	err = store.Put(context.Background(), "../escape.txt", []byte("x"), "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
