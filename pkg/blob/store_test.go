package blob

import (
	"io"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()

	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	return store
}

func TestSaveOpenDelete(t *testing.T) {
	store := newTestStore(t)

	data := []byte("fake-image-bytes")
	key := "listings/abc123.jpg"

	if err := store.Save(key, data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !store.Exists(key) {
		t.Error("expected blob to exist after save")
	}

	rc, err := store.Open(key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("expected %q, got %q", data, got)
	}

	if err := store.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if store.Exists(key) {
		t.Error("expected blob to be gone after delete")
	}
}

func TestOpenMissingBlob(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Open("listings/missing.jpg"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingBlobIsNoop(t *testing.T) {
	store := newTestStore(t)

	if err := store.Delete("listings/missing.jpg"); err != nil {
		t.Errorf("expected nil for missing blob, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("../escape.txt", []byte("x")); err == nil {
		t.Error("expected error for traversal key")
	}
}
