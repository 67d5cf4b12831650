package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"clipstudio/internal/format"
)

func newTestStore(t *testing.T, ttl time.Duration) *UploadStore {
	t.Helper()
	store, err := NewUploadStore(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("NewUploadStore: %v", err)
	}
	return store
}

func TestSaveOpenRoundTrip(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	want := format.File{Name: "footage.mp4", MIME: "video/mp4", Data: []byte{0xde, 0xad, 0xbe, 0xef}}
	key, err := store.Save(ctx, "user-1-1700000000000", want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Open(ctx, "user-1-1700000000000", key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Name != want.Name || got.MIME != want.MIME || !bytes.Equal(got.Data, want.Data) {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}
}

func TestOpenMissingBlob(t *testing.T) {
	store := newTestStore(t, time.Hour)
	if _, err := store.Open(context.Background(), "session", "nope"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open missing = %v, want ErrNotExist", err)
	}
}

func TestHasFilesAndClear(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	if store.HasFiles(ctx, "session") {
		t.Fatal("empty session should have no files")
	}
	if _, err := store.Save(ctx, "session", format.File{Name: "a.bin", MIME: "application/octet-stream", Data: []byte{1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.HasFiles(ctx, "session") {
		t.Fatal("session should have files after save")
	}
	if err := store.Clear(ctx, "session"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.HasFiles(ctx, "session") {
		t.Fatal("session should be empty after clear")
	}
}

func TestSweepRemovesOnlyExpiredSessions(t *testing.T) {
	store := newTestStore(t, time.Minute)
	ctx := context.Background()

	if _, err := store.Save(ctx, "old", format.File{Name: "a.bin", MIME: "application/octet-stream", Data: []byte{1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(ctx, "fresh", format.File{Name: "b.bin", MIME: "application/octet-stream", Data: []byte{2}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	removed, err := store.Sweep(ctx, time.Now().Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	if _, err := store.Save(ctx, "kept", format.File{Name: "c.bin", MIME: "application/octet-stream", Data: []byte{3}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	removed, err = store.Sweep(ctx, time.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if !store.HasFiles(ctx, "kept") {
		t.Fatal("fresh session should survive sweep")
	}
}

func TestSanitizeNameRejectsTraversal(t *testing.T) {
	store := newTestStore(t, time.Hour)
	for _, name := range []string{"", "../evil", "a/b", "..", "/abs"} {
		if _, err := store.Save(context.Background(), name, format.File{Name: "a", MIME: "m", Data: nil}); err == nil {
			t.Errorf("Save with session %q succeeded, want error", name)
		}
	}
}
