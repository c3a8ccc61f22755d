package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func testRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	payload := "not-really-a-png"

	info, err := store.Put(ctx, "items/abc.png", strings.NewReader(payload), ContentTypePNG)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ContentType != ContentTypePNG {
		t.Fatalf("unexpected put info %+v", info)
	}

	got, body, err := store.Get(ctx, "items/abc.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("payload round trip failed: %q", data)
	}
	if got.ContentType != ContentTypePNG {
		t.Fatalf("content type lost: %+v", got)
	}

	// Put replaces in place so re-attaching an image needs no delete.
	replacement := "replacement-bytes"
	if _, err := store.Put(ctx, "items/abc.png", strings.NewReader(replacement), ContentTypePNG); err != nil {
		t.Fatalf("replace: %v", err)
	}
	head, err := store.Head(ctx, "items/abc.png")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != int64(len(replacement)) {
		t.Fatalf("replacement not visible, size %d", head.Size)
	}

	infos, err := store.List(ctx, "items/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "items/abc.png" {
		t.Fatalf("unexpected listing %+v", infos)
	}

	deleted, err := store.Delete(ctx, "items/abc.png")
	if err != nil || !deleted {
		t.Fatalf("delete = (%v, %v), want (true, nil)", deleted, err)
	}
	if _, _, err := store.Get(ctx, "items/abc.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	if deleted, _ := store.Delete(ctx, "items/abc.png"); deleted {
		t.Fatalf("second delete must report nothing removed")
	}
}

func TestFilesystemStoreRoundTrip(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	testRoundTrip(t, store)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	testRoundTrip(t, NewMemory())
}

func TestPutRejectsUnsupportedContentType(t *testing.T) {
	stores := map[string]Store{"memory": NewMemory()}
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	stores["fs"] = fs
	for name, store := range stores {
		_, err := store.Put(context.Background(), "items/x.gif", strings.NewReader("gif"), "image/gif")
		if !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("%s: got %v, want ErrUnsupportedType", name, err)
		}
	}
}

func TestFilesystemStoreRejectsTraversalKeys(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	for _, key := range []string{"../escape.png", "/abs.png", "a/../../b.png", "  "} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), ContentTypePNG); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
	}
}

func TestPresignUnsupportedOnLocalDrivers(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	for name, store := range map[string]Store{"fs": fs, "memory": NewMemory()} {
		if _, err := store.Presign(context.Background(), "items/x.png", time.Minute); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("%s: got %v, want ErrUnsupported", name, err)
		}
	}
}

func TestKeyFor(t *testing.T) {
	if got := KeyFor("abc", ContentTypePNG); got != "items/abc.png" {
		t.Fatalf("KeyFor png = %q", got)
	}
	if got := KeyFor("abc", ContentTypeJPEG); got != "items/abc.jpg" {
		t.Fatalf("KeyFor jpeg = %q", got)
	}
}
