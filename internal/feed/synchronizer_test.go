package feed

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func waitSnapshot(t *testing.T, snapshots <-chan []Post) []Post {
	t.Helper()
	select {
	case snap, ok := <-snapshots:
		if !ok {
			t.Fatal("snapshot channel closed unexpectedly")
		}
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSynchronizerInitialSnapshot(t *testing.T) {
	hub := NewHub()
	store := newMemStore(hub)
	for i := 0; i < 3; i++ {
		if _, err := store.Create(context.Background(), CreateRequest{
			UserID: "u1", Username: "wren", Text: fmt.Sprintf("post %d", i),
		}); err != nil {
			t.Fatal(err)
		}
	}

	sync := NewSynchronizer(nil, store, hub, 25)
	if err := sync.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sync.Close()

	snap := waitSnapshot(t, sync.Snapshots())
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}
	if snap[0].Text != "post 2" {
		t.Errorf("newest first: got %q", snap[0].Text)
	}
}

func TestSynchronizerWindowBoundedAndSorted(t *testing.T) {
	hub := NewHub()
	store := newMemStore(hub)
	for i := 0; i < 40; i++ {
		if _, err := store.Create(context.Background(), CreateRequest{
			UserID: "u1", Username: "wren", Text: fmt.Sprintf("post %d", i),
		}); err != nil {
			t.Fatal(err)
		}
	}

	sync := NewSynchronizer(nil, store, hub, 25)
	if err := sync.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sync.Close()

	snap := waitSnapshot(t, sync.Snapshots())
	if len(snap) > 25 {
		t.Fatalf("snapshot length = %d, want at most 25", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].CreatedAt.After(snap[i-1].CreatedAt) {
			t.Fatalf("snapshot not sorted descending at %d", i)
		}
	}
}

func TestSynchronizerReflectsWrites(t *testing.T) {
	hub := NewHub()
	store := newMemStore(hub)

	sync := NewSynchronizer(nil, store, hub, 25)
	if err := sync.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sync.Close()

	if got := waitSnapshot(t, sync.Snapshots()); len(got) != 0 {
		t.Fatalf("initial snapshot length = %d, want 0", len(got))
	}

	post, err := store.Create(context.Background(), CreateRequest{
		UserID: "u1", Username: "wren", Text: "hello",
	})
	if err != nil {
		t.Fatal(err)
	}

	snap := waitSnapshot(t, sync.Snapshots())
	if len(snap) != 1 || snap[0].ID != post.ID {
		t.Fatalf("snapshot after create = %+v", snap)
	}

	if err := store.UpdateText(context.Background(), post.ID, "hello edited"); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(time.Second)
	for {
		select {
		case snap = <-sync.Snapshots():
		case <-deadline:
			t.Fatalf("snapshot never reflected the edit: %+v", snap)
		}
		if len(snap) == 1 && snap[0].Text == "hello edited" {
			return
		}
	}
}

func TestSynchronizerCloseStopsPublishing(t *testing.T) {
	hub := NewHub()
	store := newMemStore(hub)

	sync := NewSynchronizer(nil, store, hub, 25)
	if err := sync.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitSnapshot(t, sync.Snapshots())

	sync.Close()
	sync.Close() // second close must be a no-op

	// Drain the channel until it closes; writes after Close must not
	// surface as fresh snapshots.
	if _, err := store.Create(context.Background(), CreateRequest{
		UserID: "u1", Username: "wren", Text: "after close",
	}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case snap, ok := <-sync.Snapshots():
			if !ok {
				return
			}
			for _, p := range snap {
				if p.Text == "after close" {
					t.Fatal("snapshot published after Close")
				}
			}
		case <-deadline:
			t.Fatal("snapshot channel never closed after Close")
		}
	}
}

func TestSynchronizerCloseBeforeStart(t *testing.T) {
	hub := NewHub()
	store := newMemStore(hub)

	sync := NewSynchronizer(nil, store, hub, 25)
	sync.Close() // never started: must not panic
	sync.Close()

	if err := sync.Start(context.Background()); err == nil {
		t.Fatal("expected Start after Close to fail")
	}

	select {
	case _, ok := <-sync.Snapshots():
		if ok {
			t.Fatal("expected closed snapshot channel")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("snapshot channel not closed")
	}
}

func TestSynchronizerRenderOrderScenario(t *testing.T) {
	hub := NewHub()
	store := newMemStore(hub)
	store.put(Post{ID: "t1", UserID: "u1", Username: "one", Text: "hello", CreatedAt: time.UnixMilli(100)})
	store.put(Post{ID: "t2", UserID: "u2", Username: "two", Text: "world", CreatedAt: time.UnixMilli(200)})

	sync := NewSynchronizer(nil, store, hub, 25)
	if err := sync.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sync.Close()

	snap := waitSnapshot(t, sync.Snapshots())
	if len(snap) != 2 || snap[0].ID != "t2" || snap[1].ID != "t1" {
		t.Fatalf("render order = %+v, want t2 then t1", snap)
	}
}
