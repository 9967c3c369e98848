package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupCollections(t *testing.T) (*CollectionService, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewCollectionService(s, testLogger()), s
}

func TestCollectionService_CreateAndGetAll(t *testing.T) {
	svc, _ := setupCollections(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Favs")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("ID should not be empty")
	}
	if created.ColorScheme == "" {
		t.Error("ColorScheme should be assigned")
	}

	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d collections, want 1", len(all))
	}
	if all[created.ID].Name != "Favs" {
		t.Errorf("Name = %q, want Favs", all[created.ID].Name)
	}
}

func TestCollectionService_CreateEmptyName(t *testing.T) {
	svc, _ := setupCollections(t)

	for _, name := range []string{"", "   "} {
		if _, err := svc.Create(context.Background(), name); !errors.Is(err, domain.ErrEmptyCollectionName) {
			t.Errorf("Create(%q): got %v, want ErrEmptyCollectionName", name, err)
		}
	}
}

func TestCollectionService_AddRemoveTweet(t *testing.T) {
	svc, _ := setupCollections(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Favs")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.AddTweet(ctx, created.ID, "t1"); err != nil {
		t.Fatalf("AddTweet failed: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.TweetIDs) != 1 || got.TweetIDs[0] != "t1" {
		t.Errorf("TweetIDs = %v, want [t1]", got.TweetIDs)
	}

	if err := svc.RemoveTweet(ctx, created.ID, "t1"); err != nil {
		t.Fatalf("RemoveTweet failed: %v", err)
	}

	got, err = svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.TweetIDs) != 0 {
		t.Errorf("TweetIDs = %v, want empty", got.TweetIDs)
	}
	// The collection survives emptying until explicitly removed.
	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Errorf("collection should still exist: %v", err)
	}
}

func TestCollectionService_DuplicateAddIsNoOp(t *testing.T) {
	svc, _ := setupCollections(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Favs")

	if err := svc.AddTweet(ctx, created.ID, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddTweet(ctx, created.ID, "t1"); err != nil {
		t.Fatalf("duplicate add should succeed as a no-op, got %v", err)
	}

	got, _ := svc.Get(ctx, created.ID)
	if len(got.TweetIDs) != 1 {
		t.Errorf("TweetIDs = %v, want a single t1", got.TweetIDs)
	}
}

func TestCollectionService_BookmarkStatusDerived(t *testing.T) {
	svc, _ := setupCollections(t)
	ctx := context.Background()

	first, _ := svc.Create(ctx, "First")
	second, _ := svc.Create(ctx, "Second")
	if err := svc.AddTweet(ctx, first.ID, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddTweet(ctx, second.ID, "t1"); err != nil {
		t.Fatal(err)
	}

	bookmarked, err := svc.IsTweetBookmarked(ctx, "t1")
	if err != nil || !bookmarked {
		t.Fatalf("IsTweetBookmarked = %v %v, want true", bookmarked, err)
	}

	// Removing one containing collection keeps the status true.
	if err := svc.Remove(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	bookmarked, _ = svc.IsTweetBookmarked(ctx, "t1")
	if !bookmarked {
		t.Error("tweet is still in the second collection")
	}

	// Removing the last containing collection flips it to false.
	if err := svc.Remove(ctx, second.ID); err != nil {
		t.Fatal(err)
	}
	bookmarked, _ = svc.IsTweetBookmarked(ctx, "t1")
	if bookmarked {
		t.Error("no collection contains the tweet anymore")
	}
}

func TestCollectionService_RemoveTweetFromAll(t *testing.T) {
	svc, _ := setupCollections(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "A")
	b, _ := svc.Create(ctx, "B")
	svc.AddTweet(ctx, a.ID, "t1")
	svc.AddTweet(ctx, a.ID, "t2")
	svc.AddTweet(ctx, b.ID, "t1")

	if err := svc.RemoveTweetFromAll(ctx, "t1"); err != nil {
		t.Fatalf("RemoveTweetFromAll failed: %v", err)
	}

	bookmarked, _ := svc.IsTweetBookmarked(ctx, "t1")
	if bookmarked {
		t.Error("t1 should be gone from every collection")
	}
	gotA, _ := svc.Get(ctx, a.ID)
	if len(gotA.TweetIDs) != 1 || gotA.TweetIDs[0] != "t2" {
		t.Errorf("collection A = %v, want [t2]", gotA.TweetIDs)
	}
}

func TestCollectionService_MirrorRepopulatesFromStore(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	first := NewCollectionService(s, testLogger())
	created, err := first.Create(ctx, "Favs")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.AddTweet(ctx, created.ID, "t1"); err != nil {
		t.Fatal(err)
	}

	// A fresh service over the same store sees the persisted state.
	second := NewCollectionService(s, testLogger())
	got, err := second.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get on fresh mirror failed: %v", err)
	}
	if len(got.TweetIDs) != 1 || got.TweetIDs[0] != "t1" {
		t.Errorf("TweetIDs = %v, want [t1]", got.TweetIDs)
	}
}

func TestCollectionService_PersistFailureDropsMirror(t *testing.T) {
	svc, s := setupCollections(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Favs")
	if err != nil {
		t.Fatal(err)
	}

	s.FailAfter(0, errors.New("disk full"))
	if err := svc.AddTweet(ctx, created.ID, "t1"); !errors.Is(err, domain.ErrPersistenceFailed) {
		t.Fatalf("got %v, want ErrPersistenceFailed", err)
	}
	s.FailAfter(0, nil)

	// The stale mirror was discarded; the next read reflects the store.
	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get after repopulate failed: %v", err)
	}
	if len(got.TweetIDs) != 0 {
		t.Errorf("TweetIDs = %v, want the persisted empty state", got.TweetIDs)
	}
}

func TestCollectionService_GetUnknown(t *testing.T) {
	svc, _ := setupCollections(t)

	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Errorf("got %v, want ErrCollectionNotFound", err)
	}
}
