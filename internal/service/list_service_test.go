package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/store"
)

func setupLists(t *testing.T) (*ListService, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewListService(s, testLogger()), s
}

func TestListService_CreateAndGet(t *testing.T) {
	svc, _ := setupLists(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Journalists")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Journalists" {
		t.Errorf("Name = %q, want Journalists", got.Name)
	}
	if len(got.UserNames) != 0 {
		t.Errorf("UserNames = %v, want empty", got.UserNames)
	}
}

func TestListService_LimitRejectsCreation(t *testing.T) {
	svc, s := setupLists(t)
	ctx := context.Background()

	for i := 0; i < ListLimit; i++ {
		if _, err := svc.Create(ctx, fmt.Sprintf("list-%d", i)); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	rawBefore, _, _ := s.Get(ctx, store.KeyLists)

	_, err := svc.Create(ctx, "one too many")
	if !errors.Is(err, domain.ErrListLimitExceeded) {
		t.Fatalf("got %v, want ErrListLimitExceeded", err)
	}

	// Neither the mirror nor the store moved.
	all, _ := svc.GetAll(ctx)
	if len(all) != ListLimit {
		t.Errorf("mirror has %d lists, want %d", len(all), ListLimit)
	}
	rawAfter, _, _ := s.Get(ctx, store.KeyLists)
	if rawBefore != rawAfter {
		t.Error("store value must be untouched by a rejected create")
	}
}

func TestListService_AddUserAllowsDuplicates(t *testing.T) {
	svc, _ := setupLists(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Friends")

	if err := svc.AddUser(ctx, created.ID, "alice"); err != nil {
		t.Fatalf("first AddUser failed: %v", err)
	}
	if err := svc.AddUser(ctx, created.ID, "alice"); err != nil {
		t.Fatalf("second AddUser failed: %v", err)
	}

	got, _ := svc.Get(ctx, created.ID)
	// Documented looseness: membership is not de-duplicated here.
	if len(got.UserNames) != 2 {
		t.Errorf("UserNames = %v, want alice twice", got.UserNames)
	}
}

func TestListService_RemoveUserFirstOccurrence(t *testing.T) {
	svc, _ := setupLists(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Friends")
	svc.AddUser(ctx, created.ID, "alice")
	svc.AddUser(ctx, created.ID, "bob")
	svc.AddUser(ctx, created.ID, "alice")

	if err := svc.RemoveUser(ctx, created.ID, "alice"); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}

	got, _ := svc.Get(ctx, created.ID)
	want := []string{"bob", "alice"}
	if len(got.UserNames) != 2 || got.UserNames[0] != want[0] || got.UserNames[1] != want[1] {
		t.Errorf("UserNames = %v, want %v", got.UserNames, want)
	}
}

func TestListService_RemoveUserNotMember(t *testing.T) {
	svc, _ := setupLists(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Friends")

	if err := svc.RemoveUser(ctx, created.ID, "mallory"); !errors.Is(err, domain.ErrUserNotInList) {
		t.Errorf("got %v, want ErrUserNotInList", err)
	}
}

func TestListService_Remove(t *testing.T) {
	svc, _ := setupLists(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Friends")

	if err := svc.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrListNotFound) {
		t.Errorf("got %v, want ErrListNotFound", err)
	}
}

func TestListService_MirrorRepopulatesFromStore(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	first := NewListService(s, testLogger())
	created, _ := first.Create(ctx, "Friends")
	first.AddUser(ctx, created.ID, "alice")

	second := NewListService(s, testLogger())
	got, err := second.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get on fresh mirror failed: %v", err)
	}
	if len(got.UserNames) != 1 || got.UserNames[0] != "alice" {
		t.Errorf("UserNames = %v, want [alice]", got.UserNames)
	}
}
