package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"authentication_api/internal/models"
)

func TestMemoryStore_CRUD(t *testing.T) {
	store := NewMemoryStore()
	users := store.Users()
	c := ctx(t)

	alice, err := users.Insert(c, models.User{Username: "alice", PasswordHash: sampleHash, PasswordSalt: sampleSalt})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if alice.ID == 0 || alice.CreatedAt.IsZero() {
		t.Fatalf("identity not assigned: %+v", alice)
	}

	if _, err := users.Insert(c, models.User{Username: "alice"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate insert: expected ErrConflict, got %v", err)
	}

	got, err := users.FindByUsername(c, "alice")
	if err != nil || got == nil || got.ID != alice.ID {
		t.Fatalf("FindByUsername: got (%+v, %v)", got, err)
	}
	// Returned records are copies.
	got.PasswordHash[0] ^= 0xFF
	again, _ := users.FindByID(c, alice.ID)
	if again.PasswordHash[0] != sampleHash[0] {
		t.Fatalf("store leaked internal slice")
	}

	alice.FirstName = "Alice"
	if err := users.Update(c, alice); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := users.Update(c, models.User{ID: 999, Username: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}

	bob, err := users.Insert(c, models.User{Username: "bob"})
	if err != nil {
		t.Fatalf("Insert bob: %v", err)
	}
	bob.Username = "alice"
	if err := users.Update(c, bob); !errors.Is(err, ErrConflict) {
		t.Fatalf("rename onto taken username: expected ErrConflict, got %v", err)
	}

	all, _ := users.ListAll(c)
	if len(all) != 2 || all[0].ID != alice.ID || all[1].ID != bob.ID {
		t.Fatalf("ListAll order: %+v", all)
	}

	if err := users.Delete(c, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if u, _ := users.FindByID(c, alice.ID); u != nil {
		t.Fatalf("deleted user still present")
	}
	if err := users.Delete(c, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_InTxRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	c := ctx(t)

	sentinel := errors.New("abort")
	err := store.InTx(c, func(c context.Context, users UserRepo) error {
		if _, err := users.Insert(c, models.User{Username: "temp"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if u, _ := store.Users().FindByUsername(c, "temp"); u != nil {
		t.Fatalf("rolled back insert is visible: %+v", u)
	}

	err = store.InTx(c, func(c context.Context, users UserRepo) error {
		_, err := users.Insert(c, models.User{Username: "kept"})
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if u, _ := store.Users().FindByUsername(c, "kept"); u == nil {
		t.Fatalf("committed insert missing")
	}
}

func TestMemoryStore_ConcurrentInsertSameUsername(t *testing.T) {
	store := NewMemoryStore()
	c := ctx(t)

	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InTx(c, func(c context.Context, users UserRepo) error {
				if u, err := users.FindByUsername(c, "race"); err != nil || u != nil {
					if err == nil {
						err = ErrConflict
					}
					return err
				}
				_, err := users.Insert(c, models.User{Username: "race"})
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != writers-1 {
		t.Fatalf("want 1 success and %d conflicts, got %d and %d", writers-1, successes, conflicts)
	}
}

func TestAuditMemory_ListAndDeleteBefore(t *testing.T) {
	repo := NewAuditMemory()
	c := ctx(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, typ := range []string{models.EventUserCreated, models.EventLoginFailed, models.EventLoginSucceeded} {
		if err := repo.Append(c, models.AuditEvent{Type: typ, OccurredAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, _ := repo.List(c, time.Time{}, time.Time{}, "")
	if len(all) != 3 || all[0].EventID == "" {
		t.Fatalf("unexpected list: %+v", all)
	}

	failed, _ := repo.List(c, time.Time{}, time.Time{}, " login_failed")
	if len(failed) != 1 || failed[0].Type != models.EventLoginFailed {
		t.Fatalf("type filter: %+v", failed)
	}

	window, _ := repo.List(c, base.Add(30*time.Minute), base.Add(time.Hour), "")
	if len(window) != 1 {
		t.Fatalf("time filter: %+v", window)
	}

	n, err := repo.DeleteBefore(c, base.Add(90*time.Minute))
	if err != nil || n != 2 {
		t.Fatalf("DeleteBefore: n=%d err=%v", n, err)
	}
	rest, _ := repo.List(c, time.Time{}, time.Time{}, "")
	if len(rest) != 1 || rest[0].Type != models.EventLoginSucceeded {
		t.Fatalf("after delete: %+v", rest)
	}
}
