package session

import (
	"context"
	"testing"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

func newTestStore() (*Store, *signal.MemoryBus) {
	bus := signal.NewMemoryBus()
	return NewStore(storage.NewMemory(), bus), bus
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, bus := newTestStore()

	changes := 0
	cancel := bus.Subscribe(signal.IdentityChanged, func() { changes++ })
	defer cancel()

	if _, err := store.Current(ctx); err != apperr.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated before login, got %v", err)
	}

	id := Identity{Kind: KindBuyer, Email: "buyer@example.com", DisplayName: "Demo Buyer"}
	if err := store.Login(ctx, id); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if changes != 1 {
		t.Fatalf("expected identity-changed after login, got %d publishes", changes)
	}

	got, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if got != id {
		t.Fatalf("unexpected identity %+v", got)
	}

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if changes != 2 {
		t.Fatalf("expected identity-changed after logout, got %d publishes", changes)
	}
	if _, err := store.Current(ctx); err != apperr.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestLoginRejectsInvalidIdentity(t *testing.T) {
	store, _ := newTestStore()
	if err := store.Login(context.Background(), Identity{Kind: KindBuyer}); err == nil {
		t.Fatal("expected login without email to fail")
	}
	if err := store.Login(context.Background(), Identity{Kind: "admin", Email: "x@x.com"}); err == nil {
		t.Fatal("expected login with unknown kind to fail")
	}
}

func TestUpdateProfileMergesFields(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	id := Identity{Kind: KindFarmer, Email: "farmer@example.com", DisplayName: "Old Name", Location: "Green Valley Farm"}
	if err := store.Login(ctx, id); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	updated, err := store.UpdateProfile(ctx, Identity{DisplayName: "New Name", ContactPhone: "555-0100"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.DisplayName != "New Name" || updated.ContactPhone != "555-0100" {
		t.Fatalf("merge did not apply: %+v", updated)
	}
	// untouched fields survive the merge
	if updated.Location != "Green Valley Farm" || updated.Email != "farmer@example.com" || updated.Kind != KindFarmer {
		t.Fatalf("merge dropped fields: %+v", updated)
	}

	// the merge is persisted, not only returned
	got, _ := store.Current(ctx)
	if got != updated {
		t.Fatalf("persisted identity %+v does not match returned %+v", got, updated)
	}
}

func TestUpdateProfileRequiresIdentity(t *testing.T) {
	store, _ := newTestStore()
	if _, err := store.UpdateProfile(context.Background(), Identity{DisplayName: "x"}); err != apperr.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestDemoCredentials(t *testing.T) {
	creds := NewDemoCredentials()

	if err := creds.Verify("buyer@example.com", "demo123"); err != nil {
		t.Fatalf("demo buyer should verify: %v", err)
	}
	if err := creds.Verify("buyer@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := creds.Verify("nobody@example.com", "demo123"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", err)
	}

	if err := creds.Register("new@example.com", "secret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := creds.Verify("new@example.com", "secret"); err != nil {
		t.Fatalf("fresh account should verify: %v", err)
	}
	if err := creds.Register("new@example.com", "secret"); err != ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}
