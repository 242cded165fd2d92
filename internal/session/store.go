package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

const identityKey = "user"

// Store owns the persisted identity record. It is the only writer of
// the "user" key.
type Store struct {
	kv  storage.KeyValueStore
	bus signal.Bus
}

func NewStore(kv storage.KeyValueStore, bus signal.Bus) *Store {
	return &Store{kv: kv, bus: bus}
}

// Login persists the identity wholesale and announces the change.
// Credential checks happen before this is called; Login itself trusts
// its input.
func (s *Store) Login(ctx context.Context, id Identity) error {
	if id.Email == "" || (id.Kind != KindBuyer && id.Kind != KindFarmer) {
		return errors.New("identity requires an email and a valid kind")
	}
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, identityKey, string(data)); err != nil {
		return err
	}
	s.bus.Publish(signal.IdentityChanged)
	return nil
}

// Logout removes the persisted identity. Logging out while logged out
// is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, identityKey); err != nil {
		return err
	}
	s.bus.Publish(signal.IdentityChanged)
	return nil
}

// Current returns the persisted identity, or ErrUnauthenticated when
// nobody is signed in.
func (s *Store) Current(ctx context.Context) (Identity, error) {
	raw, err := s.kv.Get(ctx, identityKey)
	if err == storage.ErrKeyNotFound {
		return Identity{}, apperr.ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, err
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// UpdateProfile merges the non-empty fields of partial into the
// persisted identity. Kind and Email are fixed at login and cannot be
// changed here.
func (s *Store) UpdateProfile(ctx context.Context, partial Identity) (Identity, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return Identity{}, err
	}

	if partial.DisplayName != "" {
		current.DisplayName = partial.DisplayName
	}
	if partial.ContactPhone != "" {
		current.ContactPhone = partial.ContactPhone
	}
	if partial.Location != "" {
		current.Location = partial.Location
	}
	if partial.FarmLocation != "" {
		current.FarmLocation = partial.FarmLocation
	}

	data, err := json.Marshal(current)
	if err != nil {
		return Identity{}, err
	}
	if err := s.kv.Set(ctx, identityKey, string(data)); err != nil {
		return Identity{}, err
	}
	s.bus.Publish(signal.IdentityChanged)
	return current, nil
}
