package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/redis"
)

// guestStore is the redis surface the guest backend needs.
type guestStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(token string) string
}

// GuestBackend keeps an anonymous cart as one JSON list per session token.
// Every mutation reads the whole list and writes it back, mirroring how the
// browser-side cart treated its single storage slot.
type GuestBackend struct {
	store guestStore
	ttl   time.Duration
}

// NewGuestBackend constructs a guest cart backend on top of redis.
func NewGuestBackend(store *redis.Client, ttl time.Duration) *GuestBackend {
	return &GuestBackend{store: store, ttl: ttl}
}

// List returns the guest's entries. A missing key is an empty cart. A
// corrupt payload is also treated as empty; the next write repairs it.
func (b *GuestBackend) List(ctx context.Context, key string) ([]Entry, error) {
	raw, err := b.store.Get(ctx, b.store.GuestCartKey(key))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading guest cart")
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, nil
	}
	return collapseEntries(entries), nil
}

// Replace rewrites the whole cart and refreshes its TTL. An empty cart
// deletes the key instead of storing an empty list.
func (b *GuestBackend) Replace(ctx context.Context, key string, entries []Entry) error {
	entries = collapseEntries(entries)
	if len(entries) == 0 {
		return b.Clear(ctx, key)
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding guest cart")
	}
	if err := b.store.Set(ctx, b.store.GuestCartKey(key), payload, b.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing guest cart")
	}
	return nil
}

// Clear deletes the guest cart key.
func (b *GuestBackend) Clear(ctx context.Context, key string) error {
	if err := b.store.Del(ctx, b.store.GuestCartKey(key)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing guest cart")
	}
	return nil
}
