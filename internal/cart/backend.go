package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Entry is one stored cart line, shared by both backends. The guest backend
// serializes these as a JSON list under a single key; the remote backend
// maps them onto cart_lines rows.
type Entry struct {
	VariantID         uuid.UUID `json:"variant_id"`
	Qty               int       `json:"qty"`
	ProtectorSelected bool      `json:"protector_selected"`
}

// Identity names whose cart an operation targets. Exactly one of OwnerID
// (authenticated shopper) or GuestToken (anonymous session) is set.
type Identity struct {
	OwnerID    *uuid.UUID
	GuestToken string
}

// IsGuest reports whether the identity is an anonymous session.
func (i Identity) IsGuest() bool {
	return i.OwnerID == nil
}

// Key returns the backend storage key for this identity.
func (i Identity) Key() string {
	if i.OwnerID != nil {
		return i.OwnerID.String()
	}
	return strings.TrimSpace(i.GuestToken)
}

// Valid reports whether the identity can address a cart.
func (i Identity) Valid() bool {
	if i.OwnerID != nil {
		return *i.OwnerID != uuid.Nil
	}
	return strings.TrimSpace(i.GuestToken) != ""
}

// GuestIdentity builds an identity for an anonymous session token.
func GuestIdentity(token string) Identity {
	return Identity{GuestToken: token}
}

// OwnerIdentity builds an identity for an authenticated shopper.
func OwnerIdentity(ownerID uuid.UUID) Identity {
	return Identity{OwnerID: &ownerID}
}

// Backend stores cart entries for one key. Mutations are whole-cart
// replacements: the service reads, reconciles, and writes back, which keeps
// both backends trivially consistent with each other.
type Backend interface {
	List(ctx context.Context, key string) ([]Entry, error)
	Replace(ctx context.Context, key string, entries []Entry) error
	Clear(ctx context.Context, key string) error
}

// collapseEntries merges duplicate variant lines by summing quantities.
// Protector selection sticks once any duplicate had it on.
func collapseEntries(entries []Entry) []Entry {
	index := map[uuid.UUID]int{}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Qty <= 0 {
			continue
		}
		if pos, ok := index[e.VariantID]; ok {
			out[pos].Qty += e.Qty
			out[pos].ProtectorSelected = out[pos].ProtectorSelected || e.ProtectorSelected
			continue
		}
		index[e.VariantID] = len(out)
		out = append(out, e)
	}
	return out
}
