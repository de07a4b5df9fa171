package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/metrics"
)

type memBackend struct {
	mu           sync.Mutex
	data         map[string][]Entry
	failReplace  bool
	listGate     chan struct{} // when set, List blocks until the gate closes
	replaceCalls int
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string][]Entry{}}
}

func (b *memBackend) List(_ context.Context, key string) ([]Entry, error) {
	if b.listGate != nil {
		<-b.listGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.data[key]...), nil
}

func (b *memBackend) Replace(_ context.Context, key string, entries []Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaceCalls++
	if b.failReplace {
		return errors.New("replace failed")
	}
	b.data[key] = append([]Entry(nil), collapseEntries(entries)...)
	return nil
}

func (b *memBackend) Clear(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *memBackend) OwnersOf(_ context.Context, variantID uuid.UUID) ([]uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	owners := []uuid.UUID{}
	for key, entries := range b.data {
		ownerID, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.VariantID == variantID {
				owners = append(owners, ownerID)
				break
			}
		}
	}
	return owners, nil
}

type stubVariants struct {
	byID map[uuid.UUID]models.Variant
}

func (s *stubVariants) GetVariant(_ context.Context, id uuid.UUID) (*models.Variant, error) {
	v, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return &v, nil
}

func (s *stubVariants) ListVariants(_ context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	out := []models.Variant{}
	for _, id := range ids {
		if v, ok := s.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type recordingBroadcaster struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingBroadcaster) CartChanged(_ context.Context, _ Identity, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

type fixture struct {
	svc       Service
	remote    *memBackend
	guest     *memBackend
	variants  *stubVariants
	broadcast *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		remote:    newMemBackend(),
		guest:     newMemBackend(),
		variants:  &stubVariants{byID: map[uuid.UUID]models.Variant{}},
		broadcast: &recordingBroadcaster{},
	}
	logg := logger.New(logger.Options{ServiceName: "cart-test"})
	svc, err := NewService(f.remote, f.guest, f.variants, f.broadcast,
		metrics.NewStorefrontMetrics(nil), logg, config.CartConfig{})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seedVariant(t *testing.T, available int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.variants.byID[id] = models.Variant{
		ID:             id,
		Product:        &models.Product{Title: "Nissan Skyline GT-R", IsActive: true},
		Condition:      "mint",
		BasePriceCents: 100000,
		AvailableQty:   available,
		ShipClass:      enums.ShipClassMiniGT,
	}
	return id
}

func TestAddCreatesLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 5)
	owner := OwnerIdentity(uuid.New())

	outcome, err := f.svc.Add(t.Context(), owner, variantID, 2, false)
	require.NoError(t, err)
	require.Equal(t, 2, outcome.NextQty)
	require.False(t, outcome.Capped)

	view, err := f.svc.Reload(t.Context(), owner)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 200000, view.SubtotalCents)
}

func TestAddClampsToAvailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 3)
	owner := OwnerIdentity(uuid.New())

	outcome, err := f.svc.Add(t.Context(), owner, variantID, 5, false)
	require.NoError(t, err)
	require.True(t, outcome.Capped)
	require.Equal(t, 3, outcome.NextQty)
	require.Equal(t, 5, outcome.DesiredQty)
	require.Equal(t, 3, outcome.AvailableQty)
}

func TestAddIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 10)
	guest := GuestIdentity("tok-123")

	_, err := f.svc.Add(t.Context(), guest, variantID, 2, false)
	require.NoError(t, err)
	outcome, err := f.svc.Add(t.Context(), guest, variantID, 3, true)
	require.NoError(t, err)
	require.Equal(t, 2, outcome.PrevQty)
	require.Equal(t, 5, outcome.NextQty)

	entries, err := f.guest.List(t.Context(), "tok-123")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].ProtectorSelected)
}

func TestAddOutOfStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 0)
	owner := OwnerIdentity(uuid.New())

	_, err := f.svc.Add(t.Context(), owner, variantID, 1, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))
}

func TestUpdateQtyClampsAndRemoves(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 4)
	owner := OwnerIdentity(uuid.New())

	_, err := f.svc.Add(t.Context(), owner, variantID, 2, false)
	require.NoError(t, err)

	outcome, err := f.svc.UpdateQty(t.Context(), owner, variantID, 9)
	require.NoError(t, err)
	require.True(t, outcome.Capped)
	require.Equal(t, 4, outcome.NextQty)

	_, err = f.svc.UpdateQty(t.Context(), owner, variantID, 0)
	require.NoError(t, err)
	view, err := f.svc.Reload(t.Context(), owner)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
}

func TestUpdateQtyMissingLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 4)
	owner := OwnerIdentity(uuid.New())

	_, err := f.svc.UpdateQty(t.Context(), owner, variantID, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReloadDropsVanishedAndClamps(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	liveID := f.seedVariant(t, 2)
	goneID := uuid.New()
	owner := OwnerIdentity(uuid.New())

	require.NoError(t, f.remote.Replace(t.Context(), owner.Key(), []Entry{
		{VariantID: liveID, Qty: 5},
		{VariantID: goneID, Qty: 1},
	}))

	view, err := f.svc.Reload(t.Context(), owner)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 2, view.Lines[0].Qty)
	require.Equal(t, []uuid.UUID{goneID}, view.RemovedVariants)
	require.Equal(t, []uuid.UUID{liveID}, view.ClampedVariants)

	// The correction was persisted.
	entries, err := f.remote.List(t.Context(), owner.Key())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 2, entries[0].Qty)
}

func TestProtectorFeeInSubtotal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 5)
	owner := OwnerIdentity(uuid.New())

	_, err := f.svc.Add(t.Context(), owner, variantID, 2, true)
	require.NoError(t, err)

	view, err := f.svc.Reload(t.Context(), owner)
	require.NoError(t, err)
	require.Equal(t, 3000, view.Lines[0].ProtectorFeeCents)
	require.Equal(t, (100000+3000)*2, view.SubtotalCents)

	require.NoError(t, f.svc.SetProtector(t.Context(), owner, variantID, false))
	view, err = f.svc.Reload(t.Context(), owner)
	require.NoError(t, err)
	require.Equal(t, 200000, view.SubtotalCents)
}

func TestMergeGuestCartSumsAndClamps(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 1)
	ownerID := uuid.New()

	require.NoError(t, f.guest.Replace(t.Context(), "tok-9", []Entry{{VariantID: variantID, Qty: 1}}))
	require.NoError(t, f.remote.Replace(t.Context(), ownerID.String(), []Entry{{VariantID: variantID, Qty: 1}}))

	result, err := f.svc.MergeGuestCart(t.Context(), ownerID, "tok-9")
	require.NoError(t, err)
	require.Equal(t, 1, result.MergedLines)
	require.Equal(t, []uuid.UUID{variantID}, result.ClampedVariants)

	entries, err := f.remote.List(t.Context(), ownerID.String())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].Qty)

	// Guest cart cleared after settle.
	guestEntries, err := f.guest.List(t.Context(), "tok-9")
	require.NoError(t, err)
	require.Empty(t, guestEntries)
}

func TestMergeSkipsZeroStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	soldOut := f.seedVariant(t, 0)
	inStock := f.seedVariant(t, 5)
	ownerID := uuid.New()

	require.NoError(t, f.guest.Replace(t.Context(), "tok-z", []Entry{
		{VariantID: soldOut, Qty: 2},
		{VariantID: inStock, Qty: 2},
	}))

	result, err := f.svc.MergeGuestCart(t.Context(), ownerID, "tok-z")
	require.NoError(t, err)
	require.Equal(t, 1, result.MergedLines)
	require.Equal(t, []uuid.UUID{soldOut}, result.SkippedVariants)
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 10)
	ownerID := uuid.New()

	require.NoError(t, f.guest.Replace(t.Context(), "tok-i", []Entry{{VariantID: variantID, Qty: 3}}))

	_, err := f.svc.MergeGuestCart(t.Context(), ownerID, "tok-i")
	require.NoError(t, err)

	// Replaying the merge after the guest key is gone changes nothing.
	_, err = f.svc.MergeGuestCart(t.Context(), ownerID, "tok-i")
	require.NoError(t, err)

	entries, err := f.remote.List(t.Context(), ownerID.String())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 3, entries[0].Qty)
}

func TestMergeCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 10)
	ownerID := uuid.New()

	require.NoError(t, f.guest.Replace(t.Context(), "tok-c", []Entry{{VariantID: variantID, Qty: 3}}))

	gate := make(chan struct{})
	f.guest.listGate = gate

	const callers = 5
	results := make([]*MergeResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.MergeGuestCart(context.Background(), ownerID, "tok-c")
		}(i)
	}

	// Let every caller queue behind the in-flight merge before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, 1, results[i].MergedLines)
	}

	// The account cart was written exactly once.
	require.Equal(t, 1, f.remote.replaceCalls)

	entries, err := f.remote.List(context.Background(), ownerID.String())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 3, entries[0].Qty)
}

func TestMergeFailureKeepsGuestCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 5)
	ownerID := uuid.New()

	require.NoError(t, f.guest.Replace(t.Context(), "tok-f", []Entry{{VariantID: variantID, Qty: 2}}))
	f.remote.failReplace = true

	_, err := f.svc.MergeGuestCart(t.Context(), ownerID, "tok-f")
	require.Error(t, err)

	// Guest cart survives for retry.
	entries, listErr := f.guest.List(t.Context(), "tok-f")
	require.NoError(t, listErr)
	require.Len(t, entries, 1)

	f.remote.failReplace = false
	result, err := f.svc.MergeGuestCart(t.Context(), ownerID, "tok-f")
	require.NoError(t, err)
	require.Equal(t, 1, result.MergedLines)
}

func TestCollapseEntries(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	out := collapseEntries([]Entry{
		{VariantID: a, Qty: 1},
		{VariantID: b, Qty: 2, ProtectorSelected: true},
		{VariantID: a, Qty: 3},
		{VariantID: b, Qty: 0},
	})
	require.Len(t, out, 2)
	require.Equal(t, 4, out[0].Qty)
	require.Equal(t, 2, out[1].Qty)
	require.True(t, out[1].ProtectorSelected)
}

func TestReclampVariantShrinksHoldingCarts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedVariant(t, 5)
	owner := OwnerIdentity(uuid.New())
	other := OwnerIdentity(uuid.New())
	otherVariant := f.seedVariant(t, 5)

	_, err := f.svc.Add(t.Context(), owner, variantID, 5, false)
	require.NoError(t, err)
	_, err = f.svc.Add(t.Context(), other, otherVariant, 3, false)
	require.NoError(t, err)

	// Inventory shrinks out from under the cart.
	v := f.variants.byID[variantID]
	v.AvailableQty = 2
	f.variants.byID[variantID] = v

	require.NoError(t, f.svc.ReclampVariant(t.Context(), variantID))

	entries, err := f.remote.List(t.Context(), owner.Key())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 2, entries[0].Qty)

	// Unrelated carts are untouched.
	entries, err = f.remote.List(t.Context(), other.Key())
	require.NoError(t, err)
	require.Equal(t, 3, entries[0].Qty)
}
