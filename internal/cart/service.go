package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mnldiecast/storefront-backend/internal/catalog"
	"github.com/mnldiecast/storefront-backend/internal/pricing"
	"github.com/mnldiecast/storefront-backend/internal/shipping"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/metrics"
)

// Line is one cart entry joined with its live catalog state and pricing.
type Line struct {
	VariantID         uuid.UUID       `json:"variant_id"`
	ProductTitle      string          `json:"product_title"`
	Condition         string          `json:"condition"`
	ShipClass         enums.ShipClass `json:"ship_class"`
	Qty               int             `json:"qty"`
	AvailableQty      int             `json:"available_qty"`
	ProtectorSelected bool            `json:"protector_selected"`
	UnitPriceCents    int             `json:"unit_price_cents"`
	ProtectorFeeCents int             `json:"protector_fee_cents"`
	LineTotalCents    int             `json:"line_total_cents"`
}

// View is the reconciled cart: stale lines dropped, over-stock quantities
// clamped, prices resolved fresh.
type View struct {
	Lines           []Line      `json:"lines"`
	SubtotalCents   int         `json:"subtotal_cents"`
	RemovedVariants []uuid.UUID `json:"removed_variants,omitempty"`
	ClampedVariants []uuid.UUID `json:"clamped_variants,omitempty"`
}

// ShippingItems projects the view into the planner's input.
func (v *View) ShippingItems() []shipping.Item {
	items := make([]shipping.Item, 0, len(v.Lines))
	for _, line := range v.Lines {
		items = append(items, shipping.Item{Class: line.ShipClass, Qty: line.Qty})
	}
	return items
}

// AddOutcome reports what an add or quantity update actually did, so the
// client can show "only N left" when the request was clamped.
type AddOutcome struct {
	VariantID    uuid.UUID `json:"variant_id"`
	PrevQty      int       `json:"prev_qty"`
	DesiredQty   int       `json:"desired_qty"`
	NextQty      int       `json:"next_qty"`
	AvailableQty int       `json:"available_qty"`
	Capped       bool      `json:"capped"`
}

// MergeResult summarizes a guest-to-account cart merge.
type MergeResult struct {
	MergedLines     int         `json:"merged_lines"`
	SkippedVariants []uuid.UUID `json:"skipped_variants,omitempty"`
	ClampedVariants []uuid.UUID `json:"clamped_variants,omitempty"`
}

// Service exposes cart operations for both guest and authenticated shoppers.
type Service interface {
	Reload(ctx context.Context, id Identity) (*View, error)
	Add(ctx context.Context, id Identity, variantID uuid.UUID, qty int, protector bool) (*AddOutcome, error)
	UpdateQty(ctx context.Context, id Identity, variantID uuid.UUID, qty int) (*AddOutcome, error)
	SetProtector(ctx context.Context, id Identity, variantID uuid.UUID, selected bool) error
	Remove(ctx context.Context, id Identity, variantID uuid.UUID) error
	Clear(ctx context.Context, id Identity) error
	MergeGuestCart(ctx context.Context, ownerID uuid.UUID, guestToken string) (*MergeResult, error)
	ReclampVariant(ctx context.Context, variantID uuid.UUID) error
}

type service struct {
	remote       Backend
	guest        Backend
	variants     catalog.VariantReader
	broadcaster  Broadcaster
	metrics      *metrics.StorefrontMetrics
	logg         *logger.Logger
	mergeTimeout time.Duration
	mergeGroup   singleflight.Group
}

// NewService wires the cart service.
func NewService(
	remote Backend,
	guest Backend,
	variants catalog.VariantReader,
	broadcaster Broadcaster,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
	cfg config.CartConfig,
) (Service, error) {
	if remote == nil {
		return nil, errors.New("remote backend is required")
	}
	if guest == nil {
		return nil, errors.New("guest backend is required")
	}
	if variants == nil {
		return nil, errors.New("variant reader is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	timeout := cfg.MergeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		remote:       remote,
		guest:        guest,
		variants:     variants,
		broadcaster:  broadcaster,
		metrics:      m,
		logg:         logg,
		mergeTimeout: timeout,
	}, nil
}

func (s *service) backendFor(id Identity) Backend {
	if id.IsGuest() {
		return s.guest
	}
	return s.remote
}

// Reload reconciles the stored cart against the live catalog: lines whose
// variant vanished are dropped, quantities above available stock are clamped,
// and any correction is written back before the view is returned.
func (s *service) Reload(ctx context.Context, id Identity) (*View, error) {
	if !id.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	backend := s.backendFor(id)

	entries, err := backend.List(ctx, id.Key())
	if err != nil {
		return nil, err
	}
	view, kept, changed, err := s.reconcile(ctx, entries)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := backend.Replace(ctx, id.Key(), kept); err != nil {
			return nil, err
		}
		for range view.ClampedVariants {
			s.metrics.IncCartClamp("reload")
		}
		s.broadcaster.CartChanged(ctx, id, "reload")
	}
	return view, nil
}

// reconcile joins entries with the catalog and builds the priced view.
// Returns the surviving entries and whether anything was corrected.
func (s *service) reconcile(ctx context.Context, entries []Entry) (*View, []Entry, bool, error) {
	entries = collapseEntries(entries)
	view := &View{Lines: []Line{}}
	if len(entries) == 0 {
		return view, nil, false, nil
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.VariantID)
	}
	variants, err := s.variants.ListVariants(ctx, ids)
	if err != nil {
		return nil, nil, false, err
	}
	byID := make(map[uuid.UUID]models.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	kept := make([]Entry, 0, len(entries))
	changed := false
	for _, e := range entries {
		variant, ok := byID[e.VariantID]
		if !ok {
			view.RemovedVariants = append(view.RemovedVariants, e.VariantID)
			changed = true
			continue
		}
		qty := e.Qty
		if qty > variant.AvailableQty {
			qty = variant.AvailableQty
			view.ClampedVariants = append(view.ClampedVariants, e.VariantID)
			changed = true
		}
		if qty <= 0 {
			view.RemovedVariants = append(view.RemovedVariants, e.VariantID)
			changed = true
			continue
		}
		e.Qty = qty
		kept = append(kept, e)
		view.Lines = append(view.Lines, buildLine(e, variant))
	}
	for _, line := range view.Lines {
		view.SubtotalCents += line.LineTotalCents
	}
	return view, kept, changed, nil
}

func buildLine(e Entry, variant models.Variant) Line {
	eff := pricing.Resolve(variant)
	class := variant.ShipClass.OrDefault()
	protectorFee := 0
	if e.ProtectorSelected {
		protectorFee = shipping.ProtectorFeeCents(class)
	}
	return Line{
		VariantID:         variant.ID,
		ProductTitle:      variant.Product.Title,
		Condition:         variant.Condition,
		ShipClass:         class,
		Qty:               e.Qty,
		AvailableQty:      variant.AvailableQty,
		ProtectorSelected: e.ProtectorSelected,
		UnitPriceCents:    eff.UnitPriceCents,
		ProtectorFeeCents: protectorFee,
		LineTotalCents:    (eff.UnitPriceCents + protectorFee) * e.Qty,
	}
}

func (s *service) Add(ctx context.Context, id Identity, variantID uuid.UUID, qty int, protector bool) (*AddOutcome, error) {
	if !id.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	variant, err := s.variants.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if variant.AvailableQty <= 0 {
		s.metrics.IncOutOfStockAdd()
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "variant has no available stock").
			WithDetails(map[string]any{"variant_id": variantID})
	}

	backend := s.backendFor(id)
	entries, err := backend.List(ctx, id.Key())
	if err != nil {
		return nil, err
	}

	outcome := &AddOutcome{
		VariantID:    variantID,
		DesiredQty:   qty,
		AvailableQty: variant.AvailableQty,
	}
	found := false
	for i := range entries {
		if entries[i].VariantID != variantID {
			continue
		}
		found = true
		outcome.PrevQty = entries[i].Qty
		next := entries[i].Qty + qty
		if next > variant.AvailableQty {
			next = variant.AvailableQty
			outcome.Capped = true
		}
		entries[i].Qty = next
		entries[i].ProtectorSelected = entries[i].ProtectorSelected || protector
		outcome.NextQty = next
		break
	}
	if !found {
		next := qty
		if next > variant.AvailableQty {
			next = variant.AvailableQty
			outcome.Capped = true
		}
		entries = append(entries, Entry{VariantID: variantID, Qty: next, ProtectorSelected: protector})
		outcome.NextQty = next
	}

	if err := backend.Replace(ctx, id.Key(), entries); err != nil {
		return nil, err
	}
	if outcome.Capped {
		s.metrics.IncCartClamp("add")
	}
	s.broadcaster.CartChanged(ctx, id, "add")
	return outcome, nil
}

func (s *service) UpdateQty(ctx context.Context, id Identity, variantID uuid.UUID, qty int) (*AddOutcome, error) {
	if !id.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	if qty <= 0 {
		if err := s.Remove(ctx, id, variantID); err != nil {
			return nil, err
		}
		return &AddOutcome{VariantID: variantID, DesiredQty: qty}, nil
	}

	variant, err := s.variants.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	backend := s.backendFor(id)
	entries, err := backend.List(ctx, id.Key())
	if err != nil {
		return nil, err
	}

	outcome := &AddOutcome{
		VariantID:    variantID,
		DesiredQty:   qty,
		AvailableQty: variant.AvailableQty,
	}
	next := qty
	if next > variant.AvailableQty {
		next = variant.AvailableQty
		outcome.Capped = true
	}

	kept := entries[:0]
	found := false
	for _, e := range entries {
		if e.VariantID == variantID {
			found = true
			outcome.PrevQty = e.Qty
			if next <= 0 {
				continue
			}
			e.Qty = next
		}
		kept = append(kept, e)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not in cart")
	}
	if next < 0 {
		next = 0
	}
	outcome.NextQty = next

	if err := backend.Replace(ctx, id.Key(), kept); err != nil {
		return nil, err
	}
	if outcome.Capped {
		s.metrics.IncCartClamp("update")
	}
	s.broadcaster.CartChanged(ctx, id, "update")
	return outcome, nil
}

func (s *service) SetProtector(ctx context.Context, id Identity, variantID uuid.UUID, selected bool) error {
	if !id.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	backend := s.backendFor(id)
	entries, err := backend.List(ctx, id.Key())
	if err != nil {
		return err
	}
	found := false
	for i := range entries {
		if entries[i].VariantID == variantID {
			entries[i].ProtectorSelected = selected
			found = true
			break
		}
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not in cart")
	}
	if err := backend.Replace(ctx, id.Key(), entries); err != nil {
		return err
	}
	s.broadcaster.CartChanged(ctx, id, "protector")
	return nil
}

func (s *service) Remove(ctx context.Context, id Identity, variantID uuid.UUID) error {
	if !id.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	backend := s.backendFor(id)
	entries, err := backend.List(ctx, id.Key())
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.VariantID != variantID {
			kept = append(kept, e)
		}
	}
	if err := backend.Replace(ctx, id.Key(), kept); err != nil {
		return err
	}
	s.broadcaster.CartChanged(ctx, id, "remove")
	return nil
}

func (s *service) Clear(ctx context.Context, id Identity) error {
	if !id.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	if err := s.backendFor(id).Clear(ctx, id.Key()); err != nil {
		return err
	}
	s.broadcaster.CartChanged(ctx, id, "clear")
	return nil
}

// MergeGuestCart folds a guest cart into the shopper's account cart at
// login. Concurrent merges for the same owner collapse into one execution,
// and the whole merge is bounded by the configured timeout. The guest key
// is cleared only after the account cart write settles, so a failed merge
// leaves the guest cart intact for retry.
func (s *service) MergeGuestCart(ctx context.Context, ownerID uuid.UUID, guestToken string) (*MergeResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	guest := GuestIdentity(guestToken)
	if !guest.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}

	result, err, _ := s.mergeGroup.Do(ownerID.String(), func() (any, error) {
		mergeCtx, cancel := context.WithTimeout(ctx, s.mergeTimeout)
		defer cancel()
		return s.mergeOnce(mergeCtx, ownerID, guest)
	})
	if err != nil {
		return nil, err
	}
	return result.(*MergeResult), nil
}

func (s *service) mergeOnce(ctx context.Context, ownerID uuid.UUID, guest Identity) (*MergeResult, error) {
	owner := OwnerIdentity(ownerID)

	guestEntries, err := s.guest.List(ctx, guest.Key())
	if err != nil {
		return nil, err
	}
	serverEntries, err := s.remote.List(ctx, owner.Key())
	if err != nil {
		return nil, err
	}

	combined := collapseEntries(append(serverEntries, guestEntries...))
	result := &MergeResult{}

	if len(combined) > 0 {
		ids := make([]uuid.UUID, 0, len(combined))
		for _, e := range combined {
			ids = append(ids, e.VariantID)
		}
		variants, err := s.variants.ListVariants(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]models.Variant, len(variants))
		for _, v := range variants {
			byID[v.ID] = v
		}

		final := make([]Entry, 0, len(combined))
		for _, e := range combined {
			variant, ok := byID[e.VariantID]
			if !ok || variant.AvailableQty <= 0 {
				result.SkippedVariants = append(result.SkippedVariants, e.VariantID)
				continue
			}
			if e.Qty > variant.AvailableQty {
				e.Qty = variant.AvailableQty
				result.ClampedVariants = append(result.ClampedVariants, e.VariantID)
				s.metrics.IncCartClamp("merge")
			}
			final = append(final, e)
		}

		if err := s.remote.Replace(ctx, owner.Key(), final); err != nil {
			return nil, err
		}
		result.MergedLines = len(final)
	}

	if err := s.guest.Clear(ctx, guest.Key()); err != nil {
		// The account cart is already correct; a leftover guest key only
		// re-merges idempotently on the next login.
		s.logg.Warn(s.logg.WithOwnerID(ctx, ownerID.String()), "clearing guest cart after merge failed")
	}

	s.broadcaster.CartChanged(ctx, owner, "merge")
	return result, nil
}

type ownerFinder interface {
	OwnersOf(ctx context.Context, variantID uuid.UUID) ([]uuid.UUID, error)
}

// ReclampVariant re-runs reconciliation for every authenticated cart holding
// the variant. The stock-change subscriber calls it so carts shrink as soon
// as inventory does, not only on the owner's next request. Guest carts are
// reconciled lazily on their next reload.
func (s *service) ReclampVariant(ctx context.Context, variantID uuid.UUID) error {
	finder, ok := s.remote.(ownerFinder)
	if !ok {
		return nil
	}
	owners, err := finder.OwnersOf(ctx, variantID)
	if err != nil {
		return err
	}
	for _, ownerID := range owners {
		if _, err := s.Reload(ctx, OwnerIdentity(ownerID)); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"owner_id":   ownerID.String(),
				"variant_id": variantID.String(),
			}), "re-clamping cart after stock change failed")
		}
	}
	return nil
}
