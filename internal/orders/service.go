package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnldiecast/storefront-backend/internal/cart"
	"github.com/mnldiecast/storefront-backend/internal/shipping"
	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/metrics"
	"github.com/mnldiecast/storefront-backend/pkg/types"
)

// CheckoutInput carries everything the checkout form submits. The add-on
// fees are resolved upstream (carrier quote, admin-configured surcharges);
// checkout only sums them, so pricing authority stays in one place.
type CheckoutInput struct {
	Identity        cart.Identity
	PaymentMethod   enums.PaymentMethod
	Carrier         enums.Carrier
	Region          enums.Region
	ShippingDetails types.JSONMap

	// SelectedVariants limits checkout to those cart lines. Empty means the
	// whole cart.
	SelectedVariants []uuid.UUID

	CashOnPickupFeeCents  int
	LalamoveFeeCents      int
	PriorityFeeCents      int
	InsuranceFeeCents     int
	ShippingDiscountCents int

	// DiscountTotalCents overrides the recorded discount total; when nil it
	// defaults to the shipping discount.
	DiscountTotalCents *int
}

// CheckoutResult is returned to the client after a successful checkout.
type CheckoutResult struct {
	Order            *models.Order   `json:"order"`
	Package          *shipping.Quote `json:"shipping_quote"`
	ItemShape        string          `json:"-"`
	RequiresApproval bool            `json:"requires_approval"`
}

// Service reconciles a cart into an immutable order.
type Service interface {
	CreateOrder(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       txRunner
	repo     *Repository
	cartSvc  cart.Service
	notifier Notifier
	metrics  *metrics.StorefrontMetrics
	logg     *logger.Logger
}

// NewService wires the order service.
func NewService(
	tx txRunner,
	repo *Repository,
	cartSvc cart.Service,
	notifier Notifier,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner is required")
	}
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if cartSvc == nil {
		return nil, errors.New("cart service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &service{
		tx:       tx,
		repo:     repo,
		cartSvc:  cartSvc,
		notifier: notifier,
		metrics:  m,
		logg:     logg,
	}, nil
}

// CreateOrder snapshots the reconciled cart into an order, writes header
// and items in one transaction, and clears exactly the checked-out lines.
// Every order starts in the approval queue; the publish that feeds the
// approvals worker happens after commit and never fails the checkout.
func (s *service) CreateOrder(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := validateCheckout(input); err != nil {
		s.metrics.IncCheckoutFailure("validation")
		return nil, err
	}

	view, err := s.cartSvc.Reload(ctx, input.Identity)
	if err != nil {
		return nil, err
	}
	if len(view.Lines) == 0 {
		s.metrics.IncCheckoutFailure("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	view, err = selectLines(view, input.SelectedVariants)
	if err != nil {
		s.metrics.IncCheckoutFailure("selection_conflict")
		return nil, err
	}

	quote, err := shipping.RecommendPackage(input.Carrier, input.Region,
		shipping.CountsFromItems(view.ShippingItems()))
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInfeasiblePackage) {
			s.metrics.IncInfeasiblePlan(input.Carrier.String())
			s.metrics.IncCheckoutFailure("infeasible_package")
		}
		return nil, err
	}

	order := buildOrder(input, view, quote)
	items := buildItems(view)

	var shapeUsed string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateHeader(ctx, order); err != nil {
			return err
		}
		shape, err := repo.InsertItems(ctx, order.ID, items)
		if err != nil {
			return err
		}
		shapeUsed = shape

		if !input.Identity.IsGuest() {
			variantIDs := make([]uuid.UUID, 0, len(view.Lines))
			for _, line := range view.Lines {
				variantIDs = append(variantIDs, line.VariantID)
			}
			if err := repo.DeleteCartLines(ctx, *input.Identity.OwnerID, variantIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.IncCheckoutFailure("persistence")
		return nil, err
	}
	order.Items = items

	octx := s.logg.WithOrderID(ctx, order.ID.String())

	// Guest carts live outside the transaction; remove the consumed lines
	// best effort now that the order is durable.
	if input.Identity.IsGuest() {
		if len(input.SelectedVariants) == 0 {
			if err := s.cartSvc.Clear(octx, input.Identity); err != nil {
				s.logg.Warn(octx, "clearing guest cart after checkout failed")
			}
		} else {
			for _, line := range view.Lines {
				if err := s.cartSvc.Remove(octx, input.Identity, line.VariantID); err != nil {
					s.logg.Warn(s.logg.WithVariantID(octx, line.VariantID.String()),
						"removing checked-out guest cart line failed")
				}
			}
		}
	}

	s.metrics.IncOrderCreated(input.PaymentMethod.String())
	if shapeUsed != itemShapes[0].name {
		s.metrics.IncSchemaFallback(shapeUsed)
		s.logg.Warn(s.logg.WithField(octx, "shape", shapeUsed), "order items written via legacy schema shape")
	}

	event := ApprovalEvent{
		OrderID:          order.ID,
		OwnerID:          order.OwnerID,
		TotalCents:       order.TotalCents,
		PaymentMethod:    order.PaymentMethod.String(),
		ShippingApproval: quote.RequiresApproval,
		Reason:           quote.ApprovalReason,
	}
	if err := s.notifier.OrderCreated(octx, event); err != nil {
		s.logg.Error(octx, "publishing approval event failed", err)
	}

	return &CheckoutResult{
		Order:            order,
		Package:          &quote,
		ItemShape:        shapeUsed,
		RequiresApproval: true,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.Order, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	return s.repo.ListByOwner(ctx, ownerID, limit)
}

func validateCheckout(input CheckoutInput) error {
	if !input.Identity.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.Carrier.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	if !input.Region.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping region")
	}
	if input.ShippingDiscountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping discount cannot be negative")
	}
	if input.CashOnPickupFeeCents < 0 || input.LalamoveFeeCents < 0 ||
		input.PriorityFeeCents < 0 || input.InsuranceFeeCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
	}
	if input.DiscountTotalCents != nil && *input.DiscountTotalCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount total cannot be negative")
	}
	return nil
}

// selectLines narrows the reconciled view to the shopper's chosen lines. A
// selected variant no longer in the cart means the cart changed under them;
// checkout stops so they can re-review instead of ordering a different set.
func selectLines(view *cart.View, selected []uuid.UUID) (*cart.View, error) {
	if len(selected) == 0 {
		return view, nil
	}

	wanted := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		wanted[id] = true
	}

	narrowed := &cart.View{
		RemovedVariants: view.RemovedVariants,
		ClampedVariants: view.ClampedVariants,
	}
	for _, line := range view.Lines {
		if !wanted[line.VariantID] {
			continue
		}
		narrowed.Lines = append(narrowed.Lines, line)
		narrowed.SubtotalCents += line.LineTotalCents
		delete(wanted, line.VariantID)
	}
	if len(wanted) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "selected cart lines are no longer in the cart")
	}
	return narrowed, nil
}

func buildOrder(input CheckoutInput, view *cart.View, quote shipping.Quote) *models.Order {
	receiver := normalizeReceiver(input.ShippingDetails)

	subtotal := view.SubtotalCents
	shippingFee := quote.FeeCents

	shippingDiscount := input.ShippingDiscountCents
	if shippingDiscount < 0 {
		shippingDiscount = 0
	}
	discountTotal := shippingDiscount
	if input.DiscountTotalCents != nil {
		discountTotal = *input.DiscountTotalCents
		if discountTotal < 0 {
			discountTotal = 0
		}
	}

	total := subtotal + shippingFee +
		input.CashOnPickupFeeCents + input.LalamoveFeeCents +
		input.PriorityFeeCents + input.InsuranceFeeCents -
		shippingDiscount
	if total < 0 {
		total = 0
	}

	addOnFees := 0
	for _, line := range view.Lines {
		addOnFees += line.ProtectorFeeCents * line.Qty
	}

	details := input.ShippingDetails
	if quote.RequiresApproval {
		if details == nil {
			details = types.JSONMap{}
		}
		details["approval_reason"] = quote.ApprovalReason
	}

	fees := &types.FeesBag{
		ShippingFeeCents:      shippingFee,
		CashOnPickupFeeCents:  input.CashOnPickupFeeCents,
		LalamoveFeeCents:      input.LalamoveFeeCents,
		PriorityFeeCents:      input.PriorityFeeCents,
		InsuranceFeeCents:     input.InsuranceFeeCents,
		AddOnFeeCents:         addOnFees,
		ShippingDiscountCents: shippingDiscount,
	}

	return &models.Order{
		ID:                 uuid.New(),
		OwnerID:            input.Identity.OwnerID,
		CustomerName:       receiver.Name,
		Contact:            receiver.Contact,
		Address:            receiver.Address,
		PaymentMethod:      input.PaymentMethod,
		ShippingMethod:     input.Carrier,
		ShippingRegion:     input.Region,
		ShippingDetails:    details,
		SubtotalCents:      subtotal,
		ShippingFeeCents:   shippingFee,
		DiscountTotalCents: discountTotal,
		TotalCents:         total,
		Fees:               fees,
		Status:             enums.OrderStatusPendingApproval,
		PaymentStatus:      enums.PaymentStatusUnpaid,
	}
}

func buildItems(view *cart.View) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, models.OrderItem{
			ID:             uuid.New(),
			VariantID:      line.VariantID,
			ProductTitle:   line.ProductTitle,
			Condition:      line.Condition,
			UnitPriceCents: line.UnitPriceCents + line.ProtectorFeeCents,
			Qty:            line.Qty,
			LineTotalCents: line.LineTotalCents,
		})
	}
	return items
}
