package orders

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mnldiecast/storefront-backend/api/middleware"
	"github.com/mnldiecast/storefront-backend/api/responses"
	"github.com/mnldiecast/storefront-backend/api/validators"
	ordersvc "github.com/mnldiecast/storefront-backend/internal/orders"
	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	PaymentMethod         string        `json:"payment_method" validate:"required"`
	ShippingMethod        string        `json:"shipping_method" validate:"required"`
	Region                string        `json:"region" validate:"required"`
	ShippingDetails       types.JSONMap `json:"shipping_details" validate:"required"`
	SelectedVariantIDs    []string      `json:"selected_variant_ids" validate:"omitempty,dive,uuid"`
	CashOnPickupFeeCents  int           `json:"cop_fee_cents" validate:"omitempty,min=0"`
	LalamoveFeeCents      int           `json:"lalamove_fee_cents" validate:"omitempty,min=0"`
	PriorityFeeCents      int           `json:"priority_fee_cents" validate:"omitempty,min=0"`
	InsuranceFeeCents     int           `json:"insurance_fee_cents" validate:"omitempty,min=0"`
	ShippingDiscountCents int           `json:"shipping_discount_cents" validate:"omitempty,min=0"`
	DiscountTotalCents    *int          `json:"discount_total_cents" validate:"omitempty,min=0"`
}

// Checkout turns the request identity's cart into an order.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paymentMethod, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		carrier, err := enums.ParseCarrier(req.ShippingMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		region, err := enums.ParseRegion(req.Region)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		selected := make([]uuid.UUID, 0, len(req.SelectedVariantIDs))
		for _, raw := range req.SelectedVariantIDs {
			variantID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid selected variant id"))
				return
			}
			selected = append(selected, variantID)
		}

		result, err := svc.CreateOrder(ctx, ordersvc.CheckoutInput{
			Identity:              id,
			PaymentMethod:         paymentMethod,
			Carrier:               carrier,
			Region:                region,
			ShippingDetails:       req.ShippingDetails,
			SelectedVariants:      selected,
			CashOnPickupFeeCents:  req.CashOnPickupFeeCents,
			LalamoveFeeCents:      req.LalamoveFeeCents,
			PriorityFeeCents:      req.PriorityFeeCents,
			InsuranceFeeCents:     req.InsuranceFeeCents,
			ShippingDiscountCents: req.ShippingDiscountCents,
			DiscountTotalCents:    req.DiscountTotalCents,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetOrder returns one of the authenticated shopper's orders.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok || id.IsGuest() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.GetOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if order.OwnerID == nil || *order.OwnerID != *id.OwnerID {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns the authenticated shopper's order history.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok || id.IsGuest() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}

		orders, err := svc.ListOrders(ctx, *id.OwnerID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}
