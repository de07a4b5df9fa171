package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mnldiecast/storefront-backend/api/middleware"
	"github.com/mnldiecast/storefront-backend/api/responses"
	"github.com/mnldiecast/storefront-backend/api/validators"
	cartsvc "github.com/mnldiecast/storefront-backend/internal/cart"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
)

type addItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
	Protector bool   `json:"protector"`
}

type updateItemRequest struct {
	Qty       *int  `json:"qty" validate:"omitempty,min=0"`
	Protector *bool `json:"protector"`
}

type mergeRequest struct {
	GuestToken string `json:"guest_token" validate:"required"`
}

// GetCart returns the reconciled cart for the request identity.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}
		view, err := svc.Reload(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddItem adds a variant to the cart, clamping to available stock.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		variantID, err := uuid.Parse(req.VariantID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant id"))
			return
		}

		outcome, err := svc.Add(ctx, id, variantID, req.Qty, req.Protector)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// UpdateItem changes quantity and/or protector selection for one line.
func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}
		variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant id"))
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Qty == nil && req.Protector == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update"))
			return
		}

		if req.Protector != nil {
			if err := svc.SetProtector(ctx, id, variantID, *req.Protector); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if req.Qty != nil {
			outcome, err := svc.UpdateQty(ctx, id, variantID, *req.Qty)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, outcome)
			return
		}
		responses.WriteSuccess(w, map[string]any{"variant_id": variantID})
	}
}

// RemoveItem deletes one line from the cart.
func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}
		variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant id"))
			return
		}
		if err := svc.Remove(ctx, id, variantID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": variantID})
	}
}

// ClearCart empties the cart.
func ClearCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}
		if err := svc.Clear(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// MergeCart folds the guest cart named in the body into the authenticated
// shopper's account cart. Guests cannot merge.
func MergeCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok || id.IsGuest() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required to merge carts"))
			return
		}

		var req mergeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.MergeGuestCart(ctx, *id.OwnerID, req.GuestToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
