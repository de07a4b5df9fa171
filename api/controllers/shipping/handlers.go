package shipping

import (
	"net/http"

	"github.com/mnldiecast/storefront-backend/api/middleware"
	"github.com/mnldiecast/storefront-backend/api/responses"
	"github.com/mnldiecast/storefront-backend/api/validators"
	cartsvc "github.com/mnldiecast/storefront-backend/internal/cart"
	shippingsvc "github.com/mnldiecast/storefront-backend/internal/shipping"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/enums"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
)

type quoteRequest struct {
	Carrier string `json:"carrier" validate:"required"`
	Region  string `json:"region" validate:"omitempty"`
}

type quoteResponse struct {
	Carrier          enums.Carrier      `json:"carrier"`
	Region           enums.Region       `json:"region"`
	PackageCode      *enums.PackageCode `json:"package_code,omitempty"`
	FeeCents         int                `json:"fee_cents"`
	RequiresApproval bool               `json:"requires_approval"`
	ApprovalReason   string             `json:"approval_reason,omitempty"`
}

// Quote prices shipping for the request identity's current cart.
func Quote(shippingCfg config.ShippingConfig, cartService cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := middleware.IdentityFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity is required"))
			return
		}

		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		carrier, err := enums.ParseCarrier(req.Carrier)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		if req.Region == "" {
			req.Region = shippingCfg.DefaultRegion
		}
		region, err := enums.ParseRegion(req.Region)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		view, err := cartService.Reload(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if len(view.Lines) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		quote, err := shippingsvc.QuoteItems(carrier, region, view.ShippingItems())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp := quoteResponse{
			Carrier:          quote.Carrier,
			Region:           quote.Region,
			FeeCents:         quote.FeeCents,
			RequiresApproval: quote.RequiresApproval,
			ApprovalReason:   quote.ApprovalReason,
		}
		if quote.Package != nil {
			resp.PackageCode = &quote.Package.Code
		}
		responses.WriteSuccess(w, resp)
	}
}
