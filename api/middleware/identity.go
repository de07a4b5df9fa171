package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mnldiecast/storefront-backend/internal/cart"
	"github.com/mnldiecast/storefront-backend/pkg/auth"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

type identityCtxKey struct{}

// Identity resolves who the request shops as. A valid bearer token wins;
// otherwise the guest token header names an anonymous cart. Requests with
// neither pass through without an identity and the handlers decide whether
// that is acceptable.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				claims, err := auth.ParseAccessToken(cfg, token)
				if err == nil {
					id := cart.OwnerIdentity(claims.OwnerID)
					if logg != nil {
						ctx = logg.WithOwnerID(ctx, claims.OwnerID.String())
					}
					next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
					return
				}
				if logg != nil {
					logg.Warn(ctx, "rejecting invalid bearer token")
				}
			}

			if token := strings.TrimSpace(r.Header.Get(guestTokenHeader)); token != "" {
				ctx = WithIdentity(ctx, cart.GuestIdentity(token))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithIdentity attaches a resolved cart identity to the context.
func WithIdentity(ctx context.Context, id cart.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the request's cart identity, if any.
func IdentityFromContext(ctx context.Context) (cart.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(cart.Identity)
	return id, ok && id.Valid()
}
