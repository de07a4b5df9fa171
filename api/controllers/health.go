package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/mnldiecast/storefront-backend/api/responses"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
)

// Pinger is anything with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady verifies the dependencies the storefront cannot run without.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"env": cfg.App.Env}
		var unhealthy error
		for name, dep := range deps {
			if dep == nil {
				status[name] = "not configured"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "unreachable"
				unhealthy = multierr.Append(unhealthy, err)
				continue
			}
			status[name] = "ok"
		}

		if unhealthy != nil {
			if logg != nil {
				logg.Error(ctx, "readiness check failed", unhealthy)
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
