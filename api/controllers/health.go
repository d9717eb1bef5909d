package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/shopcart/api/responses"
	"github.com/angelmondragon/shopcart/pkg/config"
	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
	"github.com/angelmondragon/shopcart/pkg/logger"
	pkgredis "github.com/angelmondragon/shopcart/pkg/redis"
)

const (
	envHeader    = "X-Shopcart-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once every configured dependency answers. A nil pinger means
// the dependency is not configured.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{"redis": "disabled"}
		if redisPinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := redisPinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready").WithDetails(map[string]any{"dependency": "redis"}))
				return
			}
			checks["redis"] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
