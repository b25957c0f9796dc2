package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/redis"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/storage/gcs"
)

const readyCheckTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Koveo-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing services. Object storage is optional; the
// check skips pingers passed as nil.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, ping func(context.Context) error) {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness probe failed for "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			probe("postgres", dbP.Ping)
		}
		if redisP != nil {
			probe("redis", redisP.Ping)
		}
		if gcsP != nil {
			probe("gcs", gcsP.Ping)
		}

		w.Header().Set("X-Koveo-Env", cfg.App.Env)
		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
