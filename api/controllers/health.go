package controllers

import (
	"net/http"

	"github.com/cinalli-racing/lubricentro-backend/api/responses"
	"github.com/cinalli-racing/lubricentro-backend/pkg/config"
	"github.com/cinalli-racing/lubricentro-backend/pkg/localstore"
)

type onlineChecker interface {
	Online() bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Lubricentro-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports the local store and backend reachability. The store is
// the only hard dependency; the app is built to run with the backend down.
func HealthReady(cfg *config.Config, store localstore.Store, observer onlineChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Lubricentro-Env", cfg.App.Env)

		storeStatus := "ok"
		if err := store.Set("health.probe", "ok"); err != nil {
			storeStatus = "error"
		}

		backend := "offline"
		if observer.Online() {
			backend = "online"
		}

		payload := map[string]string{
			"status":  "ready",
			"store":   storeStatus,
			"backend": backend,
		}
		if storeStatus != "ok" {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
