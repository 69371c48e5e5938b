package controllers

import (
	"net/http"

	"github.com/cinalli-racing/lubricentro-backend/api/responses"
	"github.com/cinalli-racing/lubricentro-backend/api/validators"
	"github.com/cinalli-racing/lubricentro-backend/internal/catalog"
	"github.com/cinalli-racing/lubricentro-backend/internal/reconcile"
	"github.com/cinalli-racing/lubricentro-backend/internal/syncstate"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

func SyncStatus(ctrl *reconcile.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, ctrl.Snapshot())
	}
}

// SyncTrigger runs a manual reconciliation pass and reports its result. A
// pass that could not start (offline, already running) is still a 200; the
// result carries the reason.
func SyncTrigger(ctrl *reconcile.Controller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, ctrl.ForceSync(r.Context()))
	}
}

func SyncValidate(repo *syncstate.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, repo.Validate())
	}
}

func SyncExport(repo *syncstate.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, repo.Export())
	}
}

func SyncImport(repo *syncstate.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var backup catalog.Backup
		if err := validators.DecodeJSONBody(r, &backup); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, repo.Import(backup))
	}
}

func SyncSettingsGet(repo *syncstate.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, repo.Settings())
	}
}

func SyncSettingsPut(repo *syncstate.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings catalog.SyncSettings
		if err := validators.DecodeJSONBody(r, &settings); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repo.WriteSettings(settings)
		responses.WriteSuccess(w, settings)
	}
}
