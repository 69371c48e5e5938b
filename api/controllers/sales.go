package controllers

import (
	"net/http"

	"github.com/cinalli-racing/lubricentro-backend/api/responses"
	"github.com/cinalli-racing/lubricentro-backend/api/validators"
	salesvc "github.com/cinalli-racing/lubricentro-backend/internal/sales"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

func CreateSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload salesvc.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if receipt.Queued {
			// Stored locally; delivery happens on the next sync pass.
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, receipt)
	}
}

func PendingSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Pending(r.Context()))
	}
}
