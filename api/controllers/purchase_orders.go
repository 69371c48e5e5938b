package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cinalli-racing/lubricentro-backend/api/responses"
	"github.com/cinalli-racing/lubricentro-backend/api/validators"
	purchasesvc "github.com/cinalli-racing/lubricentro-backend/internal/purchasing"
	pkgerrors "github.com/cinalli-racing/lubricentro-backend/pkg/errors"
	"github.com/cinalli-racing/lubricentro-backend/pkg/logger"
)

func CreatePurchaseOrder(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purchasesvc.CreateInput
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
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, receipt)
	}
}

func PendingPurchaseOrders(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Pending(r.Context()))
	}
}

func ReceivePurchaseOrder(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "orderId")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id required"))
			return
		}

		order, err := svc.Receive(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
