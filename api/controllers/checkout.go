package controllers

import (
	"net/http"

	"github.com/GyabaahFelix/lynqed-backend/api/middleware"
	"github.com/GyabaahFelix/lynqed-backend/api/responses"
	"github.com/GyabaahFelix/lynqed-backend/api/validators"
	"github.com/GyabaahFelix/lynqed-backend/internal/checkout"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

// Checkout converts the caller's cart into per-vendor orders in one
// transaction. Stock shortfalls roll the whole attempt back.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body checkout.CheckoutInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), middleware.UserIDFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
