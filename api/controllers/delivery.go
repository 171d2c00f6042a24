package controllers

import (
	"net/http"

	"github.com/GyabaahFelix/lynqed-backend/api/middleware"
	"github.com/GyabaahFelix/lynqed-backend/api/responses"
	"github.com/GyabaahFelix/lynqed-backend/api/validators"
	"github.com/GyabaahFelix/lynqed-backend/internal/delivery"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

// MyRiderProfile returns the calling rider's profile.
func MyRiderProfile(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		profile, err := svc.GetMyProfile(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// UpsertRiderProfile files or edits the caller's rider application.
// The application sits in pending until an admin decides on it.
func UpsertRiderProfile(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		var body delivery.UpsertProfileInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpsertMyProfile(r.Context(), middleware.UserIDFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// RiderStats returns completed job counts and the caller's rating.
func RiderStats(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		stats, err := svc.GetStats(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// AdminListRiders returns rider applications for review, optionally
// filtered to one status by query parameter.
func AdminListRiders(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		filter := delivery.ListFilter{
			Status: r.URL.Query().Get("status"),
		}
		var err error
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", 20, 1, 100); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 100000); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		riders, err := svc.ListApplications(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, riders)
	}
}

// AdminTransitionRider applies an admin decision to a rider
// application: approve, reject, suspend, or move back to pending.
func AdminTransitionRider(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		riderID, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body delivery.TransitionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Transition(r.Context(), riderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
