// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subscription

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dashi/internal/platform/middleware"
	requestutil "github.com/taibuivan/dashi/internal/platform/request"
	"github.com/taibuivan/dashi/internal/platform/respond"
	"github.com/taibuivan/dashi/internal/platform/sec"
)

// # Handler Implementation

// Handler exposes tiers and the subscription lifecycle.
type Handler struct {
	service *Service
}

// NewHandler constructs a new subscription [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches subscription endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/series/{seriesID}/tiers", handler.ListTiers)

	api.Group(func(member chi.Router) {
		member.Use(middleware.RequireAuth)

		member.Post("/series/{seriesID}/tiers", handler.CreateTier)
		member.Post("/tiers/{tierID}/subscribe", handler.Subscribe)
		member.Post("/subscriptions/{subscriptionID}/cancel", handler.Cancel)
		member.Get("/me/subscriptions", handler.ListSubscriptions)
	})

	// Payment system callbacks
	api.Group(func(billing chi.Router) {
		billing.Use(middleware.RequireRole(sec.RoleBilling))

		billing.Post("/subscriptions/{subscriptionID}/activate", handler.Activate)
		billing.Post("/subscriptions/{subscriptionID}/suspend", handler.Suspend)
	})
}

type createTierRequest struct {
	Name  string `json:"name"`
	Perks int    `json:"perks"`
	Price int64  `json:"price"`
}

// POST /api/v1/series/{seriesID}/tiers creates a tier (author only).
func (handler *Handler) CreateTier(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createTierRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tier, err := handler.service.CreateTier(request.Context(), userID, requestutil.ID(request, "seriesID"), CreateTierInput{
		Name:  input.Name,
		Perks: input.Perks,
		Price: input.Price,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, tier)
}

// GET /api/v1/series/{seriesID}/tiers lists a series' tiers.
func (handler *Handler) ListTiers(writer http.ResponseWriter, request *http.Request) {
	tiers, err := handler.service.ListTiers(request.Context(), requestutil.ID(request, "seriesID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tiers)
}

// POST /api/v1/tiers/{tierID}/subscribe opens a Pending subscription.
func (handler *Handler) Subscribe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.service.Subscribe(request.Context(), userID, requestutil.ID(request, "tierID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, subscription)
}

type activateRequest struct {
	ExpiresAt time.Time `json:"expires_at"`
}

/*
POST /api/v1/subscriptions/{subscriptionID}/activate.

Response:
  - 200: Subscription
  - 400: expires_at not in the future
  - 409: CONFLICT when another subscription is active, DOMAIN_CONFLICT when cancelled
*/
func (handler *Handler) Activate(writer http.ResponseWriter, request *http.Request) {
	var input activateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.service.Activate(request.Context(), requestutil.ID(request, "subscriptionID"), input.ExpiresAt)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscription)
}

// POST /api/v1/subscriptions/{subscriptionID}/suspend pauses an Active subscription.
func (handler *Handler) Suspend(writer http.ResponseWriter, request *http.Request) {
	subscription, err := handler.service.Suspend(request.Context(), requestutil.ID(request, "subscriptionID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscription)
}

// POST /api/v1/subscriptions/{subscriptionID}/cancel ends the caller's subscription.
func (handler *Handler) Cancel(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.service.Cancel(request.Context(), userID, requestutil.ID(request, "subscriptionID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscription)
}

// GET /api/v1/me/subscriptions lists the caller's subscriptions.
func (handler *Handler) ListSubscriptions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscriptions, err := handler.service.ListSubscriptions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscriptions)
}
