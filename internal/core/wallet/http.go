// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dashi/internal/platform/middleware"
	requestutil "github.com/taibuivan/dashi/internal/platform/request"
	"github.com/taibuivan/dashi/internal/platform/respond"
	"github.com/taibuivan/dashi/internal/platform/sec"
	"github.com/taibuivan/dashi/pkg/pagination"
)

// # Handler Implementation

// Handler exposes wallet balances to their owners and top-ups to admins.
type Handler struct {
	service *Service
}

// NewHandler constructs a new wallet [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches wallet endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Group(func(owner chi.Router) {
		owner.Use(middleware.RequireAuth)

		owner.Get("/me/wallet", handler.GetWallet)
		owner.Get("/me/wallet/entries", handler.ListEntries)
	})

	api.Group(func(billing chi.Router) {
		billing.Use(middleware.RequireRole(sec.RoleBilling))

		billing.Post("/wallets/{userID}/credit", handler.Credit)
	})
}

// GET /api/v1/me/wallet returns the caller's balance.
func (handler *Handler) GetWallet(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	wallet, err := handler.service.Balance(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, wallet)
}

// GET /api/v1/me/wallet/entries pages through the caller's balance movements.
func (handler *Handler) ListEntries(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	entries, total, err := handler.service.Entries(request.Context(), userID, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(page.Page, page.Limit, total))
}

type creditRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

/*
POST /api/v1/wallets/{userID}/credit.

Response:
  - 200: {"balance": int}
  - 400: Non-positive amount or missing reference
  - 403: Caller is not an admin
*/
func (handler *Handler) Credit(writer http.ResponseWriter, request *http.Request) {
	var input creditRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	balance, err := handler.service.Credit(request.Context(), requestutil.ID(request, "userID"), input.Amount, input.Reference)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int64{"balance": balance})
}
