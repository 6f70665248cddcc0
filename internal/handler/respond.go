package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/cart"
	"github.com/xenking/kart-store/internal/domain/checkout"
	"github.com/xenking/kart-store/internal/domain/inventory"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/store"
	"github.com/xenking/kart-store/internal/domain/user"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Code: status, Message: message})
}

// respondDomainError maps a domain error onto the client-facing status
// taxonomy: 404 nothing-there, 409 retry-later or taken, 422 the store
// cannot satisfy the request, 400 invalid input, 401 bad credentials.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr  *inventory.InsufficientStockError
		creditErr *checkout.InsufficientCreditError
	)

	switch {
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, item.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, account.ErrDuplicateAccount),
		errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())

	case errors.As(err, &stockErr),
		errors.As(err, &creditErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidAmount),
		errors.Is(err, user.ErrInvalidAmount),
		errors.Is(err, item.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, account.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
