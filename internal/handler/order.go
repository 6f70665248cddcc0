package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/kart-store/internal/domain/account"
)

type orderResponse struct {
	OrderID      string             `json:"order_id"`
	UserID       string             `json:"user_id"`
	OrderDetails []account.CartLine `json:"order_details"`
	CreatedTime  string             `json:"created_time"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = orderResponse{
			OrderID:      o.ID,
			UserID:       o.UserID,
			OrderDetails: o.Details,
			CreatedTime:  o.CreatedAt.Format(time.RFC3339),
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "orderID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
