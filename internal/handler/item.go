package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-store/internal/domain/item"
)

type itemResponse struct {
	ItemID       string  `json:"item_id"`
	ItemName     string  `json:"item_name"`
	Price        float64 `json:"price"`
	ItemsInStock int     `json:"items_in_stock"`
}

func toItemResponse(it *item.Item) itemResponse {
	return itemResponse{
		ItemID:       it.ID,
		ItemName:     it.Name,
		Price:        it.Price.InexactFloat64(),
		ItemsInStock: it.InStock,
	}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]itemResponse, len(items))
	for i := range items {
		out[i] = toItemResponse(&items[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemName     string  `json:"item_name"`
		Price        float64 `json:"price"`
		ItemsInStock int     `json:"items_in_stock"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	it, err := h.items.Create(r.Context(), item.CreateParams{
		Name:    req.ItemName,
		Price:   decimal.NewFromFloat(req.Price),
		InStock: req.ItemsInStock,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toItemResponse(it))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.items.Get(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemResponse(it))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price        float64 `json:"price"`
		ItemsInStock int     `json:"items_in_stock"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.items.Update(r.Context(), chi.URLParam(r, "itemID"),
		decimal.NewFromFloat(req.Price), req.ItemsInStock)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Delete(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
