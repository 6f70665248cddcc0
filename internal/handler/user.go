package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/pricing"
	"github.com/xenking/kart-store/internal/domain/user"
)

type userResponse struct {
	UserID        string  `json:"user_id"`
	Account       string  `json:"account"`
	UserName      string  `json:"user_name"`
	Credit        float64 `json:"credit"`
	CreatedTime   string  `json:"created_time"`
	LastLoginTime string  `json:"last_login_time"`
}

func toUserResponse(acc *account.Account) userResponse {
	return userResponse{
		UserID:        acc.UserID,
		Account:       acc.Account,
		UserName:      acc.UserName,
		Credit:        acc.Credit.InexactFloat64(),
		CreatedTime:   acc.CreatedAt.Format(time.RFC3339),
		LastLoginTime: acc.LastLoginAt.Format(time.RFC3339),
	}
}

type itemListResponse struct {
	Total    float64           `json:"total"`
	ItemList []itemListRowBody `json:"item_list"`
}

type itemListRowBody struct {
	ItemID    string  `json:"item_id"`
	ItemName  string  `json:"item_name"`
	ItemPrice float64 `json:"item_price"`
	Amount    int     `json:"amount"`
	Subtotal  float64 `json:"subtotal"`
}

func toItemListResponse(list pricing.ItemList) itemListResponse {
	return itemListResponse{
		Total:    list.Total.InexactFloat64(),
		ItemList: toItemListRows(list.Rows),
	}
}

func toItemListRows(rows []pricing.Row) []itemListRowBody {
	out := make([]itemListRowBody, len(rows))
	for i, row := range rows {
		out[i] = itemListRowBody{
			ItemID:    row.ItemID,
			ItemName:  row.ItemName,
			ItemPrice: row.ItemPrice.InexactFloat64(),
			Amount:    row.Amount,
			Subtotal:  row.Subtotal.InexactFloat64(),
		}
	}
	return out
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account  string  `json:"account"`
		UserName string  `json:"user_name"`
		Password string  `json:"password"`
		Credit   float64 `json:"credit"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Account == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "account and password are required")
		return
	}

	acc, err := h.users.Register(r.Context(), user.RegisterParams{
		Account:  req.Account,
		UserName: req.UserName,
		Password: req.Password,
		Credit:   decimal.NewFromFloat(req.Credit),
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(acc))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	acc, err := h.users.Login(r.Context(), req.Account, req.Password)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		UserID   string `json:"user_id"`
		UserName string `json:"user_name"`
	}{acc.UserID, acc.UserName})
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	acc, err := h.users.Deposit(r.Context(), chi.URLParam(r, "userID"), decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(acc))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	acc, err := h.users.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(acc))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.users.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]userResponse, len(accounts))
	for i := range accounts {
		out[i] = toUserResponse(&accounts[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	list, err := h.cart.Cart(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemListResponse(list))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
		Amount int    `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.cart.AddItem(r.Context(), chi.URLParam(r, "userID"), req.ItemID, req.Amount); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	err := h.cart.RemoveItem(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "itemID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkout.Checkout(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, struct {
		OrderID     string `json:"order_id"`
		CreatedTime string `json:"created_time"`
	}{o.ID, o.CreatedAt.Format(time.RFC3339)})
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.checkout.OrderHistory(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	type orderRow struct {
		OrderID     string            `json:"order_id"`
		ItemList    []itemListRowBody `json:"item_list"`
		CreatedTime string            `json:"created_time"`
		Total       float64           `json:"total"`
	}
	resp := struct {
		Account   string     `json:"account"`
		Name      string     `json:"name"`
		OrderList []orderRow `json:"order_list"`
	}{
		Account:   history.Account,
		Name:      history.Name,
		OrderList: make([]orderRow, len(history.Orders)),
	}
	for i, entry := range history.Orders {
		resp.OrderList[i] = orderRow{
			OrderID:     entry.OrderID,
			ItemList:    toItemListRows(entry.Items),
			CreatedTime: entry.CreatedAt.Format(time.RFC3339),
			Total:       entry.Total.InexactFloat64(),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
