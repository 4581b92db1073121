package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sowndhar-2005/canteen-go/internal/cart"
)

type CartHandler struct {
	Store cart.Store
}

type addItemReq struct {
	FoodID       string `json:"food_id"`
	Qty          int    `json:"qty"`
	Group        string `json:"group,omitempty"`
	Instructions string `json:"special_instructions,omitempty"`
}

type updateItemReq struct {
	Qty   int    `json:"qty"`
	Group string `json:"group,omitempty"`
}

type cartResp struct {
	Cart  *cart.Cart `json:"cart"`
	Total float64    `json:"total"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Put("/items/{foodID}", h.updateItem)
		r.Delete("/items/{foodID}", h.removeItem)
		r.Post("/share", h.shareCart)
		r.Post("/join/{link}", h.joinCart)
	})
}

func (h *CartHandler) respond(w http.ResponseWriter, c *cart.Cart) {
	if c == nil {
		writeJSON(w, http.StatusOK, cartResp{Cart: nil, Total: 0})
		return
	}
	writeJSON(w, http.StatusOK, cartResp{Cart: c, Total: c.Total()})
}

func cartStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrNotFound), errors.Is(err, cart.ErrFoodNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrFoodUnavailable), errors.Is(err, cart.ErrEmpty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Get(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	h.respond(w, c)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.FoodID == "" || req.Qty < 1 {
		writeError(w, http.StatusBadRequest, "food_id and a positive qty are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Store.AddItem(ctx, userID, req.FoodID, req.Qty, req.Group, req.Instructions)
	if err != nil {
		writeError(w, cartStatus(err), err.Error())
		return
	}
	h.respond(w, c)
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Store.UpdateItem(ctx, userID, chi.URLParam(r, "foodID"), req.Qty, req.Group)
	if err != nil {
		writeError(w, cartStatus(err), err.Error())
		return
	}
	h.respond(w, c)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Store.RemoveItem(ctx, userID, chi.URLParam(r, "foodID"))
	if err != nil {
		writeError(w, cartStatus(err), err.Error())
		return
	}
	h.respond(w, c)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Clear(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *CartHandler) shareCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	link, err := h.Store.Share(ctx, userID)
	if err != nil {
		writeError(w, cartStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"share_link": link})
}

func (h *CartHandler) joinCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Store.Join(ctx, chi.URLParam(r, "link"), userID)
	if err != nil {
		writeError(w, cartStatus(err), err.Error())
		return
	}
	h.respond(w, c)
}
