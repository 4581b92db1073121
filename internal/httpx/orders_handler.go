package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/Sowndhar-2005/canteen-go/internal/kafka"
	"github.com/Sowndhar-2005/canteen-go/internal/orders"
	"github.com/Sowndhar-2005/canteen-go/internal/redisx"
)

// OrderService is what the handler needs from the order core.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, method orders.PaymentMethod, src orders.Source) (*orders.Order, float64, error)
	Order(ctx context.Context, userID, orderID string) (*orders.Order, error)
	Orders(ctx context.Context, userID string, page, limit int) ([]orders.Order, int, error)
	Current(ctx context.Context, userID string) (*orders.Order, error)
	Menu(ctx context.Context) ([]orders.Food, error)
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Svc      OrderService
	Producer publisher
	Redis    *redis.Client
	Service  string
}

type placeOrderReq struct {
	PaymentMethod string             `json:"payment_method"`
	Items         []orders.ItemInput `json:"items"`
}

type placeOrderResp struct {
	Order            *orders.Order `json:"order"`
	RemainingBalance float64       `json:"remaining_balance"`
}

type orderResp struct {
	Order         *orders.Order `json:"order"`
	RemainingTime *int          `json:"remaining_time,omitempty"` // minutes, cooking only
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/my", h.myOrders)
	r.Get("/orders/current", h.currentOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.orderStatus)
	r.Get("/menu", h.menu)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	method := orders.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}
	for _, it := range req.Items {
		if it.FoodID == "" || it.Qty < 1 {
			writeError(w, http.StatusBadRequest, "each item needs a food_id and a positive qty")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	src := orders.Source{FromCart: len(req.Items) == 0, Items: req.Items}
	order, remaining, err := h.Svc.PlaceOrder(ctx, userID, method, src)
	if err != nil {
		writeError(w, placementStatus(err), err.Error())
		return
	}

	h.cacheStatus(ctx, order)
	h.publishPlaced(r, order)

	writeJSON(w, http.StatusCreated, placeOrderResp{Order: order, RemainingBalance: remaining})
}

// placementStatus maps the business-error taxonomy onto HTTP codes; anything
// unrecognized is a storage fault.
func placementStatus(err error) int {
	switch {
	case errors.Is(err, orders.ErrItemNotFound), errors.Is(err, orders.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrEmptySource),
		errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrInsufficientBalance),
		errors.Is(err, orders.ErrInvalidPaymentMethod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body, _ := json.Marshal(map[string]any{"status": o.Status})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publishPlaced(r *http.Request, o *orders.Order) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.PlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orders.PlacedItem{FoodID: it.FoodID, Name: it.Name, Qty: it.Qty, Price: it.Price})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:       o.ID,
			DisplayID:     o.DisplayID,
			UserID:        o.UserID,
			Items:         items,
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
			PlacedAt:      o.CreatedAt,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	page := intQuery(r, "page", 1)
	limit := intQuery(r, "limit", 10)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Svc.Orders(ctx, userID, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":       list,
		"current_page": page,
		"total_pages":  int(math.Ceil(float64(total) / float64(limit))),
		"total_orders": total,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Svc.Order(ctx, userID, orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, withRemaining(o))
}

func (h *OrdersHandler) currentOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Svc.Current(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load current order")
		return
	}
	if o == nil {
		writeJSON(w, http.StatusOK, orderResp{Order: nil})
		return
	}
	writeJSON(w, http.StatusOK, withRemaining(o))
}

func withRemaining(o *orders.Order) orderResp {
	resp := orderResp{Order: o}
	if o.Status == orders.StatusCooking {
		m := o.RemainingMinutes(time.Now())
		resp.RemainingTime = &m
	}
	return resp
}

// orderStatus serves the lightweight status poll: Redis cache first, DB as
// fallback (and refills the cache).
func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Svc.Order(ctx, userID, orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	body, _ := json.Marshal(map[string]any{"status": o.Status})
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func (h *OrdersHandler) menu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	foods, err := h.Svc.Menu(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load menu")
		return
	}
	if foods == nil {
		foods = []orders.Food{}
	}
	writeJSON(w, http.StatusOK, foods)
}

func intQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
