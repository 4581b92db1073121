package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sowndhar-2005/canteen-go/internal/orders"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeOrderSvc struct {
	placeFunc   func(ctx context.Context, userID string, method orders.PaymentMethod, src orders.Source) (*orders.Order, float64, error)
	orderFunc   func(ctx context.Context, userID, orderID string) (*orders.Order, error)
	ordersFunc  func(ctx context.Context, userID string, page, limit int) ([]orders.Order, int, error)
	currentFunc func(ctx context.Context, userID string) (*orders.Order, error)
	menuFunc    func(ctx context.Context) ([]orders.Food, error)
}

func (f *fakeOrderSvc) PlaceOrder(ctx context.Context, userID string, method orders.PaymentMethod, src orders.Source) (*orders.Order, float64, error) {
	if f.placeFunc != nil {
		return f.placeFunc(ctx, userID, method, src)
	}
	return nil, 0, errors.New("not implemented")
}

func (f *fakeOrderSvc) Order(ctx context.Context, userID, orderID string) (*orders.Order, error) {
	if f.orderFunc != nil {
		return f.orderFunc(ctx, userID, orderID)
	}
	return nil, nil
}

func (f *fakeOrderSvc) Orders(ctx context.Context, userID string, page, limit int) ([]orders.Order, int, error) {
	if f.ordersFunc != nil {
		return f.ordersFunc(ctx, userID, page, limit)
	}
	return nil, 0, nil
}

func (f *fakeOrderSvc) Current(ctx context.Context, userID string) (*orders.Order, error) {
	if f.currentFunc != nil {
		return f.currentFunc(ctx, userID)
	}
	return nil, nil
}

func (f *fakeOrderSvc) Menu(ctx context.Context) ([]orders.Food, error) {
	if f.menuFunc != nil {
		return f.menuFunc(ctx)
	}
	return nil, nil
}

type fakeProducer struct {
	published [][]byte
}

func (p *fakeProducer) Publish(key, value []byte, headers ...kafkago.Header) {
	p.published = append(p.published, value)
}

func sampleOrder() *orders.Order {
	now := time.Now()
	return &orders.Order{
		ID:             "o-1",
		DisplayID:      "#ORD-0007",
		UserID:         "user-1",
		Items:          []orders.OrderItem{{FoodID: "f-1", Name: "Dosa", Qty: 1, Price: 45}},
		Subtotal:       45,
		Tax:            2.25,
		Total:          47.25,
		PaymentMethod:  orders.MethodWallet,
		PaymentStatus:  orders.PaymentCompleted,
		Status:         orders.StatusCooking,
		CookingStart:   now,
		EstimatedReady: now.Add(15 * time.Minute),
		CreatedAt:      now,
	}
}

func TestPlaceOrder_Created(t *testing.T) {
	svc := &fakeOrderSvc{
		placeFunc: func(_ context.Context, userID string, method orders.PaymentMethod, src orders.Source) (*orders.Order, float64, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, orders.MethodWallet, method)
			assert.False(t, src.FromCart)
			require.Len(t, src.Items, 1)
			return sampleOrder(), 452.75, nil
		},
	}
	prod := &fakeProducer{}
	h := &OrdersHandler{Svc: svc, Producer: prod, Service: "test-api"}

	body := `{"payment_method":"wallet","items":[{"food_id":"f-1","qty":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	h.placeOrder(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp placeOrderResp
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "#ORD-0007", resp.Order.DisplayID)
	assert.Equal(t, 452.75, resp.RemainingBalance)

	require.Len(t, prod.published, 1, "one order-placed event per placement")
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(prod.published[0], &env))
	assert.Equal(t, orders.EventOrderPlaced, env.EventType)
	assert.Equal(t, "o-1", env.CorrelationID)
}

func TestPlaceOrder_FromCartWhenItemsOmitted(t *testing.T) {
	svc := &fakeOrderSvc{
		placeFunc: func(_ context.Context, _ string, _ orders.PaymentMethod, src orders.Source) (*orders.Order, float64, error) {
			assert.True(t, src.FromCart)
			return sampleOrder(), 0, nil
		},
	}
	h := &OrdersHandler{Svc: svc, Service: "test-api"}

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"payment_method":"upi"}`))
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	h.placeOrder(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestPlaceOrder_MissingIdentity(t *testing.T) {
	h := &OrdersHandler{Svc: &fakeOrderSvc{}}
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"payment_method":"wallet"}`))
	rr := httptest.NewRecorder()
	h.placeOrder(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPlaceOrder_RejectsBadPayloads(t *testing.T) {
	h := &OrdersHandler{Svc: &fakeOrderSvc{}}
	for name, body := range map[string]string{
		"invalid json":   `{`,
		"unknown method": `{"payment_method":"cheque"}`,
		"zero qty":       `{"payment_method":"wallet","items":[{"food_id":"f-1","qty":0}]}`,
		"missing food":   `{"payment_method":"wallet","items":[{"qty":2}]}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		req.Header.Set("X-User-ID", "user-1")
		rr := httptest.NewRecorder()
		h.placeOrder(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{orders.ErrEmptySource, http.StatusBadRequest},
		{orders.ErrInsufficientStock, http.StatusBadRequest},
		{orders.ErrInsufficientBalance, http.StatusBadRequest},
		{orders.ErrItemNotFound, http.StatusNotFound},
		{orders.ErrUserNotFound, http.StatusNotFound},
		{errors.New("pg down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &fakeOrderSvc{
			placeFunc: func(context.Context, string, orders.PaymentMethod, orders.Source) (*orders.Order, float64, error) {
				return nil, 0, tc.err
			},
		}
		h := &OrdersHandler{Svc: svc}
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"payment_method":"wallet"}`))
		req.Header.Set("X-User-ID", "user-1")
		rr := httptest.NewRecorder()
		h.placeOrder(rr, req)
		assert.Equal(t, tc.want, rr.Code, tc.err.Error())
	}
}

func TestGetOrder_CookingIncludesRemainingTime(t *testing.T) {
	o := sampleOrder()
	svc := &fakeOrderSvc{
		orderFunc: func(_ context.Context, userID, orderID string) (*orders.Order, error) {
			assert.Equal(t, "o-1", orderID)
			return o, nil
		},
	}
	h := &OrdersHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/orders/o-1", nil)
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	h.getOrder(rr, withURLParam(req, "id", "o-1"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp orderResp
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.RemainingTime)
	assert.Greater(t, *resp.RemainingTime, 0)
	assert.LessOrEqual(t, *resp.RemainingTime, 15)
}

func TestGetOrder_NotFound(t *testing.T) {
	h := &OrdersHandler{Svc: &fakeOrderSvc{}}
	req := httptest.NewRequest(http.MethodGet, "/orders/nope", nil)
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	h.getOrder(rr, withURLParam(req, "id", "nope"))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCurrentOrder_NullWhenNone(t *testing.T) {
	h := &OrdersHandler{Svc: &fakeOrderSvc{}}
	req := httptest.NewRequest(http.MethodGet, "/orders/current", nil)
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	h.currentOrder(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "null", string(resp["order"]))
}

func TestMyOrders_Pagination(t *testing.T) {
	svc := &fakeOrderSvc{
		ordersFunc: func(_ context.Context, _ string, page, limit int) ([]orders.Order, int, error) {
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, limit)
			return []orders.Order{*sampleOrder()}, 11, nil
		},
	}
	h := &OrdersHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/orders/my?page=2&limit=5", nil)
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	h.myOrders(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		CurrentPage int `json:"current_page"`
		TotalPages  int `json:"total_pages"`
		TotalOrders int `json:"total_orders"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 11, resp.TotalOrders)
}

func TestMenu(t *testing.T) {
	svc := &fakeOrderSvc{
		menuFunc: func(context.Context) ([]orders.Food, error) {
			return []orders.Food{{ID: "f-1", Name: "Dosa", Price: 45, Available: true, Stock: 10}}, nil
		},
	}
	h := &OrdersHandler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	rr := httptest.NewRecorder()
	h.menu(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var foods []orders.Food
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&foods))
	require.Len(t, foods, 1)
	assert.Equal(t, "Dosa", foods[0].Name)
}
