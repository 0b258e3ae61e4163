package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/realtime"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/store/memory"
)

var testNow = time.Date(2025, 3, 25, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	metrics *metrics.Metrics
	hub     *realtime.Hub
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()

	opts := engine.DefaultOptions()
	opts.BcryptCost = bcrypt.MinCost

	s := memory.New()
	require.NoError(t, store.Seed(context.Background(), s, testNow, opts.TaxRate, engine.HashPIN(bcrypt.MinCost)))

	var (
		mu  sync.Mutex
		seq int
	)
	newID := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	m := metrics.New()
	log := logger.NewWithWriter("api-test", io.Discard, slog.LevelDebug)
	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)
	eng := engine.New(s, opts, log,
		engine.WithRecorder(m),
		engine.WithNotifier(hub),
		engine.WithClock(func() time.Time { return testNow }),
		engine.WithIDGenerator(newID),
	)
	srv := NewServer(eng, log, Options{Metrics: m, Realtime: hub, Checks: checks})
	return &testServer{handler: srv.Routes(), metrics: m, hub: hub}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	})
	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, body["healthy"])
	assert.Equal(t, "pos-service", body["service"])

	ts = newTestServer(t, map[string]HealthCheck{
		"rabbitmq": func(context.Context) error { return errors.New("connection closed") },
	})
	rec = ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decode[map[string]interface{}](t, rec)
	assert.Equal(t, false, body["healthy"])
	assert.Equal(t, "connection closed", body["dependencies"].(map[string]interface{})["rabbitmq"])
}

func TestDineInFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/carts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decode[cartResponse](t, rec)
	require.NotEmpty(t, cart.ID)
	assert.Empty(t, cart.Items)

	rec = ts.do(t, http.MethodPost, "/carts/"+cart.ID+"/items", addCartItemRequest{MenuItemID: "2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/carts/"+cart.ID+"/items", addCartItemRequest{MenuItemID: "2"})
	require.Equal(t, http.StatusOK, rec.Code)
	qty := 1
	rec = ts.do(t, http.MethodPut, "/carts/"+cart.ID+"/items/2", updateCartItemRequest{Quantity: &qty})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decode[cartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	assertMoney(t, "23.99", cart.Subtotal)
	assertMoney(t, "1.20", cart.Tax)
	assertMoney(t, "25.19", cart.Total)

	rec = ts.do(t, http.MethodPost, "/orders", placeOrderRequest{CartID: cart.ID, DiningMode: models.DineIn, TableID: "5", Server: "Emma Johnson"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, "ORD_20250325_006", order.Number)
	assert.Equal(t, "T5", order.Label)
	assert.Equal(t, models.StatusPending, order.Status)
	assertMoney(t, "25.19", order.Total)

	rec = ts.do(t, http.MethodGet, "/carts/"+cart.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)

	rec = ts.do(t, http.MethodGet, "/tables/5", nil)
	table := decode[models.Table](t, rec)
	assert.Equal(t, models.TableOccupied, table.Status)
	assert.Equal(t, order.ID, table.CurrentOrderID)

	for _, status := range []models.OrderStatus{models.StatusProcessing, models.StatusCompleted} {
		rec = ts.do(t, http.MethodPatch, "/orders/"+order.ID+"/status", updateStatusRequest{Status: status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/tables/5", nil)
	assert.Equal(t, models.TableAvailable, decode[models.Table](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/orders/"+order.ID+"/payments", models.TransactionInput{
		Amount: order.Total, Method: models.MethodCard, StaffID: "3",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decode[paymentResponse](t, rec)
	assert.Equal(t, models.PaymentPaid, payment.Order.PaymentStatus)
	assert.Equal(t, models.TxSale, payment.Transaction.Type)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown order", http.MethodGet, "/orders/missing", nil, http.StatusNotFound, "OrderNotFound"},
		{"unknown cart", http.MethodGet, "/carts/missing", nil, http.StatusNotFound, "CartNotFound"},
		{"completed order", http.MethodPatch, "/orders/5/status", updateStatusRequest{Status: models.StatusProcessing}, http.StatusConflict, "InvalidTransition"},
		{"invalid status", http.MethodPatch, "/orders/2/status", updateStatusRequest{Status: "Oops"}, http.StatusBadRequest, "ValidationError"},
		{"unknown fields", http.MethodPatch, "/orders/2/status", map[string]string{"state": "Completed"}, http.StatusBadRequest, "InvalidRequest"},
		{"occupied table", http.MethodPatch, "/tables/4/status", engine.TableStatusRequest{Status: models.TableOccupied, OrderID: "2"}, http.StatusConflict, "TableConflict"},
		{"take away order seated", http.MethodPatch, "/tables/9/status", engine.TableStatusRequest{Status: models.TableOccupied, OrderID: "2"}, http.StatusConflict, "OrderNotSeatable"},
		{"driver on delivery", http.MethodPost, "/orders/4/driver", assignDriverRequest{DriverID: "1"}, http.StatusConflict, "DriverUnavailable"},
		{"bad pin", http.MethodPost, "/auth/login", loginRequest{Email: "admin@chilipos.com", PIN: "0000"}, http.StatusUnauthorized, "InvalidCredentials"},
		{"bad report date", http.MethodGet, "/transactions/sales-report?start_date=yesterday&end_date=2025-03-25", nil, http.StatusBadRequest, "ValidationError"},
		{"bad party size", http.MethodGet, "/reservations/available-tables?date=2025-03-25&time=19:00&party_size=many", nil, http.StatusBadRequest, "InvalidRequest"},
		{"unknown route", http.MethodGet, "/nowhere", nil, http.StatusNotFound, "RouteNotFound"},
	}

	ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.Timestamp)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	ts := newTestServer(t, nil)
	cart := decode[cartResponse](t, ts.do(t, http.MethodPost, "/carts", nil))

	rec := ts.do(t, http.MethodPost, "/orders", placeOrderRequest{CartID: cart.ID, DiningMode: models.TakeAway})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EmptyCart", decode[errorBody](t, rec).Code)
}

func TestDecode_RequiresJSONContentType(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a","pin":"1"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidRequest", decode[errorBody](t, rec).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/orders/missing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", decode[errorBody](t, rec).RequestID)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodPost, "/auth/login", loginRequest{Email: " Admin@ChiliPOS.com ", PIN: "1234"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "1", body["id"])
	assert.Equal(t, "Admin", body["role"])
	assert.NotContains(t, body, "pin")
	assert.NotContains(t, body, "PINHash")
}

func TestListFilters(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"menu by category", "/menu-items?category=soups", 2},
		{"menu search", "/menu-items?q=burger", 2},
		{"pending orders", "/orders?status=Pending", 2},
		{"bar tables", "/tables?section=Bar", 2},
		{"available drivers", "/drivers/available", 2},
		{"reservations none on date", "/reservations?date=1999-01-01", 0},
		{"sales", "/transactions?type=Sale", 2},
		{"kitchen queue", "/kitchen/orders", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decode[[]json.RawMessage](t, rec), tt.want)
		})
	}
}

func TestDashboardAndReports(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[engine.Dashboard](t, rec)
	assert.Equal(t, 5, d.TotalOrders)
	assert.Equal(t, 12, d.TotalTables)
	assertMoney(t, "110.23", d.TotalSales)

	rec = ts.do(t, http.MethodGet, "/transactions/sales-report?start_date=2025-03-25&end_date=2025-03-25", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertMoney(t, "110.23", decode[engine.SalesReport](t, rec).TotalSales)

	rec = ts.do(t, http.MethodGet, "/transactions/aggregate?type=Expense", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertMoney(t, "225.50", decode[engine.Aggregate](t, rec).Total)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodGet, "/orders/missing", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/orders/{id}"`)
	assert.Contains(t, rec.Body.String(), "pos_http_requests_total")
}

func TestOrderFeedOverWebsocket(t *testing.T) {
	ts := newTestServer(t, nil)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/orders", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return ts.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	rec := ts.do(t, http.MethodPatch, "/orders/2/status", updateStatusRequest{Status: models.StatusProcessing})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventOrderStatusChanged, ev.Type)
	require.NotNil(t, ev.Order)
	assert.Equal(t, "2", ev.Order.ID)
	assert.NotEmpty(t, ev.RequestID)
}
