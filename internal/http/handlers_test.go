package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockProducts struct {
	products []domain.Product
	err      error
}

func (m mockProducts) Products(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m mockProducts) Product(_ context.Context, id string) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: %s", catalog.ErrProductNotFound, id)
}

type mockTracker struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (m *mockTracker) Start(_ context.Context, orderID string) *tracker.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, orderID)
	return nil
}

func (m *mockTracker) Stop(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.started {
		if id == orderID {
			m.stopped = append(m.stopped, orderID)
			return true
		}
	}
	return false
}

type testServer struct {
	handler http.Handler
	cart    *service.CartService
	orders  *service.OrderService
	auth    *service.AuthService
	tracker *mockTracker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storage.NewMemoryStore()
	log := zap.NewNop()

	cart := service.NewCartService(store, log)
	orders := service.NewOrderService(store, log)
	auth, err := service.NewAuthService(store, log, service.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	checkout := service.NewCheckoutService(store, cart, orders, auth, payment.NewSimulator(0, payment.AlwaysApprove{}), log)
	tr := &mockTracker{}

	h := NewRouter(Deps{
		Cart:           cart,
		Orders:         orders,
		Auth:           auth,
		Checkout:       checkout,
		Products:       mockProducts{products: catalog.MockProducts()},
		Tracker:        tr,
		Logger:         log,
		BaseCtx:        context.Background(),
		RequestTimeout: 5 * time.Second,
		PayTimeout:     5 * time.Second,
		MaxBodyBytes:   1 << 20,
	})
	return &testServer{handler: h, cart: cart, orders: orders, auth: auth, tracker: tr}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"shippingAddress": map[string]string{
			"fullName":   "Demo User",
			"phone":      "08123456789",
			"address":    "Jl. Sudirman 1",
			"city":       "Jakarta",
			"province":   "DKI Jakarta",
			"postalCode": "10210",
		},
		"shippingMethod": "regular",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_SingleIDPerRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-from-client")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"req-from-client"}, rec.Header().Values("X-Request-ID"))
}

func TestRequestIDMiddleware_StoresHeaderInContext(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products?category=CPU", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decode[[]ProductResponseDTO](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, "Ryzen 9 7950X", products[0].Name)
	assert.Equal(t, int64(11_249_100), products[0].FinalPrice)
}

func TestGetProduct_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/products/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCategories(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"all", "GPU", "CPU"}, decode[[]string](t, rec))
}

func TestCart_AddUpdateRemove(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "2", Quantity: 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	cart := decode[CartResponseDTO](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, int64(3*12_499_000), cart.Total)

	rec = s.do(t, http.MethodPut, "/api/v1/cart/items/2", UpdateQuantityRequestDTO{Quantity: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[CartResponseDTO](t, rec).ItemCount)

	rec = s.do(t, http.MethodPut, "/api/v1/cart/items/2", UpdateQuantityRequestDTO{Quantity: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[CartResponseDTO](t, rec).Items)
}

func TestCart_AddItemCapsLineQuantity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 60})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1", Quantity: 60})
	require.Equal(t, http.StatusCreated, rec.Code)

	cart := decode[CartResponseDTO](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 99, cart.Items[0].Quantity)
}

func TestCart_AddItemValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{name: "missing product", body: map[string]interface{}{"quantity": 1}, want: http.StatusBadRequest},
		{name: "quantity too high", body: AddItemRequestDTO{ProductID: "1", Quantity: 100}, want: http.StatusBadRequest},
		{name: "unknown product", body: AddItemRequestDTO{ProductID: "404"}, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, rec).Code)
}

func TestCart_Selection(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "1"})
	s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "2"})

	rec := s.do(t, http.MethodPost, "/api/v1/cart/selection/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2"}, decode[CartResponseDTO](t, rec).SelectedItems)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/selection", nil)
	assert.Empty(t, decode[CartResponseDTO](t, rec).SelectedItems)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/selection", nil)
	assert.Len(t, decode[CartResponseDTO](t, rec).SelectedItems, 2)

	s.do(t, http.MethodPost, "/api/v1/cart/selection/2", nil)
	rec = s.do(t, http.MethodDelete, "/api/v1/cart/selected", nil)
	cart := decode[CartResponseDTO](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "2", cart.Items[0].ProductID)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart", nil)
	assert.Empty(t, decode[CartResponseDTO](t, rec).Items)
}

func TestAuth_Endpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequestDTO{Email: "user@wowotech.dev", Password: "Wrong123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", RegisterRequestDTO{FullName: "Jane", Email: "jane@x.com", Password: "weakpass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", RegisterRequestDTO{FullName: "Jane", Email: "jane@x.com", Password: "Secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", RegisterRequestDTO{FullName: "Jane Two", Email: "jane@x.com", Password: "Secret2"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[service.AuthResult](t, rec)
	assert.Equal(t, "jane@x.com", me.User.Email)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, s.auth.IsAuthenticated())

	rec = s.do(t, http.MethodPost, "/api/v1/auth/quick-login", QuickLoginRequestDTO{Role: "superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/checkout", checkoutBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/auth/quick-login", QuickLoginRequestDTO{Role: domain.RoleUser})

	rec := s.do(t, http.MethodPost, "/api/v1/checkout", checkoutBody())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/quick-login", QuickLoginRequestDTO{Role: domain.RoleUser})
	require.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "2"})

	rec = s.do(t, http.MethodPost, "/api/v1/checkout", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	pending := decode[service.PendingCheckout](t, rec)
	assert.Equal(t, int64(0), pending.Draft.ShippingCost)
	assert.Equal(t, int64(12_499_000), pending.Total)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/pay", PayRequestDTO{PaymentMethod: "cash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/pay", PayRequestDTO{PaymentMethod: domain.PaymentMethodQRIS})
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[service.PaymentResult](t, rec)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, res.Order.Status)
	assert.Equal(t, "2", res.Order.UserID)
	assert.Equal(t, []string{res.Order.ID}, s.tracker.started)
	assert.Empty(t, s.cart.Items())

	rec = s.do(t, http.MethodGet, "/api/v1/checkout/address", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jakarta", decode[domain.ShippingAddress](t, rec).City)

	rec = s.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Order](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/v1/orders/"+res.Order.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+res.Order.ID+"/status", UpdateStatusRequestDTO{Status: domain.OrderStatusShipped})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrders_AdminStatusUpdates(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	order, err := s.orders.CreateOrder(ctx, domain.OrderDraft{
		UserID: "2",
		Items:  []domain.CartItem{{ProductID: "1", Name: "GPU", UnitPrice: 500_000, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = s.auth.QuickLogin(ctx, domain.RoleAdmin)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", UpdateStatusRequestDTO{Status: domain.OrderStatusShipped})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderStatusShipped, decode[domain.Order](t, rec).Status)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", UpdateStatusRequestDTO{Status: domain.OrderStatusProcessing})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/status", UpdateStatusRequestDTO{Status: "LOST"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/WOWO-NOPE/status", UpdateStatusRequestDTO{Status: domain.OrderStatusShipped})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID+"/tracking", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_UserCannotSeeOthersOrder(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	order, err := s.orders.CreateOrder(ctx, domain.OrderDraft{
		UserID: "someone-else",
		Items:  []domain.CartItem{{ProductID: "1", UnitPrice: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = s.auth.QuickLogin(ctx, domain.RoleUser)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/orders", nil)
	assert.Empty(t, decode[[]domain.Order](t, rec))
}
