package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/smolnikov/goshop/internal/app/handlers"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/jwt-new/jwtmiddleware"
	"github.com/smolnikov/goshop/internal/service"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// withUser кладёт в контекст запроса то же, что JWT middleware после проверки токена.
func withUser(r *http.Request, userID int64, isAdmin bool) *http.Request {
	ctx := context.WithValue(r.Context(), jwtmiddleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, jwtmiddleware.IsAdminKey, isAdmin)
	return r.WithContext(ctx)
}

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	user  *models.User
	token string
	err   error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}

// fakeCartService — фиктивная реализация интерфейса CartService.
type fakeCartService struct {
	cart *models.Cart
	item *models.CartItem
	err  error
}

func (f *fakeCartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return f.cart, f.err
}

func (f *fakeCartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.item, nil
}

func (f *fakeCartService) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.item, nil
}

func (f *fakeCartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	return f.err
}

// fakeOrderService — фиктивная реализация интерфейса OrderService.
type fakeOrderService struct {
	order  *models.Order
	orders []*models.Order
	err    error
}

func (f *fakeOrderService) CreateOrderFromCart(ctx context.Context, userID int64) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeOrderService) GetOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrderService) GetOrder(ctx context.Context, orderID, userID int64, isAdmin bool) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

// fakePaymentService — фиктивная реализация интерфейса PaymentService.
type fakePaymentService struct {
	url        string
	err        error
	gotPayload []byte
	gotSig     string
}

func (f *fakePaymentService) CreateCheckoutSession(ctx context.Context, orderID int64) (string, error) {
	return f.url, f.err
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	f.gotPayload = payload
	f.gotSig = sigHeader
	return f.err
}

func TestRegisterHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{user: &models.User{ID: 1, Email: "test@example.com"}}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "test@example.com", "password": "password123", "full_name": "Test User"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp handlers.RegisterResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "test@example.com", resp.Email)
}

func TestRegisterHandler_EmailTaken(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrEmailTaken}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "test@example.com", "password": "password123", "full_name": "Test User"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegisterHandler_ValidationError(t *testing.T) {
	handler := handlers.RegisterHandler(testLogger(), &fakeAuthService{})

	// Пароль короче восьми символов.
	reqBody := `{"email": "test@example.com", "password": "short", "full_name": "Test User"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrInvalidCredentials}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "test@example.com", "password": "wrongpass"}`
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetCartHandler_AdminForbidden(t *testing.T) {
	handler := handlers.GetCartHandler(testLogger(), &fakeCartService{})

	req := httptest.NewRequest("GET", "/api/cart", nil)
	req = withUser(req, 1, true)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	// У административного аккаунта корзины нет.
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetCartHandler_Unauthorized(t *testing.T) {
	handler := handlers.GetCartHandler(testLogger(), &fakeCartService{})

	req := httptest.NewRequest("GET", "/api/cart", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAddCartItemHandler_InsufficientStock(t *testing.T) {
	stockErr := &service.InsufficientStockError{
		ProductID: 1, ProductName: "Black T-Shirt", Requested: 5, Available: 2,
	}
	handler := handlers.AddCartItemHandler(testLogger(), &fakeCartService{err: fmt.Errorf("op: %w", stockErr)})

	reqBody := `{"product_id": 1, "quantity": 5}`
	req := httptest.NewRequest("POST", "/api/cart/items", bytes.NewBufferString(reqBody))
	req = withUser(req, 1, false)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	// Ответ называет товар, которого не хватило.
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Black T-Shirt")
}

func TestSetCartItemQuantityHandler_RemovedOnZero(t *testing.T) {
	router := chi.NewRouter()
	router.Put("/api/cart/items/{productID}", handlers.SetCartItemQuantityHandler(testLogger(), &fakeCartService{item: nil}))

	reqBody := `{"quantity": 0}`
	req := httptest.NewRequest("PUT", "/api/cart/items/1", bytes.NewBufferString(reqBody))
	req = withUser(req, 1, false)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.MessageResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Item removed from cart", resp.Message)
}

func TestCreateOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{order: &models.Order{
		ID: 5, UserID: 1, Status: models.OrderStatusPendingPayment,
	}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/orders", nil)
	req = withUser(req, 1, false)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp models.Order
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, models.OrderStatusPendingPayment, resp.Status)
}

func TestCreateOrderHandler_EmptyCart(t *testing.T) {
	fakeSvc := &fakeOrderService{err: fmt.Errorf("op: %w", service.ErrEmptyCart)}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/orders", nil)
	req = withUser(req, 1, false)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "empty cart")
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/orders/{orderID}", handlers.GetOrderHandler(testLogger(),
		&fakeOrderService{err: fmt.Errorf("op: %w", service.ErrOrderNotFound)}))

	req := httptest.NewRequest("GET", "/api/orders/42", nil)
	req = withUser(req, 1, false)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateOrderStatusHandler_InvalidStatus(t *testing.T) {
	router := chi.NewRouter()
	router.Patch("/api/orders/{orderID}/status", handlers.UpdateOrderStatusHandler(testLogger(),
		&fakeOrderService{err: fmt.Errorf("op: %w", service.ErrInvalidStatus)}))

	reqBody := `{"status": "teleported"}`
	req := httptest.NewRequest("PATCH", "/api/orders/5/status", bytes.NewBufferString(reqBody))
	req = withUser(req, 1, true)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookHandler_Success(t *testing.T) {
	fakeSvc := &fakePaymentService{}
	handler := handlers.WebhookHandler(testLogger(), fakeSvc)

	payload := `{"id": "evt_1", "type": "checkout.session.completed"}`
	req := httptest.NewRequest("POST", "/api/payments/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", "t=123,v1=abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, payload, string(fakeSvc.gotPayload))
	assert.Equal(t, "t=123,v1=abc", fakeSvc.gotSig)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	fakeSvc := &fakePaymentService{err: fmt.Errorf("op: %w", service.ErrInvalidSignature)}
	handler := handlers.WebhookHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/payments/webhook", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=123,v1=forged")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookHandler_StorageFailure(t *testing.T) {
	fakeSvc := &fakePaymentService{err: errors.New("db down")}
	handler := handlers.WebhookHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/payments/webhook", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=123,v1=abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	// 500 заставит провайдера повторить доставку.
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCreateCheckoutSessionHandler_Success(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/payments/checkout-session/{orderID}", handlers.CreateCheckoutSessionHandler(testLogger(),
		&fakePaymentService{url: "https://checkout.stripe.com/pay/cs_test_1"}))

	req := httptest.NewRequest("POST", "/api/payments/checkout-session/5", nil)
	req = withUser(req, 1, false)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.CheckoutSessionResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", resp.CheckoutURL)
}
