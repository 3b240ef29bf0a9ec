// Package stripe содержит тонкий клиент Stripe Checkout и проверку подписи вебхуков.
// API Stripe — плоские form-encoded запросы, поэтому клиент собран поверх net/http.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://api.stripe.com"
	defaultTimeout = 15 * time.Second
)

// LineItem — позиция будущего платежа; UnitAmount задаётся в минимальных
// единицах валюты (центах/копейках), как того требует Stripe.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// CheckoutParams — параметры создания платёжной сессии.
type CheckoutParams struct {
	OrderID    int64 // попадает в metadata[order_id], по нему вебхук находит заказ
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

// CheckoutSession — результат создания сессии: URL для редиректа покупателя
// и идентификатор платежа (может отсутствовать до завершения оплаты).
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// Client — исходящий вызов платёжного провайдера.
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

type client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(secretKey string) *client {
	return &client{
		baseURL:    defaultBaseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithBaseURL нужен тестам, чтобы подменить адрес API на httptest-сервер
func NewClientWithBaseURL(secretKey, baseURL string) *client {
	c := NewClient(secretKey)
	c.baseURL = baseURL
	return c
}

// ответ Stripe на создание сессии; остальные поля ответа не используются
type sessionResponse struct {
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	PaymentIntent *string `json:"payment_intent"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata[order_id]", strconv.FormatInt(params.OrderID, 10))
	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", params.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// повтор запроса с тем же ключом не создаст вторую сессию
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("stripe error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var sess sessionResponse
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if sess.URL == "" {
		return nil, fmt.Errorf("stripe did not return a checkout url")
	}

	result := &CheckoutSession{ID: sess.ID, URL: sess.URL}
	if sess.PaymentIntent != nil {
		result.PaymentIntentID = *sess.PaymentIntent
	}
	return result, nil
}
