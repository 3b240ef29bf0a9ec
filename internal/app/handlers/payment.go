package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smolnikov/goshop/internal/service"
)

// максимальный размер тела вебхука; защищает от произвольно больших payload
const maxWebhookBody = 64 * 1024

// CheckoutSessionResponse — ответ с URL платёжной страницы
type CheckoutSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckoutSessionHandler обрабатывает запрос POST /api/payments/checkout-session/{orderID}
func CreateCheckoutSessionHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCheckoutSessionHandler"
		logger := log.With(slog.String("op", op))

		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		url, err := paymentService.CreateCheckoutSession(r.Context(), orderID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, service.ErrOrderAlreadyPaid):
				http.Error(w, "order has already been paid", http.StatusBadRequest)
			default:
				logger.Error("failed to create checkout session", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CheckoutSessionResponse{CheckoutURL: url}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// WebhookHandler обрабатывает запрос POST /api/payments/webhook.
// Контракт с провайдером: 400 только за подпись и формат payload, 500 — за отказ
// хранилища (провайдер повторит доставку), всё остальное подтверждается 200.
func WebhookHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.WebhookHandler"
		logger := log.With(slog.String("op", op))

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			logger.Error("failed to read webhook body", slog.Any("error", err))
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if err := paymentService.HandleWebhook(r.Context(), payload, sigHeader); err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidSignature):
				http.Error(w, "invalid signature", http.StatusBadRequest)
			case errors.Is(err, service.ErrMalformedPayload):
				http.Error(w, "invalid payload", http.StatusBadRequest)
			default:
				// отказ хранилища: провайдер обязан повторить доставку
				logger.Error("webhook processing failed", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "success"}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
