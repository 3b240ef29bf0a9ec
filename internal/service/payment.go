package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smolnikov/goshop/internal/domain/models"
	"github.com/smolnikov/goshop/internal/storage"
	"github.com/smolnikov/goshop/internal/stripe"
)

var (
	ErrOrderAlreadyPaid = errors.New("order has already been paid")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// название позиции, товар которой уже удалён из каталога
const deletedProductName = "Deleted product"

type PaymentService interface {
	// CreateCheckoutSession создаёт платёжную сессию у провайдера и возвращает
	// URL для редиректа покупателя.
	CreateCheckoutSession(ctx context.Context, orderID int64) (string, error)
	// HandleWebhook применяет платёжное уведомление к заказу.
	// Ошибки подписи и разбора — отказ до обращения к БД; бизнес-аномалии
	// (неизвестный заказ, пустые метаданные, чужой тип события) подтверждаются
	// успехом, чтобы провайдер не ретраил неисправимый payload; ошибки БД
	// возвращаются как жёсткий отказ — провайдер обязан повторить доставку.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type paymentService struct {
	log           *slog.Logger
	db            *sql.DB
	orderRepo     storage.OrderStorage
	stripeClient  stripe.Client
	webhookSecret string
	clientURL     string
}

func NewPaymentService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage,
	stripeClient stripe.Client, webhookSecret, clientURL string) PaymentService {
	return &paymentService{
		log:           log,
		db:            db,
		orderRepo:     orderRepo,
		stripeClient:  stripeClient,
		webhookSecret: webhookSecret,
		clientURL:     clientURL,
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, orderID int64) (string, error) {
	const op = "service.PaymentService.CreateCheckoutSession"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID))
	logger.Info("creating checkout session")

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if order.Status == models.OrderStatusPaid {
		logger.Warn("order has already been paid")
		return "", fmt.Errorf("%s: %w", op, ErrOrderAlreadyPaid)
	}

	lineItems := lo.Map(order.Items, func(item *models.OrderItem, _ int) stripe.LineItem {
		name := item.ProductName
		if name == "" {
			name = deletedProductName
		}
		return stripe.LineItem{
			Name: name,
			// сумма в центах, по зафиксированной при оформлении цене
			UnitAmount: item.PriceAtPurchase.Mul(decimal.NewFromInt(100)).IntPart(),
			Quantity:   item.Quantity,
		}
	})

	sess, err := s.stripeClient.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		OrderID:    order.ID,
		Currency:   "brl",
		LineItems:  lineItems,
		SuccessURL: s.clientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.clientURL + "/payment-cancelled",
	})
	if err != nil {
		logger.Error("failed to create checkout session", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create checkout session: %w", op, err)
	}

	// идентификатор платежа может появиться уже при создании сессии —
	// сохраняем его сразу, не дожидаясь вебхука
	if sess.PaymentIntentID != "" {
		if err := s.savePaymentIntent(ctx, order.ID, sess.PaymentIntentID, logger); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	logger.Info("checkout session created", slog.String("sessionID", sess.ID))
	return sess.URL, nil
}

func (s *paymentService) savePaymentIntent(ctx context.Context, orderID int64, intentID string, logger *slog.Logger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := s.orderRepo.SetPaymentIntentTx(ctx, tx, orderID, intentID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to save payment intent", slog.Any("error", err))
		return fmt.Errorf("failed to save payment intent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HandleWebhook — машина согласования платёжного статуса.
// Разрешён единственный переход pending_payment -> paid; повторная доставка
// события для уже оплаченного заказа — тихий no-op. Идентификатор платежа
// сохраняется всегда, даже без смены статуса: он может прийти и до, и после неё.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	const op = "service.PaymentService.HandleWebhook"
	logger := s.log.With(slog.String("op", op))

	// подпись проверяется до любого обращения к хранилищу
	if err := stripe.VerifySignature(payload, sigHeader, s.webhookSecret, stripe.DefaultTolerance, time.Now()); err != nil {
		logger.Warn("webhook signature verification failed")
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warn("failed to parse webhook payload", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, ErrMalformedPayload)
	}

	logger = logger.With(slog.String("eventID", event.ID), slog.String("eventType", event.Type))

	// незнакомые типы событий подтверждаются без обработки
	if event.Type != stripe.EventCheckoutSessionCompleted {
		logger.Info("unhandled webhook event type, acknowledging")
		return nil
	}

	orderIDStr, ok := event.Data.Object.Metadata["order_id"]
	if !ok || orderIDStr == "" {
		// неисправимый payload: ретраи провайдера не помогут, подтверждаем
		logger.Error("checkout.session.completed without order_id in metadata")
		return nil
	}
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil {
		logger.Error("invalid order_id in metadata", slog.String("orderID", orderIDStr))
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.LockOrderByIDTx(ctx, tx, orderID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderNotFound) {
			// аномалия, но не повод для ретрай-шторма со стороны провайдера
			logger.Error("webhook references unknown order", slog.Int64("orderID", orderID))
			return nil
		}
		logger.Error("failed to lock order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to lock order: %w", op, err)
	}

	if event.Data.Object.PaymentStatus == "paid" && order.Status == models.OrderStatusPendingPayment {
		if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, models.OrderStatusPaid); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to update order status", slog.Any("error", err))
			return fmt.Errorf("%s: failed to update order status: %w", op, err)
		}
		logger.Info("order marked as paid", slog.Int64("orderID", orderID))
	}

	if intentID := event.Data.Object.PaymentIntent; intentID != "" {
		if err := s.orderRepo.SetPaymentIntentTx(ctx, tx, orderID, intentID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to save payment intent", slog.Any("error", err))
			return fmt.Errorf("%s: failed to save payment intent: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}
