package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/smolnikov/goshop/internal/jwt-new/jwtmiddleware"
	"github.com/smolnikov/goshop/internal/service"
)

// AddCartItemRequest — структура запроса на добавление товара в корзину
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

// SetCartItemQuantityRequest — структура запроса на изменение количества
type SetCartItemQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// MessageResponse — общий ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// currentUser извлекает пользователя из контекста и отклоняет администраторов:
// у административного аккаунта нет корзины и заказов.
func currentUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	userID, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	if jwtmiddleware.IsAdminFromContext(r.Context()) {
		http.Error(w, "administrators do not have a cart", http.StatusForbidden)
		return 0, false
	}
	return userID, true
}

// GetCartHandler обрабатывает запрос GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := currentUser(w, r, logger)
		if !ok {
			return
		}

		cart, err := cartService.GetCart(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrCartNotFound) {
				http.Error(w, "cart not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(cart); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// AddCartItemHandler обрабатывает запрос POST /api/cart/items
func AddCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := currentUser(w, r, logger)
		if !ok {
			return
		}

		var req AddCartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		item, err := cartService.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
		if err != nil {
			writeCartError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(item); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// SetCartItemQuantityHandler обрабатывает запрос PUT /api/cart/items/{productID}
func SetCartItemQuantityHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetCartItemQuantityHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := currentUser(w, r, logger)
		if !ok {
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		var req SetCartItemQuantityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		item, err := cartService.SetQuantity(r.Context(), userID, productID, req.Quantity)
		if err != nil {
			writeCartError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		// нулевое количество означает удаление позиции
		if item == nil {
			if err := json.NewEncoder(w).Encode(MessageResponse{Message: "Item removed from cart"}); err != nil {
				logger.Error("failed to encode response", slog.Any("error", err))
			}
			return
		}
		if err := json.NewEncoder(w).Encode(item); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// RemoveCartItemHandler обрабатывает запрос DELETE /api/cart/items/{productID}
func RemoveCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := currentUser(w, r, logger)
		if !ok {
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		if err := cartService.RemoveItem(r.Context(), userID, productID); err != nil {
			if errors.Is(err, service.ErrItemNotInCart) {
				http.Error(w, "product not found in cart", http.StatusNotFound)
				return
			}
			writeCartError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(MessageResponse{Message: "Item removed from cart successfully"}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// writeCartError отображает ошибки сервиса корзины на HTTP-статусы
func writeCartError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, service.ErrCartNotFound):
		http.Error(w, "cart not found", http.StatusNotFound)
	case errors.Is(err, service.ErrItemNotInCart):
		http.Error(w, "item not in cart", http.StatusNotFound)
	case errors.As(err, &stockErr):
		http.Error(w, stockErr.Error(), http.StatusBadRequest)
	default:
		logger.Error("cart operation failed", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
