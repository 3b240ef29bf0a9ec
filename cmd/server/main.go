package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/smolnikov/goshop/internal/app"
	"github.com/smolnikov/goshop/internal/app/handlers"
	"github.com/smolnikov/goshop/internal/config"
	"github.com/smolnikov/goshop/internal/jwt-new/jwtmiddleware"
	"github.com/smolnikov/goshop/internal/lib/logger"
	"github.com/smolnikov/goshop/internal/lib/logger/handlers/urllog"
	"github.com/smolnikov/goshop/internal/service"
	"github.com/smolnikov/goshop/internal/storage"
	"github.com/smolnikov/goshop/internal/stripe"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	bannerRepo := storage.NewBannerRepository(application.DB)
	statsRepo := storage.NewStatsRepository(application.DB)

	stripeClient := stripe.NewClient(cfg.Stripe.SecretKey)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	catalogService := service.NewCatalogService(application.Logger, productRepo, categoryRepo)
	cartService := service.NewCartService(application.Logger, cartRepo, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, cartRepo, productRepo, orderRepo)
	paymentService := service.NewPaymentService(application.Logger, application.DB, orderRepo,
		stripeClient, cfg.Stripe.WebhookSecret, cfg.Stripe.ClientURL)
	bannerService := service.NewBannerService(application.Logger, bannerRepo)
	adminService := service.NewAdminService(application.Logger, statsRepo, userRepo)

	// публичные эндпоинты: регистрация, вход, чтение каталога
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))
	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, catalogService))
	router.Get("/api/products/{productID}", handlers.GetProductHandler(application.Logger, catalogService))
	router.Get("/api/categories", handlers.ListCategoriesHandler(application.Logger, catalogService))
	router.Get("/api/categories/{categoryID}", handlers.GetCategoryHandler(application.Logger, catalogService))
	router.Get("/api/banners/active", handlers.ListActiveBannersHandler(application.Logger, bannerService))

	// вебхук платёжного провайдера аутентифицируется подписью, не JWT
	router.Post("/api/payments/webhook", handlers.WebhookHandler(application.Logger, paymentService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// корзина
		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart/items", handlers.AddCartItemHandler(application.Logger, cartService))
		r.Put("/api/cart/items/{productID}", handlers.SetCartItemQuantityHandler(application.Logger, cartService))
		r.Delete("/api/cart/items/{productID}", handlers.RemoveCartItemHandler(application.Logger, cartService))
		// заказы
		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/{orderID}", handlers.GetOrderHandler(application.Logger, orderService))
		// платёжная сессия для оформленного заказа
		r.Post("/api/payments/checkout-session/{orderID}", handlers.CreateCheckoutSessionHandler(application.Logger, paymentService))

		// административные маршруты
		r.Group(func(ar chi.Router) {
			ar.Use(jwtmiddleware.AdminOnly)
			ar.Patch("/api/orders/{orderID}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderService))
			ar.Post("/api/products", handlers.CreateProductHandler(application.Logger, catalogService))
			ar.Patch("/api/products/{productID}", handlers.UpdateProductHandler(application.Logger, catalogService))
			ar.Delete("/api/products/{productID}", handlers.DeleteProductHandler(application.Logger, catalogService))
			ar.Post("/api/categories", handlers.CreateCategoryHandler(application.Logger, catalogService))
			ar.Put("/api/categories/{categoryID}", handlers.UpdateCategoryHandler(application.Logger, catalogService))
			ar.Delete("/api/categories/{categoryID}", handlers.DeleteCategoryHandler(application.Logger, catalogService))
			ar.Get("/api/banners", handlers.ListBannersHandler(application.Logger, bannerService))
			ar.Post("/api/banners", handlers.CreateBannerHandler(application.Logger, bannerService))
			ar.Patch("/api/banners/{bannerID}", handlers.UpdateBannerHandler(application.Logger, bannerService))
			ar.Delete("/api/banners/{bannerID}", handlers.DeleteBannerHandler(application.Logger, bannerService))
			ar.Get("/api/admin/stats", handlers.GetDashboardStatsHandler(application.Logger, adminService))
			ar.Get("/api/admin/users", handlers.ListUsersHandler(application.Logger, adminService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
