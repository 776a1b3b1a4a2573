package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/plantshop/internal/cart"
	"github.com/Skotchmaster/plantshop/internal/checkout"
	"github.com/Skotchmaster/plantshop/internal/config"
	"github.com/Skotchmaster/plantshop/internal/db"
	"github.com/Skotchmaster/plantshop/internal/events"
	"github.com/Skotchmaster/plantshop/internal/httpserver"
	"github.com/Skotchmaster/plantshop/internal/logging"
	loggingmw "github.com/Skotchmaster/plantshop/internal/middleware/logging"
	"github.com/Skotchmaster/plantshop/internal/payment"
	"github.com/Skotchmaster/plantshop/internal/repo"
	"github.com/Skotchmaster/plantshop/internal/search"
	"github.com/Skotchmaster/plantshop/internal/service"
	"github.com/Skotchmaster/plantshop/internal/telemetry"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(initCtx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	r := &repo.GormRepo{DB: gdb}

	var store cart.Store
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		store = cart.NewRedisStore(rdb, cfg.CartTTL)
	} else {
		log.Println("REDIS_ADDR not set, carts are kept in memory")
		store = cart.NewMemoryStore()
	}

	producer := events.NewProducer(cfg.KafkaBrokers)

	var index service.PlantIndex
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = es
	}

	var payments payment.Provider = payment.LocalProvider{}
	if cfg.PaymentURL != "" {
		payments = payment.NewHTTPProvider(cfg.PaymentURL, cfg.PaymentAPIKey)
	} else {
		log.Println("PAYMENT_URL not set, checkout goes straight to the success page")
	}

	authSvc := &service.AuthService{
		Repo:          r,
		Events:        producer,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	catalogSvc := &service.CatalogService{Repo: r, Events: producer, Index: index}
	orderSvc := &service.OrderService{Repo: r, Events: producer}
	checkoutSvc := &service.CheckoutService{
		Repo:       r,
		Payments:   payments,
		Events:     producer,
		Currency:   cfg.Currency,
		SuccessURL: cfg.PublicBaseURL + "/checkout/success",
		CancelURL:  cfg.PublicBaseURL + "/checkout/cancel",
	}

	var backend checkout.Checkouter = checkout.Local{Svc: checkoutSvc}
	if cfg.CheckoutURL != "" {
		backend = checkout.NewClient(cfg.CheckoutURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:     &httpserver.AuthHTTP{Svc: authSvc},
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc},
		Orders:   &httpserver.OrderHTTP{Svc: orderSvc},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkoutSvc},
		Cart: &httpserver.CartHTTP{
			Store:        store,
			Catalog:      catalogSvc,
			Orchestrator: &checkout.Orchestrator{Backend: backend},
			Orders:       orderSvc,
			TTL:          cfg.CartTTL,
		},
		JWTSecret:   cfg.JWTAccessSecret,
		CSRFEnabled: cfg.CSRFEnabled,
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx, gdb); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctx).Err()
			}
			return nil
		},
	})

	var handler http.Handler = e
	shutdownTracing := telemetry.ShutdownFunc(func(context.Context) error { return nil })
	if cfg.OTELEnabled {
		shutdownTracing, err = telemetry.Setup(cfg.ServiceName, os.Stdout)
		if err != nil {
			log.Fatalf("telemetry: %v", err)
		}
		handler = telemetry.Handler(e, cfg.ServiceName)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Printf("starting %s on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("telemetry shutdown error: %v", err)
	}
	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
