package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/catalicor/catalicor/internal/cart"
	"github.com/catalicor/catalicor/internal/config"
	"github.com/catalicor/catalicor/internal/database"
	"github.com/catalicor/catalicor/internal/handler"
	"github.com/catalicor/catalicor/internal/live"
	"github.com/catalicor/catalicor/internal/middleware"
	"github.com/catalicor/catalicor/internal/queue"
	"github.com/catalicor/catalicor/internal/repository"
	"github.com/catalicor/catalicor/internal/router"
	queuepublisher "github.com/catalicor/catalicor/internal/service"
	"github.com/catalicor/catalicor/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	blobs, err := storage.New(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	stores := repository.NewStoreRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)

	// Seed the bootstrap admin account when credentials are configured.
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Fatalf("admin seed: %v", err)
		}
		cancel()
	}

	carts := cart.NewStore()
	hub := live.NewHub()
	events := queuepublisher.Publisher{}

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, blobs.Root())
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, stores), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewPublicHandler(stores, products),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, users), cfg.JWTSecret)
	router.RegisterStore(e,
		handler.NewStoreProfileHandler(stores, blobs),
		handler.NewStoreProductHandler(products, blobs),
		handler.NewStoreOrderHandler(orders, hub, events),
		cfg.JWTSecret)
	router.RegisterClient(e,
		handler.NewClientHandler(carts, products, stores, orders, blobs, hub, events),
		cfg.JWTSecret)

	// Background consumer writes order events to logs/orders.log and keeps
	// reconnecting on broker failures.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
