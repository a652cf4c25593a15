package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/jorisdh/appdepot/internal/config"
	"github.com/jorisdh/appdepot/internal/database"
	"github.com/jorisdh/appdepot/internal/handler"
	"github.com/jorisdh/appdepot/internal/middleware"
	"github.com/jorisdh/appdepot/internal/queue"
	"github.com/jorisdh/appdepot/internal/repository"
	"github.com/jorisdh/appdepot/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.InitSchema(ctx, db, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatalf("init schema: %v", err)
	}
	cancel()

	// Redis is optional: a nil client turns the cache and rate limiter into
	// pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	apps := repository.NewAppRepo(db)
	settings := repository.NewSettingRepo(db)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens, settings),
		Users:    handler.NewUserHandler(cfg, users),
		Apps:     handler.NewAppHandler(apps),
		Settings: handler.NewSettingHandler(settings),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, cfg.JWTSecret, tokens, rateLimit, cache)

	// Audit consumer runs for the lifetime of the process and reconnects on
	// broker failure.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// corsOrigins returns the allowed frontend origins. CORS_ORIGIN overrides the
// local dev default.
func corsOrigins() []string {
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		return []string{v}
	}
	return []string{"http://localhost:3000"}
}
