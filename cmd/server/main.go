package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/config"
	"github.com/campuslab/lab-seat-reservation/internal/database"
	"github.com/campuslab/lab-seat-reservation/internal/handler"
	"github.com/campuslab/lab-seat-reservation/internal/middleware"
	"github.com/campuslab/lab-seat-reservation/internal/queue"
	"github.com/campuslab/lab-seat-reservation/internal/repository"
	"github.com/campuslab/lab-seat-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; cache and rate limiting degrade to pass-through
	// when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	labs := repository.NewLabRepo(db)
	labSlots := repository.NewLabSlotRepo(db)
	reservations := repository.NewReservationRepo(db)
	tokens := repository.NewTokenRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens, reservations)
	labH := handler.NewLabHandler(labs, labSlots)
	resH := handler.NewReservationHandler(users, labs, reservations)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Queue consumers drain the error and reservation event queues into
	// log files. They reconnect on broker failure and never block the
	// HTTP path.
	go queue.StartConsumers()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterLabs(e, labH, cfg.JWTSecret, cache)
	router.RegisterReservations(e, resH, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
