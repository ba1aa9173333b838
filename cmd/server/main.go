package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/partier/partier/internal/config"
	"github.com/partier/partier/internal/database"
	"github.com/partier/partier/internal/handler"
	"github.com/partier/partier/internal/middleware"
	"github.com/partier/partier/internal/queue"
	"github.com/partier/partier/internal/repository"
	"github.com/partier/partier/internal/router"
	"github.com/partier/partier/internal/session"
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

	// Redis backs sessions, the response cache and the rate limiter.  The
	// latter two degrade to pass-throughs without it, but auth cannot.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed, sessions unavailable")
	}
	sessions := session.NewStore(rdb, time.Duration(cfg.SessionTTLDays)*24*time.Hour)

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	types := repository.NewTicketTypeRepo(db)
	performers := repository.NewPerformerRepo(db)
	tickets := repository.NewTicketRepo(db)

	// The consumer tails issued-ticket events for the audit log.  A broker
	// outage only pauses the log, never the API.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, sessions),
		Events:     handler.NewEventHandler(events),
		Types:      handler.NewTicketTypeHandler(types, events),
		Performers: handler.NewPerformerHandler(performers, events),
		Tickets:    handler.NewTicketHandler(tickets, events, types),
		Scan:       handler.NewScanHandler(tickets),
		Admin:      handler.NewAdminHandler(cfg, users),
		Export:     handler.NewExportHandler(users, tickets),
	}, router.Middlewares{
		LoadSession: middleware.LoadSession(sessions),
		Cache:       middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
