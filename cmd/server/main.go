package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/comuna/facility-events/internal/config"
	"github.com/comuna/facility-events/internal/database"
	"github.com/comuna/facility-events/internal/handler"
	"github.com/comuna/facility-events/internal/middleware"
	"github.com/comuna/facility-events/internal/queue"
	"github.com/comuna/facility-events/internal/repository"
	"github.com/comuna/facility-events/internal/router"
	"github.com/comuna/facility-events/internal/schedule"
)

func main() {
	// .env is optional: in containers the environment is already set.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	facilities := repository.NewFacilityRepo(db)
	events := repository.NewEventRepo(db)

	detector := schedule.NewDetector(events, cfg.HorizonDays)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(cfg, events, facilities, detector)
	facilityH := handler.NewFacilityHandler(facilities)

	// Rate limiting is optional: without Redis the limiter is disabled
	// and every request passes through.
	var limit echo.MiddlewareFunc
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		rdb := config.NewRedisClient()
		if rdb == nil {
			log.Printf("rate limiting disabled: redis unavailable")
		} else {
			limit = middleware.RateLimit(rlCfg, rdb)
		}
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, eventH, facilityH)
	router.RegisterEvents(e, eventH, cfg.JWTSecret, limit)
	router.RegisterFacilities(e, facilityH, cfg.JWTSecret)

	// The consumer logs event.scheduled messages; it reconnects on its
	// own, so a broker outage never takes the API down.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartScheduledConsumer(cfg.AMQPURL); err != nil {
				log.Printf("queue consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
