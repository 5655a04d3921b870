package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adopaw/adopaw-backend/internal/clients/groq"
	"github.com/adopaw/adopaw-backend/internal/pkg/envutil"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/ratelimit"
	"github.com/adopaw/adopaw-backend/internal/realtime/bus"
)

type Clients struct {
	Redis        *goredis.Client
	Bus          bus.Bus
	Groq         groq.Client
	PawloLimiter *ratelimit.FixedWindowLimiter
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     envutil.Str("REDIS_ADDR", "localhost:6379"),
		Password: envutil.Str("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return Clients{}, fmt.Errorf("ping redis: %w", err)
	}

	eventBus, err := bus.NewRedisBus(log, rdb)
	if err != nil {
		return Clients{}, fmt.Errorf("init event bus: %w", err)
	}

	limiter, err := ratelimit.NewFixedWindowLimiter(rdb, "adopaw:ratelimit:pawlo", cfg.PawloRateLimit, cfg.PawloRateWindow)
	if err != nil {
		return Clients{}, fmt.Errorf("init rate limiter: %w", err)
	}

	// Groq
	groqClient, err := groq.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init groq client: %w", err)
	}

	return Clients{
		Redis:        rdb,
		Bus:          eventBus,
		Groq:         groqClient,
		PawloLimiter: limiter,
	}, nil
}
