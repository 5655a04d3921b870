package app

import (
	"time"

	"github.com/adopaw/adopaw-backend/internal/pkg/envutil"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type Config struct {
	Port              string
	SupabaseJWTSecret string
	AutoCreateProfile bool

	EnableClassify bool
	EnableVision   bool

	PawloRateLimit  int
	PawloRateWindow time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	log.Info("Loading configuration...")
	windowSeconds := envutil.Int("PAWLO_RATE_WINDOW_SECONDS", 60)
	return Config{
		Port:              envutil.Str("PORT", "8080"),
		SupabaseJWTSecret: envutil.Str("SUPABASE_JWT_SECRET", ""),
		AutoCreateProfile: envutil.Bool("AUTO_CREATE_PROFILE", true),
		EnableClassify:    envutil.Bool("ENABLE_CLASSIFY", true),
		EnableVision:      envutil.Bool("GROQ_VISION_ENABLED", true),
		PawloRateLimit:    envutil.Int("PAWLO_RATE_LIMIT", 20),
		PawloRateWindow:   time.Duration(windowSeconds) * time.Second,
	}
}
