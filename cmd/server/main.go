package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/config"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/db"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/router"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/services"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	scorer := services.NewScoringService(conn, log)
	votes := services.NewVoteService(conn, scorer)
	comments := services.NewCommentService(conn, votes)
	notify := services.NewNotificationService(conn, log)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	cache, err := utils.NewCache(500)
	if err != nil {
		log.Fatal().Err(err).Msg("cache init failed")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	router.RegisterRoutes(r, router.Deps{
		DB:       conn,
		Tokens:   tokens,
		Votes:    votes,
		Comments: comments,
		Notify:   notify,
		Cache:    cache,
		Limiter:  limiter,
		Log:      log,
	})

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
