package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qr_dine_backend/internal/config"
	"qr_dine_backend/internal/database"
	"qr_dine_backend/internal/jobs"
	"qr_dine_backend/internal/router"
	"qr_dine_backend/internal/session"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = 5 * time.Minute
)

func main() {
	cfg := config.Load()

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		utils.LogError(err, "Invalid configuration")
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	dbOpts := database.DefaultOptions()
	dbOpts.ApplySchema = cfg.DBApplySchema
	db, err := database.Open(ctx, cfg.DSN(), dbOpts)
	if err != nil {
		return err
	}
	defer db.Close()

	g, gctx := errgroup.WithContext(ctx)

	var sessions session.Store
	if cfg.RedisAddr != "" {
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		sessions = redisStore
		utils.LogInfo("Scan sessions stored in redis", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		memStore := session.NewMemoryStore()
		g.Go(func() error {
			memStore.RunSweeper(gctx, sweepInterval)
			return nil
		})
		sessions = memStore
		utils.LogWarn("REDIS_ADDR not set, scan sessions are kept in process memory")
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	svc := router.NewServices(db, cfg, sessions, tokens)

	if cfg.AdminUsername != "" {
		created, err := svc.Auth.EnsureAdminUser(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			utils.LogInfo("Bootstrap admin user created", map[string]interface{}{"username": cfg.AdminUsername})
		}
	}

	if cfg.GinRelease {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Scan-Session"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	router.Setup(engine, svc, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		utils.LogInfo("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return jobs.NewBillingScheduler(svc.Billing, cfg.BillingInterval).Run(gctx)
	})

	return g.Wait()
}
