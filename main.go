package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/travel-planner-go/config"
	controllers "github.com/phillip/travel-planner-go/controllers"
	"github.com/phillip/travel-planner-go/integrations/ai"
	"github.com/phillip/travel-planner-go/integrations/hotels"
	routes "github.com/phillip/travel-planner-go/routes"
	"github.com/phillip/travel-planner-go/store"
	utils "github.com/phillip/travel-planner-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Database ---
	db, err := config.ConnectMongo(context.Background(), cfg)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	logger.Info("mongo connected", "db", cfg.DBName)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureIndexes(indexCtx, db); err != nil {
		logger.Error("index setup failed", "error", err)
		os.Exit(1)
	}
	cancelIndexes()

	// --- Third parties ---
	var media utils.MediaStore = utils.DisabledMedia{}
	if cfg.Cloudinary.Enabled() {
		cld, err := utils.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			logger.Error("cloudinary setup failed", "error", err)
			os.Exit(1)
		}
		media = cld
	} else {
		logger.Warn("cloudinary not configured; image uploads disabled")
	}

	var mailer utils.Mailer = utils.NoopMailer{}
	if cfg.Mail.Enabled() {
		mailer = utils.NewZeptoMailer(cfg.Mail)
	} else {
		logger.Warn("mail not configured; booking emails disabled")
	}

	hotelClient := hotels.NewClient(cfg.Hotels)
	if !hotelClient.Configured() {
		logger.Warn("RAPIDAPI_KEY not set; hotel search disabled")
	}
	aiClient := ai.NewClient(cfg.AI)
	if !aiClient.Configured() {
		logger.Warn("OPENAI_API_KEY not set; AI planning disabled")
	}

	env := &controllers.Env{
		Config:      cfg,
		Logger:      logger,
		Users:       store.NewUserStore(db),
		Itineraries: store.NewItineraryStore(db),
		Bookings:    store.NewBookingStore(db),
		Reviews:     store.NewReviewStore(db),
		Media:       media,
		Mailer:      mailer,
		Hotels:      hotelClient,
		AI:          aiClient,
		Now:         time.Now,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRoutes(env),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	if err := cfg.DisconnectMongo(ctx); err != nil {
		logger.Error("mongo disconnect failed", "error", err)
	}
	logger.Info("server stopped")
}
