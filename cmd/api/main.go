package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"parcel-tracker/internal/core/auth"
	"parcel-tracker/internal/core/cache"
	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/core/database"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/pubsub"
	"parcel-tracker/internal/core/server"
	"parcel-tracker/internal/core/tasks"
	notifyadapters "parcel-tracker/internal/features/notifications/adapters"
	notifyservice "parcel-tracker/internal/features/notifications/service"
	parceladapters "parcel-tracker/internal/features/parcels/adapters"
	parceldomain "parcel-tracker/internal/features/parcels/domain"
	parcelhandler "parcel-tracker/internal/features/parcels/handler"
	parcelports "parcel-tracker/internal/features/parcels/ports"
	parcelservice "parcel-tracker/internal/features/parcels/service"
	useradapters "parcel-tracker/internal/features/users/adapters"
	userhandler "parcel-tracker/internal/features/users/handler"
	userservice "parcel-tracker/internal/features/users/service"

	"github.com/gofiber/websocket/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// @title Parcel Tracker API
// @version 1.0
// @description Parcel booking, status tracking and real-time delivery updates.
// @contact.name API Support
// @contact.email support@parcel-tracker.local
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configDir := pflag.String("config-dir", ".", "directory holding the .env file")
	pflag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithOptions(cfg.Environment, cfg.LogLevel, logger.Options{File: cfg.LogFile}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("task_driver", cfg.Tasks.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, cfg.Environment)
	if err != nil {
		l.Fatal("Database connection failed", zap.Error(err))
	}
	defer database.Close(db)
	if cfg.Database.AutoMigrate {
		models := append(parceladapters.Models(), useradapters.Models()...)
		if err := database.Migrate(db, models...); err != nil {
			l.Fatal("Database migration failed", zap.Error(err))
		}
	}
	l.Info("Database connection verified")

	redisCache, err := cache.NewRedis(cfg.Redis.URL, cfg.Redis.KeyPrefix)
	if err != nil {
		l.Fatal("Redis configuration invalid", zap.Error(err))
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		l.Fatal("Redis connection failed", zap.Error(err))
	}
	broker := pubsub.NewRedisBroker(redisCache.Client())

	queue, err := tasks.New(cfg.Tasks)
	if err != nil {
		l.Fatal("Task queue initialization failed", zap.Error(err))
	}
	defer queue.Close()

	mailer, err := notifyadapters.NewMailer(cfg.Notifications)
	if err != nil {
		l.Fatal("Email provider initialization failed", zap.Error(err))
	}
	notifier := notifyservice.NewNotifier(mailer, notifyadapters.NewHook(cfg.Notifications), cfg.Notifications.FrontendURL)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	parcelRepo := parceladapters.NewGormRepository(db)

	images, err := useradapters.NewLocalImageStore(cfg.Storage.UploadsDir)
	if err != nil {
		l.Fatal("Uploads directory unavailable", zap.Error(err))
	}
	userSvc := userservice.New(userservice.Deps{
		Repo:     useradapters.NewGormRepository(db),
		Stats:    useradapters.NewParcelStats(parcelRepo),
		Tokens:   tokens,
		Images:   images,
		Queue:    queue,
		Welcomer: notifier,
	}, userservice.Options{})

	if err := userSvc.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminName, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		l.Fatal("Bootstrap admin creation failed", zap.Error(err))
	}

	engine := parcelservice.NewEngine(parcelservice.Deps{
		Repo:      parcelRepo,
		Directory: userSvc,
		Queue:     queue,
		Cache:     trackCache(cfg.Parcels, redisCache),
		Notifier:  notifier,
		Artifacts: parceladapters.NewQRGenerator(cfg.Storage.UploadsDir),
		Publisher: parceladapters.NewBrokerPublisher(broker),
	}, engineOptions(cfg.Parcels))

	if err := queue.Start(ctx); err != nil {
		l.Fatal("Task queue failed to start", zap.Error(err))
	}

	srv := server.New(cfg)
	srv.AddHealthCheck("database", func(ctx context.Context) error { return database.Ping(ctx, db) })
	srv.AddHealthCheck("redis", redisCache.Ping)
	srv.App.Static("/uploads", cfg.Storage.UploadsDir)

	registerRoutes(srv, tokens, engine, userSvc, broker)

	go func() {
		if err := srv.Run(); err != nil {
			l.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
}

func registerRoutes(srv *server.Server, tokens *auth.TokenService, engine *parcelservice.Engine, users *userservice.Service, broker *pubsub.RedisBroker) {
	requireAuth := auth.Required(tokens)
	adminOnly := auth.RequireRoles(identity.RoleAdmin)

	userHdl := userhandler.NewUserHandler(users)
	authGroup := srv.App.Group("/api/auth")
	authGroup.Post("/register", userHdl.Register)
	authGroup.Post("/login", userHdl.Login)
	authGroup.Get("/profile", requireAuth, userHdl.Profile)
	authGroup.Put("/profile", requireAuth, userHdl.UpdateProfile)
	authGroup.Post("/logout", requireAuth, userHdl.Logout)

	userGroup := srv.App.Group("/api/users", requireAuth)
	userGroup.Get("/me", userHdl.Profile)
	userGroup.Put("/me", userHdl.UpdateProfile)
	userGroup.Delete("/me", userHdl.Deactivate)
	userGroup.Put("/me/password", userHdl.ChangePassword)
	userGroup.Post("/me/profile-image", userHdl.UploadProfileImage)
	userGroup.Get("/", adminOnly, userHdl.List)
	userGroup.Get("/:id", adminOnly, userHdl.Get)

	parcelHdl := parcelhandler.NewParcelHandler(engine)
	parcels := srv.App.Group("/api/parcels", requireAuth)
	parcels.Post("/", auth.RequireRoles(identity.RoleCustomer, identity.RoleAdmin), parcelHdl.Create)
	parcels.Get("/my-parcels", auth.RequireRoles(identity.RoleCustomer), parcelHdl.MyParcels)
	parcels.Get("/track/:trackingNumber", parcelHdl.Track)
	parcels.Get("/metrics", parcelHdl.Metrics)
	parcels.Get("/", parcelHdl.List)
	parcels.Get("/:id", parcelHdl.Get)
	parcels.Put("/:id/status", auth.RequireRoles(identity.RoleAgent, identity.RoleAdmin), parcelHdl.UpdateStatus)

	realtime := parcelhandler.NewRealtimeHandler(broker, engine)
	srv.App.Get("/ws/parcels", auth.RequiredWS(tokens), realtime.Authorize, websocket.New(realtime.Stream))
}

func trackCache(cfg config.ParcelsConfig, c cache.Cache) parcelports.TrackCache {
	if cfg.TrackCacheTTL <= 0 {
		return nil
	}
	return parceladapters.NewRedisTrackCache(c, cfg.TrackCacheTTL)
}

func engineOptions(cfg config.ParcelsConfig) parcelservice.Options {
	opts := parcelservice.Options{
		DefaultCountry: cfg.DefaultCountry,
		HideForbidden:  cfg.HideForbidden,
	}
	if cfg.StrictTransitions {
		opts.Transitions = parceldomain.StrictTransitions()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Get().Warn("Unknown metrics timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	opts.Location = loc
	return opts
}
