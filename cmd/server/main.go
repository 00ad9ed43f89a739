package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridflow/internal/approval"
	"gridflow/internal/attachment"
	"gridflow/internal/auth"
	"gridflow/internal/config"
	"gridflow/internal/db"
	"gridflow/internal/document"
	"gridflow/internal/identity"
	"gridflow/internal/logger"
	"gridflow/internal/middleware"
	"gridflow/internal/notify"
	"gridflow/internal/sync"
	"gridflow/internal/worker"
	"gridflow/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "gridflow"

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: serviceName,
	})
	log.Info().Str("environment", cfg.Environment).Msg("Starting gridflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	if err := db.ConnectDb(log); err != nil {
		log.Fatal().Err(err).Msg("error connecting to db")
	}
	defer db.CloseDb(log)

	// Migrate database schema
	if err := db.Migrate(log); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Seed database with initial data (for development)
	if cfg.Environment == "development" {
		db.SeedData(ctx, log)
	}

	// Initialize Redis
	cache := redis.NewCache(redis.Connect(ctx, cfg.RedisAddress, log), log)

	// Initialize background workers
	pool := worker.NewWorkerPool(cfg.WorkerPoolSize, log)

	// Initialize repository
	actorRepo := identity.NewRepository(db.AppDb)
	docRepo := document.NewRepository(db.AppDb)

	// Initialize service
	identityService := identity.NewService(actorRepo)
	machine := approval.NewMachine(approval.Policy{
		CEORecipient:      cfg.CEORecipient,
		DomesticLocations: cfg.DomesticLocations,
	}, identityService)

	files, err := attachment.NewRegistry(cfg.FileBaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.FileBaseURL).Msg("invalid file base url")
	}

	var syncClient sync.Client
	if cfg.SyncServerAddress != "" {
		syncClient = sync.NewSyncClient(cfg.SyncServerAddress)
	} else {
		log.Warn().Msg("SYNC_ADDRESS not set. Remote mirror disabled.")
	}

	docService := document.NewService(document.Deps{
		Repository:   docRepo,
		Machine:      machine,
		Directory:    identityService,
		Cache:        cache,
		Sync:         syncClient,
		Notifier:     notify.NewWebhookPublisher(cfg.NotifyWebhookURL, log),
		Files:        files,
		Pool:         pool,
		MaxRows:      cfg.MaxRows,
		VATPercent:   cfg.VATRatePercent,
		UndoCapacity: cfg.UndoCapacity,
		Log:          log,
	})

	// Initialize handler
	docHandler := document.NewHandler(docService)
	identityHandler := identity.NewHandler(identityService)
	authMiddleware := &middleware.Auth{Actors: identityService, Secret: []byte(cfg.JWTSecret)}

	if cfg.Environment == "development" {
		logDevTokens(ctx, actorRepo, []byte(cfg.JWTSecret), log)
	}

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}

	if cfg.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/", authMiddleware.AuthMiddleWare())

	// Actor routes
	api.GET("/me", identityHandler.GetProfile)
	api.GET("/actors", identityHandler.ListBySlot)

	// Document routes
	api.POST("/documents", docHandler.Submit)
	api.GET("/documents", docHandler.List)
	api.GET("/documents/:id", docHandler.Show)
	api.POST("/documents/:id/stamps/:slot", docHandler.Stamp)
	api.POST("/documents/:id/reject", docHandler.Reject)
	api.PUT("/documents/:id/resubmit", docHandler.Resubmit)
	api.POST("/documents/:id/archive", docHandler.Archive)
	api.PUT("/documents/:id/late-rows", docHandler.AmendLateRows)
	api.DELETE("/documents/:id", docHandler.Purge)
	api.GET("/documents/:id/export.xlsx", docHandler.Export)

	// Server configuration
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Start gRPC health server
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer) // Enable reflection for debugging

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}
	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	grpcServer.GracefulStop()

	// drain queued sync and notification tasks
	pool.Shutdown()

	log.Info().Msg("Server shutdown complete")
}

// logDevTokens prints a bearer token for every seeded actor so the API can
// be exercised locally without a login flow.
func logDevTokens(ctx context.Context, repo identity.ActorRepository, secret []byte, log zerolog.Logger) {
	for _, a := range db.DevRoster {
		actor, err := repo.FindByEmail(ctx, a.Email)
		if err != nil {
			continue
		}
		token, err := auth.GenerateJWT(secret, actor.ID)
		if err != nil {
			log.Warn().Err(err).Str("email", a.Email).Msg("dev token generation failed")
			continue
		}
		log.Info().Str("email", a.Email).Str("token", token).Msg("dev token")
	}
}
