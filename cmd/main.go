/**
 * @description
 * This is the main entry point for the funding-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, media storage, message brokers, repositories, the core application
 * service, and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 * - pkg/uploads: Cloudinary client for proof-of-payment uploads.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coinvest/funding-service/internal/api"
	"github.com/coinvest/funding-service/internal/app"
	"github.com/coinvest/funding-service/internal/config"
	"github.com/coinvest/funding-service/internal/store"
	rmrabbit "github.com/coinvest/funding-service/pkg/rabbitmq"
	"github.com/coinvest/funding-service/pkg/uploads"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting funding-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Tune the pool for sustained dashboard and review traffic.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer for admin notifications. This service
	// only publishes; a missing broker degrades to a logging fallback.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Connect Redis for withdrawal rate limiting when configured.
	var redisClient *redis.Client
	if cfg.WithdrawalRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; withdrawal rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; withdrawal rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; withdrawal rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	fundingService := app.NewService(repository, producer)
	fundingService.SetDefaultCurrency(cfg.DefaultWithdrawalCurrency)
	if redisClient != nil {
		fundingService.SetWithdrawalRateLimiter(
			app.NewRedisWithdrawalRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.WithdrawalRateLimitPerMinute,
		)
	}

	// Initialize the API handlers.
	fundingHandlers := api.NewFundingHandlers(fundingService)

	// Wire the Cloudinary uploader when configured; uploads return 503 otherwise.
	if cfg.CloudinaryURL != "" {
		uploader, upErr := uploads.NewCloudinaryUploader(cfg.CloudinaryURL, cfg.CloudinaryUploadFolder)
		if upErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"cloudinary init failed; proof uploads disabled\" err=%v", upErr)
		} else {
			fundingHandlers.SetProofUploader(uploader)
			log.Println("level=info component=bootstrap msg=\"cloudinary uploader configured\"")
		}
	} else {
		log.Println("level=warn component=bootstrap msg=\"cloudinary url missing; proof uploads disabled\" env=CLOUDINARY_URL")
	}

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/funding", api.FundingRoutes(fundingHandlers, cfg.AuthJWKSURL))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
