package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careaxis/clinic-api/internal/repository/postgres"
	"github.com/careaxis/clinic-api/pkg/logger"
	messagingredis "github.com/careaxis/clinic-api/pkg/messaging/redis"
	"github.com/careaxis/clinic-api/pkg/worker"
)

// workerConfig is read from the environment; the worker ships as a
// standalone binary without a config file.
type workerConfig struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"clinic"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`

	BatchSize    int           `envconfig:"BATCH_SIZE" default:"100"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`

	MetricsPort int `envconfig:"METRICS_PORT" default:"8081"`
}

func main() {
	log := logger.NewLogger(nil)

	var cfg workerConfig
	if err := envconfig.Process("WORKER", &cfg); err != nil {
		log.Fatal(err, "failed to load worker configuration")
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := messagingredis.NewBroker(messagingredis.Config{URL: cfg.RedisURL}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))
	processorCfg := worker.DefaultOutboxProcessorConfig()
	processorCfg.BatchSize = cfg.BatchSize
	processorCfg.PollInterval = cfg.PollInterval
	processor := worker.NewOutboxProcessor(outboxRepo, broker, processorCfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)

	go serveMetrics(cfg.MetricsPort, db, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down worker")
	cancel()
}

func serveMetrics(port int, db interface{ Ping() error }, log *logger.Logger) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/health/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	engine.GET("/health/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	})

	if err := engine.Run(":" + strconv.Itoa(port)); err != nil {
		log.Fatal(err, "metrics server failed")
	}
}
