package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careaxis/clinic-api/config"
	"github.com/careaxis/clinic-api/internal/email"
	appointmenth "github.com/careaxis/clinic-api/internal/handler/appointment"
	authh "github.com/careaxis/clinic-api/internal/handler/auth"
	centralh "github.com/careaxis/clinic-api/internal/handler/central"
	healthh "github.com/careaxis/clinic-api/internal/handler/health"
	userh "github.com/careaxis/clinic-api/internal/handler/user"
	"github.com/careaxis/clinic-api/internal/middleware"
	"github.com/careaxis/clinic-api/internal/repository/postgres"
	"github.com/careaxis/clinic-api/internal/router"
	appointmentService "github.com/careaxis/clinic-api/internal/service/appointment"
	authService "github.com/careaxis/clinic-api/internal/service/auth"
	centralService "github.com/careaxis/clinic-api/internal/service/central"
	eventService "github.com/careaxis/clinic-api/internal/service/event"
	organizationService "github.com/careaxis/clinic-api/internal/service/organization"
	userService "github.com/careaxis/clinic-api/internal/service/user"
	"github.com/careaxis/clinic-api/pkg/auth"
	"github.com/careaxis/clinic-api/pkg/logger"
	"github.com/careaxis/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal(err, "failed to run migrations")
	}

	// Repositories
	base := postgres.NewBaseRepository(db)
	orgRepo := postgres.NewOrganizationRepository(base)
	userRepo := postgres.NewOrganizationUserRepository(base)
	centralRepo := postgres.NewCentralUserRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	tokenRepo := postgres.NewTokenRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Services
	hasher := security.NewBcryptHasher(0)
	jwtSvc := auth.NewJWTService(cfg.JWT.AuthConfig())
	eventSvc := eventService.NewService(outboxRepo)

	var mailer email.Service = email.NoopService{}
	if cfg.Email.Host != "" {
		mailer = email.NewSMTPService(cfg.Email)
	}

	orgSvc := organizationService.NewService(orgRepo, &base, eventSvc)
	userSvc := userService.NewService(userRepo, orgRepo, &base, hasher, eventSvc)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo, &base, eventSvc)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	centralSvc := centralService.NewService(centralRepo, tokenRepo, jwtSvc, hasher, mailer, log)

	// Middleware and handlers
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	tenantMw := middleware.NewTenantMiddleware(orgRepo)

	r := router.New(
		log,
		authMw,
		tenantMw,
		healthh.NewHandler(db),
		centralh.NewHandler(centralSvc, orgSvc, userSvc),
		authh.NewHandler(authSvc),
		userh.NewHandler(userSvc),
		appointmenth.NewHandler(appointmentSvc),
		router.Config{
			Timeout:   time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			RateLimit: cfg.RateLimit,
			CORS:      middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
