package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/enjeyisback/HRMS/internal/payroll/events"
	"github.com/enjeyisback/HRMS/internal/payroll/handler"
	"github.com/enjeyisback/HRMS/internal/payroll/repository"
	"github.com/enjeyisback/HRMS/internal/payroll/service"
	"github.com/enjeyisback/HRMS/internal/payroll/statutory"
	"github.com/enjeyisback/HRMS/pkg/config"
	"github.com/enjeyisback/HRMS/pkg/database"
	"github.com/enjeyisback/HRMS/pkg/httputil"
	"github.com/enjeyisback/HRMS/pkg/logger"
	"github.com/enjeyisback/HRMS/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("payroll-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("payroll-service", cfg.Server.Environment)
	log.Info().Msg("starting Payroll Service")

	policy, err := statutory.PolicyFromConfig(cfg.Payroll)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid statutory policy")
	}

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to RabbitMQ. Without it the service runs and events are dropped.
	var (
		rmq       *messaging.RabbitMQ
		publisher *events.PayrollEventPublisher
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewPayrollEventPublisher(rmq, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Warn().Msg("rabbitmq disabled; payroll events will not be published")
	}

	// Initialize repositories
	employeeRepo := repository.NewEmployeeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	compensationRepo := repository.NewCompensationRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Initialize services
	resolver := service.NewCompensationResolver(compensationRepo, cfg.Payroll.BasicComponentNames)
	aggregator := service.NewAttendanceAggregator(attendanceRepo)
	calculator := service.NewCalculator(policy, resolver, aggregator)
	orchestrator := service.NewRunOrchestrator(employeeRepo, calculator, runRepo, publisher, cfg.Payroll.Workers, log)
	compensationService := service.NewCompensationService(compensationRepo, employeeRepo, resolver, policy, publisher, log)

	// Initialize handlers
	payrollHandler := handler.NewPayrollHandler(orchestrator, log)
	compensationHandler := handler.NewCompensationHandler(compensationService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.RequestID)
	r.Use(httputil.UserContext)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "payroll-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	r.Route("/api/v1/payroll", func(r chi.Router) {
		handler.Mount(r, payrollHandler, compensationHandler)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Int("workers", cfg.Payroll.Workers).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
