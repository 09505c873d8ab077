package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	acpg "github.com/Captainsparrow404/neuvii-backend/internal/accesscontrol/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/auth"
	"github.com/Captainsparrow404/neuvii-backend/internal/clinic"
	clinicpg "github.com/Captainsparrow404/neuvii-backend/internal/clinic/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/core/events"
	identitypg "github.com/Captainsparrow404/neuvii-backend/internal/identity/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/notification"
	"github.com/Captainsparrow404/neuvii-backend/internal/provisioning"
	"github.com/Captainsparrow404/neuvii-backend/internal/therapy"
	therapypg "github.com/Captainsparrow404/neuvii-backend/internal/therapy/postgres"
	"github.com/Captainsparrow404/neuvii-backend/internal/transport/middleware"
	"github.com/Captainsparrow404/neuvii-backend/internal/transport/rest"
	"github.com/Captainsparrow404/neuvii-backend/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	validateAPISpec(lg)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	mailer := notification.NewSMTPMailer(config.Mail, lg)
	notification.NewSubscriber(mailer, config.Server.BaseURL, lg).Register(eventBus)

	engine := provisioning.NewEngine(lg, config.Security.BCryptCost)

	identityRepo := identitypg.NewRepository(gormDB)
	resolver := acpg.NewResolver(gormDB)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(identityRepo, tokenGen, config.Security.BCryptCost, lg)
	authHandler := auth.NewHandler(authService, resolver)

	clinicService := clinic.NewService(clinicpg.NewClinicRepository(gormDB), engine, eventBus, lg)
	clinicHandler := clinic.NewHandler(clinicService)

	therapyService := therapy.NewService(therapypg.NewTherapyRepository(gormDB), engine, eventBus, lg)
	therapyHandler := therapy.NewHandler(therapyService)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(lg))
	rest.RegisterAllRoutes(router, db.DB, authHandler, clinicHandler, therapyHandler, config.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

// validateAPISpec checks the published OpenAPI document at startup so a
// drifted spec is caught before any traffic is served.
func validateAPISpec(lg *slog.Logger) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("./api/openapi.yml")
	if err != nil {
		lg.Warn("could not load OpenAPI spec", "error", err)
		return
	}
	if err := doc.Validate(loader.Context); err != nil {
		lg.Warn("OpenAPI spec failed validation", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

