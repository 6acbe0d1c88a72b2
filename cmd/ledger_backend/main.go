package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
	"github.com/openledger/ledger-engine/internal/core/services"
	"github.com/openledger/ledger-engine/internal/handlers"
	"github.com/openledger/ledger-engine/internal/middleware"
	"github.com/openledger/ledger-engine/internal/platform/config"
	"github.com/openledger/ledger-engine/internal/repositories/database/pgsql"
	"github.com/openledger/ledger-engine/internal/repositories/memory"
	"github.com/openledger/ledger-engine/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	accountRepo, txnRepo, txManager, cleanup := buildRepositories(cfg, logger)
	defer cleanup()

	ledgerService := services.NewLedgerService(accountRepo, txnRepo, txManager, services.Config{
		GenesisAccountID:      cfg.GenesisAccountID,
		RevenueAccountID:      cfg.RevenueAccountID,
		BaseCurrencyCode:      cfg.BaseCurrencyCode,
		TransferFeeRate:       cfg.TransferFeeRate,
		AllowNegativeBalances: cfg.AllowNegativeBalances,
		LockTimeout:           cfg.LockTimeout,
	})

	if err := ledgerService.EnsureSystemAccounts(context.Background()); err != nil {
		logger.Error("Failed to ensure system accounts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())
	r.Use(buildRateLimiter(cfg, logger))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, ledgerService)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildRepositories wires the storage adapters. With PGSQL_URL set, the pgsql
// adapter is used and migrations are applied; otherwise the in-memory store
// serves all three ports.
func buildRepositories(cfg *config.Config, logger *slog.Logger) (portsrepo.AccountRepository, portsrepo.TransactionRepository, portsrepo.TxManager, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn("No database configured, using in-memory store. All data is lost on shutdown.")
		store := memory.NewStore()
		return store, store, store, func() {}
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Database connection pool established.")

	runMigrations(cfg.DatabaseURL, logger)

	accountRepo := pgsql.NewAccountRepository(dbPool)
	txnRepo := pgsql.NewTransactionRepository(dbPool)
	return accountRepo, txnRepo, &accountRepo.BaseRepository, func() { database.ClosePgxPool(dbPool) }
}

// runMigrations applies all pending "up" migrations from the migrations directory.
func runMigrations(databaseURL string, logger *slog.Logger) {
	logger.Info("Running database migrations...")

	// Migrations use a short-lived database/sql connection via the pgx stdlib driver.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		os.Exit(1)
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		os.Exit(1)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
}

// buildRateLimiter creates the per-IP rate limiting middleware.
func buildRateLimiter(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT format", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	return middleware.RateLimit(limiter.New(limitermem.NewStore(), rate))
}
