package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/padmaajarasooi/padmaaja-backend/api/controllers"
	"github.com/padmaajarasooi/padmaaja-backend/api/routes"
	authsvc "github.com/padmaajarasooi/padmaaja-backend/internal/auth"
	"github.com/padmaajarasooi/padmaaja-backend/internal/bulk"
	"github.com/padmaajarasooi/padmaaja-backend/internal/catalog"
	"github.com/padmaajarasooi/padmaaja-backend/internal/commission"
	"github.com/padmaajarasooi/padmaaja-backend/internal/genealogy"
	"github.com/padmaajarasooi/padmaaja-backend/internal/orders"
	"github.com/padmaajarasooi/padmaaja-backend/internal/payouts"
	"github.com/padmaajarasooi/padmaaja-backend/internal/tiers"
	"github.com/padmaajarasooi/padmaaja-backend/internal/users"
	"github.com/padmaajarasooi/padmaaja-backend/internal/wallet"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/auth/session"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/config"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/db"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/logger"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/metrics"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/migrate"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/outbox"
	"github.com/padmaajarasooi/padmaaja-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, readiness, redisClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	commissionRepo := commission.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	payoutRepo := payouts.NewRepository(gormDB)
	tierRepo := tiers.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	commissionMetrics := metrics.NewCommissionMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}
	registerService, err := authsvc.NewRegisterService(authsvc.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}
	userService, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Services{}, err
	}
	walletService, err := wallet.NewService(walletRepo, userRepo)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:        orderRepo,
		Products:    catalogRepo,
		Users:       userRepo,
		Commissions: commissionRepo,
		Tx:          dbClient,
		Outbox:      outboxSvc,
		MaxLevels:   cfg.Commission.MaxLevels,
		Metrics:     commissionMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}
	commissionService, err := commission.NewService(commission.ServiceParams{
		Repo:   commissionRepo,
		Tx:     dbClient,
		Wallet: walletService,
	})
	if err != nil {
		return routes.Services{}, err
	}
	ratesService, err := commission.NewRatesService(commissionRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	genealogyService, err := genealogy.NewService(genealogy.ServiceParams{
		Users:        userRepo,
		Orders:       orderRepo,
		Commissions:  commissionRepo,
		DefaultDepth: cfg.Genealogy.DefaultDepth,
		MaxDepth:     cfg.Genealogy.MaxDepth,
	})
	if err != nil {
		return routes.Services{}, err
	}
	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:        payoutRepo,
		Commissions: commissionRepo,
		Wallet:      walletService,
		Tx:          dbClient,
		Outbox:      outboxSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}
	tierService, err := tiers.NewService(tiers.ServiceParams{
		Repo:   tierRepo,
		Users:  userRepo,
		Tx:     dbClient,
		Outbox: outboxSvc,
	})
	if err != nil {
		return routes.Services{}, err
	}
	importer, err := bulk.NewImporter(bulk.ImporterParams{
		Catalog: catalogRepo,
		Tx:      dbClient,
		Logger:  logg,
		Metrics: jobMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}
	exporter, err := bulk.NewExporter(bulk.ExporterParams{
		Commissions: commissionRepo,
		Orders:      orderRepo,
		Metrics:     jobMetrics,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:        authService,
		Register:    registerService,
		Users:       userService,
		Catalog:     catalogService,
		Orders:      orderService,
		Commissions: commissionService,
		Rates:       ratesService,
		Genealogy:   genealogyService,
		Payouts:     payoutService,
		Tiers:       tierService,
		Wallet:      walletService,
		Importer:    importer,
		Exporter:    exporter,
	}, nil
}
