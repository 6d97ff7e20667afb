package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shoplyhq/shoply-backend/api/routes"
	"github.com/shoplyhq/shoply-backend/internal/addresses"
	"github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/internal/catalog"
	"github.com/shoplyhq/shoply-backend/internal/checkout"
	"github.com/shoplyhq/shoply-backend/internal/coupons"
	"github.com/shoplyhq/shoply-backend/internal/orders"
	"github.com/shoplyhq/shoply-backend/internal/sellers"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/db"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
	"github.com/shoplyhq/shoply-backend/pkg/metrics"
	"github.com/shoplyhq/shoply-backend/pkg/migrate"
	"github.com/shoplyhq/shoply-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	sellerService, err := sellers.NewService(sellers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create seller service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	couponEngine, err := coupons.NewEngine(couponService)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon engine", err)
		os.Exit(1)
	}

	aggregator, err := cart.NewAggregator(sellerService, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart aggregator", err)
		os.Exit(1)
	}

	validator, err := cart.NewValidator(catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart validator", err)
		os.Exit(1)
	}

	snapshots, err := cart.NewSnapshotStore(redisClient, cfg.Cart)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart snapshot store", err)
		os.Exit(1)
	}

	cartFactory, err := cart.NewFactory(cart.Dependencies{
		Engine:     couponEngine,
		Aggregator: aggregator,
		Validator:  validator,
		Snapshots:  snapshots,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart factory", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	addressService, err := addresses.NewService(addresses.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	checkoutManager, err := checkout.NewManager(cartFactory, orderService, cfg.Checkout, checkoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout manager", err)
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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			cartFactory,
			catalogService,
			sellerService,
			checkoutManager,
			addressService,
			orderService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
