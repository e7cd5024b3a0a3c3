package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/PxPatel/clob-exchange/config"
	"github.com/PxPatel/clob-exchange/internal/api"
	"github.com/PxPatel/clob-exchange/internal/api/handlers"
	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/routes"
	"github.com/PxPatel/clob-exchange/internal/auth"
	"github.com/PxPatel/clob-exchange/internal/events"
	"github.com/PxPatel/clob-exchange/internal/exchange"
	"github.com/PxPatel/clob-exchange/internal/metrics"
	"github.com/PxPatel/clob-exchange/internal/sequence"
	"github.com/PxPatel/clob-exchange/internal/settlement"
)

const version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "clob-exchange",
		Usage:   "central limit order book exchange API server",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or upgrade the enabled SQL schemas and exit",
				Action: migrate,
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the logger settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetMinLevel(logger.ParseLevel(cfg.Logger.Level))
	logger.SetJSON(cfg.Logger.JSON)
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("Starting CLOB Exchange API Server", map[string]interface{}{
		"version": version,
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build storage layers based on configuration
	stores, err := buildStorageLayers(cfg)
	if err != nil {
		return err
	}

	orderIDs, err := resumeOrderIDs(stores.orders)
	if err != nil {
		stores.close()
		return err
	}
	tradeIDs := sequence.New(0)
	if err := restoreTrades(cfg.Exchange.TradeLogPath, stores, tradeIDs); err != nil {
		stores.close()
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("Kafka event stream enabled", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		})
	}

	ledger := settlement.NewLedger(cfg.Exchange.FeeAccount)
	m := metrics.New()
	x, err := exchange.New(exchange.Options{
		Settlement: ledger,
		Authorizer: auth.NewStaticAuthorizer(cfg.Auth.Admins, cfg.Auth.AuctionAdmins),
		Orders:     stores.orders,
		Trades:     stores.trades,
		Publisher:  publisher,
		Metrics:    m,
		OrderIDs:   orderIDs,
		TradeIDs:   tradeIDs,
	})
	if err != nil {
		_ = publisher.Close()
		stores.close()
		return err
	}
	defer func() {
		if err := x.Close(); err != nil {
			logger.Error("Failed to close exchange", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	ledger.SetGuard(x)

	if err := listPairs(ctx, x, cfg); err != nil {
		return err
	}

	// Setup routes with middleware
	handler := routes.SetupRoutes(handlers.NewExchangeHolder(x, ledger, cfg.API), m)
	server := api.NewServer(cfg.Server, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", map[string]interface{}{
			"port":    cfg.Server.Port,
			"address": fmt.Sprintf("http://localhost:%s", cfg.Server.Port),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server shutting down...", nil)

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	logger.Info("Server exited successfully", nil)
	return nil
}

// listPairs lists the pairs from PAIRS_FILE, acting as the first admin.
func listPairs(ctx context.Context, x *exchange.Exchange, cfg *config.Config) error {
	pairs, err := config.LoadPairs(cfg.Exchange.PairsFile)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}
	if len(cfg.Auth.Admins) == 0 {
		return fmt.Errorf("PAIRS_FILE set but ADMINS is empty")
	}
	for _, p := range pairs {
		if err := x.AddPair(ctx, cfg.Auth.Admins[0], p); err != nil {
			return fmt.Errorf("list pair %s: %w", p.ID, err)
		}
	}
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled && !cfg.MySQL.Enabled {
		logger.Warn("No SQL backend enabled, nothing to migrate", nil)
		return nil
	}
	if cfg.Database.Enabled {
		pool, err := openPostgres(cfg)
		if err != nil {
			return err
		}
		pool.Close()
		logger.Info("PostgreSQL schema up to date", map[string]interface{}{
			"database": cfg.Database.Name,
		})
	}
	if cfg.MySQL.Enabled {
		store, err := openAudit(cfg)
		if err != nil {
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}
		logger.Info("MySQL audit schema up to date", map[string]interface{}{
			"database": cfg.MySQL.Name,
		})
	}
	return nil
}
