package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PxPatel/clob-exchange/config"
	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/sequence"
	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/storage/audit"
	"github.com/PxPatel/clob-exchange/internal/storage/file"
	"github.com/PxPatel/clob-exchange/internal/storage/kv"
	"github.com/PxPatel/clob-exchange/internal/storage/memory"
	"github.com/PxPatel/clob-exchange/internal/storage/postgres"
	"github.com/PxPatel/clob-exchange/internal/storage/redis"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// storageLayers is the composed order and trade storage. recent is the
// in-memory trade layer, refilled from the trade log on start.
type storageLayers struct {
	orders *storage.CompositeOrderStore
	trades storage.TradeStore
	recent *memory.TradeStore
}

func (s *storageLayers) close() {
	for _, c := range []interface{ Close() error }{s.trades, s.orders} {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close store", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// buildStorageLayers constructs the storage layers based on configuration.
// Optional network backends that fail to connect are skipped with a warning;
// the trade log is required.
func buildStorageLayers(cfg *config.Config) (*storageLayers, error) {
	var orderStores []storage.OrderStore
	var tradeStores []storage.TradeStore
	layers := &storageLayers{}

	// L1: In-memory (fastest) - if enabled
	if cfg.Memory.Enabled {
		layers.recent = memory.NewTradeStore(cfg.Memory.MaxTrades)
		orderStores = append(orderStores, memory.NewOrderStore(cfg.Memory.MaxOrders))
		tradeStores = append(tradeStores, layers.recent)

		logger.Info("In-memory storage layer enabled", map[string]interface{}{
			"max_orders": cfg.Memory.MaxOrders,
			"max_trades": cfg.Memory.MaxTrades,
		})
	}

	// L2: Pebble (local durable order snapshots) - if enabled
	if cfg.Pebble.Enabled {
		kvStore, err := kv.Open(cfg.Pebble.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open pebble order store: %w", err)
		}
		orderStores = append(orderStores, kvStore)

		logger.Info("Pebble order store opened", map[string]interface{}{
			"dir": cfg.Pebble.Dir,
		})
	}

	// L3: Redis (distributed cache) - if enabled
	if cfg.Redis.Enabled {
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			TLSEnabled:   cfg.Redis.TLSEnabled,
			KeyPrefix:    cfg.Redis.KeyPrefix,
			OrderTTL:     cfg.Redis.OrderTTL,
			MaxOrders:    cfg.Redis.MaxOrders,
			MaxTrades:    cfg.Redis.MaxTrades,
		}

		redisOrderStore, err := redis.NewOrderStore(redisCfg)
		if err != nil {
			logger.Warn("Failed to connect to Redis, continuing without distributed cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			redisTradeStore, err := redis.NewTradeStore(redisCfg)
			if err != nil {
				_ = redisOrderStore.Close()
				logger.Warn("Failed to connect to Redis, continuing without distributed cache", map[string]interface{}{
					"error": err.Error(),
				})
			} else {
				logger.Info("Redis cache connected successfully", map[string]interface{}{
					"host": cfg.Redis.Host,
					"port": cfg.Redis.Port,
				})
				orderStores = append(orderStores, redisOrderStore)
				tradeStores = append(tradeStores, redisTradeStore)
			}
		}
	}

	// L4: PostgreSQL (persistent storage) - if enabled
	if cfg.Database.Enabled {
		pool, err := openPostgres(cfg)
		if err != nil {
			logger.Warn("Failed to connect to PostgreSQL, continuing without persistent storage", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("PostgreSQL connected successfully", map[string]interface{}{
				"host":     cfg.Database.Host,
				"database": cfg.Database.Name,
			})
			orderStores = append(orderStores, postgres.NewOrderStore(pool))
			tradeStores = append(tradeStores, postgres.NewTradeStore(pool))
		}
	}

	// L5: MySQL trade audit - if enabled
	if cfg.MySQL.Enabled {
		auditStore, err := openAudit(cfg)
		if err != nil {
			logger.Warn("Failed to connect to MySQL, continuing without trade audit", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("MySQL trade audit connected", map[string]interface{}{
				"host":     cfg.MySQL.Host,
				"database": cfg.MySQL.Name,
			})
			tradeStores = append(tradeStores, auditStore)
		}
	}

	// L6: File storage (trade log) - always enabled
	fileTradeStore, err := file.NewTradeStore(cfg.Exchange.TradeLogPath)
	if err != nil {
		for _, s := range orderStores {
			_ = s.Close()
		}
		for _, s := range tradeStores {
			_ = s.Close()
		}
		return nil, fmt.Errorf("failed to open trade log: %w", err)
	}
	tradeStores = append(tradeStores, fileTradeStore)
	logger.Info("Trade log enabled", map[string]interface{}{
		"path": cfg.Exchange.TradeLogPath,
	})

	if len(orderStores) == 0 {
		// the exchange reads terminal orders back from the store
		orderStores = append(orderStores, memory.NewOrderStore(cfg.Memory.MaxOrders))
	}

	layers.orders = storage.NewCompositeOrderStore(orderStores...)
	layers.trades = storage.NewCompositeTradeStore(tradeStores...)
	return layers, nil
}

// resumeOrderIDs starts the order id sequence after the highest id any
// order store holds, so a restart never reissues an id a durable store
// already has.
func resumeOrderIDs(orders *storage.CompositeOrderStore) (*sequence.Sequencer, error) {
	last, err := orders.MaxOrderID()
	if err != nil {
		return nil, fmt.Errorf("failed to read last order id: %w", err)
	}
	if last > 0 {
		logger.Info("Order ids resumed", map[string]interface{}{
			"last_order_id": last,
		})
	}
	return sequence.New(last), nil
}

// restoreTrades replays the trade log into the in-memory layer and resumes
// the trade id sequence after the last logged trade.
func restoreTrades(path string, layers *storageLayers, tradeIDs *sequence.Sequencer) error {
	count := 0
	err := file.Replay(path, func(t *types.Trade) error {
		tradeIDs.Advance(t.TradeID)
		count++
		if layers.recent != nil {
			return layers.recent.Save(t)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replay trade log: %w", err)
	}
	if count > 0 {
		logger.Info("Trade log replayed", map[string]interface{}{
			"trades":        count,
			"last_trade_id": tradeIDs.Current(),
		})
	}
	return nil
}

func openPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	return postgres.Open(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Name,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		MaxConns:        cfg.Database.MaxConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		SSLMode:         cfg.Database.SSLMode,
	})
}

func openAudit(cfg *config.Config) (*audit.TradeStore, error) {
	return audit.Open(audit.Config{
		Host:     cfg.MySQL.Host,
		Port:     cfg.MySQL.Port,
		Database: cfg.MySQL.Name,
		User:     cfg.MySQL.User,
		Password: cfg.MySQL.Password,
	})
}
