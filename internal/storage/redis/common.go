// Package redis caches order snapshots and recent trades in Redis so
// several API replicas can serve reads.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	TLSEnabled   bool
	KeyPrefix    string // namespaces every key, e.g. "clob:"
	OrderTTL     time.Duration
	MaxOrders    int
	MaxTrades    int
}

// NewClient creates a Redis client with connection pooling and checks it
// with a ping.
func NewClient(cfg Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	// Managed Redis providers usually require TLS
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// keys builds the namespaced key names shared by both stores
type keys struct{ prefix string }

func (k keys) order(id uint64) string { return fmt.Sprintf("%sorder:%d", k.prefix, id) }
func (k keys) orderPattern() string { return k.prefix + "order:*" }
func (k keys) traderOrders(t string) string { return k.prefix + "trader_orders:" + t }
func (k keys) pairOrders(p string) string { return k.prefix + "pair_orders:" + p }
func (k keys) ordersTimeline() string { return k.prefix + "orders:timeline" }
func (k keys) recentTrades(pair string) string {
	if pair == "" {
		return k.prefix + "trades:recent"
	}
	return k.prefix + "trades:recent:" + pair
}
