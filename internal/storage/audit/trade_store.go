// Package audit mirrors every trade into a MySQL table for reporting and
// reconciliation.
package audit

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// Config locates the audit database
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// DSN renders the go-sql-driver connection string
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// TradeRecord is one row of the trades audit table. Amounts are kept as
// decimal strings.
type TradeRecord struct {
	gorm.Model
	TradeID      uint64 `gorm:"uniqueIndex"`
	PairID       string `gorm:"size:64;index"`
	BuyOrderID   uint64
	SellOrderID  uint64
	Buyer        string `gorm:"size:128;index"`
	Seller       string `gorm:"size:128;index"`
	MakerOrderID uint64
	TakerOrderID uint64
	MakerSide    string `gorm:"size:8"`
	Price        string `gorm:"size:80"`
	Quantity     string `gorm:"size:80"`
	QuoteAmount  string `gorm:"size:80"`
	BuyFee       string `gorm:"size:80"`
	SellFee      string `gorm:"size:80"`
	Auction      bool
	ExecutedAt   time.Time
}

func (TradeRecord) TableName() string { return "trade_audit" }

func newRecord(t *types.Trade) TradeRecord {
	return TradeRecord{
		TradeID:      t.TradeID,
		PairID:       t.PairID,
		BuyOrderID:   t.BuyOrderID,
		SellOrderID:  t.SellOrderID,
		Buyer:        t.Buyer,
		Seller:       t.Seller,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		MakerSide:    t.MakerSide.String(),
		Price:        t.Price.String(),
		Quantity:     t.Quantity.String(),
		QuoteAmount:  t.QuoteAmount.String(),
		BuyFee:       t.BuyFee.String(),
		SellFee:      t.SellFee.String(),
		Auction:      t.Auction,
		ExecutedAt:   t.Timestamp,
	}
}

func (r TradeRecord) trade() (*types.Trade, error) {
	t := &types.Trade{
		TradeID:      r.TradeID,
		PairID:       r.PairID,
		BuyOrderID:   r.BuyOrderID,
		SellOrderID:  r.SellOrderID,
		Buyer:        r.Buyer,
		Seller:       r.Seller,
		MakerOrderID: r.MakerOrderID,
		TakerOrderID: r.TakerOrderID,
		Auction:      r.Auction,
		Timestamp:    r.ExecutedAt,
	}
	if err := t.MakerSide.UnmarshalText([]byte(r.MakerSide)); err != nil {
		return nil, err
	}
	for dst, raw := range map[*decimal.Decimal]string{
		&t.Price: r.Price, &t.Quantity: r.Quantity, &t.QuoteAmount: r.QuoteAmount,
		&t.BuyFee: r.BuyFee, &t.SellFee: r.SellFee,
	} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("trade %d: %w", r.TradeID, err)
		}
		*dst = d
	}
	return t, nil
}

// TradeStore implements storage.TradeStore with gorm
type TradeStore struct {
	db *gorm.DB
}

var _ storage.TradeStore = (*TradeStore)(nil)

// Open connects to MySQL and migrates the audit table
func Open(cfg Config) (*TradeStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New migrates the audit table on an open connection
func New(db *gorm.DB) (*TradeStore, error) {
	if err := db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate trade audit: %w", err)
	}
	return &TradeStore{db: db}, nil
}

func (s *TradeStore) Save(trade *types.Trade) error {
	return s.SaveBatch([]*types.Trade{trade})
}

func (s *TradeStore) SaveBatch(trades []*types.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	records := make([]TradeRecord, len(trades))
	for i, t := range trades {
		records[i] = newRecord(t)
	}
	// Replays of already audited trades are ignored
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(records, 100).Error
}

func (s *TradeStore) GetRecent(pairID string, limit int) ([]*types.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	q := s.db.Order("trade_id DESC").Limit(limit)
	if pairID != "" {
		q = q.Where("pair_id = ?", pairID)
	}
	var rows []TradeRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	trades := make([]*types.Trade, 0, len(rows))
	for _, r := range rows {
		t, err := r.trade()
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func (s *TradeStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
