// Package gormstore persists candles and instrument metadata in SQLite
// through Gorm.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"candlefill/internal/market"
	storemodel "candlefill/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type candleModel = storemodel.CandleModel
type instrumentModel = storemodel.InstrumentModel

type Store struct {
	db *gorm.DB
}

// New opens (and migrates) the SQLite database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	return open(dsn)
}

func open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&candleModel{}, &instrumentModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a couple of connections keeps writer lock contention low
	// while the status endpoint reads concurrently.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) InstrumentMarketType(ctx context.Context, exchange, instrument string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("gorm store not initialized")
	}
	var row instrumentModel
	err := s.db.WithContext(ctx).
		Where("exchange = ? AND instrument_name = ?", exchange, instrument).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.MarketType, true, nil
}

func (s *Store) LatestTick(ctx context.Context, exchange, instrument, resolution string) (int64, bool, error) {
	if s == nil || s.db == nil {
		return 0, false, fmt.Errorf("gorm store not initialized")
	}
	row := s.db.WithContext(ctx).
		Model(&candleModel{}).
		Where("exchange = ? AND instrument_name = ? AND resolution = ?", exchange, instrument, resolution).
		Select("MAX(tick)").
		Row()
	var tick sql.NullInt64
	if err := row.Scan(&tick); err != nil {
		return 0, false, err
	}
	if !tick.Valid {
		return 0, false, nil
	}
	return tick.Int64, true, nil
}

func (s *Store) BulkUpsertCandles(ctx context.Context, candles []market.Candle) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gorm store not initialized")
	}
	if len(candles) == 0 {
		return 0, nil
	}
	now := time.Now().UnixMilli()
	rows := make([]candleModel, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, candleModel{
			Exchange:       c.Exchange,
			InstrumentName: c.InstrumentName,
			Resolution:     c.Resolution,
			Tick:           c.Tick,
			Open:           c.Open,
			High:           c.High,
			Low:            c.Low,
			Close:          c.Close,
			Volume:         c.Volume,
			TakerBuyVol:    c.TakerBuyVolume,
			TakerSellVol:   c.TakerSellVolume,
			OpenInterest:   c.OpenInterest,
			UpdatedAtUnix:  now,
		})
	}
	updates := clause.Assignments(map[string]interface{}{
		"open":              gorm.Expr("excluded.open"),
		"high":              gorm.Expr("excluded.high"),
		"low":               gorm.Expr("excluded.low"),
		"close":             gorm.Expr("excluded.close"),
		"volume":            gorm.Expr("excluded.volume"),
		"taker_buy_volume":  gorm.Expr("excluded.taker_buy_volume"),
		"taker_sell_volume": gorm.Expr("excluded.taker_sell_volume"),
		"open_interest":     gorm.Expr("excluded.open_interest"),
		"updated_at":        gorm.Expr("excluded.updated_at"),
	})
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "exchange"}, {Name: "instrument_name"},
				{Name: "resolution"}, {Name: "tick"},
			},
			DoUpdates: updates,
		}).
		Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// UpsertInstruments registers or refreshes market-type rows, keyed on
// (exchange, instrument_name).
func (s *Store) UpsertInstruments(ctx context.Context, rows []storemodel.InstrumentModel) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	for i := range rows {
		rows[i].UpdatedAtUnix = now
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "exchange"}, {Name: "instrument_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"market_type": gorm.Expr("excluded.market_type"),
				"updated_at":  gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&rows).Error
}

// CandleCount is used by the status endpoint.
func (s *Store) CandleCount(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("gorm store not initialized")
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&candleModel{}).Count(&n).Error
	return n, err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
