package model

// CandleModel is the persisted OHLC row. The composite unique index is what
// makes bulk upserts idempotent.
type CandleModel struct {
	ID             int64   `gorm:"column:id;primaryKey"`
	Exchange       string  `gorm:"column:exchange;uniqueIndex:idx_candle_series,priority:1"`
	InstrumentName string  `gorm:"column:instrument_name;uniqueIndex:idx_candle_series,priority:2"`
	Resolution     string  `gorm:"column:resolution;uniqueIndex:idx_candle_series,priority:3"`
	Tick           int64   `gorm:"column:tick;uniqueIndex:idx_candle_series,priority:4"`
	Open           float64 `gorm:"column:open"`
	High           float64 `gorm:"column:high"`
	Low            float64 `gorm:"column:low"`
	Close          float64 `gorm:"column:close"`
	Volume         float64 `gorm:"column:volume"`
	TakerBuyVol    float64 `gorm:"column:taker_buy_volume"`
	TakerSellVol   float64 `gorm:"column:taker_sell_volume"`
	OpenInterest   float64 `gorm:"column:open_interest"`
	UpdatedAtUnix  int64   `gorm:"column:updated_at"`
}

func (CandleModel) TableName() string { return "ohlc_candles" }

// InstrumentModel maps an instrument to its market type per exchange.
type InstrumentModel struct {
	ID             int64  `gorm:"column:id;primaryKey"`
	Exchange       string `gorm:"column:exchange;uniqueIndex:idx_instrument,priority:1"`
	InstrumentName string `gorm:"column:instrument_name;uniqueIndex:idx_instrument,priority:2"`
	MarketType     string `gorm:"column:market_type"`
	UpdatedAtUnix  int64  `gorm:"column:updated_at"`
}

func (InstrumentModel) TableName() string { return "instruments" }
