package market

import (
	"fmt"
	"math"
	"strings"
)

// Candle is one validated OHLC bucket. Values are immutable after
// construction; build them through NewCandle so malformed exchange data
// never reaches the store.
type Candle struct {
	Exchange       string  `json:"exchange"`
	InstrumentName string  `json:"instrument_name"`
	Resolution     string  `json:"resolution"`
	Tick           int64   `json:"tick"`
	Open           float64 `json:"open"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Close          float64 `json:"close"`
	Volume         float64 `json:"volume"`

	// Optional series, zero when the exchange does not report them.
	TakerBuyVolume  float64 `json:"taker_buy_volume,omitempty"`
	TakerSellVolume float64 `json:"taker_sell_volume,omitempty"`
	OpenInterest    float64 `json:"open_interest,omitempty"`
}

// RawPayload is the parallel-array shape exchanges hand back for a
// historical chunk. All required arrays must share one length; optional
// arrays are either empty or that same length.
type RawPayload struct {
	Ticks  []int64   `json:"ticks"`
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []float64 `json:"volume"`

	TakerBuyVolume  []float64 `json:"taker_buy_volume,omitempty"`
	TakerSellVolume []float64 `json:"taker_sell_volume,omitempty"`
	OpenInterest    []float64 `json:"open_interest,omitempty"`
}

// NewCandle validates a single record and attaches its identity context.
func NewCandle(exchange, instrument, resolution string, tick int64, open, high, low, close, volume float64) (Candle, error) {
	exchange = strings.TrimSpace(exchange)
	instrument = strings.TrimSpace(instrument)
	resolution = strings.TrimSpace(resolution)
	if exchange == "" || instrument == "" || resolution == "" {
		return Candle{}, fmt.Errorf("candle requires exchange/instrument/resolution")
	}
	if tick <= 0 {
		return Candle{}, fmt.Errorf("candle tick must be a positive ms timestamp, got %d", tick)
	}
	for _, v := range [...]float64{open, high, low, close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Candle{}, fmt.Errorf("candle price is not a finite number")
		}
	}
	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
		return Candle{}, fmt.Errorf("candle volume must be finite and non-negative, got %v", volume)
	}
	return Candle{
		Exchange:       exchange,
		InstrumentName: instrument,
		Resolution:     resolution,
		Tick:           tick,
		Open:           open,
		High:           high,
		Low:            low,
		Close:          close,
		Volume:         volume,
	}, nil
}
