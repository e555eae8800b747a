package market

import (
	"candlefill/internal/logger"
)

// Transform converts a raw parallel-array payload into validated candles.
// It never fails loudly: any defect (missing arrays, length mismatch, a
// record that does not validate) discards the whole batch and returns an
// empty slice, so persistence stays all-or-nothing per fetched chunk.
func Transform(payload *RawPayload, exchange, instrument, resolution string) []Candle {
	if payload == nil {
		logger.Errorf("[transform] nil payload for %s %s", instrument, resolution)
		return nil
	}
	n := len(payload.Ticks)
	if n == 0 {
		return nil
	}
	if len(payload.Open) != n || len(payload.High) != n || len(payload.Low) != n ||
		len(payload.Close) != n || len(payload.Volume) != n {
		logger.Errorf("[transform] mismatched array lengths for %s: ticks=%d open=%d high=%d low=%d close=%d volume=%d, dropping chunk",
			instrument, n, len(payload.Open), len(payload.High), len(payload.Low), len(payload.Close), len(payload.Volume))
		return nil
	}
	takerBuy := len(payload.TakerBuyVolume) == n
	takerSell := len(payload.TakerSellVolume) == n
	openInterest := len(payload.OpenInterest) == n

	out := make([]Candle, 0, n)
	for i := 0; i < n; i++ {
		c, err := NewCandle(exchange, instrument, resolution,
			payload.Ticks[i],
			payload.Open[i], payload.High[i], payload.Low[i], payload.Close[i],
			payload.Volume[i])
		if err != nil {
			logger.Errorf("[transform] invalid record %d for %s %s: %v, dropping chunk", i, instrument, resolution, err)
			return nil
		}
		if takerBuy {
			c.TakerBuyVolume = payload.TakerBuyVolume[i]
		}
		if takerSell {
			c.TakerSellVolume = payload.TakerSellVolume[i]
		}
		if openInterest {
			c.OpenInterest = payload.OpenInterest[i]
		}
		out = append(out, c)
	}
	return out
}
