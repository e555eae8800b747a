package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() *RawPayload {
	return &RawPayload{
		Ticks:  []int64{1000, 2000},
		Open:   []float64{1, 2},
		High:   []float64{3, 4},
		Low:    []float64{0, 1},
		Close:  []float64{2, 3},
		Volume: []float64{10, 20},
	}
}

func TestTransformBuildsOneCandlePerIndex(t *testing.T) {
	out := Transform(validPayload(), "deribit", "BTC-PERP", "1m")
	require.Len(t, out, 2)

	assert.Equal(t, int64(1000), out[0].Tick)
	assert.Equal(t, 2.0, out[0].Close)
	assert.Equal(t, int64(2000), out[1].Tick)
	assert.Equal(t, 3.0, out[1].Close)

	for _, c := range out {
		assert.Equal(t, "deribit", c.Exchange)
		assert.Equal(t, "BTC-PERP", c.InstrumentName)
		assert.Equal(t, "1m", c.Resolution)
	}
}

func TestTransformNilPayload(t *testing.T) {
	assert.Empty(t, Transform(nil, "deribit", "BTC-PERP", "1m"))
}

func TestTransformEmptyTicks(t *testing.T) {
	assert.Empty(t, Transform(&RawPayload{}, "deribit", "BTC-PERP", "1m"))
}

func TestTransformMismatchedLengthsDropsChunk(t *testing.T) {
	p := validPayload()
	p.Volume = []float64{10}
	assert.Empty(t, Transform(p, "deribit", "BTC-PERP", "1m"))

	p = validPayload()
	p.Open = nil
	assert.Empty(t, Transform(p, "deribit", "BTC-PERP", "1m"))
}

func TestTransformInvalidRecordDropsWholeChunk(t *testing.T) {
	p := validPayload()
	p.Close[1] = math.NaN()
	assert.Empty(t, Transform(p, "deribit", "BTC-PERP", "1m"))

	p = validPayload()
	p.Ticks[0] = 0
	assert.Empty(t, Transform(p, "deribit", "BTC-PERP", "1m"))
}

func TestTransformOptionalSeries(t *testing.T) {
	p := validPayload()
	p.TakerBuyVolume = []float64{6, 12}
	p.OpenInterest = []float64{100} // wrong length, must be ignored

	out := Transform(p, "binance", "BTCUSDT", "1m")
	require.Len(t, out, 2)
	assert.Equal(t, 12.0, out[1].TakerBuyVolume)
	assert.Zero(t, out[0].OpenInterest)
}

func TestNewCandleValidation(t *testing.T) {
	_, err := NewCandle("", "BTC-PERP", "1m", 1000, 1, 2, 0, 1, 5)
	assert.Error(t, err)

	_, err = NewCandle("deribit", "BTC-PERP", "1m", -5, 1, 2, 0, 1, 5)
	assert.Error(t, err)

	_, err = NewCandle("deribit", "BTC-PERP", "1m", 1000, 1, 2, 0, 1, -5)
	assert.Error(t, err)

	c, err := NewCandle("deribit", "BTC-PERP", "1m", 1000, 1, 2, 0, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.Tick)
}
