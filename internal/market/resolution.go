package market

import (
	"strconv"
	"strings"
	"time"
)

// candlesPerChunk bounds one exchange request to 1000 buckets, the common
// ceiling across the venues we pull from.
const candlesPerChunk = 1000

// ParseResolution parses "1m", "15m", "4h", "1d", "1w" into a duration.
// A bare integer ("1", "60") is read as minutes, the TradingView
// convention some upstream queues still emit. Returns (0, false) on
// invalid input.
func ParseResolution(resolution string) (time.Duration, bool) {
	resolution = strings.ToLower(strings.TrimSpace(resolution))
	if resolution == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(resolution); err == nil {
		if n <= 0 {
			return 0, false
		}
		return time.Duration(n) * time.Minute, true
	}
	unit := resolution[len(resolution)-1]
	numStr := strings.TrimSpace(resolution[:len(resolution)-1])
	if numStr == "" {
		return 0, false
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return 0, false
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// ChunkSpanMS returns the widest window, in ms, one paginated request may
// cover for the given bucket duration.
func ChunkSpanMS(resolution time.Duration) int64 {
	return candlesPerChunk * resolution.Milliseconds()
}
