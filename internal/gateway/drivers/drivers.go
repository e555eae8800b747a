// Package drivers is the lookup table from a configured driver name to a
// concrete exchange client factory.
package drivers

import (
	"candlefill/internal/gateway"
	"candlefill/internal/gateway/binance"
	"candlefill/internal/gateway/gate"
)

var table = map[string]gateway.Factory{
	"binance": binance.NewClient,
	"gate":    gate.NewClient,
}

// ForDriver resolves a client factory, ok=false for unknown drivers.
func ForDriver(name string) (gateway.Factory, bool) {
	f, ok := table[name]
	return f, ok
}
