// Package binance implements the gateway client on the go-binance futures
// SDK.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"candlefill/internal/config"
	"candlefill/internal/gateway"
	"candlefill/internal/market"

	"github.com/adshao/go-binance/v2/futures"
)

const (
	defaultRESTBaseURL = "https://fapi.binance.com"
	klineLimit         = 1000
)

type Client struct {
	client *futures.Client
}

// NewClient is the gateway.Factory for the binance driver.
func NewClient(cfg config.ExchangeConfig) (gateway.Client, error) {
	fc := futures.NewClient("", "")
	baseURL := strings.TrimSpace(cfg.RESTBaseURL)
	if baseURL == "" {
		baseURL = defaultRESTBaseURL
	}
	fc.BaseURL = baseURL

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}
	if cfg.ProxyEnabled && cfg.RESTProxyURL != "" {
		proxyURL, err := url.Parse(cfg.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	fc.HTTPClient = httpClient

	return &Client{client: fc}, nil
}

func (c *Client) Connect(ctx context.Context) error {
	return c.client.NewPingService().Do(ctx)
}

func (c *Client) GetHistorical(ctx context.Context, req gateway.HistoryRequest) (*market.RawPayload, error) {
	symbol := toExchangeSymbol(req.Instrument)
	if symbol == "" {
		return nil, fmt.Errorf("instrument is required")
	}
	interval, err := toInterval(req.Resolution)
	if err != nil {
		return nil, err
	}
	kls, err := c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(req.StartTS).
		EndTime(req.EndTS).
		Limit(klineLimit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	payload := &market.RawPayload{
		Ticks:          make([]int64, 0, len(kls)),
		Open:           make([]float64, 0, len(kls)),
		High:           make([]float64, 0, len(kls)),
		Low:            make([]float64, 0, len(kls)),
		Close:          make([]float64, 0, len(kls)),
		Volume:         make([]float64, 0, len(kls)),
		TakerBuyVolume: make([]float64, 0, len(kls)),
	}
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		payload.Ticks = append(payload.Ticks, kl.OpenTime)
		payload.Open = append(payload.Open, parseFloat(kl.Open))
		payload.High = append(payload.High, parseFloat(kl.High))
		payload.Low = append(payload.Low, parseFloat(kl.Low))
		payload.Close = append(payload.Close, parseFloat(kl.Close))
		payload.Volume = append(payload.Volume, parseFloat(kl.Volume))
		payload.TakerBuyVolume = append(payload.TakerBuyVolume, parseFloat(kl.TakerBuyBaseAssetVolume))
	}
	return payload, nil
}

func (c *Client) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// toExchangeSymbol strips separators: "BTC/USDT" and "BTC-USDT" both become
// BTCUSDT.
func toExchangeSymbol(instrument string) string {
	s := strings.ToUpper(strings.TrimSpace(instrument))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// toInterval renders a resolution in Binance's kline interval notation.
func toInterval(resolution string) (string, error) {
	dur, ok := market.ParseResolution(resolution)
	if !ok {
		return "", fmt.Errorf("unparseable resolution %q", resolution)
	}
	switch {
	case dur%(7*24*time.Hour) == 0:
		return strconv.Itoa(int(dur/(7*24*time.Hour))) + "w", nil
	case dur%(24*time.Hour) == 0:
		return strconv.Itoa(int(dur/(24*time.Hour))) + "d", nil
	case dur%time.Hour == 0:
		return strconv.Itoa(int(dur/time.Hour)) + "h", nil
	default:
		return strconv.Itoa(int(dur/time.Minute)) + "m", nil
	}
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
