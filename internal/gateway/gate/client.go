// Package gate implements the gateway client on the Gate.io v4 futures API.
package gate

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

	"github.com/antihax/optional"
	gateapi "github.com/gateio/gateapi-go/v7"
)

const (
	defaultRESTBaseURL = "https://api.gateio.ws/api/v4"
	settle             = "usdt"
	candleLimit        = 1000
)

type Client struct {
	rest *gateapi.APIClient
}

// NewClient is the gateway.Factory for the gate driver.
func NewClient(cfg config.ExchangeConfig) (gateway.Client, error) {
	conf := gateapi.NewConfiguration()
	conf.BasePath = strings.TrimSpace(cfg.RESTBaseURL)
	if conf.BasePath == "" {
		conf.BasePath = defaultRESTBaseURL
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}
	if cfg.ProxyEnabled && cfg.RESTProxyURL != "" {
		proxyURL, err := url.Parse(cfg.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid gate REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	conf.HTTPClient = httpClient
	return &Client{rest: gateapi.NewAPIClient(conf)}, nil
}

// Connect is a no-op: the v4 REST API is stateless and authenticates per
// request.
func (c *Client) Connect(ctx context.Context) error {
	return nil
}

func (c *Client) GetHistorical(ctx context.Context, req gateway.HistoryRequest) (*market.RawPayload, error) {
	contract := toContract(req.Instrument)
	if contract == "" {
		return nil, fmt.Errorf("instrument is required")
	}
	interval, err := toInterval(req.Resolution)
	if err != nil {
		return nil, err
	}
	opts := &gateapi.ListFuturesCandlesticksOpts{
		From:     optional.NewInt64(req.StartTS / 1000),
		To:       optional.NewInt64(req.EndTS / 1000),
		Interval: optional.NewString(interval),
	}
	kls, _, err := c.rest.FuturesApi.ListFuturesCandlesticks(ctx, settle, contract, opts)
	if err != nil {
		return nil, err
	}
	if len(kls) > candleLimit {
		kls = kls[:candleLimit]
	}

	payload := &market.RawPayload{
		Ticks:  make([]int64, 0, len(kls)),
		Open:   make([]float64, 0, len(kls)),
		High:   make([]float64, 0, len(kls)),
		Low:    make([]float64, 0, len(kls)),
		Close:  make([]float64, 0, len(kls)),
		Volume: make([]float64, 0, len(kls)),
	}
	for _, kl := range kls {
		payload.Ticks = append(payload.Ticks, int64(kl.T)*1000)
		payload.Open = append(payload.Open, parseFloat(kl.O))
		payload.High = append(payload.High, parseFloat(kl.H))
		payload.Low = append(payload.Low, parseFloat(kl.L))
		payload.Close = append(payload.Close, parseFloat(kl.C))
		payload.Volume = append(payload.Volume, parseFloat(kl.Sum))
	}
	return payload, nil
}

func (c *Client) Close() error {
	return nil
}

// toContract renders "BTC/USDT" or "BTCUSDT"-style names as Gate futures
// contracts ("BTC_USDT").
func toContract(instrument string) string {
	s := strings.ToUpper(strings.TrimSpace(instrument))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "-", "_")
	if !strings.Contains(s, "_") && strings.HasSuffix(s, "USDT") {
		s = strings.TrimSuffix(s, "USDT") + "_USDT"
	}
	return s
}

func toInterval(resolution string) (string, error) {
	dur, ok := market.ParseResolution(resolution)
	if !ok {
		return "", fmt.Errorf("unparseable resolution %q", resolution)
	}
	switch {
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
