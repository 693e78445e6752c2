package bitget

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"EngineGate/internal/domain/models"
	domsvc "EngineGate/internal/domain/service"
	xhttp "EngineGate/pkg/http"
	"EngineGate/pkg/util"
)

const (
	candlesPath = "/api/v2/mix/market/candles"
	codeOK      = "00000"
)

// Client reads public futures market data from the Bitget REST API.
type Client struct {
	baseURL     string
	productType string
	http        *xhttp.Client
}

// NewClient builds a market data client. opts are applied after the timeout and user agent.
func NewClient(baseURL, productType string, timeout time.Duration, opts ...xhttp.ClientOption) *Client {
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout), xhttp.WithUserAgent("enginegate-relay")}, opts...)
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		productType: productType,
		http:        xhttp.NewClient(opts...),
	}
}

// Granularity maps a bar length in seconds to the exchange's interval name.
func Granularity(tfSeconds int) (string, error) {
	switch tfSeconds {
	case 60:
		return "1m", nil
	case 180:
		return "3m", nil
	case 300:
		return "5m", nil
	case 900:
		return "15m", nil
	case 1800:
		return "30m", nil
	case 3600:
		return "1H", nil
	case 14400:
		return "4H", nil
	default:
		return "", fmt.Errorf("unsupported timeframe %ds", tfSeconds)
	}
}

// Candles returns up to limit recent bars, oldest first.
func (c *Client) Candles(ctx context.Context, symbol string, tfSeconds, limit int) ([]models.Candle, error) {
	gran, err := Granularity(tfSeconds)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + candlesPath,
		QueryParams: map[string][]string{
			"symbol":      {symbol},
			"productType": {c.productType},
			"granularity": {gran},
			"limit":       {strconv.Itoa(limit)},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("bitget candles: %w", err)
	}
	return parseCandles(body)
}

func parseCandles(body []byte) ([]models.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("bitget candles: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	if code := doc.Get("code").String(); code != codeOK {
		return nil, fmt.Errorf("bitget candles: code %s: %s", code, doc.Get("msg").String())
	}

	var out []models.Candle
	for _, row := range doc.Get("data").Array() {
		f := row.Array()
		if len(f) < 6 {
			continue
		}
		openTime, ok := util.ParseTime(f[0].String())
		if !ok {
			continue
		}
		out = append(out, models.Candle{
			OpenTime: openTime.UTC(),
			Open:     f[1].Float(),
			High:     f[2].Float(),
			Low:      f[3].Float(),
			Close:    f[4].Float(),
			Volume:   f[5].Float(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out, nil
}

var _ domsvc.CandleSource = (*Client)(nil)
