// Package binance fetches klines with an ordered list of fallback base
// endpoints: the configured base is tried first, then the alternate public
// host, returning the first successful parse or a final error after
// exhausting the list.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "crypto-target-monitor/internal/platform/http"
	"crypto-target-monitor/models"
)

const (
	publicDataHost = "https://data-api.binance.vision"
	mainHost       = "https://api.binance.com"
)

// Client is the candle source.
type Client struct {
	http   *platformhttp.Client
	bases  []string
	logger zerolog.Logger
}

// NewClient builds a client whose fallback order starts at baseURL.
func NewClient(httpClient *platformhttp.Client, baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = publicDataHost
	}
	bases := []string{base}
	alt := mainHost
	if strings.Contains(base, "api.binance.com") {
		alt = publicDataHost
	}
	if alt != base {
		bases = append(bases, alt)
	}
	return &Client{
		http:   httpClient,
		bases:  bases,
		logger: log.With().Str("component", "binance").Logger(),
	}
}

// Candles fetches the most recent limit bars for the pair and interval,
// oldest first. Only the first seven kline fields are consumed.
func (c *Client) Candles(ctx context.Context, pair, interval string, limit int) ([]models.Candle, error) {
	var lastErr error
	for i, base := range c.bases {
		candles, err := c.fetch(ctx, base, pair, interval, limit)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("base", base).Msg("Klines request failed")
			continue
		}
		if i > 0 {
			c.logger.Info().Str("base", base).Msg("Fallback endpoint succeeded")
		}
		return candles, nil
	}
	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

func (c *Client) fetch(ctx context.Context, base, pair, interval string, limit int) ([]models.Candle, error) {
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		base, strings.ToUpper(pair), interval, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	candles, err := ParseKlines(body)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("empty klines response")
	}
	return candles, nil
}

// ParseKlines decodes the fixed-width kline tuples. The numeric fields come
// as JSON strings, the timestamps as numbers.
func ParseKlines(body []byte) ([]models.Candle, error) {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing klines JSON: %w", err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for i, row := range raw {
		if len(row) < 7 {
			return nil, fmt.Errorf("kline %d has %d fields, want at least 7", i, len(row))
		}
		var c models.Candle
		var err error
		if c.OpenTime, err = parseMillis(row[0]); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}
		if c.Open, err = parsePrice(row[1]); err != nil {
			return nil, fmt.Errorf("kline %d open: %w", i, err)
		}
		if c.High, err = parsePrice(row[2]); err != nil {
			return nil, fmt.Errorf("kline %d high: %w", i, err)
		}
		if c.Low, err = parsePrice(row[3]); err != nil {
			return nil, fmt.Errorf("kline %d low: %w", i, err)
		}
		if c.Close, err = parsePrice(row[4]); err != nil {
			return nil, fmt.Errorf("kline %d close: %w", i, err)
		}
		if c.Volume, err = parsePrice(row[5]); err != nil {
			return nil, fmt.Errorf("kline %d volume: %w", i, err)
		}
		if c.CloseTime, err = parseMillis(row[6]); err != nil {
			return nil, fmt.Errorf("kline %d close time: %w", i, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parsePrice(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func parseMillis(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}
