// Package market wraps the optional context collaborators: the Fear & Greed
// sentiment index and the scheduled-event calendar. Both degrade to an
// explicit absent value; core alert decisions never depend on them.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "crypto-target-monitor/internal/platform/http"
	"crypto-target-monitor/models"
)

const fearGreedURL = "https://api.alternative.me/fng/?limit=1&format=json"

// SentimentClient queries the alternative.me Fear & Greed index. The API is
// public, no key needed.
type SentimentClient struct {
	http   *platformhttp.Client
	logger zerolog.Logger
}

func NewSentimentClient(httpClient *platformhttp.Client) *SentimentClient {
	return &SentimentClient{
		http:   httpClient,
		logger: log.With().Str("component", "feargreed").Logger(),
	}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// Fetch returns the current 0-100 sentiment score and label, or an absent
// Sentiment when the index is unreachable.
func (c *SentimentClient) Fetch(ctx context.Context) models.Sentiment {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fearGreedURL, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fear & Greed request build failed")
		return models.Sentiment{}
	}

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fear & Greed unavailable")
		return models.Sentiment{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fear & Greed read failed")
		return models.Sentiment{}
	}

	s, err := parseSentiment(body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fear & Greed parse failed")
		return models.Sentiment{}
	}
	return s
}

func parseSentiment(body []byte) (models.Sentiment, error) {
	var data fngResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return models.Sentiment{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(data.Data) == 0 {
		return models.Sentiment{}, fmt.Errorf("empty data")
	}
	value, err := strconv.Atoi(data.Data[0].Value)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("parsing value: %w", err)
	}
	return models.Sentiment{
		Value: value,
		Label: data.Data[0].Classification,
		OK:    true,
	}, nil
}
