package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "crypto-target-monitor/internal/platform/http"
	"crypto-target-monitor/models"
)

const eventsBaseURL = "https://developers.coinmarketcal.com/v1/events"

// EventsClient queries the CoinMarketCal calendar. Requires an API key; when
// none is configured the client reports no events.
type EventsClient struct {
	http   *platformhttp.Client
	apiKey string
	logger zerolog.Logger
}

func NewEventsClient(httpClient *platformhttp.Client, apiKey string) *EventsClient {
	return &EventsClient{
		http:   httpClient,
		apiKey: apiKey,
		logger: log.With().Str("component", "events").Logger(),
	}
}

// HighImpact returns the upcoming high-impact events for the asset, or nil
// when the calendar is disabled or unreachable.
func (c *EventsClient) HighImpact(ctx context.Context, asset string) []models.Event {
	if c.apiKey == "" {
		return nil
	}

	url := fmt.Sprintf("%s?coins=%s&sortBy=date", eventsBaseURL, asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Events request build failed")
		return nil
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Str("asset", asset).Msg("Events unavailable")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Events read failed")
		return nil
	}

	events, err := ParseEvents(body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Events parse failed")
		return nil
	}

	var high []models.Event
	for _, ev := range events {
		if ev.HighImpact() {
			high = append(high, ev)
		}
	}
	return high
}

// ParseEvents accepts either a bare event list or an envelope with a "body"
// array, and tolerates the two field spellings the relay pipeline produces
// ("titulo"/"data"/"impacto" after normalization, "title"/"date_event"
// straight from the API).
func ParseEvents(body []byte) ([]models.Event, error) {
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(body, &list); err != nil {
		var envelope struct {
			Body []map[string]json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("parsing events JSON: %w", err)
		}
		list = envelope.Body
	}

	events := make([]models.Event, 0, len(list))
	for _, raw := range list {
		ev := models.Event{
			Title:  stringField(raw, "titulo", "title"),
			Date:   stringField(raw, "data", "date_event"),
			Impact: stringField(raw, "impacto", "impact"),
		}
		if ev.Title == "" {
			ev.Title = "Evento"
		}
		if ev.Date == "" {
			ev.Date = "data não informada"
		}
		events = append(events, ev)
	}
	return events, nil
}

// stringField returns the first present key decoded as a string; a title
// object with an "en" field also counts.
func stringField(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		var obj struct {
			En string `json:"en"`
		}
		if err := json.Unmarshal(v, &obj); err == nil && obj.En != "" {
			return obj.En
		}
	}
	return ""
}
