// Package monitor runs the per-asset polling loop: fetch candles, compute
// the indicator battery, evaluate confluence, gate, format, deliver. One
// loop per asset; a failed tick is logged and the loop continues.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-target-monitor/internal/confluence"
	"crypto-target-monitor/internal/gate"
	"crypto-target-monitor/internal/indicators"
	"crypto-target-monitor/internal/metrics"
	"crypto-target-monitor/internal/notify"
	"crypto-target-monitor/internal/patterns"
	"crypto-target-monitor/internal/report"
	"crypto-target-monitor/models"
)

// Fixed indicator parameters. The squeeze constants are configurable; these
// are not.
const (
	rsiWindow     = 14
	stochWindow   = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignal    = 9
	bbWindow      = 20
	bbStdDev      = 2.0
	atrWindow     = 14
	mfiWindow     = 14
	volWindow     = 20
	volMeanWindow = 20
)

// CandleSource supplies the most recent bars for a pair, oldest first.
type CandleSource interface {
	Candles(ctx context.Context, pair, interval string, limit int) ([]models.Candle, error)
}

// SentimentSource supplies the optional market sentiment reading.
type SentimentSource interface {
	Fetch(ctx context.Context) models.Sentiment
}

// EventSource supplies the optional high-impact scheduled events.
type EventSource interface {
	HighImpact(ctx context.Context, asset string) []models.Event
}

// Monitor owns one gate state and drives every asset loop against it. All
// gate keys are namespaced by asset, and each tick runs to completion before
// the asset's next one starts.
type Monitor struct {
	cfg       *models.Config
	source    CandleSource
	sentiment SentimentSource
	events    EventSource
	notifier  notify.Notifier
	gate      *gate.State
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// New wires a monitor. sentiment and events may be nil when the respective
// include flags are off.
func New(cfg *models.Config, source CandleSource, sentiment SentimentSource,
	events EventSource, notifier notify.Notifier, m *metrics.Metrics) *Monitor {
	return &Monitor{
		cfg:       cfg,
		source:    source,
		sentiment: sentiment,
		events:    events,
		notifier:  notifier,
		gate:      gate.New(),
		metrics:   m,
		logger:    log.With().Str("component", "monitor").Logger(),
		now:       time.Now,
	}
}

// Run polls one asset until the context ends. Errors never escape the loop.
func (m *Monitor) Run(ctx context.Context, asset models.AssetConfig) {
	logger := m.logger.With().Str("asset", asset.Name).Logger()
	logger.Info().Str("pair", asset.Pair).Str("interval", m.cfg.Interval).Msg("Monitor started")

	for {
		if err := m.Tick(ctx, asset); err != nil {
			logger.Error().Err(err).Msg("Tick failed")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("Monitor stopped")
			return
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

// Tick executes one full fetch→compute→gate→deliver pass for the asset.
func (m *Monitor) Tick(ctx context.Context, asset models.AssetConfig) error {
	logger := m.logger.With().Str("asset", asset.Name).Logger()

	candles, err := m.source.Candles(ctx, asset.Pair, m.cfg.Interval, m.cfg.CandleLimit)
	if err != nil {
		if m.metrics != nil {
			m.metrics.FetchFailuresTotal.WithLabelValues(asset.Name).Inc()
		}
		return fmt.Errorf("fetching candles: %w", err)
	}
	if m.metrics != nil {
		m.metrics.TicksTotal.WithLabelValues(asset.Name).Inc()
	}

	high, low, close, volume := split(candles)
	price := close[len(close)-1]

	// Indicator battery.
	rsi := indicators.RSI(close, rsiWindow)
	stoch := indicators.StochRSI(close, stochWindow)
	macdLine, macdSig, macdHist := indicators.MACD(close, macdFast, macdSlow, macdSignal)
	obv := indicators.OBV(close, volume)
	bbMid, bbUpper, bbLower := indicators.Bollinger(close, bbWindow, bbStdDev)
	atr := indicators.ATR(high, low, close, atrWindow)
	percentB := indicators.PercentB(close, bbLower, bbUpper)
	bandWidth := indicators.BandWidth(bbLower, bbUpper)
	spreadVsMA := indicators.SpreadVsMean(close, bbMid)
	volPct := indicators.VolatilityPct(close, volWindow)
	mfi := indicators.MFI(high, low, close, volume, mfiWindow)

	_, rsiDivKind := indicators.RSIDivergence(close, rsi)
	_, obvDivKind := indicators.OBVDivergence(close, obv)
	flags := patterns.Detect(candles)
	squeeze := indicators.Squeeze(close, m.cfg.SqueezeWindow, m.cfg.SqueezeBaselineBars, m.cfg.SqueezeFactor)

	support, resistance, distSup, distRes := confluence.SupportResistance(high, low, close)
	fromAbove, fromBelow := confluence.BollingerReentry(close, bbUpper, bbLower)

	snapshot := confluence.Snapshot{
		StochRSI:         stoch,
		MACDHist:         macdHist,
		RSIDivergence:    rsiDivKind,
		OBVDivergence:    obvDivKind,
		Patterns:         flags,
		DistSupport:      distSup,
		DistResistance:   distRes,
		ReentryFromBelow: fromBelow,
		ReentryFromAbove: fromAbove,
	}
	bottom, top := confluence.Evaluate(snapshot)

	result := m.gate.Evaluate(gate.Input{
		Asset:        asset.Name,
		Interval:     m.cfg.Interval,
		Price:        price,
		CloseTime:    candles[len(candles)-1].CloseTime,
		BuyTarget:    asset.BuyTarget,
		SellTarget:   asset.SellTarget,
		Bottom:       bottom,
		Top:          top,
		NearPct:      m.cfg.NearPct,
		Cooldown:     m.cfg.Cooldown,
		OnlyOnNewBar: m.cfg.OnlyOnNewBar,
		EdgeOnly:     m.cfg.NearEdgeOnly,
	})
	alerts := result.Alerts

	// Optional collaborators; both degrade to absent.
	sentiment := models.Sentiment{}
	if m.cfg.IncludeFearGreed && m.sentiment != nil {
		sentiment = m.sentiment.Fetch(ctx)
	}
	var eventTexts []string
	if m.cfg.IncludeEvents && m.events != nil {
		for _, ev := range m.events.HighImpact(ctx, asset.Name) {
			eventTexts = append(eventTexts, fmt.Sprintf("%s (%s)", ev.Title, ev.Date))
			alerts = append(alerts, models.Alert{
				ID:   uuid.NewString(),
				Kind: models.AlertEvent,
				Text: fmt.Sprintf("🏛️ Evento: %s em %s", ev.Title, ev.Date),
			})
		}
	}

	stochTrend, macdTrend := snapshot.Trends()
	tick := report.Tick{
		Asset:    asset.Name,
		Pair:     asset.Pair,
		Interval: m.cfg.Interval,
		Time:     m.now(),
		Price:    price,

		RSI:        rsi[len(rsi)-1],
		StochRSI:   stoch[len(stoch)-1],
		StochTrend: stochTrend,
		MACDLine:   macdLine[len(macdLine)-1],
		MACDSignal: macdSig[len(macdSig)-1],
		MACDHist:   macdHist[len(macdHist)-1],
		MACDTrend:  macdTrend,
		OBV:        obv[len(obv)-1],
		MFI:        mfi[len(mfi)-1],

		RSIDivergence: rsiDivKind,
		OBVDivergence: obvDivKind,

		BBMid:            bbMid[len(bbMid)-1],
		BBUpper:          bbUpper[len(bbUpper)-1],
		BBLower:          bbLower[len(bbLower)-1],
		ReentryFromAbove: fromAbove,
		ReentryFromBelow: fromBelow,

		ATR:         atr[len(atr)-1],
		PercentB:    percentB[len(percentB)-1],
		BandWidth:   bandWidth[len(bandWidth)-1],
		SpreadVsMA:  spreadVsMA[len(spreadVsMA)-1],
		VolPct:      volPct[len(volPct)-1],
		Support:     support,
		Resistance:  resistance,
		DistSupPct:  distSup * 100,
		DistResPct:  distRes * 100,
		SqueezeOn:   squeeze.Released,
		SqueezeDir:  squeeze.Direction,
		VolumeLast:  volume[len(volume)-1],
		VolumeMean:  volumeMean(volume),
		BottomCount: bottom.Count,
		TopCount:    top.Count,

		Patterns: flags.Names(),

		BuyTarget:  asset.BuyTarget,
		SellTarget: asset.SellTarget,
		NearPct:    m.cfg.NearPct,

		Sentiment: sentiment,
		Events:    eventTexts,
	}

	// Snapshot mode sends unconditionally, outside all gating.
	if asset.Snapshot {
		m.deliver(ctx, report.SnapshotMessage(tick))
	}

	if m.cfg.SendOnlyTargets && !anyTargeted(alerts) {
		logger.Debug().Msg("No target alert this tick, skipping send")
		return nil
	}
	if result.Locked {
		if m.metrics != nil {
			m.metrics.LockedTicksTotal.WithLabelValues(asset.Name).Inc()
		}
		logger.Debug().Msg("Candle still forming, alerts suppressed")
		return nil
	}
	if len(alerts) == 0 {
		logger.Debug().Msg("No relevant signal this tick")
		return nil
	}

	for _, a := range alerts {
		logger.Info().Str("alert_id", a.ID).Str("kind", string(a.Kind)).Msg("Alert fired")
		if m.metrics != nil {
			m.metrics.AlertsTotal.WithLabelValues(asset.Name, string(a.Kind)).Inc()
		}
	}
	m.deliver(ctx, report.Message(tick, alerts))
	return nil
}

// deliver sends fire-and-forget: a failed delivery is logged, never retried,
// and does not roll back gate state.
func (m *Monitor) deliver(ctx context.Context, body string) {
	if err := m.notifier.Send(ctx, body); err != nil {
		if m.metrics != nil {
			m.metrics.DeliveryErrors.Inc()
		}
		m.logger.Error().Err(err).Msg("Delivery failed")
	}
}

func anyTargeted(alerts []models.Alert) bool {
	for _, a := range alerts {
		if a.Targeted() {
			return true
		}
	}
	return false
}

func split(candles []models.Candle) (high, low, close, volume []float64) {
	n := len(candles)
	high = make([]float64, n)
	low = make([]float64, n)
	close = make([]float64, n)
	volume = make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		close[i] = c.Close
		volume[i] = c.Volume
	}
	return high, low, close, volume
}

// volumeMean averages the volMeanWindow bars preceding the latest one, or
// everything when the window is short.
func volumeMean(volume []float64) float64 {
	n := len(volume)
	if n == 0 {
		return 0
	}
	if n < volMeanWindow+1 {
		var sum float64
		for _, v := range volume {
			sum += v
		}
		return sum / float64(n)
	}
	var sum float64
	for _, v := range volume[n-volMeanWindow-1 : n-1] {
		sum += v
	}
	return sum / float64(volMeanWindow)
}
