// Package gate decides, per tick, whether the computed confluence and target
// proximity may become an alert. Three independent guards compose: a
// once-per-candle lock, edge-triggered proximity, and a per-kind cooldown.
package gate

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"crypto-target-monitor/internal/confluence"
	"crypto-target-monitor/models"
)

// ConfluenceThreshold is the minimum score for a confirmed alert.
const ConfluenceThreshold = 3

// State holds the three process-lifetime memories, keyed per asset. Entries
// are created lazily and mutated only here; a restart resets everything,
// which is accepted behavior. One State is shared by all asset loops, so
// evaluation takes the mutex.
type State struct {
	mu           sync.Mutex
	lastAlert    map[string]time.Time // asset:kind -> last fire
	lastBarClose map[string]int64     // asset:interval -> close time (ms)
	nearState    map[string]bool      // asset:interval:side -> last observed "near"

	now func() time.Time
}

// New returns an empty gate state using the wall clock.
func New() *State {
	return NewWithClock(time.Now)
}

// NewWithClock allows tests to control the cooldown clock.
func NewWithClock(now func() time.Time) *State {
	return &State{
		lastAlert:    make(map[string]time.Time),
		lastBarClose: make(map[string]int64),
		nearState:    make(map[string]bool),
		now:          now,
	}
}

// Input is everything one gate evaluation consumes.
type Input struct {
	Asset    string
	Interval string

	Price     float64
	CloseTime int64 // latest bar close, epoch ms

	BuyTarget  models.Target
	SellTarget models.Target

	Bottom confluence.Score
	Top    confluence.Score

	NearPct      float64
	Cooldown     time.Duration
	OnlyOnNewBar bool
	EdgeOnly     bool
}

// Result is the gate decision for one tick.
type Result struct {
	// Locked means the tick re-polled an already processed candle; all
	// non-snapshot output is suppressed and no cooldown was consumed.
	Locked bool
	Alerts []models.Alert
}

// Evaluate runs the full decision for one tick. The bar close time is
// recorded as soon as a new bar is seen, and the near-edge state is
// persisted every tick, regardless of whether any alert fires. Cooldown
// timers advance only on ticks that pass the candle lock.
func (s *State) Evaluate(in Input) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	newBar := s.observeBar(in.Asset, in.Interval, in.CloseTime)

	nearBuy := near(in.Price, in.BuyTarget, in.NearPct)
	nearSell := near(in.Price, in.SellTarget, in.NearPct)

	fireBuy := s.edge(in, "buy", nearBuy)
	fireSell := s.edge(in, "sell", nearSell)

	if in.OnlyOnNewBar && !newBar {
		return Result{Locked: true}
	}

	var alerts []models.Alert
	if fireBuy {
		if in.Bottom.Count >= ConfluenceThreshold && s.cooldownOK(in.Asset, models.AlertBuyConfluence, in.Cooldown) {
			alerts = append(alerts, newAlert(models.AlertBuyConfluence,
				fmt.Sprintf("✅ FUNDO REAL (confluência ≥%d) perto do alvo de COMPRA %.2f USDT",
					ConfluenceThreshold, in.BuyTarget.Value),
				in.Bottom.Reasons))
		} else if s.cooldownOK(in.Asset, models.AlertBuyNear, in.Cooldown) {
			alerts = append(alerts, newAlert(models.AlertBuyNear,
				fmt.Sprintf("🎯 Próximo ao alvo de COMPRA %.2f USDT — aguardando confluência (atual %.2f)",
					in.BuyTarget.Value, in.Price), nil))
		}
	}
	if fireSell {
		if in.Top.Count >= ConfluenceThreshold && s.cooldownOK(in.Asset, models.AlertSellConfluence, in.Cooldown) {
			alerts = append(alerts, newAlert(models.AlertSellConfluence,
				fmt.Sprintf("✅ TOPO REAL (confluência ≥%d) perto do alvo de VENDA %.2f USDT",
					ConfluenceThreshold, in.SellTarget.Value),
				in.Top.Reasons))
		} else if s.cooldownOK(in.Asset, models.AlertSellNear, in.Cooldown) {
			alerts = append(alerts, newAlert(models.AlertSellNear,
				fmt.Sprintf("🎯 Próximo ao alvo de VENDA %.2f USDT — aguardando confluência (atual %.2f)",
					in.SellTarget.Value, in.Price), nil))
		}
	}

	return Result{Alerts: alerts}
}

// observeBar reports whether the close time differs from the stored one for
// this asset/interval, recording it when it does. The recording is not
// conditioned on an alert firing.
func (s *State) observeBar(asset, interval string, closeTime int64) bool {
	key := asset + ":" + interval
	last, seen := s.lastBarClose[key]
	if seen && last == closeTime {
		return false
	}
	s.lastBarClose[key] = closeTime
	return true
}

// edge applies the edge-only policy for one side: with EdgeOnly the side
// fires only on a false→true transition of "near"; without it, "near" itself
// suffices. The observed value is always persisted.
func (s *State) edge(in Input, side string, nowNear bool) bool {
	key := in.Asset + ":" + in.Interval + ":" + side
	prev := s.nearState[key]
	s.nearState[key] = nowNear
	if in.EdgeOnly {
		return nowNear && !prev
	}
	return nowNear
}

// cooldownOK checks and, when the alert is allowed, consumes the cooldown
// for this asset and kind. Zero or negative cooldown disables the guard.
func (s *State) cooldownOK(asset string, kind models.AlertKind, cooldown time.Duration) bool {
	if cooldown <= 0 {
		return true
	}
	key := asset + ":" + string(kind)
	now := s.now()
	if last, ok := s.lastAlert[key]; ok && now.Sub(last) < cooldown {
		return false
	}
	s.lastAlert[key] = now
	return true
}

func near(price float64, target models.Target, nearPct float64) bool {
	if !target.Set {
		return false
	}
	den := target.Value
	if den < 1e-9 {
		den = 1e-9
	}
	diff := price - target.Value
	if diff < 0 {
		diff = -diff
	}
	return diff/den <= nearPct/100.0
}

func newAlert(kind models.AlertKind, text string, reasons []string) models.Alert {
	return models.Alert{
		ID:      uuid.NewString(),
		Kind:    kind,
		Text:    text,
		Reasons: reasons,
	}
}
