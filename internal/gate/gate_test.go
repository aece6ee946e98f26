package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-target-monitor/internal/confluence"
	"crypto-target-monitor/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestState() (*State, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(clock.now), clock
}

func nearBuyInput(closeTime int64) Input {
	return Input{
		Asset:        "BTC",
		Interval:     "1h",
		Price:        100_500,
		CloseTime:    closeTime,
		BuyTarget:    models.Target{Value: 100_000, Set: true},
		NearPct:      3,
		Cooldown:     time.Hour,
		OnlyOnNewBar: true,
		EdgeOnly:     true,
	}
}

func TestConfirmedVersusWatch(t *testing.T) {
	s, _ := newTestState()

	in := nearBuyInput(1000)
	in.Bottom = confluence.Score{Count: 2, Reasons: []string{"a", "b"}}
	res := s.Evaluate(in)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertBuyNear, res.Alerts[0].Kind)
	assert.Contains(t, res.Alerts[0].Text, "alvo de COMPRA 100000.00")
	assert.Empty(t, res.Alerts[0].Reasons)

	s2, _ := newTestState()
	in.Bottom = confluence.Score{Count: 3, Reasons: []string{"a", "b", "c"}}
	res = s2.Evaluate(in)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertBuyConfluence, res.Alerts[0].Kind)
	assert.Contains(t, res.Alerts[0].Text, "FUNDO REAL")
	assert.Equal(t, []string{"a", "b", "c"}, res.Alerts[0].Reasons)
	assert.NotEmpty(t, res.Alerts[0].ID)
}

func TestSellSide(t *testing.T) {
	s, _ := newTestState()

	in := Input{
		Asset:        "ETH",
		Interval:     "1h",
		Price:        4010,
		CloseTime:    1000,
		SellTarget:   models.Target{Value: 4000, Set: true},
		Top:          confluence.Score{Count: 4, Reasons: []string{"x"}},
		NearPct:      3,
		Cooldown:     time.Hour,
		OnlyOnNewBar: true,
		EdgeOnly:     true,
	}
	res := s.Evaluate(in)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertSellConfluence, res.Alerts[0].Kind)
	assert.Contains(t, res.Alerts[0].Text, "TOPO REAL")
	assert.Contains(t, res.Alerts[0].Text, "alvo de VENDA 4000.00")
}

func TestUnsetTargetNeverFires(t *testing.T) {
	s, _ := newTestState()

	in := nearBuyInput(1000)
	in.BuyTarget = models.Target{}
	in.Bottom = confluence.Score{Count: 5}
	res := s.Evaluate(in)
	assert.False(t, res.Locked)
	assert.Empty(t, res.Alerts)
}

func TestOutsideNearBandNeverFires(t *testing.T) {
	s, _ := newTestState()

	in := nearBuyInput(1000)
	in.Price = 110_000 // 10% away, band is 3%
	in.Bottom = confluence.Score{Count: 5}
	res := s.Evaluate(in)
	assert.Empty(t, res.Alerts)
}

// Re-polling the same candle is suppressed without consuming the cooldown:
// the next new bar still alerts immediately.
func TestCandleLockDoesNotConsumeCooldown(t *testing.T) {
	s, clock := newTestState()

	in := nearBuyInput(1000)
	in.Bottom = confluence.Score{Count: 3, Reasons: []string{"a", "b", "c"}}
	res := s.Evaluate(in)
	require.Len(t, res.Alerts, 1)

	// Same candle again, well past the cooldown. Locked, nothing emitted.
	clock.advance(2 * time.Hour)
	res = s.Evaluate(in)
	assert.True(t, res.Locked)
	assert.Empty(t, res.Alerts)

	// New candle: price has left and re-entered the band meanwhile, so the
	// edge re-arms; the locked tick must not have touched the cooldown timer.
	far := nearBuyInput(2000)
	far.Price = 120_000
	assert.Empty(t, s.Evaluate(far).Alerts)

	in = nearBuyInput(3000)
	in.Bottom = confluence.Score{Count: 3, Reasons: []string{"a", "b", "c"}}
	res = s.Evaluate(in)
	assert.False(t, res.Locked)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertBuyConfluence, res.Alerts[0].Kind)
}

// With edge-only on, staying inside the band fires once; leaving and
// re-entering re-arms the trigger.
func TestEdgeOnlySingleFire(t *testing.T) {
	s, clock := newTestState()

	in := nearBuyInput(1000)
	res := s.Evaluate(in)
	require.Len(t, res.Alerts, 1)

	// Still near on the next candles: no re-fire even after the cooldown.
	for i, ct := range []int64{2000, 3000} {
		clock.advance(2 * time.Hour)
		again := nearBuyInput(ct)
		assert.Empty(t, s.Evaluate(again).Alerts, "candle %d", i)
	}

	// Out of the band, then back in: fires again.
	out := nearBuyInput(4000)
	out.Price = 120_000
	assert.Empty(t, s.Evaluate(out).Alerts)

	clock.advance(2 * time.Hour)
	back := nearBuyInput(5000)
	res = s.Evaluate(back)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertBuyNear, res.Alerts[0].Kind)
}

// Without edge-only, every near candle fires, subject only to the cooldown.
func TestLevelTriggeredRespectsCooldown(t *testing.T) {
	s, clock := newTestState()

	in := nearBuyInput(1000)
	in.EdgeOnly = false
	require.Len(t, s.Evaluate(in).Alerts, 1)

	in.CloseTime = 2000
	clock.advance(30 * time.Minute)
	assert.Empty(t, s.Evaluate(in).Alerts)

	in.CloseTime = 3000
	clock.advance(31 * time.Minute)
	require.Len(t, s.Evaluate(in).Alerts, 1)
}

func TestCooldownIsPerKind(t *testing.T) {
	s, _ := newTestState()

	// A watch alert first.
	in := nearBuyInput(1000)
	in.EdgeOnly = false
	res := s.Evaluate(in)
	require.Len(t, res.Alerts, 1)
	require.Equal(t, models.AlertBuyNear, res.Alerts[0].Kind)

	// Confluence arrives on the next candle: a different kind, so the watch
	// cooldown does not block it.
	in.CloseTime = 2000
	in.Bottom = confluence.Score{Count: 3, Reasons: []string{"a", "b", "c"}}
	res = s.Evaluate(in)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertBuyConfluence, res.Alerts[0].Kind)
}

func TestZeroCooldownDisablesGuard(t *testing.T) {
	s, _ := newTestState()

	in := nearBuyInput(1000)
	in.EdgeOnly = false
	in.Cooldown = 0
	require.Len(t, s.Evaluate(in).Alerts, 1)

	in.CloseTime = 2000
	require.Len(t, s.Evaluate(in).Alerts, 1)
}

// The near-edge memory is updated even on locked ticks, so an excursion seen
// only during a re-poll still re-arms the edge.
func TestLockedTickStillTracksEdgeState(t *testing.T) {
	s, _ := newTestState()

	in := nearBuyInput(1000)
	require.Len(t, s.Evaluate(in).Alerts, 1)

	// Re-poll of the same candle with the price outside the band.
	out := nearBuyInput(1000)
	out.Price = 120_000
	res := s.Evaluate(out)
	assert.True(t, res.Locked)

	// Next candle back inside: the edge re-armed during the locked tick.
	back := nearBuyInput(2000)
	back.Cooldown = 0
	res = s.Evaluate(back)
	require.Len(t, res.Alerts, 1)
}

func TestAssetsAreIndependent(t *testing.T) {
	s, _ := newTestState()

	btc := nearBuyInput(1000)
	require.Len(t, s.Evaluate(btc).Alerts, 1)

	eth := nearBuyInput(1000)
	eth.Asset = "ETH"
	require.Len(t, s.Evaluate(eth).Alerts, 1)
}

func TestBothSidesCanFireOnOneTick(t *testing.T) {
	s, _ := newTestState()

	in := Input{
		Asset:      "BTC",
		Interval:   "1h",
		Price:      100,
		CloseTime:  1000,
		BuyTarget:  models.Target{Value: 101, Set: true},
		SellTarget: models.Target{Value: 99, Set: true},
		NearPct:    3,
		EdgeOnly:   true,
	}
	res := s.Evaluate(in)
	require.Len(t, res.Alerts, 2)
	assert.Equal(t, models.AlertBuyNear, res.Alerts[0].Kind)
	assert.Equal(t, models.AlertSellNear, res.Alerts[1].Kind)
}
