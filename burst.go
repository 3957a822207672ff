package ember

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// EmitBurst is a static burst: Amount particles spread evenly over
// [Time, Time+Duration] milliseconds, generated once when the emitter
// first runs.
type EmitBurst struct {
	Time     int
	Amount   int
	Duration int
}

// BurstTrigger is a bit set of the moments a DynamicBurst fires on.
type BurstTrigger uint8

const (
	TriggerTime       BurstTrigger = 1 << iota // system time crosses Time
	TriggerTrailStart                          // a followed particle is born
	TriggerTrailEnd                            // a followed particle dies
)

// DynamicBurst fires at runtime. Duration > 0 spreads the emission over a
// window instead of emitting everything at once.
type DynamicBurst struct {
	Time            int
	Amount          int
	AmountVariation int
	Duration        int
	Enabled         bool
	Trigger         BurstTrigger
}

// NewDynamicBurst creates an enabled time-triggered burst.
func NewDynamicBurst(timeMs, amount int) DynamicBurst {
	return DynamicBurst{Time: timeMs, Amount: amount, Enabled: true, Trigger: TriggerTime}
}

// burstWindow tracks a dynamic burst being emitted over its duration.
type burstWindow struct {
	start, end int // milliseconds
	amount     int
	counter    int
	prev       int
	center     mgl32.Vec3
	hasCenter  bool
}

// pendingBurst is a runtime Emitter.Burst call waiting for the next update.
type pendingBurst struct {
	amount    int
	duration  int
	center    mgl32.Vec3
	hasCenter bool
}

// amount draws Amount ± AmountVariation keyed on id.
func (b *DynamicBurst) amount(r *Random, id int32) int {
	if b.AmountVariation == 0 {
		return b.Amount
	}
	v := r.variation(id, RandBurstAmountV, float32(b.Amount), float32(b.AmountVariation))
	n := int(math.Round(float64(v)))
	if n < 0 {
		return 0
	}
	return n
}

// drain returns how many particles the window owes up to now, and the time
// span (from, to] in milliseconds they should be spread across.
func (w *burstWindow) drain(now int) (n, from, to int) {
	t := now
	if t > w.end {
		t = w.end
	}
	if t <= w.prev {
		return 0, w.prev, w.prev
	}
	target := int(int64(w.amount) * int64(t-w.start) / int64(w.end-w.start))
	n = target - w.counter
	from, to = w.prev, t
	w.counter += n
	w.prev = t
	return n, from, to
}
