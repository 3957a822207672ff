package ember

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// StatsOverlay draws FPS, TPS and the counters of a System in a corner of
// the screen. The text is refreshed every ~0.5 seconds.
type StatsOverlay struct {
	sys   *System
	img   *ebiten.Image
	since float64
	// Extra is appended below the counters, e.g. key bindings.
	Extra string
}

// NewStatsOverlay creates an overlay reporting on s.
func NewStatsOverlay(s *System) *StatsOverlay {
	return &StatsOverlay{sys: s, since: 1}
}

// Text returns the overlay text for the current counters.
func (o *StatsOverlay) Text() string {
	st := o.sys.Stats()
	txt := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nparticles %d/%d  %s\nupdate %v  avg %v",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		st.ParticlesUsed, st.ParticlesMax, o.sys.State(),
		st.LastUpdate, st.AverageUpdate())
	if o.Extra != "" {
		txt += "\n" + o.Extra
	}
	return txt
}

// Update advances the refresh timer by dt seconds.
func (o *StatsOverlay) Update(dt float64) {
	o.since += dt
	if o.since < 0.5 && o.img != nil {
		return
	}
	o.since = 0
	if o.img == nil {
		o.img = ebiten.NewImage(320, 72)
	}
	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.Text())
}

// Draw renders the overlay at the top-left of target.
func (o *StatsOverlay) Draw(target *ebiten.Image) {
	if o.img == nil {
		return
	}
	target.DrawImage(o.img, nil)
}
