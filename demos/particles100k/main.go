// particles100k keeps 100,000 sprite particles alive, swirled by a point
// rotator and a wander affector. A stress test for the Ember simulation
// and the preview renderer.
package main

import (
	"image/color"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/ember"
)

const (
	screenW = 1280
	screenH = 720
	count   = 100_000
)

type demo struct {
	sys      *ember.System
	renderer *ember.EbitenRenderer
	overlay  *ember.StatsOverlay
	frame    int
}

func (d *demo) Update() error {
	d.frame++
	if d.frame == 30 {
		d.renderer.ScreenshotDir = "docs/demos/particles100k"
		d.renderer.Screenshot("thumbnail")
	}
	if d.frame == 32 {
		return ebiten.Termination
	}
	d.overlay.Update(1.0 / 60)
	d.sys.Tick(16)
	return nil
}

func (d *demo) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{15, 15, 23, 255})
	d.renderer.Draw(screen)
	d.overlay.Draw(screen)
}

func (d *demo) Layout(_, _ int) (int, int) { return screenW, screenH }

func main() {
	sys := ember.NewSystem(ember.ConfigFromEnv())

	motes := ember.NewSpriteParticle("motes", count)
	motes.Color = ember.Color{R: 0.75, G: 0.75, B: 0.75, A: 1}
	motes.ColorVariation = mgl32.Vec4{0.5, 0.5, 0.5, 0}
	motes.BlendMode = ember.BlendAdd
	h := sys.AddParticle(motes)

	e := ember.NewEmitter("field", h)
	e.LifeSpan = 4000
	e.LifeSpanVariation = 1000
	e.EmitRate = count * 1000 / float32(e.LifeSpan+e.LifeSpanVariation)
	e.ParticleScale = 0.05
	e.ParticleScaleVariation = 0.03
	e.SetShape(ember.NewCylinderShape(mgl32.Vec3{12, 0.5, 12}, true))
	sys.Node.AddChild(e.Node)
	sys.AddEmitter(e)
	// Fill the field immediately instead of waiting for the rate.
	e.AddEmitBurst(ember.EmitBurst{Amount: count / 2})

	sys.AddAffector(ember.NewPointRotator("swirl", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 25))
	w := ember.NewWander("drift")
	w.UniqueAmount = mgl32.Vec3{0.3, 1, 0.3}
	w.UniquePace = mgl32.Vec3{0.4, 0.6, 0.4}
	w.UniquePaceVariation = 0.5
	w.FadeInDuration = 500
	sys.AddAffector(w)

	r := ember.NewEbitenRenderer(ember.NewCamera(mgl32.Vec3{0, 10, 22}, mgl32.Vec3{}))
	sys.SetSink(r)
	sys.SetRunning(true)

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("Ember: 100k Particles")
	if err := ebiten.RunGame(&demo{sys: sys, renderer: r, overlay: ember.NewStatsOverlay(sys)}); err != nil {
		log.Fatal(err)
	}
}
