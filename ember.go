package ember

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// LogOutput receives warnings and periodic stats lines. Defaults to stderr.
var LogOutput io.Writer = os.Stderr

func warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(LogOutput, "[ember] warning: "+format+"\n", args...)
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float32
}

// ColorWhite is the default particle color.
var ColorWhite = Color{1, 1, 1, 1}

// Vec4 returns the color as an mgl32.Vec4.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// ColorFromHex parses "#rrggbb" or "#rgb" into an opaque Color.
func ColorFromHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("failed to parse color %q: %w", s, err)
	}
	return Color{float32(c.R), float32(c.G), float32(c.B), 1}, nil
}

// ColorFromHSV builds an opaque Color from hue in degrees, saturation and value in [0, 1].
func ColorFromHSV(h, s, v float64) Color {
	c := colorful.Hsv(h, s, v).Clamped()
	return Color{float32(c.R), float32(c.G), float32(c.B), 1}
}

// ParticleHandle identifies a particle kind registered with a System.
type ParticleHandle int32

// EmitterHandle identifies an emitter registered with a System.
type EmitterHandle int32

// AffectorHandle identifies an affector registered with a System.
type AffectorHandle int32

// NoParticle is the zero value for an unset particle reference.
const NoParticle ParticleHandle = -1

// BlendMode selects a compositing operation for rendering a particle kind.
// Each maps to a specific ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendNormal:
		return ebiten.BlendSourceOver
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// EventType identifies a simulation event delivered to an EventSink.
type EventType uint8

const (
	EventTrailStart EventType = iota // a followed particle became alive
	EventTrailEnd                    // a followed particle died
	EventBurst                       // a dynamic or runtime burst fired
	EventReset                       // the system stopped and cleared all particles
)

// String returns the event name used in logs and scripts.
func (t EventType) String() string {
	switch t {
	case EventTrailStart:
		return "trail-start"
	case EventTrailEnd:
		return "trail-end"
	case EventBurst:
		return "burst"
	case EventReset:
		return "reset"
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// Event describes something that happened during an update.
type Event struct {
	Type     EventType
	Time     int // system time in milliseconds
	Particle ParticleHandle
	Emitter  EmitterHandle
	Position mgl32.Vec3
	Amount   int
}

// EventSink receives events as they happen inside System updates. Calls are
// made synchronously from the update loop.
type EventSink interface {
	HandleEvent(Event)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(Event)

// HandleEvent calls f(e).
func (f EventSinkFunc) HandleEvent(e Event) { f(e) }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp32(a, b, t float32) float32 {
	return a + (b-a)*t
}
