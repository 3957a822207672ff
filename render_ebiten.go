package ember

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// Camera is a perspective camera used by EbitenRenderer.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	// FovY is the vertical field of view in degrees.
	FovY      float32
	Near, Far float32
}

// NewCamera returns a camera at pos looking at target with a 60° field of view.
func NewCamera(pos, target mgl32.Vec3) *Camera {
	return &Camera{Position: pos, Target: target, Up: mgl32.Vec3{0, 1, 0}, FovY: 60, Near: 0.1, Far: 10000}
}

// View returns the camera's view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns projection * view for a viewport of w by h pixels.
func (c *Camera) ViewProjection(w, h int) mgl32.Mat4 {
	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / float32(h)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far).Mul4(c.View())
}

var whiteImage = func() *ebiten.Image {
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	return img
}()

// whiteSubImage avoids sampling the image edge.
var whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

type renderEntry struct {
	p   *Particle
	buf *Buffer
}

// EbitenRenderer is a Sink that previews committed buffers with ebiten.
// Sprites and model instances draw as camera-facing quads, lines as ribbons
// along their binormal, and model-blend particles as flat triangles.
// Positions are interpreted in the space of the camera.
type EbitenRenderer struct {
	Camera *Camera

	// ScreenshotDir receives PNGs queued with Screenshot. Empty means
	// "screenshots".
	ScreenshotDir string

	entries  []renderEntry
	textures map[ParticleHandle]*ebiten.Image
	verts    []ebiten.Vertex
	inds     []uint32

	vp           mgl32.Mat4
	halfW, halfH float32
	right, up    mgl32.Vec3

	screenshotQueue []string
}

// NewEbitenRenderer creates a renderer drawing through cam.
func NewEbitenRenderer(cam *Camera) *EbitenRenderer {
	return &EbitenRenderer{Camera: cam, textures: make(map[ParticleHandle]*ebiten.Image)}
}

// SetTexture sets the sprite texture for kind h. Sprites with a
// SpriteSequence read their frame from a horizontal strip.
func (r *EbitenRenderer) SetTexture(h ParticleHandle, img *ebiten.Image) {
	if img == nil {
		delete(r.textures, h)
		return
	}
	r.textures[h] = img
}

// Commit implements Sink.
func (r *EbitenRenderer) Commit(p *Particle, buf *Buffer) {
	for i := range r.entries {
		if r.entries[i].p == p {
			r.entries[i].buf = buf
			return
		}
	}
	r.entries = append(r.entries, renderEntry{p: p, buf: buf})
}

// Draw renders every committed buffer into target.
func (r *EbitenRenderer) Draw(target *ebiten.Image) {
	if r.Camera == nil {
		return
	}
	b := target.Bounds()
	r.viewport(b.Dx(), b.Dy())

	for _, e := range r.entries {
		if e.p.handle == NoParticle || e.buf.Count() == 0 {
			continue
		}
		r.verts = r.verts[:0]
		r.inds = r.inds[:0]
		src := whiteSubImage
		switch e.p.Type {
		case ParticleSprite:
			if tex := r.textures[e.p.handle]; tex != nil {
				src = tex
			}
			r.appendSprites(e.p, e.buf, src)
		case ParticleLine:
			r.appendLines(e.p, e.buf)
		case ParticleModel:
			r.appendInstances(e.buf)
		case ParticleModelBlend:
			r.appendTriangles(e.buf)
		}
		if len(r.inds) == 0 {
			continue
		}
		var op ebiten.DrawTrianglesOptions
		op.Blend = e.p.BlendMode.EbitenBlend()
		op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
		target.DrawTriangles32(r.verts, r.inds, src, &op)
	}
	r.flushScreenshots(target)
}

// viewport caches the projection and billboard axes for a w by h target.
func (r *EbitenRenderer) viewport(w, h int) {
	r.vp = r.Camera.ViewProjection(w, h)
	r.halfW, r.halfH = float32(w)/2, float32(h)/2
	view := r.Camera.View()
	r.right = mgl32.Vec3{view[0], view[4], view[8]}
	r.up = mgl32.Vec3{view[1], view[5], view[9]}
}

// project maps a point to screen space. ok is false behind the camera.
func (r *EbitenRenderer) project(p mgl32.Vec3) (x, y float32, ok bool) {
	v := r.vp.Mul4x1(p.Vec4(1))
	if v[3] <= 1e-6 {
		return 0, 0, false
	}
	return (v[0]/v[3] + 1) * r.halfW, (1 - v[1]/v[3]) * r.halfH, true
}

func (r *EbitenRenderer) vertex(p mgl32.Vec3, sx, sy float32, c mgl32.Vec4) (ebiten.Vertex, bool) {
	x, y, ok := r.project(p)
	if !ok {
		return ebiten.Vertex{}, false
	}
	return ebiten.Vertex{
		DstX: x, DstY: y, SrcX: sx, SrcY: sy,
		ColorR: c[0] * c[3], ColorG: c[1] * c[3], ColorB: c[2] * c[3], ColorA: c[3],
	}, true
}

// quad appends a camera-facing quad of the given size rotated by rot
// radians about the view axis.
func (r *EbitenRenderer) quad(center mgl32.Vec3, size, rot float32, c mgl32.Vec4, u0, v0, u1, v1 float32) {
	if size <= 0 || c[3] <= 0 {
		return
	}
	sin, cos := math.Sincos(float64(rot))
	h := size / 2
	rx := r.right.Mul(float32(cos) * h).Add(r.up.Mul(float32(sin) * h))
	ry := r.up.Mul(float32(cos) * h).Sub(r.right.Mul(float32(sin) * h))
	corners := [4]mgl32.Vec3{
		center.Sub(rx).Add(ry), center.Add(rx).Add(ry),
		center.Sub(rx).Sub(ry), center.Add(rx).Sub(ry),
	}
	us := [4]float32{u0, u1, u0, u1}
	vs := [4]float32{v0, v0, v1, v1}
	base := uint32(len(r.verts))
	for j, p := range corners {
		v, ok := r.vertex(p, us[j], vs[j], c)
		if !ok {
			r.verts = r.verts[:base]
			return
		}
		r.verts = append(r.verts, v)
	}
	r.inds = append(r.inds, base+0, base+1, base+2, base+1, base+3, base+2)
}

func (r *EbitenRenderer) appendSprites(p *Particle, buf *Buffer, src *ebiten.Image) {
	b := src.Bounds()
	u0, v0 := float32(b.Min.X), float32(b.Min.Y)
	fw, fh := float32(b.Dx()), float32(b.Dy())
	frames := 1
	if p.Sequence != nil && p.Sequence.FrameCount > 1 {
		frames = p.Sequence.FrameCount
	}
	fw /= float32(frames)
	for i := 0; i < buf.Count(); i++ {
		rec := buf.Record(i)
		c := mgl32.Vec4{rec[8], rec[9], rec[10], rec[11]}
		f := float32(int(rec[12] * float32(frames)))
		r.quad(mgl32.Vec3{rec[0], rec[1], rec[2]}, rec[3], rec[6], c, u0+f*fw, v0, u0+(f+1)*fw, v0+fh)
	}
}

func (r *EbitenRenderer) appendInstances(buf *Buffer) {
	for i := 0; i < buf.Count(); i++ {
		rec := buf.Record(i)
		c := mgl32.Vec4{rec[10], rec[11], rec[12], rec[13]}
		r.quad(mgl32.Vec3{rec[0], rec[1], rec[2]}, rec[7], 0, c, 1, 1, 2, 2)
	}
}

func (r *EbitenRenderer) appendLines(p *Particle, buf *Buffer) {
	n := p.LinePoints()
	if n < 2 {
		return
	}
	for start := 0; start+n <= buf.Count(); start += n {
		base := uint32(len(r.verts))
		ok := true
		for k := 0; k < n && ok; k++ {
			rec := buf.Record(start + k)
			pos := mgl32.Vec3{rec[0], rec[1], rec[2]}
			side := mgl32.Vec3{rec[3], rec[4], rec[5]}.Mul(rec[10] / 2)
			c := mgl32.Vec4{rec[6], rec[7], rec[8], rec[9]}
			a, ok1 := r.vertex(pos.Add(side), 1, 1, c)
			b, ok2 := r.vertex(pos.Sub(side), 2, 2, c)
			ok = ok1 && ok2
			r.verts = append(r.verts, a, b)
		}
		if !ok {
			r.verts = r.verts[:base]
			continue
		}
		for k := uint32(0); k < uint32(n-1); k++ {
			i := base + 2*k
			r.inds = append(r.inds, i, i+1, i+2, i+1, i+3, i+2)
		}
	}
}

func (r *EbitenRenderer) appendTriangles(buf *Buffer) {
	for i := 0; i < buf.Count(); i++ {
		rec := buf.Record(i)
		c := mgl32.Vec4{rec[9], rec[10], rec[11], rec[12]}
		if c[3] <= 0 {
			continue
		}
		base := uint32(len(r.verts))
		ok := true
		for k := 0; k < 3 && ok; k++ {
			var v ebiten.Vertex
			v, ok = r.vertex(mgl32.Vec3{rec[3*k], rec[3*k+1], rec[3*k+2]}, 1, 1, c)
			r.verts = append(r.verts, v)
		}
		if !ok {
			r.verts = r.verts[:base]
			continue
		}
		r.inds = append(r.inds, base, base+1, base+2)
	}
}
