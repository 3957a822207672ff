package ember

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"
)

// Effect file errors.
var (
	ErrUnknownKind = errors.New("unknown kind")
	ErrBadEffect   = errors.New("invalid effect")
)

// EffectFile is the YAML document read by LoadEffect. Vectors are
// three-element sequences, colors are "#rrggbb[aa]" strings or
// [r, g, b(, a)] sequences in [0, 1], times are milliseconds.
//
//	seed: 42
//	particles:
//	  - name: sparks
//	    kind: sprite
//	    max: 500
//	    color: "#ffaa33"
//	emitters:
//	  - name: fountain
//	    particle: sparks
//	    rate: 140
//	    velocity: {type: vector, direction: [0, 10, 0]}
//	affectors:
//	  - name: fall
//	    type: gravity
//	    magnitude: 9.8
//	    direction: [0, -1, 0]
type EffectFile struct {
	Seed      *uint32          `yaml:"seed"`
	StartTime int              `yaml:"startTime"`
	Particles []EffectParticle `yaml:"particles"`
	Emitters  []EffectEmitter  `yaml:"emitters"`
	Affectors []EffectAffector `yaml:"affectors"`
	// Bursts adds static bursts to emitters by name.
	Bursts []EffectBurst `yaml:"bursts"`
}

// EffectColor decodes either a hex string or a float sequence.
type EffectColor struct {
	Color Color
	Set   bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *EffectColor) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		col, err := ColorFromHex(value.Value)
		if err != nil {
			return err
		}
		c.Color, c.Set = col, true
		return nil
	case yaml.SequenceNode:
		var f []float32
		if err := value.Decode(&f); err != nil {
			return err
		}
		switch len(f) {
		case 3:
			c.Color = Color{f[0], f[1], f[2], 1}
		case 4:
			c.Color = Color{f[0], f[1], f[2], f[3]}
		default:
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", value.Line, len(f))
		}
		c.Set = true
		return nil
	}
	return fmt.Errorf("line %d: color must be a string or a sequence", value.Line)
}

// EffectFade describes a fade window.
type EffectFade struct {
	Effect   string `yaml:"effect"`
	Duration *int   `yaml:"duration"`
}

// EffectSequence describes a sprite sequence.
type EffectSequence struct {
	Frames            int    `yaml:"frames"`
	Index             int    `yaml:"index"`
	RandomStart       bool   `yaml:"randomStart"`
	Interpolate       bool   `yaml:"interpolate"`
	Duration          int    `yaml:"duration"`
	DurationVariation int    `yaml:"durationVariation"`
	Direction         string `yaml:"direction"`
}

// EffectLine describes line trail options.
type EffectLine struct {
	Segments           int      `yaml:"segments"`
	AlphaFade          float32  `yaml:"alphaFade"`
	ScaleMultiplier    *float32 `yaml:"scaleMultiplier"`
	TexcoordMultiplier *float32 `yaml:"texcoordMultiplier"`
	TexcoordMode       string   `yaml:"texcoordMode"`
	Length             float32  `yaml:"length"`
	LengthVariation    float32  `yaml:"lengthVariation"`
	LengthDeltaMin     *float32 `yaml:"lengthDeltaMin"`
	EOLFadeOut         int      `yaml:"eolFadeOut"`
}

// EffectModelBlend describes model-blend options.
type EffectModelBlend struct {
	Mode           string    `yaml:"mode"`
	EmitMode       string    `yaml:"emitMode"`
	EndTime        int       `yaml:"endTime"`
	Position       []float32 `yaml:"position"`
	EndPosition    []float32 `yaml:"endPosition"`
	EndRotation    []float32 `yaml:"endRotation"`
	Activation     []float32 `yaml:"activation"`
	ActivationAxis []float32 `yaml:"activationAxis"`
}

// EffectParticle describes a particle kind.
type EffectParticle struct {
	Name                  string            `yaml:"name"`
	Kind                  string            `yaml:"kind"`
	Max                   int               `yaml:"max"`
	Color                 EffectColor       `yaml:"color"`
	ColorVariation        []float32         `yaml:"colorVariation"`
	UnifiedColorVariation bool              `yaml:"unifiedColorVariation"`
	FadeIn                *EffectFade       `yaml:"fadeIn"`
	FadeOut               *EffectFade       `yaml:"fadeOut"`
	FadeEase              string            `yaml:"fadeEase"`
	Align                 string            `yaml:"align"`
	AlignTarget           []float32         `yaml:"alignTarget"`
	Sort                  string            `yaml:"sort"`
	Blend                 string            `yaml:"blend"`
	Sequence              *EffectSequence   `yaml:"sequence"`
	Line                  *EffectLine       `yaml:"line"`
	Mesh                  string            `yaml:"mesh"`
	ModelBlend            *EffectModelBlend `yaml:"modelBlend"`
}

// EffectDirection describes a velocity direction.
type EffectDirection struct {
	Type               string    `yaml:"type"`
	Direction          []float32 `yaml:"direction"`
	Variation          []float32 `yaml:"variation"`
	Position           []float32 `yaml:"position"`
	PositionVariation  []float32 `yaml:"positionVariation"`
	Magnitude          *float32  `yaml:"magnitude"`
	MagnitudeVariation float32   `yaml:"magnitudeVariation"`
	Relative           bool      `yaml:"relative"`
	Normalized         *bool     `yaml:"normalized"`
}

// EffectShape describes an emission or attraction shape.
type EffectShape struct {
	Type      string    `yaml:"type"`
	Extents   []float32 `yaml:"extents"`
	Scale     []float32 `yaml:"scale"`
	Fill      bool      `yaml:"fill"`
	Mesh      string    `yaml:"mesh"`
	File      string    `yaml:"file"`
	Randomize bool      `yaml:"randomize"`
}

// EffectBurst is a static burst. Emitter is only read from top-level bursts.
type EffectBurst struct {
	Emitter  string `yaml:"emitter"`
	Time     int    `yaml:"time"`
	Amount   int    `yaml:"amount"`
	Duration int    `yaml:"duration"`
}

// EffectDynamicBurst is a triggered burst.
type EffectDynamicBurst struct {
	Time            int      `yaml:"time"`
	Amount          int      `yaml:"amount"`
	AmountVariation int      `yaml:"amountVariation"`
	Duration        int      `yaml:"duration"`
	Triggers        []string `yaml:"triggers"`
	Disabled        bool     `yaml:"disabled"`
}

// EffectEmitter describes an emitter.
type EffectEmitter struct {
	Name     string    `yaml:"name"`
	Particle string    `yaml:"particle"`
	Follow   string    `yaml:"follow"`
	Disabled bool      `yaml:"disabled"`
	Position []float32 `yaml:"position"`
	Rotation []float32 `yaml:"rotation"`

	Rate              float32  `yaml:"rate"`
	LifeSpan          *int     `yaml:"lifeSpan"`
	LifeSpanVariation int      `yaml:"lifeSpanVariation"`
	Scale             *float32 `yaml:"scale"`
	EndScale          *float32 `yaml:"endScale"`
	ScaleVariation    float32  `yaml:"scaleVariation"`
	EndScaleVariation *float32 `yaml:"endScaleVariation"`

	ParticleRotation                  []float32 `yaml:"particleRotation"`
	ParticleRotationVariation         []float32 `yaml:"particleRotationVariation"`
	ParticleRotationVelocity          []float32 `yaml:"particleRotationVelocity"`
	ParticleRotationVelocityVariation []float32 `yaml:"particleRotationVelocityVariation"`

	Velocity      *EffectDirection     `yaml:"velocity"`
	Shape         *EffectShape         `yaml:"shape"`
	Bursts        []EffectBurst        `yaml:"bursts"`
	DynamicBursts []EffectDynamicBurst `yaml:"dynamicBursts"`
}

// EffectAffector describes an affector. Fields apply per type.
type EffectAffector struct {
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"`
	Disabled  bool      `yaml:"disabled"`
	Particles []string  `yaml:"particles"`
	Position  []float32 `yaml:"position"`
	Rotation  []float32 `yaml:"rotation"`

	Magnitude float32   `yaml:"magnitude"`
	Direction []float32 `yaml:"direction"`

	PositionVariation  []float32    `yaml:"positionVariation"`
	Shape              *EffectShape `yaml:"shape"`
	UseCachedPositions bool         `yaml:"useCachedPositions"`
	PositionsAmount    int          `yaml:"positionsAmount"`
	Duration           *int         `yaml:"duration"`
	DurationVariation  int          `yaml:"durationVariation"`
	HideAtEnd          bool         `yaml:"hideAtEnd"`

	GlobalAmount          []float32 `yaml:"globalAmount"`
	GlobalPace            []float32 `yaml:"globalPace"`
	GlobalPaceStart       []float32 `yaml:"globalPaceStart"`
	UniqueAmount          []float32 `yaml:"uniqueAmount"`
	UniquePace            []float32 `yaml:"uniquePace"`
	UniqueAmountVariation float32   `yaml:"uniqueAmountVariation"`
	UniquePaceVariation   float32   `yaml:"uniquePaceVariation"`
	FadeInDuration        int       `yaml:"fadeInDuration"`
	FadeOutDuration       int       `yaml:"fadeOutDuration"`
	FadeEase              string    `yaml:"fadeEase"`

	Pivot []float32 `yaml:"pivot"`

	Amount    []float32 `yaml:"amount"`
	Frequency float32   `yaml:"frequency"`
	Speed     *float32  `yaml:"speed"`
	Octaves   int       `yaml:"octaves"`
}

// LoadEffect reads a YAML effect file and builds a System. Mesh names are
// resolved through loader first and then against the built-in "box",
// "sphere" and "grid" meshes. Shape files are resolved relative to the
// effect file.
func LoadEffect(path string, cfg Config, loader MeshLoader) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effect file: %w", err)
	}
	b := effectBuilder{cfg: cfg, loader: loader, dir: filepath.Dir(path)}
	return b.build(data)
}

// ParseEffect builds a System from YAML data. Relative shape file paths are
// resolved against the working directory.
func ParseEffect(data []byte, cfg Config, loader MeshLoader) (*System, error) {
	b := effectBuilder{cfg: cfg, loader: loader}
	return b.build(data)
}

type effectBuilder struct {
	cfg    Config
	loader MeshLoader
	dir    string
	sys    *System
}

func (b *effectBuilder) build(data []byte) (*System, error) {
	var f EffectFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse effect YAML: %w", err)
	}
	if len(f.Particles) == 0 {
		return nil, fmt.Errorf("%w: no particles", ErrBadEffect)
	}
	b.sys = NewSystem(b.cfg)
	s := b.sys
	if f.Seed != nil {
		s.SetSeed(*f.Seed)
		s.SetUseRandomSeed(false)
	}
	s.SetStartTime(f.StartTime)

	for i := range f.Particles {
		p, err := b.particle(&f.Particles[i])
		if err != nil {
			return nil, fmt.Errorf("particle %q: %w", f.Particles[i].Name, err)
		}
		s.AddParticle(p)
	}
	for i := range f.Emitters {
		if err := b.emitter(&f.Emitters[i]); err != nil {
			return nil, fmt.Errorf("emitter %q: %w", f.Emitters[i].Name, err)
		}
	}
	for i := range f.Affectors {
		if err := b.affector(&f.Affectors[i]); err != nil {
			return nil, fmt.Errorf("affector %q: %w", f.Affectors[i].Name, err)
		}
	}
	for _, bu := range f.Bursts {
		e := s.EmitterByName(bu.Emitter)
		if e == nil {
			warnf("effect burst references unknown emitter %q", bu.Emitter)
			continue
		}
		e.AddEmitBurst(EmitBurst{Time: bu.Time, Amount: bu.Amount, Duration: bu.Duration})
	}
	return s, nil
}

func effectVec3(v []float32, def mgl32.Vec3) (mgl32.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return mgl32.Vec3{v[0], v[1], v[2]}, nil
	}
	return def, fmt.Errorf("%w: vector needs 3 components, got %d", ErrBadEffect, len(v))
}

// vecField is one optional vector to decode into dst.
type vecField struct {
	src []float32
	dst *mgl32.Vec3
	def mgl32.Vec3
}

func decodeVecs(fields ...vecField) error {
	for _, f := range fields {
		v, err := effectVec3(f.src, f.def)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

var easeFuncs = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"inExpo":     ease.InExpo,
	"outExpo":    ease.OutExpo,
	"outBounce":  ease.OutBounce,
}

func effectEase(name string) (ease.TweenFunc, error) {
	if name == "" {
		return nil, nil
	}
	fn, ok := easeFuncs[name]
	if !ok {
		return nil, fmt.Errorf("ease %q: %w", name, ErrUnknownKind)
	}
	return fn, nil
}

// lookup maps a name to an enum value, or errors with ErrUnknownKind.
func lookup[T any](what, name string, def T, table map[string]T) (T, error) {
	if name == "" {
		return def, nil
	}
	v, ok := table[name]
	if !ok {
		return def, fmt.Errorf("%s %q: %w", what, name, ErrUnknownKind)
	}
	return v, nil
}

var particleKinds = map[string]ParticleType{
	"sprite": ParticleSprite, "line": ParticleLine, "model": ParticleModel, "modelblend": ParticleModelBlend,
}

var fadeTypes = map[string]FadeType{"none": FadeNone, "opacity": FadeOpacity, "scale": FadeScale}

var alignModes = map[string]AlignMode{
	"none": AlignNone, "target": AlignTowardsTarget, "velocity": AlignTowardsStartVelocity,
}

var sortModes = map[string]SortMode{"none": SortNone, "oldest": SortOldest, "newest": SortNewest}

var blendModes = map[string]BlendMode{
	"normal": BlendNormal, "add": BlendAdd, "multiply": BlendMultiply, "screen": BlendScreen,
}

var animDirections = map[string]AnimationDirection{
	"normal": AnimNormal, "reverse": AnimReverse, "alternate": AnimAlternate,
	"alternateReverse": AnimAlternateReverse, "single": AnimSingleFrame,
}

var texcoordModes = map[string]TexcoordMode{
	"absolute": TexcoordAbsolute, "relative": TexcoordRelative, "fill": TexcoordFill,
}

var blendModeNames = map[string]ModelBlendMode{
	"explode": BlendExplode, "construct": BlendConstruct, "transfer": BlendTransfer,
}

var emitModes = map[string]EmitMode{
	"sequential": EmitSequential, "random": EmitRandom, "activation": EmitActivation,
}

var shapeTypes = map[string]ShapeType{
	"box": ShapeBox, "sphere": ShapeSphere, "cylinder": ShapeCylinder, "mesh": ShapeMesh, "points": ShapePointFile,
}

var directionTypes = map[string]DirectionType{"vector": DirectionVector, "target": DirectionTarget}

var affectorTypes = map[string]AffectorType{
	"gravity": AffectorGravity, "attractor": AffectorAttractor, "wander": AffectorWander,
	"pointrotator": AffectorPointRotator, "noise": AffectorNoise,
}

var triggerNames = map[string]BurstTrigger{
	"time": TriggerTime, "trailStart": TriggerTrailStart, "trailEnd": TriggerTrailEnd,
}

func (b *effectBuilder) mesh(name string) (*Mesh, error) {
	if b.loader != nil {
		m, err := b.loader.LoadMesh(name)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrMeshNotFound) {
			return nil, err
		}
	}
	switch name {
	case "box":
		return NewBoxMesh(mgl32.Vec3{0.5, 0.5, 0.5}), nil
	case "sphere":
		return NewSphereMesh(0.5, 8, 12), nil
	case "grid":
		return NewGridMesh(1, 1, 4, 4), nil
	}
	return nil, fmt.Errorf("mesh %q: %w", name, ErrMeshNotFound)
}

func (b *effectBuilder) particle(ep *EffectParticle) (*Particle, error) {
	kind, err := lookup("kind", ep.Kind, ParticleSprite, particleKinds)
	if err != nil {
		return nil, err
	}
	if kind != ParticleModelBlend && ep.Max <= 0 {
		return nil, fmt.Errorf("%w: max must be > 0", ErrBadEffect)
	}
	var p *Particle
	switch kind {
	case ParticleSprite:
		p = NewSpriteParticle(ep.Name, ep.Max)
	case ParticleLine:
		segments := 0
		if ep.Line != nil {
			segments = ep.Line.Segments
		}
		p = NewLineParticle(ep.Name, ep.Max, segments)
	case ParticleModel:
		p = NewModelParticle(ep.Name, ep.Max)
	case ParticleModelBlend:
		if ep.Mesh == "" {
			return nil, fmt.Errorf("%w: modelblend needs a mesh", ErrBadEffect)
		}
		m, err := b.mesh(ep.Mesh)
		if err != nil {
			return nil, err
		}
		p = NewModelBlendParticle(ep.Name, m)
	}

	if ep.Color.Set {
		p.Color = ep.Color.Color
	}
	switch len(ep.ColorVariation) {
	case 0:
	case 4:
		p.ColorVariation = mgl32.Vec4{ep.ColorVariation[0], ep.ColorVariation[1], ep.ColorVariation[2], ep.ColorVariation[3]}
	default:
		return nil, fmt.Errorf("%w: colorVariation needs 4 components", ErrBadEffect)
	}
	p.UnifiedColorVariation = ep.UnifiedColorVariation

	for _, fd := range []struct {
		src    *EffectFade
		effect *FadeType
		dur    *int
	}{{ep.FadeIn, &p.FadeInEffect, &p.FadeInDuration}, {ep.FadeOut, &p.FadeOutEffect, &p.FadeOutDuration}} {
		if fd.src == nil {
			continue
		}
		if *fd.effect, err = lookup("fade", fd.src.Effect, *fd.effect, fadeTypes); err != nil {
			return nil, err
		}
		if fd.src.Duration != nil {
			*fd.dur = *fd.src.Duration
		}
	}
	if p.FadeEase, err = effectEase(ep.FadeEase); err != nil {
		return nil, err
	}
	if p.AlignMode, err = lookup("align", ep.Align, AlignNone, alignModes); err != nil {
		return nil, err
	}
	if p.AlignTarget, err = effectVec3(ep.AlignTarget, mgl32.Vec3{}); err != nil {
		return nil, err
	}
	if p.SortMode, err = lookup("sort", ep.Sort, SortNone, sortModes); err != nil {
		return nil, err
	}
	if p.BlendMode, err = lookup("blend", ep.Blend, BlendNormal, blendModes); err != nil {
		return nil, err
	}

	if sq := ep.Sequence; sq != nil {
		dir, err := lookup("direction", sq.Direction, AnimNormal, animDirections)
		if err != nil {
			return nil, err
		}
		p.Sequence = &SpriteSequence{
			FrameCount: sq.Frames, FrameIndex: sq.Index, RandomStart: sq.RandomStart,
			Interpolate: sq.Interpolate, Duration: sq.Duration, DurationVariation: sq.DurationVariation,
			Direction: dir,
		}
	}

	if l := ep.Line; l != nil && kind == ParticleLine {
		o := &p.Line
		o.AlphaFade = l.AlphaFade
		o.Length, o.LengthVariation = l.Length, l.LengthVariation
		o.EOLFadeOutDuration = l.EOLFadeOut
		if l.ScaleMultiplier != nil {
			o.ScaleMultiplier = *l.ScaleMultiplier
		}
		if l.TexcoordMultiplier != nil {
			o.TexcoordMultiplier = *l.TexcoordMultiplier
		}
		if l.LengthDeltaMin != nil {
			o.LengthDeltaMin = *l.LengthDeltaMin
		}
		if o.TexcoordMode, err = lookup("texcoordMode", l.TexcoordMode, TexcoordAbsolute, texcoordModes); err != nil {
			return nil, err
		}
	}

	if mb := ep.ModelBlend; mb != nil && kind == ParticleModelBlend {
		bl := p.Blend
		if bl.Mode, err = lookup("mode", mb.Mode, BlendExplode, blendModeNames); err != nil {
			return nil, err
		}
		if bl.EmitMode, err = lookup("emitMode", mb.EmitMode, EmitSequential, emitModes); err != nil {
			return nil, err
		}
		bl.EndTime = mb.EndTime
		if len(mb.Position) > 0 {
			bl.Node = b.childNode(ep.Name + ".model")
			if err := decodeVecs(vecField{mb.Position, &bl.Node.Position, mgl32.Vec3{}}); err != nil {
				return nil, err
			}
		}
		if len(mb.EndPosition) > 0 || len(mb.EndRotation) > 0 {
			bl.EndNode = b.childNode(ep.Name + ".end")
			if err := decodeVecs(
				vecField{mb.EndPosition, &bl.EndNode.Position, mgl32.Vec3{}},
				vecField{mb.EndRotation, &bl.EndNode.Rotation, mgl32.Vec3{}},
			); err != nil {
				return nil, err
			}
		}
		if len(mb.Activation) > 0 {
			bl.ActivationNode = b.childNode(ep.Name + ".activation")
			if err := decodeVecs(
				vecField{mb.Activation, &bl.ActivationNode.Position, mgl32.Vec3{}},
				vecField{mb.ActivationAxis, &bl.ActivationAxis, mgl32.Vec3{0, 0, 1}},
			); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// childNode creates a node under the system node.
func (b *effectBuilder) childNode(name string) *Node {
	n := NewNode(name)
	b.sys.Node.AddChild(n)
	return n
}

func (b *effectBuilder) shape(es *EffectShape, parent *Node) (*Shape, error) {
	st, err := lookup("shape", es.Type, ShapeBox, shapeTypes)
	if err != nil {
		return nil, err
	}
	s := &Shape{Type: st, Fill: es.Fill, Randomize: es.Randomize, Parent: parent}
	if err := decodeVecs(
		vecField{es.Extents, &s.Extents, mgl32.Vec3{1, 1, 1}},
		vecField{es.Scale, &s.Scale, mgl32.Vec3{1, 1, 1}},
	); err != nil {
		return nil, err
	}
	switch st {
	case ShapeMesh:
		if s.Mesh, err = b.mesh(es.Mesh); err != nil {
			return nil, err
		}
	case ShapePointFile:
		path := es.File
		if !filepath.IsAbs(path) && b.dir != "" {
			path = filepath.Join(b.dir, path)
		}
		if s.Points, err = ReadShapeFile(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (b *effectBuilder) emitter(ee *EffectEmitter) error {
	s := b.sys
	p := s.ParticleByName(ee.Particle)
	if p == nil {
		return fmt.Errorf("%w: unknown particle %q", ErrBadEffect, ee.Particle)
	}
	e := NewEmitter(ee.Name, p.Handle())
	if ee.Follow != "" {
		host := s.ParticleByName(ee.Follow)
		if host == nil {
			return fmt.Errorf("%w: unknown follow particle %q", ErrBadEffect, ee.Follow)
		}
		e.Follow = host.Handle()
	}
	s.Node.AddChild(e.Node)
	if err := decodeVecs(
		vecField{ee.Position, &e.Node.Position, mgl32.Vec3{}},
		vecField{ee.Rotation, &e.Node.Rotation, mgl32.Vec3{}},
		vecField{ee.ParticleRotation, &e.ParticleRotation, mgl32.Vec3{}},
		vecField{ee.ParticleRotationVariation, &e.ParticleRotationVariation, mgl32.Vec3{}},
		vecField{ee.ParticleRotationVelocity, &e.ParticleRotationVelocity, mgl32.Vec3{}},
		vecField{ee.ParticleRotationVelocityVariation, &e.ParticleRotationVelocityVariation, mgl32.Vec3{}},
	); err != nil {
		return err
	}
	e.Node.MarkDirty()

	e.EmitRate = ee.Rate
	if ee.LifeSpan != nil {
		e.LifeSpan = *ee.LifeSpan
	}
	e.LifeSpanVariation = ee.LifeSpanVariation
	if ee.Scale != nil {
		e.ParticleScale = *ee.Scale
	}
	if ee.EndScale != nil {
		e.ParticleEndScale = *ee.EndScale
	}
	e.ParticleScaleVariation = ee.ScaleVariation
	if ee.EndScaleVariation != nil {
		e.ParticleEndScaleVariation = *ee.EndScaleVariation
	}

	if v := ee.Velocity; v != nil {
		dt, err := lookup("velocity", v.Type, DirectionVector, directionTypes)
		if err != nil {
			return err
		}
		d := &Direction{Type: dt, Magnitude: 1, MagnitudeVariation: v.MagnitudeVariation, Relative: v.Relative}
		if v.Magnitude != nil {
			d.Magnitude = *v.Magnitude
		}
		d.Normalized = dt == DirectionTarget
		if v.Normalized != nil {
			d.Normalized = *v.Normalized
		}
		if err := decodeVecs(
			vecField{v.Direction, &d.Direction, mgl32.Vec3{}},
			vecField{v.Variation, &d.DirectionVariation, mgl32.Vec3{}},
			vecField{v.Position, &d.Position, mgl32.Vec3{}},
			vecField{v.PositionVariation, &d.PositionVariation, mgl32.Vec3{}},
		); err != nil {
			return err
		}
		e.Velocity = d
	}
	if ee.Shape != nil {
		sh, err := b.shape(ee.Shape, e.Node)
		if err != nil {
			return err
		}
		e.SetShape(sh)
	}
	for _, bu := range ee.Bursts {
		e.EmitBursts = append(e.EmitBursts, EmitBurst{Time: bu.Time, Amount: bu.Amount, Duration: bu.Duration})
	}
	for _, db := range ee.DynamicBursts {
		d := DynamicBurst{
			Time: db.Time, Amount: db.Amount, AmountVariation: db.AmountVariation,
			Duration: db.Duration, Enabled: !db.Disabled,
		}
		if len(db.Triggers) == 0 {
			d.Trigger = TriggerTime
		}
		for _, t := range db.Triggers {
			tr, err := lookup("trigger", t, TriggerTime, triggerNames)
			if err != nil {
				return err
			}
			d.Trigger |= tr
		}
		e.DynamicBursts = append(e.DynamicBursts, d)
	}
	e.SetEnabled(!ee.Disabled)
	s.AddEmitter(e)
	return nil
}

func (b *effectBuilder) affector(ea *EffectAffector) error {
	s := b.sys
	if ea.Type == "" {
		return fmt.Errorf("%w: affector type is required", ErrBadEffect)
	}
	at, err := lookup("affector", ea.Type, AffectorGravity, affectorTypes)
	if err != nil {
		return err
	}
	a := newAffector(ea.Name, at)
	a.Enabled = !ea.Disabled
	s.Node.AddChild(a.Node)
	for _, name := range ea.Particles {
		p := s.ParticleByName(name)
		if p == nil {
			return fmt.Errorf("%w: unknown particle %q", ErrBadEffect, name)
		}
		a.Particles = append(a.Particles, p.Handle())
	}
	if err := decodeVecs(
		vecField{ea.Position, &a.Node.Position, mgl32.Vec3{}},
		vecField{ea.Rotation, &a.Node.Rotation, mgl32.Vec3{}},
		vecField{ea.Direction, &a.Direction, mgl32.Vec3{0, -1, 0}},
		vecField{ea.PositionVariation, &a.PositionVariation, mgl32.Vec3{}},
		vecField{ea.GlobalAmount, &a.GlobalAmount, mgl32.Vec3{}},
		vecField{ea.GlobalPace, &a.GlobalPace, mgl32.Vec3{}},
		vecField{ea.GlobalPaceStart, &a.GlobalPaceStart, mgl32.Vec3{}},
		vecField{ea.UniqueAmount, &a.UniqueAmount, mgl32.Vec3{}},
		vecField{ea.UniquePace, &a.UniquePace, mgl32.Vec3{}},
		vecField{ea.Pivot, &a.Pivot, mgl32.Vec3{}},
		vecField{ea.Amount, &a.NoiseAmount, mgl32.Vec3{}},
	); err != nil {
		return err
	}
	a.Node.MarkDirty()

	a.Magnitude = ea.Magnitude
	a.UseCachedPositions = ea.UseCachedPositions
	a.PositionsAmount = ea.PositionsAmount
	a.Duration = -1
	if ea.Duration != nil {
		a.Duration = *ea.Duration
	}
	a.DurationVariation = ea.DurationVariation
	a.HideAtEnd = ea.HideAtEnd
	a.UniqueAmountVariation = ea.UniqueAmountVariation
	a.UniquePaceVariation = ea.UniquePaceVariation
	a.FadeInDuration = ea.FadeInDuration
	a.FadeOutDuration = ea.FadeOutDuration
	if a.FadeEase, err = effectEase(ea.FadeEase); err != nil {
		return err
	}
	a.NoiseFrequency = ea.Frequency
	a.NoiseSpeed = 1
	if ea.Speed != nil {
		a.NoiseSpeed = *ea.Speed
	}
	a.NoiseOctaves = ea.Octaves
	if ea.Shape != nil {
		sh, err := b.shape(ea.Shape, a.Node)
		if err != nil {
			return err
		}
		a.SetShape(sh)
	}
	s.AddAffector(a)
	return nil
}
