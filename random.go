package ember

import "math/rand/v2"

// DefaultRandomTableSize is the number of precomputed values in a Random table.
const DefaultRandomTableSize = 1 << 16

// RandTag selects an independent stream of per-particle random values.
// Distinct attributes use distinct tags so varying one does not correlate
// with another.
type RandTag int32

// Tags before RandDeterministicSeparator are always keyed by particle index.
// They are sampled every frame (shapes read by attractors, wander waves,
// sprite start frames) and must stay stable for a particle's whole life.
const (
	RandWanderXPS RandTag = iota
	RandWanderYPS
	RandWanderZPS
	RandWanderXPV
	RandWanderYPV
	RandWanderZPV
	RandWanderXAV
	RandWanderYAV
	RandWanderZAV
	RandAttractorDurationV
	RandAttractorPosVX
	RandAttractorPosVY
	RandAttractorPosVZ
	RandShape1
	RandShape2
	RandShape3
	RandShape4
	RandSpriteAnimationI
	RandLineLengthV
	RandModelBlendOrder
	RandShapeShuffle
	RandDeterministicSeparator
	RandLifeSpanV
	RandScaleV
	RandScaleEV
	RandTDirPosXV
	RandTDirPosYV
	RandTDirPosZV
	RandTDirMagV
	RandVDirXV
	RandVDirYV
	RandVDirZV
	RandSpriteAnimationV
	RandRotXV
	RandRotYV
	RandRotZV
	RandRotXVV
	RandRotYVV
	RandRotZVV
	RandColorRV
	RandColorGV
	RandColorBV
	RandColorAV
	RandBurstAmountV
)

// Random is a table-backed random source. GetFor returns the same value for
// the same (index, tag) pair until the table is reseeded.
type Random struct {
	table         []float32
	seed          uint32
	deterministic bool
	free          *rand.Rand
}

// NewRandom creates a Random with the given seed and table size.
// A size <= 0 selects DefaultRandomTableSize.
func NewRandom(seed uint32, size int) *Random {
	r := &Random{deterministic: true}
	r.Init(seed, size)
	return r
}

// Init regenerates the whole table from seed.
func (r *Random) Init(seed uint32, size int) {
	if size <= 0 {
		size = DefaultRandomTableSize
	}
	if cap(r.table) >= size {
		r.table = r.table[:size]
	} else {
		r.table = make([]float32, size)
	}
	src := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	for i := range r.table {
		r.table[i] = src.Float32()
	}
	r.seed = seed
	if r.free == nil {
		r.free = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// Seed returns the seed the table was generated from.
func (r *Random) Seed() uint32 { return r.seed }

// Size returns the table length.
func (r *Random) Size() int { return len(r.table) }

// SetDeterministic controls whether tags after RandDeterministicSeparator use
// the table (true) or the free-running stream (false).
func (r *Random) SetDeterministic(v bool) { r.deterministic = v }

// Deterministic reports the current mode.
func (r *Random) Deterministic() bool { return r.deterministic }

// Get returns a free-running value in [0, 1). Not reproducible across runs.
func (r *Random) Get() float32 {
	if r.free == nil {
		r.free = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r.free.Float32()
}

// GetFor returns the table value for (index, tag), in [0, 1).
func (r *Random) GetFor(index int32, tag RandTag) float32 {
	if !r.deterministic && tag > RandDeterministicSeparator {
		return r.Get()
	}
	if len(r.table) == 0 {
		r.Init(r.seed, DefaultRandomTableSize)
	}
	n := int64(len(r.table))
	i := (int64(index) + int64(tag)) % n
	if i < 0 {
		i += n
	}
	return r.table[i]
}

// variation returns base + v - 2*rand*v, a symmetric draw in [base-v, base+v].
func (r *Random) variation(index int32, tag RandTag, base, v float32) float32 {
	if v == 0 {
		return base
	}
	return base + v - 2*r.GetFor(index, tag)*v
}
