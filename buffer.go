package ember

import (
	"encoding/binary"
	"math"
)

// Buffer strides, in float32 values per record.
const (
	// SpriteStride: position(3) size(1) rotation radians(3) age(1) color(4) frame(1) pad(3).
	SpriteStride = 16
	// LinePointStride: position(3) binormal(3) color(4) width(1) texcoord(1).
	LinePointStride = 12
	// ModelInstanceStride: position(3) quaternion xyzw(4) scale(3) color(4) age(1) pad(1).
	ModelInstanceStride = 16
	// TriangleStride: three corners(9) color(4) age(1) pad(2).
	TriangleStride = 16
)

// Buffer is a double-buffered array of fixed-stride float32 records. The
// simulation writes the back half; Commit makes it the front half that
// renderers read.
type Buffer struct {
	stride     int
	front      []float32
	back       []float32
	frontCount int
	backCount  int
	bytes      []byte
}

func newBuffer(stride int) Buffer {
	return Buffer{stride: stride}
}

// Stride returns the number of float32 values per record.
func (b *Buffer) Stride() int { return b.stride }

// Count returns the number of committed records.
func (b *Buffer) Count() int { return b.frontCount }

// Data returns the committed records. The slice is valid until the next Commit.
func (b *Buffer) Data() []float32 { return b.front[:b.frontCount*b.stride] }

// Record returns committed record i.
func (b *Buffer) Record(i int) []float32 {
	return b.front[i*b.stride : (i+1)*b.stride]
}

// begin resets the back half for count records and returns it, zeroed.
func (b *Buffer) begin(count int) []float32 {
	need := count * b.stride
	if cap(b.back) < need {
		b.back = make([]float32, need)
	} else {
		b.back = b.back[:need]
		clear(b.back)
	}
	b.backCount = count
	return b.back
}

// grow appends one zeroed record to the back half and returns it.
func (b *Buffer) grow() []float32 {
	start := len(b.back)
	for i := 0; i < b.stride; i++ {
		b.back = append(b.back, 0)
	}
	b.backCount++
	return b.back[start:]
}

// Commit swaps the halves.
func (b *Buffer) Commit() {
	b.front, b.back = b.back, b.front
	b.frontCount, b.backCount = b.backCount, 0
}

// Bytes returns the committed records as little-endian float32 bytes, the
// layout GPU vertex buffers expect.
func (b *Buffer) Bytes() []byte {
	data := b.Data()
	need := len(data) * 4
	if cap(b.bytes) < need {
		b.bytes = make([]byte, need)
	}
	b.bytes = b.bytes[:need]
	for i, v := range data {
		binary.LittleEndian.PutUint32(b.bytes[i*4:], math.Float32bits(v))
	}
	return b.bytes
}

// Sink receives each particle kind's buffer after it is committed.
type Sink interface {
	Commit(p *Particle, buf *Buffer)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(p *Particle, buf *Buffer)

// Commit calls f(p, buf).
func (f SinkFunc) Commit(p *Particle, buf *Buffer) { f(p, buf) }
