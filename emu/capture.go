package emu

import "sync/atomic"

// ModeTag records which capture format a frame used.
type ModeTag uint8

const (
	TagNone ModeTag = iota
	TagLegacy
	TagSecond
	TagMerged
)

// String returns the display name of the tag.
func (m ModeTag) String() string {
	switch m {
	case TagNone:
		return "none"
	case TagLegacy:
		return "legacy"
	case TagSecond:
		return "second"
	case TagMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Border limits. Border rows must be a multiple of 8.
const (
	MaxBorderColumns = 10
	MaxBorderRows    = 24
)

// legacyUnitBytes is the size of one legacy capture unit:
// primary byte, secondary byte, flags, colors.
const legacyUnitBytes = 4

// Legacy flags byte layout.
const (
	flagsModeMask    = 0x07
	flagsAltCharset  = 0x08
	flagsBorderShift = 4
)

// Geometry is the configured border size. Columns are in cycle units,
// rows in scanlines.
type Geometry struct {
	BorderColumns int
	BorderRows    int
}

// Clamp limits the border to the supported range and rounds the row
// count down to a multiple of 8.
func (g Geometry) Clamp() Geometry {
	if g.BorderColumns < 0 {
		g.BorderColumns = 0
	}
	if g.BorderColumns > MaxBorderColumns {
		g.BorderColumns = MaxBorderColumns
	}
	if g.BorderRows < 0 {
		g.BorderRows = 0
	}
	if g.BorderRows > MaxBorderRows {
		g.BorderRows = MaxBorderRows
	}
	g.BorderRows &^= 7
	return g
}

// Columns returns the capture width in units.
func (g Geometry) Columns() int {
	return ContentCycles + 2*g.BorderColumns
}

// Rows returns the capture height in scanlines.
func (g Geometry) Rows() int {
	return ContentScanlines + 2*g.BorderRows
}

// LegacyStride returns the bytes per row of the legacy array.
func (g Geometry) LegacyStride() int {
	return g.Columns() * legacyUnitBytes
}

// SecondStride returns the bytes per row of the second-format array:
// control byte, palette block, border padding, pixel data, border padding.
func (g Geometry) SecondStride() int {
	return 1 + PaletteBytes + secondLineBytes + 2*g.BorderColumns*4
}

// CaptureBuffer holds one frame of captured video state.
type CaptureBuffer struct {
	frame   uint64
	Mode    ModeTag
	Legacy  []byte
	Second  []byte
	Offsets []float32
}

func newCaptureBuffer(g Geometry) CaptureBuffer {
	return CaptureBuffer{
		Legacy:  make([]byte, g.LegacyStride()*g.Rows()),
		Second:  make([]byte, g.SecondStride()*g.Rows()),
		Offsets: make([]float32, g.Rows()),
	}
}

// Frame returns the frame index assigned to the buffer.
func (b *CaptureBuffer) Frame() uint64 {
	return b.frame
}

func (b *CaptureBuffer) clear() {
	clear(b.Legacy)
	clear(b.Second)
	clear(b.Offsets)
	b.Mode = TagNone
}

// Slot names one of the two capture buffers.
type Slot int32

const (
	SlotA Slot = iota
	SlotB
)

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	return s ^ 1
}

// BufferPair is the double-buffered capture store. Exactly one slot is
// write-active; the other is read-active. Roles change only in Flip.
type BufferPair struct {
	slots     [2]CaptureBuffer
	writeSlot atomic.Int32
	geometry  Geometry
}

// NewBufferPair allocates both buffers for geometry g.
func NewBufferPair(g Geometry) *BufferPair {
	p := &BufferPair{}
	p.Reinit(g)
	return p
}

// Reinit reallocates and zeros both buffers for a new geometry. Frame
// indices keep counting so consumers never see an index repeat.
func (p *BufferPair) Reinit(g Geometry) {
	g = g.Clamp()
	p.geometry = g
	for i := range p.slots {
		frame := p.slots[i].frame
		p.slots[i] = newCaptureBuffer(g)
		p.slots[i].frame = frame
	}
}

// Geometry returns the current border geometry.
func (p *BufferPair) Geometry() Geometry {
	return p.geometry
}

// WriteSlot returns the write-active slot.
func (p *BufferPair) WriteSlot() Slot {
	return Slot(p.writeSlot.Load())
}

// Write returns the write-active buffer. Only the capture goroutine may
// mutate it; other callers must treat it as inspection-only.
func (p *BufferPair) Write() *CaptureBuffer {
	return &p.slots[p.WriteSlot()]
}

// Read returns a view of the read-active buffer.
func (p *BufferPair) Read() ReadFrame {
	return ReadFrame{buf: &p.slots[p.WriteSlot().Other()]}
}

// Flip hands the finished write buffer to the reader and prepares the
// other slot for the next frame.
func (p *BufferPair) Flip() {
	out := p.WriteSlot()
	in := out.Other()
	p.slots[in].frame = p.slots[out].frame + 1
	p.writeSlot.Store(int32(in))
	p.slots[in].clear()
}

// ReadFrame is a read-only view of the read-active buffer. The slices it
// returns must not be modified.
type ReadFrame struct {
	buf *CaptureBuffer
}

// Frame returns the frame index of the read buffer.
func (r ReadFrame) Frame() uint64 { return r.buf.frame }

// Mode returns the mode tag of the read buffer.
func (r ReadFrame) Mode() ModeTag { return r.buf.Mode }

// Legacy returns the legacy-format bytes.
func (r ReadFrame) Legacy() []byte { return r.buf.Legacy }

// Second returns the second-format bytes.
func (r ReadFrame) Second() []byte { return r.buf.Second }

// Offsets returns the per-row offset values.
func (r ReadFrame) Offsets() []float32 { return r.buf.Offsets }

// FrameSnapshot is a consumer-owned copy of a captured frame.
type FrameSnapshot struct {
	Frame    uint64
	Mode     ModeTag
	Geometry Geometry
	Legacy   []byte
	Second   []byte
	Offsets  []float32
	valid    bool
}

// Valid reports whether the snapshot holds a frame.
func (s *FrameSnapshot) Valid() bool {
	return s.valid
}

// CopyRead copies the read buffer into dst. It returns false without
// copying when dst already holds the same frame index and geometry.
func (p *BufferPair) CopyRead(dst *FrameSnapshot) bool {
	src := &p.slots[p.WriteSlot().Other()]
	if dst.valid && dst.Frame == src.frame && dst.Geometry == p.geometry {
		return false
	}
	dst.Frame = src.frame
	dst.Mode = src.Mode
	dst.Geometry = p.geometry
	dst.Legacy = append(dst.Legacy[:0], src.Legacy...)
	dst.Second = append(dst.Second[:0], src.Second...)
	dst.Offsets = append(dst.Offsets[:0], src.Offsets...)
	dst.valid = true
	return true
}
