package emu

// BeamState classifies the beam position within the raster.
type BeamState uint8

const (
	BeamUnknown BeamState = iota
	BeamHBlankNonBorder
	BeamVBlankNonBorder
	BeamBorderLeft
	BeamBorderRight
	BeamBorderTop
	BeamBorderBottom
	BeamContent
)

var beamStateNames = [...]string{
	BeamUnknown:         "Unknown",
	BeamHBlankNonBorder: "HBlankNonBorder",
	BeamVBlankNonBorder: "VBlankNonBorder",
	BeamBorderLeft:      "BorderLeft",
	BeamBorderRight:     "BorderRight",
	BeamBorderTop:       "BorderTop",
	BeamBorderBottom:    "BorderBottom",
	BeamContent:         "Content",
}

func (s BeamState) String() string {
	if int(s) < len(beamStateNames) {
		return beamStateNames[s]
	}
	return "Invalid"
}

// frameStartScanline is the vertical blank line at which a new frame
// begins. It lies below the tallest bottom border (192+24) and above the
// tallest top border of the shorter standard (262-24).
const frameStartScanline = 220

// mixedTextLine is the first scanline shown as text in mixed mode.
const mixedTextLine = 160

// Format is one of the two capture layouts.
type Format uint8

const (
	FormatNone Format = iota
	FormatLegacy
	FormatSecond
)

func (f Format) opposite() Format {
	switch f {
	case FormatLegacy:
		return FormatSecond
	case FormatSecond:
		return FormatLegacy
	}
	return FormatNone
}

func (f Format) tag() ModeTag {
	switch f {
	case FormatLegacy:
		return TagLegacy
	case FormatSecond:
		return TagSecond
	}
	return TagNone
}

// BeamTracker follows the beam one bus cycle at a time and captures the
// video bytes that matter at each position into the write buffer.
//
// OnBeamAt must be called in raster order from a single goroutine.
type BeamTracker struct {
	mem  Memory
	sw   VideoState
	pair *BufferPair

	state   BeamState
	timing  RegionTiming // in effect for the current frame
	pending RegionTiming // takes effect at the next frame flip

	// Merge tracking, reset every frame.
	lastFormat    Format
	lastChangeRow int

	// invertFormat flips the tracker's view of the format selector while
	// reconciliation replays the frame under the other format.
	invertFormat bool
	reconciling  bool
}

// NewBeamTracker creates a tracker capturing from mem and sw into pair.
func NewBeamTracker(mem Memory, sw VideoState, pair *BufferPair, timing RegionTiming) *BeamTracker {
	return &BeamTracker{
		mem:           mem,
		sw:            sw,
		pair:          pair,
		timing:        timing,
		pending:       timing,
		lastChangeRow: -1,
	}
}

// State returns the current beam state.
func (t *BeamTracker) State() BeamState {
	return t.state
}

// SetState forces the beam state. Used by replays and save states.
func (t *BeamTracker) SetState(s BeamState) {
	t.state = s
}

// SetTiming schedules new region timing. It takes effect at the next
// frame flip so a frame is never captured with mixed constants.
func (t *BeamTracker) SetTiming(timing RegionTiming) {
	t.pending = timing
}

// Timing returns the timing in effect for the current frame.
func (t *BeamTracker) Timing() RegionTiming {
	return t.timing
}

// OnBeamAt advances the state machine to (x, y) and captures the bytes for
// that position. x is the cycle within the line, with horizontal blank
// first; y is the scanline.
func (t *BeamTracker) OnBeamAt(x, y int) {
	if t.beamAt(x, y) {
		t.reconcile(x, y)
		t.beamAt(x, y)
	}
}

// beamAt performs one step. It returns true, without capturing, when the
// position needs both formats reconciled first.
func (t *BeamTracker) beamAt(x, y int) bool {
	if x < 0 || y < 0 || x >= t.timing.CyclesPerLine() || y >= t.timing.Scanlines {
		return false
	}
	for t.transition(x, y) {
	}
	if t.state == BeamUnknown {
		return false
	}
	bx, by, ok := t.bufferPosition(x, y)
	if !ok {
		return false
	}
	buf := t.pair.Write()
	if bx == 0 {
		buf.Second[by*t.pair.geometry.SecondStride()] = secondRowMarker
	}
	if t.state != BeamContent {
		t.captureBorder(buf, bx, by)
		return false
	}
	return t.captureContent(buf, x, y, bx, by)
}

// transition applies at most one state change and reports whether it did.
func (t *BeamTracker) transition(x, y int) bool {
	g := t.pair.geometry
	switch t.state {
	case BeamUnknown:
		if y == frameStartScanline && x == 0 {
			t.state = BeamVBlankNonBorder
			return true
		}
	case BeamVBlankNonBorder:
		switch {
		case y == t.timing.Scanlines-g.BorderRows:
			t.state = BeamBorderTop
			return true
		case y == 0 && g.BorderRows == 0:
			t.state = BeamBorderRight
			return true
		case y == frameStartScanline && x == 0:
			t.flip()
			t.state = BeamBorderTop
			return true
		}
	case BeamHBlankNonBorder:
		if x == BlankingCycles-g.BorderColumns {
			t.state = BeamBorderLeft
			return true
		}
	case BeamBorderLeft:
		if x == BlankingCycles {
			t.state = BeamContent
			return true
		}
	case BeamBorderRight:
		if x == g.BorderColumns {
			t.state = BeamHBlankNonBorder
			return true
		}
	case BeamBorderTop:
		if y == 0 {
			t.state = BeamBorderRight
			return true
		}
	case BeamBorderBottom:
		if y == ContentScanlines+g.BorderRows {
			t.state = BeamVBlankNonBorder
			return true
		}
	case BeamContent:
		if x == 0 {
			if y == ContentScanlines {
				t.state = BeamBorderBottom
			} else {
				t.state = BeamBorderRight
			}
			return true
		}
	}
	return false
}

// flip publishes the finished frame and resets per-frame state.
func (t *BeamTracker) flip() {
	t.pair.Flip()
	t.timing = t.pending
	t.lastFormat = FormatNone
	t.lastChangeRow = -1
}

// bufferPosition translates a beam position into capture buffer
// coordinates. Cycles before the right border width belong to the right
// border of the previous line. Positions in non-border blanking report
// false.
func (t *BeamTracker) bufferPosition(x, y int) (bx, by int, ok bool) {
	g := t.pair.geometry
	left := BlankingCycles - g.BorderColumns
	switch {
	case x >= left:
		bx = x - left
	case x < g.BorderColumns:
		bx = g.BorderColumns + ContentCycles + x
		y--
		if y < 0 {
			y = t.timing.Scanlines - 1
		}
	default:
		return 0, 0, false
	}
	by, ok = t.bufferRow(y)
	return bx, by, ok
}

// bufferRow maps a scanline to a capture row. Top border lines sit at the
// end of the previous frame's vertical blank.
func (t *BeamTracker) bufferRow(y int) (int, bool) {
	br := t.pair.geometry.BorderRows
	switch {
	case y < ContentScanlines+br:
		return y + br, true
	case y >= t.timing.Scanlines-br:
		return y - (t.timing.Scanlines - br), true
	}
	return 0, false
}

// activeFormat returns the format the tracker currently captures.
func (t *BeamTracker) activeFormat() Format {
	if t.sw.SecondFormat() != t.invertFormat {
		return FormatSecond
	}
	return FormatLegacy
}
