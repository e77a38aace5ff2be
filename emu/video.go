package emu

import (
	"strconv"

	emucore "github.com/user-none/eblitui/api"
)

// Compile-time interface checks.
var _ emucore.SaveStater = (*Video)(nil)
var _ emucore.MemoryInspector = (*Video)(nil)
var _ emucore.MemoryMapper = (*Video)(nil)

const (
	Name    = "emgs"
	Version = "0.1.0"
)

// Config is the user-facing capture configuration.
type Config struct {
	Region        Region
	BorderColumns int
	BorderRows    int
}

// DefaultConfig returns NTSC with no border.
func DefaultConfig() Config {
	return Config{Region: DefaultRegion()}
}

// Video ties the clock, beam tracker and capture buffers together.
// All methods except the read-side accessors must be called from the
// goroutine that drives capture.
type Video struct {
	pair    *BufferPair
	tracker *BeamTracker
	clock   *Clock
}

// NewVideo creates a capture engine reading from mem and sw.
func NewVideo(mem Memory, sw VideoState, cfg Config) *Video {
	g := Geometry{BorderColumns: cfg.BorderColumns, BorderRows: cfg.BorderRows}.Clamp()
	pair := NewBufferPair(g)
	tracker := NewBeamTracker(mem, sw, pair, GetTimingForRegion(cfg.Region))
	clock := NewClock(tracker, cfg.Region)
	clock.OnRegionChange(func(r Region) {
		tracker.SetTiming(GetTimingForRegion(r))
	})
	return &Video{
		pair:    pair,
		tracker: tracker,
		clock:   clock,
	}
}

// Clock returns the clock driving capture.
func (v *Video) Clock() *Clock {
	return v.clock
}

// Tracker returns the beam tracker.
func (v *Video) Tracker() *BeamTracker {
	return v.tracker
}

// Advance runs delta bus cycles of capture and resynchronizes to the
// hardware vertical blank flag.
func (v *Video) Advance(delta int, vblank bool) {
	v.clock.Advance(delta, vblank)
}

// RunFrame advances one full frame with a vertical blank signal that
// agrees with the clock.
func (v *Video) RunFrame() {
	timing := v.clock.Timing()
	cpl := timing.CyclesPerLine()
	for i := 0; i < timing.Scanlines; i++ {
		next := (v.clock.Scanline() + 1) % timing.Scanlines
		v.clock.Advance(cpl, next >= timing.ContentScanlines)
	}
}

// Refresh recaptures the whole frame and publishes it, then catches the
// write buffer up to the clock position.
func (v *Video) Refresh() {
	v.tracker.ReplayFullFrame()
	v.tracker.ReplayUntil(v.clock.HPos(), v.clock.Scanline())
}

// Geometry returns the border geometry.
func (v *Video) Geometry() Geometry {
	return v.pair.Geometry()
}

// SetBorder changes the border size. Values are clamped; rows are rounded
// down to a multiple of 8. Both buffers are reallocated and refilled.
func (v *Video) SetBorder(columns, rows int) {
	g := Geometry{BorderColumns: columns, BorderRows: rows}.Clamp()
	if g == v.pair.Geometry() {
		return
	}
	v.pair.Reinit(g)
	v.Refresh()
}

// GetRegion returns the display standard.
func (v *Video) GetRegion() Region {
	return v.clock.Region()
}

// SetRegion changes the display standard.
func (v *Video) SetRegion(region Region) {
	v.clock.SetRegion(region)
}

// GetTiming returns FPS and scanline count for the current region.
func (v *Video) GetTiming() emucore.Timing {
	t := v.clock.Timing()
	return emucore.Timing{
		FPS:       t.FPS,
		Scanlines: t.Scanlines,
	}
}

// SetOption applies a configuration change identified by key. Unknown
// keys and unparsable values are ignored.
func (v *Video) SetOption(key string, value string) {
	switch key {
	case "border_columns":
		if n, err := strconv.Atoi(value); err == nil {
			v.SetBorder(n, v.Geometry().BorderRows)
		}
	case "border_rows":
		if n, err := strconv.Atoi(value); err == nil {
			v.SetBorder(v.Geometry().BorderColumns, n)
		}
	case "region":
		if r, err := ParseRegion(value); err == nil {
			v.SetRegion(r)
		}
	}
}

// Read returns the read-active frame.
func (v *Video) Read() ReadFrame {
	return v.pair.Read()
}

// WriteBuffer returns the write-active buffer for inspection.
func (v *Video) WriteBuffer() *CaptureBuffer {
	return v.pair.Write()
}

// CopyFrame copies the read-active frame into dst unless dst already
// holds it. It returns whether a copy was made.
func (v *Video) CopyFrame(dst *FrameSnapshot) bool {
	return v.pair.CopyRead(dst)
}
