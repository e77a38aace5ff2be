package emu

import "log"

// BeamSink receives every beam position the clock passes through.
type BeamSink interface {
	OnBeamAt(x, y int)
}

// Realignment records one resynchronization to the hardware vertical
// blank signal.
type Realignment struct {
	Cycle  int  // counter value when the mismatch was seen
	Steps  int  // cycles replayed to match the signal
	VBlank bool // signal value reported by the hardware
}

// maxRealignments bounds the realignment history.
const maxRealignments = 64

// Clock converts elapsed bus cycles into beam positions. The counter holds
// the next cycle to emit, wrapped at the frame length for the region.
type Clock struct {
	sink      BeamSink
	region    Region
	timing    RegionTiming
	cycle     int
	history   []Realignment
	listeners []func(Region)

	// Logf reports realignments. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// NewClock creates a clock for region that feeds positions to sink.
func NewClock(sink BeamSink, region Region) *Clock {
	return &Clock{
		sink:   sink,
		region: region,
		timing: GetTimingForRegion(region),
		Logf:   log.Printf,
	}
}

// Advance emits delta cycles, then resynchronizes to the hardware vertical
// blank flag. On a mismatch the clock steps forward one cycle at a time,
// emitting each position, until its own vertical blank state agrees. The
// catch-up never exceeds one frame.
func (c *Clock) Advance(delta int, vblank bool) {
	for i := 0; i < delta; i++ {
		c.step()
	}
	if vblank == c.InVBlank() {
		return
	}

	start := c.cycle
	limit := c.timing.CyclesPerFrame()
	steps := 0
	for vblank != c.InVBlank() && steps < limit {
		c.step()
		steps++
	}

	if len(c.history) == maxRealignments {
		copy(c.history, c.history[1:])
		c.history = c.history[:maxRealignments-1]
	}
	c.history = append(c.history, Realignment{Cycle: start, Steps: steps, VBlank: vblank})
	if c.Logf != nil {
		c.Logf("realignment: vblank=%v at line %d cycle %d, replayed %d cycles",
			vblank, start/c.timing.CyclesPerLine(), start%c.timing.CyclesPerLine(), steps)
	}
}

func (c *Clock) step() {
	cpl := c.timing.CyclesPerLine()
	c.sink.OnBeamAt(c.cycle%cpl, c.cycle/cpl)
	c.cycle++
	if c.cycle >= c.timing.CyclesPerFrame() {
		c.cycle = 0
	}
}

// Cycle returns the absolute cycle within the frame.
func (c *Clock) Cycle() int {
	return c.cycle
}

// SetCycle positions the counter without emitting any position.
func (c *Clock) SetCycle(cycle int) {
	total := c.timing.CyclesPerFrame()
	c.cycle = ((cycle % total) + total) % total
}

// Scanline returns the current scanline.
func (c *Clock) Scanline() int {
	return c.cycle / c.timing.CyclesPerLine()
}

// HPos returns the cycle within the current scanline.
func (c *Clock) HPos() int {
	return c.cycle % c.timing.CyclesPerLine()
}

// InHBlank reports whether the beam is in horizontal blank.
func (c *Clock) InHBlank() bool {
	return c.HPos() < c.timing.BlankingCycles
}

// InVBlank reports whether the beam is in vertical blank.
func (c *Clock) InVBlank() bool {
	return c.Scanline() >= c.timing.ContentScanlines
}

// Region returns the current display standard.
func (c *Clock) Region() Region {
	return c.region
}

// Timing returns the timing for the current display standard.
func (c *Clock) Timing() RegionTiming {
	return c.timing
}

// Realignments returns a copy of the recent realignment history.
func (c *Clock) Realignments() []Realignment {
	out := make([]Realignment, len(c.history))
	copy(out, c.history)
	return out
}

// OnRegionChange registers fn to be called after every SetRegion.
func (c *Clock) OnRegionChange(fn func(Region)) {
	c.listeners = append(c.listeners, fn)
}

// SetRegion switches the display standard. The counter restarts at the
// first content line and the realignment history is cleared.
func (c *Clock) SetRegion(region Region) {
	c.region = region
	c.timing = GetTimingForRegion(region)
	c.cycle = 0
	c.history = c.history[:0]
	for _, fn := range c.listeners {
		fn(region)
	}
}
