package emu

// ReplayFullFrame recaptures a whole frame from the current memory and
// switch state. The replay crosses the frame start, so the recaptured
// frame is published to the reader before it returns.
func (t *BeamTracker) ReplayFullFrame() {
	t.state = BeamVBlankNonBorder
	t.replayFrom(frameStartScanline+2, t.timing.Scanlines)
	t.replayFrom(0, frameStartScanline+2)
}

func (t *BeamTracker) replayFrom(from, to int) {
	cycles := t.timing.CyclesPerLine()
	for y := from; y < to; y++ {
		for x := 0; x < cycles; x++ {
			t.OnBeamAt(x, y)
		}
	}
}

// ReplayUntil replays every position from the line after a full-frame
// replay ends up to, but not including, (x, y), so capture can resume
// at the clock's position.
func (t *BeamTracker) ReplayUntil(x, y int) {
	start := frameStartScanline + 2
	if y >= frameStartScanline && y < start {
		return
	}
	cycles := t.timing.CyclesPerLine()
	total := t.timing.Scanlines
	if x < 0 || x >= cycles || y < 0 || y >= total {
		return
	}
	cx, cy := 0, start
	for n := total * cycles; n > 0 && (cx != x || cy != y); n-- {
		t.OnBeamAt(cx, cy)
		cx++
		if cx == cycles {
			cx = 0
			cy++
			if cy == total {
				cy = 0
			}
		}
	}
}
