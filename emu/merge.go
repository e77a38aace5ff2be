package emu

import "math"

// Pixel shift curve constants. Switching between the two pixel clocks
// leaves the picture displaced for a few lines while the monitor settles.
const (
	shiftWindow       = 15     // lines after a change that use the curve
	shiftBase         = 1.1205 // per-line decay
	shiftBias         = 28     // exponent at the change line
	shiftFloor        = 4.0
	shiftDiscriminant = 10.0 // flat value outside the window
	legacyLineWidth   = 560
	secondLineWidth   = 640
)

// PixelShift returns the offset value stored for row when the most recent
// format change happened at changeRow. Within the window after a change
// the value follows the decay curve, scaled to the active format's line
// width; elsewhere it is the flat discriminator. The sign tells the
// renderer which format the row uses: negative for legacy, positive for
// the second format.
func PixelShift(format Format, row, changeRow int) float32 {
	d := row - changeRow
	if changeRow < 0 || d < 0 || d > shiftWindow {
		if format == FormatSecond {
			return shiftDiscriminant
		}
		return -shiftDiscriminant
	}
	shift := math.Pow(shiftBase, float64(changeRow-row+shiftBias)) - shiftFloor
	if format == FormatSecond {
		return float32(shift / secondLineWidth)
	}
	return float32(-shift / legacyLineWidth)
}

// reconcile recaptures the part of the frame already seen under the
// format that was active before the switch, so every row captured so far
// carries its offset value. (x, y) is the position that triggered the
// merge; the replay stops just before it. A switch after the first
// content column starts the new format's row at the trigger column, so
// the change is recorded on the trigger row.
//
// The replay drives beamAt directly in a bounded loop and never starts a
// nested reconciliation.
func (t *BeamTracker) reconcile(x, y int) {
	if t.reconciling {
		return
	}
	t.reconciling = true

	buf := t.pair.Write()
	buf.Mode = TagMerged

	row, _ := t.bufferRow(y)
	next := t.activeFormat()
	old := next.opposite()
	saved := t.state

	t.invertFormat = !t.invertFormat
	t.lastFormat, t.lastChangeRow = old, row
	t.state = BeamVBlankNonBorder
	t.replayLines(frameStartScanline+2, t.timing.Scanlines)
	t.replayLines(0, y)
	for cx := 0; cx < x; cx++ {
		t.beamAt(cx, y)
	}
	t.invertFormat = !t.invertFormat

	t.state = saved
	t.lastFormat, t.lastChangeRow = old, row
	if x > BlankingCycles {
		t.beginRow(buf, next, y, row)
	}
	t.reconciling = false
}

// replayLines steps every position of scanlines [from, to) through beamAt.
func (t *BeamTracker) replayLines(from, to int) {
	cycles := t.timing.CyclesPerLine()
	for y := from; y < to; y++ {
		for x := 0; x < cycles; x++ {
			t.beamAt(x, y)
		}
	}
}
