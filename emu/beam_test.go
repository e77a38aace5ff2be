package emu

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// makeTestTracker creates an NTSC tracker with fresh memory and switches.
func makeTestTracker(g Geometry) (*BeamTracker, *RAM, *Switches) {
	ram := NewRAM()
	sw := NewSwitches()
	pair := NewBufferPair(g)
	return NewBeamTracker(ram, sw, pair, NTSCTiming), ram, sw
}

// sweepLines steps every position of n scanlines starting at line from,
// wrapping at the end of the frame. perLine, when set, runs before each line.
func sweepLines(tr *BeamTracker, from, n int, perLine func(y int)) {
	cpl := tr.Timing().CyclesPerLine()
	y := from
	for i := 0; i < n; i++ {
		if perLine != nil {
			perLine(y)
		}
		for x := 0; x < cpl; x++ {
			tr.OnBeamAt(x, y)
		}
		y = (y + 1) % tr.Timing().Scanlines
	}
}

// captureFrame sweeps one frame from the frame start, stopping just
// before the next frame start so the frame is still in the write buffer.
func captureFrame(tr *BeamTracker, perLine func(y int)) {
	sweepLines(tr, frameStartScanline, tr.Timing().Scanlines, perLine)
}

// publishFrame captures one frame and crosses the next frame start so
// the frame becomes the read buffer.
func publishFrame(tr *BeamTracker, perLine func(y int)) {
	sweepLines(tr, frameStartScanline, tr.Timing().Scanlines+1, perLine)
}

// legacyUnit returns the 4-byte legacy unit at (bx, by).
func legacyUnit(b *CaptureBuffer, g Geometry, bx, by int) []byte {
	i := (by*g.Columns() + bx) * legacyUnitBytes
	return b.Legacy[i : i+legacyUnitBytes]
}

// secondRow returns the second-format record for row by.
func secondRow(b *CaptureBuffer, g Geometry, by int) []byte {
	s := g.SecondStride()
	return b.Second[by*s : (by+1)*s]
}

func TestBeamState_String(t *testing.T) {
	if got := BeamContent.String(); got != "Content" {
		t.Errorf("expected Content, got %s", got)
	}
	if got := BeamState(200).String(); got != "Invalid" {
		t.Errorf("expected Invalid, got %s", got)
	}
}

func TestBeam_StartsUnknownUntilFrameStart(t *testing.T) {
	tr, _, _ := makeTestTracker(Geometry{})
	sweepLines(tr, 0, frameStartScanline, nil)
	if tr.State() != BeamUnknown {
		t.Fatalf("expected Unknown before frame start, got %v", tr.State())
	}
	if tr.pair.Write().Frame() != 0 {
		t.Errorf("expected no flip before frame start, got frame %d", tr.pair.Write().Frame())
	}

	tr.OnBeamAt(0, frameStartScanline)
	if tr.State() != BeamBorderTop {
		t.Errorf("expected BorderTop after frame start, got %v", tr.State())
	}
	if tr.pair.Write().Frame() != 1 {
		t.Errorf("expected frame 1 after frame start, got %d", tr.pair.Write().Frame())
	}
}

func TestBeam_LineTransitions(t *testing.T) {
	g := Geometry{BorderColumns: 4, BorderRows: 8}
	tr, _, _ := makeTestTracker(g)
	tr.SetState(BeamContent)

	want := map[int]BeamState{
		0:  BeamBorderRight,
		3:  BeamBorderRight,
		4:  BeamHBlankNonBorder,
		20: BeamHBlankNonBorder,
		21: BeamBorderLeft,
		24: BeamBorderLeft,
		25: BeamContent,
		64: BeamContent,
	}
	for x := 0; x < 65; x++ {
		tr.OnBeamAt(x, 10)
		if s, ok := want[x]; ok && tr.State() != s {
			t.Errorf("x=%d: expected %v, got %v", x, s, tr.State())
		}
	}
}

func TestBeam_ZeroBorderCrossesSeveralStatesInOneCall(t *testing.T) {
	tr, _, _ := makeTestTracker(Geometry{})
	tr.SetState(BeamContent)

	// Content -> BorderRight -> HBlankNonBorder in a single call.
	tr.OnBeamAt(0, 10)
	if tr.State() != BeamHBlankNonBorder {
		t.Errorf("x=0: expected HBlankNonBorder, got %v", tr.State())
	}
	// HBlankNonBorder -> BorderLeft -> Content in a single call.
	for x := 1; x <= 25; x++ {
		tr.OnBeamAt(x, 10)
	}
	if tr.State() != BeamContent {
		t.Errorf("x=25: expected Content, got %v", tr.State())
	}
}

func TestBeam_VerticalTransitions(t *testing.T) {
	g := Geometry{BorderColumns: 2, BorderRows: 16}
	tr, _, _ := makeTestTracker(g)
	tr.SetState(BeamContent)

	sweepLines(tr, 191, 1, nil)
	tr.OnBeamAt(0, 192)
	if tr.State() != BeamBorderBottom {
		t.Fatalf("line 192: expected BorderBottom, got %v", tr.State())
	}
	sweepLines(tr, 192, 16, nil)
	tr.OnBeamAt(0, 208)
	if tr.State() != BeamVBlankNonBorder {
		t.Fatalf("line 208: expected VBlankNonBorder, got %v", tr.State())
	}
	sweepLines(tr, 208, 220-208, nil)
	tr.OnBeamAt(0, 220)
	if tr.State() != BeamBorderTop {
		t.Fatalf("line 220: expected BorderTop, got %v", tr.State())
	}
	sweepLines(tr, 220, 262-220, nil)
	tr.OnBeamAt(0, 0)
	if tr.State() != BeamBorderRight {
		t.Fatalf("line 0: expected BorderRight, got %v", tr.State())
	}
}

func TestBeam_VBlankEntersTopBorderAtBorderStart(t *testing.T) {
	g := Geometry{BorderRows: 8}
	tr, _, _ := makeTestTracker(g)
	tr.SetState(BeamVBlankNonBorder)
	tr.OnBeamAt(5, 262-8)
	if tr.State() != BeamBorderTop {
		t.Errorf("expected BorderTop at line 254, got %v", tr.State())
	}
}

func TestBeam_SelfStabilizing(t *testing.T) {
	geometries := []Geometry{{}, {BorderColumns: 4, BorderRows: 16}, {BorderColumns: 10, BorderRows: 24}}
	states := []BeamState{
		BeamUnknown, BeamHBlankNonBorder, BeamVBlankNonBorder, BeamBorderLeft,
		BeamBorderRight, BeamBorderTop, BeamBorderBottom, BeamContent,
	}
	for _, g := range geometries {
		var reference []BeamState
		for _, start := range states {
			tr, _, _ := makeTestTracker(g)
			tr.SetState(start)
			// One frame to see a frame start, then record the next frame.
			sweepLines(tr, 0, 262, nil)
			var seq []BeamState
			for y := 0; y < 262; y++ {
				for x := 0; x < 65; x++ {
					tr.OnBeamAt(x, y)
					seq = append(seq, tr.State())
				}
			}
			if reference == nil {
				reference = seq
				continue
			}
			for i := range seq {
				if seq[i] != reference[i] {
					t.Errorf("geometry %+v start %v: diverged at (%d,%d): %v vs %v",
						g, start, i%65, i/65, seq[i], reference[i])
					break
				}
			}
		}
	}
}

func TestBeam_HBlankPositionLeavesBuffersUntouched(t *testing.T) {
	g := Geometry{BorderColumns: 4}
	tr, ram, _ := makeTestTracker(g)
	ram.FillPrimary(0x400, 0x400, 0xAA)
	sweepLines(tr, frameStartScanline, 262-frameStartScanline+50, nil)
	for x := 0; x < 10; x++ {
		tr.OnBeamAt(x, 50)
	}
	if tr.State() != BeamHBlankNonBorder {
		t.Fatalf("expected HBlankNonBorder, got %v", tr.State())
	}

	before := snapshotSlots(tr.pair)
	tr.OnBeamAt(10, 50)
	after := snapshotSlots(tr.pair)
	for i := range before {
		if !bytes.Equal(before[i], after[i]) {
			t.Errorf("slot %d changed by a position inside horizontal blank", i)
		}
	}
}

func TestBeam_OutOfRangePositionIgnored(t *testing.T) {
	tr, _, _ := makeTestTracker(Geometry{})
	tr.SetState(BeamContent)
	before := snapshotSlots(tr.pair)
	tr.OnBeamAt(65, 10)
	tr.OnBeamAt(-1, 10)
	tr.OnBeamAt(30, 262)
	after := snapshotSlots(tr.pair)
	for i := range before {
		if !bytes.Equal(before[i], after[i]) {
			t.Errorf("slot %d changed by an out-of-range position", i)
		}
	}
	if tr.State() != BeamContent {
		t.Errorf("state changed to %v", tr.State())
	}
}

// snapshotSlots copies every array of both slots into flat byte slices.
func snapshotSlots(p *BufferPair) [2][]byte {
	var out [2][]byte
	for i := range p.slots {
		s := &p.slots[i]
		b := append([]byte{}, s.Legacy...)
		b = append(b, s.Second...)
		for _, f := range s.Offsets {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
		}
		b = append(b, byte(s.Mode))
		b = binary.LittleEndian.AppendUint64(b, s.frame)
		out[i] = b
	}
	return out
}

func TestBeam_LegacyTextCapture(t *testing.T) {
	g := Geometry{}
	tr, ram, sw := makeTestTracker(g)
	ram.WritePrimary(0x400, 0xC1)
	ram.WriteSecondary(0x400, 0x41)
	ram.WritePrimary(0x480+39, 0xD9) // text row 1, last column
	sw.Border = 0x6
	sw.Colors = 0xF2
	sw.Alt = true

	publishFrame(tr, nil)
	rf := tr.pair.Read()
	if rf.Mode() != TagLegacy {
		t.Fatalf("expected legacy tag, got %v", rf.Mode())
	}
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]

	unit := legacyUnit(&buf, g, 0, 0)
	want := []byte{0xC1, 0x41, 0x60 | flagsAltCharset | uint8(ModeText40), 0xF2}
	if !bytes.Equal(unit, want) {
		t.Errorf("unit (0,0): expected % X, got % X", want, unit)
	}
	// Every scanline of a text row repeats the row's bytes.
	if got := legacyUnit(&buf, g, 0, 7)[0]; got != 0xC1 {
		t.Errorf("unit (0,7): expected 0xC1, got 0x%02X", got)
	}
	if got := legacyUnit(&buf, g, 39, 8)[0]; got != 0xD9 {
		t.Errorf("unit (39,8): expected 0xD9, got 0x%02X", got)
	}
}

func TestBeam_LegacyHiresPage2(t *testing.T) {
	g := Geometry{}
	tr, ram, sw := makeTestTracker(g)
	sw.SetLegacyMode(ModeHires)
	sw.Page = true
	ram.WritePrimary(0x4400+3, 0x7F) // line 1, column 3

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	unit := legacyUnit(&buf, g, 3, 1)
	if unit[0] != 0x7F {
		t.Errorf("expected 0x7F, got 0x%02X", unit[0])
	}
	if unit[2]&flagsModeMask != uint8(ModeHires) {
		t.Errorf("expected hires mode bits, got %d", unit[2]&flagsModeMask)
	}
}

func TestBeam_Store80KeepsPage1(t *testing.T) {
	g := Geometry{}
	tr, ram, sw := makeTestTracker(g)
	sw.Page = true
	sw.Store = true
	ram.WritePrimary(0x400, 0x11)
	ram.WritePrimary(0x800, 0x22)

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	if got := legacyUnit(&buf, g, 0, 0)[0]; got != 0x11 {
		t.Errorf("expected page 1 byte 0x11, got 0x%02X", got)
	}
}

func TestBeam_MixedModeBottomRowsAreText(t *testing.T) {
	g := Geometry{}
	tr, _, sw := makeTestTracker(g)
	sw.SetLegacyMode(ModeDoubleHires)
	sw.Mix = true

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	if got := LegacyMode(legacyUnit(&buf, g, 0, 159)[2] & flagsModeMask); got != ModeDoubleHires {
		t.Errorf("line 159: expected dhires, got %v", got)
	}
	if got := LegacyMode(legacyUnit(&buf, g, 0, 160)[2] & flagsModeMask); got != ModeText80 {
		t.Errorf("line 160: expected text80, got %v", got)
	}
}

func TestBeam_BorderUnits(t *testing.T) {
	g := Geometry{BorderColumns: 4, BorderRows: 8}
	tr, ram, sw := makeTestTracker(g)
	ram.FillPrimary(0x400, 0x400, 0xEE)
	sw.Border = 0x5

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	border := []byte{0, 0, 0x50, 0}

	cases := []struct {
		name   string
		bx, by int
	}{
		{"top-left", 0, 0},
		{"top-right", g.Columns() - 1, 7},
		{"left of content", 3, 8},
		{"right of content", 4 + 40, 8},
		{"right of last content line", g.Columns() - 1, 199},
		{"bottom-left", 0, 200},
		{"bottom-right corner", g.Columns() - 1, g.Rows() - 1},
	}
	for _, c := range cases {
		if got := legacyUnit(&buf, g, c.bx, c.by); !bytes.Equal(got, border) {
			t.Errorf("%s (%d,%d): expected % X, got % X", c.name, c.bx, c.by, border, got)
		}
	}
	if got := legacyUnit(&buf, g, 4, 8)[0]; got != 0xEE {
		t.Errorf("first content unit: expected 0xEE, got 0x%02X", got)
	}
}

func TestBeam_RowMarkerOnEveryRow(t *testing.T) {
	g := Geometry{BorderColumns: 2, BorderRows: 8}
	tr, _, _ := makeTestTracker(g)
	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	for by := 0; by < g.Rows(); by++ {
		if got := secondRow(&buf, g, by)[0]; got != secondRowMarker {
			t.Fatalf("row %d: expected marker 0x%02X, got 0x%02X", by, secondRowMarker, got)
		}
	}
}

func TestBeam_SecondFormatCapture(t *testing.T) {
	g := Geometry{BorderColumns: 2}
	tr, ram, sw := makeTestTracker(g)
	sw.Super = true

	ram.WriteSecondary(0x9D00+5, 0x03) // palette 3, no fill
	for i := 0; i < PaletteBytes; i++ {
		ram.WriteSecondary(0x9E00+3*PaletteBytes+uint16(i), uint8(0x80+i))
	}
	line := uint16(0x2000 + 5*160)
	ram.WriteSecondary(line, 0x12)
	ram.WriteSecondary(line+159, 0xAB)

	publishFrame(tr, nil)
	if tr.pair.Read().Mode() != TagSecond {
		t.Fatalf("expected second tag, got %v", tr.pair.Read().Mode())
	}
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	row := secondRow(&buf, g, 5)
	if row[0] != 0x03 {
		t.Errorf("control byte: expected 0x03, got 0x%02X", row[0])
	}
	for i := 0; i < PaletteBytes; i++ {
		if row[1+i] != uint8(0x80+i) {
			t.Fatalf("palette byte %d: expected 0x%02X, got 0x%02X", i, 0x80+i, row[1+i])
		}
	}
	pix := 1 + PaletteBytes + g.BorderColumns*4
	if row[pix] != 0x12 {
		t.Errorf("first pixel byte: expected 0x12, got 0x%02X", row[pix])
	}
	if row[pix+159] != 0xAB {
		t.Errorf("last pixel byte: expected 0xAB, got 0x%02X", row[pix+159])
	}
}

func TestBeam_SecondFormatControlReservedBitCleared(t *testing.T) {
	g := Geometry{}
	tr, ram, sw := makeTestTracker(g)
	sw.Super = true
	ram.WriteSecondary(0x9D00, 0x1F)

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	if got := secondRow(&buf, g, 0)[0]; got != 0x0F {
		t.Errorf("expected control 0x0F, got 0x%02X", got)
	}
}

func TestBeam_ColorFill(t *testing.T) {
	g := Geometry{}
	tr, ram, sw := makeTestTracker(g)
	sw.Super = true
	ram.WriteSecondary(0x9D00+2, controlFill)
	line := uint16(0x2000 + 2*160)
	copy(ramSecondary(ram, line, 8), []byte{0x00, 0x00, 0x30, 0x04, 0x00, 0x50, 0x00, 0x00})

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	pix := secondRow(&buf, g, 2)[1+PaletteBytes:]

	// The first byte of the line never pulls from a previous byte.
	want := []byte{0x00, 0x00, 0x30, 0x34, 0x34, 0x54, 0x54, 0x54}
	if !bytes.Equal(pix[:8], want) {
		t.Errorf("expected % X, got % X", want, pix[:8])
	}
}

func TestBeam_ColorFillDisabledIn640Mode(t *testing.T) {
	g := Geometry{}
	tr, ram, sw := makeTestTracker(g)
	sw.Super = true
	ram.WriteSecondary(0x9D00, controlFill|control640)
	ram.WriteSecondary(0x2000, 0x12)

	publishFrame(tr, nil)
	buf := tr.pair.slots[tr.pair.WriteSlot().Other()]
	pix := secondRow(&buf, g, 0)[1+PaletteBytes:]
	if pix[1] != 0 {
		t.Errorf("expected no fill in 640 mode, got 0x%02X", pix[1])
	}
}

// ramSecondary exposes n bytes of the secondary bank for test setup.
func ramSecondary(r *RAM, addr uint16, n int) []byte {
	return r.secondary[addr : int(addr)+n]
}

func TestBeam_Deterministic(t *testing.T) {
	g := Geometry{BorderColumns: 3, BorderRows: 8}
	run := func() [2][]byte {
		tr, ram, sw := makeTestTracker(g)
		for i := 0; i < 0x8000; i++ {
			ram.WritePrimary(uint16(i), uint8(i*7))
			ram.WriteSecondary(uint16(i), uint8(i*13))
		}
		script := func(y int) {
			sw.Super = y >= 60 && y < 140
			sw.SetLegacyMode(LegacyMode(y / 40 % 6))
			sw.Border = uint8(y % 16)
		}
		publishFrame(tr, script)
		captureFrame(tr, script)
		return snapshotSlots(tr.pair)
	}
	a := run()
	b := run()
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			t.Errorf("slot %d differs between identical runs", i)
		}
	}
}
