package emu

// secondRowMarker is written to the control byte of every captured row.
// Rows captured in the second format overwrite it with their own control
// byte, which always has bit 4 clear.
const secondRowMarker = 0x10

// Second format control byte bits.
const (
	controlReserved = 0x10
	controlFill     = 0x20
	control640      = 0x80
	controlPalette  = 0x0F
)

// captureBorder writes a border unit. Border units carry only the border
// color and are written to the legacy array whatever the active format.
func (t *BeamTracker) captureBorder(buf *CaptureBuffer, bx, by int) {
	i := (by*t.pair.geometry.Columns() + bx) * legacyUnitBytes
	unit := buf.Legacy[i : i+legacyUnitBytes]
	unit[0] = 0
	unit[1] = 0
	unit[2] = t.sw.BorderColor() << flagsBorderShift
	unit[3] = 0
}

// captureContent captures one content unit. It returns true without
// writing when the frame has just started mixing formats.
func (t *BeamTracker) captureContent(buf *CaptureBuffer, x, y, bx, by int) bool {
	format := t.activeFormat()
	if !t.reconciling && conflicts(buf.Mode, format) {
		return true
	}
	if buf.Mode == TagNone {
		buf.Mode = format.tag()
	}

	col := x - BlankingCycles
	if col == 0 {
		t.beginRow(buf, format, y, by)
	}
	if format == FormatSecond {
		t.captureSecond(buf, y, by, col)
	} else {
		t.captureLegacy(buf, y, bx, by, col)
	}
	return false
}

// conflicts reports whether capturing format f into a frame tagged m
// mixes the two formats for the first time.
func conflicts(m ModeTag, f Format) bool {
	return (m == TagLegacy && f == FormatSecond) || (m == TagSecond && f == FormatLegacy)
}

// beginRow runs once when the beam enters the content of a row, or at the
// trigger column of a row that switches format part way through. A row
// that ends in the legacy format keeps the row marker.
func (t *BeamTracker) beginRow(buf *CaptureBuffer, format Format, y, by int) {
	if t.lastFormat != FormatNone && format != t.lastFormat {
		t.lastChangeRow = by
	}
	t.lastFormat = format
	if buf.Mode == TagMerged {
		buf.Offsets[by] = PixelShift(format, by, t.lastChangeRow)
	}

	row := buf.Second[by*t.pair.geometry.SecondStride():]
	if format != FormatSecond {
		row[0] = secondRowMarker
		return
	}
	control := t.mem.ReadSecondary(secondControlBase + uint16(y))
	row[0] = control &^ controlReserved
	pal := secondPaletteBase + uint16(control&controlPalette)*PaletteBytes
	for i := 0; i < PaletteBytes; i++ {
		row[1+i] = t.mem.ReadSecondary(pal + uint16(i))
	}
}

// captureLegacy packs the two interleaved source bytes for the column
// with the flags and colors bytes.
func (t *BeamTracker) captureLegacy(buf *CaptureBuffer, y, bx, by, col int) {
	m := t.sw.LegacyMode()
	if t.sw.Mixed() && !m.IsText() && y >= mixedTextLine {
		if m.IsDouble() {
			m = ModeText80
		} else {
			m = ModeText40
		}
	}
	page2 := t.sw.Page2() && !t.sw.Store80()
	addr := legacyAddress(m, page2, y, col)

	flags := uint8(m)&flagsModeMask | t.sw.BorderColor()<<flagsBorderShift
	if t.sw.AltCharset() {
		flags |= flagsAltCharset
	}

	i := (by*t.pair.geometry.Columns() + bx) * legacyUnitBytes
	unit := buf.Legacy[i : i+legacyUnitBytes]
	unit[0] = t.mem.ReadPrimary(addr)
	unit[1] = t.mem.ReadSecondary(addr)
	unit[2] = flags
	unit[3] = t.sw.TextColor()
}

// captureSecond copies the four pixel bytes for the column. In fill mode
// a zero nibble takes the value of the same nibble in the previous byte;
// the first byte of a line never pulls from a previous byte.
func (t *BeamTracker) captureSecond(buf *CaptureBuffer, y, by, col int) {
	g := t.pair.geometry
	row := buf.Second[by*g.SecondStride():]
	control := row[0]
	fill := control&controlReserved == 0 && control&controlFill != 0 && control&control640 == 0

	base := 1 + PaletteBytes + g.BorderColumns*4 + col*4
	addr := secondPixelBase + uint16(y)*secondLineBytes + uint16(col)*4
	for i := 0; i < 4; i++ {
		p := t.mem.ReadSecondary(addr + uint16(i))
		if fill && (col != 0 || i != 0) {
			prev := row[base+i-1]
			if p&0xF0 == 0 {
				p |= prev & 0xF0
			}
			if p&0x0F == 0 {
				p |= prev & 0x0F
			}
		}
		row[base+i] = p
	}
}
