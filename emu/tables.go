package emu

// Legacy video memory is not laid out linearly. Both tables below map a
// content scanline (0-191) to the offset of its first byte relative to the
// page base, reproducing the interleaved row order of the hardware.

// textRowOffset maps a scanline to its text/lores row offset. Each group
// of 8 scanlines shares one 40-byte text row. Text rows are interleaved in
// three thirds: row r lives at (r%8)*0x80 + (r/8)*0x28, so consecutive rows
// are 0x80 apart and the thirds start 0x28 apart within each 128-byte
// block (the last 8 bytes of every block are unused screen holes).
var textRowOffset = func() [ContentScanlines]uint16 {
	var table [ContentScanlines]uint16
	for y := 0; y < ContentScanlines; y++ {
		row := y / 8
		table[y] = uint16((row%8)*0x80 + (row/8)*0x28)
	}
	return table
}()

// hiresRowOffset maps a scanline to its bitmap row offset. Within a text
// row the 8 scanlines are 0x400 apart, text rows follow the same 0x80 /
// 0x28 interleave as textRowOffset.
var hiresRowOffset = func() [ContentScanlines]uint16 {
	var table [ContentScanlines]uint16
	for y := 0; y < ContentScanlines; y++ {
		table[y] = uint16((y%8)*0x400 + ((y/8)%8)*0x80 + (y/64)*0x28)
	}
	return table
}()

// Page base addresses.
const (
	textPage1  = 0x0400
	textPage2  = 0x0800
	hiresPage1 = 0x2000
	hiresPage2 = 0x4000
)

// Second format memory map (secondary bank).
const (
	secondPixelBase   = 0x2000 // 160 bytes per line
	secondControlBase = 0x9D00 // one control byte per line
	secondPaletteBase = 0x9E00 // 16 palettes of PaletteBytes
	secondLineBytes   = ContentCycles * 4
)

// legacyAddress returns the address of column col of scanline y for mode m.
func legacyAddress(m LegacyMode, page2 bool, y, col int) uint16 {
	if m.IsHires() {
		base := uint16(hiresPage1)
		if page2 {
			base = hiresPage2
		}
		return base + hiresRowOffset[y] + uint16(col)
	}
	base := uint16(textPage1)
	if page2 {
		base = textPage2
	}
	return base + textRowOffset[y] + uint16(col)
}
