package emu

import (
	"fmt"
	"strings"

	emucore "github.com/user-none/eblitui/api"
)

// Region is an alias for emucore.Region so internal code compiles unchanged.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// Fixed raster geometry shared by both display standards.
const (
	ContentScanlines = 192 // visible lines of content
	ContentCycles    = 40  // content cycles per line (one capture unit each)
	BlankingCycles   = 25  // horizontal blanking cycles per line
	PaletteBytes     = 32  // 16 entries x 2 bytes
)

// RegionTiming holds the raster constants for a specific region.
// Only the total scanline count differs between the two standards.
type RegionTiming struct {
	Scanlines        int // Total scanlines per frame
	ContentScanlines int // Scanlines carrying content
	BlankingCycles   int // Horizontal blanking cycles per line
	ContentCycles    int // Content cycles per line
	FPS              int // Frames per second
}

// NTSC timing: 65 cycles x 262 scanlines, 60 Hz
var NTSCTiming = RegionTiming{
	Scanlines:        262,
	ContentScanlines: ContentScanlines,
	BlankingCycles:   BlankingCycles,
	ContentCycles:    ContentCycles,
	FPS:              60,
}

// PAL timing: 65 cycles x 312 scanlines, 50 Hz
var PALTiming = RegionTiming{
	Scanlines:        312,
	ContentScanlines: ContentScanlines,
	BlankingCycles:   BlankingCycles,
	ContentCycles:    ContentCycles,
	FPS:              50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// CyclesPerLine returns the number of bus cycles in one scanline.
func (t RegionTiming) CyclesPerLine() int {
	return t.BlankingCycles + t.ContentCycles
}

// CyclesPerFrame returns the number of bus cycles in one frame.
func (t RegionTiming) CyclesPerFrame() int {
	return t.CyclesPerLine() * t.Scanlines
}

// ParseRegion converts a region name ("ntsc" or "pal") to a Region.
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ntsc":
		return RegionNTSC, nil
	case "pal":
		return RegionPAL, nil
	default:
		return RegionNTSC, fmt.Errorf("invalid region %q (use ntsc or pal)", s)
	}
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}

// RegionName returns the lower-case name accepted by ParseRegion.
func RegionName(r Region) string {
	if r == RegionPAL {
		return "pal"
	}
	return "ntsc"
}
