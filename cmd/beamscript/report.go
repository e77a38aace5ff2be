package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/user-none/emgs/emu"
)

// Report layout.
const (
	defaultWidth = 80
	minWidth     = 16
	rowLabel     = 6 // "%4d  " prefix of each strip line
	flatOffset   = 10
)

// offsetClass groups rows by what their offset value encodes.
type offsetClass int

const (
	classNone        offsetClass = iota // row not captured
	classLegacy                         // flat legacy discriminator
	classSecond                         // flat second-format discriminator
	classLegacyCurve                    // legacy row settling after a switch
	classSecondCurve                    // second-format row settling after a switch
)

var classNames = [...]string{
	classNone:        "none",
	classLegacy:      "legacy",
	classSecond:      "second",
	classLegacyCurve: "legacy settling",
	classSecondCurve: "second settling",
}

// classGlyphs are the strip characters for each class.
var classGlyphs = [...]byte{
	classNone:        '.',
	classLegacy:      '-',
	classSecond:      '+',
	classLegacyCurve: 'l',
	classSecondCurve: 's',
}

func classify(v float32) offsetClass {
	switch {
	case v == 0:
		return classNone
	case v == flatOffset:
		return classSecond
	case v == -flatOffset:
		return classLegacy
	case v > 0:
		return classSecondCurve
	}
	return classLegacyCurve
}

// offsetRange is a run of consecutive rows of one class.
type offsetRange struct {
	first, last int
	class       offsetClass
	min, max    float32
}

func offsetRanges(offsets []float32) []offsetRange {
	var ranges []offsetRange
	for row, v := range offsets {
		c := classify(v)
		if n := len(ranges); n > 0 && ranges[n-1].class == c {
			r := &ranges[n-1]
			r.last = row
			r.min = min(r.min, v)
			r.max = max(r.max, v)
			continue
		}
		ranges = append(ranges, offsetRange{first: row, last: row, class: c, min: v, max: v})
	}
	return ranges
}

// writeReport describes the state of v: both buffers, the beam position,
// recent realignments, the offset ranges of the read frame and a strip
// with one glyph per row wrapped to width columns.
func writeReport(w io.Writer, v *emu.Video, width int) error {
	read := v.Read()
	write := v.WriteBuffer()
	g := v.Geometry()
	clock := v.Clock()

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "region\t%s\n", emu.RegionName(v.GetRegion()))
	fmt.Fprintf(tw, "geometry\t%dx%d (%d columns, %d rows)\n", g.BorderColumns, g.BorderRows, g.Columns(), g.Rows())
	fmt.Fprintf(tw, "read\tframe %d\t%s\n", read.Frame(), read.Mode())
	fmt.Fprintf(tw, "write\tframe %d\t%s\n", write.Frame(), write.Mode)
	fmt.Fprintf(tw, "beam\tline %d\thpos %d\n", clock.Scanline(), clock.HPos())
	realigns := clock.Realignments()
	fmt.Fprintf(tw, "realignments\t%d\n", len(realigns))
	if n := len(realigns); n > 0 {
		last := realigns[n-1]
		fmt.Fprintf(tw, "\tlast at cycle %d\t+%d cycles (vblank %t)\n", last.Cycle, last.Steps, last.VBlank)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	offsets := read.Offsets()
	if _, err := fmt.Fprintln(w, "\noffsets"); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, r := range offsetRanges(offsets) {
		span := fmt.Sprintf("%d-%d", r.first, r.last)
		switch r.class {
		case classNone:
			fmt.Fprintf(tw, "  %s\t%s\n", span, classNames[r.class])
		case classLegacyCurve, classSecondCurve:
			fmt.Fprintf(tw, "  %s\t%s\t%+.5f .. %+.5f\n", span, classNames[r.class], r.min, r.max)
		default:
			fmt.Fprintf(tw, "  %s\t%s\t%+.0f\n", span, classNames[r.class], r.min)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nrows"); err != nil {
		return err
	}
	per := max(width, minWidth) - rowLabel
	line := make([]byte, 0, per)
	for start := 0; start < len(offsets); start += per {
		line = line[:0]
		for _, v := range offsets[start:min(start+per, len(offsets))] {
			line = append(line, classGlyphs[classify(v)])
		}
		if _, err := fmt.Fprintf(w, "%4d  %s\n", start, line); err != nil {
			return err
		}
	}
	return nil
}
