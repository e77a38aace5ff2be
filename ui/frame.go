package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/user-none/emgs/emu"
)

// Diagnostic frame layout. Each captured byte becomes one pixel, so a row
// is four pixels per column wide. The offset strip on the right shows the
// per-row offset value.
const (
	OffsetStripWidth = 16
	FrameWidth       = (emu.ContentCycles+2*emu.MaxBorderColumns)*4 + OffsetStripWidth
	MaxFrameHeight   = emu.ContentScanlines + 2*emu.MaxBorderRows

	stripX = FrameWidth - OffsetStripWidth
)

// Offset strip intensities: flat discriminator rows are dim, rows on the
// settling curve are bright.
const (
	stripFlat  = 96
	stripCurve = 255
	flatOffset = 10
)

// SecondRow reports whether row by of snap holds second-format data.
func SecondRow(snap *emu.FrameSnapshot, by int) bool {
	switch snap.Mode {
	case emu.TagSecond:
		return true
	case emu.TagMerged:
		return snap.Offsets[by] > 0
	}
	return false
}

// Compose renders snap into dst as raw byte intensities and returns it.
// Legacy rows are grey, second-format rows are amber. dst is reallocated
// when nil or the wrong height.
func Compose(snap *emu.FrameSnapshot, dst *image.RGBA) *image.RGBA {
	g := snap.Geometry
	rows := g.Rows()
	if dst == nil || dst.Bounds().Dx() != FrameWidth || dst.Bounds().Dy() != rows {
		dst = image.NewRGBA(image.Rect(0, 0, FrameWidth, rows))
	}
	clear(dst.Pix)
	if !snap.Valid() {
		return dst
	}

	width := g.Columns() * 4
	for by := 0; by < rows; by++ {
		line := dst.Pix[by*dst.Stride:]
		second := SecondRow(snap, by)
		var src []byte
		if second {
			start := by*g.SecondStride() + 1 + emu.PaletteBytes
			src = snap.Second[start : start+width]
		} else {
			start := by * g.LegacyStride()
			src = snap.Legacy[start : start+width]
		}
		for x, b := range src {
			p := line[x*4 : x*4+4]
			if second {
				p[0], p[1], p[2] = b, b-b/4, b/4
			} else {
				p[0], p[1], p[2] = b, b, b
			}
			p[3] = 0xFF
		}

		c := stripColor(snap.Offsets[by])
		for x := stripX; x < FrameWidth; x++ {
			dst.SetRGBA(x, by, c)
		}
	}
	return dst
}

func stripColor(offset float32) color.RGBA {
	if offset == 0 {
		return color.RGBA{A: 0xFF}
	}
	level := uint8(stripCurve)
	if offset >= flatOffset || offset <= -flatOffset {
		level = stripFlat
	}
	if offset > 0 {
		return color.RGBA{G: level, A: 0xFF}
	}
	return color.RGBA{R: level, A: 0xFF}
}

// WritePNG encodes img as PNG, scaled by an integer factor with nearest
// neighbour sampling.
func WritePNG(w io.Writer, img image.Image, scale int) error {
	if scale > 1 {
		b := img.Bounds()
		scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)
		img = scaled
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// FormatOffsets renders the non-zero offsets of snap as text, one row per
// line, preceded by a header line.
func FormatOffsets(snap *emu.FrameSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frame %d mode %s border %dx%d\n",
		snap.Frame, snap.Mode, snap.Geometry.BorderColumns, snap.Geometry.BorderRows)
	for row, o := range snap.Offsets {
		if o == 0 {
			continue
		}
		sb.WriteString(strconv.Itoa(row))
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatFloat(float64(o), 'g', -1, 32))
		sb.WriteByte('\n')
	}
	return sb.String()
}
