// Package ebiten draws captured frames with Ebiten.
package ebiten

import (
	"fmt"
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.design/x/clipboard"

	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/ui"
)

// Viewer renders frame snapshots scaled to the window.
type Viewer struct {
	img       *image.RGBA
	offscreen *ebiten.Image           // Offscreen buffer for native resolution rendering
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation

	frame    uint64
	geometry emu.Geometry
	drawn    bool

	// ShowInfo enables the status overlay.
	ShowInfo bool
}

// NewViewer creates a viewer with the status overlay enabled.
func NewViewer() *Viewer {
	return &Viewer{ShowInfo: true}
}

// Layout implements ebiten.Game.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Image returns the most recently composed frame, or nil before the first
// frame was drawn.
func (v *Viewer) Image() *image.RGBA {
	return v.img
}

// Draw renders snap to the screen, recomposing only when the frame or the
// geometry changed, then prints status when the overlay is on.
func (v *Viewer) Draw(screen *ebiten.Image, snap *emu.FrameSnapshot, status string) {
	if snap.Valid() && (!v.drawn || snap.Frame != v.frame || snap.Geometry != v.geometry) {
		v.img = ui.Compose(snap, v.img)
		v.frame = snap.Frame
		v.geometry = snap.Geometry
		v.drawn = true

		h := v.img.Bounds().Dy()
		if v.offscreen == nil || v.offscreen.Bounds().Dy() != h {
			v.offscreen = ebiten.NewImage(ui.FrameWidth, h)
		}
		v.offscreen.WritePixels(v.img.Pix)
	}

	if v.offscreen != nil {
		// Calculate scaling to fit window while preserving aspect ratio
		screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
		nativeW := float64(ui.FrameWidth)
		nativeH := float64(v.offscreen.Bounds().Dy())

		scale := float64(screenW) / nativeW
		if s := float64(screenH) / nativeH; s < scale {
			scale = s
		}

		offsetX := (float64(screenW) - nativeW*scale) / 2
		offsetY := (float64(screenH) - nativeH*scale) / 2

		v.drawOpts = ebiten.DrawImageOptions{}
		v.drawOpts.GeoM.Scale(scale, scale)
		v.drawOpts.GeoM.Translate(offsetX, offsetY)
		v.drawOpts.Filter = ebiten.FilterNearest
		screen.DrawImage(v.offscreen, &v.drawOpts)
	}

	if v.ShowInfo && status != "" {
		ebitenutil.DebugPrintAt(screen, status, 4, 4)
	}
}

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// CopyText places text on the system clipboard.
func CopyText(text string) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", clipboardErr)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
