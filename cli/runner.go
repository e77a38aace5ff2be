// Package cli provides a windowed runner for the capture engine.
// It handles key polling and shows captured frames without the full UI.
package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emubridge "github.com/user-none/emgs/bridge/ebiten"
	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/script"
	"github.com/user-none/emgs/ui"
)

// BorderPresets are the border sizes cycled by the B key.
var BorderPresets = []emu.Geometry{
	{},
	{BorderColumns: 4, BorderRows: 8},
	{BorderColumns: emu.MaxBorderColumns, BorderRows: emu.MaxBorderRows},
}

// snapshotScale is the PNG snapshot magnification.
const snapshotScale = 2

// statusDuration is how long a key action message stays in the overlay.
const statusDuration = 2 * time.Second

// Runner wraps a capture engine for windowed mode.
// Capture runs on a dedicated goroutine paced at the region frame rate.
// The Ebiten thread handles key polling and draws from the shared capture.
type Runner struct {
	video  *emu.Video
	sw     *emu.Switches
	script *script.Runner
	viewer *emubridge.Viewer

	// Capture goroutine control
	control  *ui.CaptureControl
	controls *ui.SharedControls
	capture  *ui.SharedCapture
	done     chan struct{}

	// Ebiten thread state
	region  emu.Region
	preset  int
	message string
	msgTime time.Time
}

// NewRunner creates a Runner and starts capture. sc may be nil; when its
// scenario defines on_frame the hook is called after every frame. The
// runner owns video, sw and sc from here on.
func NewRunner(video *emu.Video, sw *emu.Switches, sc *script.Runner) *Runner {
	r := &Runner{
		video:    video,
		sw:       sw,
		script:   sc,
		viewer:   emubridge.NewViewer(),
		control:  ui.NewCaptureControl(),
		controls: &ui.SharedControls{},
		capture:  &ui.SharedCapture{},
		done:     make(chan struct{}),
		region:   video.GetRegion(),
	}
	for i, g := range BorderPresets {
		if g == video.Geometry() {
			r.preset = i
		}
	}

	go r.captureLoop()

	return r
}

// Close stops the capture goroutine.
func (r *Runner) Close() {
	if r.control != nil {
		r.control.Stop()
		<-r.done
		r.control = nil
	}
}

// captureLoop runs on a dedicated goroutine.
func (r *Runner) captureLoop() {
	defer close(r.done)

	hook := r.script != nil && r.script.HasFrameHook()
	lastFrameTime := time.Now()

	for {
		if !r.control.CheckPause() {
			return
		}

		r.controls.Apply(r.video, r.sw)
		r.video.RunFrame()

		if hook {
			if err := r.script.OnFrame(); err != nil {
				log.Printf("Warning: %v; frame hook disabled", err)
				hook = false
			}
		}

		r.capture.Update(r.video)

		// Region can change between frames.
		frameTime := time.Duration(float64(time.Second) / float64(r.video.GetTiming().FPS))
		sleepTime := frameTime - time.Since(lastFrameTime)
		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		r.controls.RequestRefresh()
		r.notify("refresh")
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		r.preset = (r.preset + 1) % len(BorderPresets)
		g := BorderPresets[r.preset]
		r.controls.RequestBorder(g)
		r.notify(fmt.Sprintf("border %dx%d", g.BorderColumns, g.BorderRows))
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		r.controls.RequestFormatToggle()
		r.notify("toggle second format")
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		if r.region == emu.RegionNTSC {
			r.region = emu.RegionPAL
		} else {
			r.region = emu.RegionNTSC
		}
		r.controls.RequestRegion(r.region)
		r.notify("region " + emu.RegionName(r.region))
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if r.control.IsPaused() {
			r.control.RequestResume()
			r.notify("resumed")
		} else {
			r.control.RequestPause()
			r.notify("paused")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		r.control.RequestStep()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		r.saveSnapshot()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		r.copyOffsets()
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		r.viewer.ShowInfo = !r.viewer.ShowInfo
	}
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	snap := r.capture.Read()
	r.viewer.Draw(screen, snap, r.status(snap))
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.viewer.Layout(outsideWidth, outsideHeight)
}

func (r *Runner) notify(msg string) {
	r.message = msg
	r.msgTime = time.Now()
}

func (r *Runner) status(snap *emu.FrameSnapshot) string {
	if !snap.Valid() {
		return "waiting for first frame"
	}
	s := fmt.Sprintf("frame %d  %s  border %dx%d  %s",
		snap.Frame, snap.Mode, snap.Geometry.BorderColumns, snap.Geometry.BorderRows, emu.RegionName(r.region))
	if r.message != "" && time.Since(r.msgTime) < statusDuration {
		s += "\n" + r.message
	}
	return s
}

// saveSnapshot writes the displayed frame as a PNG in the working directory.
func (r *Runner) saveSnapshot() {
	img := r.viewer.Image()
	if img == nil {
		return
	}
	snap := r.capture.Read()
	name := fmt.Sprintf("%s-%06d.png", emu.Name, snap.Frame)
	f, err := os.Create(name)
	if err != nil {
		log.Printf("Warning: snapshot failed: %v", err)
		return
	}
	defer f.Close()
	if err := ui.WritePNG(f, img, snapshotScale); err != nil {
		log.Printf("Warning: snapshot failed: %v", err)
		return
	}
	r.notify("saved " + name)
}

// copyOffsets places the offset values of the displayed frame on the
// clipboard.
func (r *Runner) copyOffsets() {
	snap := r.capture.Read()
	if !snap.Valid() {
		return
	}
	if err := emubridge.CopyText(ui.FormatOffsets(snap)); err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	r.notify("offsets copied")
}
