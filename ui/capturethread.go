package ui

import (
	"sync"
	"time"

	"github.com/user-none/emgs/emu"
)

// SharedControls holds viewer requests written by the Ebiten thread and
// applied by the capture goroutine between frames.
type SharedControls struct {
	mu        sync.Mutex
	refresh   bool
	border    *emu.Geometry
	region    *emu.Region
	toggleSHR bool
}

// RequestRefresh asks for a full-frame recapture.
func (sc *SharedControls) RequestRefresh() {
	sc.mu.Lock()
	sc.refresh = true
	sc.mu.Unlock()
}

// RequestBorder asks for a border size change.
func (sc *SharedControls) RequestBorder(g emu.Geometry) {
	sc.mu.Lock()
	sc.border = &g
	sc.mu.Unlock()
}

// RequestRegion asks for a display standard change.
func (sc *SharedControls) RequestRegion(r emu.Region) {
	sc.mu.Lock()
	sc.region = &r
	sc.mu.Unlock()
}

// RequestFormatToggle asks for the second format switch to be flipped.
func (sc *SharedControls) RequestFormatToggle() {
	sc.mu.Lock()
	sc.toggleSHR = !sc.toggleSHR
	sc.mu.Unlock()
}

// Apply runs pending requests against v and sw and clears them. Called by
// the capture goroutine only.
func (sc *SharedControls) Apply(v *emu.Video, sw *emu.Switches) {
	sc.mu.Lock()
	refresh, border, region, toggle := sc.refresh, sc.border, sc.region, sc.toggleSHR
	sc.refresh, sc.border, sc.region, sc.toggleSHR = false, nil, nil, false
	sc.mu.Unlock()

	if region != nil {
		v.SetRegion(*region)
	}
	if toggle && sw != nil {
		sw.Super = !sw.Super
	}
	if border != nil {
		// SetBorder refreshes when the geometry changes.
		before := v.Geometry()
		v.SetBorder(border.BorderColumns, border.BorderRows)
		if v.Geometry() != before {
			refresh = false
		}
	}
	if refresh {
		v.Refresh()
	}
}

// SharedCapture holds the latest published frame, copied by the capture
// goroutine and read by Ebiten's Draw() method. The write snapshot is
// filled from the engine; the read snapshot is handed to the drawing code
// so it can be used without holding the lock.
type SharedCapture struct {
	mu      sync.Mutex
	write   emu.FrameSnapshot
	read    emu.FrameSnapshot
	updates uint64
}

// Update copies the read-active frame of v. Nothing is copied when the
// frame index and geometry are unchanged. Returns whether a copy was made.
func (sc *SharedCapture) Update(v *emu.Video) bool {
	sc.mu.Lock()
	copied := v.CopyFrame(&sc.write)
	if copied {
		sc.updates++
	}
	sc.mu.Unlock()
	return copied
}

// Read returns the latest frame. The returned snapshot stays valid until
// the next call to Read.
func (sc *SharedCapture) Read() *emu.FrameSnapshot {
	sc.mu.Lock()
	if sc.write.Valid() && (!sc.read.Valid() || sc.read.Frame != sc.write.Frame || sc.read.Geometry != sc.write.Geometry) {
		copySnapshot(&sc.read, &sc.write)
	}
	sc.mu.Unlock()
	return &sc.read
}

// Updates returns the number of frames copied so far.
func (sc *SharedCapture) Updates() uint64 {
	sc.mu.Lock()
	n := sc.updates
	sc.mu.Unlock()
	return n
}

func copySnapshot(dst, src *emu.FrameSnapshot) {
	legacy := append(dst.Legacy[:0], src.Legacy...)
	second := append(dst.Second[:0], src.Second...)
	offsets := append(dst.Offsets[:0], src.Offsets...)
	*dst = *src
	dst.Legacy, dst.Second, dst.Offsets = legacy, second, offsets
}

// CaptureControl manages pause/resume/step/stop coordination between
// the Ebiten thread and the capture goroutine.
type CaptureControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stepReq  bool
	running  bool
	stopReq  bool
	ackCh    chan struct{}
}

// NewCaptureControl creates a new capture control.
func NewCaptureControl() *CaptureControl {
	return &CaptureControl{
		running: true,
		ackCh:   make(chan struct{}, 1),
	}
}

// RequestPause asks the capture goroutine to pause and blocks until it
// acknowledges the pause.
func (cc *CaptureControl) RequestPause() {
	cc.mu.Lock()
	if cc.paused || cc.pauseReq || !cc.running {
		cc.mu.Unlock()
		return
	}
	cc.pauseReq = true
	cc.mu.Unlock()

	<-cc.ackCh
}

// RequestResume tells the capture goroutine to resume.
func (cc *CaptureControl) RequestResume() {
	cc.mu.Lock()
	cc.pauseReq = false
	cc.paused = false
	cc.stepReq = false
	cc.mu.Unlock()
}

// RequestStep lets a paused capture goroutine run exactly one frame.
func (cc *CaptureControl) RequestStep() {
	cc.mu.Lock()
	if cc.paused {
		cc.stepReq = true
	}
	cc.mu.Unlock()
}

// CheckPause is called by the capture goroutine between frames. If a
// pause has been requested, it sends an acknowledgment and waits until
// resumed, stepped or stopped. Returns false if the goroutine should exit.
func (cc *CaptureControl) CheckPause() bool {
	cc.mu.Lock()
	if !cc.running || cc.stopReq {
		cc.mu.Unlock()
		return false
	}
	if !cc.pauseReq {
		cc.mu.Unlock()
		return true
	}

	first := !cc.paused
	cc.paused = true
	cc.mu.Unlock()

	if first {
		select {
		case cc.ackCh <- struct{}{}:
		default:
		}
	}

	for {
		cc.mu.Lock()
		if !cc.running || cc.stopReq {
			cc.mu.Unlock()
			return false
		}
		if !cc.pauseReq {
			cc.paused = false
			cc.mu.Unlock()
			return true
		}
		if cc.stepReq {
			cc.stepReq = false
			cc.mu.Unlock()
			return true
		}
		cc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop signals the capture goroutine to exit.
func (cc *CaptureControl) Stop() {
	cc.mu.Lock()
	cc.running = false
	cc.stopReq = true
	cc.pauseReq = false
	cc.mu.Unlock()
}

// ShouldRun returns true if the goroutine should continue running.
func (cc *CaptureControl) ShouldRun() bool {
	cc.mu.Lock()
	r := cc.running && !cc.stopReq
	cc.mu.Unlock()
	return r
}

// IsPaused returns true if the capture goroutine is currently paused.
func (cc *CaptureControl) IsPaused() bool {
	cc.mu.Lock()
	p := cc.paused
	cc.mu.Unlock()
	return p
}
