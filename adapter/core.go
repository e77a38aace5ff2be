package adapter

import (
	"image"
	"log"

	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/script"
	"github.com/user-none/emgs/ui"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Core)(nil)
var _ emucore.MemoryInspector = (*Core)(nil)
var _ emucore.MemoryMapper = (*Core)(nil)

// borderPresets are the border sizes cycled by the Border button.
var borderPresets = []emu.Geometry{
	{},
	{BorderColumns: 4, BorderRows: 8},
	{BorderColumns: emu.MaxBorderColumns, BorderRows: emu.MaxBorderRows},
}

// Core drives one capture engine for a frontend. All methods are called
// from the frontend's emulation goroutine.
type Core struct {
	video  *emu.Video
	sw     *emu.Switches
	script *script.Runner
	hook   bool

	snap    emu.FrameSnapshot
	img     *image.RGBA
	silence []int16
	buttons uint32
	preset  int
}

// NewCore creates an engine for region and runs the scenario src. A full
// frame is captured unless the scenario already published one.
func NewCore(src []byte, region emu.Region) (*Core, error) {
	ram := emu.NewRAM()
	sw := emu.NewSwitches()
	cfg := emu.DefaultConfig()
	cfg.Region = region
	video := emu.NewVideo(ram, sw, cfg)

	sc := script.NewRunner(video, ram, sw)
	if err := sc.RunString("scenario", string(src)); err != nil {
		sc.Close()
		return nil, err
	}
	if video.Read().Mode() == emu.TagNone {
		video.Refresh()
	}

	c := &Core{
		video:  video,
		sw:     sw,
		script: sc,
		hook:   sc.HasFrameHook(),
	}
	c.publish()
	return c, nil
}

// RunFrame executes one frame of capture and recomposes the framebuffer
// when a new frame was published.
func (c *Core) RunFrame() {
	c.video.RunFrame()
	if c.hook {
		if err := c.script.OnFrame(); err != nil {
			log.Printf("Warning: frame hook disabled: %v", err)
			c.hook = false
		}
	}
	c.publish()
}

func (c *Core) publish() {
	if c.video.CopyFrame(&c.snap) || c.img == nil {
		c.img = ui.Compose(&c.snap, c.img)
	}
}

// GetFramebuffer returns the composed frame as RGBA pixel data.
func (c *Core) GetFramebuffer() []byte {
	return c.img.Pix
}

// GetFramebufferStride returns bytes per row in the framebuffer.
func (c *Core) GetFramebufferStride() int {
	return c.img.Stride
}

// GetActiveHeight returns the number of captured rows.
func (c *Core) GetActiveHeight() int {
	return c.img.Bounds().Dy()
}

// GetAudioSamples returns one frame of stereo silence.
func (c *Core) GetAudioSamples() []int16 {
	n := sampleRate / c.video.GetTiming().FPS * 2
	if len(c.silence) != n {
		c.silence = make([]int16, n)
	}
	return c.silence
}

// SetInput acts on buttons newly pressed by player 0.
func (c *Core) SetInput(player int, buttons uint32) {
	if player != 0 {
		return
	}
	pressed := buttons &^ c.buttons
	c.buttons = buttons

	if pressed&(1<<ButtonFormat) != 0 {
		c.sw.Super = !c.sw.Super
	}
	if pressed&(1<<ButtonBorder) != 0 {
		c.preset = (c.preset + 1) % len(borderPresets)
		g := borderPresets[c.preset]
		c.video.SetBorder(g.BorderColumns, g.BorderRows)
		c.publish()
	}
	if pressed&(1<<ButtonRefresh) != 0 {
		c.video.Refresh()
		c.publish()
	}
}

// GetRegion returns the current video region.
func (c *Core) GetRegion() emucore.Region {
	return c.video.GetRegion()
}

// SetRegion changes the video region. It takes effect at the next frame
// start.
func (c *Core) SetRegion(region emucore.Region) {
	c.video.SetRegion(region)
}

// GetTiming returns FPS and scanline count for the current region.
func (c *Core) GetTiming() emucore.Timing {
	return c.video.GetTiming()
}

// SetOption forwards core options to the engine. A border change is
// visible in the framebuffer at once.
func (c *Core) SetOption(key string, value string) {
	c.video.SetOption(key, value)
	c.publish()
}

// ReadMemory reads the flat capture address space.
func (c *Core) ReadMemory(addr uint32, buf []byte) uint32 {
	return c.video.ReadMemory(addr, buf)
}

// MemoryMap returns the inspectable regions.
func (c *Core) MemoryMap() []emucore.MemoryRegion {
	return c.video.MemoryMap()
}

// ReadRegion returns a copy of the specified memory region.
func (c *Core) ReadRegion(regionType int) []byte {
	return c.video.ReadRegion(regionType)
}

// WriteRegion writes data to the specified memory region.
func (c *Core) WriteRegion(regionType int, data []byte) {
	c.video.WriteRegion(regionType, data)
}

// Close releases the scenario state.
func (c *Core) Close() {
	if c.script != nil {
		c.script.Close()
		c.script = nil
	}
}
