// Package adapter exposes the capture engine to eblitui frontends as a
// diagnostic core. The frontend loads a Lua scenario in place of a ROM and
// shows the captured frames as raw byte intensities.
package adapter

import (
	emucore "github.com/user-none/eblitui/api"

	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/script"
	"github.com/user-none/emgs/ui"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Button bits understood by Core.SetInput.
const (
	ButtonRefresh = 0
	ButtonBorder  = 1
	ButtonFormat  = 2
)

// sampleRate is the rate of the silent audio stream frontends expect.
const sampleRate = 48000

// Factory implements emucore.CoreFactory for the capture engine.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            emu.Name,
		ConsoleName:     "Beam Capture Diagnostics",
		Extensions:      []string{".lua"},
		ScreenWidth:     ui.FrameWidth,
		MaxScreenHeight: ui.MaxFrameHeight,
		AspectRatio:     float64(ui.FrameWidth) / float64(ui.MaxFrameHeight),
		SampleRate:      sampleRate,
		Buttons: []emucore.Button{
			{Name: "Refresh", ID: ButtonRefresh, DefaultKey: "J", DefaultPad: "A"},
			{Name: "Border", ID: ButtonBorder, DefaultKey: "K", DefaultPad: "B"},
			{Name: "Format", ID: ButtonFormat, DefaultKey: "L", DefaultPad: "X"},
		},
		Players:     1,
		DataDirName: emu.Name,
		CoreName:    emu.Name,
		CoreVersion: emu.Version,
	}
}

// CreateEmulator runs the scenario in rom against a fresh engine and
// returns a core that keeps capturing from there.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	return NewCore(rom, region)
}

// DetectRegion reads the region directive of a scenario. The bool is
// false when the scenario has none.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return script.DetectRegion(rom)
}
