// Package script runs Lua scenarios against a capture engine. A scenario
// writes video memory, flips soft switches and advances the beam clock,
// which makes it easy to reproduce mode changes at exact scanlines.
package script

import (
	"errors"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/emgs/emu"
)

// FrameHook is the global function a scenario defines to be called after
// every frame run by the host.
const FrameHook = "on_frame"

var errNoHook = errors.New("scenario has no " + FrameHook + " function")

// Runner owns a Lua state bound to one Video and its collaborators. It
// must only be used from the goroutine that drives capture.
type Runner struct {
	L     *lua.LState
	video *emu.Video
	ram   *emu.RAM
	sw    *emu.Switches
}

// NewRunner creates a Lua state with the scenario API registered.
func NewRunner(video *emu.Video, ram *emu.RAM, sw *emu.Switches) *Runner {
	r := &Runner{
		L:     lua.NewState(),
		video: video,
		ram:   ram,
		sw:    sw,
	}
	r.register()
	return r
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.L.Close()
}

// RunString executes a scenario. name is used in error messages.
func (r *Runner) RunString(name, src string) error {
	fn, err := r.L.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	r.L.Push(fn)
	if err := r.L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// RunFile executes the scenario at path.
func (r *Runner) RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario: %w", err)
	}
	return r.RunString(path, string(src))
}

// HasFrameHook reports whether the scenario defined on_frame.
func (r *Runner) HasFrameHook() bool {
	_, ok := r.L.GetGlobal(FrameHook).(*lua.LFunction)
	return ok
}

// OnFrame calls the scenario's on_frame with the published frame index.
func (r *Runner) OnFrame() error {
	fn, ok := r.L.GetGlobal(FrameHook).(*lua.LFunction)
	if !ok {
		return errNoHook
	}
	err := r.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(r.video.Read().Frame()))
	if err != nil {
		return fmt.Errorf("%s: %w", FrameHook, err)
	}
	return nil
}

// DetectRegion looks for a "-- region: pal" directive in the leading
// comment lines of a scenario. The bool is false when no directive is
// present.
func DetectRegion(src []byte) (emu.Region, bool) {
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "--")), ":")
		if !ok || strings.TrimSpace(key) != "region" {
			continue
		}
		if region, err := emu.ParseRegion(value); err == nil {
			return region, true
		}
	}
	return emu.DefaultRegion(), false
}
