package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/emgs/emu"
)

func (r *Runner) register() {
	funcs := map[string]lua.LGFunction{
		// memory
		"poke":     r.poke(r.ram.WritePrimary),
		"poke_aux": r.poke(r.ram.WriteSecondary),
		"peek":     r.peek(r.ram.ReadPrimary),
		"peek_aux": r.peek(r.ram.ReadSecondary),
		"fill":     r.fill(r.ram.FillPrimary),
		"fill_aux": r.fill(r.ram.FillSecondary),

		// switches
		"set_mode":      r.setMode,
		"set_shr":       r.setFlag(&r.sw.Super),
		"set_mixed":     r.setFlag(&r.sw.Mix),
		"set_page2":     r.setFlag(&r.sw.Page),
		"set_store80":   r.setFlag(&r.sw.Store),
		"set_altchar":   r.setFlag(&r.sw.Alt),
		"set_border":    r.setByte(&r.sw.Border),
		"set_textcolor": r.setByte(&r.sw.Colors),

		// clock
		"run_cycles":      r.runCycles,
		"run_to_line":     r.runToLine,
		"run_frames":      r.runFrames,
		"refresh":         r.refresh,
		"set_border_size": r.setBorderSize,
		"set_region":      r.setRegion,

		// inspection
		"frame":        r.frame,
		"mode_tag":     r.modeTag,
		"offset":       r.offset,
		"position":     r.position,
		"realignments": r.realignments,
	}
	for name, fn := range funcs {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

func checkAddr(L *lua.LState, n int) uint16 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFFFF {
		L.ArgError(n, "address out of range")
	}
	return uint16(v)
}

func checkByte(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	if v < 0 || v > 0xFF {
		L.ArgError(n, "byte out of range")
	}
	return uint8(v)
}

func (r *Runner) poke(write func(uint16, uint8)) lua.LGFunction {
	return func(L *lua.LState) int {
		write(checkAddr(L, 1), checkByte(L, 2))
		return 0
	}
}

func (r *Runner) peek(read func(uint16) uint8) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LNumber(read(checkAddr(L, 1))))
		return 1
	}
}

func (r *Runner) fill(fill func(uint16, int, uint8)) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := checkAddr(L, 1)
		n := L.CheckInt(2)
		if n < 0 || n > 0x10000 {
			L.ArgError(2, "length out of range")
		}
		fill(addr, n, checkByte(L, 3))
		return 0
	}
}

func (r *Runner) setMode(L *lua.LState) int {
	m, err := emu.ParseLegacyMode(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	r.sw.SetLegacyMode(m)
	return 0
}

func (r *Runner) setFlag(dst *bool) lua.LGFunction {
	return func(L *lua.LState) int {
		*dst = L.CheckBool(1)
		return 0
	}
}

func (r *Runner) setByte(dst *uint8) lua.LGFunction {
	return func(L *lua.LState) int {
		*dst = checkByte(L, 1)
		return 0
	}
}

// runCycles advances n bus cycles. Without an explicit vblank argument the
// signal agrees with the clock, so no realignment happens.
func (r *Runner) runCycles(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 {
		L.ArgError(1, "cycle count must not be negative")
	}
	var vblank bool
	if L.GetTop() >= 2 {
		vblank = L.CheckBool(2)
	} else {
		vblank = vblankAfter(r.video.Clock(), n)
	}
	r.video.Advance(n, vblank)
	return 0
}

// vblankAfter reports whether the clock will be in vertical blank after
// advancing n cycles.
func vblankAfter(c *emu.Clock, n int) bool {
	t := c.Timing()
	pos := (c.Cycle() + n) % t.CyclesPerFrame()
	return pos/t.CyclesPerLine() >= t.ContentScanlines
}

// runToLine advances to the start of scanline y. A clock already at the
// start of y does not move.
func (r *Runner) runToLine(L *lua.LState) int {
	c := r.video.Clock()
	t := c.Timing()
	y := L.CheckInt(1)
	if y < 0 || y >= t.Scanlines {
		L.ArgError(1, "scanline out of range")
	}
	total := t.CyclesPerFrame()
	n := ((y*t.CyclesPerLine()-c.Cycle())%total + total) % total
	r.video.Advance(n, vblankAfter(c, n))
	return 0
}

func (r *Runner) runFrames(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		r.video.RunFrame()
	}
	return 0
}

func (r *Runner) refresh(L *lua.LState) int {
	r.video.Refresh()
	return 0
}

func (r *Runner) setBorderSize(L *lua.LState) int {
	r.video.SetBorder(L.CheckInt(1), L.CheckInt(2))
	return 0
}

func (r *Runner) setRegion(L *lua.LState) int {
	region, err := emu.ParseRegion(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	r.video.SetRegion(region)
	return 0
}

func (r *Runner) frame(L *lua.LState) int {
	L.Push(lua.LNumber(r.video.Read().Frame()))
	return 1
}

// buffer returns the mode tag and offsets of the buffer named by the
// optional argument n: "read" (default) or "write".
func (r *Runner) buffer(L *lua.LState, n int) (emu.ModeTag, []float32) {
	switch L.OptString(n, "read") {
	case "read":
		rf := r.video.Read()
		return rf.Mode(), rf.Offsets()
	case "write":
		wb := r.video.WriteBuffer()
		return wb.Mode, wb.Offsets
	}
	L.ArgError(n, `expected "read" or "write"`)
	return emu.TagNone, nil
}

func (r *Runner) modeTag(L *lua.LState) int {
	tag, _ := r.buffer(L, 1)
	L.Push(lua.LString(tag.String()))
	return 1
}

func (r *Runner) offset(L *lua.LState) int {
	row := L.CheckInt(1)
	_, offsets := r.buffer(L, 2)
	if row < 0 || row >= len(offsets) {
		L.ArgError(1, "row out of range")
	}
	L.Push(lua.LNumber(offsets[row]))
	return 1
}

func (r *Runner) position(L *lua.LState) int {
	c := r.video.Clock()
	L.Push(lua.LNumber(c.HPos()))
	L.Push(lua.LNumber(c.Scanline()))
	return 2
}

func (r *Runner) realignments(L *lua.LState) int {
	L.Push(lua.LNumber(len(r.video.Clock().Realignments())))
	return 1
}
