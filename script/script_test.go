package script

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/emgs/emu"
)

func createTestRunner(t *testing.T) (*Runner, *emu.Video, *emu.RAM, *emu.Switches) {
	t.Helper()
	ram := emu.NewRAM()
	sw := emu.NewSwitches()
	v := emu.NewVideo(ram, sw, emu.DefaultConfig())
	v.Clock().Logf = t.Logf
	r := NewRunner(v, ram, sw)
	t.Cleanup(r.Close)
	return r, v, ram, sw
}

func TestRunner_MemoryAndSwitches(t *testing.T) {
	r, _, ram, sw := createTestRunner(t)
	src := `
		poke(0x400, 0xC1)
		poke_aux(0x400, 0x41)
		fill(0x2000, 4, 0x7F)
		fill_aux(0x9E00, 32, 0x0F)
		set_mode("dhires")
		set_mixed(true)
		set_page2(true)
		set_store80(true)
		set_altchar(true)
		set_shr(true)
		set_border(5)
		set_textcolor(0x1E)
		assert(peek(0x400) == 0xC1)
		assert(peek_aux(0x9E1F) == 0x0F)
	`
	if err := r.RunString("setup", src); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}

	if ram.ReadPrimary(0x400) != 0xC1 || ram.ReadSecondary(0x400) != 0x41 {
		t.Error("poke did not write memory")
	}
	if ram.ReadPrimary(0x2003) != 0x7F || ram.ReadPrimary(0x2004) != 0 {
		t.Error("fill wrote the wrong range")
	}
	if sw.LegacyMode() != emu.ModeDoubleHires {
		t.Errorf("expected dhires, got %v", sw.LegacyMode())
	}
	if !sw.Mix || !sw.Page || !sw.Store || !sw.Alt || !sw.Super {
		t.Errorf("expected all flags set, got %+v", sw)
	}
	if sw.Border != 5 || sw.Colors != 0x1E {
		t.Errorf("expected border 5 colors 0x1E, got %d 0x%02X", sw.Border, sw.Colors)
	}
}

func TestRunner_MergeScenario(t *testing.T) {
	r, v, _, _ := createTestRunner(t)
	src := `
		run_frames(1)
		run_to_line(100)
		set_shr(true)
		run_to_line(192)
		assert(mode_tag("write") == "merged", mode_tag("write"))
		assert(offset(120, "write") == 10)
		assert(offset(50, "write") == -10)
		local x, y = position()
		assert(x == 0 and y == 192)
		assert(realignments() == 0)
	`
	if err := r.RunString("merge", src); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}

	want := float32((math.Pow(1.1205, 28) - 4.0) / 640)
	if got := v.WriteBuffer().Offsets[100]; got != want {
		t.Errorf("offset 100: expected %v, got %v", want, got)
	}
}

func TestRunner_RefreshAndBorder(t *testing.T) {
	r, v, _, _ := createTestRunner(t)
	src := `
		set_border_size(4, 8)
		local before = frame()
		refresh()
		assert(frame() > before)
		assert(mode_tag() == "legacy")
	`
	if err := r.RunString("border", src); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if g := v.Geometry(); g != (emu.Geometry{BorderColumns: 4, BorderRows: 8}) {
		t.Errorf("expected 4x8 border, got %+v", g)
	}
}

func TestRunner_RunCyclesWithVBlankRealigns(t *testing.T) {
	r, v, _, _ := createTestRunner(t)
	if err := r.RunString("realign", `run_cycles(100 * 65, true)`); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if n := len(v.Clock().Realignments()); n != 1 {
		t.Errorf("expected 1 realignment, got %d", n)
	}
	if err := r.RunString("steady", `run_cycles(65)`); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if n := len(v.Clock().Realignments()); n != 1 {
		t.Errorf("implicit vblank should not realign, got %d realignments", n)
	}
}

func TestRunner_SetRegion(t *testing.T) {
	r, v, _, _ := createTestRunner(t)
	if err := r.RunString("region", `set_region("pal")`); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if v.GetRegion() != emu.RegionPAL {
		t.Errorf("expected PAL, got %v", v.GetRegion())
	}
}

func TestRunner_ArgumentErrors(t *testing.T) {
	scripts := []string{
		`poke(0x10000, 1)`,
		`poke(0x400, 256)`,
		`fill(0, -1, 0)`,
		`set_mode("vga")`,
		`set_region("secam")`,
		`run_cycles(-1)`,
		`run_to_line(400)`,
		`offset(1000)`,
		`mode_tag("other")`,
	}
	for _, src := range scripts {
		r, _, _, _ := createTestRunner(t)
		if err := r.RunString("bad", src); err == nil {
			t.Errorf("%s: expected error", src)
		}
	}
}

func TestRunner_SyntaxError(t *testing.T) {
	r, _, _, _ := createTestRunner(t)
	err := r.RunString("broken", `poke(`)
	if err == nil || !strings.Contains(err.Error(), "load broken") {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestRunner_FrameHook(t *testing.T) {
	r, v, _, _ := createTestRunner(t)
	if r.HasFrameHook() {
		t.Fatal("no hook defined yet")
	}
	if err := r.OnFrame(); err != errNoHook {
		t.Errorf("expected errNoHook, got %v", err)
	}

	src := `
		count = 0
		function on_frame(n)
			count = count + 1
			last = n
		end
	`
	if err := r.RunString("hook", src); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if !r.HasFrameHook() {
		t.Fatal("expected hook")
	}
	for i := 0; i < 3; i++ {
		v.RunFrame()
		if err := r.OnFrame(); err != nil {
			t.Fatalf("OnFrame failed: %v", err)
		}
	}
	if got := r.L.GetGlobal("count"); got != lua.LNumber(3) {
		t.Errorf("expected 3 calls, got %v", got)
	}
	if got := r.L.GetGlobal("last"); got != lua.LNumber(v.Read().Frame()) {
		t.Errorf("expected last frame %d, got %v", v.Read().Frame(), got)
	}
}

func TestRunner_FrameHookError(t *testing.T) {
	r, _, _, _ := createTestRunner(t)
	if err := r.RunString("hook", `function on_frame(n) error("boom") end`); err != nil {
		t.Fatalf("RunString failed: %v", err)
	}
	if err := r.OnFrame(); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected hook error, got %v", err)
	}
}

func TestRunner_RunFile(t *testing.T) {
	r, _, ram, _ := createTestRunner(t)
	path := filepath.Join(t.TempDir(), "scene.lua")
	if err := os.WriteFile(path, []byte(`poke(0x800, 0x22)`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.RunFile(path); err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if ram.ReadPrimary(0x800) != 0x22 {
		t.Error("scenario file did not run")
	}
	if err := r.RunFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		region emu.Region
		found  bool
	}{
		{"directive", "-- split screen test\n-- region: pal\nrun_frames(2)\n", emu.RegionPAL, true},
		{"ntsc directive", "--region:NTSC\n", emu.RegionNTSC, true},
		{"no directive", "-- plain\nrun_frames(1)\n", emu.RegionNTSC, false},
		{"after code", "run_frames(1)\n-- region: pal\n", emu.RegionNTSC, false},
		{"bad value", "-- region: secam\n", emu.RegionNTSC, false},
	}
	for _, tt := range tests {
		region, found := DetectRegion([]byte(tt.src))
		if region != tt.region || found != tt.found {
			t.Errorf("%s: expected %v/%v, got %v/%v", tt.name, tt.region, tt.found, region, found)
		}
	}
}
