package emu

import "testing"

func TestSwitches_PowerOn(t *testing.T) {
	sw := NewSwitches()
	if sw.LegacyMode() != ModeText40 {
		t.Errorf("expected text40, got %v", sw.LegacyMode())
	}
	if sw.TextColor() != 0xF0 {
		t.Errorf("expected colors 0xF0, got 0x%02X", sw.TextColor())
	}
	if sw.SecondFormat() {
		t.Error("second format should be off at power on")
	}
}

func TestSwitches_SetLegacyModeRoundTrip(t *testing.T) {
	modes := []LegacyMode{ModeText40, ModeText80, ModeLores, ModeDoubleLores, ModeHires, ModeDoubleHires}
	sw := NewSwitches()
	for _, m := range modes {
		sw.SetLegacyMode(m)
		if got := sw.LegacyMode(); got != m {
			t.Errorf("SetLegacyMode(%v): decoded %v", m, got)
		}
	}
}

func TestSwitches_DecodeHardwareBits(t *testing.T) {
	tests := []struct {
		name string
		sw   Switches
		want LegacyMode
	}{
		{"text wins over hires", Switches{Text: true, Hires: true}, ModeText40},
		{"80 column text", Switches{Text: true, Col80: true, DoubleHires: true}, ModeText80},
		{"hires without double", Switches{Hires: true, Col80: true}, ModeHires},
		{"double hires", Switches{Hires: true, Col80: true, DoubleHires: true}, ModeDoubleHires},
		{"lores", Switches{}, ModeLores},
		{"double lores", Switches{Col80: true, DoubleHires: true}, ModeDoubleLores},
	}
	for _, tt := range tests {
		if got := tt.sw.LegacyMode(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestSwitches_BorderColorMasked(t *testing.T) {
	sw := NewSwitches()
	sw.Border = 0xF3
	if sw.BorderColor() != 0x03 {
		t.Errorf("expected 0x03, got 0x%02X", sw.BorderColor())
	}
}

func TestParseLegacyMode(t *testing.T) {
	m, err := ParseLegacyMode("dhires")
	if err != nil || m != ModeDoubleHires {
		t.Errorf("expected dhires, got %v (%v)", m, err)
	}
	if _, err := ParseLegacyMode("vga"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
