package emu

import (
	"fmt"
	"strings"
)

// LegacyMode is the legacy-format display sub-mode. It occupies the low
// three bits of a captured flags byte.
type LegacyMode uint8

const (
	ModeText40 LegacyMode = iota
	ModeText80
	ModeLores
	ModeDoubleLores
	ModeHires
	ModeDoubleHires
)

var legacyModeNames = [...]string{
	ModeText40:      "text40",
	ModeText80:      "text80",
	ModeLores:       "lores",
	ModeDoubleLores: "dlores",
	ModeHires:       "hires",
	ModeDoubleHires: "dhires",
}

// String returns the short name of the mode.
func (m LegacyMode) String() string {
	if int(m) < len(legacyModeNames) {
		return legacyModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// IsText reports whether the mode is one of the text modes.
func (m LegacyMode) IsText() bool {
	return m == ModeText40 || m == ModeText80
}

// IsHires reports whether the mode fetches through the bitmap row table.
func (m LegacyMode) IsHires() bool {
	return m == ModeHires || m == ModeDoubleHires
}

// IsDouble reports whether the mode uses both memory banks per column.
func (m LegacyMode) IsDouble() bool {
	return m == ModeText80 || m == ModeDoubleLores || m == ModeDoubleHires
}

// ParseLegacyMode converts a mode name to a LegacyMode.
func ParseLegacyMode(s string) (LegacyMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range legacyModeNames {
		if n == name {
			return LegacyMode(i), nil
		}
	}
	return ModeText40, fmt.Errorf("invalid legacy mode %q", s)
}

// VideoState is the read-only view of the soft switches that affect capture.
type VideoState interface {
	LegacyMode() LegacyMode
	SecondFormat() bool
	AltCharset() bool
	Page2() bool
	Store80() bool
	Mixed() bool
	BorderColor() uint8
	TextColor() uint8
}

// Switches holds the video soft-switch state and implements VideoState.
// Text, Hires, Col80 and DoubleHires combine into the legacy sub-mode the
// same way the hardware decodes them.
type Switches struct {
	Text        bool
	Hires       bool
	Col80       bool
	DoubleHires bool
	Alt         bool
	Page        bool
	Store       bool
	Mix         bool
	Super       bool  // second format enable
	Border      uint8 // 4-bit border color
	Colors      uint8 // foreground<<4 | background
}

// NewSwitches returns the power-on switch state: 40-column text,
// white on black, black border.
func NewSwitches() *Switches {
	return &Switches{
		Text:   true,
		Colors: 0xF0,
	}
}

// LegacyMode decodes the legacy sub-mode from the switch bits.
func (s *Switches) LegacyMode() LegacyMode {
	switch {
	case s.Text && s.Col80:
		return ModeText80
	case s.Text:
		return ModeText40
	case s.Hires && s.Col80 && s.DoubleHires:
		return ModeDoubleHires
	case s.Hires:
		return ModeHires
	case s.Col80 && s.DoubleHires:
		return ModeDoubleLores
	default:
		return ModeLores
	}
}

// SetLegacyMode sets the switch bits that decode to m.
func (s *Switches) SetLegacyMode(m LegacyMode) {
	s.Text = m.IsText()
	s.Hires = m.IsHires()
	s.Col80 = m.IsDouble()
	s.DoubleHires = m == ModeDoubleLores || m == ModeDoubleHires
}

func (s *Switches) SecondFormat() bool { return s.Super }
func (s *Switches) AltCharset() bool   { return s.Alt }
func (s *Switches) Page2() bool        { return s.Page }
func (s *Switches) Store80() bool      { return s.Store }
func (s *Switches) Mixed() bool        { return s.Mix }
func (s *Switches) BorderColor() uint8 { return s.Border & 0x0F }
func (s *Switches) TextColor() uint8   { return s.Colors }
