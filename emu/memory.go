package emu

// Memory provides byte reads from the two video memory banks.
// The primary bank holds main memory; the secondary bank holds auxiliary
// memory, which is also where the second format keeps its pixel data,
// control bytes and palettes.
type Memory interface {
	ReadPrimary(addr uint16) uint8
	ReadSecondary(addr uint16) uint8
}

const bankSize = 0x10000

// RAM is a pair of flat 64KB banks implementing Memory.
type RAM struct {
	primary   [bankSize]uint8
	secondary [bankSize]uint8
}

// NewRAM creates zeroed video memory.
func NewRAM() *RAM {
	return &RAM{}
}

// ReadPrimary reads a byte from the primary bank.
func (r *RAM) ReadPrimary(addr uint16) uint8 {
	return r.primary[addr]
}

// ReadSecondary reads a byte from the secondary bank.
func (r *RAM) ReadSecondary(addr uint16) uint8 {
	return r.secondary[addr]
}

// WritePrimary writes a byte to the primary bank.
func (r *RAM) WritePrimary(addr uint16, v uint8) {
	r.primary[addr] = v
}

// WriteSecondary writes a byte to the secondary bank.
func (r *RAM) WriteSecondary(addr uint16, v uint8) {
	r.secondary[addr] = v
}

// FillPrimary writes n copies of v starting at addr. Writes wrap at the
// end of the bank.
func (r *RAM) FillPrimary(addr uint16, n int, v uint8) {
	for i := 0; i < n; i++ {
		r.primary[addr+uint16(i)] = v
	}
}

// FillSecondary writes n copies of v starting at addr. Writes wrap at the
// end of the bank.
func (r *RAM) FillSecondary(addr uint16, n int, v uint8) {
	for i := 0; i < n; i++ {
		r.secondary[addr+uint16(i)] = v
	}
}
