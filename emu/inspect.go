package emu

import (
	"encoding/binary"
	"math"

	emucore "github.com/user-none/eblitui/api"
)

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. The flat space covers the write-active buffer: the
// legacy array, then the second-format array, then the offsets as
// little-endian float32 values.
func (v *Video) ReadMemory(addr uint32, buf []byte) uint32 {
	wb := v.pair.Write()
	legacyEnd := uint32(len(wb.Legacy))
	secondEnd := legacyEnd + uint32(len(wb.Second))
	offsetsEnd := secondEnd + uint32(4*len(wb.Offsets))

	var count uint32
	var word [4]byte
	for i := range buf {
		cur := addr + uint32(i)
		var b byte
		switch {
		case cur < legacyEnd:
			b = wb.Legacy[cur]
		case cur < secondEnd:
			b = wb.Second[cur-legacyEnd]
		case cur < offsetsEnd:
			rel := cur - secondEnd
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(wb.Offsets[rel/4]))
			b = word[rel%4]
		default:
			return count
		}
		buf[i] = b
		count++
	}
	return count
}

// MemoryMap returns the inspectable regions. The system RAM region is the
// legacy array of the write-active buffer.
func (v *Video) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: len(v.pair.Write().Legacy)},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (v *Video) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		src := v.pair.Write().Legacy
		out := make([]byte, len(src))
		copy(out, src)
		return out
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region. Debugging tools
// use it to patch a frame in progress.
func (v *Video) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		copy(v.pair.Write().Legacy, data)
	}
}
