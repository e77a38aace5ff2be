package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMGSState\x00\x00\x00"
	stateHeaderSize = 18 // magic(12) + version(2) + dataCRC(4)
)

// Fixed serialization sizes for inline components
const (
	// geometry(2) + region(1) + clock cycle(4)
	videoSerializeFixedSize = 7
	// state(1) + timing scanlines(2) + pending scanlines(2) +
	// lastFormat(1) + lastChangeRow(4) + writeSlot(1)
	trackerSerializeSize = 11
	// frame(8) + mode(1)
	bufferSerializeFixedSize = 9
)

var (
	errStateShort    = errors.New("save state too short")
	errStateMagic    = errors.New("invalid save state magic")
	errStateVersion  = errors.New("unsupported save state version")
	errStateCorrupt  = errors.New("save state data is corrupted")
	errStateGeometry = errors.New("save state geometry out of range")
)

// bufferSerializeSize returns the bytes needed for one capture buffer.
func bufferSerializeSize(g Geometry) int {
	return bufferSerializeFixedSize +
		g.LegacyStride()*g.Rows() +
		g.SecondStride()*g.Rows() +
		4*g.Rows()
}

func stateSize(g Geometry) int {
	return stateHeaderSize +
		videoSerializeFixedSize +
		trackerSerializeSize +
		2*bufferSerializeSize(g)
}

// SerializeSize returns the total size in bytes needed for a save state.
// It depends on the border geometry.
func (v *Video) SerializeSize() int {
	return stateSize(v.pair.Geometry())
}

// Serialize creates a save state and returns it as a byte slice.
func (v *Video) Serialize() ([]byte, error) {
	g := v.pair.Geometry()
	data := make([]byte, stateSize(g))

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)

	offset := stateHeaderSize

	// Geometry, region and clock
	data[offset] = uint8(g.BorderColumns)
	data[offset+1] = uint8(g.BorderRows)
	data[offset+2] = uint8(v.clock.Region())
	binary.LittleEndian.PutUint32(data[offset+3:], uint32(v.clock.Cycle()))
	offset += videoSerializeFixedSize

	// Beam tracker
	offset = v.serializeTracker(data, offset)

	// Capture buffers, slot A then slot B
	for i := range v.pair.slots {
		offset = serializeBuffer(&v.pair.slots[i], data, offset)
	}

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[14:18], dataCRC)

	return data, nil
}

// Deserialize restores capture state from a save state byte slice.
// Region and border geometry are restored from the state.
func (v *Video) Deserialize(data []byte) error {
	if err := VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize
	g := Geometry{BorderColumns: int(data[offset]), BorderRows: int(data[offset+1])}
	region := Region(data[offset+2])
	cycle := int(binary.LittleEndian.Uint32(data[offset+3:]))
	offset += videoSerializeFixedSize

	if g != v.pair.Geometry() {
		v.pair.Reinit(g)
	}
	if region != v.clock.Region() {
		v.clock.SetRegion(region)
	}
	v.clock.SetCycle(cycle)

	offset = v.deserializeTracker(data, offset)

	for i := range v.pair.slots {
		offset = deserializeBuffer(&v.pair.slots[i], data, offset)
	}

	return nil
}

// VerifyState checks if a save state is valid without loading it.
func VerifyState(data []byte) error {
	if len(data) < stateHeaderSize+videoSerializeFixedSize {
		return errStateShort
	}

	if string(data[0:12]) != stateMagic {
		return errStateMagic
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errStateVersion
	}

	g := Geometry{
		BorderColumns: int(data[stateHeaderSize]),
		BorderRows:    int(data[stateHeaderSize+1]),
	}
	if g.Clamp() != g {
		return errStateGeometry
	}
	if len(data) < stateSize(g) {
		return errStateShort
	}

	expectedCRC := binary.LittleEndian.Uint32(data[14:18])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errStateCorrupt
	}

	return nil
}

// serializeTracker writes BeamTracker state to the data buffer.
func (v *Video) serializeTracker(data []byte, offset int) int {
	t := v.tracker
	data[offset] = uint8(t.state)
	offset++
	binary.LittleEndian.PutUint16(data[offset:], uint16(t.timing.Scanlines))
	offset += 2
	binary.LittleEndian.PutUint16(data[offset:], uint16(t.pending.Scanlines))
	offset += 2
	data[offset] = uint8(t.lastFormat)
	offset++
	binary.LittleEndian.PutUint32(data[offset:], uint32(int32(t.lastChangeRow)))
	offset += 4
	data[offset] = uint8(v.pair.WriteSlot())
	offset++
	return offset
}

// deserializeTracker reads BeamTracker state from the data buffer.
func (v *Video) deserializeTracker(data []byte, offset int) int {
	t := v.tracker
	t.state = BeamState(data[offset])
	offset++
	t.timing = timingForScanlines(int(binary.LittleEndian.Uint16(data[offset:])))
	offset += 2
	t.pending = timingForScanlines(int(binary.LittleEndian.Uint16(data[offset:])))
	offset += 2
	t.lastFormat = Format(data[offset])
	offset++
	t.lastChangeRow = int(int32(binary.LittleEndian.Uint32(data[offset:])))
	offset += 4
	v.pair.writeSlot.Store(int32(data[offset] & 1))
	offset++
	t.invertFormat = false
	t.reconciling = false
	return offset
}

// timingForScanlines maps a stored scanline count back to region timing.
func timingForScanlines(n int) RegionTiming {
	if n == PALTiming.Scanlines {
		return PALTiming
	}
	return NTSCTiming
}

// serializeBuffer writes one capture buffer to the data buffer.
func serializeBuffer(b *CaptureBuffer, data []byte, offset int) int {
	binary.LittleEndian.PutUint64(data[offset:], b.frame)
	offset += 8
	data[offset] = uint8(b.Mode)
	offset++
	copy(data[offset:], b.Legacy)
	offset += len(b.Legacy)
	copy(data[offset:], b.Second)
	offset += len(b.Second)
	for _, f := range b.Offsets {
		binary.LittleEndian.PutUint32(data[offset:], math.Float32bits(f))
		offset += 4
	}
	return offset
}

// deserializeBuffer reads one capture buffer from the data buffer. The
// buffer must already be sized for the stored geometry.
func deserializeBuffer(b *CaptureBuffer, data []byte, offset int) int {
	b.frame = binary.LittleEndian.Uint64(data[offset:])
	offset += 8
	b.Mode = ModeTag(data[offset])
	offset++
	offset += copy(b.Legacy, data[offset:offset+len(b.Legacy)])
	offset += copy(b.Second, data[offset:offset+len(b.Second)])
	for i := range b.Offsets {
		b.Offsets[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
	}
	return offset
}
