package flatbuffers

import "math"

// Every wire scalar is a fixed-width little-endian value, independent
// of host byte order.
type (
	UOffsetT = uint32
	SOffsetT = int32
	VOffsetT = uint16
	UType    = uint8
)

const (
	SizeByte     = 1
	SizeBool     = 1
	SizeUint8    = 1
	SizeUint16   = 2
	SizeUint32   = 4
	SizeUint64   = 8
	SizeInt8     = 1
	SizeInt16    = 2
	SizeInt32    = 4
	SizeInt64    = 8
	SizeFloat32  = 4
	SizeFloat64  = 8
	SizeUOffsetT = 4
	SizeSOffsetT = 4
	SizeVOffsetT = 2
	SizeUType    = 1
)

// IdentifierSize is the fixed width of a buffer identifier.
const IdentifierSize = 4

func ReadByte(b []byte) byte { return b[0] }
func WriteByte(b []byte, v byte) { b[0] = v }

func ReadBool(b []byte) bool { return b[0] != 0 }
func WriteBool(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

func ReadUint8(b []byte) uint8     { return b[0] }
func WriteUint8(b []byte, v uint8) { b[0] = v }

func ReadInt8(b []byte) int8     { return int8(b[0]) }
func WriteInt8(b []byte, v int8) { b[0] = byte(v) }

func ReadUint16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0]) | uint16(b[1])<<8
}

func WriteUint16(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func ReadInt16(b []byte) int16     { return int16(ReadUint16(b)) }
func WriteInt16(b []byte, v int16) { WriteUint16(b, uint16(v)) }

func ReadUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func WriteUint32(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func ReadInt32(b []byte) int32     { return int32(ReadUint32(b)) }
func WriteInt32(b []byte, v int32) { WriteUint32(b, uint32(v)) }

func ReadUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func WriteUint64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

func ReadInt64(b []byte) int64     { return int64(ReadUint64(b)) }
func WriteInt64(b []byte, v int64) { WriteUint64(b, uint64(v)) }

func ReadFloat32(b []byte) float32 { return math.Float32frombits(ReadUint32(b)) }
func WriteFloat32(b []byte, v float32) { WriteUint32(b, math.Float32bits(v)) }

func ReadFloat64(b []byte) float64 { return math.Float64frombits(ReadUint64(b)) }
func WriteFloat64(b []byte, v float64) { WriteUint64(b, math.Float64bits(v)) }

func ReadUOffsetT(b []byte) UOffsetT { return ReadUint32(b) }
func WriteUOffsetT(b []byte, v UOffsetT) { WriteUint32(b, v) }

func ReadSOffsetT(b []byte) SOffsetT { return ReadInt32(b) }
func WriteSOffsetT(b []byte, v SOffsetT) { WriteInt32(b, v) }

func ReadVOffsetT(b []byte) VOffsetT { return ReadUint16(b) }
func WriteVOffsetT(b []byte, v VOffsetT) { WriteUint16(b, v) }

func ReadUType(b []byte) UType { return b[0] }
func WriteUType(b []byte, v UType) { b[0] = v }

const (
	fnvOffsetBasis32 uint32 = 2166136261
	fnvPrime32       uint32 = 16777619
)

// HashIdentifier computes the FNV-1a hash of a fully-qualified type
// name, used as the 4-byte little-endian buffer identifier when one
// isn't given as a literal 4-character code. A zero hash (vanishingly
// unlikely, but possible) is replaced by the FNV offset basis so that
// 0 continues to mean "no identifier" everywhere else in the builder.
func HashIdentifier(name []byte) uint32 {
	h := fnvOffsetBasis32
	for _, c := range name {
		h ^= uint32(c)
		h *= fnvPrime32
	}
	if h == 0 {
		h = fnvOffsetBasis32
	}
	return h
}

// Disperse is an auxiliary integer hash (two rounds of xorshift-multiply)
// suitable as a hash-table key derivation for values such as pointers or
// small integers. It is never part of the wire format and is exposed
// purely as a utility for callers building their own lookup structures
// on top of the builder's refs.
func Disperse(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x45d9f3b
	x ^= x >> 16
	x *= 0x45d9f3b
	x ^= x >> 16
	return x
}
