package flatbuffers

import "unsafe"

// Get* mirror the Read* family under the names Table's accessors were
// originally written against, so table.go's slot-reading methods carry
// over unchanged from the vtable layout this package now writes.
func GetBool(b []byte) bool       { return ReadBool(b) }
func GetByte(b []byte) byte       { return ReadByte(b) }
func GetUint8(b []byte) uint8     { return ReadUint8(b) }
func GetUint16(b []byte) uint16   { return ReadUint16(b) }
func GetUint32(b []byte) uint32   { return ReadUint32(b) }
func GetUint64(b []byte) uint64   { return ReadUint64(b) }
func GetInt8(b []byte) int8       { return ReadInt8(b) }
func GetInt16(b []byte) int16     { return ReadInt16(b) }
func GetInt32(b []byte) int32     { return ReadInt32(b) }
func GetInt64(b []byte) int64     { return ReadInt64(b) }
func GetFloat32(b []byte) float32 { return ReadFloat32(b) }
func GetFloat64(b []byte) float64 { return ReadFloat64(b) }
func GetUOffsetT(b []byte) UOffsetT { return ReadUOffsetT(b) }
func GetVOffsetT(b []byte) VOffsetT { return ReadVOffsetT(b) }
func GetSOffsetT(b []byte) SOffsetT { return ReadSOffsetT(b) }
func GetUType(b []byte) UType       { return ReadUType(b) }

// byteSliceToString aliases a byte slice as a string with no copy,
// valid only as long as the backing buffer is not mutated — safe here
// because a finished buffer's live region is never written to again.
func byteSliceToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}
