package flatbuffers

import "errors"

// Ref is the builder's notion of "where a finished piece of buffer
// lives": the value of Offset() right after the object was written,
// i.e. the distance of its first byte from the end of the growing
// byte array (the object starts at Bytes[len(Bytes)-ref]).
// It is what flows through slots, vectors, and the refmap.
type Ref = UOffsetT

var (
	// ErrInvalidVtableRef names a vtable ref of zero. Zero is reserved
	// to mean "no vtable yet" and is never a valid vtable position: a
	// vtable's ref is the Offset() just past its own bytes, so at least
	// 4. No builder operation takes a vtable ref from the caller, and
	// none returns this error.
	ErrInvalidVtableRef = errors.New("flatbuffers: invalid vtable reference")

	// ErrNotNested is returned when StartVector/EndVector, TableAdd*,
	// or EndTable are called without a matching Start first.
	ErrNotNested = errors.New("flatbuffers: operation requires an open object")

	// ErrNested is returned by Finish/FinishWithFileIdentifier when a
	// table, vector, string or buffer frame is still open.
	ErrNested = errors.New("flatbuffers: object already open")

	// ErrFinished/ErrNotFinished guard Finish and the accessors that
	// only make sense before or after it, respectively.
	ErrFinished    = errors.New("flatbuffers: buffer already finished")
	ErrNotFinished = errors.New("flatbuffers: buffer not finished")

	// ErrDuplicateField is returned by TableAdd/TableAddOffset when a
	// slot has already been written in the current table and the
	// builder was not configured to allow repeat writes.
	ErrDuplicateField = errors.New("flatbuffers: field already set")

	// ErrFieldRange is returned when a slot index exceeds the largest
	// id a voffset-sized vtable entry can address.
	ErrFieldRange = errors.New("flatbuffers: field id out of range")

	// ErrMissingRequiredField is returned by EndTable when a field
	// marked required via CheckRequiredField was never written.
	ErrMissingRequiredField = errors.New("flatbuffers: required field missing")

	// ErrUnpairedUnion is returned when a union's type slot and value
	// slot disagree about presence.
	ErrUnpairedUnion = errors.New("flatbuffers: union type/value mismatch")

	// ErrZeroRef is returned by CreateOffsetVector when an element ref
	// is zero; only a union vector's NONE entries may store zero, and
	// those go through CreateUnionVector with a matching zero type.
	ErrZeroRef = errors.New("flatbuffers: zero ref in offset vector")

	// ErrStructOutOfOrder is returned by TableAddStruct when the struct
	// was not written immediately before the add, since structs are
	// inline and anything written in between would end up inside the
	// table.
	ErrStructOutOfOrder = errors.New("flatbuffers: struct must be written immediately before it is added")

	// ErrMaxDepth is returned when starting a new frame would exceed
	// Config.MaxLevel.
	ErrMaxDepth = errors.New("flatbuffers: maximum nesting depth exceeded")

	// ErrNoUserFrame is returned by ExitUserFrame/PopBufferAlignment
	// when the corresponding stack is empty.
	ErrNoUserFrame = errors.New("flatbuffers: no open user frame")

	// ErrIdentifierSize is returned when a buffer identifier is neither
	// empty nor exactly IdentifierSize bytes.
	ErrIdentifierSize = errors.New("flatbuffers: identifier must be exactly 4 bytes")

	// ErrInvalidSize is returned when an element size or count doesn't
	// describe the data provided.
	ErrInvalidSize = errors.New("flatbuffers: element size does not match data")

	// ErrOverflow is returned when a vector's byte length would exceed
	// the signed offset range. A buffer that would grow past 2 GiB is
	// not reported with it: growByteBuffer panics instead.
	ErrOverflow = errors.New("flatbuffers: size overflow")

	// ErrVectorUnderflow is returned by TruncateVector when asked to
	// remove more elements than have been pushed.
	ErrVectorUnderflow = errors.New("flatbuffers: truncate past empty vector")
)
