package flatbuffers

import "github.com/flatbuild/flatbuild/internal/alloc"

// scratchFloor is the initial capacity granted to a growable vector or
// string frame's staging buffer.
const scratchFloor = 256

// maxVectorBytes caps count*elemSize so a vector's byte length always
// fits the signed offset range.
const maxVectorBytes = int64(1) << 31

// StartVector opens a vector frame for numElems elements of elemSize
// bytes each, aligned to elemAlign (which must be a power of two and
// at least elemSize for scalar vectors). The elements themselves are
// written directly with the Prepend* family, last element first.
func (b *Builder) StartVector(elemSize, numElems, elemAlign int) error {
	if elemSize <= 0 || numElems < 0 || int64(elemSize)*int64(numElems) >= maxVectorBytes {
		return ErrOverflow
	}
	f, err := b.pushFrame(FrameVector)
	if err != nil {
		return err
	}
	b.Prep(SizeUOffsetT, elemSize*numElems)
	b.Prep(elemAlign, elemSize*numElems)
	f.elemSize = elemSize
	f.elemAlign = elemAlign
	f.vectorLen = numElems
	return nil
}

// EndVector closes the vector frame, writing its length prefix, and
// returns its ref. n must equal the count passed to StartVector.
func (b *Builder) EndVector(n int) (UOffsetT, error) {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameVector || f.staged {
		return 0, ErrNotNested
	}
	b.PrependUint32(uint32(n))
	ref := b.Offset()
	b.popFrame()
	if err := b.flush(); err != nil {
		return 0, err
	}
	return ref, nil
}

// CreateVector writes an already-encoded block of count elements of
// elemSize bytes each as a vector aligned to elemAlign, in one shot.
func (b *Builder) CreateVector(data []byte, count, elemSize, elemAlign int) (UOffsetT, error) {
	if elemSize <= 0 || count < 0 || len(data) != count*elemSize {
		return 0, ErrInvalidSize
	}
	if err := b.StartVector(elemSize, count, elemAlign); err != nil {
		return 0, err
	}
	b.placeN(data)
	return b.EndVector(count)
}

// StartGrowableVector opens a vector whose element count doesn't need
// to be known up front: elements are staged off to the side by
// PushElement/ExtendVector (and can be taken back by TruncateVector)
// until EndGrowableVector lays the whole block out in one pass.
func (b *Builder) StartGrowableVector(elemSize, elemAlign int) error {
	if elemSize <= 0 {
		return ErrInvalidSize
	}
	f, err := b.pushFrame(FrameVector)
	if err != nil {
		return err
	}
	f.elemSize = elemSize
	f.elemAlign = elemAlign
	f.staged = true
	return nil
}

// PushElement appends one already-encoded element to the growable
// vector currently open. len(elem) must equal the element size the
// vector was started with.
func (b *Builder) PushElement(elem []byte) error {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameVector || !f.staged {
		return ErrNotNested
	}
	if len(elem) != f.elemSize {
		return ErrInvalidSize
	}
	n := len(f.scratch)
	f.scratch = alloc.Grow(f.scratch, n+f.elemSize, scratchFloor)
	copy(f.scratch[n:], elem)
	return nil
}

// ExtendVector reserves staging space for count more elements and
// returns it for the caller to fill in place, saving a copy when
// elements are produced directly in their encoded form.
func (b *Builder) ExtendVector(count int) ([]byte, error) {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameVector || !f.staged {
		return nil, ErrNotNested
	}
	if count < 0 || int64(count)*int64(f.elemSize)+int64(len(f.scratch)) >= maxVectorBytes {
		return nil, ErrOverflow
	}
	n := len(f.scratch)
	f.scratch = alloc.Grow(f.scratch, n+count*f.elemSize, scratchFloor)
	return f.scratch[n:], nil
}

// TruncateVector removes the count most recently staged elements.
func (b *Builder) TruncateVector(count int) error {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameVector || !f.staged {
		return ErrNotNested
	}
	n := count * f.elemSize
	if count < 0 || n > len(f.scratch) {
		return ErrVectorUnderflow
	}
	f.scratch = f.scratch[:len(f.scratch)-n]
	return nil
}

// EndGrowableVector closes the growable vector, laying the staged
// elements out with the same padding a one-shot CreateVector of the
// final count would have produced, and returns its ref.
func (b *Builder) EndGrowableVector() (UOffsetT, error) {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameVector || !f.staged {
		return 0, ErrNotNested
	}
	count := len(f.scratch) / f.elemSize
	b.Prep(SizeUOffsetT, len(f.scratch))
	b.Prep(f.elemAlign, len(f.scratch))
	b.placeN(f.scratch)
	b.PrependUint32(uint32(count))
	ref := b.Offset()
	b.popFrame()
	if err := b.flush(); err != nil {
		return 0, err
	}
	return ref, nil
}

// CreateString writes a UTF-8 string as a byte vector with a trailing
// NUL the reader never sees but which lets a returned *string alias
// point straight at wire memory in languages that want one.
func (b *Builder) CreateString(s string) (UOffsetT, error) {
	if err := b.StartVector(1, len(s)+1, 1); err != nil {
		return 0, err
	}
	b.place1(0)
	b.placeN([]byte(s))
	return b.EndVector(len(s))
}

// StartString opens a string whose content is accumulated by
// AppendString until EndString. Bytes are staged the same way a
// growable vector's are, so a string assembled in pieces ends up
// byte-identical to one written via CreateString.
func (b *Builder) StartString() error {
	f, err := b.pushFrame(FrameString)
	if err != nil {
		return err
	}
	f.elemSize = 1
	f.staged = true
	return nil
}

// AppendString adds s to the string currently open.
func (b *Builder) AppendString(s string) error {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameString {
		return ErrNotNested
	}
	n := len(f.scratch)
	f.scratch = alloc.Grow(f.scratch, n+len(s), scratchFloor)
	copy(f.scratch[n:], s)
	return nil
}

// EndString closes the string, writing the trailing NUL and the length
// prefix (which does not count the NUL), and returns its ref.
func (b *Builder) EndString() (UOffsetT, error) {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameString {
		return 0, ErrNotNested
	}
	n := len(f.scratch)
	b.Prep(SizeUOffsetT, n+1)
	b.place1(0)
	b.placeN(f.scratch)
	b.PrependUint32(uint32(n))
	ref := b.Offset()
	b.popFrame()
	if err := b.flush(); err != nil {
		return 0, err
	}
	return ref, nil
}

// CreateSharedString behaves like CreateString but returns the ref of
// a previously created identical string instead of writing a new copy,
// the way CreateSharedString does in the reference runtime when a
// schema reuses the same enum-like string constants across many rows.
func (b *Builder) CreateSharedString(s string) (UOffsetT, error) {
	if b.sharedStrs == nil {
		b.sharedStrs = make(map[string]UOffsetT)
	}
	if ref, ok := b.sharedStrs[s]; ok {
		return ref, nil
	}
	ref, err := b.CreateString(s)
	if err != nil {
		return 0, err
	}
	b.sharedStrs[s] = ref
	return ref, nil
}

// CreateByteVector writes a raw byte vector verbatim, with no trailing
// NUL.
func (b *Builder) CreateByteVector(v []byte) (UOffsetT, error) {
	if err := b.StartVector(1, len(v), 1); err != nil {
		return 0, err
	}
	b.placeN(v)
	return b.EndVector(len(v))
}

// CreateByteString is an alias for CreateByteVector kept for callers
// porting code that thinks of a length-prefixed blob as a "byte
// string" rather than a vector of uint8.
func (b *Builder) CreateByteString(v []byte) (UOffsetT, error) {
	return b.CreateByteVector(v)
}

// PushUOffsetT writes one element of an offset-vector (a vector of
// tables, strings, or nested vectors) currently under construction via
// StartVector, converting the absolute ref into the element-relative
// uoffset the wire format requires.
func (b *Builder) PushUOffsetT(off UOffsetT) {
	b.PrependUOffsetT(off)
}

// CreateOffsetVector is the one-shot convenience for building a vector
// of already-finished refs (tables, strings, or nested vectors) when
// every element is known up front. A zero ref is rejected: only a
// union vector may carry NONE slots, and those go through
// CreateUnionVector.
func (b *Builder) CreateOffsetVector(refs []UOffsetT) (UOffsetT, error) {
	for _, r := range refs {
		if r == 0 {
			return 0, ErrZeroRef
		}
	}
	return b.createOffsetVector(refs)
}

// createOffsetVector writes refs without the zero check; a zero ref is
// stored as a literal zero word (union NONE).
func (b *Builder) createOffsetVector(refs []UOffsetT) (UOffsetT, error) {
	if err := b.StartVector(SizeUOffsetT, len(refs), SizeUOffsetT); err != nil {
		return 0, err
	}
	for i := len(refs) - 1; i >= 0; i-- {
		if refs[i] == 0 {
			b.PrependUint32(0)
			continue
		}
		b.PushUOffsetT(refs[i])
	}
	return b.EndVector(len(refs))
}

// UnionValue pairs a union's discriminant with its value ref. The wire
// invariant is type == 0 if and only if value == 0: a NONE entry
// carries neither discriminant nor value.
type UnionValue struct {
	Type  UType
	Value UOffsetT
}

// CreateUnionVector builds a union vector: a types vector of UType
// alongside a parallel values vector of UOffsetT, exactly as flatcc's
// create_union_vector_direct lays the two out back to back so a reader
// can zip them by index.
func (b *Builder) CreateUnionVector(values []UnionValue) (typesRef, valuesRef UOffsetT, err error) {
	refs := make([]UOffsetT, len(values))
	for i, v := range values {
		if (v.Type == 0) != (v.Value == 0) {
			return 0, 0, ErrUnpairedUnion
		}
		refs[i] = v.Value
	}
	valuesRef, err = b.createOffsetVector(refs)
	if err != nil {
		return 0, 0, err
	}
	if err := b.StartVector(SizeUType, len(values), SizeUType); err != nil {
		return 0, 0, err
	}
	for i := len(values) - 1; i >= 0; i-- {
		b.PrependUType(values[i].Type)
	}
	typesRef, err = b.EndVector(len(values))
	return typesRef, valuesRef, err
}

// CreateTypeVector builds only the discriminant half of a union
// vector, for callers that already maintain the values vector
// separately.
func (b *Builder) CreateTypeVector(types []UType) (UOffsetT, error) {
	if err := b.StartVector(SizeUType, len(types), SizeUType); err != nil {
		return 0, err
	}
	for i := len(types) - 1; i >= 0; i-- {
		b.PrependUType(types[i])
	}
	return b.EndVector(len(types))
}
