package flatbuffers

import (
	"github.com/flatbuild/flatbuild/internal/alloc"
	"golang.org/x/xerrors"
)

// Builder assembles one or more nested FlatBuffers into a single
// contiguous byte array that grows from its end backward, exactly as
// the classic runtime does, but with a vtable cache, required-field
// checks, refmap-based cloning, frame/user-frame stacks, and nested
// buffer support layered on top.
type Builder struct {
	config Config

	// Bytes is the buffer under construction. Live data occupies
	// Bytes[head:]; Bytes[:head] is unused capacity reserved for
	// future front growth.
	Bytes []byte
	head  UOffsetT

	// flushedUpTo is the head value as of the last call to flush: every
	// byte in Bytes[head:flushedUpTo] has been written since and not yet
	// handed to the Emitter. Nothing below this cursor is ever touched
	// again once flushed, since every write only ever prepends further
	// in front of it.
	flushedUpTo UOffsetT

	minalign int

	frames []frame

	// us is the user frame arena; usFrame is the handle (payload byte
	// offset) of the innermost open user frame, 0 when none.
	us      []byte
	usFrame UOffsetT

	vtables    *vtableCache
	refmap     *refmap
	sharedStrs map[string]UOffsetT

	bufferAlignStack []int
	level, maxLevel  int

	// curNest identifies the innermost buffer currently under
	// construction (0 = top level); nestSeq is the monotonic source of
	// new ids handed out by StartBuffer. Keeping these on the builder
	// rather than as package globals means two builders never share
	// nest identity, matching the "no shared mutable state across
	// instances" rule every other piece of this package already
	// follows.
	curNest int
	nestSeq int

	finished bool
}

// NewBuilder returns a Builder with an initial capacity hint (as with
// the classic runtime, this is advisory: the buffer still grows on
// demand).
func NewBuilder(initialSize int, opts ...Option) *Builder {
	if initialSize <= 0 {
		initialSize = 1024
	}
	b := &Builder{}
	for _, opt := range opts {
		opt(&b.config)
	}
	if b.config.Allocator == nil {
		b.config.Allocator = alloc.NewGoAllocator()
	}
	b.Bytes = b.config.Allocator.Allocate(initialSize)
	b.head = UOffsetT(initialSize)
	b.flushedUpTo = UOffsetT(initialSize)
	b.minalign = 1
	b.vtables = newVtableCache(b.config.VtableCacheLimit)
	b.refmap = newRefmap()
	if b.config.Emitter == nil {
		b.config.Emitter = NewPageRingEmitter()
	}
	return b
}

// Reset rewinds the builder to an empty, unfinished state. The backing
// array is kept when the previous build used more than half of it and
// reallocated to the used size otherwise; the vtable cache, refmap and
// shared-string table are emptied, since their refs point into the
// previous buffer.
func (b *Builder) Reset() {
	if len(b.Bytes) > 0 {
		// Shrink an oversized buffer back toward what the previous build
		// actually used, with the same hysteresis the allocator facade
		// applies everywhere else, so one unusually large buffer doesn't
		// permanently inflate every build that follows it.
		used := int(UOffsetT(len(b.Bytes)) - b.head)
		b.Bytes = alloc.ShrinkTo(b.Bytes, used)
		alloc.Zero(b.Bytes, 0)
	}
	b.head = UOffsetT(len(b.Bytes))
	b.flushedUpTo = b.head
	b.minalign = 1
	b.frames = b.frames[:0]
	b.us = b.us[:0]
	b.usFrame = 0
	b.bufferAlignStack = b.bufferAlignStack[:0]
	b.level = 0
	b.curNest = 0
	b.nestSeq = 0
	b.finished = false
	b.vtables.Reset()
	b.refmap.Reset()
	for k := range b.sharedStrs {
		delete(b.sharedStrs, k)
	}
	if r, ok := b.config.Emitter.(Resettable); ok {
		r.Reset()
	}
}

// Clear releases every resource the builder holds, including the
// vtable cache and the emitter's pages. Use Reset for the common case
// of building many buffers back to back; Clear is for discarding the
// builder altogether.
func (b *Builder) Clear() {
	if b.Bytes != nil {
		b.config.Allocator.Free(b.Bytes)
	}
	b.Bytes = nil
	b.head = 0
	b.flushedUpTo = 0
	b.minalign = 1
	b.frames = nil
	b.us = nil
	b.usFrame = 0
	b.bufferAlignStack = nil
	b.level = 0
	b.curNest = 0
	b.nestSeq = 0
	b.finished = false
	b.vtables = newVtableCache(b.config.VtableCacheLimit)
	b.refmap = newRefmap()
	b.sharedStrs = nil
	if r, ok := b.config.Emitter.(Resettable); ok {
		r.Clear()
	}
}

// Head returns the current write cursor: the offset of the first live
// byte in Bytes.
func (b *Builder) Head() UOffsetT { return b.head }

// Offset returns the current length of already-written data, which is
// also what a ref to "the next thing built" would resolve to.
func (b *Builder) Offset() UOffsetT { return UOffsetT(len(b.Bytes)) - b.head }

// GetLevel reports current table/vector/buffer nesting depth.
func (b *Builder) GetLevel() int { return len(b.frames) }

// GetBufferSize reports the number of live bytes built so far for the
// buffer currently open (or just finished).
func (b *Builder) GetBufferSize() int { return int(UOffsetT(len(b.Bytes)) - b.head) }

// GetBufferStart and GetBufferEnd bound the live region of Bytes.
func (b *Builder) GetBufferStart() int { return int(b.head) }
func (b *Builder) GetBufferEnd() int   { return len(b.Bytes) }

// GetBufferAlignment reports the alignment requirement accumulated so
// far for the buffer currently under construction.
func (b *Builder) GetBufferAlignment() int { return b.minalign }

func (b *Builder) growByteBuffer(needed int) {
	if len(b.Bytes) == 0 {
		sz := 1
		for sz < needed {
			sz *= 2
		}
		b.Bytes = b.config.Allocator.Allocate(sz)
		b.head = UOffsetT(sz)
		b.flushedUpTo = UOffsetT(sz)
		return
	}
	if (int64(len(b.Bytes)) & int64(0xC0000000)) != 0 {
		panic("cannot grow buffer beyond 2 gigabytes")
	}
	sz := len(b.Bytes)
	for sz < needed {
		sz *= 2
	}
	bigger := b.config.Allocator.Allocate(sz)
	copy(bigger[sz-len(b.Bytes):], b.Bytes)
	delta := UOffsetT(sz - len(b.Bytes))
	b.config.Allocator.Free(b.Bytes)
	b.head += delta
	b.flushedUpTo += delta
	b.Bytes = bigger
}

// Pad places n zero bytes at the front of the buffer.
func (b *Builder) Pad(n int) {
	for i := 0; i < n; i++ {
		b.place1(0)
	}
}

// Prep reserves room for an upcoming write of size align bytes,
// followed immediately by additionalBytes more already-committed
// bytes (e.g. the soffset that precedes a table's first field),
// inserting whatever front padding is needed to satisfy align.
func (b *Builder) Prep(align, additionalBytes int) {
	if align > b.minalign {
		b.minalign = align
	}
	alignSize := (^(int(b.Offset()) + additionalBytes) + 1) & (align - 1)
	needed := alignSize + align + additionalBytes
	if int(b.head) < needed {
		b.growByteBuffer(needed + len(b.Bytes))
	}
	b.Pad(alignSize)
}

func (b *Builder) place1(v byte) {
	b.head--
	b.Bytes[b.head] = v
}

func (b *Builder) placeN(v []byte) {
	b.head -= UOffsetT(len(v))
	copy(b.Bytes[b.head:], v)
}

// --- scalar prepend family -------------------------------------------------

func (b *Builder) PrependByte(v byte) { b.Prep(SizeByte, 0); b.place1(v) }

func (b *Builder) PrependBool(v bool) {
	b.Prep(SizeBool, 0)
	if v {
		b.place1(1)
	} else {
		b.place1(0)
	}
}

func (b *Builder) PrependUint8(v uint8) { b.Prep(SizeUint8, 0); b.place1(v) }
func (b *Builder) PrependInt8(v int8)   { b.Prep(SizeInt8, 0); b.place1(byte(v)) }

func (b *Builder) PrependUint16(v uint16) {
	b.Prep(SizeUint16, 0)
	var tmp [2]byte
	WriteUint16(tmp[:], v)
	b.placeN(tmp[:])
}
func (b *Builder) PrependInt16(v int16) { b.PrependUint16(uint16(v)) }

func (b *Builder) PrependUint32(v uint32) {
	b.Prep(SizeUint32, 0)
	var tmp [4]byte
	WriteUint32(tmp[:], v)
	b.placeN(tmp[:])
}
func (b *Builder) PrependInt32(v int32) { b.PrependUint32(uint32(v)) }

func (b *Builder) PrependUint64(v uint64) {
	b.Prep(SizeUint64, 0)
	var tmp [8]byte
	WriteUint64(tmp[:], v)
	b.placeN(tmp[:])
}
func (b *Builder) PrependInt64(v int64) { b.PrependUint64(uint64(v)) }

func (b *Builder) PrependFloat32(v float32) {
	b.Prep(SizeFloat32, 0)
	var tmp [4]byte
	WriteFloat32(tmp[:], v)
	b.placeN(tmp[:])
}
func (b *Builder) PrependFloat64(v float64) {
	b.Prep(SizeFloat64, 0)
	var tmp [8]byte
	WriteFloat64(tmp[:], v)
	b.placeN(tmp[:])
}

func (b *Builder) PrependUOffsetT(off UOffsetT) {
	b.Prep(SizeUOffsetT, 0)
	rel := b.Offset() - off + UOffsetT(SizeUOffsetT)
	var tmp [4]byte
	WriteUint32(tmp[:], rel)
	b.placeN(tmp[:])
}

func (b *Builder) PrependSOffsetT(off SOffsetT) {
	b.Prep(SizeSOffsetT, 0)
	var tmp [4]byte
	WriteSOffsetT(tmp[:], off)
	b.placeN(tmp[:])
}

func (b *Builder) PrependVOffsetT(v VOffsetT) {
	b.Prep(SizeVOffsetT, 0)
	var tmp [2]byte
	WriteVOffsetT(tmp[:], v)
	b.placeN(tmp[:])
}

func (b *Builder) PrependUType(v UType) { b.PrependByte(v) }

// PrependBytes writes raw, already-laid-out bytes (a struct, or an
// identifier) with no additional alignment beyond what the caller
// already arranged via Prep.
func (b *Builder) PrependBytes(v []byte) {
	b.Prep(1, len(v))
	b.placeN(v)
}

// flush hands every byte written since the last flush to the
// configured Emitter as a single scatter entry, in true emission
// order: EndTable, EndVector, EndBuffer and CreateStruct each call this
// the moment their object is fully formed, so a streaming Emitter (one
// that ships pages out as they fill rather than buffering a whole
// message) never waits longer than it has to for data referenced by an
// offset it already has.
func (b *Builder) flush() error {
	if b.head >= b.flushedUpTo {
		return nil
	}
	var iov IOVec
	iov.Push(b.Bytes[b.head:b.flushedUpTo])
	if err := b.config.Emitter.Emit(&iov, -int64(b.Offset())); err != nil {
		return xerrors.Errorf("flatbuffers: emit: %w", err)
	}
	b.flushedUpTo = b.head
	return nil
}

// finalize writes the root header (and optional file identifier),
// flushes whatever remains unflushed through the configured Emitter,
// and marks the builder finished; it is shared by Finish and
// FinishWithFileIdentifier.
func (b *Builder) finalize(root UOffsetT, identifier []byte) error {
	if len(b.frames) != 0 {
		return ErrNested
	}
	if b.finished {
		return ErrFinished
	}
	align := b.minalign
	if b.config.BlockAlign > 0 {
		align = lcm(align, b.config.BlockAlign)
	}
	extra := SizeUOffsetT
	if identifier != nil {
		extra += IdentifierSize
	}
	b.Prep(align, extra)
	if identifier != nil {
		b.placeN(identifier)
	}
	b.PrependUOffsetT(root)

	if err := b.flush(); err != nil {
		return err
	}
	b.finished = true
	return nil
}

// Finish closes the buffer with root as the top-level object.
func (b *Builder) Finish(root UOffsetT) error {
	if !b.config.HasIdentifier {
		return b.finalize(root, nil)
	}
	id := b.config.Identifier
	return b.finalize(root, id[:])
}

// FinishWithFileIdentifier closes the buffer stamping a 4-byte file
// identifier ahead of the root offset, overriding Config.Identifier.
func (b *Builder) FinishWithFileIdentifier(root UOffsetT, identifier []byte) error {
	if len(identifier) != IdentifierSize {
		return ErrIdentifierSize
	}
	return b.finalize(root, identifier)
}

// FinishedBytes returns the finished buffer's live region. Panics if
// the builder has not been finished, matching the classic runtime's
// assertion discipline for programmer errors.
func (b *Builder) FinishedBytes() []byte {
	if !b.finished {
		panic("flatbuffers: buffer not finished")
	}
	return b.Bytes[b.head:]
}

// FinalizeBuffer allocates a fresh buffer through the configured
// Allocator, sized to the finished buffer's length, and copies the
// finished bytes into it: an owned copy decoupled from both the
// builder's internal storage and the emitter's, for a caller that
// wants to hand the result somewhere the builder's own lifetime won't
// reach (e.g. enqueue it and Reset the builder immediately).
func (b *Builder) FinalizeBuffer() ([]byte, error) {
	if !b.finished {
		return nil, ErrNotFinished
	}
	buf := b.FinishedBytes()
	out := b.config.Allocator.Allocate(len(buf))
	copy(out, buf)
	return out, nil
}

// FinalizeAlignedBuffer is like FinalizeBuffer but the returned slice's
// backing array starts on a boundary aligned to the finished buffer's
// own alignment requirement (GetBufferAlignment), with the allocation
// size rounded up to a multiple of that alignment, for callers handing
// the result to code that assumes aligned access (e.g. mmap-backed
// readers or SIMD-friendly struct access).
func (b *Builder) FinalizeAlignedBuffer() ([]byte, error) {
	if !b.finished {
		return nil, ErrNotFinished
	}
	buf := b.FinishedBytes()
	align := b.GetBufferAlignment()
	if align < 1 {
		align = 1
	}
	rounded := ((len(buf) + align - 1) / align) * align
	out := alloc.AlignedAlloc(rounded, align)
	copy(out, buf)
	return out, nil
}

// GetDirectBuffer exposes the configured emitter's zero-copy view, if
// it supports one and the data happens to be contiguous.
func (b *Builder) GetDirectBuffer() ([]byte, bool) {
	if d, ok := b.config.Emitter.(DirectBufferEmitter); ok {
		return d.DirectBuffer()
	}
	return nil, false
}

// CopyBuffer concatenates the emitter's pages into dst.
func (b *Builder) CopyBuffer(dst []byte) bool {
	if c, ok := b.config.Emitter.(CopyBufferEmitter); ok {
		return c.CopyBuffer(dst)
	}
	return false
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
