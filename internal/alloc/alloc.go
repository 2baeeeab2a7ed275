// Package alloc provides the byte-buffer allocation facade used by the
// flatbuffers builder: allocate/reallocate/free over raw byte slices,
// with the reallocate path preserving existing content. The builder's
// main byte buffer draws its storage through an Allocator, so callers
// can swap in pooled or pinned memory without touching builder logic;
// its smaller working slices are managed by the Grow and ShrinkTo
// helpers, which allocate with make.
package alloc

const alignment = 64

// Allocator is the facade a builder draws raw storage from. Swapping it
// out lets a caller use pooled or pinned memory without touching the
// builder logic.
type Allocator interface {
	Allocate(size int) []byte
	Reallocate(size int, b []byte) []byte
	Free(b []byte)
}

// GoAllocator is the default Allocator: plain Go heap allocation, with
// addresses rounded up to a 64-byte boundary so pages handed to the
// emitter never share a cache line with unrelated data.
type GoAllocator struct{}

// NewGoAllocator returns the default heap-backed Allocator.
func NewGoAllocator() *GoAllocator { return &GoAllocator{} }

func (a *GoAllocator) Allocate(size int) []byte {
	buf := make([]byte, size+alignment)
	addr := addressOf(buf)
	next := roundUpToMultipleOf(addr, alignment)
	if addr != next {
		shift := next - addr
		return buf[shift : size+shift : size+shift]
	}
	return buf[:size:size]
}

func (a *GoAllocator) Reallocate(size int, b []byte) []byte {
	if size == len(b) {
		return b
	}
	newBuf := a.Allocate(size)
	copy(newBuf, b)
	return newBuf
}

func (a *GoAllocator) Free(b []byte) {}

var _ Allocator = (*GoAllocator)(nil)

// AlignedAlloc returns a zeroed buffer of size, with the backing array
// starting on an `align`-byte boundary. Used by FinalizeAlignedBuffer to
// decouple the library's internal allocator from the one the
// application uses to receive the finished buffer.
func AlignedAlloc(size, align int) []byte {
	if align <= 0 {
		align = 1
	}
	buf := make([]byte, size+align)
	addr := addressOf(buf)
	next := roundUpToMultipleOf(addr, align)
	if addr != next {
		shift := next - addr
		return buf[shift : size+shift : size+shift]
	}
	return buf[:size:size]
}

// AlignedFree is a no-op under the Go garbage collector; it exists so
// callers that received a buffer from AlignedAlloc have a symmetric
// call to make, matching flatcc's aligned_alloc/aligned_free pairing.
func AlignedFree(b []byte) {}

func roundUpToMultipleOf(n, multiple int) int {
	return (n + multiple - 1) / multiple * multiple
}
