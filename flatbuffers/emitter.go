package flatbuffers

import "fmt"

// Emitter is the sink a Builder streams completed byte ranges to. It is
// called as soon as an object (a table together with any vtable newly
// written for it, a vector, string, struct, or buffer header) is fully
// formed, in emission order: by the time any offset is handed to Emit,
// the data it points at has already been emitted.
//
// offset is negative for front-emitted data (tables, vectors, strings,
// struct roots — everything that grows toward lower addresses) and
// non-negative for back-emitted data (clustered vtables at the top
// level). A non-nil return poisons the builder.
type Emitter interface {
	Emit(iov *IOVec, offset int64) error
}

// Resettable is implemented by emitters that support the builder's
// Reset/Clear lifecycle.
type Resettable interface {
	Reset()
	Clear()
}

// DirectBufferEmitter is implemented by emitters that can hand back a
// zero-copy view of the finished buffer when it happens to fit in a
// single contiguous region.
type DirectBufferEmitter interface {
	DirectBuffer() (buf []byte, ok bool)
}

// CopyBufferEmitter is implemented by emitters that can concatenate
// their internal representation into a caller-supplied slice.
type CopyBufferEmitter interface {
	CopyBuffer(dst []byte) bool
}

// maxPageSize is rounded down to exclude the last two alignment
// multiples of pageMultiple so that every page_offset issued to a
// caller (useful for out-of-band transmission bookkeeping) remains a
// multiple of pageMultiple.
const (
	maxPageSize  = 32000
	pageMultiple = 64
	pageSize     = maxPageSize &^ (2*pageMultiple - 1)
)

type page struct {
	buf        [pageSize]byte
	next, prev *page
	// offset is the logical virtual offset of this page's first byte;
	// informational only (useful if a custom emitter ships pages out
	// for transmission), not consulted by Emit itself.
	offset int64
}

// PageRingEmitter is the default Emitter: a ring of fixed-size pages
// that grows in both directions from a shared first page, split so
// that front and back cursors start out on opposite halves of it. It
// never moves already-written bytes, unlike an exponentially growing
// single buffer, which makes page recycling for partial transmission
// possible mid-construction.
type PageRingEmitter struct {
	front, back         *page
	frontLeft, backLeft int
	used, capacity      int
	usedAverage         int
}

// NewPageRingEmitter returns a ready-to-use default emitter.
func NewPageRingEmitter() *PageRingEmitter {
	return &PageRingEmitter{}
}

var _ Emitter = (*PageRingEmitter)(nil)
var _ Resettable = (*PageRingEmitter)(nil)
var _ DirectBufferEmitter = (*PageRingEmitter)(nil)
var _ CopyBufferEmitter = (*PageRingEmitter)(nil)

func (e *PageRingEmitter) advanceFront() {
	if e.front != nil && e.front.prev != e.back {
		e.front.prev.offset = e.front.offset - pageSize
		e.front = e.front.prev
		e.frontLeft = pageSize
		e.front.offset = e.front.next.offset - pageSize
		return
	}
	p := &page{}
	e.capacity += pageSize
	if e.front != nil {
		p.prev = e.back
		p.next = e.front
		e.front.prev = p
		e.back.next = p
		e.front = p
		e.frontLeft = pageSize
		e.front.offset = e.front.next.offset - pageSize
		return
	}
	// First page: shared between front and back, split in half.
	p.next = p
	p.prev = p
	e.front = p
	e.back = p
	e.frontLeft = pageSize / 2
	e.backLeft = pageSize - e.frontLeft
	p.offset = -int64(e.frontLeft)
}

func (e *PageRingEmitter) advanceBack() {
	if e.back != nil && e.back.next != e.front {
		e.back = e.back.next
		e.backLeft = pageSize
		e.back.offset = e.back.prev.offset + pageSize
		return
	}
	p := &page{}
	e.capacity += pageSize
	if e.back != nil {
		p.prev = e.back
		p.next = e.front
		e.front.prev = p
		e.back.next = p
		e.back = p
		e.backLeft = pageSize
		e.back.offset = e.back.prev.offset + pageSize
		return
	}
	p.next = p
	p.prev = p
	e.front = p
	e.back = p
	e.frontLeft = pageSize / 2
	e.backLeft = pageSize - e.frontLeft
	p.offset = -int64(e.frontLeft)
}

func (e *PageRingEmitter) copyFront(data []byte) {
	size := len(data)
	for size > 0 {
		k := size
		if k > e.frontLeft {
			k = e.frontLeft
			if k == 0 {
				e.advanceFront()
				continue
			}
		}
		e.frontLeft -= k
		size -= k
		copy(e.front.buf[e.frontLeft:e.frontLeft+k], data[size:size+k])
	}
}

func (e *PageRingEmitter) copyBack(data []byte) {
	size := len(data)
	pos := 0
	for size > 0 {
		k := size
		if k > e.backLeft {
			k = e.backLeft
			if k == 0 {
				e.advanceBack()
				continue
			}
		}
		start := pageSize - e.backLeft
		copy(e.back.buf[start:start+k], data[pos:pos+k])
		e.backLeft -= k
		size -= k
		pos += k
	}
}

// Emit implements Emitter.
func (e *PageRingEmitter) Emit(iov *IOVec, offset int64) error {
	e.used += iov.Len()
	entries := iov.Entries()
	if offset < 0 {
		// Front writes copy the iov entries in reverse, since the
		// logical byte range is assembled back-to-front.
		for i := len(entries) - 1; i >= 0; i-- {
			e.copyFront(entries[i])
		}
	} else {
		for _, b := range entries {
			e.copyBack(b)
		}
	}
	return nil
}

// recyclePage unlinks a page strictly between front and back from the
// ring and relinks it in the free region ahead of the front cursor, so
// already-transmitted data's page is reused before any new allocation.
// Recycling the front or back page itself is rejected.
func (e *PageRingEmitter) recyclePage(p *page) error {
	if p == e.front || p == e.back {
		return fmt.Errorf("flatbuffers: cannot recycle the active front/back page")
	}
	p.next.prev = p.prev
	p.prev.next = p.next
	p.prev = e.front.prev
	p.next = e.front
	p.prev.next = p
	p.next.prev = p
	return nil
}

// Reset collapses the ring back to a single shared page and
// heuristically frees pages whose count exceeds twice a decaying
// moving average of recently observed usage.
func (e *PageRingEmitter) Reset() {
	if e.front == nil {
		return
	}
	e.back = e.front
	e.frontLeft = pageSize / 2
	e.backLeft = pageSize - e.frontLeft
	e.front.offset = -int64(e.frontLeft)

	if e.usedAverage == 0 {
		e.usedAverage = e.used
	}
	e.usedAverage = e.usedAverage*3/4 + e.used/4
	e.used = 0

	for e.usedAverage*2 < e.capacity && e.back.next != e.front {
		p := e.back.next
		e.back.next = p.next
		p.next.prev = e.back
		e.capacity -= pageSize
	}
}

// Clear releases every page, returning the emitter to its zero value.
func (e *PageRingEmitter) Clear() {
	*e = PageRingEmitter{}
}

// BufferSize is the number of bytes passed to Emit so far.
func (e *PageRingEmitter) BufferSize() int { return e.used }

// DirectBuffer implements DirectBufferEmitter: it only succeeds when
// every byte emitted so far landed on the single shared first page.
func (e *PageRingEmitter) DirectBuffer() ([]byte, bool) {
	if e.front == e.back && e.front != nil {
		buf := e.front.buf[e.frontLeft : pageSize-e.backLeft]
		return buf[:len(buf):len(buf)], true
	}
	return nil, false
}

// CopyBuffer concatenates every page into dst, which must be at least
// BufferSize() bytes. Returns false if dst is too small or nothing has
// been emitted yet.
func (e *PageRingEmitter) CopyBuffer(dst []byte) bool {
	if len(dst) < e.used || e.front == nil {
		return false
	}
	if e.front == e.back {
		// Single shared page: the live region runs from the front
		// cursor to the back cursor.
		copy(dst, e.front.buf[e.frontLeft:pageSize-e.backLeft])
		return true
	}
	n := copy(dst, e.front.buf[e.frontLeft:])
	p := e.front.next
	for p != e.back {
		n += copy(dst[n:], p.buf[:])
		p = p.next
	}
	copy(dst[n:], e.back.buf[:pageSize-e.backLeft])
	return true
}
