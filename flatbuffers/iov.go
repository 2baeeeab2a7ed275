package flatbuffers

// MaxIOVCount is the largest number of scatter entries the builder will
// ever hand to an emitter in one call. It is always a small, fixed
// number: a table header, its data, and trailing padding account for
// the overwhelming majority of calls.
const MaxIOVCount = 8

// IOVec is a small scatter list of byte ranges, handed to an Emitter
// together with the virtual offset at which they must be written and
// written as a single logical unit.
type IOVec struct {
	entries [MaxIOVCount][]byte
	count   int
	len     int
}

// Reset clears the vector for reuse without releasing its backing array.
func (v *IOVec) Reset() {
	for i := 0; i < v.count; i++ {
		v.entries[i] = nil
	}
	v.count = 0
	v.len = 0
}

// Push appends a byte range. Empty ranges are dropped rather than
// pushed, matching the `push_iov_cond` guard in the reference runtime.
func (v *IOVec) Push(b []byte) {
	if len(b) == 0 {
		return
	}
	if v.count >= MaxIOVCount {
		panic("flatbuffers: iovec overflow")
	}
	v.entries[v.count] = b
	v.count++
	v.len += len(b)
}

// PushIf pushes b only when cond holds.
func (v *IOVec) PushIf(b []byte, cond bool) {
	if cond {
		v.Push(b)
	}
}

// Len returns the sum of all pushed entry lengths.
func (v *IOVec) Len() int { return v.len }

// Entries returns the live scatter entries in push order.
func (v *IOVec) Entries() [][]byte { return v.entries[:v.count] }
