package flatbuffers

import "github.com/flatbuild/flatbuild/internal/alloc"

// vtableHashInit/vtableHashUpdate implement the reference runtime's
// Knuth multiplicative vtable hash. EndTable folds every field entry
// into it in one pass once the table's layout is final; the hash is
// not updated as each field is added.
const (
	vtableHashInit       uint32 = 0x2f693b52
	vtableHashMultiplier uint32 = 2654435761
)

// maxFieldSlot is the largest field id a voffset-sized vtable entry can
// address, after the two metadata slots.
const maxFieldSlot = int(^VOffsetT(0))/SizeVOffsetT - vtableMetadataFields - 1

func vtableHashUpdate(hash uint32, id VOffsetT, offset UOffsetT) uint32 {
	return (((uint32(id) ^ hash) * vtableHashMultiplier) ^ offset) * vtableHashMultiplier
}

// vtableEntry is one cached, already-emitted vtable available for
// reuse by a later EndTable whose field layout matches exactly.
type vtableEntry struct {
	fields []VOffsetT // serialized field entries, table-size and vtable-size included
	ref    UOffsetT   // Offset() at which this vtable's bytes begin
	hash   uint32
	nestID int // id of the buffer (Builder.curNest) this ref was emitted into
}

// vtableCache deduplicates vtables across EndTable calls: tables that
// share a field layout (the overwhelmingly common case for a vector of
// same-typed rows) emit exactly one vtable between them.
type vtableCache struct {
	buckets map[uint32][]*vtableEntry
	recent  []*vtableEntry
	limit   int
}

func newVtableCache(limit int) *vtableCache {
	return &vtableCache{buckets: make(map[uint32][]*vtableEntry), limit: limit}
}

func (c *vtableCache) Reset() {
	for k := range c.buckets {
		delete(c.buckets, k)
	}
	c.recent = c.recent[:0]
}

// find looks up a vtable with matching hash, field layout, AND nest
// id: a ref is only ever reusable within the buffer it was emitted
// into (spec "vtable isolation" invariant), so two nested buffers with
// byte-identical vtables never end up sharing a vt_ref.
func (c *vtableCache) find(hash uint32, fields []VOffsetT, nestID int) (*vtableEntry, bool) {
	bucket := c.buckets[hash]
	for i, e := range bucket {
		if e.nestID == nestID && vtableFieldsEqual(e.fields, fields) {
			// move-to-front within the bucket and the global LRU list.
			copy(bucket[1:i+1], bucket[:i])
			bucket[0] = e
			c.buckets[hash] = bucket
			c.touch(e)
			return e, true
		}
	}
	return nil, false
}

func (c *vtableCache) touch(e *vtableEntry) {
	for i, r := range c.recent {
		if r == e {
			copy(c.recent[1:i+1], c.recent[:i])
			c.recent[0] = e
			return
		}
	}
}

func (c *vtableCache) insert(e *vtableEntry) {
	c.buckets[e.hash] = append([]*vtableEntry{e}, c.buckets[e.hash]...)
	c.recent = append([]*vtableEntry{e}, c.recent...)
	if c.limit > 0 && len(c.recent) > c.limit {
		victim := c.recent[len(c.recent)-1]
		c.recent = c.recent[:len(c.recent)-1]
		bucket := c.buckets[victim.hash]
		for i, e2 := range bucket {
			if e2 == victim {
				c.buckets[victim.hash] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
	}
}

func vtableFieldsEqual(a, b []VOffsetT) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const vtableMetadataFields = 2 // vtable size, table size

// StartTable opens a table frame with room for numFields slots.
func (b *Builder) StartTable(numFields int) error {
	f, err := b.pushFrame(FrameTable)
	if err != nil {
		return err
	}
	f.vtable = make([]UOffsetT, numFields)
	f.nestID = b.curNest
	f.objectEnd = b.Offset()
	return nil
}

// slot records the current write position as the value for slot,
// with size naming the width of the field just written so the table's
// data start can be pinned to the first field rather than to whatever
// alignment padding preceded it (padding outside the table must not
// leak into the vtable's table-size, or identical layouts stop
// deduplicating). size 0 means the field's width is unknown (structs).
// A repeat write either errors or, under Config.AllowRepeatTableAdd,
// leaves the existing slot pointing at the first value and returns
// nil. In both cases the calling TableAdd* has already written the
// repeated value's bytes, which stay in the table body unreferenced.
func (b *Builder) slot(slot, size int) error {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameTable {
		return ErrNotNested
	}
	if slot < 0 || slot > maxFieldSlot {
		return ErrFieldRange
	}
	if slot >= len(f.vtable) {
		f.vtable = alloc.Grow(f.vtable, slot+1, slot+1)
	}
	if f.vtable[slot] != 0 {
		if b.config.AllowRepeatTableAdd {
			return nil
		}
		return ErrDuplicateField
	}
	if !f.anyField {
		f.anyField = true
		if size > 0 {
			f.objectEnd = b.Offset() - UOffsetT(size)
		}
	}
	f.vtable[slot] = b.Offset()
	return nil
}

// TableAddOffset records an already-written table/string/vector/union
// value ref into slot. Unlike scalar fields, offset fields have no
// default to omit against: a zero ref means "field absent" and the
// caller is expected not to call TableAddOffset at all in that case.
func (b *Builder) TableAddOffset(slot int, off UOffsetT) error {
	b.PrependUOffsetT(off)
	return b.slot(slot, SizeUOffsetT)
}

// TableAddStruct records an inline struct already written in place
// (structs have no indirection, so the slot simply records where the
// struct's bytes begin).
func (b *Builder) TableAddStruct(slot int, structStart UOffsetT) error {
	if structStart != b.Offset() {
		return ErrStructOutOfOrder
	}
	return b.slot(slot, 0)
}

func (b *Builder) TableAddBool(slot int, v, def bool) error {
	if v == def {
		return nil
	}
	b.PrependBool(v)
	return b.slot(slot, SizeBool)
}

func (b *Builder) TableAddByte(slot int, v, def byte) error {
	if v == def {
		return nil
	}
	b.PrependByte(v)
	return b.slot(slot, SizeByte)
}

func (b *Builder) TableAddUint8(slot int, v, def uint8) error {
	if v == def {
		return nil
	}
	b.PrependUint8(v)
	return b.slot(slot, SizeUint8)
}

func (b *Builder) TableAddInt8(slot int, v, def int8) error {
	if v == def {
		return nil
	}
	b.PrependInt8(v)
	return b.slot(slot, SizeInt8)
}

func (b *Builder) TableAddUint16(slot int, v, def uint16) error {
	if v == def {
		return nil
	}
	b.PrependUint16(v)
	return b.slot(slot, SizeUint16)
}

func (b *Builder) TableAddInt16(slot int, v, def int16) error {
	if v == def {
		return nil
	}
	b.PrependInt16(v)
	return b.slot(slot, SizeInt16)
}

func (b *Builder) TableAddUint32(slot int, v, def uint32) error {
	if v == def {
		return nil
	}
	b.PrependUint32(v)
	return b.slot(slot, SizeUint32)
}

func (b *Builder) TableAddInt32(slot int, v, def int32) error {
	if v == def {
		return nil
	}
	b.PrependInt32(v)
	return b.slot(slot, SizeInt32)
}

func (b *Builder) TableAddUint64(slot int, v, def uint64) error {
	if v == def {
		return nil
	}
	b.PrependUint64(v)
	return b.slot(slot, SizeUint64)
}

func (b *Builder) TableAddInt64(slot int, v, def int64) error {
	if v == def {
		return nil
	}
	b.PrependInt64(v)
	return b.slot(slot, SizeInt64)
}

func (b *Builder) TableAddFloat32(slot int, v, def float32) error {
	if v == def {
		return nil
	}
	b.PrependFloat32(v)
	return b.slot(slot, SizeFloat32)
}

func (b *Builder) TableAddFloat64(slot int, v, def float64) error {
	if v == def {
		return nil
	}
	b.PrependFloat64(v)
	return b.slot(slot, SizeFloat64)
}

func (b *Builder) TableAddUType(slot int, v, def UType) error {
	if v == def {
		return nil
	}
	b.PrependUType(v)
	return b.slot(slot, SizeUType)
}

// CheckRequiredField marks slot as mandatory; EndTable fails with
// ErrMissingRequiredField if it was never written.
func (b *Builder) CheckRequiredField(slot int) {
	f, ok := b.currentFrame()
	if !ok {
		return
	}
	f.required = append(f.required, slot)
}

// CheckRequired validates, independent of EndTable, that every slot in
// slots is set in the currently open table. Exposed for callers that
// want to check a batch up front rather than one at a time via
// CheckRequiredField.
func (b *Builder) CheckRequired(slots ...int) error {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameTable {
		return ErrNotNested
	}
	for _, s := range slots {
		if s >= len(f.vtable) || f.vtable[s] == 0 {
			return ErrMissingRequiredField
		}
	}
	return nil
}

// CheckUnionField validates that a union's type slot and value slot
// agree about presence: both set, or both absent.
func (b *Builder) CheckUnionField(typeSlot, valueSlot int) error {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameTable {
		return ErrNotNested
	}
	typeSet := typeSlot < len(f.vtable) && f.vtable[typeSlot] != 0
	valueSet := valueSlot < len(f.vtable) && f.vtable[valueSlot] != 0
	if typeSet != valueSet {
		return ErrUnpairedUnion
	}
	return nil
}

// EndTable closes the current table frame, deduplicating its vtable
// against the cache when an identical layout is already available,
// and returns the finished table's ref.
func (b *Builder) EndTable() (UOffsetT, error) {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameTable {
		return 0, ErrNotNested
	}
	for _, s := range f.required {
		if s >= len(f.vtable) || f.vtable[s] == 0 {
			b.popFrame()
			return 0, ErrMissingRequiredField
		}
	}

	// trim trailing unset slots.
	vt := f.vtable
	for len(vt) > 0 && vt[len(vt)-1] == 0 {
		vt = vt[:len(vt)-1]
	}

	b.PrependSOffsetT(0) // placeholder, patched below
	tableStart := b.Offset()
	if !f.anyField {
		// an empty table's data is just the vtable pointer itself; pin
		// objectEnd past any alignment padding the soffset needed.
		f.objectEnd = tableStart - UOffsetT(SizeSOffsetT)
	}

	hash := vtableHashInit
	fields := make([]VOffsetT, len(vt))
	for i := len(vt) - 1; i >= 0; i-- {
		var off VOffsetT
		if vt[i] != 0 {
			off = VOffsetT(tableStart - vt[i])
		}
		fields[i] = off
		hash = vtableHashUpdate(hash, VOffsetT(i), UOffsetT(off))
	}
	tableSize := VOffsetT(tableStart - f.objectEnd)
	vtSize := VOffsetT((len(fields) + vtableMetadataFields) * SizeVOffsetT)

	full := append([]VOffsetT{vtSize, tableSize}, fields...)

	// dedup is unconditional: identical vtable content within a buffer
	// always yields the same vt_ref, clustering or not.
	if existing, found := b.vtables.find(hash, full, f.nestID); found {
		b.rewindPlaceholder(tableStart, existing.ref)
		b.popFrame()
		if err := b.flush(); err != nil {
			return 0, err
		}
		return tableStart, nil
	}

	for i := len(fields) - 1; i >= 0; i-- {
		b.PrependVOffsetT(fields[i])
	}
	b.PrependVOffsetT(full[1])
	b.PrependVOffsetT(vtSize)
	vtRef := b.Offset()

	b.rewindPlaceholder(tableStart, vtRef)
	b.vtables.insert(&vtableEntry{fields: full, ref: vtRef, hash: hash, nestID: f.nestID})

	b.popFrame()
	if err := b.flush(); err != nil {
		return 0, err
	}
	return tableStart, nil
}

// rewindPlaceholder patches the soffset word written at the start of
// EndTable (when the table's Offset() was tableStart) to point at
// vtRef, which may be a freshly written vtable or one found in cache.
func (b *Builder) rewindPlaceholder(tableStart, vtRef UOffsetT) {
	pos := UOffsetT(len(b.Bytes)) - tableStart
	soffset := SOffsetT(int64(vtRef) - int64(tableStart))
	WriteSOffsetT(b.Bytes[pos:], soffset)
}

// CreateStruct writes a fixed-layout struct's already-encoded bytes in
// place (structs have no vtable indirection: every field is always
// present at a fixed byte offset known from the schema, not recorded
// here) and flushes it to the configured Emitter once written.
func (b *Builder) CreateStruct(data []byte, align int) (UOffsetT, error) {
	b.Prep(align, 0)
	b.placeN(data)
	ref := b.Offset()
	if err := b.flush(); err != nil {
		return 0, err
	}
	return ref, nil
}
