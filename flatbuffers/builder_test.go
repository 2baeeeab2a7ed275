package flatbuffers

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/flatbuild/flatbuild/internal/alloc"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
)

func dumpDiff(t *testing.T, want, got []byte) {
	t.Helper()
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(spew.Sdump(want)),
		B:        difflib.SplitLines(spew.Sdump(got)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	require.NoError(t, err)
	t.Log(diff)
}

func TestEmptyTable(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	got := b.FinishedBytes()
	want := []byte{
		8, 0, 0, 0, // root uoffset
		4, 0, // vtable size
		4, 0, // table size
		4, 0, 0, 0, // soffset to vtable
	}
	if string(want) != string(got) {
		dumpDiff(t, want, got)
		t.Fatalf("empty table mismatch: want %v got %v", want, got)
	}
}

func TestTableScalarRoundTrip(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(3))
	require.NoError(t, b.TableAddInt32(0, 42, 0))
	require.NoError(t, b.TableAddBool(1, true, false))
	require.NoError(t, b.TableAddFloat64(2, 3.5, 0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	tbl := &Table{Bytes: buf, Pos: n}

	require.EqualValues(t, 42, tbl.GetInt32Slot(4, 0))
	require.True(t, tbl.GetBoolSlot(6, false))
	require.EqualValues(t, 3.5, tbl.GetFloat64Slot(8, 0))
}

func TestTableDefaultOmitted(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 7, 7)) // equals default: must be omitted
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	tbl := &Table{Bytes: buf, Pos: n}
	require.EqualValues(t, 7, tbl.GetInt32Slot(4, 7))
}

func TestStringRoundTrip(t *testing.T) {
	b := NewBuilder(0)
	s, err := b.CreateString("hello flatbuild")
	require.NoError(t, err)
	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddOffset(0, s))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	tbl := &Table{Bytes: buf, Pos: n}
	off := tbl.Offset(4)
	require.NotZero(t, off)
	require.Equal(t, "hello flatbuild", tbl.String(tbl.Pos+UOffsetT(off)))
}

func TestVtableSharedAcrossRows(t *testing.T) {
	b := NewBuilder(0)
	build := func(v int32) UOffsetT {
		require.NoError(t, b.StartTable(1))
		require.NoError(t, b.TableAddInt32(0, v, 0))
		ref, err := b.EndTable()
		require.NoError(t, err)
		return ref
	}
	r1 := build(1)
	r2 := build(2)

	vt := func(pos UOffsetT) UOffsetT {
		return UOffsetT(SOffsetT(pos) + GetSOffsetT(b.Bytes[UOffsetT(len(b.Bytes))-pos:]))
	}
	// both rows share the same field layout, so EndTable must have reused
	// one vtable instead of emitting two.
	require.Equal(t, vt(r1), vt(r2))
}

func TestVtableDedupWithClusteringDisabled(t *testing.T) {
	b := NewBuilder(0, WithDisableVtableClustering())
	build := func(v int32) UOffsetT {
		require.NoError(t, b.StartTable(1))
		require.NoError(t, b.TableAddInt32(0, v, 0))
		ref, err := b.EndTable()
		require.NoError(t, err)
		return ref
	}
	r1 := build(1)
	r2 := build(2)

	vt := func(pos UOffsetT) UOffsetT {
		return UOffsetT(SOffsetT(pos) + GetSOffsetT(b.Bytes[UOffsetT(len(b.Bytes))-pos:]))
	}
	// clustering is a placement knob; deduplication must hold with it
	// disabled too.
	require.Equal(t, vt(r1), vt(r2))
}

func TestRepeatTableAddRejectedByDefault(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 1, 0))
	err := b.TableAddInt32(0, 2, 0)
	require.ErrorIs(t, err, ErrDuplicateField)
}

func TestRepeatTableAddAllowed(t *testing.T) {
	b := NewBuilder(0, WithAllowRepeatTableAdd())
	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 1, 0))
	require.NoError(t, b.TableAddInt32(0, 2, 0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	tbl := &Table{Bytes: buf, Pos: n}
	require.EqualValues(t, 1, tbl.GetInt32Slot(4, 0))
}

func TestCheckRequiredFieldMissing(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(1))
	b.CheckRequiredField(0)
	_, err := b.EndTable()
	require.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestCheckUnionFieldMismatch(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(2))
	require.NoError(t, b.TableAddUType(0, 1, 0))
	err := b.CheckUnionField(0, 1)
	require.ErrorIs(t, err, ErrUnpairedUnion)
}

func TestVectorOfUint16Padding(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartVector(SizeUint16, 3, SizeUint16))
	b.PrependUint16(3)
	b.PrependUint16(2)
	b.PrependUint16(1)
	ref, err := b.EndVector(3)
	require.NoError(t, err)
	require.NoError(t, b.Finish(ref))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	vecStart := n + UOffsetT(SizeUOffsetT)
	length := GetUOffsetT(buf[n:])
	require.EqualValues(t, 3, length)
	require.EqualValues(t, 1, GetUint16(buf[vecStart:]))
	require.EqualValues(t, 2, GetUint16(buf[vecStart+2:]))
	require.EqualValues(t, 3, GetUint16(buf[vecStart+4:]))
}

func TestNestedBufferWrapRoundTrip(t *testing.T) {
	b := NewBuilder(0)

	// the nested buffer is opened first so its table, vtable and header
	// all land inside the region WrapBuffer later exposes as a vector.
	require.NoError(t, b.StartBuffer([]byte("INNR"), false))
	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 99, 0))
	innerRoot, err := b.EndTable()
	require.NoError(t, err)
	innerRef, innerLen, err := b.EndBuffer(innerRoot)
	require.NoError(t, err)
	require.Equal(t, innerRef, b.Offset())

	vecRef, err := b.WrapBuffer(innerLen)
	require.NoError(t, err)

	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddOffset(0, vecRef))
	outerRoot, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(outerRoot))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	outer := &Table{Bytes: buf, Pos: n}
	require.NotZero(t, outer.Offset(4))

	// sliced out, the nested bytes must form a self-contained buffer
	// with its own identifier and a readable root table.
	sliced := append([]byte(nil), outer.ByteVector(outer.Pos+UOffsetT(outer.Offset(4)))...)
	require.EqualValues(t, innerLen, len(sliced))
	require.Equal(t, "INNR", string(sliced[SizeUOffsetT:SizeUOffsetT+IdentifierSize]))
	inner := &Table{Bytes: sliced, Pos: GetUOffsetT(sliced)}
	require.EqualValues(t, 99, inner.GetInt32Slot(4, 0))
}

func TestVtableNotSharedAcrossNestedBuffers(t *testing.T) {
	b := NewBuilder(0)

	vtOf := func(pos UOffsetT) UOffsetT {
		return UOffsetT(SOffsetT(pos) + GetSOffsetT(b.Bytes[UOffsetT(len(b.Bytes))-pos:]))
	}

	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 1, 0))
	outerRow, err := b.EndTable()
	require.NoError(t, err)

	require.NoError(t, b.StartBuffer(nil, false))
	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 2, 0))
	innerRow, err := b.EndTable()
	require.NoError(t, err)
	_, _, err = b.EndBuffer(innerRow)
	require.NoError(t, err)

	// outerRow and innerRow have byte-identical vtable content (one
	// int32 field at the same slot) but were built at different
	// nesting levels, so their vt_refs must not be shared.
	require.NotEqual(t, vtOf(outerRow), vtOf(innerRow))
}

func TestVtableSharedWithinSameNestedBuffer(t *testing.T) {
	b := NewBuilder(0)

	vtOf := func(pos UOffsetT) UOffsetT {
		return UOffsetT(SOffsetT(pos) + GetSOffsetT(b.Bytes[UOffsetT(len(b.Bytes))-pos:]))
	}

	require.NoError(t, b.StartBuffer(nil, false))

	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 1, 0))
	r1, err := b.EndTable()
	require.NoError(t, err)

	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddInt32(0, 2, 0))
	r2, err := b.EndTable()
	require.NoError(t, err)

	_, _, err = b.EndBuffer(r2)
	require.NoError(t, err)

	require.Equal(t, vtOf(r1), vtOf(r2))
}

// recordingEmitter captures every Emit call's concatenated bytes, so a
// test can observe emission granularity and order directly instead of
// only inspecting the builder's own local buffer.
type recordingEmitter struct {
	calls [][]byte
}

func (e *recordingEmitter) Emit(iov *IOVec, offset int64) error {
	var buf []byte
	for _, entry := range iov.Entries() {
		buf = append(buf, entry...)
	}
	e.calls = append(e.calls, buf)
	return nil
}

func TestEmitterCalledPerCompletedObject(t *testing.T) {
	rec := &recordingEmitter{}
	b := NewBuilder(0, WithEmitter(rec))

	build := func(v int32) UOffsetT {
		require.NoError(t, b.StartTable(1))
		require.NoError(t, b.TableAddInt32(0, v, 0))
		ref, err := b.EndTable()
		require.NoError(t, err)
		return ref
	}
	build(1)
	r2 := build(2)
	require.NoError(t, b.Finish(r2))

	// first table writes a fresh vtable alongside its body (one flush),
	// the second reuses that vtable (one flush for its body only), and
	// Finish flushes the root header: three calls, never one.
	require.Len(t, rec.calls, 3)

	var total int
	for _, c := range rec.calls {
		total += len(c)
	}
	require.Equal(t, b.GetBufferSize(), total)
}

func TestCreateStructRoundTrip(t *testing.T) {
	b := NewBuilder(0)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	structStart, err := b.CreateStruct(data, 8)
	require.NoError(t, err)

	require.NoError(t, b.StartTable(1))
	require.NoError(t, b.TableAddStruct(0, structStart))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	buf := b.FinishedBytes()
	n := GetUOffsetT(buf)
	tbl := &Table{Bytes: buf, Pos: n}
	off := tbl.Offset(4)
	require.NotZero(t, off)
	pos := tbl.Pos + UOffsetT(off)
	require.Equal(t, data, []byte(buf[pos:pos+8]))
}

func TestFinalizeBufferBeforeFinishErrors(t *testing.T) {
	b := NewBuilder(0)
	_, err := b.FinalizeBuffer()
	require.ErrorIs(t, err, ErrNotFinished)
	_, err = b.FinalizeAlignedBuffer()
	require.ErrorIs(t, err, ErrNotFinished)
}

func TestFinalizeBufferCopiesOwned(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	want := append([]byte(nil), b.FinishedBytes()...)
	got, err := b.FinalizeBuffer()
	require.NoError(t, err)
	require.Equal(t, want, got)

	// mutating the builder's own buffer must not affect the owned copy.
	b.Bytes[len(b.Bytes)-1] ^= 0xFF
	require.Equal(t, want, got)
}

func TestFinalizeAlignedBufferRoundsUpAlignment(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	want := b.FinishedBytes()
	got, err := b.FinalizeAlignedBuffer()
	require.NoError(t, err)
	align := b.GetBufferAlignment()
	require.Zero(t, len(got)%align)
	require.Equal(t, want, got[:len(want)])
}

// countingAllocator wraps alloc.GoAllocator to confirm growByteBuffer
// actually draws storage through the configured Allocator facade rather
// than allocating directly.
type countingAllocator struct {
	alloc.GoAllocator
	allocs int
}

func (a *countingAllocator) Allocate(size int) []byte {
	a.allocs++
	return a.GoAllocator.Allocate(size)
}

func TestGrowByteBufferUsesConfiguredAllocator(t *testing.T) {
	a := &countingAllocator{}
	b := NewBuilder(1, WithAllocator(a))
	require.GreaterOrEqual(t, a.allocs, 1)

	before := a.allocs
	require.NoError(t, b.StartVector(1, 4096, 1))
	for i := 0; i < 4096; i++ {
		b.PrependByte(byte(i))
	}
	_, err := b.EndVector(4096)
	require.NoError(t, err)
	require.Greater(t, a.allocs, before)
}

func TestCloneRefMemoizes(t *testing.T) {
	b := NewBuilder(0)
	calls := 0
	build := func() (Ref, error) {
		calls++
		return b.CreateString("shared")
	}
	r1, err := b.CloneRef(100, build)
	require.NoError(t, err)
	r2, err := b.CloneRef(100, build)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
	require.Equal(t, 1, calls)
}

func TestEmptyTableWithIdentifier(t *testing.T) {
	b := NewBuilder(0, WithIdentifier([4]byte{'T', 'E', 'S', 'T'}))
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	got := b.FinishedBytes()
	want := []byte{
		12, 0, 0, 0, // root uoffset
		'T', 'E', 'S', 'T',
		4, 0, // vtable size
		4, 0, // table size
		4, 0, 0, 0, // soffset to vtable
	}
	if string(want) != string(got) {
		dumpDiff(t, want, got)
		t.Fatalf("identified empty table mismatch: want %v got %v", want, got)
	}
}

func TestStructOnlyRoot(t *testing.T) {
	b := NewBuilder(0)
	s, err := b.CreateStruct([]byte{0x04, 0x03, 0x02, 0x01}, 4)
	require.NoError(t, err)
	require.NoError(t, b.Finish(s))

	got := b.FinishedBytes()
	want := []byte{
		4, 0, 0, 0, // root uoffset
		0x04, 0x03, 0x02, 0x01, // the struct's one little-endian u32
	}
	require.Equal(t, want, got)
}

func TestWithIdentifierFromName(t *testing.T) {
	b := NewBuilder(0, WithIdentifierFromName("Example.Monster"))
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))

	buf := b.FinishedBytes()
	require.Equal(t, HashIdentifier([]byte("Example.Monster")), GetUint32(buf[SizeUOffsetT:]))
}

func TestFinishWithBadIdentifierLength(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.ErrorIs(t, b.FinishWithFileIdentifier(root, []byte("AB")), ErrIdentifierSize)
}

func TestStartBufferBadIdentifierLength(t *testing.T) {
	b := NewBuilder(0)
	require.ErrorIs(t, b.StartBuffer([]byte("AB"), false), ErrIdentifierSize)
}

func TestFieldIDRange(t *testing.T) {
	b := NewBuilder(0)
	require.NoError(t, b.StartTable(1))
	require.ErrorIs(t, b.TableAddInt32(maxFieldSlot+1, 1, 0), ErrFieldRange)
	require.NoError(t, b.TableAddInt32(0, 1, 0))
}

func TestFrameTypeAccessors(t *testing.T) {
	b := NewBuilder(0)
	require.Equal(t, FrameNone, b.FrameType())

	require.NoError(t, b.StartBuffer(nil, false))
	require.Equal(t, FrameBuffer, b.FrameType())
	require.NoError(t, b.StartTable(1))
	require.Equal(t, FrameTable, b.FrameType())
	require.Equal(t, 2, b.GetLevel())
	require.Equal(t, FrameBuffer, b.FrameTypeAt(1))
	require.Equal(t, FrameTable, b.FrameTypeAt(2))
	require.Equal(t, FrameNone, b.FrameTypeAt(3))
}

func TestMaxLevelEnforced(t *testing.T) {
	b := NewBuilder(0, WithMaxLevel(1))
	require.NoError(t, b.StartTable(1))
	require.ErrorIs(t, b.StartVector(1, 1, 1), ErrMaxDepth)
}

func TestEmbedBufferSelfContained(t *testing.T) {
	inner := NewBuilder(0, WithIdentifier([4]byte{'I', 'N', 'N', 'R'}))
	require.NoError(t, inner.StartTable(1))
	require.NoError(t, inner.TableAddInt32(0, 7, 0))
	root, err := inner.EndTable()
	require.NoError(t, err)
	require.NoError(t, inner.Finish(root))
	payload := append([]byte(nil), inner.FinishedBytes()...)

	outer := NewBuilder(0)
	vec, err := outer.EmbedBuffer(payload, inner.GetBufferAlignment())
	require.NoError(t, err)
	require.NoError(t, outer.StartTable(1))
	require.NoError(t, outer.TableAddOffset(0, vec))
	oroot, err := outer.EndTable()
	require.NoError(t, err)
	require.NoError(t, outer.Finish(oroot))

	buf := outer.FinishedBytes()
	tbl := &Table{Bytes: buf, Pos: GetUOffsetT(buf)}
	sliced := tbl.ByteVector(tbl.Pos + UOffsetT(tbl.Offset(4)))
	// embedding must be byte-identical to copying the finished buffer
	// into a plain [ubyte] vector.
	require.Equal(t, payload, append([]byte(nil), sliced...))
	embedded := &Table{Bytes: sliced, Pos: GetUOffsetT(sliced)}
	require.EqualValues(t, 7, embedded.GetInt32Slot(4, 0))
}

func TestResetReusesBuffer(t *testing.T) {
	b := NewBuilder(64)
	require.NoError(t, b.StartTable(0))
	root, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root))
	first := append([]byte(nil), b.FinishedBytes()...)

	b.Reset()
	require.NoError(t, b.StartTable(0))
	root2, err := b.EndTable()
	require.NoError(t, err)
	require.NoError(t, b.Finish(root2))
	second := b.FinishedBytes()

	require.Equal(t, first, second)
}
