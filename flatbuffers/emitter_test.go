package flatbuffers

import (
	"bytes"
	"testing"
)

func TestPageRingEmitterSinglePage(t *testing.T) {
	e := NewPageRingEmitter()
	var iov IOVec
	iov.Push([]byte{1, 2, 3, 4})
	if err := e.Emit(&iov, -4); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if e.BufferSize() != 4 {
		t.Fatalf("want size 4, got %d", e.BufferSize())
	}
	buf, ok := e.DirectBuffer()
	if !ok {
		t.Fatalf("expected direct buffer available for single-page emit")
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Fatalf("want [1 2 3 4], got %v", buf)
	}
}

func TestPageRingEmitterSpansPages(t *testing.T) {
	e := NewPageRingEmitter()
	big := make([]byte, pageSize*3)
	for i := range big {
		big[i] = byte(i)
	}
	var iov IOVec
	iov.Push(big)
	if err := e.Emit(&iov, -int64(len(big))); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	dst := make([]byte, e.BufferSize())
	if !e.CopyBuffer(dst) {
		t.Fatalf("CopyBuffer failed")
	}
	if !bytes.Equal(dst, big) {
		t.Fatalf("multi-page round trip mismatch")
	}
}

func TestPageRingEmitterFrontAndBack(t *testing.T) {
	e := NewPageRingEmitter()
	var front IOVec
	front.Push([]byte{1, 2})
	if err := e.Emit(&front, -2); err != nil {
		t.Fatalf("front Emit: %v", err)
	}
	var back IOVec
	back.Push([]byte{3, 4})
	if err := e.Emit(&back, 0); err != nil {
		t.Fatalf("back Emit: %v", err)
	}
	buf, ok := e.DirectBuffer()
	if !ok {
		t.Fatalf("expected direct buffer for single shared page")
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Fatalf("front/back split mismatch: got %v", buf)
	}
}

func TestPageRingEmitterRecyclePage(t *testing.T) {
	e := NewPageRingEmitter()
	big := make([]byte, pageSize*3)
	var iov IOVec
	iov.Push(big)
	if err := e.Emit(&iov, -int64(len(big))); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if e.front == e.back {
		t.Fatalf("expected a multi-page ring")
	}
	if err := e.recyclePage(e.front); err == nil {
		t.Fatalf("recycling the front page must be rejected")
	}
	if err := e.recyclePage(e.back); err == nil {
		t.Fatalf("recycling the back page must be rejected")
	}
	mid := e.front.next
	if mid == e.back {
		t.Fatalf("ring too small for a middle page")
	}
	if err := e.recyclePage(mid); err != nil {
		t.Fatalf("recyclePage: %v", err)
	}

	// the recycled page must be reused before any new allocation.
	capBefore := e.capacity
	var more IOVec
	more.Push(make([]byte, pageSize))
	if err := e.Emit(&more, -int64(len(big)+pageSize)); err != nil {
		t.Fatalf("Emit after recycle: %v", err)
	}
	if e.capacity != capBefore {
		t.Fatalf("expected recycled page reuse, capacity grew %d -> %d", capBefore, e.capacity)
	}
}

func TestPageRingEmitterResetRecycles(t *testing.T) {
	e := NewPageRingEmitter()
	big := make([]byte, pageSize*4)
	var iov IOVec
	iov.Push(big)
	_ = e.Emit(&iov, -int64(len(big)))
	capBefore := e.capacity
	e.Reset()
	if e.used != 0 {
		t.Fatalf("want used reset to 0, got %d", e.used)
	}
	if e.capacity > capBefore {
		t.Fatalf("capacity should not grow on reset")
	}
}

func TestPageRingEmitterClear(t *testing.T) {
	e := NewPageRingEmitter()
	var iov IOVec
	iov.Push([]byte{1})
	_ = e.Emit(&iov, -1)
	e.Clear()
	if e.front != nil || e.used != 0 {
		t.Fatalf("Clear did not reset emitter to zero value")
	}
}
