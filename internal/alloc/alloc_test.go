package alloc

import "testing"

func TestGoAllocatorAlignment(t *testing.T) {
	a := NewGoAllocator()
	buf := a.Allocate(100)
	if len(buf) != 100 {
		t.Fatalf("want len 100, got %d", len(buf))
	}
	if addressOf(buf)%alignment != 0 {
		t.Fatalf("buffer not aligned to %d", alignment)
	}
}

func TestReallocatePreservesContent(t *testing.T) {
	a := NewGoAllocator()
	buf := a.Allocate(8)
	copy(buf, []byte("abcdefgh"))
	buf = a.Reallocate(16, buf)
	if string(buf[:8]) != "abcdefgh" {
		t.Fatalf("content lost across reallocate: %q", buf[:8])
	}
	if len(buf) != 16 {
		t.Fatalf("want len 16, got %d", len(buf))
	}
}

func TestGrowDoublesWithFloor(t *testing.T) {
	var s []int
	s = Grow(s, 3, 8)
	if cap(s) != 8 {
		t.Fatalf("want floor-sized cap 8, got %d", cap(s))
	}
	s = Grow(s, 20, 8)
	if cap(s) < 20 {
		t.Fatalf("want cap >= 20, got %d", cap(s))
	}
}

func TestShrinkToHysteresis(t *testing.T) {
	s := make([]byte, 10, 100)
	s2 := ShrinkTo(s, 60) // > cap/2, no reallocation expected
	if cap(s2) != cap(s) {
		t.Fatalf("expected no shrink above half capacity")
	}
	s3 := ShrinkTo(s, 10) // <= cap/2, reallocates tighter
	if cap(s3) != 10 {
		t.Fatalf("want tight cap 10, got %d", cap(s3))
	}
}
