package flatbuffers

import "testing"

func TestRefmapInsertFind(t *testing.T) {
	m := newRefmap()
	m.Insert(10, 100)
	m.Insert(20, 200)
	if v, ok := m.Find(10); !ok || v != 100 {
		t.Fatalf("want (100,true), got (%d,%v)", v, ok)
	}
	if v, ok := m.Find(20); !ok || v != 200 {
		t.Fatalf("want (200,true), got (%d,%v)", v, ok)
	}
	if _, ok := m.Find(30); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestRefmapOverwrite(t *testing.T) {
	m := newRefmap()
	m.Insert(1, 10)
	m.Insert(1, 20)
	if v, ok := m.Find(1); !ok || v != 20 {
		t.Fatalf("want overwritten value 20, got %d", v)
	}
	if m.Len() != 1 {
		t.Fatalf("want 1 live entry, got %d", m.Len())
	}
}

func TestRefmapGrowPreservesEntries(t *testing.T) {
	m := newRefmap()
	const n = 500
	for i := Ref(0); i < n; i++ {
		m.Insert(i, i*2)
	}
	for i := Ref(0); i < n; i++ {
		v, ok := m.Find(i)
		if !ok || v != i*2 {
			t.Fatalf("key %d: want (%d,true), got (%d,%v)", i, i*2, v, ok)
		}
	}
}

func TestRefmapResetClearsButKeepsTable(t *testing.T) {
	m := newRefmap()
	m.Insert(1, 1)
	m.Reset()
	if m.Len() != 0 {
		t.Fatalf("want 0 after reset, got %d", m.Len())
	}
	if _, ok := m.Find(1); ok {
		t.Fatalf("expected miss after reset")
	}
	m.Insert(2, 2)
	if v, ok := m.Find(2); !ok || v != 2 {
		t.Fatalf("table unusable after reset")
	}
}

func TestNilRefmapIsAlwaysMiss(t *testing.T) {
	var m *refmap
	if _, ok := m.Find(5); ok {
		t.Fatalf("nil refmap must always miss")
	}
}
