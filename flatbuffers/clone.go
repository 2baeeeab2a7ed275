package flatbuffers

// CloneRef builds a copy of a source-side node identified by src,
// memoizing the result so that a second CloneRef call for the same
// src returns the previously built ref instead of duplicating it. This
// is what lets CloneTable/CloneVector-style helpers built on top of it
// preserve a DAG's sharing instead of flattening it into a tree on
// every copy.
//
// build is only invoked on a cache miss. Passing a stable, comparable
// identity for src (e.g. a source table's starting position) across
// every reachable edge into the same node is the caller's
// responsibility; CloneRef has no way to know two calls mean the same
// node otherwise.
func (b *Builder) CloneRef(src Ref, build func() (Ref, error)) (Ref, error) {
	if ref, ok := b.refmap.Find(src); ok {
		return ref, nil
	}
	ref, err := build()
	if err != nil {
		return 0, err
	}
	b.refmap.Insert(src, ref)
	return ref, nil
}

// FindClone reports whether src has already been cloned, without
// invoking any builder callback.
func (b *Builder) FindClone(src Ref) (Ref, bool) {
	return b.refmap.Find(src)
}

// ResetRefmap drops every recorded clone without releasing the
// underlying table, so a builder reused via Reset doesn't carry clone
// identities from a previous, unrelated buffer into the next one.
func (b *Builder) ResetRefmap() {
	b.refmap.Reset()
}
