// Package flatbuffers builds and reads FlatBuffers-encoded byte
// buffers: tables addressed indirectly through a shared vtable,
// scalar structs stored inline, vectors, strings, unions, and nested
// buffers, all using a single backward-growing byte array per
// in-flight buffer.
package flatbuffers
