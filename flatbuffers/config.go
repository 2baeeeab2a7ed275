package flatbuffers

import "github.com/flatbuild/flatbuild/internal/alloc"

// Config holds the knobs a Builder is constructed with. The zero
// Config is valid and matches the reference runtime's defaults.
type Config struct {
	// MaxLevel caps nesting depth: every open table, vector, string or
	// nested buffer frame counts as one level (tables-in-tables via
	// offsets are each finished on their own and add no level, and
	// CreateStruct opens no frame). 0 means unlimited.
	MaxLevel int

	// VtableCacheLimit caps how many distinct vtables are kept
	// available for deduplication before the oldest, least-recently
	// reused entries are evicted. 0 means unlimited.
	VtableCacheLimit int

	// BlockAlign, when non-zero, is folded into every buffer's root
	// alignment so the finished size is always a multiple of it (used
	// when buffers are framed by a fixed-size transport block).
	BlockAlign int

	// Identifier is the default 4-byte file identifier that Finish
	// stamps on a root buffer; FinishWithFileIdentifier overrides it.
	Identifier [IdentifierSize]byte
	HasIdentifier bool

	// DisableVtableClustering turns off placing top-level vtables at
	// the high end of the finished buffer. Placement only: vtable
	// deduplication is always on. This implementation emits every
	// vtable inline with its table regardless, so the flag is accepted
	// for configuration parity and does not change the bytes produced.
	DisableVtableClustering bool

	// AllowRepeatTableAdd makes a second TableAdd*/TableAddOffset call
	// on an already-written slot return nil instead of erroring; the
	// slot keeps pointing at the first value, and the second value's
	// bytes remain in the table body unreferenced. Mirrors
	// FLATCC_BUILDER_ALLOW_REPEAT_TABLE_ADD.
	AllowRepeatTableAdd bool

	// Emitter receives the buffer's bytes as each object is completed.
	// A nil Emitter defaults to a fresh PageRingEmitter.
	Emitter Emitter

	// Allocator supplies the backing storage for the growable byte
	// buffer and for FinalizeBuffer/FinalizeAlignedBuffer. A nil
	// Allocator defaults to alloc.NewGoAllocator().
	Allocator alloc.Allocator
}

// Option mutates a Config during NewBuilder.
type Option func(*Config)

func WithMaxLevel(n int) Option { return func(c *Config) { c.MaxLevel = n } }

func WithVtableCacheLimit(n int) Option { return func(c *Config) { c.VtableCacheLimit = n } }

func WithBlockAlign(n int) Option { return func(c *Config) { c.BlockAlign = n } }

func WithIdentifier(id [IdentifierSize]byte) Option {
	return func(c *Config) {
		c.Identifier = id
		c.HasIdentifier = true
	}
}

// WithIdentifierFromName derives the 4-byte identifier from the FNV-1a
// hash of a fully qualified type name, for schemas that stamp buffers
// with a type hash rather than a literal 4-character code.
func WithIdentifierFromName(name string) Option {
	return func(c *Config) {
		var id [IdentifierSize]byte
		WriteUint32(id[:], HashIdentifier([]byte(name)))
		c.Identifier = id
		c.HasIdentifier = true
	}
}

func WithDisableVtableClustering() Option {
	return func(c *Config) { c.DisableVtableClustering = true }
}

func WithAllowRepeatTableAdd() Option {
	return func(c *Config) { c.AllowRepeatTableAdd = true }
}

func WithEmitter(e Emitter) Option {
	return func(c *Config) { c.Emitter = e }
}

func WithAllocator(a alloc.Allocator) Option {
	return func(c *Config) { c.Allocator = a }
}
