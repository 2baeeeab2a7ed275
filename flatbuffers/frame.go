package flatbuffers

import "github.com/flatbuild/flatbuild/internal/alloc"

// FrameKind discriminates what a stack frame was opened for, since the
// table, vector, string and buffer builders share one nesting stack the
// way the reference runtime shares its frame pool across object kinds.
type FrameKind uint8

const (
	FrameNone FrameKind = iota
	FrameTable
	FrameVector
	FrameString
	FrameBuffer
	FrameStruct
)

// frame captures everything that must be restored when the object it
// was opened for closes: the write cursor and alignment in effect
// before nesting began, plus kind-specific bookkeeping.
type frame struct {
	kind FrameKind

	// savedMinAlign/savedHead let EndTable/EndVector/EndBuffer fold the
	// child's alignment requirement into the parent instead of losing
	// it once the child is closed.
	savedMinAlign int
	savedHead     UOffsetT

	// table frame fields.
	vtable    []UOffsetT // slot -> Offset() right after the field was written, 0 = unset
	objectEnd UOffsetT
	anyField  bool
	nestID    int
	required  []int

	// vector/string frame fields. Growable vectors and strings stage
	// their elements in scratch until End* lays them out in one pass.
	vectorLen int
	elemSize  int
	elemAlign int
	staged    bool
	scratch   []byte

	// buffer frame fields.
	bufferIdentifier [IdentifierSize]byte
	bufferHasID      bool
	sizePrefixed     bool
	savedNest        int
}

// pushFrame opens a new nesting level, enforcing Config.MaxLevel.
func (b *Builder) pushFrame(kind FrameKind) (*frame, error) {
	if b.config.MaxLevel > 0 && len(b.frames) >= b.config.MaxLevel {
		return nil, ErrMaxDepth
	}
	b.frames = append(b.frames, frame{
		kind:          kind,
		savedMinAlign: b.minalign,
		savedHead:     b.Head(),
	})
	return &b.frames[len(b.frames)-1], nil
}

func (b *Builder) currentFrame() (*frame, bool) {
	if len(b.frames) == 0 {
		return nil, false
	}
	return &b.frames[len(b.frames)-1], true
}

// popFrame closes the current level and folds its alignment
// requirement (which may exceed the parent's) back into b.minalign,
// matching flatcc's exit_frame "set_min_align" behavior.
func (b *Builder) popFrame() frame {
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	if b.minalign > f.savedMinAlign {
		// keep the wider requirement; the parent must still satisfy it.
	} else {
		b.minalign = f.savedMinAlign
	}
	return f
}

// FrameType reports the kind of the innermost open frame, or FrameNone
// when nothing is open.
func (b *Builder) FrameType() FrameKind {
	if len(b.frames) == 0 {
		return FrameNone
	}
	return b.frames[len(b.frames)-1].kind
}

// FrameTypeAt reports the kind of the frame at the given nesting level,
// 1 being the outermost and GetLevel() the innermost.
func (b *Builder) FrameTypeAt(level int) FrameKind {
	if level < 1 || level > len(b.frames) {
		return FrameNone
	}
	return b.frames[level-1].kind
}

// The user frame stack is an independent scratch arena callers push
// per-operation state onto (e.g. generated code tracking a partially
// assembled row so it can unwind on error), never consulted by
// Start/End* at all. Each frame is a word-sized header holding the
// previous frame's handle, followed by the payload rounded up to a
// whole number of words; a handle is the byte offset of the frame's
// payload within the arena.
const (
	userFrameWord  = 8
	userFrameFloor = 64
)

// EnterUserFrame allocates a zeroed payload of size bytes on the user
// frame stack and returns its handle.
func (b *Builder) EnterUserFrame(size int) (UOffsetT, error) {
	if size < 0 {
		return 0, ErrInvalidSize
	}
	size = (size + userFrameWord - 1) &^ (userFrameWord - 1)
	n := len(b.us)
	b.us = alloc.Grow(b.us, n+userFrameWord+size, userFrameFloor)
	alloc.Zero(b.us, n)
	WriteUint64(b.us[n:], uint64(b.usFrame))
	b.usFrame = UOffsetT(n + userFrameWord)
	return b.usFrame, nil
}

// GetCurrentUserFrame reports the handle of the innermost open user
// frame, or ok=false if the stack is empty.
func (b *Builder) GetCurrentUserFrame() (UOffsetT, bool) {
	if b.usFrame == 0 {
		return 0, false
	}
	return b.usFrame, true
}

// GetUserFramePtr returns the payload bytes of the user frame at
// handle. The slice is invalidated by the next EnterUserFrame or
// ExitUserFrame*.
func (b *Builder) GetUserFramePtr(handle UOffsetT) []byte {
	return b.us[handle:]
}

// ExitUserFrameAt pops every user frame at or above handle and returns
// the handle of the frame left open below it, 0 when none remain.
func (b *Builder) ExitUserFrameAt(handle UOffsetT) (UOffsetT, error) {
	if b.usFrame == 0 || handle < userFrameWord || handle > b.usFrame {
		return 0, ErrNoUserFrame
	}
	prev := UOffsetT(ReadUint64(b.us[handle-userFrameWord:]))
	b.us = b.us[:handle-userFrameWord]
	b.usFrame = prev
	return prev, nil
}

// ExitUserFrame pops the innermost user frame.
func (b *Builder) ExitUserFrame() (UOffsetT, error) {
	return b.ExitUserFrameAt(b.usFrame)
}
