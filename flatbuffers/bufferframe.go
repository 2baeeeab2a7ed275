package flatbuffers

// StartBuffer opens a nested buffer frame: a complete,
// independently finished FlatBuffer built inline inside the one
// currently under construction, later wrapped as a byte vector field
// via WrapBuffer so an outer table can carry it without a second
// allocation. identifier is empty or exactly IdentifierSize bytes.
func (b *Builder) StartBuffer(identifier []byte, sizePrefixed bool) error {
	if len(identifier) != 0 && len(identifier) != IdentifierSize {
		return ErrIdentifierSize
	}
	f, err := b.pushFrame(FrameBuffer)
	if err != nil {
		return err
	}
	if len(identifier) == IdentifierSize {
		copy(f.bufferIdentifier[:], identifier)
		f.bufferHasID = true
	}
	f.sizePrefixed = sizePrefixed
	f.savedNest = b.curNest
	b.nestSeq++
	b.curNest = b.nestSeq
	return nil
}

// EndBuffer closes the nested buffer, returning both its ref and its
// total length in bytes so the caller can hand the length straight to
// WrapBuffer.
func (b *Builder) EndBuffer(root UOffsetT) (ref UOffsetT, length UOffsetT, err error) {
	f, ok := b.currentFrame()
	if !ok || f.kind != FrameBuffer {
		return 0, 0, ErrNotNested
	}
	startOffset := UOffsetT(len(b.Bytes)) - f.savedHead

	align := b.minalign
	if b.config.BlockAlign > 0 {
		align = lcm(align, b.config.BlockAlign)
	}
	extra := SizeUOffsetT
	if f.bufferHasID {
		extra += IdentifierSize
	}
	b.Prep(align, extra)
	if f.bufferHasID {
		id := f.bufferIdentifier
		b.placeN(id[:])
	}
	b.PrependUOffsetT(root)

	if f.sizePrefixed {
		sz := b.Offset() - startOffset
		b.PrependUint32(uint32(sz))
	}
	ref = b.Offset()
	length = ref - startOffset
	b.curNest = f.savedNest
	b.popFrame()
	if err := b.flush(); err != nil {
		return 0, 0, err
	}
	return ref, length, nil
}

// CreateBuffer is the one-shot form of StartBuffer/EndBuffer, for a
// nested buffer whose root and identifier are already known with no
// further fields to interleave.
func (b *Builder) CreateBuffer(root UOffsetT, identifier []byte, sizePrefixed bool) (ref, length UOffsetT, err error) {
	if err := b.StartBuffer(identifier, sizePrefixed); err != nil {
		return 0, 0, err
	}
	return b.EndBuffer(root)
}

// WrapBuffer wraps the length bytes of a just-closed nested buffer
// (which are already sitting immediately before the current write
// cursor) as a byte vector, so the parent can add it to a table field
// with TableAddOffset like any other vector. The vector's length
// prefix doubles as the nested buffer's size prefix, which is what
// makes a nested buffer readable both as a field and as a
// self-contained buffer once sliced out.
func (b *Builder) WrapBuffer(length UOffsetT) (UOffsetT, error) {
	b.Prep(SizeUOffsetT, 0)
	b.PrependUint32(uint32(length))
	return b.Offset(), nil
}

// EmbedBuffer copies an already-serialized buffer (finished by another
// builder, read from disk, received off the wire) into this one as a
// byte vector, preserving the embedded buffer's own alignment so its
// internal offsets stay valid when the vector is sliced back out.
func (b *Builder) EmbedBuffer(data []byte, align int) (UOffsetT, error) {
	if align < 1 {
		align = 1
	}
	if err := b.StartVector(1, len(data), align); err != nil {
		return 0, err
	}
	b.placeN(data)
	return b.EndVector(len(data))
}

// PushBufferAlignment saves the alignment accumulated so far and
// starts a fresh requirement, so that a nested buffer's internal
// alignment doesn't leak into the parent's root alignment beyond what
// EndBuffer's own Prep already enforces. PopBufferAlignment restores
// the saved requirement, folding in whatever the nested scope ended up
// needing (mirroring exit_frame's fold-up behavior).
func (b *Builder) PushBufferAlignment() {
	b.bufferAlignStack = append(b.bufferAlignStack, b.minalign)
	b.minalign = 1
}

func (b *Builder) PopBufferAlignment() error {
	if len(b.bufferAlignStack) == 0 {
		return ErrNoUserFrame
	}
	saved := b.bufferAlignStack[len(b.bufferAlignStack)-1]
	b.bufferAlignStack = b.bufferAlignStack[:len(b.bufferAlignStack)-1]
	if saved > b.minalign {
		b.minalign = saved
	}
	return nil
}
