package linker

import (
	"testing"
	"unsafe"
)

func TestOutputShdrUpdateShdrSizesToHighestShndx(t *testing.T) {
	o := NewOutputShdr()

	a := NewChunk()
	a.SetShndx(0) // not counted: shndx 0 is the null entry
	b := NewChunk()
	b.SetShndx(3)
	c := NewChunk()
	c.SetShndx(1)

	ctx := &Context{}
	ctx.Chunks = []Chunker{&a, &b, &c}

	o.UpdateShdr(ctx)

	want := uint64(4) * uint64(unsafe.Sizeof(Shdr{}))
	if o.Shdr.Size != want {
		t.Errorf("Shdr.Size = %d, want %d (shndx 3 + 1 entries)", o.Shdr.Size, want)
	}
}

func TestOutputShdrCopyBufWritesEachChunksShdrAtItsIndex(t *testing.T) {
	o := NewOutputShdr()
	o.Shdr.Offset = 0

	chunk := NewChunk()
	chunk.SetShndx(2)
	chunk.Shdr.Size = 0x1234

	ctx := &Context{}
	ctx.Chunks = []Chunker{&chunk}
	ctx.Buf = make([]byte, 3*uint64(unsafe.Sizeof(Shdr{})))

	o.CopyBuf(ctx)

	entSize := int64(unsafe.Sizeof(Shdr{}))
	got := leUint64(ctx.Buf[2*entSize+32 : 2*entSize+40]) // Size field offset within Shdr
	if got != 0x1234 {
		t.Errorf("written Shdr.Size at shndx 2 = %#x, want 0x1234", got)
	}
}
