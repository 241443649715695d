package linker

import (
	"debug/elf"
	"testing"
)

func TestGetOutputSectionInstanceReusesMatchingSection(t *testing.T) {
	ctx := &Context{}

	a := GetOutputSectionInstance(ctx, ".text.foo", uint64(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR))
	b := GetOutputSectionInstance(ctx, ".text.bar", uint64(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR))

	if a != b {
		t.Error("two .text.* input sections should fold into one .text output section")
	}
	if len(ctx.OutputSections) != 1 {
		t.Errorf("OutputSections has %d entries, want 1", len(ctx.OutputSections))
	}
	if a.Name != ".text" {
		t.Errorf("output section name = %q, want .text", a.Name)
	}
}

func TestGetOutputSectionInstanceInitArrayGetsWriteFlag(t *testing.T) {
	ctx := &Context{}

	os := GetOutputSectionInstance(ctx, ".init_array.100", uint64(elf.SHT_PROGBITS), 0)

	if os.Shdr.Type != uint32(elf.SHT_INIT_ARRAY) {
		t.Errorf("Shdr.Type = %v, want SHT_INIT_ARRAY", elf.SectionType(os.Shdr.Type))
	}
	if os.Shdr.Flags&uint64(elf.SHF_WRITE) == 0 {
		t.Error(".init_array should always be writable regardless of the input section's own flags")
	}
}

func TestGetOutputSectionInstanceAssignsIncreasingIdx(t *testing.T) {
	ctx := &Context{}

	a := GetOutputSectionInstance(ctx, ".text", uint64(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC))
	b := GetOutputSectionInstance(ctx, ".data", uint64(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC|elf.SHF_WRITE))

	if a.Idx != 0 || b.Idx != 1 {
		t.Errorf("Idx = %d, %d, want 0, 1", a.Idx, b.Idx)
	}
}

func TestOutputSectionCopyBufSkipsNobits(t *testing.T) {
	o := NewOutputSection(".bss", uint32(elf.SHT_NOBITS), uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)
	o.Shdr.Offset = 0
	o.Shdr.Size = 8

	ctx := &Context{}
	ctx.Buf = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	before := append([]byte{}, ctx.Buf...)

	o.CopyBuf(ctx)

	for i := range ctx.Buf {
		if ctx.Buf[i] != before[i] {
			t.Fatalf("CopyBuf on an SHT_NOBITS section should never touch ctx.Buf")
		}
	}
}

func TestOutputSectionCopyBufWritesMembersAndZeroesGaps(t *testing.T) {
	o := NewOutputSection(".data", uint32(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)
	o.Shdr.Offset = 0
	o.Shdr.Size = 8

	obj := &ObjectFile{}
	obj.ElfSections = []Shdr{{Type: uint32(elf.SHT_PROGBITS), Size: 4, Flags: uint64(elf.SHF_WRITE)}}

	isec := &InputSection{
		File:     obj,
		Shndx:    0,
		ShSize:   4,
		Offset:   0,
		Contents: []byte{0xAA, 0xBB, 0xCC, 0xDD},
	}
	o.Members = []*InputSection{isec}

	ctx := &Context{}
	ctx.Buf = make([]byte, 8)
	for i := range ctx.Buf {
		ctx.Buf[i] = 0xFF
	}

	o.CopyBuf(ctx)

	want := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0, 0, 0, 0}
	for i := range want {
		if ctx.Buf[i] != want[i] {
			t.Errorf("ctx.Buf[%d] = %#x, want %#x", i, ctx.Buf[i], want[i])
		}
	}
}
