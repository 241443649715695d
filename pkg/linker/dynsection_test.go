package linker

import (
	"debug/elf"
	"testing"
	"unsafe"
)

// TestRelDynSectionEmitsGlobDatForImportedGotSymbol exercises the fix for
// the bug where a DSO-imported symbol's GOT slot was being filled with
// its (meaningless, link-time) Value instead of left for the dynamic
// linker to bind: RelDyn should carry one R_X86_64_GLOB_DAT relocation
// pointing at that GOT slot.
func TestRelDynSectionEmitsGlobDatForImportedGotSymbol(t *testing.T) {
	ctx := &Context{}
	ctx.Got = NewGotSection()
	ctx.Got.Shdr.Addr = 0x2000
	ctx.RelDyn = NewRelDynSection()
	ctx.Dynstr = NewStrtabSection(".dynstr", 0)
	ctx.Dynsym = NewDynsymSection()
	ctx.Copyrel = NewCopyrelSection()

	sym := NewSymbol("imported_fn")
	sym.IsImported = true
	dso := &SharedFile{}
	dso.ElfSyms = []Sym{{}}
	sym.File = &dso.InputFile
	sym.SymIdx = 0
	ctx.Got.AddGotSymbol(ctx, sym)

	ctx.RelDyn.UpdateShdr(ctx)
	if ctx.RelDyn.Shdr.Size != uint64(unsafe.Sizeof(Rela{})) {
		t.Fatalf("RelDyn.Shdr.Size = %d, want one Rela's worth", ctx.RelDyn.Shdr.Size)
	}

	ctx.Buf = make([]byte, ctx.RelDyn.Shdr.Size)
	ctx.RelDyn.CopyBuf(ctx)

	rel := readRela(ctx.Buf)
	wantOffset := sym.GetGotAddr(ctx)
	if rel.Offset != wantOffset {
		t.Errorf("rel.Offset = %#x, want %#x (the symbol's GOT slot address)", rel.Offset, wantOffset)
	}
	if elf.R_X86_64(rel.Type) != elf.R_X86_64_GLOB_DAT {
		t.Errorf("rel.Type = %v, want R_X86_64_GLOB_DAT", elf.R_X86_64(rel.Type))
	}
	if int32(rel.Sym) != sym.GetDynsymIdx(ctx) {
		t.Errorf("rel.Sym = %d, want %d", rel.Sym, sym.GetDynsymIdx(ctx))
	}
}

func TestRelDynSectionEmitsCopyRelocation(t *testing.T) {
	ctx := &Context{}
	ctx.RelDyn = NewRelDynSection()
	ctx.Dynstr = NewStrtabSection(".dynstr", 0)
	ctx.Dynsym = NewDynsymSection()
	ctx.Copyrel = NewCopyrelSection()
	ctx.Copyrel.Shdr.Addr = 0x5000

	sym := NewSymbol("global_var")
	esym := &Sym{Size: 8}
	// AddSymbol reads the symbol's size and alignment through ElfSym(),
	// which indexes its owning file's ElfSyms, so fake a minimal owning
	// file for this one symbol first.
	file := &ObjectFile{}
	file.ElfSyms = []Sym{*esym}
	sym.File = &file.InputFile
	sym.SymIdx = 0
	ctx.Copyrel.AddSymbol(ctx, sym)

	ctx.RelDyn.UpdateShdr(ctx)
	ctx.Buf = make([]byte, ctx.RelDyn.Shdr.Size)
	ctx.RelDyn.CopyBuf(ctx)

	rel := readRela(ctx.Buf)
	if elf.R_X86_64(rel.Type) != elf.R_X86_64_COPY {
		t.Errorf("rel.Type = %v, want R_X86_64_COPY", elf.R_X86_64(rel.Type))
	}
	if rel.Offset != sym.GetAddr(ctx) {
		t.Errorf("rel.Offset = %#x, want %#x (the symbol's copy-relocated address)", rel.Offset, sym.GetAddr(ctx))
	}
}

func readRela(buf []byte) Rela {
	r := Rela{}
	r.Offset = leUint64(buf[0:8])
	r.Type = leUint32(buf[8:12])
	r.Sym = leUint32(buf[12:16])
	return r
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func leUint32(b []byte) uint32 {
	var v uint32
	for i := 3; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}
