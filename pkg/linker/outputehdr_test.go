package linker

import (
	"debug/elf"
	"testing"
	"unsafe"
)

func TestGetEntryAddrPrefersExplicitEntrySymbol(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.Entry = "_start"

	sym := GetSymbolByName(ctx, "_start")
	sym.Value = 0x401000
	entryOwner := &ObjectFile{}
	sym.File = &entryOwner.InputFile

	if got := GetEntryAddr(ctx); got != 0x401000 {
		t.Errorf("GetEntryAddr() = %#x, want %#x", got, 0x401000)
	}
}

func TestGetEntryAddrFallsBackToTextSection(t *testing.T) {
	ctx := NewContext()
	text := NewOutputSection(".text", uint32(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), 0)
	text.Shdr.Addr = 0x402000
	ctx.OutputSections = []*OutputSection{text}

	if got := GetEntryAddr(ctx); got != 0x402000 {
		t.Errorf("GetEntryAddr() = %#x, want the .text section address %#x", got, 0x402000)
	}
}

func TestGetEntryAddrDefaultsToZero(t *testing.T) {
	ctx := NewContext()
	if got := GetEntryAddr(ctx); got != 0 {
		t.Errorf("GetEntryAddr() with nothing configured = %#x, want 0", got)
	}
}

func TestOutputEhdrCopyBufSetsTypeForPieVsExec(t *testing.T) {
	ctx := NewContext()
	ctx.Phdr = NewOutputPhdr()
	ctx.Shdr = NewOutputShdr()
	ctx.Buf = make([]byte, unsafe.Sizeof(Ehdr{}))

	o := NewOutputEhdr()
	o.Shdr.Offset = 0

	ctx.Arg.Pie = true
	ctx.Arg.Emulation = MachineTypeX86_64
	o.CopyBuf(ctx)

	typ := leUint16(ctx.Buf[16:18])
	if elf.Type(typ) != elf.ET_DYN {
		t.Errorf("e_type for -pie = %v, want ET_DYN", elf.Type(typ))
	}

	ctx.Arg.Pie = false
	o.CopyBuf(ctx)
	typ = leUint16(ctx.Buf[16:18])
	if elf.Type(typ) != elf.ET_EXEC {
		t.Errorf("e_type without -pie = %v, want ET_EXEC", elf.Type(typ))
	}
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
