package linker

import (
	"debug/elf"
	"testing"
	"unsafe"

	"github.com/ksco/rvld/pkg/arch"
)

func buildRelaBytes(offset uint64, typ, symIdx uint32, addend int64) []byte {
	b := make([]byte, unsafe.Sizeof(Rela{}))
	putLE64(b[0:8], offset)
	putLE32(b[8:12], typ)
	putLE32(b[12:16], symIdx)
	putLE64(b[16:24], uint64(addend))
	return b
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func putLE32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func TestInputSectionGetRelsParsesEntriesOnce(t *testing.T) {
	relBytes := buildRelaBytes(0x10, uint32(elf.R_X86_64_64), 1, 5)

	obj := &ObjectFile{}
	obj.File = &File{Contents: relBytes}
	obj.ElfSections = []Shdr{
		{Flags: uint64(elf.SHF_ALLOC)},
		{Offset: 0, Size: uint64(len(relBytes))},
	}

	isec := &InputSection{File: obj, Shndx: 0, RelsecIdx: 1}

	rels := isec.GetRels()
	if len(rels) != 1 {
		t.Fatalf("GetRels() returned %d entries, want 1", len(rels))
	}
	if rels[0].Offset != 0x10 || rels[0].Sym != 1 || rels[0].Addend != 5 {
		t.Errorf("parsed Rela = %+v, want Offset 0x10, Sym 1, Addend 5", rels[0])
	}

	// A second call should return the same cached slice, not reparse.
	if again := isec.GetRels(); &again[0] != &rels[0] {
		t.Error("GetRels() should cache its result across calls")
	}
}

func TestInputSectionGetRelsNoRelocSectionReturnsNil(t *testing.T) {
	isec := &InputSection{RelsecIdx: ^uint32(0)}
	if rels := isec.GetRels(); rels != nil {
		t.Errorf("GetRels() with no relocation section = %v, want nil", rels)
	}
}

func TestInputSectionScanRelocationsSetsNeedsGotAndReportsUndefined(t *testing.T) {
	ctx := NewContext()
	ctx.Arch = arch.X86_64{}

	resolved := NewSymbol("resolved")
	resolvedOwner := &ObjectFile{}
	resolved.File = &resolvedOwner.InputFile
	unresolved := NewSymbol("unresolved")

	obj := &ObjectFile{}
	obj.File = &File{}
	obj.Symbols = []*Symbol{nil, resolved, unresolved}
	obj.ElfSections = []Shdr{{Flags: uint64(elf.SHF_ALLOC)}}

	relBytes := append(
		buildRelaBytes(0, uint32(elf.R_X86_64_GOTPCREL), 1, 0),
		buildRelaBytes(8, uint32(elf.R_X86_64_64), 2, 0)...,
	)
	obj.File.Contents = relBytes
	obj.ElfSections = append(obj.ElfSections, Shdr{Offset: 0, Size: uint64(len(relBytes))})

	isec := &InputSection{File: obj, Shndx: 0, RelsecIdx: 1}

	isec.ScanRelocations(ctx)

	if resolved.Flags&NEEDS_GOT == 0 {
		t.Error("a GOTPCREL relocation against a resolved symbol should set NEEDS_GOT")
	}
	if !ctx.Errors.HasErrors() {
		t.Error("a relocation against an unresolved symbol should be recorded as an undefined-symbol error")
	}
}

func TestInputSectionGetPriorityPacksFileAndShndx(t *testing.T) {
	obj := &ObjectFile{}
	obj.Priority = 7
	isec := &InputSection{File: obj, Shndx: 3}

	want := int64(7)<<32 | 3
	if got := isec.GetPriority(); got != want {
		t.Errorf("GetPriority() = %#x, want %#x", got, want)
	}
}

func TestInputSectionNameFallsBackToCommonWhenShndxOutOfRange(t *testing.T) {
	obj := &ObjectFile{}
	isec := &InputSection{File: obj, Shndx: 99}
	if got := isec.Name(); got != ".common" {
		t.Errorf("Name() = %q, want .common", got)
	}
}
