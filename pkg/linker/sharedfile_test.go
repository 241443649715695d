package linker

import (
	"debug/elf"
	"testing"
)

func TestSharedFileSonameFallsBackToFilename(t *testing.T) {
	dso := &SharedFile{}
	dso.File = &File{Name: "/usr/lib/libfoo.so.1"}

	if got := dso.Soname(); got != "libfoo.so.1" {
		t.Errorf("Soname() = %q, want libfoo.so.1 (basename fallback)", got)
	}
}

func TestSharedFileSonamePrefersDtSoname(t *testing.T) {
	dso := &SharedFile{soname: "libfoo.so.1"}
	dso.File = &File{Name: "/usr/lib/libfoo.so"}

	if got := dso.Soname(); got != "libfoo.so.1" {
		t.Errorf("Soname() = %q, want the recorded DT_SONAME libfoo.so.1", got)
	}
}

func newGlobalFuncSym(nameOff uint32) Sym {
	s := Sym{Name: nameOff, Shndx: 1}
	s.Info = uint8(elf.STB_GLOBAL) << 4
	return s
}

func TestSharedFileResolveSymbolsPlainName(t *testing.T) {
	ctx := NewContext()
	dso := &SharedFile{}
	dso.File = &File{Name: "libfoo.so"}
	dso.SymbolStrtab = []byte("\x00foo\x00")
	dso.ElfSyms = []Sym{newGlobalFuncSym(1)}

	dso.ResolveSymbols(ctx)

	sym := GetSymbolByName(ctx, "foo")
	if sym.File != &dso.InputFile {
		t.Fatal("foo should have resolved to the DSO")
	}
	if !sym.IsImported {
		t.Error("a symbol resolved from a DSO should be marked IsImported")
	}
	if sym.VerIdx != VER_NDX_GLOBAL {
		t.Errorf("VerIdx = %d, want VER_NDX_GLOBAL for an unversioned symbol", sym.VerIdx)
	}
}

func TestSharedFileResolveSymbolsVersionedNameStripsSuffix(t *testing.T) {
	ctx := NewContext()
	ctx.Verneed = NewVerneedSection()
	dso := &SharedFile{}
	dso.File = &File{Name: "libfoo.so"}
	dso.SymbolStrtab = []byte("\x00foo@@LIBFOO_1.0\x00")
	dso.ElfSyms = []Sym{newGlobalFuncSym(1)}

	dso.ResolveSymbols(ctx)

	if _, ok := ctx.SymbolMap["foo@@LIBFOO_1.0"]; ok {
		t.Error("the resolved symbol should be interned under the plain name, not the raw versioned dynsym name")
	}
	sym := GetSymbolByName(ctx, "foo")
	if sym.File != &dso.InputFile {
		t.Fatal("foo should have resolved to the DSO despite the @@version suffix")
	}
	if sym.VerIdx == VER_NDX_GLOBAL {
		t.Error("a versioned symbol should get a real Verneed index, not VER_NDX_GLOBAL")
	}
}

func TestSharedFileResolveSymbolsSkipsUndefinedAndLocal(t *testing.T) {
	ctx := NewContext()
	dso := &SharedFile{}
	dso.File = &File{Name: "libfoo.so"}
	dso.SymbolStrtab = []byte("\x00undef\x00local\x00")

	undef := Sym{Name: 1, Shndx: uint16(elf.SHN_UNDEF)}
	local := Sym{Name: 7, Shndx: 1, Info: uint8(elf.STB_LOCAL) << 4}
	dso.ElfSyms = []Sym{undef, local}

	dso.ResolveSymbols(ctx)

	if len(ctx.SymbolMap) != 0 {
		t.Errorf("neither an undefined nor a local dynsym entry should intern a Symbol, got %d", len(ctx.SymbolMap))
	}
}

func TestSharedFileResolveSymbolsDoesNotOverrideExistingDefinition(t *testing.T) {
	ctx := NewContext()
	dso := &SharedFile{}
	dso.File = &File{Name: "libfoo.so"}
	dso.SymbolStrtab = []byte("\x00foo\x00")
	dso.ElfSyms = []Sym{newGlobalFuncSym(1)}

	existingOwner := &ObjectFile{}
	sym := GetSymbolByName(ctx, "foo")
	sym.File = &existingOwner.InputFile

	dso.ResolveSymbols(ctx)

	if sym.File != &existingOwner.InputFile {
		t.Error("a DSO should never override a symbol already resolved by an object file")
	}
}
