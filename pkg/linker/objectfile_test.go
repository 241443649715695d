package linker

import (
	"debug/elf"
	"testing"
)

func TestObjectFileResolveSymbolsClaimsUndefinedGlobal(t *testing.T) {
	ctx := NewContext()

	o := &ObjectFile{}
	o.IsAlive = true
	o.FirstGlobal = 1
	o.ElfSyms = []Sym{{}, {Shndx: 1, Info: uint8(elf.STB_GLOBAL) << 4}}

	sym := NewSymbol("foo")
	o.Symbols = []*Symbol{NewSymbol(""), sym}

	o.Sections = make([]*InputSection, 2)
	o.Sections[1] = &InputSection{IsAlive: true, Shndx: 1}

	o.ResolveSymbols(ctx)

	if sym.File != &o.InputFile {
		t.Fatal("an undefined global symbol should resolve to this file's definition")
	}
	if sym.InputSection != o.Sections[1] {
		t.Error("the resolved symbol should point at the defining InputSection")
	}
}

func TestObjectFileResolveSymbolsSkipsUndefEntries(t *testing.T) {
	ctx := NewContext()

	o := &ObjectFile{}
	o.IsAlive = true
	o.FirstGlobal = 1
	o.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_UNDEF)}}

	sym := NewSymbol("foo")
	o.Symbols = []*Symbol{NewSymbol(""), sym}
	o.Sections = make([]*InputSection, 2)

	o.ResolveSymbols(ctx)

	if sym.File != nil {
		t.Error("an undefined symtab entry should never claim ownership of the symbol")
	}
}

func TestObjectFileMergeVisibilityKeepsMostRestrictive(t *testing.T) {
	o := &ObjectFile{}
	ctx := NewContext()

	sym := NewSymbol("foo")
	sym.Visibility = uint8(elf.STV_DEFAULT)

	o.MergeVisibility(ctx, sym, uint8(elf.STV_HIDDEN))
	if sym.Visibility != uint8(elf.STV_HIDDEN) {
		t.Errorf("Visibility = %v, want STV_HIDDEN (more restrictive than the default)", sym.Visibility)
	}

	o.MergeVisibility(ctx, sym, uint8(elf.STV_DEFAULT))
	if sym.Visibility != uint8(elf.STV_HIDDEN) {
		t.Error("a less restrictive visibility should never loosen an already-hidden symbol")
	}
}

func TestObjectFileMergeVisibilityTreatsInternalAsHidden(t *testing.T) {
	o := &ObjectFile{}
	ctx := NewContext()

	sym := NewSymbol("foo")
	sym.Visibility = uint8(elf.STV_DEFAULT)

	o.MergeVisibility(ctx, sym, uint8(elf.STV_INTERNAL))
	if sym.Visibility != uint8(elf.STV_HIDDEN) {
		t.Errorf("Visibility = %v, want STV_HIDDEN (STV_INTERNAL is treated as hidden)", sym.Visibility)
	}
}

func TestObjectFileClearSymbolsOnlyClearsOwnedSymbols(t *testing.T) {
	o := &ObjectFile{}
	o.FirstGlobal = 1
	owned := NewSymbol("owned")
	owned.File = &o.InputFile
	owned.SymIdx = 5

	other := &ObjectFile{}
	foreign := NewSymbol("foreign")
	foreign.File = &other.InputFile
	foreign.SymIdx = 9

	o.Symbols = []*Symbol{NewSymbol(""), owned, foreign}

	o.ClearSymbols()

	if owned.File != nil || owned.SymIdx != -1 {
		t.Error("a symbol this file owns should be cleared")
	}
	if foreign.File != &other.InputFile || foreign.SymIdx != 9 {
		t.Error("a symbol owned by a different file should be left untouched")
	}
}

func TestObjectFileComputeImportExportMarksOnlyOwnedVisibleSymbols(t *testing.T) {
	o := &ObjectFile{}
	o.FirstGlobal = 1

	owned := NewSymbol("owned")
	owned.File = &o.InputFile
	owned.Visibility = uint8(elf.STV_DEFAULT)
	owned.VerIdx = VER_NDX_GLOBAL

	hidden := NewSymbol("hidden")
	hidden.File = &o.InputFile
	hidden.Visibility = uint8(elf.STV_HIDDEN)
	hidden.VerIdx = VER_NDX_GLOBAL

	other := &ObjectFile{}
	foreign := NewSymbol("foreign")
	foreign.File = &other.InputFile
	foreign.Visibility = uint8(elf.STV_DEFAULT)
	foreign.VerIdx = VER_NDX_GLOBAL

	o.Symbols = []*Symbol{NewSymbol(""), owned, hidden, foreign}

	o.ComputeImportExport()

	if !owned.IsExported {
		t.Error("an owned, default-visibility symbol should be exported")
	}
	if hidden.IsExported {
		t.Error("a hidden symbol should never be exported")
	}
	if foreign.IsExported {
		t.Error("a symbol owned by a different file should never be marked exported by this one")
	}
}

func TestObjectFileClaimUnresolvedSymbolsFillsUndefinedWeak(t *testing.T) {
	ctx := NewContext()

	o := &ObjectFile{}
	o.IsAlive = true
	o.Priority = 5
	o.FirstGlobal = 1
	o.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_UNDEF), Info: uint8(elf.STB_WEAK) << 4}}

	sym := NewSymbol("weak_undef")
	o.Symbols = []*Symbol{NewSymbol(""), sym}

	o.ClaimUnresolvedSymbols(ctx)

	if sym.File != &o.InputFile {
		t.Fatal("an undefined weak symbol with no other definition should be claimed as a zero-valued weak def")
	}
	if sym.Value != 0 || sym.IsWeak {
		t.Error("a claimed undefined-weak symbol should have Value 0 and IsWeak cleared")
	}
}

// TestObjectFileMarkLiveObjectsFeedsBackNewlyAliveDefiner checks that a
// strong reference into a not-yet-alive file both marks that file alive
// and feeds it back to the caller's worklist (the weak-reference case is
// TestObjectFileMarkLiveObjectsSkipsWeakReferences).
func TestObjectFileMarkLiveObjectsFeedsBackNewlyAliveDefiner(t *testing.T) {
	ctx := NewContext()

	referencer := &ObjectFile{}
	referencer.IsAlive = true
	referencer.FirstGlobal = 1
	referencer.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_UNDEF)}}

	definer := &ObjectFile{}
	definer.OwnerObj = definer

	sym := NewSymbol("foo")
	sym.File = &definer.InputFile

	referencer.Symbols = []*Symbol{NewSymbol(""), sym}

	var fed []*ObjectFile
	referencer.MarkLiveObjects(ctx, func(f *ObjectFile) { fed = append(fed, f) })

	if !definer.IsAlive {
		t.Fatal("a strong undefined reference should mark its definer alive")
	}
	if len(fed) != 1 || fed[0] != definer {
		t.Errorf("fed = %v, want [definer]", fed)
	}
}

func TestObjectFileMarkLiveObjectsSkipsWeakReferences(t *testing.T) {
	ctx := NewContext()

	referencer := &ObjectFile{}
	referencer.IsAlive = true
	referencer.FirstGlobal = 1
	referencer.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_UNDEF), Info: uint8(elf.STB_WEAK) << 4}}

	definer := &ObjectFile{}
	definer.OwnerObj = definer

	sym := NewSymbol("foo")
	sym.File = &definer.InputFile

	referencer.Symbols = []*Symbol{NewSymbol(""), sym}

	var fed []*ObjectFile
	referencer.MarkLiveObjects(ctx, func(f *ObjectFile) { fed = append(fed, f) })

	if definer.IsAlive {
		t.Error("a weak reference should never pull its definer live")
	}
	if len(fed) != 0 {
		t.Errorf("fed = %v, want none", fed)
	}
}

func TestObjectFileClaimUnresolvedSymbolsSkipsDeadFile(t *testing.T) {
	ctx := NewContext()

	o := &ObjectFile{}
	o.IsAlive = false
	o.FirstGlobal = 1
	o.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_UNDEF), Info: uint8(elf.STB_WEAK) << 4}}
	sym := NewSymbol("weak_undef")
	o.Symbols = []*Symbol{NewSymbol(""), sym}

	o.ClaimUnresolvedSymbols(ctx)

	if sym.File != nil {
		t.Error("a dead file should never claim any symbol")
	}
}
