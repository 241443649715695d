package linker

import (
	"debug/elf"
	"sync"
)

const (
	NEEDS_GOT uint32 = 1 << iota
	NEEDS_PLT
	NEEDS_DYNSYM
	NEEDS_GOTTPOFF
	NEEDS_COPYREL
)

// Symbol is interned process-wide by name (GetSymbolByName) and its
// lifetime spans the whole link. File/Value/InputSection/IsWeak together
// form the symbol's current resolution; resolveMu guards every read or
// write of that group during the parallel resolution phase (spec §4.2,
// §5 "parallel updates to shared slots" — here implemented as a per-slot
// mutex rather than a raw CAS loop, since Go's mutex already gives the
// same "one winner, losers retry nothing" semantics spec asks for; see
// DESIGN.md).
type Symbol struct {
	resolveMu sync.Mutex

	File *InputFile

	InputSection    *InputSection
	OutputSection   Chunker
	SectionFragment *SectionFragment

	Value uint64
	Name  string

	SymIdx int32
	AuxIdx int32
	VerIdx uint16

	Flags      uint32
	Visibility uint8

	IsWeak     bool
	IsImported bool
	HasCopyRel bool
	IsExported bool
	Traced     bool
}

func NewSymbol(name string) *Symbol {
	return &Symbol{
		Name:       name,
		SymIdx:     -1,
		AuxIdx:     -1,
		Visibility: uint8(elf.STV_DEFAULT),
	}
}

func GetSymbolByName(ctx *Context, name string) *Symbol {
	ctx.symbolMapMu.Lock()
	defer ctx.symbolMapMu.Unlock()

	if sym, ok := ctx.SymbolMap[name]; ok {
		return sym
	}
	sym := NewSymbol(name)
	ctx.SymbolMap[name] = sym
	return sym
}

func (s *Symbol) SetInputSection(isec *InputSection) {
	s.InputSection = isec
	s.OutputSection = nil
	s.SectionFragment = nil
}

func (s *Symbol) SetOutputSection(osec Chunker) {
	s.InputSection = nil
	s.OutputSection = osec
	s.SectionFragment = nil
}

func (s *Symbol) SetSectionFragment(frag *SectionFragment) {
	s.InputSection = nil
	s.OutputSection = nil
	s.SectionFragment = frag
}

// TryResolve installs (file, esym) as the symbol's new winning
// definition iff its rank beats the current one, per the ordering rule
// in spec §4.2. It is safe to call concurrently from many workers
// resolving different files against the same interned Symbol.
func (s *Symbol) TryResolve(file *InputFile, esymIdx int32, esym *Sym, isec *InputSection, defaultVer uint16) bool {
	newRank := GetRank(file, esym, !file.IsAlive)

	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	if newRank >= s.GetRank() {
		return false
	}

	s.File = file
	s.SetInputSection(isec)
	s.Value = esym.Val
	s.SymIdx = esymIdx
	s.VerIdx = defaultVer
	s.IsWeak = esym.IsWeak()
	s.IsExported = false

	if s.Traced {
		TraceSymbolResolution(s, file)
	}
	return true
}

func (s *Symbol) ElfSym() *Sym {
	return &s.File.ElfSyms[s.SymIdx]
}

func (s *Symbol) GetAddr(ctx *Context) uint64 {
	if s.SectionFragment != nil {
		if !s.SectionFragment.IsAlive() {
			return 0
		}
		return s.SectionFragment.GetAddr() + s.Value
	}

	if s.InputSection == nil {
		return s.Value
	}

	if !s.InputSection.IsAlive {
		return 0
	}

	return s.InputSection.GetAddr() + s.Value
}

// EnsureAux assigns s a slot in ctx.SymbolsAux if it doesn't have one
// yet. Every setter that writes into SymbolsAux (SetGotIdx and friends)
// assumes the caller did this first.
func (s *Symbol) EnsureAux(ctx *Context) {
	if s.AuxIdx == -1 {
		s.AuxIdx = int32(len(ctx.SymbolsAux))
		ctx.SymbolsAux = append(ctx.SymbolsAux, NewSymbolAux())
	}
}

func (s *Symbol) GetGotIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].GotIdx
}

func (s *Symbol) GetGotTpIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].GotTpIdx
}

func (s *Symbol) GetPltIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].PltIdx
}

func (s *Symbol) GetDynsymIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].DynsymIdx
}

func (s *Symbol) GetGotPltIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].GotPltIdx
}

func (s *Symbol) SetGotIdx(ctx *Context, idx int32)    { ctx.SymbolsAux[s.AuxIdx].GotIdx = idx }
func (s *Symbol) SetGotTpIdx(ctx *Context, idx int32)  { ctx.SymbolsAux[s.AuxIdx].GotTpIdx = idx }
func (s *Symbol) SetPltIdx(ctx *Context, idx int32)    { ctx.SymbolsAux[s.AuxIdx].PltIdx = idx }
func (s *Symbol) SetDynsymIdx(ctx *Context, idx int32) { ctx.SymbolsAux[s.AuxIdx].DynsymIdx = idx }
func (s *Symbol) SetGotPltIdx(ctx *Context, idx int32) { ctx.SymbolsAux[s.AuxIdx].GotPltIdx = idx }

func (s *Symbol) GetGotAddr(ctx *Context) uint64 {
	return ctx.Got.Shdr.Addr + uint64(s.GetGotIdx(ctx))*8
}

func (s *Symbol) GetGotTpAddr(ctx *Context) uint64 {
	return ctx.Got.Shdr.Addr + uint64(s.GetGotTpIdx(ctx))*8
}

func (s *Symbol) GetPltAddr(ctx *Context) uint64 {
	idx := s.GetPltIdx(ctx)
	if idx == -1 {
		return 0
	}
	return ctx.Plt.Shdr.Addr + uint64(idx)*pltEntrySize
}

func (s *Symbol) IsUndef() bool {
	return s.File == nil
}

func (s *Symbol) Clear() {
	s.File = nil
	s.SectionFragment = nil
	s.OutputSection = nil
	s.InputSection = nil
	s.SymIdx = -1
	s.VerIdx = 0
	s.IsWeak = false
	s.IsExported = false
}

func (s *Symbol) GetRank() uint64 {
	if s.File == nil {
		return 7 << 24
	}
	return GetRank(s.File, s.ElfSym(), !s.File.IsAlive)
}

// SymbolAux is the per-live-symbol side table of synthetic-section
// indices, lazily assigned during relocation scanning (spec §4.6) once a
// symbol is known to need a GOT/PLT/dynsym/TLS slot.
type SymbolAux struct {
	GotIdx        int32
	GotTpIdx      int32
	PltIdx        int32
	GotPltIdx     int32
	DynsymIdx     int32
	CopyRelOffset int64
}

func NewSymbolAux() SymbolAux {
	return SymbolAux{
		GotIdx: -1, GotTpIdx: -1, PltIdx: -1, GotPltIdx: -1,
		DynsymIdx: -1, CopyRelOffset: -1,
	}
}
