package linker

import (
	"debug/elf"
	"unsafe"

	"github.com/ksco/rvld/pkg/utils"
)

// GotPltSection backs .got.plt. Slot 0-2 are the three ABI-reserved
// entries (the dynamic linker fills 1/2 at load time in a real process;
// here they're left zero since nothing runs the output). Every PLT
// symbol gets one slot after that, pre-filled with its resolved address
// (spec's BIND_NOW posture, see PltSection).
type GotPltSection struct {
	Chunk
	Symbols []*Symbol
}

func NewGotPltSection() *GotPltSection {
	g := &GotPltSection{Chunk: NewChunk()}
	g.Name = ".got.plt"
	g.Shdr.Type = uint32(elf.SHT_PROGBITS)
	g.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	g.Shdr.AddrAlign = 8
	return g
}

func (g *GotPltSection) AddSymbol(ctx *Context, sym *Symbol) {
	sym.EnsureAux(ctx)
	idx := int32(len(g.Symbols)) + 3
	g.Symbols = append(g.Symbols, sym)
	sym.SetGotPltIdx(ctx, idx)
}

func (g *GotPltSection) UpdateShdr(ctx *Context) {
	g.Shdr.Size = uint64(len(g.Symbols)+3) * 8
}

func (g *GotPltSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[g.Shdr.Offset:]
	for i := range buf[:g.Shdr.Size] {
		buf[i] = 0
	}
	if ctx.Dynamic != nil {
		utils.Write[uint64](buf, ctx.Dynamic.Shdr.Addr)
	}
	for i, sym := range g.Symbols {
		utils.Write[uint64](buf[(i+3)*8:], sym.GetAddr(ctx))
	}
}

// RelDynSection backs .rela.dyn: one R_X86_64_GLOB_DAT per GOT slot a
// DSO symbol owns, plus one R_X86_64_COPY per copy-relocated symbol
// (spec §4.6's NEEDS_DYNSYM/NEEDS_COPYREL outcomes). Both kinds defer a
// value the dynamic linker, not this link, is the one able to supply.
type RelDynSection struct {
	Chunk
	GotSyms []*Symbol
}

func NewRelDynSection() *RelDynSection {
	r := &RelDynSection{Chunk: NewChunk()}
	r.Name = ".rela.dyn"
	r.Shdr.Type = uint32(elf.SHT_RELA)
	r.Shdr.Flags = uint64(elf.SHF_ALLOC)
	r.Shdr.AddrAlign = 8
	r.Shdr.EntSize = uint64(unsafe.Sizeof(Rela{}))
	return r
}

func (r *RelDynSection) AddGlobDat(sym *Symbol) { r.GotSyms = append(r.GotSyms, sym) }

func (r *RelDynSection) UpdateShdr(ctx *Context) {
	if ctx.Dynsym != nil {
		r.Shdr.Link = uint32(ctx.Dynsym.Shndx)
	}
	n := len(r.GotSyms) + len(ctx.Copyrel.Symbols)
	r.Shdr.Size = uint64(n) * uint64(unsafe.Sizeof(Rela{}))
}

func (r *RelDynSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[r.Shdr.Offset:]
	write := func(rel Rela) {
		utils.Write[Rela](buf, rel)
		buf = buf[unsafe.Sizeof(Rela{}):]
	}

	for _, sym := range r.GotSyms {
		write(Rela{
			Offset: sym.GetGotAddr(ctx),
			Type:   uint32(elf.R_X86_64_GLOB_DAT),
			Sym:    uint32(sym.GetDynsymIdx(ctx)),
		})
	}

	for _, sym := range ctx.Copyrel.Symbols {
		write(Rela{
			Offset: sym.GetAddr(ctx),
			Type:   uint32(elf.R_X86_64_COPY),
			Sym:    uint32(sym.GetDynsymIdx(ctx)),
		})
	}
}

// RelPltSection backs .rela.plt: one R_X86_64_JMP_SLOT per PLT symbol,
// pointed at the matching GOTPLT slot.
type RelPltSection struct {
	Chunk
}

func NewRelPltSection() *RelPltSection {
	r := &RelPltSection{Chunk: NewChunk()}
	r.Name = ".rela.plt"
	r.Shdr.Type = uint32(elf.SHT_RELA)
	r.Shdr.Flags = uint64(elf.SHF_ALLOC)
	r.Shdr.AddrAlign = 8
	r.Shdr.EntSize = uint64(unsafe.Sizeof(Rela{}))
	r.Shdr.Info = 1
	return r
}

func (r *RelPltSection) UpdateShdr(ctx *Context) {
	if ctx.Dynsym != nil {
		r.Shdr.Link = uint32(ctx.Dynsym.Shndx)
	}
	r.Shdr.Size = uint64(len(ctx.Plt.Symbols)) * uint64(unsafe.Sizeof(Rela{}))
}

func (r *RelPltSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[r.Shdr.Offset:]
	for _, sym := range ctx.Plt.Symbols {
		rel := Rela{
			Offset: ctx.GotPlt.Shdr.Addr + uint64(sym.GetGotPltIdx(ctx))*8,
			Type:   uint32(elf.R_X86_64_JMP_SLOT),
			Sym:    uint32(sym.GetDynsymIdx(ctx)),
		}
		utils.Write[Rela](buf, rel)
		buf = buf[unsafe.Sizeof(Rela{}):]
	}
}

// DynsymSection backs .dynsym: the subset of symbols a dynamic linker
// needs to see, i.e. every exported definition plus every symbol this
// link leaves to be resolved against a DSO at runtime.
type DynsymSection struct {
	Chunk
	entries []symtabEnt
}

func NewDynsymSection() *DynsymSection {
	s := &DynsymSection{Chunk: NewChunk()}
	s.Name = ".dynsym"
	s.Shdr.Type = uint32(elf.SHT_DYNSYM)
	s.Shdr.Flags = uint64(elf.SHF_ALLOC)
	s.Shdr.EntSize = uint64(unsafe.Sizeof(Sym{}))
	s.Shdr.AddrAlign = 8
	s.Shdr.Info = 1
	return s
}

func (s *DynsymSection) AddSymbol(ctx *Context, sym *Symbol) {
	sym.EnsureAux(ctx)
	if sym.GetDynsymIdx(ctx) != -1 {
		return
	}
	sym.SetDynsymIdx(ctx, int32(len(s.entries))+1)
	s.entries = append(s.entries, symtabEnt{sym, sym.ElfSym(), ctx.Dynstr.Add(sym.Name)})
}

func (s *DynsymSection) UpdateShdr(ctx *Context) {
	s.Shdr.Link = uint32(ctx.Dynstr.Shndx)
	s.Shdr.Size = uint64(len(s.entries)+1) * uint64(unsafe.Sizeof(Sym{}))
}

func (s *DynsymSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[s.Shdr.Offset:]
	utils.Write[Sym](buf, Sym{})
	buf = buf[unsafe.Sizeof(Sym{}):]

	for _, ent := range s.entries {
		esym := Sym{
			Name:  ent.nameOff,
			Info:  ent.esym.Info,
			Other: ent.esym.Other,
			Size:  ent.esym.Size,
		}
		if ent.sym.IsImported {
			esym.Shndx = uint16(elf.SHN_UNDEF)
		} else {
			esym.Val = ent.sym.GetAddr(ctx)
			if chunk := ent.sym.OutputSection; chunk != nil {
				esym.Shndx = uint16(chunk.GetShndx())
			} else if isec := ent.sym.InputSection; isec != nil {
				esym.Shndx = uint16(isec.OutputSection.Shndx)
			} else {
				esym.Shndx = uint16(elf.SHN_ABS)
			}
		}
		utils.Write[Sym](buf, esym)
		buf = buf[unsafe.Sizeof(Sym{}):]
	}
}

// InterpSection backs .interp: the NUL-terminated path of the dynamic
// linker, set from -dynamic-linker / ContextArg.DynamicLinker.
type InterpSection struct {
	Chunk
	path string
}

func NewInterpSection(path string) *InterpSection {
	s := &InterpSection{Chunk: NewChunk()}
	s.Name = ".interp"
	s.Shdr.Type = uint32(elf.SHT_PROGBITS)
	s.Shdr.Flags = uint64(elf.SHF_ALLOC)
	s.Shdr.AddrAlign = 1
	s.Shdr.Size = uint64(len(path)) + 1
	s.path = path
	return s
}

func (s *InterpSection) CopyBuf(ctx *Context) {
	writeString(ctx.Buf[s.Shdr.Offset:], s.path)
}

// CopyrelSection backs .bss.rel.ro-adjacent storage for symbols copy-
// relocated out of a DSO (spec's NEEDS_COPYREL): space is reserved here,
// and a R_X86_64_COPY relocation into .rela.dyn tells the loader to
// splat the DSO's initial bytes into it at load time.
type CopyrelSection struct {
	Chunk
	Symbols []*Symbol
}

func NewCopyrelSection() *CopyrelSection {
	s := &CopyrelSection{Chunk: NewChunk()}
	s.Name = ".bss.rel.ro"
	s.Shdr.Type = uint32(elf.SHT_NOBITS)
	s.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	s.Shdr.AddrAlign = 1
	return s
}

func (s *CopyrelSection) AddSymbol(ctx *Context, sym *Symbol) {
	sym.EnsureAux(ctx)
	esym := sym.ElfSym()
	align := esym.Val & 0xf
	if align == 0 {
		align = 8
	}
	s.Shdr.Size = utils.AlignTo(s.Shdr.Size, align)
	if s.Shdr.AddrAlign < align {
		s.Shdr.AddrAlign = align
	}
	ctx.SymbolsAux[sym.AuxIdx].CopyRelOffset = int64(s.Shdr.Size)
	s.Shdr.Size += esym.Size
	sym.HasCopyRel = true
	sym.SetOutputSection(s)
	s.Symbols = append(s.Symbols, sym)
}
