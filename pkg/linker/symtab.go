package linker

import (
	"debug/elf"
	"github.com/ksco/rvld/pkg/utils"
	"unsafe"
)

// SymtabSection emits .symtab: one Sym per live local symbol from every
// live ObjectFile, followed by one Sym per live, defined global, matching
// the ABI requirement that local symbols precede global ones (Shdr.Info
// records the boundary, same field ELF readers use to split the two).
type SymtabSection struct {
	Chunk
	Strtab *StrtabSection

	locals  []symtabEnt
	globals []symtabEnt
}

type symtabEnt struct {
	sym     *Symbol
	esym    *Sym
	nameOff uint32
}

func NewSymtabSection(strtab *StrtabSection) *SymtabSection {
	s := &SymtabSection{Chunk: NewChunk(), Strtab: strtab}
	s.Name = ".symtab"
	s.Shdr.Type = uint32(elf.SHT_SYMTAB)
	s.Shdr.EntSize = uint64(unsafe.Sizeof(Sym{}))
	s.Shdr.AddrAlign = 8
	return s
}

func (s *SymtabSection) UpdateShdr(ctx *Context) {
	s.locals = s.locals[:0]
	s.globals = s.globals[:0]

	for _, file := range ctx.Objs {
		if file == ctx.InternalObj {
			continue
		}
		for i := int64(1); i < file.FirstGlobal; i++ {
			sym := &file.LocalSyms[i]
			if sym.Name == "" || sym.InputSection != nil && !sym.InputSection.IsAlive {
				continue
			}
			s.locals = append(s.locals, symtabEnt{sym, sym.ElfSym(), s.Strtab.Add(sym.Name)})
		}
	}

	seen := utils.NewMapSet[string]()
	for _, file := range ctx.Objs {
		for _, sym := range file.GetGlobalSyms() {
			if sym.File != &file.InputFile || sym.Name == "" || seen.Contains(sym.Name) {
				continue
			}
			seen.Add(sym.Name)
			s.globals = append(s.globals, symtabEnt{sym, sym.ElfSym(), s.Strtab.Add(sym.Name)})
		}
	}

	s.Shdr.Link = uint32(s.Strtab.Shndx)
	s.Shdr.Info = uint32(len(s.locals)) + 1
	s.Shdr.Size = uint64(len(s.locals)+len(s.globals)+1) * uint64(unsafe.Sizeof(Sym{}))
}

func (s *SymtabSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[s.Shdr.Offset:]
	utils.Write[Sym](buf, Sym{})
	buf = buf[unsafe.Sizeof(Sym{}):]

	write := func(ent symtabEnt) {
		esym := Sym{
			Name:  ent.nameOff,
			Info:  ent.esym.Info,
			Other: ent.esym.Other,
			Val:   ent.sym.GetAddr(ctx),
			Size:  ent.esym.Size,
		}
		if chunk := ent.sym.OutputSection; chunk != nil {
			esym.Shndx = uint16(chunk.GetShndx())
		} else if isec := ent.sym.InputSection; isec != nil {
			esym.Shndx = uint16(isec.OutputSection.Shndx)
		} else if ent.sym.IsUndef() {
			esym.Shndx = uint16(elf.SHN_UNDEF)
		} else {
			esym.Shndx = uint16(elf.SHN_ABS)
		}
		utils.Write[Sym](buf, esym)
		buf = buf[unsafe.Sizeof(Sym{}):]
	}

	for _, ent := range s.locals {
		write(ent)
	}
	for _, ent := range s.globals {
		write(ent)
	}
}
