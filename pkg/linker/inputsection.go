package linker

import (
	"debug/elf"
	"fmt"
	"github.com/ksco/rvld/pkg/arch"
	"github.com/ksco/rvld/pkg/utils"
	"math"
	"unsafe"
)

type InputSection struct {
	File          *ObjectFile
	OutputSection *OutputSection
	Contents      []byte
	Deltas        []int32
	Offset        uint32
	Shndx         uint32
	RelsecIdx     uint32
	ShSize        uint32
	IsAlive       bool
	P2Align       uint8
	Rels          []Rela
}

func NewInputSection(
	ctx *Context, file *ObjectFile, name string, shndx int64,
) *InputSection {
	s := &InputSection{
		Offset:    math.MaxUint32,
		Shndx:     math.MaxUint32,
		RelsecIdx: math.MaxUint32,
		ShSize:    math.MaxUint32,
		IsAlive:   true,
	}
	s.File = file
	s.Shndx = uint32(shndx)

	shdr := s.Shdr()
	if shndx < int64(len(file.ElfSections)) {
		s.Contents = file.File.Contents[shdr.Offset : shdr.Offset+shdr.Size]
	}

	toP2Align := func(alignment uint64) int64 {
		if alignment == 0 {
			return 0
		}
		return int64(utils.CountrZero[uint64](alignment))
	}

	if shdr.Flags&uint64(elf.SHF_COMPRESSED) != 0 {
		chdr := s.Chdr()
		s.ShSize = uint32(chdr.Size)
		s.P2Align = uint8(toP2Align(chdr.AddrAlign))
	} else {
		s.ShSize = uint32(shdr.Size)
		s.P2Align = uint8(toP2Align(shdr.AddrAlign))
	}

	s.OutputSection =
		GetOutputSectionInstance(ctx, name, uint64(shdr.Type), shdr.Flags)

	return s
}

func (s *InputSection) Shdr() *Shdr {
	if s.Shndx < uint32(len(s.File.ElfSections)) {
		return &s.File.ElfSections[s.Shndx]
	}

	utils.Fatal("unreachable")
	return nil
}

func (s *InputSection) Chdr() Chdr {
	return utils.Read[Chdr](s.Contents)
}

func (s *InputSection) GetAddr() uint64 {
	return s.OutputSection.Shdr.Addr + uint64(s.Offset)
}

func (s *InputSection) Name() string {
	if uint32(len(s.File.ElfSections)) <= s.Shndx {
		return ".common"
	}
	return getName(s.File.ShStrtab, s.File.ElfSections[s.Shndx].Name)
}

func (s *InputSection) GetRels() []Rela {
	if s.RelsecIdx == math.MaxUint32 || s.Rels != nil {
		return s.Rels
	}

	bs := s.File.GetBytesFromShdr(&s.File.InputFile.ElfSections[s.RelsecIdx])
	nums := len(bs) / int(unsafe.Sizeof(Rela{}))
	s.Rels = make([]Rela, 0)
	for nums > 0 {
		s.Rels = append(s.Rels, utils.Read[Rela](bs))
		bs = bs[unsafe.Sizeof(Rela{}):]
		nums--
	}

	return s.Rels
}

// ScanRelocations walks every relocation in this section and asks
// ctx.Arch to classify it (spec §4.6), setting the referenced symbol's
// NEEDS_* bits accordingly. An undefined non-weak reference is
// accumulated into the error checkpoint rather than being fatal
// on the spot, so a whole phase's offenders are reported together.
func (s *InputSection) ScanRelocations(ctx *Context) {
	utils.Assert(s.Shdr().Flags&uint64(elf.SHF_ALLOC) != 0)

	rels := s.GetRels()
	for i := 0; i < len(rels); i++ {
		rel := &rels[i]
		if ctx.Arch.IsNoneType(rel.Type) {
			continue
		}

		sym := s.File.Symbols[rel.Sym]
		if sym.File == nil {
			ctx.Errors.AddUndefinedSymbol(s.File.File.Name, sym.Name)
			continue
		}

		needs, skip, err := ctx.Arch.ScanReloc(rel.Type)
		if err != nil {
			utils.Fatal(fmt.Sprintf("%s: %v", s.File.File.Name, err))
		}
		if skip {
			continue
		}

		switch {
		case needs&arch.NeedsGot != 0:
			sym.Flags |= NEEDS_GOT
		case needs&arch.NeedsPlt != 0:
			sym.Flags |= NEEDS_PLT
		case needs&arch.NeedsGotTpOff != 0:
			sym.Flags |= NEEDS_GOTTPOFF
		case needs&arch.NeedsCopyRel != 0:
			sym.Flags |= NEEDS_COPYREL
		}

		if sym.IsImported && needs&(arch.NeedsGot|arch.NeedsPlt) == 0 {
			sym.Flags |= NEEDS_DYNSYM
		}
	}
}

func (s *InputSection) GetPriority() int64 {
	return (int64(s.File.Priority) << 32) | int64(s.Shndx)
}

func (s *InputSection) WriteTo(ctx *Context, buf []byte) {
	if s.Shdr().Type == uint32(elf.SHT_NOBITS) || s.ShSize == 0 {
		return
	}

	s.CopyContents(ctx, buf)

	if s.Shdr().Flags&uint64(elf.SHF_ALLOC) != 0 {
		s.ApplyRelocAlloc(ctx, buf)
	}
}

func (s *InputSection) CopyContents(ctx *Context, buf []byte) {
	if len(s.Deltas) == 0 {
		copy(buf, s.Contents)
		return
	}

	rels := s.GetRels()
	pos := uint64(0)
	for i := 0; i < len(rels); i++ {
		delta := s.Deltas[i+1] - s.Deltas[i]
		if delta == 0 {
			continue
		}
		utils.Assert(delta > 0)

		r := rels[i]
		copy(buf, s.Contents[pos:r.Offset])
		buf = buf[r.Offset-pos:]
		pos = r.Offset + uint64(delta)
	}

	copy(buf, s.Contents[pos:])
}

// ApplyRelocAlloc writes every relocation's computed value into base,
// delegating the per-type arithmetic to ctx.Arch (spec §4.6's external
// collaborator). S/A/P/G/GOT/TpAddr follow the canonical ELF one-letter
// naming the arch package's RelocParams mirrors.
func (s *InputSection) ApplyRelocAlloc(ctx *Context, base []byte) {
	rels := s.GetRels()

	getDelta := func(idx int) int32 {
		if len(s.Deltas) == 0 {
			return 0
		}
		return s.Deltas[idx]
	}

	for i := 0; i < len(rels); i++ {
		rel := rels[i]
		if ctx.Arch.IsNoneType(rel.Type) {
			continue
		}

		sym := s.File.Symbols[rel.Sym]
		offset := rel.Offset - uint64(getDelta(i))
		loc := base[offset:]

		if sym.File == nil {
			utils.Fatal(fmt.Sprintf("undefined symbol: %s", sym.Name))
		}

		params := arch.RelocParams{
			S:           sym.GetAddr(ctx),
			A:           rel.Addend,
			P:           s.GetAddr() + offset,
			G:           uint64(sym.GetGotIdx(ctx)) * 8,
			GOT:         ctx.Got.Shdr.Addr,
			TpAddr:      ctx.TpAddr,
			IsUndefWeak: sym.ElfSym().IsUndefWeak(),
		}
		if idx := sym.GetPltIdx(ctx); idx != -1 {
			params.Plt = sym.GetPltAddr(ctx)
		}
		if needs, _, _ := ctx.Arch.ScanReloc(rel.Type); needs&arch.NeedsGotTpOff != 0 {
			params.G = uint64(sym.GetGotTpIdx(ctx)) * 8
		}

		if err := ctx.Arch.ApplyReloc(rel.Type, loc, params); err != nil {
			utils.Fatal(fmt.Sprintf("%s: %v", s.File.File.Name, err))
		}
	}
}

func (s *InputSection) GetFragment(rel *Rela) (*SectionFragment, uint32) {
	esym := &s.File.ElfSyms[rel.Sym]
	if esym.Type() == uint8(elf.STT_SECTION) {
		m := s.File.MergeableSections[s.File.GetShndx(esym, int64(rel.Sym))]
		return m.GetFragment(uint32(esym.Val) + uint32(rel.Addend))
	}
	return nil, 0
}
