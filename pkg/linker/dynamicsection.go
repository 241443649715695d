package linker

import (
	"debug/elf"
	"unsafe"

	"github.com/ksco/rvld/pkg/utils"
)

// DynamicSection backs .dynamic: the tag/value table a dynamic linker
// reads before doing anything else. Fill runs on every UpdateShdr (to size
// the table) and once more after every other synthetic section has its
// final size and address, since most tags are just "the address of
// section X".
type DynamicSection struct {
	Chunk
	entries []Dyn
}

func NewDynamicSection() *DynamicSection {
	s := &DynamicSection{Chunk: NewChunk()}
	s.Name = ".dynamic"
	s.Shdr.Type = uint32(elf.SHT_DYNAMIC)
	s.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	s.Shdr.EntSize = uint64(unsafe.Sizeof(Dyn{}))
	s.Shdr.AddrAlign = 8
	return s
}

func (s *DynamicSection) add(tag int64, val uint64) {
	s.entries = append(s.entries, Dyn{Tag: tag, Val: val})
}

// Fill rebuilds the tag list from the rest of Context. Called from
// UpdateShdr, and again from FixSyntheticSymbols after SetOsecOffsets
// has assigned every section's final address.
func (s *DynamicSection) Fill(ctx *Context) {
	s.entries = s.entries[:0]

	for _, dso := range ctx.Dsos {
		s.add(int64(elf.DT_NEEDED), uint64(ctx.Dynstr.Add(dso.Soname())))
	}

	if ctx.Arg.Pie {
		s.add(int64(elf.DT_FLAGS_1), uint64(elf.DF_1_PIE))
	}

	if ctx.RelDyn != nil && ctx.RelDyn.Shdr.Size > 0 {
		s.add(int64(elf.DT_RELA), ctx.RelDyn.Shdr.Addr)
		s.add(int64(elf.DT_RELASZ), ctx.RelDyn.Shdr.Size)
		s.add(int64(elf.DT_RELAENT), ctx.RelDyn.Shdr.EntSize)
	}

	if ctx.Plt != nil && len(ctx.Plt.Symbols) > 0 {
		s.add(int64(elf.DT_PLTGOT), ctx.GotPlt.Shdr.Addr)
		s.add(int64(elf.DT_PLTRELSZ), ctx.RelPlt.Shdr.Size)
		s.add(int64(elf.DT_JMPREL), ctx.RelPlt.Shdr.Addr)
	}

	if ctx.Dynsym != nil {
		s.add(int64(elf.DT_SYMTAB), ctx.Dynsym.Shdr.Addr)
		s.add(int64(elf.DT_SYMENT), ctx.Dynsym.Shdr.EntSize)
	}
	if ctx.Dynstr != nil {
		s.add(int64(elf.DT_STRTAB), ctx.Dynstr.Shdr.Addr)
		s.add(int64(elf.DT_STRSZ), ctx.Dynstr.Shdr.Size)
	}
	if ctx.Versym != nil {
		s.add(int64(elf.DT_VERSYM), ctx.Versym.Shdr.Addr)
	}
	if ctx.Verneed != nil && len(ctx.Verneed.Needed) > 0 {
		s.add(int64(elf.DT_VERNEED), ctx.Verneed.Shdr.Addr)
		s.add(int64(elf.DT_VERNEEDNUM), uint64(len(ctx.Verneed.Needed)))
	}

	s.add(int64(elf.DT_NULL), 0)

	s.Shdr.Size = uint64(len(s.entries)) * uint64(unsafe.Sizeof(Dyn{}))
}

// UpdateShdr re-derives the tag list (and so the section's size) on
// every call, not just the one FixSyntheticSymbols makes once layout is
// final. The entry count only depends on which tags apply, not on the
// addresses that fill their values, so this keeps the section's size
// accurate even during the early UpdateShdr pass that decides whether
// a zero-size synthetic chunk gets pruned, before any address exists.
func (s *DynamicSection) UpdateShdr(ctx *Context) {
	if ctx.Dynstr != nil {
		s.Shdr.Link = uint32(ctx.Dynstr.Shndx)
	}
	s.Fill(ctx)
}

func (s *DynamicSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[s.Shdr.Offset:]
	for _, d := range s.entries {
		utils.Write[Dyn](buf, d)
		buf = buf[unsafe.Sizeof(Dyn{}):]
	}
}
