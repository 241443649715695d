package linker

import (
	"debug/elf"
	"unsafe"

	"github.com/ksco/rvld/pkg/utils"
)

// VersymSection backs .gnu.version: one Half per .dynsym entry (plus the
// reserved null entry), naming which version of its defining DSO a
// dynsym row was resolved against.
type VersymSection struct {
	Chunk
}

func NewVersymSection() *VersymSection {
	s := &VersymSection{Chunk: NewChunk()}
	s.Name = ".gnu.version"
	s.Shdr.Type = uint32(elf.SHT_GNU_VERSYM)
	s.Shdr.Flags = uint64(elf.SHF_ALLOC)
	s.Shdr.EntSize = 2
	s.Shdr.AddrAlign = 2
	return s
}

func (s *VersymSection) UpdateShdr(ctx *Context) {
	if ctx.Dynsym != nil {
		s.Shdr.Link = uint32(ctx.Dynsym.Shndx)
		s.Shdr.Size = uint64(len(ctx.Dynsym.entries)+1) * 2
	}
}

func (s *VersymSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[s.Shdr.Offset:]
	utils.Write[uint16](buf, VER_NDX_LOCAL)
	buf = buf[2:]
	for _, ent := range ctx.Dynsym.entries {
		utils.Write[uint16](buf, ent.sym.VerIdx)
		buf = buf[2:]
	}
}

// versionEntry is one named version requirement within a Verneed
// record, paired with the Vernaux index it was assigned when added.
type versionEntry struct {
	name   string
	verIdx uint16
}

// neededVersion is one DSO's worth of requested symbol versions, i.e.
// one Verneed record plus its Vernaux chain.
type neededVersion struct {
	dso     *SharedFile
	entries []versionEntry
}

// VerneedSection backs .gnu.version_r: the set of named versions this
// executable requires from each DSO it imports symbols from (spec §4.7
// "dynamic-symbol export & versioning").
type VerneedSection struct {
	Chunk
	Needed []*neededVersion

	// nextVerIdx is the running Vernaux counter spec §4.7 specifies
	// ("starts at 2"), shared across every DSO rather than restarted
	// per-DSO, so two versioned DSOs never hand out the same VerIdx.
	nextVerIdx uint16
}

func NewVerneedSection() *VerneedSection {
	s := &VerneedSection{Chunk: NewChunk(), nextVerIdx: 2}
	s.Name = ".gnu.version_r"
	s.Shdr.Type = uint32(elf.SHT_GNU_VERNEED)
	s.Shdr.Flags = uint64(elf.SHF_ALLOC)
	s.Shdr.AddrAlign = 8
	return s
}

// AddVersion records that a symbol imported from dso was resolved at
// version, ensuring one Verneed/Vernaux pair exists for it, and returns
// the matching version index for the caller to store in the symbol's
// VerIdx.
func (s *VerneedSection) AddVersion(ctx *Context, dso *SharedFile, version string) uint16 {
	var nv *neededVersion
	for _, cand := range s.Needed {
		if cand.dso == dso {
			nv = cand
			break
		}
	}
	if nv == nil {
		nv = &neededVersion{dso: dso}
		s.Needed = append(s.Needed, nv)
	}

	for _, e := range nv.entries {
		if e.name == version {
			return e.verIdx
		}
	}

	verIdx := s.nextVerIdx
	s.nextVerIdx++
	nv.entries = append(nv.entries, versionEntry{name: version, verIdx: verIdx})
	return verIdx
}

func (s *VerneedSection) UpdateShdr(ctx *Context) {
	if ctx.Dynstr == nil {
		return
	}
	n := uint64(0)
	for _, nv := range s.Needed {
		n += uint64(unsafe.Sizeof(Verneed{})) + uint64(len(nv.entries))*uint64(unsafe.Sizeof(Vernaux{}))
		ctx.Dynstr.Add(nv.dso.Soname())
		for _, e := range nv.entries {
			ctx.Dynstr.Add(e.name)
		}
	}
	s.Shdr.Size = n
	s.Shdr.Link = uint32(ctx.Dynstr.Shndx)
	s.Shdr.Info = uint32(len(s.Needed))
}

func (s *VerneedSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[s.Shdr.Offset:]
	for i, nv := range s.Needed {
		vn := Verneed{
			Version: 1,
			Cnt:     uint16(len(nv.entries)),
			File:    ctx.Dynstr.Add(nv.dso.Soname()),
			Aux:     uint32(unsafe.Sizeof(Verneed{})),
		}
		if i < len(s.Needed)-1 {
			vn.Next = uint32(unsafe.Sizeof(Verneed{})) + uint32(len(nv.entries))*uint32(unsafe.Sizeof(Vernaux{}))
		}
		utils.Write[Verneed](buf, vn)
		aux := buf[unsafe.Sizeof(Verneed{}):]
		for j, e := range nv.entries {
			va := Vernaux{
				Hash:  elfHash(e.name),
				Other: e.verIdx,
				Name:  ctx.Dynstr.Add(e.name),
			}
			if j < len(nv.entries)-1 {
				va.Next = uint32(unsafe.Sizeof(Vernaux{}))
			}
			utils.Write[Vernaux](aux, va)
			aux = aux[unsafe.Sizeof(Vernaux{}):]
		}
		buf = buf[vn.Next:]
		if vn.Next == 0 {
			break
		}
	}
}

// elfHash is the SysV ELF hash function used to tag each Vernaux entry.
func elfHash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = (h << 4) + uint32(name[i])
		if g := h & 0xf0000000; g != 0 {
			h ^= g >> 24
			h &= ^g
		}
	}
	return h
}
