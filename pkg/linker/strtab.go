package linker

import "debug/elf"

// StrtabSection is a plain null-terminated byte-string accumulator. It
// backs .strtab, .dynstr, and .shstrtab alike (spec §3's STRTAB/DYNSTR/
// SHSTRTAB synthetic variants) — each instance just gets a different name
// and a different set of callers feeding Add.
type StrtabSection struct {
	Chunk
	strs   []string
	offset map[string]uint32
}

func NewStrtabSection(name string, flags uint64) *StrtabSection {
	s := &StrtabSection{Chunk: NewChunk(), offset: make(map[string]uint32)}
	s.Name = name
	s.Shdr.Type = uint32(elf.SHT_STRTAB)
	s.Shdr.Flags = flags
	s.Shdr.AddrAlign = 1
	s.Shdr.Size = 1 // index 0 is always the empty string
	return s
}

// Add interns str, returning its byte offset within the section. Callers
// run serially (symbol-table, dynamic-section and version-section code,
// each from its UpdateShdr or earlier), so no locking.
func (s *StrtabSection) Add(str string) uint32 {
	if off, ok := s.offset[str]; ok {
		return off
	}
	off := uint32(s.Shdr.Size)
	s.offset[str] = off
	s.strs = append(s.strs, str)
	s.Shdr.Size += uint64(len(str)) + 1
	return off
}

func (s *StrtabSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[s.Shdr.Offset:]
	buf[0] = 0
	for _, str := range s.strs {
		off := s.offset[str]
		writeString(buf[off:], str)
	}
}

type ShstrtabSection struct {
	StrtabSection
}

func NewShstrtabSection() *ShstrtabSection {
	return &ShstrtabSection{StrtabSection: *NewStrtabSection(".shstrtab", 0)}
}

// UpdateShdr interns every chunk's name, including its own, and stamps
// each chunk's Shdr.Name with the resulting offset — it must run after
// every other chunk's name is final but before OutputShdr.CopyBuf.
func (s *ShstrtabSection) UpdateShdr(ctx *Context) {
	for _, chunk := range ctx.Chunks {
		if chunk.GetName() != "" {
			chunk.GetShdr().Name = s.Add(chunk.GetName())
		}
	}
}
