package linker

import "debug/elf"

// pltEntrySize is the size in bytes of one PLT stub. Each stub is a
// single indirect jump through the matching GOTPLT slot:
//
//	ff 25 xx xx xx xx   jmp *GOTPLT[n](%rip)
//	0f 1f 44 00 00      nop
//	90 90 90 90 90      nop x5 (padding to pltEntrySize)
//
// This is the BIND_NOW shape: GOTPLT[n] already holds the symbol's
// final resolved address by the time CopyBuf runs (see GotPltSection),
// so there is no lazy-binding stub0/push/jmp dance to encode.
const pltEntrySize = 16

type PltSection struct {
	Chunk
	Symbols []*Symbol
}

func NewPltSection() *PltSection {
	p := &PltSection{Chunk: NewChunk()}
	p.Name = ".plt"
	p.Shdr.Type = uint32(elf.SHT_PROGBITS)
	p.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR)
	p.Shdr.AddrAlign = 16
	return p
}

// AddSymbol reserves sym a PLT entry (and, transitively, the GOTPLT
// slot the stub jumps through) if it doesn't already have one.
func (p *PltSection) AddSymbol(ctx *Context, sym *Symbol) {
	sym.EnsureAux(ctx)
	if sym.GetPltIdx(ctx) != -1 {
		return
	}
	sym.SetPltIdx(ctx, int32(len(p.Symbols)))
	p.Symbols = append(p.Symbols, sym)
	ctx.GotPlt.AddSymbol(ctx, sym)
}

func (p *PltSection) UpdateShdr(ctx *Context) {
	p.Shdr.Size = uint64(len(p.Symbols)) * pltEntrySize
}

func (p *PltSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[p.Shdr.Offset:]
	for i, sym := range p.Symbols {
		ent := buf[i*pltEntrySize:]
		gotPltAddr := ctx.GotPlt.Shdr.Addr + uint64(sym.GetGotPltIdx(ctx))*8
		pltAddr := p.Shdr.Addr + uint64(i)*pltEntrySize

		ent[0] = 0xff
		ent[1] = 0x25
		writeUint32(ent[2:], uint32(int64(gotPltAddr)-int64(pltAddr)-6))
		copy(ent[6:], []byte{0x0f, 0x1f, 0x44, 0x00, 0x00})
		for j := 11; j < pltEntrySize; j++ {
			ent[j] = 0x90
		}
	}
}

func writeUint32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}
