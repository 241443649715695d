package linker

import (
	"debug/elf"
	"github.com/ksco/rvld/pkg/utils"
)

type GotSection struct {
	Chunk
	GotSyms   []*Symbol
	GotTpSyms []*Symbol
}

func NewGotSection() *GotSection {
	g := &GotSection{Chunk: NewChunk()}
	g.Name = ".got"
	g.Shdr.Type = uint32(elf.SHT_PROGBITS)
	g.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	g.Shdr.AddrAlign = 8
	return g
}

func (g *GotSection) AddGotSymbol(ctx *Context, sym *Symbol) {
	sym.EnsureAux(ctx)
	if sym.GetGotIdx(ctx) != -1 {
		return
	}
	sym.SetGotIdx(ctx, int32(g.Shdr.Size/8))
	g.Shdr.Size += 8
	g.GotSyms = append(g.GotSyms, sym)

	// A GOT slot for a symbol a DSO provides can't be filled with a
	// link-time address (the DSO's real load address isn't known until
	// runtime); it's left zero here and bound by an R_X86_64_GLOB_DAT
	// relocation in .rela.dyn instead (spec §4.6 NEEDS_DYNSYM outcome).
	if sym.IsImported {
		ctx.RelDyn.AddGlobDat(sym)
		if ctx.Dynsym != nil {
			ctx.Dynsym.AddSymbol(ctx, sym)
		}
	}
}

func (g *GotSection) AddGotTpSymbol(ctx *Context, sym *Symbol) {
	sym.EnsureAux(ctx)
	if sym.GetGotTpIdx(ctx) != -1 {
		return
	}
	sym.SetGotTpIdx(ctx, int32(g.Shdr.Size/8))
	g.Shdr.Size += 8
	g.GotTpSyms = append(g.GotTpSyms, sym)
}

// GetEntries returns every GOT slot whose value is final at link time
// (plain-defined symbols, and the TP-relative TLS slots); imported
// symbols are excluded here since their slot is filled by RelDyn's
// GLOB_DAT relocations at load time instead.
func (g *GotSection) GetEntries(ctx *Context) []GotEntry {
	entries := make([]GotEntry, 0, len(g.GotSyms)+len(g.GotTpSyms))
	for _, sym := range g.GotSyms {
		if sym.IsImported {
			continue
		}
		idx := sym.GetGotIdx(ctx)
		entries = append(entries, NewGotEntry(int64(idx), sym.GetAddr(ctx), RelNone))
	}

	for _, sym := range g.GotTpSyms {
		idx := sym.GetGotTpIdx(ctx)
		entries = append(entries, NewGotEntry(int64(idx), sym.GetAddr(ctx)-ctx.TpAddr, RelNone))
	}

	return entries
}

func (g *GotSection) UpdateShdr(ctx *Context) {
	if g.Shdr.Size == 0 {
		g.Shdr.Size = 8
	}
}

func (g *GotSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[g.Shdr.Offset:]
	for i := uint64(0); i < g.Shdr.Size; i++ {
		buf[i] = 0
	}

	for _, ent := range g.GetEntries(ctx) {
		if !ent.IsRel() {
			utils.Write[uint64](buf[ent.Idx*8:], ent.Val)
		}
	}
}
