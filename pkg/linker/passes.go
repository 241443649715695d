package linker

import (
	"debug/elf"
	"github.com/ksco/rvld/pkg/utils"
	"math"
	"regexp"
	"sort"
	"strings"
)

var cIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type startStopSym struct {
	name  string
	start *Symbol
	stop  *Symbol
}

func CreateInternalFile(ctx *Context) {
	obj := &ObjectFile{}
	ctx.InternalObj = obj
	ctx.Objs = append(ctx.Objs, obj)

	ctx.InternalEsyms = make([]Sym, 1)
	obj.Symbols = append(obj.Symbols, NewSymbol(""))
	obj.FirstGlobal = 1
	obj.IsAlive = true
	obj.Priority = 1

	obj.ElfSyms = ctx.InternalEsyms
}

// ResolveSymbols runs the two-stage resolution spec §4.2 describes: every
// file's global symtab entries race for ownership of their interned
// Symbol (safe under Symbol.resolveMu, so this stage parallelizes freely
// across ctx.Pool), archive/lazy files pulled in by that first pass get
// marked live and re-run, and finally any reference still undefined gets
// one last look at the DSOs on the command line (object definitions
// always win; a DSO only fills in what's left).
func ResolveSymbols(ctx *Context) {
	utils.ForEach(ctx.Pool, ctx.Objs, func(file *ObjectFile) {
		file.ResolveSymbols(ctx)
	})

	MarkLiveObjects(ctx)

	for _, file := range ctx.Objs {
		if !file.IsAlive {
			file.ClearSymbols()
		}
	}

	live := utils.RemoveIf[*ObjectFile](append([]*ObjectFile{}, ctx.Objs...), func(file *ObjectFile) bool {
		return !file.IsAlive
	})
	utils.ForEach(ctx.Pool, live, func(file *ObjectFile) {
		file.ResolveSymbols(ctx)
	})

	ctx.Objs = utils.RemoveIf[*ObjectFile](ctx.Objs, func(file *ObjectFile) bool {
		return !file.IsAlive
	})

	for _, dso := range ctx.Dsos {
		dso.ResolveSymbols(ctx)
	}
}

// MarkLiveObjects is spec §4.2 stage 2's liveness fixpoint: a file already
// known live feeds every ObjectFile its strong symbols pull in back onto
// the worklist, until no worker has anything left to feed.
func MarkLiveObjects(ctx *Context) {
	roots := make([]*ObjectFile, 0)
	for _, file := range ctx.Objs {
		if file.IsAlive {
			roots = append(roots, file)
		}
	}

	utils.Assert(len(roots) > 0)

	utils.Worklist(ctx.Pool, roots, func(file *ObjectFile, feed func(*ObjectFile)) {
		file.MarkLiveObjects(ctx, feed)
	})
}

// CheckDuplicateSymbols reports every global symbol with more than one
// strong (non-weak, defined) candidate, the first of spec §7's two
// accumulating error kinds. Ambiguity between two weak definitions, or
// a weak loser against a strong winner, is ordinary resolution, not an
// error.
func CheckDuplicateSymbols(ctx *Context) {
	for _, file := range ctx.Objs {
		for i := file.FirstGlobal; i < int64(len(file.ElfSyms)); i++ {
			esym := &file.ElfSyms[i]
			if esym.IsUndef() || esym.IsWeak() || esym.IsCommon() {
				continue
			}

			sym := file.Symbols[i]
			if sym.File == &file.InputFile || sym.File == nil {
				continue
			}

			winner := sym.ElfSym()
			if winner.IsWeak() || winner.IsUndef() || winner.IsCommon() {
				continue
			}

			ctx.Errors.AddDuplicateSymbol(sym.File.File.Name, file.File.Name, sym.Name)
		}
	}
}

func RegisterSectionPieces(ctx *Context) {
	for _, file := range ctx.Objs {
		file.RegisterSectionPieces()
	}
}

func ComputeImportExport(ctx *Context) {
	for _, file := range ctx.Objs {
		file.ComputeImportExport()
	}
}

func ComputeMergedSectionSizes(ctx *Context) {
	for _, file := range ctx.Objs {
		for _, m := range file.MergeableSections {
			if m == nil {
				continue
			}
			for _, frag := range m.Fragments {
				frag.ClaimOwner(int64(file.Priority))
			}
		}
	}

	for _, sec := range ctx.MergedSections {
		sec.AssignOffsets()
	}
}

func CreateSyntheticSections(ctx *Context) {
	push := func(chunk Chunker) Chunker {
		ctx.Chunks = append(ctx.Chunks, chunk)
		return chunk
	}

	ctx.Ehdr = push(NewOutputEhdr()).(*OutputEhdr)
	ctx.Phdr = push(NewOutputPhdr()).(*OutputPhdr)
	ctx.Shdr = push(NewOutputShdr()).(*OutputShdr)

	ctx.Got = push(NewGotSection()).(*GotSection)
	ctx.GotPlt = push(NewGotPltSection()).(*GotPltSection)
	ctx.Plt = push(NewPltSection()).(*PltSection)
	ctx.RelPlt = push(NewRelPltSection()).(*RelPltSection)
	ctx.RelDyn = push(NewRelDynSection()).(*RelDynSection)

	ctx.Strtab = push(NewStrtabSection(".strtab", 0)).(*StrtabSection)
	ctx.Shstrtab = push(NewShstrtabSection()).(*ShstrtabSection)
	ctx.Symtab = push(NewSymtabSection(ctx.Strtab)).(*SymtabSection)

	if !ctx.Arg.Static {
		if ctx.Arg.DynamicLinker != "" {
			ctx.Interp = push(NewInterpSection(ctx.Arg.DynamicLinker)).(*InterpSection)
		}
		ctx.Dynstr = push(NewStrtabSection(".dynstr", uint64(elf.SHF_ALLOC))).(*StrtabSection)
		ctx.Dynsym = push(NewDynsymSection()).(*DynsymSection)
		ctx.Versym = push(NewVersymSection()).(*VersymSection)
		ctx.Verneed = push(NewVerneedSection()).(*VerneedSection)
		ctx.Dynamic = push(NewDynamicSection()).(*DynamicSection)
	}

	ctx.Copyrel = push(NewCopyrelSection()).(*CopyrelSection)
}

func BinSections(ctx *Context) {
	group := make([][]*InputSection, len(ctx.OutputSections))
	for _, file := range ctx.Objs {
		for _, isec := range file.Sections {
			if isec == nil || !isec.IsAlive {
				continue
			}

			idx := isec.OutputSection.Idx
			group[idx] = append(group[idx], isec)
		}
	}

	for i, osec := range ctx.OutputSections {
		osec.Members = group[i]
	}
}

func CollectOutputSections(ctx *Context) []Chunker {
	osecs := make([]Chunker, 0)
	for _, osec := range ctx.OutputSections {
		if len(osec.Members) != 0 {
			osecs = append(osecs, osec)
		}
	}
	for _, osec := range ctx.MergedSections {
		if osec.Shdr.Size > 0 {
			osecs = append(osecs, osec)
		}
	}

	sort.SliceStable(osecs, func(i, j int) bool {
		return osecs[i].GetName() < osecs[j].GetName()
	})
	return osecs
}

func AddSyntheticSymbols(ctx *Context) {
	obj := ctx.InternalObj

	add := func(name string) *Symbol {
		esym := Sym{
			Info:  uint8(elf.STT_NOTYPE)<<4 | uint8(elf.STB_GLOBAL)&0xf,
			Shndx: uint16(elf.SHN_ABS),
			Other: uint8(elf.STV_HIDDEN) << 6,
		}
		ctx.InternalEsyms = append(ctx.InternalEsyms, esym)
		sym := GetSymbolByName(ctx, name)
		sym.Value = 0xdeadbeef
		obj.Symbols = append(obj.Symbols, sym)
		return sym
	}

	ctx.__InitArrayStart = add("__init_array_start")
	ctx.__InitArrayEnd = add("__init_array_end")
	ctx.__FiniArrayStart = add("__fini_array_start")
	ctx.__FiniArrayEnd = add("__fini_array_end")
	ctx.__PreinitArrayStart = add("__preinit_array_start")
	ctx.__PreinitArrayEnd = add("__preinit_array_end")

	ctx.__GlobalPointer = add("__global_pointer$")

	ctx.__BssStart = add("__bss_start")
	ctx.__EhdrStart = add("__ehdr_start")
	ctx.__RelaIpltStart = add("__rela_iplt_start")
	ctx.__RelaIpltEnd = add("__rela_iplt_end")
	ctx.__End = add("_end")
	ctx.__Etext = add("_etext")
	ctx.__Edata = add("_edata")
	ctx.__Dynamic = add("_DYNAMIC")
	ctx.__GlobalOffsetTable = add("_GLOBAL_OFFSET_TABLE_")

	obj.ElfSyms = ctx.InternalEsyms

	obj.ResolveSymbols(ctx)
}

// DefineStartStopSymbols binds __start_<name>/__stop_<name> for every
// output section whose name is a valid C identifier (spec §4.9), so C
// code using the `extern char __start_foo[]` idiom for section
// iteration keeps working. A name already claimed by a real definition
// is left alone. Values are filled in later by FixSyntheticSymbols,
// once output addresses are known.
func DefineStartStopSymbols(ctx *Context) {
	obj := ctx.InternalObj
	seen := make(map[string]bool)

	claim := func(name string) *Symbol {
		sym := GetSymbolByName(ctx, name)
		if sym.File != nil {
			return nil
		}

		esym := Sym{
			Info:  uint8(elf.STT_NOTYPE)<<4 | uint8(elf.STB_WEAK)&0xf,
			Shndx: uint16(elf.SHN_ABS),
			Other: uint8(elf.STV_HIDDEN) << 6,
		}
		sym.SymIdx = int32(len(ctx.InternalEsyms))
		ctx.InternalEsyms = append(ctx.InternalEsyms, esym)
		sym.File = &obj.InputFile
		sym.Value = 0xdeadbeef
		obj.Symbols = append(obj.Symbols, sym)
		return sym
	}

	for _, osec := range ctx.OutputSections {
		name := osec.Name
		if !cIdentRe.MatchString(name) || seen[name] {
			continue
		}
		seen[name] = true

		start := claim("__start_" + name)
		stop := claim("__stop_" + name)
		if start != nil || stop != nil {
			ctx.startStopSyms = append(ctx.startStopSyms, startStopSym{name: name, start: start, stop: stop})
		}
	}

	obj.ElfSyms = ctx.InternalEsyms
}

// ExportDynamic adds every symbol ComputeImportExport marked exported
// (plus, with -export-dynamic, every defined global) to .dynsym, so a
// DSO loaded against this executable can bind back into it.
func ExportDynamic(ctx *Context) {
	if ctx.Dynsym == nil {
		return
	}

	for _, file := range ctx.Objs {
		for _, sym := range file.GetGlobalSyms() {
			if sym.File != &file.InputFile {
				continue
			}
			if sym.IsExported || ctx.Arg.ExportDynamic {
				ctx.Dynsym.AddSymbol(ctx, sym)
			}
		}
	}
}

func ClaimUnresolvedSymbols(ctx *Context) {
	for _, file := range ctx.Objs {
		file.ClaimUnresolvedSymbols(ctx)
	}
}

func ScanRels(ctx *Context) {
	for _, file := range ctx.Objs {
		file.ScanRelocations(ctx)
	}

	syms := make([]*Symbol, 0)
	collectOwned := func(file *InputFile) {
		for _, sym := range file.Symbols {
			if sym.File == file {
				if sym.Flags != 0 || sym.IsExported {
					syms = append(syms, sym)
				}
			}
		}
	}
	for _, file := range ctx.Objs {
		collectOwned(&file.InputFile)
	}
	for _, file := range ctx.Dsos {
		collectOwned(&file.InputFile)
	}

	ctx.SymbolsAux = make([]SymbolAux, 0, len(syms))

	addAux := func(sym *Symbol) {
		if sym.AuxIdx == -1 {
			size := int32(len(ctx.SymbolsAux))
			sym.AuxIdx = size
			ctx.SymbolsAux = append(ctx.SymbolsAux, NewSymbolAux())
		}
	}

	for _, sym := range syms {
		addAux(sym)

		if sym.Flags&NEEDS_GOT != 0 {
			ctx.Got.AddGotSymbol(ctx, sym)
		}

		if sym.Flags&NEEDS_GOTTPOFF != 0 {
			ctx.Got.AddGotTpSymbol(ctx, sym)
		}

		if sym.Flags&NEEDS_PLT != 0 {
			ctx.Plt.AddSymbol(ctx, sym)
		}

		if sym.Flags&NEEDS_DYNSYM != 0 && ctx.Dynsym != nil {
			ctx.Dynsym.AddSymbol(ctx, sym)
		}

		if sym.Flags&NEEDS_COPYREL != 0 {
			ctx.Copyrel.AddSymbol(ctx, sym)
			if ctx.Dynsym != nil {
				ctx.Dynsym.AddSymbol(ctx, sym)
			}

			utils.Assert(sym.File.OwnerDso != nil)
			for _, alias := range sym.File.OwnerDso.FindAliases(sym) {
				if alias == sym {
					continue
				}
				alias.HasCopyRel = true
				alias.Value = sym.Value
				if ctx.Dynsym != nil {
					ctx.Dynsym.AddSymbol(ctx, alias)
				}
			}
		}

		sym.Flags = 0
	}

	if ctx.Dynsym != nil {
		for _, sym := range ctx.Plt.Symbols {
			ctx.Dynsym.AddSymbol(ctx, sym)
		}
	}
}

func ComputeSectionSizes(ctx *Context) {
	for _, osec := range ctx.OutputSections {
		offset := uint64(0)
		p2align := int64(0)

		for _, isec := range osec.Members {
			offset = utils.AlignTo(offset, 1<<isec.P2Align)
			isec.Offset = uint32(offset)
			offset += uint64(isec.ShSize)
			p2align = int64(math.Max(float64(p2align), float64(isec.P2Align)))
		}

		osec.Shdr.Size = offset
		osec.Shdr.AddrAlign = 1 << p2align
	}
}

func SortOutputSections(ctx *Context) {
	getRank1 := func(chunk Chunker) int32 {
		typ := chunk.GetShdr().Type
		flags := chunk.GetShdr().Flags

		if flags&uint64(elf.SHF_ALLOC) == 0 {
			return math.MaxInt32 - 1
		}
		if chunk == ctx.Shdr {
			return math.MaxInt32
		}

		if chunk == ctx.Ehdr {
			return 0
		}
		if chunk == ctx.Phdr {
			return 1
		}
		if typ == uint32(elf.SHT_NOTE) {
			return 3
		}

		b2i := func(b bool) int {
			if b {
				return 1
			}
			return 0
		}

		writeable := b2i(flags&uint64(elf.SHF_WRITE) != 0)
		notExec := b2i(flags&uint64(elf.SHF_EXECINSTR) == 0)
		notTls := b2i(flags&uint64(elf.SHF_TLS) == 0)
		notRelro := b2i(!isRelro(ctx, chunk))
		isBss := b2i(typ == uint32(elf.SHT_NOBITS))

		return int32((1 << 10) | writeable<<9 | notExec<<8 | notTls<<7 | notRelro<<6 | isBss<<5)
	}
	getRank2 := func(chunk Chunker) int32 {
		if chunk.GetShdr().Type == uint32(elf.SHT_NOTE) {
			return -int32(chunk.GetShdr().AddrAlign)
		}

		if chunk.GetName() == ".toc" {
			return 2
		}
		if chunk == ctx.Got {
			return 1
		}
		return 0
	}

	sort.SliceStable(ctx.Chunks, func(i, j int) bool {
		x := getRank1(ctx.Chunks[i])
		y := getRank1(ctx.Chunks[j])
		if x != y {
			return x < y
		}

		return getRank2(ctx.Chunks[i]) < getRank2(ctx.Chunks[j])
	})
}

func doSetOsecOffsets(ctx *Context) uint64 {
	alignment := func(chunk Chunker) uint64 {
		return uint64(math.Max(float64(chunk.GetExtraAddrAlign()),
			float64(chunk.GetShdr().AddrAlign)))
	}

	addr := ImageBase
	for _, chunk := range ctx.Chunks {
		if chunk.GetShdr().Flags&uint64(elf.SHF_ALLOC) == 0 {
			continue
		}

		if isTbss(chunk) {
			chunk.GetShdr().Addr = addr
			continue
		}

		addr = utils.AlignTo(addr, alignment(chunk))
		chunk.GetShdr().Addr = addr

		addr += chunk.GetShdr().Size
	}

	for i := 0; i < len(ctx.Chunks); {
		if isTbss(ctx.Chunks[i]) {
			addr := ctx.Chunks[i].GetShdr().Addr
			for ; i < len(ctx.Chunks) && isTbss(ctx.Chunks[i]); i++ {
				addr = utils.AlignTo(addr, alignment(ctx.Chunks[i]))
				ctx.Chunks[i].GetShdr().Addr = addr
				addr += ctx.Chunks[i].GetShdr().Size
			}
		} else {
			i++
		}
	}

	fileoff := uint64(0)
	i := 0
	for i < len(ctx.Chunks) && ctx.Chunks[i].GetShdr().Flags&uint64(elf.SHF_ALLOC) != 0 {
		first := ctx.Chunks[i]
		utils.Assert(first.GetShdr().Type != uint32(elf.SHT_NOBITS))

		fileoff = utils.AlignTo(fileoff, alignment(first))

		for {
			ctx.Chunks[i].GetShdr().Offset = fileoff + ctx.Chunks[i].GetShdr().Addr - first.GetShdr().Addr
			i++

			if i >= len(ctx.Chunks) ||
				ctx.Chunks[i].GetShdr().Flags&uint64(elf.SHF_ALLOC) == 0 ||
				ctx.Chunks[i].GetShdr().Type == uint32(elf.SHT_NOBITS) {
				break
			}

			if ctx.Chunks[i].GetShdr().Addr < first.GetShdr().Addr {
				break
			}

			gapSize := ctx.Chunks[i].GetShdr().Addr - ctx.Chunks[i-1].GetShdr().Addr - ctx.Chunks[i-1].GetShdr().Size

			if gapSize >= PageSize {
				break
			}
		}

		fileoff = ctx.Chunks[i-1].GetShdr().Offset + ctx.Chunks[i-1].GetShdr().Size

		for i < len(ctx.Chunks) &&
			ctx.Chunks[i].GetShdr().Flags&uint64(elf.SHF_ALLOC) != 0 &&
			ctx.Chunks[i].GetShdr().Type == uint32(elf.SHT_NOBITS) {
			i++
		}
	}

	for ; i < len(ctx.Chunks); i++ {
		fileoff = utils.AlignTo(fileoff, ctx.Chunks[i].GetShdr().AddrAlign)
		ctx.Chunks[i].GetShdr().Offset = fileoff
		fileoff += ctx.Chunks[i].GetShdr().Size
	}
	return fileoff
}

func SetOsecOffsets(ctx *Context) uint64 {
	for {
		fileoff := doSetOsecOffsets(ctx)

		if ctx.Phdr == nil {
			return fileoff
		}

		size := ctx.Phdr.Shdr.Size
		ctx.Phdr.UpdateShdr(ctx)

		if size == ctx.Phdr.Shdr.Size {
			return fileoff
		}
	}
}

// shrinkSection is the hook spec's -relax option would shrink code
// through (e.g. folding a GOT-indirect call into a direct one once the
// target's final address is known). x86_64 has no relaxation implemented
// yet, so this only establishes the zero-delta Deltas table every
// downstream offset computation expects; -relax is otherwise inert.
func shrinkSection(isec *InputSection) {
	rels := isec.GetRels()
	isec.Deltas = make([]int32, len(rels)+1)
}

func ResizeSections(ctx *Context) uint64 {
	isResizeable := func(isec *InputSection) bool {
		return isec != nil && isec.IsAlive &&
			isec.Shdr().Flags&uint64(elf.SHF_ALLOC) != 0 &&
			isec.Shdr().Flags&uint64(elf.SHF_EXECINSTR) != 0
	}
	for _, file := range ctx.Objs {
		for _, isec := range file.Sections {
			if isResizeable(isec) {
				shrinkSection(isec)
			}
		}
	}

	for _, file := range ctx.Objs {
		for _, sym := range file.Symbols {
			if sym.File != &file.InputFile {
				continue
			}

			isec := sym.InputSection
			if isec == nil || len(isec.Deltas) == 0 {
				continue
			}

			rels := isec.GetRels()
			idx := sort.Search(len(rels), func(i int) bool {
				return rels[i].Offset >= sym.Value
			})

			sym.Value -= uint64(isec.Deltas[idx])
		}
	}

	ComputeSectionSizes(ctx)
	return SetOsecOffsets(ctx)
}

func FixSyntheticSymbols(ctx *Context) {
	start := func(sym *Symbol, chunk Chunker) {
		if sym != nil && chunk != nil {
			sym.SetOutputSection(chunk)
			sym.Value = chunk.GetShdr().Addr
		}
	}

	stop := func(sym *Symbol, chunk Chunker) {
		if sym != nil && chunk != nil {
			sym.SetOutputSection(chunk)
			sym.Value = chunk.GetShdr().Addr + chunk.GetShdr().Size
		}
	}

	outputSections := make([]Chunker, 0)
	for _, chunk := range ctx.Chunks {
		if chunk.Kind() != ChunkKindHeader {
			outputSections = append(outputSections, chunk)
		}
	}

	for _, chunk := range outputSections {
		switch chunk.GetShdr().Type {
		case uint32(elf.SHT_INIT_ARRAY):
			start(ctx.__InitArrayStart, chunk)
			stop(ctx.__InitArrayEnd, chunk)
		case uint32(elf.SHT_PREINIT_ARRAY):
			start(ctx.__PreinitArrayStart, chunk)
			stop(ctx.__PreinitArrayEnd, chunk)
		case uint32(elf.SHT_FINI_ARRAY):
			start(ctx.__FiniArrayStart, chunk)
			stop(ctx.__FiniArrayEnd, chunk)
		}
	}

	ctx.__GlobalPointer.SetOutputSection(outputSections[0])
	ctx.__GlobalPointer.Value = 0

	if ctx.Ehdr != nil {
		ctx.__EhdrStart.SetOutputSection(ctx.Ehdr)
		ctx.__EhdrStart.Value = ctx.Ehdr.Shdr.Addr
	}

	if ctx.Got != nil {
		ctx.__GlobalOffsetTable.SetOutputSection(ctx.Got)
		ctx.__GlobalOffsetTable.Value = ctx.Got.Shdr.Addr
	}

	if ctx.RelPlt != nil {
		ctx.__RelaIpltStart.SetOutputSection(ctx.RelPlt)
		ctx.__RelaIpltStart.Value = ctx.RelPlt.Shdr.Addr
		ctx.__RelaIpltEnd.SetOutputSection(ctx.RelPlt)
		ctx.__RelaIpltEnd.Value = ctx.RelPlt.Shdr.Addr + ctx.RelPlt.Shdr.Size
	}

	if ctx.Dynamic != nil {
		ctx.Dynamic.Fill(ctx)
		ctx.__Dynamic.SetOutputSection(ctx.Dynamic)
		ctx.__Dynamic.Value = ctx.Dynamic.Shdr.Addr
	}

	for _, sym := range ctx.Copyrel.Symbols {
		off := ctx.SymbolsAux[sym.AuxIdx].CopyRelOffset
		sym.Value = ctx.Copyrel.Shdr.Addr + uint64(off)

		for _, alias := range sym.File.OwnerDso.FindAliases(sym) {
			if alias != sym {
				alias.Value = sym.Value
			}
		}
	}

	for _, ss := range ctx.startStopSyms {
		for _, chunk := range outputSections {
			if chunk.GetName() != ss.name {
				continue
			}
			start(ss.start, chunk)
			stop(ss.stop, chunk)
			break
		}
	}

	var last Chunker
	var lastData Chunker
	for _, chunk := range outputSections {
		if chunk.GetShdr().Flags&uint64(elf.SHF_ALLOC) == 0 {
			continue
		}
		last = chunk
		if chunk.GetShdr().Flags&uint64(elf.SHF_EXECINSTR) != 0 {
			ctx.__Etext.SetOutputSection(chunk)
			ctx.__Etext.Value = chunk.GetShdr().Addr + chunk.GetShdr().Size
		}
		if chunk.GetShdr().Type != uint32(elf.SHT_NOBITS) {
			lastData = chunk
		}
		if chunk.GetShdr().Type == uint32(elf.SHT_NOBITS) {
			ctx.__BssStart.SetOutputSection(chunk)
			ctx.__BssStart.Value = chunk.GetShdr().Addr
			break
		}
	}
	if lastData != nil {
		ctx.__Edata.SetOutputSection(lastData)
		ctx.__Edata.Value = lastData.GetShdr().Addr + lastData.GetShdr().Size
	}
	if last != nil {
		ctx.__End.SetOutputSection(last)
		ctx.__End.Value = last.GetShdr().Addr + last.GetShdr().Size
	}
}

func isRelro(ctx *Context, chunk Chunker) bool {
	flags := chunk.GetShdr().Flags
	typ := chunk.GetShdr().Type

	if flags&uint64(elf.SHF_WRITE) != 0 {
		return (flags&uint64(elf.SHF_TLS) != 0) || typ == uint32(elf.SHT_INIT_ARRAY) ||
			typ == uint32(elf.SHT_FINI_ARRAY) || typ == uint32(elf.SHT_PREINIT_ARRAY) ||
			chunk == ctx.Got || chunk.GetName() == ".toc" ||
			strings.HasSuffix(chunk.GetName(), "rel.ro")
	}
	return false
}

func isTbss(chunk Chunker) bool {
	return chunk.GetShdr().Type == uint32(elf.SHT_NOBITS) && chunk.GetShdr().Flags&uint64(elf.SHF_TLS) != 0
}
