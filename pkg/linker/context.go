package linker

import (
	"sync"

	"github.com/ksco/rvld/pkg/arch"
	"github.com/ksco/rvld/pkg/utils"
)

// ContextArg is the parsed option vector (spec §6's option table), filled
// in by pkg/config and read from everywhere via Context.Arg.
type ContextArg struct {
	Output         string
	Emulation      MachineType
	DynamicLinker  string
	ExportDynamic  bool
	Entry          string
	LibraryPaths   []string
	Static         bool
	Pie            bool
	Relax          bool
	Filler         int64
	HasFiller      bool
	Sysroot        string
	Rpaths         []string
	VersionScript  string
	ThreadCount    int
	Preload        bool
	NoFork         bool
	TraceSymbols   []string
	Trace          bool
	Stat           bool
	Perf           bool
	PrintMap       bool
}

// Context is the single threaded-through value every phase reads and
// mutates; nothing process-wide lives outside of it (spec §9 Design Note
// "global mutable state → threaded context").
type Context struct {
	Arg  ContextArg
	Arch arch.Arch

	symbolMapMu sync.Mutex
	SymbolMap   map[string]*Symbol

	SymbolsAux []SymbolAux

	Ehdr    *OutputEhdr
	Shdr    *OutputShdr
	Phdr    *OutputPhdr
	Got     *GotSection
	GotPlt  *GotPltSection
	Plt     *PltSection
	RelPlt  *RelPltSection
	RelDyn  *RelDynSection
	Dynamic *DynamicSection
	Dynsym  *DynsymSection
	Dynstr  *StrtabSection
	Strtab  *StrtabSection
	Shstrtab *ShstrtabSection
	Symtab  *SymtabSection
	Interp  *InterpSection
	Versym  *VersymSection
	Verneed *VerneedSection
	Copyrel *CopyrelSection

	Buf []byte

	FilePriority int64
	Visited      utils.MapSet[string]

	// Pool is the goroutine pool every parallel phase in passes.go draws
	// from (spec §5/§6). Sized from Arg.ThreadCount, falling back to
	// RVLD_THREADS / host parallelism in pkg/config.
	Pool *utils.Pool

	Objs    []*ObjectFile
	Dsos    []*SharedFile
	AsNeeded bool

	InternalObj   *ObjectFile
	InternalEsyms []Sym

	Chunks []Chunker

	mergedSectionsMu sync.Mutex
	MergedSections   []*MergedSection
	OutputSections   []*OutputSection

	comdats      comdatRegistry

	DefaultVersion uint16

	TpAddr uint64

	Errors  ErrorCheckpoint
	Preload *PreloadCache

	__InitArrayStart    *Symbol
	__InitArrayEnd      *Symbol
	__FiniArrayStart    *Symbol
	__FiniArrayEnd      *Symbol
	__PreinitArrayStart *Symbol
	__PreinitArrayEnd   *Symbol
	__GlobalPointer     *Symbol
	__BssStart          *Symbol
	__EhdrStart         *Symbol
	__RelaIpltStart     *Symbol
	__RelaIpltEnd       *Symbol
	__End               *Symbol
	__Etext             *Symbol
	__Edata             *Symbol
	__Dynamic           *Symbol
	__GlobalOffsetTable *Symbol

	startStopSyms []startStopSym
}

func NewContext() *Context {
	return &Context{
		Arg: ContextArg{
			Emulation:   MachineTypeNone,
			Output:      "a.out",
			ThreadCount: 1,
		},
		SymbolMap:      make(map[string]*Symbol),
		Visited:        utils.NewMapSet[string](),
		FilePriority:   10000,
		DefaultVersion: VER_NDX_GLOBAL,
		Pool:           utils.NewPool(1),
		Arch:           arch.X86_64{},
		comdats:        comdatRegistry{groups: make(map[string]*ComdatGroup)},
		Preload:        NewPreloadCache(),
	}
}
