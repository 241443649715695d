package linker

import (
	"debug/elf"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/ksco/rvld/pkg/utils"
)

// SharedFile is a parsed .so given to the link as an -l argument found
// on disk as a DSO rather than an archive/object (spec §4.1's "the
// retrieval lists both object and shared-object forms of -lNAME").
// It embeds InputFile so Symbol.File can point at it exactly the way it
// points at an ObjectFile, without a second Symbol shape.
type SharedFile struct {
	InputFile
	soname  string
	aliases map[uint64][]*Symbol
}

func NewSharedFile(file *File) *SharedFile {
	o := &SharedFile{InputFile: *NewInputFile(file)}
	o.OwnerDso = o

	dynsym := o.FindSection(uint32(elf.SHT_DYNSYM))
	if dynsym == nil {
		return o
	}

	o.FillUpElfSyms(dynsym)
	o.SymbolStrtab = o.GetBytesFromIdx(int64(dynsym.Link))
	o.soname = o.readSoname()
	return o
}

func (o *SharedFile) readSoname() string {
	dyn := o.FindSection(uint32(elf.SHT_DYNAMIC))
	if dyn == nil {
		return filepath.Base(o.File.Name)
	}

	strtabShdr := o.ElfSections[dyn.Link]
	strtab := o.GetBytesFromShdr(&strtabShdr)

	bs := o.GetBytesFromShdr(dyn)
	n := len(bs) / int(unsafe.Sizeof(Dyn{}))
	for i := 0; i < n; i++ {
		d := utils.Read[Dyn](bs)
		bs = bs[unsafe.Sizeof(Dyn{}):]
		if d.Tag == int64(elf.DT_NULL) {
			break
		}
		if d.Tag == int64(elf.DT_SONAME) {
			return getName(strtab, uint32(d.Val))
		}
	}
	return filepath.Base(o.File.Name)
}

func (o *SharedFile) Soname() string {
	if o.soname != "" {
		return o.soname
	}
	return filepath.Base(o.File.Name)
}

// ResolveSymbols fills in every still-undefined Symbol that this DSO
// exports. It must run after every ObjectFile has had its chance to
// resolve (spec §4.2 invariant: an object-file definition always beats
// a DSO's), which is why SharedFile symbols only ever claim a nil File.
//
// A dynsym name of the form "name@version" or "name@@version" (the
// convention a versioned .so's symbol table uses to carry its
// ABI-version tag) resolves the plain "name" and records the version
// requirement in ctx.Verneed so .gnu.version_r gets a Verneed/Vernaux
// pair for it (spec §4.7).
func (o *SharedFile) ResolveSymbols(ctx *Context) {
	o.Symbols = make([]*Symbol, len(o.ElfSyms))

	for i := range o.ElfSyms {
		esym := &o.ElfSyms[i]
		if esym.IsUndef() || esym.Bind() == uint8(elf.STB_LOCAL) {
			continue
		}

		rawName := getName(o.SymbolStrtab, esym.Name)
		if rawName == "" {
			continue
		}

		name := rawName
		version := ""
		if idx := strings.IndexByte(rawName, '@'); idx >= 0 {
			name = rawName[:idx]
			version = strings.TrimLeft(rawName[idx:], "@")
		}

		sym := GetSymbolByName(ctx, name)
		o.Symbols[i] = sym
		if sym.File != nil {
			continue
		}

		sym.File = &o.InputFile
		sym.SymIdx = int32(i)
		sym.Value = esym.Val
		sym.IsWeak = esym.IsWeak()
		sym.IsImported = true

		if version != "" && ctx.Verneed != nil {
			sym.VerIdx = ctx.Verneed.AddVersion(ctx, o, version)
		} else {
			sym.VerIdx = VER_NDX_GLOBAL
		}
	}
}

// FindAliases returns every other exported symbol this DSO defines at
// the same st_value as sym. A dynamic linker backs every name bound to
// a given address with one shared copy, so a copy relocation (spec
// §4.6's NEEDS_COPYREL) that pulls one of those names into .bss.rel.ro
// must pull every alias in too, each pointed at the same copied address
// (original_source/main.cc's find_aliases/has_copyrel pair). The
// value->symbols index is built lazily from this DSO's own dynsym
// table, not from whichever file ended up owning each Symbol, so it
// still finds every alias regardless of which one resolved first.
func (o *SharedFile) FindAliases(sym *Symbol) []*Symbol {
	if o.aliases == nil {
		o.aliases = make(map[uint64][]*Symbol)
		for i := range o.ElfSyms {
			esym := &o.ElfSyms[i]
			if esym.IsUndef() || esym.Bind() == uint8(elf.STB_LOCAL) {
				continue
			}
			if s := o.Symbols[i]; s != nil {
				o.aliases[esym.Val] = append(o.aliases[esym.Val], s)
			}
		}
	}

	utils.Assert(sym.File == &o.InputFile)
	return o.aliases[o.ElfSyms[sym.SymIdx].Val]
}
