package linker

import (
	"debug/elf"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ksco/rvld/pkg/utils"
)

// MergedSection backs one output SHF_MERGE section (.rodata.str1.1 and
// friends). Map is populated by RegisterSectionPieces, which walks the
// ObjectFiles serially (spec §4.4); lookups/inserts still take mapMu so
// the map is safe to fill from several goroutines, and once a key's
// *SectionFragment exists, further contention runs through its own
// lock-free ClaimOwner instead.
type MergedSection struct {
	Chunk

	mapMu sync.RWMutex
	Map   map[string]*SectionFragment
}

func NewMergedSection(name string, flags uint64, typ uint32) *MergedSection {
	r := &MergedSection{
		Chunk: NewChunk(),
		Map:   make(map[string]*SectionFragment),
	}
	r.Name = name
	r.Shdr.Flags = flags
	r.Shdr.Type = typ
	return r
}

func GetMergedSectionInstance(ctx *Context, name string, typ uint32, flags uint64) *MergedSection {
	name = GetOutputName(name, flags)
	flags = flags & ^uint64(elf.SHF_GROUP) & ^uint64(elf.SHF_MERGE) &
		^uint64(elf.SHF_STRINGS) & ^uint64(elf.SHF_COMPRESSED)

	ctx.mergedSectionsMu.Lock()
	defer ctx.mergedSectionsMu.Unlock()

	for _, osec := range ctx.MergedSections {
		if name == osec.Name && flags == osec.Shdr.Flags && typ == osec.Shdr.Type {
			return osec
		}
	}

	osec := NewMergedSection(name, flags, typ)
	ctx.MergedSections = append(ctx.MergedSections, osec)
	return osec
}

// Insert returns the fragment for key, creating it on first sight, then
// claims ownership at priority (spec §4.4 invariant 3: the fragment's
// surviving content comes from the lowest-priority file that defines
// it). p2align is raised with a CAS retry loop since multiple files can
// race to bump it for the same key.
func (m *MergedSection) Insert(key string, p2align uint32, priority int64) *SectionFragment {
	m.mapMu.RLock()
	fragment, ok := m.Map[key]
	m.mapMu.RUnlock()

	if !ok {
		m.mapMu.Lock()
		fragment, ok = m.Map[key]
		if !ok {
			fragment = NewSectionFragment(m)
			m.Map[key] = fragment
		}
		m.mapMu.Unlock()
	}

	for {
		cur := atomic.LoadUint32(&fragment.P2Align)
		if p2align <= cur {
			break
		}
		if atomic.CompareAndSwapUint32(&fragment.P2Align, cur, p2align) {
			break
		}
	}

	fragment.ClaimOwner(priority)
	return fragment
}

func (m *MergedSection) AssignOffsets() {
	var fragments []struct {
		Key string
		Val *SectionFragment
	}

	for key := range m.Map {
		fragments = append(fragments, struct {
			Key string
			Val *SectionFragment
		}{key, m.Map[key]})
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		x := fragments[i]
		y := fragments[j]
		if x.Val.P2Align != y.Val.P2Align {
			return x.Val.P2Align < y.Val.P2Align
		}
		if len(x.Key) != len(y.Key) {
			return len(x.Key) < len(y.Key)
		}
		return x.Key < y.Key
	})

	offset := uint64(0)
	p2align := uint64(0)
	for _, frag := range fragments {
		if !frag.Val.IsAlive() {
			continue
		}

		offset = utils.AlignTo(offset, 1<<frag.Val.P2Align)
		frag.Val.Offset = uint32(offset)
		offset += uint64(len(frag.Key))
		if p2align < uint64(frag.Val.P2Align) {
			p2align = uint64(frag.Val.P2Align)
		}
	}

	m.Shdr.Size = utils.AlignTo(offset, 1<<p2align)
	m.Shdr.AddrAlign = 1 << p2align
}

func (m *MergedSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[m.Shdr.Offset:]
	for key, frag := range m.Map {
		if frag.IsAlive() {
			copy(buf[frag.Offset:], key)
		}
	}
}
