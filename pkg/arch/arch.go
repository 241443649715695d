// Package arch factors the per-architecture relocation routines behind a
// small interface, so pkg/linker's core pipeline never switches on a
// relocation type directly. Only one concrete Arch ships today (X86_64);
// adding another means writing a new file in this package, not touching
// the core.
package arch

import "fmt"

// Needs* mirror the bits linker.Symbol.Flags accumulates during a
// relocation scan. They are redeclared here (rather than imported) so this
// package has no dependency on pkg/linker.
const (
	NeedsGot uint32 = 1 << iota
	NeedsPlt
	NeedsGotTpOff
	NeedsCopyRel
)

// RelocParams is the precomputed arithmetic every relocation formula reads
// from, using mold/ELF's canonical one-letter names.
type RelocParams struct {
	S      uint64 // symbol address
	A      int64  // addend
	P      uint64 // address of the relocation itself
	G      uint64 // symbol's GOT entry offset from the GOT's own address
	GOT    uint64 // .got address
	Plt    uint64 // symbol's PLT entry address
	TpAddr uint64 // thread-pointer base (TLS)
	IsUndefWeak bool
}

type UnsupportedRelocationError struct {
	Type uint32
}

func (e *UnsupportedRelocationError) Error() string {
	return fmt.Sprintf("unsupported relocation type: %d", e.Type)
}

// Arch is the per-target collaborator spec §1 calls out explicitly: the
// core never encodes instruction formats, it always goes through this.
type Arch interface {
	Name() string

	// ScanReloc classifies relocType and reports which synthetic-section
	// slots the symbol it targets will need. skip is true for kinds that
	// require no action (e.g. a plain pc-relative call with no GOT/PLT
	// indirection).
	ScanReloc(relType uint32) (needs uint32, skip bool, err error)

	// ApplyReloc writes the relocated value for relType into loc (the
	// relocation site, already sliced to its offset within the output).
	ApplyReloc(relType uint32, loc []byte, p RelocParams) error

	// IsNoneType reports the architecture's "no relocation" sentinel,
	// which the scanner and applier both skip outright.
	IsNoneType(relType uint32) bool
}
