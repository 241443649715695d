package arch

import (
	"debug/elf"
	"encoding/binary"
)

// X86_64 implements Arch for the ELF64 x86-64 ABI's small/medium code
// model relocations: the ones a statically- or dynamically-linked
// executable actually emits for function calls, data references, PLT
// stubs, GOT loads, and TLS access.
type X86_64 struct{}

func (X86_64) Name() string { return "x86_64" }

func (X86_64) IsNoneType(relType uint32) bool {
	return elf.R_X86_64(relType) == elf.R_X86_64_NONE
}

func (X86_64) ScanReloc(relType uint32) (uint32, bool, error) {
	switch elf.R_X86_64(relType) {
	case elf.R_X86_64_NONE:
		return 0, true, nil
	case elf.R_X86_64_64, elf.R_X86_64_32, elf.R_X86_64_32S, elf.R_X86_64_16,
		elf.R_X86_64_8, elf.R_X86_64_PC32, elf.R_X86_64_PC16, elf.R_X86_64_PC8,
		elf.R_X86_64_RELATIVE:
		return 0, true, nil
	case elf.R_X86_64_PLT32:
		return NeedsPlt, false, nil
	case elf.R_X86_64_GOTPCREL, elf.R_X86_64_GOTPCRELX, elf.R_X86_64_REX_GOTPCRELX:
		return NeedsGot, false, nil
	case elf.R_X86_64_GOT32, elf.R_X86_64_GOT64, elf.R_X86_64_GOTOFF64:
		return NeedsGot, false, nil
	case elf.R_X86_64_TPOFF32, elf.R_X86_64_TPOFF64:
		return 0, true, nil
	case elf.R_X86_64_GOTTPOFF:
		return NeedsGotTpOff, false, nil
	case elf.R_X86_64_TLSGD, elf.R_X86_64_TLSLD:
		// General/local dynamic TLS need a GOT descriptor pair plus a
		// __tls_get_addr call and aren't wired end to end; only the
		// initial-exec model (GOTTPOFF) is. Reject rather than emit a
		// GOT index that was never allocated.
		return 0, false, &UnsupportedRelocationError{Type: relType}
	case elf.R_X86_64_DTPOFF32, elf.R_X86_64_DTPOFF64:
		return 0, true, nil
	case elf.R_X86_64_COPY:
		return NeedsCopyRel, false, nil
	case elf.R_X86_64_GLOB_DAT, elf.R_X86_64_JMP_SLOT:
		return 0, true, nil
	default:
		return 0, false, &UnsupportedRelocationError{Type: relType}
	}
}

func (X86_64) ApplyReloc(relType uint32, loc []byte, p RelocParams) error {
	switch elf.R_X86_64(relType) {
	case elf.R_X86_64_NONE:
		return nil
	case elf.R_X86_64_8:
		loc[0] = byte(int64(p.S) + p.A)
	case elf.R_X86_64_16:
		binary.LittleEndian.PutUint16(loc, uint16(int64(p.S)+p.A))
	case elf.R_X86_64_32, elf.R_X86_64_32S:
		binary.LittleEndian.PutUint32(loc, uint32(int64(p.S)+p.A))
	case elf.R_X86_64_64:
		binary.LittleEndian.PutUint64(loc, uint64(int64(p.S)+p.A))
	case elf.R_X86_64_PC8:
		loc[0] = byte(int64(p.S) + p.A - int64(p.P))
	case elf.R_X86_64_PC16:
		binary.LittleEndian.PutUint16(loc, uint16(int64(p.S)+p.A-int64(p.P)))
	case elf.R_X86_64_PC32, elf.R_X86_64_PLT32:
		val := int64(p.S) + p.A - int64(p.P)
		if p.Plt != 0 {
			val = int64(p.Plt) + p.A - int64(p.P)
		}
		binary.LittleEndian.PutUint32(loc, uint32(val))
	case elf.R_X86_64_GOTPCREL, elf.R_X86_64_GOTPCRELX, elf.R_X86_64_REX_GOTPCRELX:
		binary.LittleEndian.PutUint32(loc, uint32(int64(p.GOT+p.G)+p.A-int64(p.P)))
	case elf.R_X86_64_GOT32:
		binary.LittleEndian.PutUint32(loc, uint32(p.G))
	case elf.R_X86_64_GOT64:
		binary.LittleEndian.PutUint64(loc, p.G)
	case elf.R_X86_64_GOTOFF64:
		binary.LittleEndian.PutUint64(loc, uint64(int64(p.S)+p.A-int64(p.GOT)))
	case elf.R_X86_64_TPOFF32:
		binary.LittleEndian.PutUint32(loc, uint32(int64(p.S)+p.A-int64(p.TpAddr)))
	case elf.R_X86_64_TPOFF64:
		binary.LittleEndian.PutUint64(loc, uint64(int64(p.S)+p.A-int64(p.TpAddr)))
	case elf.R_X86_64_GOTTPOFF:
		binary.LittleEndian.PutUint32(loc, uint32(int64(p.GOT+p.G)+p.A-int64(p.P)))
	case elf.R_X86_64_DTPOFF32:
		binary.LittleEndian.PutUint32(loc, uint32(int64(p.S)+p.A))
	case elf.R_X86_64_DTPOFF64:
		binary.LittleEndian.PutUint64(loc, uint64(int64(p.S)+p.A))
	case elf.R_X86_64_RELATIVE:
		binary.LittleEndian.PutUint64(loc, uint64(int64(p.S)+p.A))
	default:
		return &UnsupportedRelocationError{Type: relType}
	}
	return nil
}
