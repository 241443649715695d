package linker

import (
	"math"
	"sync/atomic"
)

// SectionFragment is spec's StringPiece: a single deduplicated piece of a
// mergeable section. ownerRank/alive are updated atomically (ownerRank with
// a compare-and-swap retry loop), so concurrent ClaimOwner calls settle on
// the lowest-priority owner without a mutex; the passes that call it
// (RegisterSectionPieces, ComputeMergedSectionSizes) run serially over
// files (spec §4.4 invariant 3, §5 "StringPiece isec is an atomic pointer").
type SectionFragment struct {
	OutputSection *MergedSection
	Offset        uint32
	P2Align       uint32

	ownerRank int64 // packed priority of the current owning file; math.MaxInt64 until owned
	alive     int32
}

func NewSectionFragment(m *MergedSection) *SectionFragment {
	return &SectionFragment{
		OutputSection: m,
		Offset:        math.MaxUint32,
		ownerRank:     math.MaxInt64,
	}
}

func (f *SectionFragment) GetAddr() uint64 {
	return f.OutputSection.Shdr.Addr + uint64(f.Offset)
}

func (f *SectionFragment) IsAlive() bool {
	return atomic.LoadInt32(&f.alive) != 0
}

// ClaimOwner tries to make priority the fragment's owner. It always
// marks the fragment alive; it returns true the first time a given
// content hash reaches a lower (better) priority than any seen so far,
// which is when the caller should copy its piece's bytes in as the
// canonical content for that key.
func (f *SectionFragment) ClaimOwner(priority int64) bool {
	atomic.StoreInt32(&f.alive, 1)
	for {
		cur := atomic.LoadInt64(&f.ownerRank)
		if priority >= cur {
			return false
		}
		if atomic.CompareAndSwapInt64(&f.ownerRank, cur, priority) {
			return true
		}
	}
}
