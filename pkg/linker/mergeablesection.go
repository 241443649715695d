package linker

import "sort"

// MergeableSection is a view over one input SHF_MERGE section, split into
// an ordered vector of pieces (spec's StringPiece), each backed by a
// FragOffset into the original section data and, once interned, a
// *SectionFragment in the parent MergedSection (spec §4.4).
type MergeableSection struct {
	Parent      *MergedSection
	P2Align     uint8
	Strs        []string
	FragOffsets []uint32
	Fragments   []*SectionFragment
}

// GetFragment returns the fragment covering offset and offset's distance
// past that fragment's start, per spec §4.4's offset-to-piece mapping.
func (m *MergeableSection) GetFragment(offset uint32) (*SectionFragment, uint32) {
	idx := sort.Search(len(m.FragOffsets), func(i int) bool {
		return m.FragOffsets[i] > offset
	}) - 1
	if idx < 0 {
		return nil, 0
	}
	return m.Fragments[idx], offset - m.FragOffsets[idx]
}
