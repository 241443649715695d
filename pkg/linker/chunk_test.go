package linker

import "testing"

func TestNewChunkDefaultsAddrAlignToOne(t *testing.T) {
	c := NewChunk()
	if c.Shdr.AddrAlign != 1 {
		t.Errorf("AddrAlign = %d, want 1", c.Shdr.AddrAlign)
	}
}

func TestChunkAccessors(t *testing.T) {
	c := NewChunk()
	c.Name = "test"

	if c.GetName() != "test" {
		t.Errorf("GetName() = %q, want %q", c.GetName(), "test")
	}
	if c.Kind() != ChunkKindSynthetic {
		t.Errorf("Kind() = %d, want ChunkKindSynthetic", c.Kind())
	}
	if c.GetShdr() != &c.Shdr {
		t.Error("GetShdr() should return a pointer to the embedded Shdr")
	}

	c.SetShndx(5)
	if c.GetShndx() != 5 {
		t.Errorf("GetShndx() = %d, want 5", c.GetShndx())
	}

	c.SetExtraAddrAlign(16)
	if c.GetExtraAddrAlign() != 16 {
		t.Errorf("GetExtraAddrAlign() = %d, want 16", c.GetExtraAddrAlign())
	}
}

// TestChunkUpdateShdrAndCopyBufAreNoops documents that the base Chunk's
// UpdateShdr/CopyBuf are deliberately empty; concrete chunk kinds
// override them.
func TestChunkUpdateShdrAndCopyBufAreNoops(t *testing.T) {
	c := NewChunk()
	before := c.Shdr
	c.UpdateShdr(nil)
	c.CopyBuf(nil)
	if c.Shdr != before {
		t.Error("base Chunk's UpdateShdr should not mutate Shdr")
	}
}
