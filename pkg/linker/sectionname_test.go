package linker

import (
	"debug/elf"
	"testing"
)

func TestGetOutputNameMergesNumberedSuffixes(t *testing.T) {
	cases := map[string]string{
		".text.foo":              ".text",
		".data.rel.ro.bar":       ".data.rel.ro",
		".data.baz":              ".data",
		".bss.rel.ro.x":          ".bss.rel.ro",
		".bss.y":                 ".bss",
		".init_array.100":        ".init_array",
		".fini_array.100":        ".fini_array",
		".tbss.z":                ".tbss",
		".tdata.z":                ".tdata",
		".gcc_except_table.fn":   ".gcc_except_table",
		".ctors.100":             ".ctors",
		".dtors.100":             ".dtors",
		".unrelated.section":     ".unrelated.section",
		".text":                  ".text",
	}
	for in, want := range cases {
		if got := GetOutputName(in, 0); got != want {
			t.Errorf("GetOutputName(%q, 0) = %q, want %q", in, got, want)
		}
	}
}

func TestGetOutputNameMergedRodataSplitsStringsVsConst(t *testing.T) {
	strFlags := uint64(elf.SHF_MERGE | elf.SHF_STRINGS)
	if got := GetOutputName(".rodata.str1.1", strFlags); got != ".rodata.str" {
		t.Errorf("mergeable string .rodata = %q, want .rodata.str", got)
	}

	cstFlags := uint64(elf.SHF_MERGE)
	if got := GetOutputName(".rodata.cst8", cstFlags); got != ".rodata.cst" {
		t.Errorf("mergeable non-string .rodata = %q, want .rodata.cst", got)
	}

	if got := GetOutputName(".rodata", 0); got != ".rodata" {
		t.Errorf("non-mergeable .rodata should pass through unchanged, got %q", got)
	}
}

func TestCanonicalizeTypeInitAndFiniArray(t *testing.T) {
	progbits := uint64(elf.SHT_PROGBITS)

	if got := CanonicalizeType(".init_array", progbits); got != uint64(elf.SHT_INIT_ARRAY) {
		t.Errorf("CanonicalizeType(.init_array) = %v, want SHT_INIT_ARRAY", got)
	}
	if got := CanonicalizeType(".init_array.100", progbits); got != uint64(elf.SHT_INIT_ARRAY) {
		t.Errorf("CanonicalizeType(.init_array.100) = %v, want SHT_INIT_ARRAY", got)
	}
	if got := CanonicalizeType(".fini_array", progbits); got != uint64(elf.SHT_FINI_ARRAY) {
		t.Errorf("CanonicalizeType(.fini_array) = %v, want SHT_FINI_ARRAY", got)
	}
	if got := CanonicalizeType(".text", progbits); got != progbits {
		t.Errorf("CanonicalizeType(.text) should pass through unchanged, got %v", got)
	}
	if got := CanonicalizeType(".init_array", uint64(elf.SHT_NOBITS)); got != uint64(elf.SHT_NOBITS) {
		t.Errorf("CanonicalizeType should only rewrite SHT_PROGBITS, got %v", got)
	}
}
