package utils

import "testing"

func TestBitCeil(t *testing.T) {
	cases := map[uint64]uint64{
		1:    1,
		2:    2,
		3:    4,
		5:    8,
		16:   16,
		17:   32,
		1023: 1024,
	}
	for in, want := range cases {
		if got := BitCeil(in); got != want {
			t.Errorf("BitCeil(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAlignTo(t *testing.T) {
	cases := []struct{ val, align, want uint64 }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := AlignTo(c.val, c.align); got != c.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", c.val, c.align, got, c.want)
		}
	}
}

func TestAllZeros(t *testing.T) {
	if !AllZeros(nil) {
		t.Error("AllZeros(nil) should be true")
	}
	if !AllZeros([]byte{0, 0, 0}) {
		t.Error("AllZeros of zero bytes should be true")
	}
	if AllZeros([]byte{0, 0, 1}) {
		t.Error("AllZeros should be false when any byte is nonzero")
	}
}

func TestRemoveIf(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6}
	out := RemoveIf(in, func(v int) bool { return v%2 == 0 })
	want := []int{1, 3, 5}
	if len(out) != len(want) {
		t.Fatalf("RemoveIf result length = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("RemoveIf()[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestRemovePrefix(t *testing.T) {
	if s, ok := RemovePrefix("--static", "--"); !ok || s != "static" {
		t.Errorf("RemovePrefix(%q, %q) = (%q, %v), want (%q, true)", "--static", "--", s, ok, "static")
	}
	if s, ok := RemovePrefix("static", "--"); ok || s != "static" {
		t.Errorf("RemovePrefix without prefix should return (original, false), got (%q, %v)", s, ok)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	Write[uint64](buf, 0x0102030405060708)
	got := Read[uint64](buf)
	if got != 0x0102030405060708 {
		t.Errorf("Read(Write(v)) = %#x, want %#x", got, uint64(0x0102030405060708))
	}
}

func TestBitAndBits(t *testing.T) {
	var v uint32 = 0b1011_0100
	if Bit(v, 2) != 1 {
		t.Errorf("Bit(%b, 2) = %d, want 1", v, Bit(v, 2))
	}
	if Bit(v, 0) != 0 {
		t.Errorf("Bit(%b, 0) = %d, want 0", v, Bit(v, 0))
	}
	if got := Bits(v, uint32(7), uint32(4)); got != 0b1011 {
		t.Errorf("Bits(%b, 7, 4) = %b, want %b", v, got, 0b1011)
	}
}

func TestCountrZeroCountlZero(t *testing.T) {
	if got := CountrZero(uint32(8)); got != 3 {
		t.Errorf("CountrZero(8) = %d, want 3", got)
	}
	if got := CountlZero(uint8(1)); got != 7 {
		t.Errorf("CountlZero(1) = %d, want 7", got)
	}
}
