package linker

import (
	"strconv"
	"testing"
)

func padRight(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	for i := len(s); i < n; i++ {
		b[i] = ' '
	}
	return b
}

// buildArHeaderBytes builds one 60-byte SysV ar member header for name
// (short-form, trailing "/") with the given body size.
func buildArHeaderBytes(name string, size int) []byte {
	buf := make([]byte, 60)
	copy(buf[0:16], padRight(name, 16))
	copy(buf[16:28], padRight("0", 12))
	copy(buf[28:34], padRight("0", 6))
	copy(buf[34:40], padRight("0", 6))
	copy(buf[40:48], padRight("0", 8))
	copy(buf[48:58], padRight(strconv.Itoa(size), 10))
	buf[58] = 0x60
	buf[59] = '\n'
	return buf
}

func TestReadFatArchiveMembersTwoShortNames(t *testing.T) {
	data := []byte("!<arch>\n")
	data = append(data, buildArHeaderBytes("a.o/", 4)...)
	data = append(data, []byte("AAAA")...)
	data = append(data, buildArHeaderBytes("bb.o/", 4)...)
	data = append(data, []byte("BBBB")...)

	file := &File{Name: "lib.a", Contents: data}
	files := ReadArchiveMembers(file)

	if len(files) != 2 {
		t.Fatalf("ReadArchiveMembers returned %d members, want 2", len(files))
	}
	if files[0].Name != "a.o" || string(files[0].Contents) != "AAAA" {
		t.Errorf("files[0] = %q %q, want a.o AAAA", files[0].Name, files[0].Contents)
	}
	if files[1].Name != "bb.o" || string(files[1].Contents) != "BBBB" {
		t.Errorf("files[1] = %q %q, want bb.o BBBB", files[1].Name, files[1].Contents)
	}
	if files[0].Parent != file || files[1].Parent != file {
		t.Error("every member's Parent should point back to the archive file")
	}
}

func TestReadFatArchiveMembersSkipsSymdefAndStrtab(t *testing.T) {
	data := []byte("!<arch>\n")
	data = append(data, buildArHeaderBytes("//", 8)...)
	data = append(data, []byte("unused\n\x00")...)
	data = append(data, buildArHeaderBytes("__.SYMDEF/", 4)...)
	data = append(data, []byte("SSSS")...)
	data = append(data, buildArHeaderBytes("a.o/", 4)...)
	data = append(data, []byte("AAAA")...)

	file := &File{Name: "lib.a", Contents: data}
	files := ReadArchiveMembers(file)

	if len(files) != 1 {
		t.Fatalf("ReadArchiveMembers returned %d members, want 1 (symdef and strtab should be consumed, not returned)", len(files))
	}
	if files[0].Name != "a.o" {
		t.Errorf("files[0].Name = %q, want a.o", files[0].Name)
	}
}
