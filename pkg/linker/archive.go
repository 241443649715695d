package linker

import (
	"bytes"
	"encoding/binary"
	"github.com/ksco/rvld/pkg/utils"
	"os"
	"path/filepath"
	"unsafe"
)

func ReadFatArchiveMembers(file *File) []*File {
	begin := 0
	data := begin + 8
	var strTab []byte
	var files []*File

	for begin+len(file.Contents)-data >= 2 {
		if (begin-data)%2 == 1 {
			data++
		}

		hdr := &ArHdr{}
		err := binary.Read(bytes.NewBuffer(file.Contents[data:]), binary.LittleEndian, hdr)
		utils.MustNo(err)
		body := data + int(unsafe.Sizeof(ArHdr{}))
		data = body + hdr.GetSize()

		if hdr.IsStrtab() {
			strTab = file.Contents[body:data]
			continue
		}

		if hdr.IsSymtab() {
			continue
		}

		ptr := file.Contents[body:]
		name := hdr.ReadName(strTab, &ptr)

		if name == "__.SYMDEF" || name == "__.SYMDEF SORTED" {
			continue
		}

		files = append(files, &File{
			Name:     name,
			Contents: file.Contents[body:data],
			Parent:   file,
		})
	}

	return files
}

// ReadThinArchiveMembers parses a thin archive (ar -T): the same !<arch>
// header/member layout as a fat archive, except each member's body is
// empty and its name is a path to read from disk relative to the
// archive's own directory.
func ReadThinArchiveMembers(file *File) []*File {
	begin := 0
	data := begin + 8
	var strTab []byte
	var files []*File
	dir := filepath.Dir(file.Name)

	for begin+len(file.Contents)-data >= 2 {
		if (begin-data)%2 == 1 {
			data++
		}

		hdr := &ArHdr{}
		err := binary.Read(bytes.NewBuffer(file.Contents[data:]), binary.LittleEndian, hdr)
		utils.MustNo(err)
		body := data + int(unsafe.Sizeof(ArHdr{}))
		size := hdr.GetSize()

		if hdr.IsStrtab() {
			strTab = file.Contents[body : body+size]
			data = body + size
			continue
		}
		if hdr.IsSymtab() {
			data = body + size
			continue
		}

		ptr := file.Contents[body:]
		name := hdr.ReadName(strTab, &ptr)
		data = body

		if name == "__.SYMDEF" || name == "__.SYMDEF SORTED" {
			continue
		}

		path := filepath.Join(dir, name)
		contents, err := os.ReadFile(path)
		utils.MustNo(err)

		files = append(files, &File{
			Name:     path,
			Contents: contents,
			Parent:   file,
		})
	}

	return files
}

func ReadArchiveMembers(file *File) []*File {
	switch GetFileType(file.Contents) {
	case FileTypeAr:
		return ReadFatArchiveMembers(file)
	case FileTypeThinAr:
		return ReadThinArchiveMembers(file)
	default:
		utils.Fatal("unreachable")
	}
	return nil
}
