package linker

import (
	"github.com/ksco/rvld/pkg/utils"
	"os"
)

type File struct {
	Name     string
	Contents []byte

	Size    int64
	ModTime int64

	Parent *File
}

func MustNewFile(filename string) *File {
	contents, err := os.ReadFile(filename)
	utils.MustNo(err)
	f := &File{
		Name:     filename,
		Contents: contents,
	}
	if fi, err := os.Stat(filename); err == nil {
		f.Size = fi.Size()
		f.ModTime = fi.ModTime().UnixNano()
	}
	return f
}

func OpenLibrary(ctx *Context, path string) *File {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	file := &File{Name: path, Contents: contents}
	ty := GetMachineTypeFromContents(file.Contents)
	if ty == MachineTypeNone || ty == ctx.Arg.Emulation {
		return file
	}

	utils.Fatal("incompatible file: " + path)
	return nil
}

// FindLibrary resolves a bare `-l NAME` the way the driver's search order
// does: a shared object unless -static forces the archive.
func FindLibrary(ctx *Context, name string) *File {
	for _, dir := range ctx.Arg.LibraryPaths {
		stem := dir + "/lib" + name
		if !ctx.Arg.Static {
			if f := OpenLibrary(ctx, stem+".so"); f != nil {
				return f
			}
		}
		if f := OpenLibrary(ctx, stem+".a"); f != nil {
			return f
		}
	}

	utils.Fatal("library not found: " + name)
	return nil
}
