package linker

import (
	"debug/elf"
	"os"
	"path/filepath"

	"github.com/ksco/rvld/pkg/utils"
	"golang.org/x/sys/unix"
)

// OutputFile materializes ctx.Buf onto disk (spec §4.10). Two backends:
//   - a real path gets a memory-mapped temp file that's renamed onto the
//     target on commit, so a reader never observes a partially written
//     image;
//   - "-" gets an anonymous mapping, committed by writing it to stdout.
type OutputFile struct {
	path     string
	isStdout bool

	tmpPath string
	file    *os.File
	mapping []byte
}

// OpenOutputFile allocates the output image at its final size and
// returns ctx.Buf backed by the mapping; every chunk's CopyBuf then
// writes straight into mapped memory.
func OpenOutputFile(ctx *Context, path string, size uint64, perm os.FileMode) *OutputFile {
	o := &OutputFile{path: path, isStdout: path == "-"}

	if o.isStdout {
		buf, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
		utils.MustNo(err)
		o.mapping = buf
		ctx.Buf = buf
		return o
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rvld-*")
	utils.MustNo(err)
	o.tmpPath = tmp.Name()
	o.file = tmp
	utils.RegisterCleanup(func() { os.Remove(o.tmpPath) })

	utils.MustNo(unix.Ftruncate(int(tmp.Fd()), int64(size)))

	mask := unix.Umask(0)
	unix.Umask(mask)
	utils.MustNo(tmp.Chmod(perm &^ os.FileMode(mask)))

	buf, err := unix.Mmap(int(tmp.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	utils.MustNo(err)
	o.mapping = buf
	ctx.Buf = buf
	return o
}

// Commit publishes the mapping: for "-" it writes the buffer to
// stdout; for a real path it unmaps, then renames the temp file onto
// the target, which frees the old inode for any process still holding
// it open while atomically exposing the new contents under the old
// name.
func (o *OutputFile) Commit() {
	if o.isStdout {
		_, err := os.Stdout.Write(o.mapping)
		utils.MustNo(err)
		utils.MustNo(unix.Munmap(o.mapping))
		return
	}

	utils.MustNo(unix.Munmap(o.mapping))
	utils.MustNo(o.file.Close())
	utils.MustNo(os.Rename(o.tmpPath, o.path))
}

// PreFill pre-fills the whole output buffer with the configured filler
// byte (spec §4.10: "-filler HEX") before any chunk's CopyBuf runs.
// ClearPadding runs after and wins on the inter-chunk gaps this leaves
// behind once every chunk has written its own bytes.
func PreFill(ctx *Context) {
	if !ctx.Arg.HasFiller {
		return
	}
	fill := byte(ctx.Arg.Filler)
	for i := range ctx.Buf {
		ctx.Buf[i] = fill
	}
}

// ClearPadding fills every byte not covered by any chunk's logical
// extent with the filler byte (zero if none was configured), run after
// every chunk's CopyBuf (spec §4.10's padding rule).
func ClearPadding(ctx *Context) {
	fill := byte(0)
	if ctx.Arg.HasFiller {
		fill = byte(ctx.Arg.Filler)
	}

	var lastEnd uint64
	for _, chunk := range ctx.Chunks {
		shdr := chunk.GetShdr()
		if shdr.Type == uint32(elf.SHT_NOBITS) || shdr.Size == 0 {
			continue
		}

		if shdr.Offset > lastEnd && shdr.Offset <= uint64(len(ctx.Buf)) {
			for i := lastEnd; i < shdr.Offset; i++ {
				ctx.Buf[i] = fill
			}
		}

		end := shdr.Offset + shdr.Size
		if end > lastEnd {
			lastEnd = end
		}
	}

	if lastEnd < uint64(len(ctx.Buf)) {
		for i := lastEnd; i < uint64(len(ctx.Buf)); i++ {
			ctx.Buf[i] = fill
		}
	}
}
