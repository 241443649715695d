package main

import (
	"os"

	"github.com/ksco/rvld/pkg/config"
	"github.com/ksco/rvld/pkg/linker"
	"github.com/ksco/rvld/pkg/utils"
)

func main() {
	ctx := linker.NewContext()

	result := config.ParseArgs(os.Args[1:])
	ctx.Arg = result.Arg
	ctx.Pool = utils.NewPool(ctx.Arg.ThreadCount)

	// A single target is wired (x86_64); pkg/config's -m only validates
	// the driver asked for "elf_x86_64" and leaves Emulation unset.
	ctx.Arg.Emulation = linker.MachineTypeX86_64

	linker.MarkTracedSymbols(ctx)
	linker.ReadInputFiles(ctx, result.Remaining)
	linker.CreateInternalFile(ctx)
	linker.ResolveSymbols(ctx)

	linker.CheckDuplicateSymbols(ctx)
	ctx.Errors.Report()

	linker.RegisterSectionPieces(ctx)
	linker.ComputeImportExport(ctx)
	linker.ComputeMergedSectionSizes(ctx)
	linker.CreateSyntheticSections(ctx)
	linker.BinSections(ctx)
	ctx.Chunks = append(ctx.Chunks, linker.CollectOutputSections(ctx)...)
	linker.AddSyntheticSymbols(ctx)
	linker.DefineStartStopSymbols(ctx)
	linker.ExportDynamic(ctx)
	linker.ClaimUnresolvedSymbols(ctx)

	linker.ScanRels(ctx)
	ctx.Errors.Report()

	linker.ComputeSectionSizes(ctx)
	linker.SortOutputSections(ctx)

	for _, chunk := range ctx.Chunks {
		chunk.UpdateShdr(ctx)
	}

	ctx.Chunks = utils.RemoveIf[linker.Chunker](ctx.Chunks, func(chunk linker.Chunker) bool {
		return chunk.Kind() != linker.ChunkKindOutputSection && chunk.GetShdr().Size == 0
	})

	shndx := int64(1)
	for i := 0; i < len(ctx.Chunks); i++ {
		if ctx.Chunks[i].Kind() != linker.ChunkKindHeader {
			ctx.Chunks[i].SetShndx(shndx)
			shndx++
		}
	}

	for _, chunk := range ctx.Chunks {
		chunk.UpdateShdr(ctx)
	}

	linker.SetOsecOffsets(ctx)
	fileSize := linker.ResizeSections(ctx)
	linker.FixSyntheticSymbols(ctx)

	out := linker.OpenOutputFile(ctx, ctx.Arg.Output, fileSize, 0777)

	linker.PreFill(ctx)
	for _, chunk := range ctx.Chunks {
		chunk.CopyBuf(ctx)
	}
	linker.ClearPadding(ctx)

	ctx.Errors.Report()

	out.Commit()
}
