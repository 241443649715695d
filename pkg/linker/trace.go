package linker

import (
	"fmt"
	"os"
)

// MarkTracedSymbols flags every -y NAME argument's Symbol so every
// subsequent TryResolve call against it fires TraceSymbolResolution
// (spec §6: "-y NAME: resolution trace"). GetSymbolByName interns
// whichever Symbol value object/DSO resolution will later reuse, so
// marking it here before any file is resolved is enough.
func MarkTracedSymbols(ctx *Context) {
	for _, name := range ctx.Arg.TraceSymbols {
		GetSymbolByName(ctx, name).Traced = true
	}
}

// TraceSymbolResolution writes one line to stderr every time a traced
// symbol's resolution changes owner.
func TraceSymbolResolution(sym *Symbol, file *InputFile) {
	fmt.Fprintf(os.Stderr, "trace-symbol: %s resolved to %s\n", sym.Name, file.File.Name)
}

// TraceFile writes one line per input file as it is opened, when
// -trace is given (spec §6: "-trace: log every input file as it's
// opened").
func TraceFile(ctx *Context, file *File) {
	if !ctx.Arg.Trace {
		return
	}
	fmt.Fprintln(os.Stderr, file.Name)
}
