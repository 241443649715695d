// Package config turns a command line (plus any @response-file it
// references) into a linker.ContextArg, the way rvld.go's
// parseNonpositionalArgs used to, but as a data-driven option table
// instead of a chain of if/else closures (spec §6's option table).
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ksco/rvld/pkg/linker"
	"github.com/ksco/rvld/pkg/utils"
	"github.com/xyproto/env/v2"
)

// Result is everything ParseArgs extracted from the command line: the
// filled-in ContextArg plus the positional file/-l arguments, which the
// linker's ReadInputFiles still wants as a plain string slice.
type Result struct {
	Arg       linker.ContextArg
	Remaining []string
}

// option is one entry of the table below. takesArg distinguishes
// `-o out` / `-o=out` flags from bare boolean flags like `-static`.
type option struct {
	names    []string
	takesArg bool
	apply    func(r *Result, arg string)
}

var table = []option{
	{[]string{"o", "output"}, true, func(r *Result, a string) { r.Arg.Output = a }},
	{[]string{"dynamic-linker"}, true, func(r *Result, a string) { r.Arg.DynamicLinker = a }},
	{[]string{"export-dynamic", "E"}, false, func(r *Result, a string) { r.Arg.ExportDynamic = true }},
	{[]string{"entry", "e"}, true, func(r *Result, a string) { r.Arg.Entry = a }},
	{[]string{"L", "library-path"}, true, func(r *Result, a string) { r.Arg.LibraryPaths = append(r.Arg.LibraryPaths, a) }},
	{[]string{"static"}, false, func(r *Result, a string) { r.Arg.Static = true }},
	{[]string{"pie"}, false, func(r *Result, a string) { r.Arg.Pie = true }},
	{[]string{"no-pie"}, false, func(r *Result, a string) { r.Arg.Pie = false }},
	{[]string{"relax"}, false, func(r *Result, a string) { r.Arg.Relax = true }},
	{[]string{"no-relax"}, false, func(r *Result, a string) { r.Arg.Relax = false }},
	{[]string{"fill", "filler"}, true, func(r *Result, a string) {
		v, err := strconv.ParseInt(strings.TrimPrefix(a, "0x"), 16, 64)
		if err != nil {
			utils.Fatal(fmt.Sprintf("-fill: invalid hex value: %s", a))
		}
		r.Arg.Filler = v
		r.Arg.HasFiller = true
	}},
	{[]string{"sysroot"}, true, func(r *Result, a string) { r.Arg.Sysroot = a }},
	{[]string{"rpath"}, true, func(r *Result, a string) { r.Arg.Rpaths = append(r.Arg.Rpaths, a) }},
	{[]string{"version-script"}, true, func(r *Result, a string) { r.Arg.VersionScript = a }},
	{[]string{"threads", "thread-count"}, true, func(r *Result, a string) {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			utils.Fatal(fmt.Sprintf("-threads: invalid value: %s", a))
		}
		r.Arg.ThreadCount = n
	}},
	{[]string{"no-threads"}, false, func(r *Result, a string) { r.Arg.ThreadCount = 1 }},
	{[]string{"preload"}, false, func(r *Result, a string) { r.Arg.Preload = true }},
	{[]string{"no-fork"}, false, func(r *Result, a string) { r.Arg.NoFork = true }},
	{[]string{"y", "trace-symbol"}, true, func(r *Result, a string) { r.Arg.TraceSymbols = append(r.Arg.TraceSymbols, a) }},
	{[]string{"trace"}, false, func(r *Result, a string) { r.Arg.Trace = true }},
	{[]string{"stat", "stats"}, false, func(r *Result, a string) { r.Arg.Stat = true }},
	{[]string{"perf"}, false, func(r *Result, a string) { r.Arg.Perf = true }},
	{[]string{"print-map", "M"}, false, func(r *Result, a string) { r.Arg.PrintMap = true }},

	// Accepted for driver compatibility; rvld either has no use for
	// them (plugin/LTO) or always behaves as if they were given
	// (as-needed, build-id).
	{[]string{"m"}, true, func(r *Result, a string) {
		if a != "elf_x86_64" {
			utils.Fatal("unsupported -m argument: " + a)
		}
	}},
	{[]string{"plugin", "plugin-opt", "hash-style", "build-id"}, true, func(r *Result, a string) {}},
	{[]string{"as-needed", "no-as-needed", "start-group", "end-group", "s"}, false, func(r *Result, a string) {}},
}

func dashes(name string) []string {
	if len(name) == 1 {
		return []string{"-" + name}
	}
	return []string{"-" + name, "--" + name}
}

// ParseArgs expands any @response-file argument, walks the resulting
// vector against the option table, and applies threads/RVLD_THREADS/
// host-parallelism defaulting the way spec §6 describes.
func ParseArgs(argv []string) *Result {
	r := &Result{Arg: linker.ContextArg{
		Output:      "a.out",
		ThreadCount: 0,
	}}

	args := ExpandResponseFiles(argv)

	findOpt := func(tok string) (*option, string, bool) {
		for i := range table {
			opt := &table[i]
			for _, name := range opt.names {
				for _, d := range dashes(name) {
					if !opt.takesArg {
						if tok == d {
							return opt, "", true
						}
						continue
					}
					if tok == d {
						return opt, "", false
					}
					prefix := d + "="
					if strings.HasPrefix(tok, prefix) {
						return opt, tok[len(prefix):], true
					}
					if len(name) == 1 && strings.HasPrefix(tok, d) && tok != d {
						return opt, tok[len(d):], true
					}
				}
			}
		}
		return nil, "", false
	}

	for i := 0; i < len(args); i++ {
		tok := args[i]

		if tok == "-l" || (strings.HasPrefix(tok, "-l") && !strings.HasPrefix(tok, "-library-path")) {
			lib := strings.TrimPrefix(tok, "-l")
			if lib == "" && i+1 < len(args) {
				i++
				lib = args[i]
			}
			r.Remaining = append(r.Remaining, "-l"+lib)
			continue
		}

		if !strings.HasPrefix(tok, "-") {
			r.Remaining = append(r.Remaining, tok)
			continue
		}

		opt, arg, hadArg := findOpt(tok)
		if opt == nil {
			utils.Fatal("unknown command line option: " + tok)
			continue
		}
		if opt.takesArg && !hadArg {
			if i+1 >= len(args) {
				utils.Fatal(fmt.Sprintf("option %s: argument missing", tok))
			}
			i++
			arg = args[i]
		}
		opt.apply(r, arg)
	}

	for i, p := range r.Arg.LibraryPaths {
		r.Arg.LibraryPaths[i] = filepath.Clean(p)
	}

	if r.Arg.ThreadCount == 0 {
		r.Arg.ThreadCount = defaultThreadCount()
	}

	return r
}

// defaultThreadCount is spec §6's fallback chain for -threads: the
// RVLD_THREADS environment variable, then the host's logical CPU count.
func defaultThreadCount() int {
	return env.Int("RVLD_THREADS", runtime.NumCPU())
}
