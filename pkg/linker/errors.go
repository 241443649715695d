package linker

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrorCheckpoint accumulates diagnostics across a phase that fans out
// over many files/sections concurrently (spec §7's error model: collect
// everything a phase found, report once, decide afterward whether to
// keep going). Every Add* is safe to call from any worker.
type ErrorCheckpoint struct {
	mu    sync.Mutex
	lines []string
}

func (e *ErrorCheckpoint) add(line string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = append(e.lines, line)
}

// AddUndefinedSymbol records a relocation in file against a symbol that
// resolved to nothing (spec §7 UndefinedSymbol).
func (e *ErrorCheckpoint) AddUndefinedSymbol(file, symbol string) {
	e.add(fmt.Sprintf("%s: undefined symbol: %s", file, symbol))
}

// AddDuplicateSymbol records that symbol has strong definitions in both
// fileA and fileB (spec §7 DuplicateSymbol).
func (e *ErrorCheckpoint) AddDuplicateSymbol(fileA, fileB, symbol string) {
	e.add(fmt.Sprintf("duplicate symbol: %s: %s and %s", symbol, fileA, fileB))
}

func (e *ErrorCheckpoint) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines) > 0
}

// Report prints every accumulated diagnostic to stderr and, if any were
// recorded, exits the process (spec §7: report everything a phase
// found, then fail the link once — not diagnostic-by-diagnostic).
func (e *ErrorCheckpoint) Report() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.lines) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, strings.Join(e.lines, "\n"))
	os.Exit(1)
}
