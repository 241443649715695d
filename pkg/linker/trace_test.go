package linker

import "testing"

func TestMarkTracedSymbolsSetsTracedFlag(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.TraceSymbols = []string{"foo", "bar"}

	MarkTracedSymbols(ctx)

	if !GetSymbolByName(ctx, "foo").Traced {
		t.Error("foo should be marked Traced")
	}
	if !GetSymbolByName(ctx, "bar").Traced {
		t.Error("bar should be marked Traced")
	}
	if GetSymbolByName(ctx, "baz").Traced {
		t.Error("a symbol not passed via -y should not be marked Traced")
	}
}

func TestMarkTracedSymbolsEmptyIsNoop(t *testing.T) {
	ctx := NewContext()
	MarkTracedSymbols(ctx)
	if len(ctx.SymbolMap) != 0 {
		t.Errorf("no -y arguments should intern no symbols, got %d", len(ctx.SymbolMap))
	}
}
