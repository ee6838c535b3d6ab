package interpreter

import (
	"strings"

	"rusht/interpreter-go/pkg/runtime"
)

// Display renders a value for output: strings appear without quotes, every
// other value as the REPL would show it.
func Display(val runtime.Value) string {
	if s, ok := val.(runtime.StringValue); ok {
		return s.Val
	}
	return runtime.Inspect(val)
}

func displayAll(vals []runtime.Value) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, Display(v))
	}
	return strings.Join(parts, " ")
}

