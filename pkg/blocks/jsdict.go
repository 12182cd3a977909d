package blocks

import (
	"strconv"
	"strings"
)

// jsDict renders a JavaScript object literal mapping each name to its
// initializer expression, in the order given. Names with empty expressions are
// skipped. Values are raw expressions, not strings, so only keys are quoted.
func jsDict(names []string, exprs map[string]string) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, name := range names {
		expr := exprs[name]
		if expr == "" {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(strconv.Quote(name))
		b.WriteString(": ")
		b.WriteString(expr)
	}
	b.WriteByte('}')
	return b.String()
}
