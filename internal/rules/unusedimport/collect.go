package unusedimport

import (
	"implint/internal/semantic"
)

// reference is one symbol-use site worth a point query.
type reference struct {
	usr    string
	line   uint32
	column uint32
}

// collectReferences flattens the entity tree into the symbol-use sites,
// dropping entities without a symbol identifier and keeping only the
// first site per symbol. One answer per symbol is enough to learn its
// module; querying every site would multiply index round-trips.
//
// The walk is pre-order with an explicit stack so deeply nested files
// cannot exhaust the goroutine stack.
func collectReferences(root *semantic.Entity) []reference {
	if root == nil {
		return nil
	}

	var refs []reference
	seen := make(map[string]bool)
	stack := []*semantic.Entity{root}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.Kind.IsSymbolUse() && node.USR != "" && !seen[node.USR] {
			seen[node.USR] = true
			refs = append(refs, reference{
				usr:    node.USR,
				line:   node.Line,
				column: node.Column,
			})
		}

		// Push children in reverse so they pop in source order.
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, &node.Children[i])
		}
	}

	return refs
}
