package engine

import (
	"fmt"
	"strings"

	"lgtnav/internal/artifact"
)

// Request is one analysis the engine is asked to perform.
type Request struct {
	Kind artifact.Kind
	Root string
	// Dir is the directory of File.
	Dir  string
	File string
	// Line is 1-based; 0 when the request is not about a position.
	Line   int
	Symbol string
}

// predicates maps artifact kinds to the tool predicate that produces them.
var predicates = map[artifact.Kind]string{
	artifact.KindCallers:        "callers",
	artifact.KindCallees:        "callees",
	artifact.KindAncestors:      "ancestors",
	artifact.KindDescendants:    "descendants",
	artifact.KindReferences:     "references",
	artifact.KindTypeDefinition: "type_definition",
	artifact.KindTestResults:    "tests",
	artifact.KindMetrics:        "metrics",
}

// Predicate returns the tool predicate for kind.
func Predicate(kind artifact.Kind) (string, bool) {
	p, ok := predicates[kind]
	return p, ok
}

// Goal renders req as a goal for tool:
//
//	tool::predicate('root', 'dir', 'file', line, 'symbol')
func Goal(tool string, req Request) (string, error) {
	pred, ok := Predicate(req.Kind)
	if !ok {
		return "", fmt.Errorf("no engine predicate for kind %q", req.Kind)
	}
	return fmt.Sprintf("%s::%s(%s, %s, %s, %d, %s)",
		tool, pred,
		quoteAtom(req.Root),
		quoteAtom(req.Dir),
		quoteAtom(req.File),
		req.Line,
		quoteAtom(req.Symbol),
	), nil
}

// quoteAtom wraps s in single quotes, doubling embedded quotes and
// converting backslashes to forward slashes.
func quoteAtom(s string) string {
	s = strings.ReplaceAll(s, `\`, "/")
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
