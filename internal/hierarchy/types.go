// Package hierarchy turns decoded artifact records into navigable items:
// call hierarchy nodes, type hierarchy nodes and plain locations.
package hierarchy

import (
	"lgtnav/internal/locate"
	"lgtnav/internal/record"
)

// SymbolKind classifies an item the way editors display it.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindStruct    SymbolKind = "struct"
)

// KindOf maps an entity type to its display classification. Objects read as
// classes, protocols as interfaces and categories as structs.
func KindOf(t record.EntityType) SymbolKind {
	switch t {
	case record.EntityProtocol:
		return KindInterface
	case record.EntityCategory:
		return KindStruct
	default:
		return KindClass
	}
}

// Item is one navigable node.
type Item struct {
	Name      string       `json:"name" yaml:"name"`
	Kind      SymbolKind   `json:"kind" yaml:"kind"`
	File      string       `json:"file" yaml:"file"`
	Range     locate.Range `json:"range" yaml:"range"`
	Selection locate.Range `json:"selectionRange" yaml:"selectionRange"`
}

// IncomingCall is a caller together with the places on the caller's line
// where the focal symbol appears.
type IncomingCall struct {
	From       Item           `json:"from" yaml:"from"`
	FromRanges []locate.Range `json:"fromRanges" yaml:"fromRanges"`
}

// OutgoingCall is a callee together with the places on the focal line
// where the callee appears.
type OutgoingCall struct {
	To         Item           `json:"to" yaml:"to"`
	FromRanges []locate.Range `json:"fromRanges" yaml:"fromRanges"`
}

// Location is a file position without a symbol.
type Location struct {
	File  string       `json:"file" yaml:"file"`
	Range locate.Range `json:"range" yaml:"range"`
}

// Focus is the symbol a call hierarchy request is anchored on.
type Focus struct {
	Symbol string
	File   string
	// Line is 1-based, as reported by the engine.
	Line int
}

func newItem(name string, kind SymbolKind, file string, span locate.Span) Item {
	return Item{Name: name, Kind: kind, File: file, Range: span.Range, Selection: span.Selection}
}
