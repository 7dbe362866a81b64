package hierarchy

import (
	"log/slog"

	"lgtnav/internal/errors"
	"lgtnav/internal/locate"
	"lgtnav/internal/record"
)

// Builder assembles hierarchy responses from artifact text. Each call reads
// source files afresh; nothing is cached between calls.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger}
}

func (b *Builder) malformed(kind string) record.MalformedFunc {
	return func(n int, line string) {
		b.logger.Debug("Skipping malformed record",
			"kind", kind,
			"line", n,
			"code", errors.MalformedRecord,
			"text", line,
		)
	}
}

// PrepareCall returns the item for symbol on a 0-based cursor line.
func (b *Builder) PrepareCall(file string, line int, symbol string) Item {
	span := locate.Locate(file, line+1, symbol)
	b.logFallback(file, line+1, symbol, span)
	return newItem(symbol, KindFunction, file, span)
}

// PrepareType returns the item for entity, preferring the directive that
// opens it anywhere in file and falling back to the 0-based cursor line.
func (b *Builder) PrepareType(file string, line int, entity string) Item {
	src := locate.NewSource()
	if span, directive, ok := src.FindEntity(file, entity); ok {
		return newItem(entity, KindOf(record.EntityType(directive)), file, span)
	}
	span := src.LocateEntity(file, line+1, entity)
	b.logFallback(file, line+1, entity, span)
	return newItem(entity, KindClass, file, span)
}

// Incoming builds the callers of focus. Each caller's selection points at
// the caller's own name, and its FromRanges at the occurrences of the focal
// symbol on the caller's line. Repeated callers are replaced, latest wins.
func (b *Builder) Incoming(text string, focus Focus) []IncomingCall {
	src := locate.NewSource()
	calls := newOrdered[IncomingCall]()
	for rec := range record.Calls(text, b.malformed("callers")) {
		span := src.Locate(rec.File, rec.Line, rec.Name)
		b.logFallback(rec.File, rec.Line, rec.Name, span)
		sites := src.CallSites(rec.File, rec.Line, focus.Symbol)
		if sites == nil {
			sites = []locate.Range{}
		}
		calls.put(callKey(rec), IncomingCall{
			From:       newItem(rec.Name, KindFunction, rec.File, span),
			FromRanges: sites,
		})
	}
	return calls.list()
}

// Outgoing builds the callees of focus. FromRanges are searched on the focal
// line, not the callee's.
func (b *Builder) Outgoing(text string, focus Focus) []OutgoingCall {
	src := locate.NewSource()
	calls := newOrdered[OutgoingCall]()
	for rec := range record.Calls(text, b.malformed("callees")) {
		span := src.Locate(rec.File, rec.Line, rec.Name)
		b.logFallback(rec.File, rec.Line, rec.Name, span)
		sites := src.CallSites(focus.File, focus.Line, rec.Name)
		if sites == nil {
			sites = []locate.Range{}
		}
		calls.put(callKey(rec), OutgoingCall{
			To:         newItem(rec.Name, KindFunction, rec.File, span),
			FromRanges: sites,
		})
	}
	return calls.list()
}

// Supertypes builds the ancestors listed in text.
func (b *Builder) Supertypes(text string) []Item {
	return b.entities(text, "ancestors")
}

// Subtypes builds the descendants listed in text.
func (b *Builder) Subtypes(text string) []Item {
	return b.entities(text, "descendants")
}

func (b *Builder) entities(text, kind string) []Item {
	src := locate.NewSource()
	items := newOrdered[Item]()
	for rec := range record.Entities(text, b.malformed(kind)) {
		span := src.LocateEntity(rec.File, rec.Line, rec.Name)
		b.logFallback(rec.File, rec.Line, rec.Name, span)
		items.put(string(rec.Type)+"\x00"+rec.Name, newItem(rec.Name, KindOf(rec.Type), rec.File, span))
	}
	return items.list()
}

// References builds one location per record, in record order, at column 0
// of its line. Columns are not searched for.
func (b *Builder) References(text string) []Location {
	locs := []Location{}
	for rec := range record.Locations(text, b.malformed("references")) {
		locs = append(locs, Location{
			File:  rec.File,
			Range: locate.LineStart(rec.Line - 1),
		})
	}
	return locs
}

// TypeDefinition returns the first location in text, if any.
func (b *Builder) TypeDefinition(text string) []Location {
	for rec := range record.Locations(text, b.malformed("type_definition")) {
		return []Location{{File: rec.File, Range: locate.LineStart(rec.Line - 1)}}
	}
	return []Location{}
}

func (b *Builder) logFallback(file string, line int, symbol string, span locate.Span) {
	if !span.Selection.IsZeroWidth() {
		return
	}
	b.logger.Debug("Symbol not found on line, using line start",
		"file", file,
		"line", line,
		"symbol", symbol,
		"code", errors.RangeReconstructionFailed,
	)
}

// callKey identifies a call target by name and file.
func callKey(rec record.CallRecord) string {
	return rec.Name + "\x00" + fileKey(rec.File)
}
