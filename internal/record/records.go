package record

import (
	"iter"
	"strconv"
	"strings"

	"lgtnav/internal/paths"
)

// EntityType is the entity kind reported in hierarchy artifacts.
type EntityType string

const (
	EntityObject   EntityType = "object"
	EntityProtocol EntityType = "protocol"
	EntityCategory EntityType = "category"
)

// CallRecord is one caller or callee: Name:<symbol>;File:<path>;Line:<int>
type CallRecord struct {
	Name string
	File string
	Line int
}

// EntityRecord is one ancestor or descendant:
// Type:<object|protocol|category>;Name:<entity>;File:<path>;Line:<int>
type EntityRecord struct {
	Type EntityType
	Name string
	File string
	Line int
}

// LocationRecord is a reference or type definition: File:<path>;Line:<int>
type LocationRecord struct {
	File string
	Line int
}

// MetricRecord is File:<path>;Line:<int>;Score:<int>
type MetricRecord struct {
	File  string
	Line  int
	Score string
}

// TestScope tells which of the three test-result shapes a record came from.
type TestScope string

const (
	// ScopeTest is File;Line;Object;Test;Status
	ScopeTest TestScope = "test"
	// ScopeObject is the File;Line;Object;Status summary
	ScopeObject TestScope = "object"
	// ScopeFile is the File;Line;Status whole-file summary
	ScopeFile TestScope = "file"
)

// TestRecord is one test-results line. Reason is split out of the Status
// value when it carries a ";Reason:" sub-field.
type TestRecord struct {
	Scope  TestScope
	File   string
	Line   int
	Object string
	Test   string
	Status string
	Reason string
}

// MalformedFunc receives lines that fail to decode.
type MalformedFunc func(n int, line string)

// Calls decodes a callers or callees artifact.
func Calls(text string, onMalformed MalformedFunc) iter.Seq[CallRecord] {
	return decode(text, callPattern, onMalformed, func(v []string) (CallRecord, bool) {
		line, ok := parseLine(v[2])
		file, fok := fileValue(v[1])
		name := strings.TrimSpace(v[0])
		if !ok || !fok || name == "" {
			return CallRecord{}, false
		}
		return CallRecord{Name: name, File: file, Line: line}, true
	})
}

// Entities decodes an ancestors or descendants artifact.
func Entities(text string, onMalformed MalformedFunc) iter.Seq[EntityRecord] {
	return decode(text, entityPattern, onMalformed, func(v []string) (EntityRecord, bool) {
		line, ok := parseLine(v[3])
		file, fok := fileValue(v[2])
		name := strings.TrimSpace(v[1])
		if !ok || !fok || name == "" {
			return EntityRecord{}, false
		}
		typ := EntityType(strings.ToLower(strings.TrimSpace(v[0])))
		switch typ {
		case EntityObject, EntityProtocol, EntityCategory:
		default:
			return EntityRecord{}, false
		}
		return EntityRecord{Type: typ, Name: name, File: file, Line: line}, true
	})
}

// Locations decodes a references or type-definition artifact.
func Locations(text string, onMalformed MalformedFunc) iter.Seq[LocationRecord] {
	return decode(text, locationPattern, onMalformed, func(v []string) (LocationRecord, bool) {
		line, ok := parseLine(v[1])
		file, fok := fileValue(v[0])
		if !ok || !fok {
			return LocationRecord{}, false
		}
		return LocationRecord{File: file, Line: line}, true
	})
}

// Metrics decodes a metrics artifact.
func Metrics(text string, onMalformed MalformedFunc) iter.Seq[MetricRecord] {
	return decode(text, metricPattern, onMalformed, func(v []string) (MetricRecord, bool) {
		line, ok := parseLine(v[1])
		file, fok := fileValue(v[0])
		score := strings.TrimSpace(v[2])
		if !ok || !fok {
			return MetricRecord{}, false
		}
		if _, err := strconv.Atoi(score); err != nil {
			return MetricRecord{}, false
		}
		return MetricRecord{File: file, Line: line, Score: score}, true
	})
}

// Tests decodes a test-results artifact. Each line is tried against the
// per-test, per-object and per-file shapes, most specific first.
func Tests(text string, onMalformed MalformedFunc) iter.Seq[TestRecord] {
	return func(yield func(TestRecord) bool) {
		for n, line := range lines(text) {
			rec, ok := decodeTest(line)
			if !ok {
				if onMalformed != nil {
					onMalformed(n, line)
				}
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func decodeTest(line string) (TestRecord, bool) {
	var rec TestRecord
	if v, ok := testPattern.Match(line); ok {
		rec = TestRecord{Scope: ScopeTest, File: v[0], Object: v[2], Test: v[3], Status: v[4]}
		return finishTest(rec, v[1])
	}
	if v, ok := objectPattern.Match(line); ok {
		rec = TestRecord{Scope: ScopeObject, File: v[0], Object: v[2], Status: v[3]}
		return finishTest(rec, v[1])
	}
	if v, ok := filePattern.Match(line); ok {
		rec = TestRecord{Scope: ScopeFile, File: v[0], Status: v[2]}
		return finishTest(rec, v[1])
	}
	return rec, false
}

func finishTest(rec TestRecord, lineValue string) (TestRecord, bool) {
	line, ok := parseLine(lineValue)
	if !ok {
		return TestRecord{}, false
	}
	file, ok := fileValue(rec.File)
	if !ok {
		return TestRecord{}, false
	}
	rec.Line = line
	rec.File = file
	if status, reason, found := strings.Cut(rec.Status, ";"+TagReason+":"); found {
		rec.Status, rec.Reason = status, strings.TrimSpace(reason)
	}
	rec.Status = strings.TrimSpace(rec.Status)
	return rec, true
}

func decode[T any](text string, p Pattern, onMalformed MalformedFunc, build func([]string) (T, bool)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for n, line := range lines(text) {
			values, ok := p.Match(line)
			var rec T
			if ok {
				rec, ok = build(values)
			}
			if !ok {
				if onMalformed != nil {
					onMalformed(n, line)
				}
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// parseLine accepts positive 1-based line numbers only.
func parseLine(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// fileValue normalizes a File value; an empty path is malformed.
func fileValue(s string) (string, bool) {
	f := paths.NormalizePath(strings.TrimSpace(s))
	return f, f != ""
}
