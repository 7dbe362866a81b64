// Package results keeps test results and code metrics between analysis runs
// and renders them for one file at a time.
package results

import (
	"fmt"
	"strconv"

	"lgtnav/internal/record"
)

// TestItem is one test, object summary or file summary result.
type TestItem struct {
	Scope  record.TestScope `json:"scope" yaml:"scope"`
	File   string           `json:"file" yaml:"file"`
	Line   int              `json:"line" yaml:"line"` // 0-based
	Object string           `json:"object,omitempty" yaml:"object,omitempty"`
	Test   string           `json:"test,omitempty" yaml:"test,omitempty"`
	Status string           `json:"status" yaml:"status"`
	Reason string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Title and Outdated are filled in when rendering.
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Outdated bool   `json:"outdated,omitempty" yaml:"outdated,omitempty"`
}

// MetricItem is one complexity score.
type MetricItem struct {
	File     string `json:"file" yaml:"file"`
	Line     int    `json:"line" yaml:"line"` // 0-based
	Score    string `json:"score" yaml:"score"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Outdated bool   `json:"outdated,omitempty" yaml:"outdated,omitempty"`
}

// TestFromRecord converts a decoded record.
func TestFromRecord(r record.TestRecord) TestItem {
	return TestItem{
		Scope:  r.Scope,
		File:   r.File,
		Line:   r.Line - 1,
		Object: r.Object,
		Test:   r.Test,
		Status: r.Status,
		Reason: r.Reason,
	}
}

// MetricFromRecord converts a decoded record.
func MetricFromRecord(r record.MetricRecord) MetricItem {
	return MetricItem{File: r.File, Line: r.Line - 1, Score: r.Score}
}

// Key identifies a test item within its file: line, object and test for a
// single test, line and object for an object summary, line alone for a file
// summary.
func (t TestItem) Key() string {
	switch t.Scope {
	case record.ScopeTest:
		return fmt.Sprintf("%d|%s|%s", t.Line, t.Object, t.Test)
	case record.ScopeObject:
		return fmt.Sprintf("%d|%s", t.Line, t.Object)
	default:
		return strconv.Itoa(t.Line)
	}
}

// BaseTitle is the status, with the failure reason in parentheses.
func (t TestItem) BaseTitle() string {
	if t.Reason == "" {
		return t.Status
	}
	return t.Status + " (" + t.Reason + ")"
}

// Key identifies a metric item within its file.
func (m MetricItem) Key() string {
	return strconv.Itoa(m.Line)
}

// BaseTitle describes the score.
func (m MetricItem) BaseTitle() string {
	return "Cyclomatic complexity: " + m.Score
}

func (t TestItem) location() (string, int)   { return t.File, t.Line }
func (m MetricItem) location() (string, int) { return m.File, m.Line }
