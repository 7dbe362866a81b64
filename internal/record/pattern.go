// Package record decodes the engine's line-oriented artifact format:
//
//	Tag1:value1;Tag2:value2;...;TagN:valueN
//
// Each artifact kind has a fixed tag sequence. Values are not escaped; a value
// runs until the next expected ";Tag:" separator, and the last value runs to
// the end of the line, so it may itself contain ';'.
package record

import (
	"iter"
	"strings"
)

// Tags used by the engine.
const (
	TagType   = "Type"
	TagName   = "Name"
	TagFile   = "File"
	TagLine   = "Line"
	TagStatus = "Status"
	TagReason = "Reason"
	TagScore  = "Score"
	TagObject = "Object"
	TagTest   = "Test"
)

// Pattern is an ordered tag sequence describing one record shape.
type Pattern []string

var (
	callPattern     = Pattern{TagName, TagFile, TagLine}
	entityPattern   = Pattern{TagType, TagName, TagFile, TagLine}
	locationPattern = Pattern{TagFile, TagLine}
	metricPattern   = Pattern{TagFile, TagLine, TagScore}
	testPattern     = Pattern{TagFile, TagLine, TagObject, TagTest, TagStatus}
	objectPattern   = Pattern{TagFile, TagLine, TagObject, TagStatus}
	filePattern     = Pattern{TagFile, TagLine, TagStatus}
)

// Match splits line into one value per tag, or reports false when the line
// does not have exactly this shape. The File tag is matched without regard
// to case; all other tags are case-sensitive.
func (p Pattern) Match(line string) ([]string, bool) {
	if len(p) == 0 {
		return nil, false
	}
	rest, ok := cutTag(line, p[0])
	if !ok {
		return nil, false
	}

	values := make([]string, len(p))
	for i := 0; i < len(p)-1; i++ {
		idx := indexSeparator(rest, p[i+1])
		if idx < 0 {
			return nil, false
		}
		values[i] = rest[:idx]
		rest = rest[idx+1+len(p[i+1])+1:]
	}
	values[len(p)-1] = rest
	return values, true
}

// Lines yields the values of every line of text that matches p. Lines that
// do not match are handed to onMalformed (if non-nil) with their 1-based
// number and skipped. Blank lines are ignored.
func (p Pattern) Lines(text string, onMalformed MalformedFunc) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for n, line := range lines(text) {
			values, ok := p.Match(line)
			if !ok {
				if onMalformed != nil {
					onMalformed(n, line)
				}
				continue
			}
			if !yield(values) {
				return
			}
		}
	}
}

// lines yields the non-blank lines of text with their 1-based numbers,
// accepting both \n and \r\n endings.
func lines(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := 0
		for raw := range strings.Lines(text) {
			n++
			line := strings.TrimRight(raw, "\r\n")
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !yield(n, line) {
				return
			}
		}
	}
}

// cutTag strips "Tag:" from the start of s.
func cutTag(s, tag string) (string, bool) {
	if len(s) < len(tag)+1 || s[len(tag)] != ':' {
		return "", false
	}
	if !tagEqual(s[:len(tag)], tag) {
		return "", false
	}
	return s[len(tag)+1:], true
}

// indexSeparator finds the first ";Tag:" in s and returns the index of ';'.
func indexSeparator(s, tag string) int {
	for i := 0; i+len(tag)+2 <= len(s); i++ {
		if s[i] != ';' || s[i+1+len(tag)] != ':' {
			continue
		}
		if tagEqual(s[i+1:i+1+len(tag)], tag) {
			return i
		}
	}
	return -1
}

func tagEqual(got, want string) bool {
	if want == TagFile {
		return strings.EqualFold(got, want)
	}
	return got == want
}
