package locate

import (
	"os"
	"strings"
)

// entityKeywords open the directives that declare an entity.
var entityKeywords = []string{"object(", "protocol(", "category("}

// Source reads files on demand and keeps their lines for the lifetime of
// one response, so several records pointing into the same file read it
// once. A Source must not outlive the response it was built for.
type Source struct {
	files map[string]sourceFile
}

type sourceFile struct {
	lines []string
	err   error
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{files: make(map[string]sourceFile)}
}

// Lines returns the lines of path, split on "\n" or "\r\n".
func (s *Source) Lines(path string) ([]string, error) {
	if f, ok := s.files[path]; ok {
		return f.lines, f.err
	}
	var f sourceFile
	data, err := os.ReadFile(path)
	if err != nil {
		f.err = err
	} else {
		f.lines = splitLines(string(data))
	}
	s.files[path] = f
	return f.lines, f.err
}

// line returns the text of a 0-based line, or false when unavailable.
func (s *Source) line(path string, idx int) (string, bool) {
	if idx < 0 {
		return "", false
	}
	lines, err := s.Lines(path)
	if err != nil || idx >= len(lines) {
		return "", false
	}
	return lines[idx], true
}

// missing is the fallback for a line that cannot be read. A line past the
// end of a readable file has no start of its own and collapses to line 0; an
// unreadable file keeps the reported line.
func (s *Source) missing(path string, idx int) Span {
	if lines, err := s.Lines(path); err == nil && idx >= len(lines) {
		return fallback(0)
	}
	return fallback(idx)
}

// Locate places symbol on the given 1-based line of path. The selection
// covers the first occurrence of the symbol's bare name and the range covers
// the whole line. When the file, the line or the name cannot be found the
// result is the zero-width span at the start of that line, or of line 0 when
// the file has no such line.
func (s *Source) Locate(path string, oneBasedLine int, symbol string) Span {
	idx := oneBasedLine - 1
	text, ok := s.line(path, idx)
	if !ok {
		return s.missing(path, idx)
	}
	name := StripArity(symbol)
	if name == "" {
		return fallback(idx)
	}
	off := strings.Index(text, name)
	if off < 0 {
		return fallback(idx)
	}
	return lineSpan(idx, text, off, len(name))
}

// LocateEntity places an entity name inside its opening directive argument,
// as in "object(Name", "protocol(Name" or "category(Name". Lines without such
// a directive fall back to the plain substring search of Locate.
func (s *Source) LocateEntity(path string, oneBasedLine int, entity string) Span {
	idx := oneBasedLine - 1
	text, ok := s.line(path, idx)
	if !ok {
		return s.missing(path, idx)
	}
	if off, _, ok := indexEntity(text, entity); ok {
		return lineSpan(idx, text, off, len(entity))
	}
	return s.Locate(path, oneBasedLine, entity)
}

// FindEntity scans path for the directive that opens entity and returns its
// span along with the directive name ("object", "protocol" or "category").
// It reports false when no such directive exists.
func (s *Source) FindEntity(path, entity string) (Span, string, bool) {
	lines, err := s.Lines(path)
	if err != nil {
		return Span{}, "", false
	}
	for idx, text := range lines {
		if !strings.HasPrefix(strings.TrimSpace(text), ":-") {
			continue
		}
		if off, kw, ok := indexEntity(text, entity); ok {
			return lineSpan(idx, text, off, len(entity)), strings.TrimSuffix(kw, "("), true
		}
	}
	return Span{}, "", false
}

// CallSites returns the ranges of every non-overlapping occurrence of the
// symbol's bare name on a 1-based line. It returns nil when there is none.
func (s *Source) CallSites(path string, oneBasedLine int, symbol string) []Range {
	idx := oneBasedLine - 1
	text, ok := s.line(path, idx)
	name := StripArity(symbol)
	if !ok || name == "" {
		return nil
	}
	var sites []Range
	for base := 0; ; {
		off := strings.Index(text[base:], name)
		if off < 0 {
			break
		}
		sites = append(sites, selection(idx, text, base+off, len(name)))
		base += off + len(name)
	}
	return sites
}

// Locate is Source.Locate on a fresh Source.
func Locate(path string, oneBasedLine int, symbol string) Span {
	return NewSource().Locate(path, oneBasedLine, symbol)
}

// LocateEntity is Source.LocateEntity on a fresh Source.
func LocateEntity(path string, oneBasedLine int, entity string) Span {
	return NewSource().LocateEntity(path, oneBasedLine, entity)
}

// CallSites is Source.CallSites on a fresh Source.
func CallSites(path string, oneBasedLine int, symbol string) []Range {
	return NewSource().CallSites(path, oneBasedLine, symbol)
}

// indexEntity returns the byte offset of entity directly after one of the
// entity-opening keywords, requiring identifier boundaries on both sides,
// and the keyword that matched.
func indexEntity(text, entity string) (int, string, bool) {
	if entity == "" {
		return 0, "", false
	}
	for _, kw := range entityKeywords {
		needle := kw + entity
		for base := 0; ; {
			i := strings.Index(text[base:], needle)
			if i < 0 {
				break
			}
			start := base + i
			end := start + len(needle)
			if (start == 0 || !isIdentByte(text[start-1])) && (end == len(text) || !isIdentByte(text[end])) {
				return start + len(kw), kw, true
			}
			base = start + 1
		}
	}
	return 0, "", false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
