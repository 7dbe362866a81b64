package record

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		line    string
		want    []string
		ok      bool
	}{
		{
			name:    "call record",
			pattern: callPattern,
			line:    "Name:bar/1;File:/x/y.lgt;Line:12",
			want:    []string{"bar/1", "/x/y.lgt", "12"},
			ok:      true,
		},
		{
			name:    "windows path with drive colon",
			pattern: locationPattern,
			line:    "File:C:/work/a.lgt;Line:7",
			want:    []string{"C:/work/a.lgt", "7"},
			ok:      true,
		},
		{
			name:    "file tag is case-insensitive",
			pattern: callPattern,
			line:    "Name:foo//2;file:/x/a.lgt;Line:3",
			want:    []string{"foo//2", "/x/a.lgt", "3"},
			ok:      true,
		},
		{
			name:    "other tags are case-sensitive",
			pattern: callPattern,
			line:    "name:foo/2;File:/x/a.lgt;Line:3",
			ok:      false,
		},
		{
			name:    "missing tag",
			pattern: entityPattern,
			line:    "Type:object;File:/x/a.lgt;Line:3",
			ok:      false,
		},
		{
			name:    "last value keeps semicolons",
			pattern: filePattern,
			line:    "File:/x/a.lgt;Line:1;Status:failed;Reason:timeout",
			want:    []string{"/x/a.lgt", "1", "failed;Reason:timeout"},
			ok:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.pattern.Match(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPattern_LinesReportsMalformed(t *testing.T) {
	text := "File:/a.lgt;Line:1\r\ngarbage\n\nFile:/b.lgt;Line:2\n"
	var bad []int

	var got [][]string
	for v := range locationPattern.Lines(text, func(n int, _ string) { bad = append(bad, n) }) {
		got = append(got, v)
	}

	assert.Equal(t, [][]string{{"/a.lgt", "1"}, {"/b.lgt", "2"}}, got)
	assert.Equal(t, []int{2}, bad)
}

func TestCalls(t *testing.T) {
	text := "Name:bar/1;File:/x/y.lgt;Line:12\n" +
		"Name:baz/0;File:/x/z.lgt;Line:0\n" + // non-positive line
		"Name:qux/3;File:/x/z.lgt;Line:abc\n" +
		"Name:;File:/x/z.lgt;Line:4\n" +
		"Name:quux/2;File:/x/w.lgt;Line:40\n"

	var malformed int
	got := slices.Collect(Calls(text, func(int, string) { malformed++ }))

	require.Len(t, got, 2)
	assert.Equal(t, CallRecord{Name: "bar/1", File: "/x/y.lgt", Line: 12}, got[0])
	assert.Equal(t, CallRecord{Name: "quux/2", File: "/x/w.lgt", Line: 40}, got[1])
	assert.Equal(t, 3, malformed)
}

func TestEntities(t *testing.T) {
	text := "Type:object;Name:list;File:/lib/list.lgt;Line:21\n" +
		"Type:Protocol;Name:listp;File:/lib/listp.lgt;Line:3\n" +
		"Type:module;Name:lists;File:/lib/lists.pl;Line:1\n" +
		"Type:category;Name:monitoring;File:/lib/m.lgt;Line:9\n"

	got := slices.Collect(Entities(text, nil))

	require.Len(t, got, 3)
	assert.Equal(t, EntityObject, got[0].Type)
	assert.Equal(t, EntityProtocol, got[1].Type)
	assert.Equal(t, "listp", got[1].Name)
	assert.Equal(t, EntityCategory, got[2].Type)
	assert.Equal(t, 9, got[2].Line)
}

func TestLocations_NormalizesSeparators(t *testing.T) {
	got := slices.Collect(Locations(`File:C:\work\src\a.lgt;Line:8`, nil))
	require.Len(t, got, 1)
	assert.Equal(t, LocationRecord{File: "C:/work/src/a.lgt", Line: 8}, got[0])
}

func TestMetrics(t *testing.T) {
	text := "File:/p/a.lgt;Line:5;Score:3\nFile:/p/a.lgt;Line:9;Score:1\nFile:/p/a.lgt;Line:9;Score:high\n"

	got := slices.Collect(Metrics(text, nil))

	require.Len(t, got, 2)
	assert.Equal(t, MetricRecord{File: "/p/a.lgt", Line: 5, Score: "3"}, got[0])
	assert.Equal(t, MetricRecord{File: "/p/a.lgt", Line: 9, Score: "1"}, got[1])
}

func TestTests_AllShapes(t *testing.T) {
	text := "File:/t/tests.lgt;Line:10;Object:tests;Test:t1;Status:passed\n" +
		"File:/t/tests.lgt;Line:14;Object:tests;Test:t2;Status:failed;Reason:expected 3, got 4\n" +
		"File:/t/tests.lgt;Line:1;Object:tests;Status:1 passed, 1 failed\n" +
		"File:/t/tests.lgt;Line:1;Status:2 tests: 1 passed, 1 failed\n" +
		"Line:3;Status:orphan\n"

	var malformed []int
	got := slices.Collect(Tests(text, func(n int, _ string) { malformed = append(malformed, n) }))

	require.Len(t, got, 4)
	assert.Equal(t, TestRecord{Scope: ScopeTest, File: "/t/tests.lgt", Line: 10, Object: "tests", Test: "t1", Status: "passed"}, got[0])
	assert.Equal(t, "failed", got[1].Status)
	assert.Equal(t, "expected 3, got 4", got[1].Reason)
	assert.Equal(t, ScopeObject, got[2].Scope)
	assert.Equal(t, "1 passed, 1 failed", got[2].Status)
	assert.Equal(t, ScopeFile, got[3].Scope)
	assert.Empty(t, got[3].Object)
	assert.Equal(t, []int{5}, malformed)
}

func TestDecodeStopsEarly(t *testing.T) {
	text := "File:/a.lgt;Line:1\nFile:/b.lgt;Line:2\nFile:/c.lgt;Line:3\n"
	var seen []string
	for rec := range Locations(text, nil) {
		seen = append(seen, rec.File)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"/a.lgt", "/b.lgt"}, seen)
}
