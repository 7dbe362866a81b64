package hierarchy

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgtnav/internal/locate"
	"lgtnav/internal/record"
	"lgtnav/internal/slogutil"
)

func newBuilder() *Builder {
	return NewBuilder(slogutil.NewDiscardLogger())
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return filepath.ToSlash(path)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindClass, KindOf(record.EntityObject))
	assert.Equal(t, KindInterface, KindOf(record.EntityProtocol))
	assert.Equal(t, KindStruct, KindOf(record.EntityCategory))
}

func TestIncoming_MissingFileStillYieldsItem(t *testing.T) {
	calls := newBuilder().Incoming("Name:bar/1;File:/x/y.lgt;Line:12", Focus{Symbol: "foo/2"})

	require.Len(t, calls, 1)
	assert.Equal(t, "bar/1", calls[0].From.Name)
	assert.Equal(t, "/x/y.lgt", calls[0].From.File)
	assert.Equal(t, locate.LineStart(11), calls[0].From.Selection)
	assert.Empty(t, calls[0].FromRanges)
	assert.NotNil(t, calls[0].FromRanges)
}

func TestIncoming_CallSiteOnCallerLine(t *testing.T) {
	dir := t.TempDir()
	lines := ""
	for i := 1; i < 12; i++ {
		lines += "% filler\n"
	}
	lines += "bar(X) :- foo(X, Y), baz(Y).\n"
	file := writeSource(t, dir, "y.lgt", lines)

	text := fmt.Sprintf("Name:bar/1;File:%s;Line:12\n", file)
	calls := newBuilder().Incoming(text, Focus{Symbol: "foo/2"})

	require.Len(t, calls, 1)
	item := calls[0].From
	assert.Equal(t, "bar/1", item.Name)
	assert.Equal(t, KindFunction, item.Kind)
	assert.Equal(t, locate.Range{Start: locate.Position{Line: 11}, End: locate.Position{Line: 11, Character: 3}}, item.Selection)
	require.Len(t, calls[0].FromRanges, 1)
	assert.Equal(t, locate.Range{Start: locate.Position{Line: 11, Character: 10}, End: locate.Position{Line: 11, Character: 13}}, calls[0].FromRanges[0])
}

func TestIncoming_DuplicateCallerReplaced(t *testing.T) {
	dir := t.TempDir()
	file := writeSource(t, dir, "a.lgt", "a :- foo.\na :- b, foo.\n")
	text := fmt.Sprintf("Name:a/0;File:%s;Line:1\nName:a/0;File:%s;Line:2\nbroken line\n", file, file)

	calls := newBuilder().Incoming(text, Focus{Symbol: "foo/0"})

	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].From.Range.Start.Line)
	require.Len(t, calls[0].FromRanges, 1)
	assert.Equal(t, 8, calls[0].FromRanges[0].Start.Character)
}

func TestOutgoing_CallSitesOnFocalLine(t *testing.T) {
	dir := t.TempDir()
	focal := writeSource(t, dir, "main.lgt", "run :- helper(1), log(done), helper(2).\n")
	lib := writeSource(t, dir, "lib.lgt", "\nhelper(N) :- write(N).\n")

	text := fmt.Sprintf("Name:helper/1;File:%s;Line:2\nName:log/1;File:%s;Line:9\n", lib, lib)
	calls := newBuilder().Outgoing(text, Focus{Symbol: "run/0", File: focal, Line: 1})

	require.Len(t, calls, 2)
	assert.Equal(t, "helper/1", calls[0].To.Name)
	assert.Equal(t, locate.Range{Start: locate.Position{Line: 1}, End: locate.Position{Line: 1, Character: 6}}, calls[0].To.Selection)
	require.Len(t, calls[0].FromRanges, 2)
	assert.Equal(t, 7, calls[0].FromRanges[0].Start.Character)
	assert.Equal(t, 29, calls[0].FromRanges[1].Start.Character)

	assert.Equal(t, locate.LineStart(8), calls[1].To.Selection)
	require.Len(t, calls[1].FromRanges, 1)
	assert.Equal(t, 18, calls[1].FromRanges[0].Start.Character)
}

func TestSupertypes(t *testing.T) {
	dir := t.TempDir()
	proto := writeSource(t, dir, "p.lgt", ":- protocol(shape).\n")
	obj := writeSource(t, dir, "o.lgt", "\n:- object(polygon,\n    implements(shape)).\n")

	text := fmt.Sprintf("Type:protocol;Name:shape;File:%s;Line:1\n"+
		"Type:object;Name:polygon;File:%s;Line:2\n"+
		"Type:protocol;Name:shape;File:%s;Line:1\n"+
		"Type:module;Name:m;File:%s;Line:1\n", proto, obj, proto, obj)

	items := newBuilder().Supertypes(text)

	require.Len(t, items, 2)
	assert.Equal(t, Item{
		Name:      "shape",
		Kind:      KindInterface,
		File:      proto,
		Range:     locate.Range{Start: locate.Position{}, End: locate.Position{Character: 19}},
		Selection: locate.Range{Start: locate.Position{Character: 12}, End: locate.Position{Character: 17}},
	}, items[0])
	assert.Equal(t, KindClass, items[1].Kind)
	assert.Equal(t, 10, items[1].Selection.Start.Character)
	assert.Equal(t, 1, items[1].Selection.Start.Line)
}

func TestSubtypes_Empty(t *testing.T) {
	items := newBuilder().Subtypes("")
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestReferences_OnePerRecord(t *testing.T) {
	text := "File:/p/a.lgt;Line:3\nFile:/p/b.lgt;Line:10\nFile:/P/A.lgt;Line:3\n"

	locs := newBuilder().References(text)

	require.Len(t, locs, 3)
	assert.Equal(t, Location{File: "/p/a.lgt", Range: locate.LineStart(2)}, locs[0])
	assert.Equal(t, Location{File: "/p/b.lgt", Range: locate.LineStart(9)}, locs[1])
	assert.Equal(t, Location{File: "/P/A.lgt", Range: locate.LineStart(2)}, locs[2])

	assert.NotNil(t, newBuilder().References(""))
}

func TestTypeDefinition_FirstRecordOnly(t *testing.T) {
	locs := newBuilder().TypeDefinition("junk\nFile:/p/t.lgt;Line:7\nFile:/p/u.lgt;Line:1\n")
	require.Len(t, locs, 1)
	assert.Equal(t, Location{File: "/p/t.lgt", Range: locate.LineStart(6)}, locs[0])

	assert.Empty(t, newBuilder().TypeDefinition(""))
}

func TestPrepareCall(t *testing.T) {
	file := writeSource(t, t.TempDir(), "m.lgt", "\n    go :- start.\n")

	item := newBuilder().PrepareCall(file, 1, "go/0")

	assert.Equal(t, "go/0", item.Name)
	assert.Equal(t, KindFunction, item.Kind)
	assert.Equal(t, locate.Range{Start: locate.Position{Line: 1, Character: 4}, End: locate.Position{Line: 1, Character: 6}}, item.Selection)
}

func TestPrepareType(t *testing.T) {
	file := writeSource(t, t.TempDir(), "c.lgt", "% counter category\n:- category(counting).\n\n:- end_category.\n")

	item := newBuilder().PrepareType(file, 3, "counting")
	assert.Equal(t, KindStruct, item.Kind)
	assert.Equal(t, 1, item.Selection.Start.Line)
	assert.Equal(t, 12, item.Selection.Start.Character)

	missing := newBuilder().PrepareType(file, 0, "counter")
	assert.Equal(t, KindClass, missing.Kind)
	assert.Equal(t, locate.Range{Start: locate.Position{Character: 2}, End: locate.Position{Character: 9}}, missing.Selection)
}
