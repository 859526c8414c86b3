package search

import (
	"errors"
	"testing"

	"github.com/yourorg/webstudio-go/internal/tree"
)

func fixture() []*tree.Node {
	var root []*tree.Node
	root = tree.UpsertFile(root, "/src/App.tsx", "Hello world\nsay hello twice: hello hello\nHELLOING along")
	root = tree.UpsertFile(root, "/src/util.ts", "nothing here")
	root = tree.UpsertFile(root, "/readme.md", "Hello reader")
	return root
}

func TestSearchCaseInsensitiveDefault(t *testing.T) {
	results, err := Search(fixture(), "hello", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d files, want 2", len(results))
	}
	app := results[0]
	if app.Path != "/src/App.tsx" {
		t.Fatalf("first result %q", app.Path)
	}
	if len(app.Matches) != 3 {
		t.Fatalf("got %d matching lines, want 3", len(app.Matches))
	}
	// Line 2 has three non-overlapping occurrences.
	if got := len(app.Matches[1].Ranges); got != 3 {
		t.Fatalf("line 2 ranges = %d, want 3", got)
	}
	if app.Matches[1].LineNumber != 2 {
		t.Fatalf("line number = %d, want 2", app.Matches[1].LineNumber)
	}
}

func TestSearchWholeWord(t *testing.T) {
	results, err := Search(fixture(), "hello", Options{WholeWord: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		for _, m := range r.Matches {
			if m.LineText == "HELLOING along" {
				t.Fatal("whole-word matched inside a longer word")
			}
		}
	}
}

func TestSearchCaseSensitive(t *testing.T) {
	results, err := Search(fixture(), "Hello", Options{CaseSensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, r := range results {
		for _, m := range r.Matches {
			total += len(m.Ranges)
		}
	}
	if total != 2 {
		t.Fatalf("case-sensitive matches = %d, want 2", total)
	}
}

func TestSearchIncludeGlob(t *testing.T) {
	results, err := Search(fixture(), "hello", Options{IncludeGlob: "**/*.md"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "/readme.md" {
		t.Fatalf("glob filter failed: %+v", results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	results, err := Search(fixture(), "", Options{})
	if err != nil || results != nil {
		t.Fatalf("empty query: results=%v err=%v", results, err)
	}
}

func TestSearchInvalidRegex(t *testing.T) {
	_, err := Search(fixture(), "[unclosed", Options{Regex: true})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("got %v, want ErrInvalidPattern", err)
	}
}

func TestSearchLiteralTreatsMetaVerbatim(t *testing.T) {
	root := tree.UpsertFile(nil, "/a.txt", "cost is $4.99 (sale)")
	results, err := Search(root, "$4.99 (sale)", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("literal query with regex metacharacters did not match: %+v", results)
	}
}

func TestReplaceOne(t *testing.T) {
	root := fixture()
	out, err := ReplaceOne(root, "/src/App.tsx", 2, "hello", Options{}, "hi")
	if err != nil {
		t.Fatal(err)
	}
	got := tree.Find(out, "/src/App.tsx").Content
	want := "Hello world\nsay hi twice: hello hello\nHELLOING along"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	// Input unchanged.
	if tree.Find(root, "/src/App.tsx").Content == got {
		t.Fatal("input tree was mutated")
	}
}

func TestReplaceOneStaleLineIsNoOp(t *testing.T) {
	root := fixture()
	out, err := ReplaceOne(root, "/src/util.ts", 1, "hello", Options{}, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Hash(out) != tree.Hash(root) {
		t.Fatal("replace on a non-matching line changed the tree")
	}
}

func TestReplaceAll(t *testing.T) {
	root := fixture()
	out, count, err := ReplaceAll(root, "hello", Options{}, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if count != 6 {
		t.Fatalf("count = %d, want 6", count)
	}
	if res, _ := Search(out, "hello", Options{WholeWord: true}); len(res) != 0 {
		t.Fatalf("matches survived replace-all: %+v", res)
	}
}

func TestReplaceAllRegexCaptureGroups(t *testing.T) {
	root := tree.UpsertFile(nil, "/a.txt", "name: Ada")
	out, count, err := ReplaceAll(root, `name: (\w+)`, Options{Regex: true, CaseSensitive: true}, "user: $1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if got := tree.Find(out, "/a.txt").Content; got != "user: Ada" {
		t.Fatalf("got %q", got)
	}
}
