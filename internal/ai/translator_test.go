package ai

import (
	"errors"
	"testing"
)

func TestParseFullResponse(t *testing.T) {
	raw := `Some chatter before the payload.
<summary>Added a counter component</summary>
<file path="/src/Counter.tsx">
export function Counter() {
  return <button>0</button>;
}
</file>
<file path="/src/App.tsx">
import { Counter } from "./Counter";
</file>
<deleteFile path="/src/old.tsx"/>
Trailing prose the model added.`

	b, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if b.Summary != "Added a counter component" {
		t.Fatalf("summary = %q", b.Summary)
	}
	if len(b.Updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(b.Updates))
	}
	if b.Updates[0].Path != "/src/Counter.tsx" {
		t.Fatalf("first update path = %q", b.Updates[0].Path)
	}
	want := "export function Counter() {\n  return <button>0</button>;\n}"
	if b.Updates[0].Content != want {
		t.Fatalf("content = %q, want %q", b.Updates[0].Content, want)
	}
	if len(b.Deletes) != 1 || b.Deletes[0] != "/src/old.tsx" {
		t.Fatalf("deletes = %+v", b.Deletes)
	}
}

func TestParseSummaryOnly(t *testing.T) {
	b, err := Parse("<summary>Nothing to change</summary>")
	if err != nil {
		t.Fatal(err)
	}
	if !b.Empty() {
		t.Fatalf("expected empty batch, got %+v", b)
	}
	if b.Summary != "Nothing to change" {
		t.Fatalf("summary = %q", b.Summary)
	}
}

func TestParseNoTagsFails(t *testing.T) {
	_, err := Parse("I would suggest refactoring your components.")
	if !errors.Is(err, ErrTranslation) {
		t.Fatalf("got %v, want ErrTranslation", err)
	}
}

func TestParsePreservesInnerWhitespace(t *testing.T) {
	raw := `<summary>s</summary><file path="/a.txt">
  indented
    more

</file>`
	b, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if b.Updates[0].Content != "  indented\n    more\n" {
		t.Fatalf("content = %q", b.Updates[0].Content)
	}
}

func TestParseSelfClosingDeleteVariants(t *testing.T) {
	b, err := Parse(`<summary>s</summary><deleteFile path="/a"/><deleteFile path="/b" />`)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Deletes) != 2 {
		t.Fatalf("deletes = %+v", b.Deletes)
	}
}
