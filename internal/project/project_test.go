package project

import (
	"strings"
	"testing"

	"github.com/yourorg/webstudio-go/internal/tree"
)

func TestTemplatesLoad(t *testing.T) {
	all, err := Templates()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 2 {
		t.Fatalf("templates = %d, want at least 2", len(all))
	}
	for _, tmpl := range all {
		if tmpl.Slug == "" || tmpl.Name == "" || len(tmpl.Files) == 0 {
			t.Fatalf("incomplete template: %+v", tmpl)
		}
		if _, ok := tmpl.Files["/package.json"]; !ok {
			t.Fatalf("template %s has no /package.json", tmpl.Slug)
		}
	}
}

func TestFindTemplateUnknown(t *testing.T) {
	if _, err := FindTemplate("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown slug")
	}
}

func TestFromTemplate(t *testing.T) {
	tmpl, err := FindTemplate("react-vite")
	if err != nil {
		t.Fatal(err)
	}
	p := FromTemplate(tmpl, "demo")
	if p.ID == "" || p.Name != "demo" {
		t.Fatalf("bad project: %+v", p)
	}
	if n := tree.Find(p.Root, "/src/App.tsx"); n == nil || n.IsDir {
		t.Fatal("template file missing from tree")
	}
	src := tree.Find(p.Root, "/src")
	if src == nil || !src.IsDir {
		t.Fatal("intermediate folder not materialized")
	}
	if len(tree.Files(p.Root)) != len(tmpl.Files) {
		t.Fatalf("files = %d, want %d", len(tree.Files(p.Root)), len(tmpl.Files))
	}
}

func TestDuplicateIsDeepCopy(t *testing.T) {
	tmpl, err := FindTemplate("vanilla")
	if err != nil {
		t.Fatal(err)
	}
	p := FromTemplate(tmpl, "orig")
	cp := p.Duplicate("copy")
	if cp.ID == p.ID {
		t.Fatal("duplicate kept the id")
	}
	tree.Find(cp.Root, "/package.json").Content = "mutated"
	if tree.Find(p.Root, "/package.json").Content == "mutated" {
		t.Fatal("duplicate shares memory with the source")
	}
}

func TestSnapshotText(t *testing.T) {
	var root []*tree.Node
	root = tree.UpsertFile(root, "/a.txt", "alpha")
	root = tree.UpsertFile(root, "/src/b.txt", "beta\n")
	got := SnapshotText(root)
	for _, want := range []string{"=== /a.txt ===\nalpha\n", "=== /src/b.txt ===\nbeta\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("snapshot missing %q:\n%s", want, got)
		}
	}
}
