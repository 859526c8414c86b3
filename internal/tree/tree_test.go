package tree

import (
	"testing"
)

func sample() []*Node {
	var root []*Node
	root = UpsertFile(root, "/package.json", "{}")
	root = UpsertFile(root, "/src/App.tsx", "export default function App() {}")
	root = UpsertFile(root, "/src/main.tsx", "import App from './App'")
	root = UpsertFile(root, "/public/favicon.svg", "<svg/>")
	return root
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":              "/",
		"/":             "/",
		"src/App.tsx":   "/src/App.tsx",
		"/src//App.tsx": "/src/App.tsx",
		"/src/":         "/src",
	}
	for in, want := range cases {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpsertFileCreatesIntermediates(t *testing.T) {
	var root []*Node
	root = UpsertFile(root, "/a/b/c.txt", "hi")

	a := Find(root, "/a")
	if a == nil || !a.IsDir {
		t.Fatalf("expected /a to be a folder, got %+v", a)
	}
	c := Find(root, "/a/b/c.txt")
	if c == nil || c.IsDir || c.Content != "hi" {
		t.Fatalf("expected file /a/b/c.txt with content, got %+v", c)
	}
}

func TestUpsertFileDoesNotMutateInput(t *testing.T) {
	root := sample()
	before := Hash(root)
	_ = UpsertFile(root, "/src/App.tsx", "changed")
	if Hash(root) != before {
		t.Fatal("input forest was mutated")
	}
}

func TestUpsertDirCreatesChain(t *testing.T) {
	var root []*Node
	root = UpsertDir(root, "/a/b/c")
	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		n := Find(root, p)
		if n == nil || !n.IsDir {
			t.Fatalf("expected folder at %s, got %+v", p, n)
		}
	}
	// Existing folders are left alone.
	root = UpsertFile(root, "/a/b/file.txt", "hi")
	root = UpsertDir(root, "/a/b")
	if Find(root, "/a/b/file.txt") == nil {
		t.Fatal("upsert of an existing folder dropped its children")
	}
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	root := sample()
	out := Delete(root, "/nope.txt")
	if Hash(out) != Hash(root) {
		t.Fatal("deleting a missing path changed the tree")
	}
}

func TestDeleteRemovesSubtree(t *testing.T) {
	root := sample()
	out := Delete(root, "/src")
	if Find(out, "/src") != nil {
		t.Fatal("/src still present")
	}
	if Find(out, "/src/App.tsx") != nil {
		t.Fatal("descendant survived folder deletion")
	}
	if Find(out, "/package.json") == nil {
		t.Fatal("sibling was removed too")
	}
}

func TestMoveRewritesDescendantPaths(t *testing.T) {
	root := sample()
	root, err := AddNode(root, "/", "lib", true)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Move(root, "/src", "/lib")
	if err != nil {
		t.Fatal(err)
	}
	n := Find(out, "/lib/src/App.tsx")
	if n == nil {
		t.Fatal("descendant path not rewritten after move")
	}
	if n.Path != "/lib/src/App.tsx" {
		t.Fatalf("node carries stale path %q", n.Path)
	}
	if Find(out, "/src") != nil {
		t.Fatal("source still present after move")
	}
}

func TestMoveToSameParentIsNoOp(t *testing.T) {
	root := sample()
	out, err := Move(root, "/src/App.tsx", "/src")
	if err != nil {
		t.Fatal(err)
	}
	if Hash(out) != Hash(root) {
		t.Fatal("same-parent move changed the tree")
	}
}

func TestMoveIntoOwnSubtreeRejected(t *testing.T) {
	root := sample()
	if _, err := Move(root, "/src", "/src"); err != ErrCyclicMove {
		t.Fatalf("move onto self: got %v, want ErrCyclicMove", err)
	}
	root, err := AddNode(root, "/src", "inner", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Move(root, "/src", "/src/inner"); err != ErrCyclicMove {
		t.Fatalf("move into subtree: got %v, want ErrCyclicMove", err)
	}
}

func TestMoveDuplicateNameRejected(t *testing.T) {
	root := sample()
	root = UpsertFile(root, "/src/favicon.svg", "other")
	if _, err := Move(root, "/public/favicon.svg", "/src"); err != ErrDuplicateName {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
}

func TestRename(t *testing.T) {
	root := sample()
	out, err := Rename(root, "/src", "source")
	if err != nil {
		t.Fatal(err)
	}
	if Find(out, "/source/App.tsx") == nil {
		t.Fatal("descendant path not rewritten after rename")
	}
	if _, err := Rename(root, "/src", "bad/name"); err != ErrInvalidName {
		t.Fatalf("got %v, want ErrInvalidName", err)
	}
	if _, err := Rename(root, "/src", "public"); err != ErrDuplicateName {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
	if _, err := Rename(root, "/missing", "x"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAddNodeDuplicateRejected(t *testing.T) {
	root := sample()
	if _, err := AddNode(root, "/src", "App.tsx", false); err != ErrDuplicateName {
		t.Fatalf("got %v, want ErrDuplicateName", err)
	}
}

func TestHashIgnoresSiblingOrder(t *testing.T) {
	var a []*Node
	a = UpsertFile(a, "/x.txt", "1")
	a = UpsertFile(a, "/y.txt", "2")
	var b []*Node
	b = UpsertFile(b, "/y.txt", "2")
	b = UpsertFile(b, "/x.txt", "1")
	if Hash(a) != Hash(b) {
		t.Fatal("hash depends on sibling insertion order")
	}
	b = UpsertFile(b, "/x.txt", "changed")
	if Hash(a) == Hash(b) {
		t.Fatal("hash did not change with content")
	}
}

func TestMountRecord(t *testing.T) {
	root := sample()
	rec := MountRecord(root)
	src, ok := rec["src"].(map[string]any)
	if !ok {
		t.Fatal("src missing from record")
	}
	dir, ok := src["directory"].(map[string]any)
	if !ok {
		t.Fatal("src is not a directory record")
	}
	app, ok := dir["App.tsx"].(map[string]any)
	if !ok {
		t.Fatal("App.tsx missing from record")
	}
	file, ok := app["file"].(map[string]any)
	if !ok || file["contents"] != "export default function App() {}" {
		t.Fatalf("file record wrong: %+v", app)
	}
}

func TestFilesAndCount(t *testing.T) {
	root := sample()
	if got := Count(root); got != 6 {
		t.Fatalf("Count = %d, want 6", got)
	}
	if got := len(Files(root)); got != 4 {
		t.Fatalf("Files = %d, want 4", got)
	}
}
