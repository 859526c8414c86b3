package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourorg/webstudio-go/internal/tree"
)

func buildZip(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportZip(t *testing.T) {
	r := buildZip(t, map[string]string{
		"package.json":       "{}",
		"src/App.tsx":        "app",
		"__MACOSX/junk":      "resource fork",
		"src/.DS_Store":      "finder noise",
		"../escape.txt":      "zip slip",
		"nested/../also.txt": "dotdot segment",
	})
	root, err := ImportZip(r, r.Size())
	if err != nil {
		t.Fatal(err)
	}
	if n := tree.Find(root, "/src/App.tsx"); n == nil || n.Content != "app" {
		t.Fatalf("missing imported file: %+v", n)
	}
	for _, p := range tree.ListAllPaths(root) {
		switch p {
		case "/escape.txt", "/also.txt", "/__MACOSX/junk", "/src/.DS_Store":
			t.Fatalf("unsafe or junk entry imported: %s", p)
		}
	}
}

func TestImportZipNestedEmptyFolderWithoutParentEntries(t *testing.T) {
	// Some archivers write only the deepest dir entry.
	r := buildZip(t, map[string]string{"a/b/c/": ""})
	root, err := ImportZip(r, r.Size())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if n := tree.Find(root, p); n == nil || !n.IsDir {
			t.Fatalf("folder %s missing or not a folder: %+v", p, n)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	var root []*tree.Node
	root = tree.UpsertFile(root, "/package.json", "{}")
	root = tree.UpsertFile(root, "/src/App.tsx", "app body")
	var err error
	root, err = tree.AddNode(root, "/", "empty", true)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ExportZip(root, &buf); err != nil {
		t.Fatal(err)
	}
	got, err := ImportZip(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if tree.Hash(got) != tree.Hash(root) {
		t.Fatalf("round trip changed the tree:\n%v\nvs\n%v", tree.ListAllPaths(root), tree.ListAllPaths(got))
	}
	if n := tree.Find(got, "/empty"); n == nil || !n.IsDir {
		t.Fatal("empty folder lost in round trip")
	}
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("package.json", "{}")
	write("src/App.tsx", "app")
	write("node_modules/react/index.js", "module.exports = {}")
	write(".git/HEAD", "ref: refs/heads/main")
	write("dist/bundle.js", "built")
	write("secret.env", "TOKEN=x")
	write(".gitignore", "*.env\n")

	root, err := ImportDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Find(root, "/src/App.tsx") == nil {
		t.Fatal("source file not imported")
	}
	for _, p := range []string{"/node_modules/react/index.js", "/.git/HEAD", "/dist/bundle.js", "/secret.env"} {
		if tree.Find(root, p) != nil {
			t.Fatalf("excluded path imported: %s", p)
		}
	}
}
