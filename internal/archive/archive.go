// Package archive converts between project trees and external formats:
// zip archives for upload/download and local directories for import.
package archive

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/yourorg/webstudio-go/internal/tree"
)

// alwaysSkipDirs are never imported regardless of ignore rules.
var alwaysSkipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"dist":         {},
	".cache":       {},
}

func hasDotDot(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func skipEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") || name == "__MACOSX" {
		return true
	}
	return filepath.Base(name) == ".DS_Store"
}

// ImportZip reconstructs a tree from a zip stream, preserving folder
// hierarchy. macOS resource-fork entries and .DS_Store files are
// skipped, as are entries escaping the archive root.
func ImportZip(r io.ReaderAt, size int64) ([]*tree.Node, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var root []*tree.Node
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "/")
		if name == "" || skipEntry(name) {
			continue
		}
		if hasDotDot(name) {
			continue
		}
		clean := tree.CleanPath(name)
		if f.FileInfo().IsDir() {
			// Some archivers emit nested dir entries without their
			// parents; create the whole chain.
			root = tree.UpsertDir(root, clean)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
		}
		root = tree.UpsertFile(root, clean, string(data))
	}
	return root, nil
}

// ExportZip writes every file of the tree into a zip at its structural
// path. Folders are carried implicitly by their files; empty folders get
// an explicit directory entry.
func ExportZip(root []*tree.Node, w io.Writer) error {
	zw := zip.NewWriter(w)
	var walk func(nodes []*tree.Node) error
	walk = func(nodes []*tree.Node) error {
		for _, n := range nodes {
			name := strings.TrimPrefix(n.Path, "/")
			if n.IsDir {
				if len(n.Children) == 0 {
					if _, err := zw.Create(name + "/"); err != nil {
						return fmt.Errorf("zip dir %s: %w", n.Path, err)
					}
				}
				if err := walk(n.Children); err != nil {
					return err
				}
				continue
			}
			fw, err := zw.Create(name)
			if err != nil {
				return fmt.Errorf("zip file %s: %w", n.Path, err)
			}
			if _, err := fw.Write([]byte(n.Content)); err != nil {
				return fmt.Errorf("zip file %s: %w", n.Path, err)
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// loadIgnoreMatcher reads {dir}/.gitignore into a matcher, nil when the
// file is absent or empty.
func loadIgnoreMatcher(dir string) gitignore.Matcher {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}

// ImportDir builds a tree from a directory on the host, honoring the
// directory's .gitignore plus a fixed skip set. Files are inserted in
// sorted path order.
func ImportDir(dir string) ([]*tree.Node, error) {
	matcher := loadIgnoreMatcher(dir)

	files := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if _, fixed := alwaysSkipDirs[d.Name()]; fixed {
				return fs.SkipDir
			}
			if matcher != nil && matcher.Match(strings.Split(rel, "/"), true) {
				return fs.SkipDir
			}
			return nil
		}
		if skipEntry(rel) {
			return nil
		}
		if matcher != nil && matcher.Match(strings.Split(rel, "/"), false) {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", rel, readErr)
		}
		files["/"+rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var root []*tree.Node
	for _, p := range paths {
		root = tree.UpsertFile(root, p, files[p])
	}
	return root, nil
}
