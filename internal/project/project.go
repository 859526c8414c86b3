// Package project defines the project aggregate and its starter templates.
package project

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/webstudio-go/internal/tree"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

// Project is the aggregate a session edits. Root is the sole mutable
// tree instance while the project is active.
type Project struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Root         []*tree.Node `json:"root"`
	LastModified time.Time    `json:"last_modified"`
}

// NewID returns a fresh project id.
func NewID() string {
	return uuid.NewString()
}

// DefaultProtectedPaths are the scaffold paths a project cannot function
// without; the dispatcher refuses to delete or rename them.
func DefaultProtectedPaths() []string {
	return []string{"/package.json", "/src", "/public", "/index.html", "/vite.config.ts"}
}

// Blank creates an empty project.
func Blank(name string) *Project {
	return &Project{
		ID:           NewID(),
		Name:         name,
		LastModified: time.Now(),
	}
}

// Duplicate deep-copies a project under a new id and name.
func (p *Project) Duplicate(name string) *Project {
	return &Project{
		ID:           NewID(),
		Name:         name,
		Description:  p.Description,
		Root:         tree.Clone(p.Root),
		LastModified: time.Now(),
	}
}

// Touch bumps the modification timestamp.
func (p *Project) Touch() {
	p.LastModified = time.Now()
}

// Template is a named starter file set shipped with the daemon.
type Template struct {
	Slug        string            `yaml:"-"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Files       map[string]string `yaml:"files"`
}

// Templates loads all embedded starter templates, sorted by slug.
func Templates() ([]Template, error) {
	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var out []Template
	for _, e := range entries {
		data, err := fs.ReadFile(templatesFS, "templates/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", e.Name(), err)
		}
		t.Slug = strings.TrimSuffix(e.Name(), ".yaml")
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// FindTemplate returns the embedded template with the given slug.
func FindTemplate(slug string) (Template, error) {
	all, err := Templates()
	if err != nil {
		return Template{}, err
	}
	for _, t := range all {
		if t.Slug == slug {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("unknown template %q", slug)
}

// FromTemplate instantiates a project from a starter template. Files are
// inserted in sorted path order so folder layout is deterministic.
func FromTemplate(t Template, name string) *Project {
	paths := make([]string, 0, len(t.Files))
	for p := range t.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var root []*tree.Node
	for _, p := range paths {
		root = tree.UpsertFile(root, p, t.Files[p])
	}
	return &Project{
		ID:           NewID(),
		Name:         name,
		Description:  t.Description,
		Root:         root,
		LastModified: time.Now(),
	}
}

// SnapshotText renders the whole tree as one prompt-friendly text block:
// a path header followed by file contents, for every file in pre-order.
func SnapshotText(root []*tree.Node) string {
	var b strings.Builder
	for _, f := range tree.Files(root) {
		b.WriteString("=== ")
		b.WriteString(f.Path)
		b.WriteString(" ===\n")
		b.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
