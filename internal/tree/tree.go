// Package tree implements the path-addressed project file tree.
//
// A project root is a forest of nodes. Every mutating operation is
// value-semantic: it deep-copies the forest, mutates the copy and returns
// it, so callers can keep earlier roots as history snapshots. Rejected
// operations return the input forest untouched.
package tree

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	"lukechampine.com/blake3"
)

var (
	ErrNotFound      = errors.New("path not found")
	ErrDuplicateName = errors.New("a sibling with that name already exists")
	ErrCyclicMove    = errors.New("cannot move a folder into its own subtree")
	ErrInvalidName   = errors.New("name must be non-empty and contain no slashes")
)

// Node is a file or folder entry. Files carry Content, folders carry
// Children. Path is absolute, slash-delimited and unique within a forest.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	IsDir    bool    `json:"is_dir"`
	Content  string  `json:"content,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// CleanPath canonicalizes a slash path: leading slash, no trailing slash,
// no empty segments.
func CleanPath(p string) string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, seg := range parts {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

// ParentPath returns the path of the parent folder, or "/" for top-level
// nodes.
func ParentPath(p string) string {
	p = CleanPath(p)
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// ChildPath joins a parent path and a name.
func ChildPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return CleanPath(parent) + "/" + name
}

func validName(name string) bool {
	return name != "" && !strings.Contains(name, "/")
}

// Clone deep-copies a forest.
func Clone(root []*Node) []*Node {
	if root == nil {
		return nil
	}
	out := make([]*Node, len(root))
	for i, n := range root {
		out[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n *Node) *Node {
	c := &Node{Name: n.Name, Path: n.Path, IsDir: n.IsDir, Content: n.Content}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = cloneNode(ch)
		}
	}
	return c
}

// Find returns the node at path, or nil.
func Find(root []*Node, path string) *Node {
	path = CleanPath(path)
	if path == "/" {
		return nil
	}
	nodes := root
	segs := strings.Split(path[1:], "/")
	for i, seg := range segs {
		var match *Node
		for _, n := range nodes {
			if n.Name == seg {
				match = n
				break
			}
		}
		if match == nil {
			return nil
		}
		if i == len(segs)-1 {
			return match
		}
		nodes = match.Children
	}
	return nil
}

// UpsertFile writes content at path, creating any missing intermediate
// folders and the file itself if absent.
func UpsertFile(root []*Node, path, content string) []*Node {
	path = CleanPath(path)
	if path == "/" {
		return root
	}
	out := Clone(root)
	segs := strings.Split(path[1:], "/")

	nodes := &out
	prefix := ""
	for i, seg := range segs {
		last := i == len(segs)-1
		var match *Node
		for _, n := range *nodes {
			if n.Name == seg {
				match = n
				break
			}
		}
		if match == nil {
			match = &Node{Name: seg, Path: prefix + "/" + seg, IsDir: !last}
			*nodes = append(*nodes, match)
		}
		if !last && !match.IsDir {
			// A file stood where a folder is needed; it becomes one.
			match.IsDir = true
			match.Content = ""
		}
		if last {
			match.IsDir = false
			match.Content = content
			match.Children = nil
			return out
		}
		prefix = prefix + "/" + seg
		nodes = &match.Children
	}
	return out
}

// UpsertDir ensures a folder exists at path, creating any missing
// intermediate folders. A file standing on any segment becomes a folder.
func UpsertDir(root []*Node, path string) []*Node {
	path = CleanPath(path)
	if path == "/" {
		return root
	}
	out := Clone(root)
	segs := strings.Split(path[1:], "/")

	nodes := &out
	prefix := ""
	for _, seg := range segs {
		var match *Node
		for _, n := range *nodes {
			if n.Name == seg {
				match = n
				break
			}
		}
		if match == nil {
			match = &Node{Name: seg, Path: prefix + "/" + seg, IsDir: true}
			*nodes = append(*nodes, match)
		}
		if !match.IsDir {
			match.IsDir = true
			match.Content = ""
		}
		prefix = prefix + "/" + seg
		nodes = &match.Children
	}
	return out
}

// Delete removes the node at path along with its descendants. Missing
// paths are a structural no-op: the input forest is returned unchanged.
func Delete(root []*Node, path string) []*Node {
	path = CleanPath(path)
	if Find(root, path) == nil {
		return root
	}
	out := Clone(root)
	parent := ParentPath(path)
	name := path[strings.LastIndex(path, "/")+1:]
	if parent == "/" {
		out = removeChild(out, name)
		return out
	}
	p := Find(out, parent)
	p.Children = removeChild(p.Children, name)
	return out
}

func removeChild(nodes []*Node, name string) []*Node {
	for i, n := range nodes {
		if n.Name == name {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// Move relocates the node at sourcePath under targetParentPath, keeping
// its name and subtree. Moving a node onto itself or a folder into its
// own subtree is rejected. Moving to the current parent is a structural
// no-op.
func Move(root []*Node, sourcePath, targetParentPath string) ([]*Node, error) {
	sourcePath = CleanPath(sourcePath)
	targetParentPath = CleanPath(targetParentPath)

	node := Find(root, sourcePath)
	if node == nil {
		return root, ErrNotFound
	}
	if targetParentPath == ParentPath(sourcePath) {
		return root, nil
	}
	if targetParentPath == sourcePath || strings.HasPrefix(targetParentPath, sourcePath+"/") {
		return root, ErrCyclicMove
	}
	var targetChildren []*Node
	if targetParentPath == "/" {
		targetChildren = root
	} else {
		tp := Find(root, targetParentPath)
		if tp == nil || !tp.IsDir {
			return root, ErrNotFound
		}
		targetChildren = tp.Children
	}
	for _, sib := range targetChildren {
		if sib.Name == node.Name {
			return root, ErrDuplicateName
		}
	}

	out := Delete(root, sourcePath)
	moved := cloneNode(node)
	rewritePaths(moved, ChildPath(targetParentPath, moved.Name))
	if targetParentPath == "/" {
		out = append(out, moved)
		return out, nil
	}
	tp := Find(out, targetParentPath)
	tp.Children = append(tp.Children, moved)
	return out, nil
}

// Rename gives the node at path a new name, rewriting every descendant
// path prefix.
func Rename(root []*Node, path, newName string) ([]*Node, error) {
	path = CleanPath(path)
	if !validName(newName) {
		return root, ErrInvalidName
	}
	node := Find(root, path)
	if node == nil {
		return root, ErrNotFound
	}
	parent := ParentPath(path)
	siblings := root
	if parent != "/" {
		siblings = Find(root, parent).Children
	}
	for _, sib := range siblings {
		if sib.Name == newName && sib.Path != path {
			return root, ErrDuplicateName
		}
	}

	out := Clone(root)
	n := Find(out, path)
	n.Name = newName
	rewritePaths(n, ChildPath(parent, newName))
	return out, nil
}

// AddNode creates an empty file or folder under parentPath.
func AddNode(root []*Node, parentPath, name string, isDir bool) ([]*Node, error) {
	parentPath = CleanPath(parentPath)
	if !validName(name) {
		return root, ErrInvalidName
	}
	siblings := root
	if parentPath != "/" {
		p := Find(root, parentPath)
		if p == nil || !p.IsDir {
			return root, ErrNotFound
		}
		siblings = p.Children
	}
	for _, sib := range siblings {
		if sib.Name == name {
			return root, ErrDuplicateName
		}
	}

	out := Clone(root)
	node := &Node{Name: name, Path: ChildPath(parentPath, name), IsDir: isDir}
	if parentPath == "/" {
		out = append(out, node)
		return out, nil
	}
	p := Find(out, parentPath)
	p.Children = append(p.Children, node)
	return out, nil
}

func rewritePaths(n *Node, newPath string) {
	n.Path = newPath
	for _, ch := range n.Children {
		rewritePaths(ch, newPath+"/"+ch.Name)
	}
}

// ListAllPaths returns every path in pre-order, folders and files
// interleaved in structural order.
func ListAllPaths(root []*Node) []string {
	var out []string
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			out = append(out, n.Path)
			walk(n.Children)
		}
	}
	walk(root)
	return out
}

// Count returns the number of nodes in the forest.
func Count(root []*Node) int {
	total := 0
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			total++
			walk(n.Children)
		}
	}
	walk(root)
	return total
}

// Files returns every file node in pre-order.
func Files(root []*Node) []*Node {
	var out []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.IsDir {
				walk(n.Children)
				continue
			}
			out = append(out, n)
		}
	}
	walk(root)
	return out
}

// Hash digests the forest's structure and content. Sibling order is not
// significant, so siblings are hashed in sorted-path order.
func Hash(root []*Node) string {
	h := blake3.New(32, nil)
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		sorted := make([]*Node, len(nodes))
		copy(sorted, nodes)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
		for _, n := range sorted {
			h.Write([]byte(n.Path))
			if n.IsDir {
				h.Write([]byte{1})
				walk(n.Children)
				continue
			}
			h.Write([]byte{0})
			var sz [8]byte
			binary.LittleEndian.PutUint64(sz[:], uint64(len(n.Content)))
			h.Write(sz[:])
			h.Write([]byte(n.Content))
		}
	}
	walk(root)
	return hex.EncodeToString(h.Sum(nil))
}

// MountRecord converts the forest into the sandbox runtime's nested
// directory-record shape: folders become {"directory": {...}}, files
// become {"file": {"contents": ...}}.
func MountRecord(root []*Node) map[string]any {
	out := make(map[string]any, len(root))
	for _, n := range root {
		if n.IsDir {
			out[n.Name] = map[string]any{"directory": MountRecord(n.Children)}
			continue
		}
		out[n.Name] = map[string]any{"file": map[string]any{"contents": n.Content}}
	}
	return out
}
