package session

import (
	"sort"
	"strings"
	"time"
)

// Buffer is an open editor buffer: a path reference into the active tree
// plus an optional transient override of displayed content (used while
// AI output streams in). The tree, not the buffer, owns committed
// content.
type Buffer struct {
	Path     string    `json:"path"`
	Override *string   `json:"override,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
}

// reconcileBuffersLocked updates the open-buffer set after a committed
// mutation: buffers whose path vanished are closed, renamed prefixes are
// rewritten, and overrides on rewritten files are dropped.
func (s *Session) reconcileBuffersLocked(renamedFrom, renamedTo string, touched map[string]struct{}) {
	if renamedFrom != "" {
		for path, b := range s.buffers {
			if path == renamedFrom || strings.HasPrefix(path, renamedFrom+"/") {
				newPath := renamedTo + strings.TrimPrefix(path, renamedFrom)
				delete(s.buffers, path)
				b.Path = newPath
				s.buffers[newPath] = b
			}
		}
	}
	for path, b := range s.buffers {
		if findNode(s.project, path) == nil {
			delete(s.buffers, path)
			continue
		}
		if touched != nil {
			if _, ok := touched[path]; ok {
				b.Override = nil
			}
		}
	}
}

// OpenBuffer opens (or re-opens) a buffer for an existing file path.
func (s *Session) OpenBuffer(path string) (*Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, ErrNoProject
	}
	n := findNode(s.project, path)
	if n == nil || n.IsDir {
		return nil, ErrPathNotFound
	}
	if b, ok := s.buffers[n.Path]; ok {
		return b, nil
	}
	b := &Buffer{Path: n.Path, OpenedAt: time.Now()}
	s.buffers[n.Path] = b
	return b, nil
}

// CloseBuffer removes a buffer. Closing an unopened path is a no-op.
func (s *Session) CloseBuffer(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, path)
}

// SetBufferOverride sets transient display content for an open buffer
// without committing it to the tree.
func (s *Session) SetBufferOverride(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[path]
	if !ok {
		return ErrPathNotFound
	}
	b.Override = &content
	return nil
}

// Buffers returns the open buffers sorted by path.
func (s *Session) Buffers() []Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Buffer, 0, len(s.buffers))
	for _, b := range s.buffers {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
