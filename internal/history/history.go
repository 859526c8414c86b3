// Package history keeps a linear undo/redo log of whole-tree snapshots.
package history

import "github.com/yourorg/webstudio-go/internal/tree"

// Log is a sequence of snapshots plus a cursor. Undo and redo move the
// cursor without mutating snapshots; a push after an undo truncates the
// branch beyond the cursor.
type Log struct {
	snapshots [][]*tree.Node
	cursor    int
	limit     int
}

// New creates a log seeded with the initial tree. limit caps the number
// of retained snapshots; zero or negative means unbounded.
func New(initial []*tree.Node, limit int) *Log {
	return &Log{
		snapshots: [][]*tree.Node{tree.Clone(initial)},
		cursor:    0,
		limit:     limit,
	}
}

// Push records a new snapshot, discarding any redo branch.
func (l *Log) Push(root []*tree.Node) {
	l.snapshots = append(l.snapshots[:l.cursor+1], tree.Clone(root))
	l.cursor = len(l.snapshots) - 1
	if l.limit > 0 && len(l.snapshots) > l.limit {
		drop := len(l.snapshots) - l.limit
		l.snapshots = append([][]*tree.Node(nil), l.snapshots[drop:]...)
		l.cursor -= drop
	}
}

// Undo steps the cursor back and returns that snapshot. At the oldest
// snapshot it is a no-op and returns (nil, false).
func (l *Log) Undo() ([]*tree.Node, bool) {
	if l.cursor <= 0 {
		return nil, false
	}
	l.cursor--
	return tree.Clone(l.snapshots[l.cursor]), true
}

// Redo steps the cursor forward and returns that snapshot. At the newest
// snapshot it is a no-op and returns (nil, false).
func (l *Log) Redo() ([]*tree.Node, bool) {
	if l.cursor >= len(l.snapshots)-1 {
		return nil, false
	}
	l.cursor++
	return tree.Clone(l.snapshots[l.cursor]), true
}

// CanUndo reports whether an undo step is available.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether a redo step is available.
func (l *Log) CanRedo() bool { return l.cursor < len(l.snapshots)-1 }

// Len returns the number of snapshots held.
func (l *Log) Len() int { return len(l.snapshots) }

// Cursor returns the current cursor position.
func (l *Log) Cursor() int { return l.cursor }

// Current returns a copy of the snapshot at the cursor.
func (l *Log) Current() []*tree.Node {
	return tree.Clone(l.snapshots[l.cursor])
}
