package history

import (
	"testing"

	"github.com/yourorg/webstudio-go/internal/tree"
)

func state(content string) []*tree.Node {
	return tree.UpsertFile(nil, "/file.txt", content)
}

func contentAt(root []*tree.Node) string {
	n := tree.Find(root, "/file.txt")
	if n == nil {
		return ""
	}
	return n.Content
}

func TestUndoRedoRoundTrip(t *testing.T) {
	l := New(state("v0"), 0)
	l.Push(state("v1"))
	l.Push(state("v2"))

	snap, ok := l.Undo()
	if !ok || contentAt(snap) != "v1" {
		t.Fatalf("undo: got %q, ok=%v", contentAt(snap), ok)
	}
	snap, ok = l.Undo()
	if !ok || contentAt(snap) != "v0" {
		t.Fatalf("undo: got %q, ok=%v", contentAt(snap), ok)
	}
	if _, ok := l.Undo(); ok {
		t.Fatal("undo past the oldest snapshot succeeded")
	}

	snap, ok = l.Redo()
	if !ok || contentAt(snap) != "v1" {
		t.Fatalf("redo: got %q, ok=%v", contentAt(snap), ok)
	}
	snap, ok = l.Redo()
	if !ok || contentAt(snap) != "v2" {
		t.Fatalf("redo: got %q, ok=%v", contentAt(snap), ok)
	}
	if _, ok := l.Redo(); ok {
		t.Fatal("redo past the newest snapshot succeeded")
	}
}

func TestRedoAdvancesCursor(t *testing.T) {
	// Two redos after two undos must land on distinct snapshots.
	l := New(state("v0"), 0)
	l.Push(state("v1"))
	l.Push(state("v2"))
	l.Undo()
	l.Undo()

	first, _ := l.Redo()
	second, _ := l.Redo()
	if contentAt(first) == contentAt(second) {
		t.Fatalf("redo returned the same snapshot twice: %q", contentAt(first))
	}
	if contentAt(second) != "v2" {
		t.Fatalf("second redo: got %q, want v2", contentAt(second))
	}
}

func TestPushTruncatesRedoBranch(t *testing.T) {
	l := New(state("v0"), 0)
	l.Push(state("v1"))
	l.Push(state("v2"))
	l.Undo()
	l.Undo()
	l.Push(state("v1b"))

	if l.CanRedo() {
		t.Fatal("redo branch survived a push")
	}
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if contentAt(l.Current()) != "v1b" {
		t.Fatalf("current = %q, want v1b", contentAt(l.Current()))
	}
}

func TestLimitDropsOldest(t *testing.T) {
	l := New(state("v0"), 3)
	l.Push(state("v1"))
	l.Push(state("v2"))
	l.Push(state("v3"))

	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	l.Undo()
	l.Undo()
	if l.CanUndo() {
		t.Fatal("oldest snapshot should have been dropped")
	}
	if contentAt(l.Current()) != "v1" {
		t.Fatalf("oldest retained = %q, want v1", contentAt(l.Current()))
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	root := state("v0")
	l := New(root, 0)
	tree.Find(root, "/file.txt").Content = "mutated"
	if contentAt(l.Current()) != "v0" {
		t.Fatal("log shares memory with the caller's tree")
	}
}
