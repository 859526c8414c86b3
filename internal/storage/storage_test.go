package storage

import (
	"errors"
	"testing"

	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/project"
	"github.com/yourorg/webstudio-go/internal/tree"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func demoProject(name string) *project.Project {
	p := project.Blank(name)
	p.Root = tree.UpsertFile(nil, "/src/App.tsx", "body of "+name)
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	p := demoProject("alpha")
	if err := s.SaveProject(p); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadProject(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "alpha" {
		t.Fatalf("name = %q", got.Name)
	}
	if tree.Hash(got.Root) != tree.Hash(p.Root) {
		t.Fatal("tree changed across save/load")
	}
}

func TestLoadMissing(t *testing.T) {
	s := openStore(t)
	if _, err := s.LoadProject("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCorruptRecordDroppedNotFatal(t *testing.T) {
	s := openStore(t)
	good := demoProject("good")
	if err := s.SaveProject(good); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO projects (id, data, updated_at) VALUES (?, ?, ?)`,
		"broken", "{not json", 0,
	); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadProject("broken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt load: got %v, want ErrNotFound", err)
	}
	infos, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].ID != good.ID {
		t.Fatalf("listing after corruption: %+v", infos)
	}
	// The corrupt row is gone for good.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
}

func TestActiveProjectPointer(t *testing.T) {
	s := openStore(t)
	p := demoProject("alpha")
	if err := s.SaveProject(p); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveProjectID(p.ID); err != nil {
		t.Fatal(err)
	}
	id, err := s.ActiveProjectID()
	if err != nil || id != p.ID {
		t.Fatalf("active = %q err=%v", id, err)
	}

	if err := s.DeleteProject(p.ID); err != nil {
		t.Fatal(err)
	}
	id, err = s.ActiveProjectID()
	if err != nil || id != "" {
		t.Fatalf("active after delete = %q err=%v", id, err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)
	older := demoProject("older")
	newer := demoProject("newer")
	newer.LastModified = older.LastModified.Add(1)
	if err := s.SaveProject(older); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProject(newer); err != nil {
		t.Fatal(err)
	}
	infos, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Name != "newer" {
		t.Fatalf("order wrong: %+v", infos)
	}
}
