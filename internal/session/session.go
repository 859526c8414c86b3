// Package session owns the active project and is the only component
// allowed to mutate its tree. Every mutation follows the same ordered
// protocol: validate, apply to the tree, push to history, mirror into
// the sandbox, reconcile open buffers, persist. The in-memory tree is
// the source of truth; the sandbox filesystem and buffers are caches.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/webstudio-go/internal/config"
	"github.com/yourorg/webstudio-go/internal/history"
	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/metrics"
	"github.com/yourorg/webstudio-go/internal/project"
	"github.com/yourorg/webstudio-go/internal/sandbox"
	"github.com/yourorg/webstudio-go/internal/search"
	"github.com/yourorg/webstudio-go/internal/storage"
	"github.com/yourorg/webstudio-go/internal/tree"
)

var (
	ErrNoProject     = errors.New("no active project")
	ErrProtectedPath = errors.New("path is protected and cannot be deleted or renamed")
	ErrBatchInFlight = errors.New("an AI request is in flight; manual edits are disabled")
	ErrPathNotFound  = errors.New("path not found in active project")
	ErrNotAFile      = errors.New("path is a folder; content updates apply to files")
)

// Session is the mutation dispatcher plus the session store: the active
// project, its undo log, the open buffers, and handles to the sandbox
// runtime and durable storage.
type Session struct {
	logger *logging.Logger
	cfg    *config.Config
	store  *storage.Store
	rt     sandbox.Runtime
	oplog  *OpLogger

	mu      sync.Mutex
	project *project.Project
	hist    *history.Log
	buffers map[string]*Buffer
	aiBusy  bool
}

// New wires a session. No project is active until Open or
// CreateFromTemplate.
func New(cfg *config.Config, store *storage.Store, rt sandbox.Runtime, logger *logging.Logger) *Session {
	return &Session{
		logger:  logger,
		cfg:     cfg,
		store:   store,
		rt:      rt,
		oplog:   NewOpLogger(500),
		buffers: make(map[string]*Buffer),
	}
}

// Runtime exposes the sandbox for process spawning.
func (s *Session) Runtime() sandbox.Runtime { return s.rt }

// RecentLogs returns the newest n dispatcher log entries.
func (s *Session) RecentLogs(n int) []OpLog { return s.oplog.Recent(n) }

// LogsSince returns dispatcher log entries after the given id.
func (s *Session) LogsSince(afterID int64) []OpLog { return s.oplog.Since(afterID) }

func findNode(p *project.Project, path string) *tree.Node {
	if p == nil {
		return nil
	}
	return tree.Find(p.Root, path)
}

// ----- project lifecycle -----

// RestoreActive reopens the project that was active when the daemon last
// ran, if any.
func (s *Session) RestoreActive() error {
	id, err := s.store.ActiveProjectID()
	if err != nil || id == "" {
		return err
	}
	if err := s.Open(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// CreateFromTemplate instantiates a starter template, persists it and
// makes it active.
func (s *Session) CreateFromTemplate(slug, name string) (*project.Project, error) {
	t, err := project.FindTemplate(slug)
	if err != nil {
		return nil, err
	}
	p := project.FromTemplate(t, name)
	if err := s.adopt(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ImportProject wraps an imported tree (zip upload or directory import)
// in a new active project.
func (s *Session) ImportProject(name string, root []*tree.Node) (*project.Project, error) {
	p := project.Blank(name)
	p.Root = root
	if err := s.adopt(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DuplicateProject copies a stored project under a new name and makes
// the copy active.
func (s *Session) DuplicateProject(id, name string) (*project.Project, error) {
	src, err := s.store.LoadProject(id)
	if err != nil {
		return nil, err
	}
	p := src.Duplicate(name)
	if err := s.adopt(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) adopt(p *project.Project) error {
	if err := s.store.SaveProject(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateLocked(p)
}

// Open loads a stored project and makes it active.
func (s *Session) Open(id string) error {
	p, err := s.store.LoadProject(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateLocked(p)
}

func (s *Session) activateLocked(p *project.Project) error {
	s.project = p
	s.hist = history.New(p.Root, s.cfg.HistoryLimit)
	s.buffers = make(map[string]*Buffer)
	if err := s.store.SetActiveProjectID(p.ID); err != nil {
		s.logger.Warn("persist active project id failed", logging.Error(err))
	}
	if err := s.rt.Mount(tree.MountRecord(p.Root)); err != nil {
		metrics.RecordMirrorFailure()
		s.oplog.Warn(OpProject, p.Name, "", "sandbox mount failed: "+err.Error())
		s.logger.Warn("sandbox mount failed", logging.Error(err))
	}
	metrics.SetHistoryDepth(s.hist.Len())
	metrics.SetTreeNodes(tree.Count(p.Root))
	s.oplog.Infof(OpProject, p.Name, "", "opened project %s", p.ID)
	return nil
}

// ListProjects lists all stored projects.
func (s *Session) ListProjects() ([]storage.ProjectInfo, error) {
	return s.store.ListProjects()
}

// DeleteProject removes a stored project. Deleting the active project
// also clears the session.
func (s *Session) DeleteProject(id string) error {
	s.mu.Lock()
	if s.project != nil && s.project.ID == id {
		s.project = nil
		s.hist = nil
		s.buffers = make(map[string]*Buffer)
	}
	s.mu.Unlock()
	return s.store.DeleteProject(id)
}

// Active returns the active project's id, name and tree copy.
func (s *Session) Active() (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, ErrNoProject
	}
	cp := *s.project
	cp.Root = tree.Clone(s.project.Root)
	return &cp, nil
}

// SnapshotText renders the active tree as prompt text for the AI
// service.
func (s *Session) SnapshotText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return "", ErrNoProject
	}
	return project.SnapshotText(s.project.Root), nil
}

// ----- mutation protocol -----

// isProtectedLocked consults the config on every check so a settings
// reload changes the protected set without reopening the project.
func (s *Session) isProtectedLocked(path string) bool {
	path = tree.CleanPath(path)
	for _, p := range s.cfg.ProtectedPaths {
		if tree.CleanPath(p) == path {
			return true
		}
	}
	return false
}

// persistLocked writes the active project to storage. Failures are
// logged and surfaced in the op log, never retried; the in-memory tree
// stays authoritative.
func (s *Session) persistLocked() {
	if err := s.store.SaveProject(s.project); err != nil {
		s.oplog.Warn(OpProject, s.project.Name, "", "persist failed: "+err.Error())
		s.logger.Warn("persist project failed", logging.Error(err))
	}
}

// commitLocked runs steps 3..5 of the mutation protocol for an already
// applied tree operation: history push, sandbox mirror, buffer
// reconciliation, persistence. Mirror failures are non-fatal.
func (s *Session) commitLocked(op OpType, newRoot []*tree.Node, renamedFrom, renamedTo string, touched map[string]struct{}, mirror func() error) {
	oldName := s.project.Name
	s.project.Root = newRoot
	s.project.Touch()
	s.hist.Push(newRoot)
	if mirror != nil {
		if err := mirror(); err != nil {
			metrics.RecordMirrorFailure()
			s.oplog.Warn(op, oldName, "", "sandbox mirror failed: "+err.Error())
			s.logger.Warn("sandbox mirror failed", logging.String("op", string(op)), logging.Error(err))
		}
	}
	s.reconcileBuffersLocked(renamedFrom, renamedTo, touched)
	s.persistLocked()
	metrics.SetHistoryDepth(s.hist.Len())
	metrics.SetTreeNodes(tree.Count(newRoot))
}

func (s *Session) guardLocked() error {
	if s.project == nil {
		return ErrNoProject
	}
	if s.aiBusy {
		return ErrBatchInFlight
	}
	return nil
}

// CreateNode adds an empty file or folder under parentPath.
func (s *Session) CreateNode(parentPath, name string, isDir bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	newRoot, err := tree.AddNode(s.project.Root, parentPath, name, isDir)
	if err != nil {
		metrics.RecordMutation(string(OpCreate), false)
		s.oplog.Error(OpCreate, s.project.Name, tree.ChildPath(parentPath, name), err.Error())
		return err
	}
	path := tree.ChildPath(parentPath, name)
	var mirror func() error
	if !isDir {
		mirror = func() error { return s.rt.WriteFile(path, "") }
	}
	s.commitLocked(OpCreate, newRoot, "", "", nil, mirror)
	metrics.RecordMutation(string(OpCreate), true)
	s.oplog.Info(OpCreate, s.project.Name, path, "created")
	return nil
}

// DeleteNode removes the node at path and its descendants.
func (s *Session) DeleteNode(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	path = tree.CleanPath(path)
	if s.isProtectedLocked(path) {
		metrics.RecordMutation(string(OpDelete), false)
		s.oplog.Error(OpDelete, s.project.Name, path, "protected path")
		return fmt.Errorf("%w: %s", ErrProtectedPath, path)
	}
	node := findNode(s.project, path)
	if node == nil {
		metrics.RecordMutation(string(OpDelete), false)
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	recursive := node.IsDir
	newRoot := tree.Delete(s.project.Root, path)
	s.commitLocked(OpDelete, newRoot, "", "", nil, func() error {
		return s.rt.Remove(path, recursive)
	})
	metrics.RecordMutation(string(OpDelete), true)
	s.oplog.Info(OpDelete, s.project.Name, path, "deleted")
	return nil
}

// RenameNode gives the node at path a new name.
func (s *Session) RenameNode(path, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	path = tree.CleanPath(path)
	if s.isProtectedLocked(path) {
		metrics.RecordMutation(string(OpRename), false)
		s.oplog.Error(OpRename, s.project.Name, path, "protected path")
		return fmt.Errorf("%w: %s", ErrProtectedPath, path)
	}
	newRoot, err := tree.Rename(s.project.Root, path, newName)
	if err != nil {
		metrics.RecordMutation(string(OpRename), false)
		s.oplog.Error(OpRename, s.project.Name, path, err.Error())
		return err
	}
	newPath := tree.ChildPath(tree.ParentPath(path), newName)
	if newPath == path {
		return nil
	}
	s.commitLocked(OpRename, newRoot, path, newPath, nil, func() error {
		return s.rt.Rename(path, newPath)
	})
	metrics.RecordMutation(string(OpRename), true)
	s.oplog.Infof(OpRename, s.project.Name, path, "renamed to %s", newName)
	return nil
}

// MoveNode relocates the node at sourcePath under targetParentPath.
func (s *Session) MoveNode(sourcePath, targetParentPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	sourcePath = tree.CleanPath(sourcePath)
	if s.isProtectedLocked(sourcePath) {
		metrics.RecordMutation(string(OpMove), false)
		s.oplog.Error(OpMove, s.project.Name, sourcePath, "protected path")
		return fmt.Errorf("%w: %s", ErrProtectedPath, sourcePath)
	}
	before := tree.Hash(s.project.Root)
	newRoot, err := tree.Move(s.project.Root, sourcePath, targetParentPath)
	if err != nil {
		metrics.RecordMutation(string(OpMove), false)
		s.oplog.Error(OpMove, s.project.Name, sourcePath, err.Error())
		return err
	}
	if tree.Hash(newRoot) == before {
		return nil
	}
	newPath := tree.ChildPath(targetParentPath, lastSegment(sourcePath))
	s.commitLocked(OpMove, newRoot, sourcePath, newPath, nil, func() error {
		return s.rt.Rename(sourcePath, newPath)
	})
	metrics.RecordMutation(string(OpMove), true)
	s.oplog.Infof(OpMove, s.project.Name, sourcePath, "moved to %s", newPath)
	return nil
}

func lastSegment(path string) string {
	path = tree.CleanPath(path)
	return path[strings.LastIndex(path, "/")+1:]
}

// UpdateFile writes new content at path, creating the file if missing.
// Content edits to protected paths are allowed; protection covers only
// deletion and renaming. A path that resolves to an existing folder is
// rejected: letting upsert convert it would silently drop the subtree.
func (s *Session) UpdateFile(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	path = tree.CleanPath(path)
	if n := findNode(s.project, path); n != nil && n.IsDir {
		metrics.RecordMutation(string(OpUpdate), false)
		s.oplog.Error(OpUpdate, s.project.Name, path, "target is a folder")
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	before := tree.Hash(s.project.Root)
	newRoot := tree.UpsertFile(s.project.Root, path, content)
	if tree.Hash(newRoot) == before {
		return nil
	}
	s.commitLocked(OpUpdate, newRoot, "", "", map[string]struct{}{path: {}}, func() error {
		return s.rt.WriteFile(path, content)
	})
	metrics.RecordMutation(string(OpUpdate), true)
	s.oplog.Info(OpUpdate, s.project.Name, path, "updated")
	return nil
}

// ----- history -----

// HistoryInfo describes the undo log for clients.
type HistoryInfo struct {
	Snapshots int  `json:"snapshots"`
	Cursor    int  `json:"cursor"`
	CanUndo   bool `json:"can_undo"`
	CanRedo   bool `json:"can_redo"`
}

// History returns the current undo-log shape.
func (s *Session) History() (HistoryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return HistoryInfo{}, ErrNoProject
	}
	return HistoryInfo{
		Snapshots: s.hist.Len(),
		Cursor:    s.hist.Cursor(),
		CanUndo:   s.hist.CanUndo(),
		CanRedo:   s.hist.CanRedo(),
	}, nil
}

// Undo restores the previous snapshot. Returns false when already at
// the oldest snapshot.
func (s *Session) Undo() (bool, error) {
	return s.step(OpUndo, func() ([]*tree.Node, bool) { return s.hist.Undo() })
}

// Redo restores the next snapshot. Returns false when already at the
// newest snapshot.
func (s *Session) Redo() (bool, error) {
	return s.step(OpRedo, func() ([]*tree.Node, bool) { return s.hist.Redo() })
}

func (s *Session) step(op OpType, move func() ([]*tree.Node, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return false, err
	}
	snap, ok := move()
	if !ok {
		return false, nil
	}
	old := s.project.Root
	s.project.Root = snap
	s.project.Touch()
	touched := s.mirrorDiffLocked(op, old, snap)
	s.reconcileBuffersLocked("", "", touched)
	s.persistLocked()
	metrics.SetTreeNodes(tree.Count(snap))
	s.oplog.Info(op, s.project.Name, "", "restored snapshot")
	return true, nil
}

// mirrorDiffLocked mirrors the difference between two tree states into
// the sandbox file by file, so installed dependencies in the mirror
// survive. Returns the set of changed file paths.
func (s *Session) mirrorDiffLocked(op OpType, oldRoot, newRoot []*tree.Node) map[string]struct{} {
	oldFiles := map[string]string{}
	for _, f := range tree.Files(oldRoot) {
		oldFiles[f.Path] = f.Content
	}
	touched := map[string]struct{}{}
	mirrorErr := func(err error) {
		if err == nil {
			return
		}
		metrics.RecordMirrorFailure()
		s.oplog.Warn(op, s.project.Name, "", "sandbox mirror failed: "+err.Error())
		s.logger.Warn("sandbox mirror failed", logging.String("op", string(op)), logging.Error(err))
	}
	seen := map[string]struct{}{}
	for _, f := range tree.Files(newRoot) {
		seen[f.Path] = struct{}{}
		if prev, ok := oldFiles[f.Path]; !ok || prev != f.Content {
			touched[f.Path] = struct{}{}
			mirrorErr(s.rt.WriteFile(f.Path, f.Content))
		}
	}
	for p := range oldFiles {
		if _, ok := seen[p]; !ok {
			touched[p] = struct{}{}
			mirrorErr(s.rt.Remove(p, false))
		}
	}
	// Folders that vanished entirely.
	newPaths := map[string]struct{}{}
	for _, p := range tree.ListAllPaths(newRoot) {
		newPaths[p] = struct{}{}
	}
	for _, p := range tree.ListAllPaths(oldRoot) {
		if _, ok := newPaths[p]; !ok {
			if n := tree.Find(oldRoot, p); n != nil && n.IsDir {
				mirrorErr(s.rt.Remove(p, true))
			}
		}
	}
	return touched
}

// ----- search / replace -----

// Search runs a stateless query over the active tree.
func (s *Session) Search(query string, opts search.Options) ([]search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, ErrNoProject
	}
	start := time.Now()
	results, err := search.Search(s.project.Root, query, opts)
	metrics.ObserveSearch(time.Since(start))
	if err != nil {
		s.oplog.Error(OpSearch, s.project.Name, "", err.Error())
		return nil, err
	}
	return results, nil
}

// ReplaceOne substitutes a single previously found match.
func (s *Session) ReplaceOne(path string, lineNumber int, query string, opts search.Options, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	before := tree.Hash(s.project.Root)
	newRoot, err := search.ReplaceOne(s.project.Root, path, lineNumber, query, opts, replacement)
	if err != nil {
		metrics.RecordMutation(string(OpReplace), false)
		s.oplog.Error(OpReplace, s.project.Name, path, err.Error())
		return err
	}
	if tree.Hash(newRoot) == before {
		return nil
	}
	content := tree.Find(newRoot, path).Content
	s.commitLocked(OpReplace, newRoot, "", "", map[string]struct{}{tree.CleanPath(path): {}}, func() error {
		return s.rt.WriteFile(path, content)
	})
	metrics.RecordMutation(string(OpReplace), true)
	s.oplog.Info(OpReplace, s.project.Name, path, "replaced one match")
	return nil
}

// ReplaceAll rewrites every match of the query across the project. One
// history entry regardless of how many files change. Callers must have
// confirmed with the user first.
func (s *Session) ReplaceAll(query string, opts search.Options, replacement string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return 0, err
	}
	old := s.project.Root
	newRoot, count, err := search.ReplaceAll(old, query, opts, replacement)
	if err != nil {
		metrics.RecordMutation(string(OpReplace), false)
		s.oplog.Error(OpReplace, s.project.Name, "", err.Error())
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	s.project.Root = newRoot
	s.project.Touch()
	s.hist.Push(newRoot)
	touched := s.mirrorDiffLocked(OpReplace, old, newRoot)
	s.reconcileBuffersLocked("", "", touched)
	s.persistLocked()
	metrics.SetHistoryDepth(s.hist.Len())
	metrics.SetTreeNodes(tree.Count(newRoot))
	metrics.RecordMutation(string(OpReplace), true)
	s.oplog.Infof(OpReplace, s.project.Name, "", "replaced %d matches", count)
	return count, nil
}

// ----- AI batch edits -----

// FileUpdate is one file rewrite inside an AI batch.
type FileUpdate struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Batch is a parsed AI batch edit: ordered deletions, then updates.
type Batch struct {
	Summary string       `json:"summary"`
	Updates []FileUpdate `json:"updates"`
	Deletes []string     `json:"deletes"`
}

// Empty reports a batch with no file instructions.
func (b Batch) Empty() bool {
	return len(b.Updates) == 0 && len(b.Deletes) == 0
}

// BatchResult describes what an applied batch changed.
type BatchResult struct {
	Summary string   `json:"summary"`
	Applied bool     `json:"applied"`
	Updated []string `json:"updated,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// BeginAiRequest marks an AI round trip in flight, blocking manual
// mutations until EndAiRequest. Fails if one is already outstanding.
func (s *Session) BeginAiRequest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNoProject
	}
	if s.aiBusy {
		return ErrBatchInFlight
	}
	s.aiBusy = true
	return nil
}

// EndAiRequest clears the in-flight flag.
func (s *Session) EndAiRequest() {
	s.mu.Lock()
	s.aiBusy = false
	s.mu.Unlock()
}

// ApplyBatch applies a parsed AI batch as one atomic unit: deletions
// before updates (an update recreating a deleted path wins), protected
// paths exempt from validation, exactly one history entry. An empty or
// no-op batch produces no history entry and only delivers the summary.
func (s *Session) ApplyBatch(b Batch) (*BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, ErrNoProject
	}
	res := &BatchResult{Summary: b.Summary}
	if b.Empty() {
		s.oplog.Info(OpBatch, s.project.Name, "", "batch carried no file changes")
		metrics.RecordAiBatch("empty", 0)
		return res, nil
	}

	old := s.project.Root
	newRoot := old
	for _, p := range b.Deletes {
		newRoot = tree.Delete(newRoot, p)
	}
	for _, u := range b.Updates {
		newRoot = tree.UpsertFile(newRoot, u.Path, u.Content)
	}
	if tree.Hash(newRoot) == tree.Hash(old) {
		s.oplog.Info(OpBatch, s.project.Name, "", "batch was a structural no-op")
		metrics.RecordAiBatch("empty", 0)
		return res, nil
	}

	s.project.Root = newRoot
	s.project.Touch()
	s.hist.Push(newRoot)
	touched := s.mirrorDiffLocked(OpBatch, old, newRoot)
	s.reconcileBuffersLocked("", "", touched)
	s.persistLocked()
	metrics.SetHistoryDepth(s.hist.Len())
	metrics.SetTreeNodes(tree.Count(newRoot))

	for _, u := range b.Updates {
		res.Updated = append(res.Updated, tree.CleanPath(u.Path))
	}
	for _, p := range b.Deletes {
		if tree.Find(newRoot, p) == nil {
			res.Deleted = append(res.Deleted, tree.CleanPath(p))
		}
	}
	res.Applied = true
	metrics.RecordAiBatch("applied", len(res.Updated)+len(res.Deleted))
	s.oplog.Infof(OpBatch, s.project.Name, "", "applied batch: %d updated, %d deleted", len(res.Updated), len(res.Deleted))
	return res, nil
}

// ----- sandbox -----

// ResyncRuntime remounts the whole tree into the sandbox, the recovery
// path when the mirror has drifted.
func (s *Session) ResyncRuntime() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNoProject
	}
	if err := s.rt.Mount(tree.MountRecord(s.project.Root)); err != nil {
		metrics.RecordMirrorFailure()
		s.oplog.Error(OpResync, s.project.Name, "", err.Error())
		return fmt.Errorf("remount: %w", err)
	}
	s.oplog.Info(OpResync, s.project.Name, "", "remounted tree")
	return nil
}

// RunProcess spawns a command inside the sandbox mirror.
func (s *Session) RunProcess(ctx context.Context, command string, args ...string) (*sandbox.Process, error) {
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return nil, ErrNoProject
	}
	s.mu.Unlock()
	return s.rt.Spawn(ctx, command, args...)
}
