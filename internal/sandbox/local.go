package sandbox

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yourorg/webstudio-go/internal/logging"
)

// selfOpWindow is how long after a daemon-initiated write a watcher
// event on the mirror is attributed to the daemon itself.
const selfOpWindow = time.Second

// LocalRuntime mirrors the project tree into a work directory on the
// host and runs project processes there. An fsnotify watcher flags
// external modification of the mirror so the session can remount.
type LocalRuntime struct {
	workDir string
	logger  *logging.Logger

	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	lastSelfOp time.Time
	desynced   bool
	closed     bool
}

// NewLocalRuntime creates a runtime rooted at workDir. The directory is
// created if missing; its previous contents survive until the first
// Mount.
func NewLocalRuntime(workDir string, logger *logging.Logger) (*LocalRuntime, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sandbox dir: %w", err)
	}
	return &LocalRuntime{workDir: workDir, logger: logger}, nil
}

// WorkDir returns the mirror root on the host.
func (r *LocalRuntime) WorkDir() string { return r.workDir }

// Mount wipes the mirror and materializes the record, then (re)arms the
// watcher and clears the desync flag.
func (r *LocalRuntime) Mount(record map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopWatcherLocked()
	entries, err := os.ReadDir(r.workDir)
	if err != nil {
		return fmt.Errorf("read sandbox dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(r.workDir, e.Name())); err != nil {
			return fmt.Errorf("clear sandbox dir: %w", err)
		}
	}
	if err := writeRecord(r.workDir, record); err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	r.desynced = false
	r.lastSelfOp = time.Now()
	if err := r.startWatcherLocked(); err != nil {
		r.logger.Warn("sandbox watcher unavailable", logging.Error(err))
	}
	return nil
}

func (r *LocalRuntime) WriteFile(path, content string) error {
	r.markSelfOp()
	target := hostPath(r.workDir, path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	r.watchDir(filepath.Dir(target))
	return nil
}

func (r *LocalRuntime) Remove(path string, recursive bool) error {
	r.markSelfOp()
	target := hostPath(r.workDir, path)
	if recursive {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		return nil
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (r *LocalRuntime) Rename(oldPath, newPath string) error {
	r.markSelfOp()
	from := hostPath(r.workDir, oldPath)
	to := hostPath(r.workDir, newPath)
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	return nil
}

func (r *LocalRuntime) Desynced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.desynced
}

func (r *LocalRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopWatcherLocked()
	return nil
}

func (r *LocalRuntime) markSelfOp() {
	r.mu.Lock()
	r.lastSelfOp = time.Now()
	r.mu.Unlock()
}

func (r *LocalRuntime) watchDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		_ = r.watcher.Add(dir)
	}
}

func (r *LocalRuntime) startWatcherLocked() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(r.workDir); err != nil {
		w.Close()
		return err
	}
	_ = filepath.WalkDir(r.workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != r.workDir {
			_ = w.Add(path)
		}
		return nil
	})
	r.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				r.mu.Lock()
				self := time.Since(r.lastSelfOp) < selfOpWindow
				if !self && !r.desynced {
					r.desynced = true
					r.logger.Warn("sandbox mirror modified externally",
						logging.String("path", ev.Name),
						logging.String("op", ev.Op.String()),
					)
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
						_ = w.Add(ev.Name)
					}
				}
				r.mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Warn("sandbox watcher error", logging.Error(err))
			}
		}
	}()
	return nil
}

func (r *LocalRuntime) stopWatcherLocked() {
	if r.watcher != nil {
		_ = r.watcher.Close()
		r.watcher = nil
	}
}

// Process is a handle to a command running inside the sandbox. Output
// carries combined stdout/stderr lines and closes when the process ends.
type Process struct {
	Output <-chan string

	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Spawn starts a command in the mirror directory. The returned process
// is cancelled through ctx; per-operation cancellation beyond that is
// not offered, matching the teardown-only model of the runtime.
func (r *LocalRuntime) Spawn(ctx context.Context, command string, args ...string) (*Process, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("sandbox is closed")
	}
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = r.workDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", command, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", command, err)
	}

	out := make(chan string, 64)
	p := &Process{Output: out, cmd: cmd, done: make(chan struct{})}

	go func() {
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				// Consumer is gone. Keep scanning so the pipe
				// drains and Wait can still return.
			}
		}
		close(out)
		p.err = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Wait blocks until the process exits and returns its exit code.
func (p *Process) Wait() (int, error) {
	<-p.done
	if p.err != nil {
		if exit, ok := p.err.(*exec.ExitError); ok {
			return exit.ExitCode(), nil
		}
		return -1, p.err
	}
	return 0, nil
}
