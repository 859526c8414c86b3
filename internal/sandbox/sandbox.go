// Package sandbox is the boundary to the execution environment that
// actually installs, builds and runs a project. The in-memory tree is
// authoritative; the sandbox filesystem is a cache of it, recoverable at
// any time by a full remount.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Runtime is the filesystem surface the mutation dispatcher mirrors
// into. Mount replaces the entire filesystem with the given nested
// directory record; the other calls mirror individual mutations.
type Runtime interface {
	Mount(record map[string]any) error
	WriteFile(path, content string) error
	Remove(path string, recursive bool) error
	Rename(oldPath, newPath string) error
	Spawn(ctx context.Context, command string, args ...string) (*Process, error)
	// Desynced reports that something other than the daemon touched the
	// mirror since the last mount.
	Desynced() bool
	Close() error
}

// writeRecord materializes a nested directory record under dir.
// Folders are {"directory": {...}}, files are {"file": {"contents": s}}.
func writeRecord(dir string, record map[string]any) error {
	for name, raw := range record {
		entry, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("malformed mount record entry %q", name)
		}
		target := filepath.Join(dir, name)
		if sub, ok := entry["directory"].(map[string]any); ok {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			if err := writeRecord(target, sub); err != nil {
				return err
			}
			continue
		}
		if f, ok := entry["file"].(map[string]any); ok {
			contents, _ := f["contents"].(string)
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(target, []byte(contents), 0o644); err != nil {
				return err
			}
			continue
		}
		return fmt.Errorf("mount record entry %q is neither directory nor file", name)
	}
	return nil
}

// hostPath maps a tree path like /src/App.tsx onto the mirror directory.
func hostPath(workDir, treePath string) string {
	return filepath.Join(workDir, filepath.FromSlash(strings.TrimPrefix(treePath, "/")))
}
