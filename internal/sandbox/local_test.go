package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/webstudio-go/internal/logging"
)

func newTestRuntime(t *testing.T) *LocalRuntime {
	t.Helper()
	rt, err := NewLocalRuntime(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestSpawnCollectsOutputAndExitCode(t *testing.T) {
	rt := newTestRuntime(t)

	proc, err := rt.Spawn(context.Background(), "sh", "-c", "echo one; echo two; exit 3")
	if err != nil {
		t.Fatal(err)
	}
	var lines []string
	for line := range proc.Output {
		lines = append(lines, line)
	}
	code, err := proc.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestWaitReturnsAfterOutputAbandoned(t *testing.T) {
	rt := newTestRuntime(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc, err := rt.Spawn(ctx, "sh", "-c", "seq 1 5000")
	if err != nil {
		t.Fatal(err)
	}
	// Read one line, then walk away from the channel.
	<-proc.Output
	cancel()

	done := make(chan struct{})
	go func() {
		proc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the output consumer left")
	}
}
