package ai

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/metrics"
	"github.com/yourorg/webstudio-go/internal/session"
	"github.com/yourorg/webstudio-go/internal/tree"
)

// Service runs the full AI round trip: snapshot, remote call, translate,
// apply as one undoable batch.
type Service struct {
	client *Client
	sess   *session.Session
	logger *logging.Logger
}

// NewService wires the AI service to a session.
func NewService(client *Client, sess *session.Session, logger *logging.Logger) *Service {
	return &Service{client: client, sess: sess, logger: logger}
}

// PromptResult is what a completed prompt round trip changed.
type PromptResult struct {
	Summary string            `json:"summary"`
	Applied bool              `json:"applied"`
	Updated []string          `json:"updated,omitempty"`
	Deleted []string          `json:"deleted,omitempty"`
	Diffs   map[string]string `json:"diffs,omitempty"` // path -> unified diff
}

// Prompt executes one prompt against the active project. While the
// round trip is outstanding the session rejects manual mutations; the
// lock is held across the network call on purpose so a slow response
// cannot interleave with manual edits and lose one of the two.
func (s *Service) Prompt(ctx context.Context, prompt string, attachments []Attachment) (*PromptResult, error) {
	if err := s.sess.BeginAiRequest(); err != nil {
		return nil, err
	}
	defer s.sess.EndAiRequest()

	snapshot, err := s.sess.SnapshotText()
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Generate(ctx, prompt, snapshot, attachments)
	if err != nil {
		metrics.RecordAiBatch("failed", 0)
		return nil, err
	}
	batch, err := Parse(raw)
	if err != nil {
		metrics.RecordAiBatch("failed", 0)
		return nil, err
	}

	// Diffs are computed against the pre-apply tree so the user can
	// review what the batch did.
	before, err := s.sess.Active()
	if err != nil {
		return nil, err
	}
	diffs, diffErr := batchDiffs(before.Root, batch)
	if diffErr != nil {
		s.logger.Warn("diff rendering failed", logging.Error(diffErr))
	}

	res, err := s.sess.ApplyBatch(batch)
	if err != nil {
		metrics.RecordAiBatch("failed", 0)
		return nil, err
	}
	out := &PromptResult{
		Summary: res.Summary,
		Applied: res.Applied,
		Updated: res.Updated,
		Deleted: res.Deleted,
	}
	if res.Applied {
		out.Diffs = diffs
	}
	return out, nil
}

// batchDiffs renders a unified diff per updated file and a deletion
// marker per removed file.
func batchDiffs(root []*tree.Node, b session.Batch) (map[string]string, error) {
	if b.Empty() {
		return nil, nil
	}
	out := make(map[string]string, len(b.Updates)+len(b.Deletes))
	for _, u := range b.Updates {
		path := tree.CleanPath(u.Path)
		var old string
		if n := tree.Find(root, path); n != nil && !n.IsDir {
			old = n.Content
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(old),
			B:        difflib.SplitLines(u.Content),
			FromFile: path,
			ToFile:   path,
			Context:  3,
		})
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", path, err)
		}
		out[path] = diff
	}
	for _, p := range b.Deletes {
		path := tree.CleanPath(p)
		if _, ok := out[path]; !ok {
			out[path] = fmt.Sprintf("--- %s\n+++ /dev/null\n", path)
		}
	}
	return out, nil
}
