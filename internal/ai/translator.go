// Package ai talks to the remote code-generation service and translates
// its responses into atomic batch edits on the project tree.
package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yourorg/webstudio-go/internal/session"
)

// ErrTranslation reports a response that could not be parsed into a
// batch edit. Nothing is mutated when this is returned.
var ErrTranslation = errors.New("unparseable AI response")

var (
	summaryRe = regexp.MustCompile(`(?s)<summary>(.*?)</summary>`)
	fileRe    = regexp.MustCompile(`(?s)<file\s+path="([^"]+)">(.*?)</file>`)
	deleteRe  = regexp.MustCompile(`<deleteFile\s+path="([^"]+)"\s*/>`)
)

// trimTagBody removes the newline padding a model places around tag
// content without touching meaningful whitespace.
func trimTagBody(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	return s
}

// Parse translates the raw service response into a batch edit. The
// expected shape is a <summary> block followed by any number of
// <file path="...">...</file> and <deleteFile path="..."/> tags. A
// response with neither a summary nor any tag is a translation error;
// a summary alone is a valid informational-only batch.
func Parse(raw string) (session.Batch, error) {
	var b session.Batch

	if m := summaryRe.FindStringSubmatch(raw); m != nil {
		b.Summary = strings.TrimSpace(m[1])
	}
	for _, m := range fileRe.FindAllStringSubmatch(raw, -1) {
		b.Updates = append(b.Updates, session.FileUpdate{
			Path:    m[1],
			Content: trimTagBody(m[2]),
		})
	}
	for _, m := range deleteRe.FindAllStringSubmatch(raw, -1) {
		b.Deletes = append(b.Deletes, m[1])
	}

	if b.Summary == "" && b.Empty() {
		return session.Batch{}, fmt.Errorf("%w: no summary and no file instructions", ErrTranslation)
	}
	return b, nil
}
