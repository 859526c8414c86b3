// Package search implements the project-wide text search and replace
// engine. Searches are stateless passes over the current tree snapshot;
// nothing is indexed or cached.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yourorg/webstudio-go/internal/tree"
)

// ErrInvalidPattern reports a query that does not compile as a regular
// expression.
var ErrInvalidPattern = errors.New("invalid search pattern")

// Options controls how a query is interpreted.
type Options struct {
	CaseSensitive bool   `json:"case_sensitive"`
	WholeWord     bool   `json:"whole_word"`
	Regex         bool   `json:"regex"`
	IncludeGlob   string `json:"include_glob,omitempty"` // doublestar pattern over paths, empty matches all
}

// Span is a zero-based match range within a line.
type Span struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Match is one matching line of a file.
type Match struct {
	LineNumber int    `json:"line_number"` // 1-based
	LineText   string `json:"line_text"`
	Ranges     []Span `json:"ranges"`
}

// Result is the per-file match set for one query.
type Result struct {
	Path    string  `json:"path"`
	Matches []Match `json:"matches"`
}

// compile builds the query pattern once per invocation. Non-regex
// queries are escaped; whole-word wraps the pattern in word boundaries.
func compile(query string, opts Options) (*regexp.Regexp, error) {
	pat := query
	if !opts.Regex {
		pat = regexp.QuoteMeta(pat)
	}
	if opts.WholeWord {
		pat = `\b(?:` + pat + `)\b`
	}
	if !opts.CaseSensitive {
		pat = `(?i)` + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// Search scans every file line by line and returns all non-overlapping
// matches in left-to-right order. An empty query yields no results.
// Multi-line matches are unsupported by design.
func Search(root []*tree.Node, query string, opts Options) ([]Result, error) {
	if query == "" {
		return nil, nil
	}
	re, err := compile(query, opts)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, f := range tree.Files(root) {
		if opts.IncludeGlob != "" {
			ok, globErr := doublestar.Match(opts.IncludeGlob, strings.TrimPrefix(f.Path, "/"))
			if globErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, globErr)
			}
			if !ok {
				continue
			}
		}
		var matches []Match
		for i, line := range strings.Split(f.Content, "\n") {
			locs := re.FindAllStringIndex(line, -1)
			if len(locs) == 0 {
				continue
			}
			ranges := make([]Span, len(locs))
			for j, loc := range locs {
				ranges[j] = Span{Start: loc[0], Length: loc[1] - loc[0]}
			}
			matches = append(matches, Match{LineNumber: i + 1, LineText: line, Ranges: ranges})
		}
		if len(matches) > 0 {
			results = append(results, Result{Path: f.Path, Matches: matches})
		}
	}
	return results, nil
}

// ReplaceOne substitutes the first occurrence of the pattern on one line
// of one file. The match is re-run against the stored line text rather
// than trusting the recorded offsets, so a line edited since the search
// does not produce a bogus splice.
func ReplaceOne(root []*tree.Node, path string, lineNumber int, query string, opts Options, replacement string) ([]*tree.Node, error) {
	if query == "" {
		return root, nil
	}
	re, err := compile(query, opts)
	if err != nil {
		return root, err
	}
	f := tree.Find(root, path)
	if f == nil || f.IsDir {
		return root, tree.ErrNotFound
	}
	lines := strings.Split(f.Content, "\n")
	if lineNumber < 1 || lineNumber > len(lines) {
		return root, nil
	}
	line := lines[lineNumber-1]
	loc := re.FindStringIndex(line)
	if loc == nil {
		return root, nil
	}
	lines[lineNumber-1] = line[:loc[0]] + replacement + line[loc[1]:]
	return tree.UpsertFile(root, path, strings.Join(lines, "\n")), nil
}

// ReplaceAll applies a global substitution to every file matched by the
// query, once per file, and returns the new tree plus the number of
// occurrences replaced. Destructive and unbounded; callers confirm first.
func ReplaceAll(root []*tree.Node, query string, opts Options, replacement string) ([]*tree.Node, int, error) {
	if query == "" {
		return root, 0, nil
	}
	results, err := Search(root, query, opts)
	if err != nil {
		return root, 0, err
	}
	re, err := compile(query, opts)
	if err != nil {
		return root, 0, err
	}

	out := root
	total := 0
	for _, r := range results {
		f := tree.Find(out, r.Path)
		if f == nil || f.IsDir {
			continue
		}
		total += len(re.FindAllStringIndex(f.Content, -1))
		out = tree.UpsertFile(out, r.Path, re.ReplaceAllString(f.Content, replacement))
	}
	return out, total, nil
}
