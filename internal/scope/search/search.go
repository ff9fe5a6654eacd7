// Package search provides the in-memory site search index: it loads the
// articles a site publishes once, then answers substring queries.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"github.com/rs/zerolog"
)

// MaxResults caps the number of matches a query returns
const MaxResults = 10

// Entry is one article's searchable record
type Entry = feed.Entry

// Match is a single search hit with its preview snippet
type Match struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Source retrieves the full list of entries
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// State is the lifecycle stage of an Index
type State int

// Index states. No transition leads back to StateUninitialized.
const (
	StateUninitialized State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// ErrLoadInProgress is returned by Load when another load has not finished
var ErrLoadInProgress = errors.New("index load already in progress")

// Index holds the loaded entries and their lifecycle state.
// Callers share one *Index between the code that opens search and the
// code that queries it.
type Index struct {
	source Source
	logger zerolog.Logger

	mu        sync.RWMutex
	state     State
	reloading bool
	entries   []Entry
	folded    []foldedEntry
	err       error
}

type foldedEntry struct {
	title   string
	content string
}

// NewIndex creates an unloaded index reading from src
func NewIndex(src Source, logger zerolog.Logger) *Index {
	return &Index{
		source: src,
		logger: logger,
	}
}

// EnsureLoaded loads the index unless a load has already started.
// It reports whether this call performed the load.
func (ix *Index) EnsureLoaded(ctx context.Context) bool {
	ix.mu.Lock()
	if ix.state != StateUninitialized {
		ix.mu.Unlock()
		return false
	}
	ix.state = StateLoading
	ix.mu.Unlock()

	_ = ix.fetch(ctx)
	return true
}

// Load fetches the entries from the source, replacing any held before.
// On failure the error is returned. An index that never loaded becomes
// empty and searches find nothing; a loaded index keeps serving its
// current entries, both while the reload runs and after it fails.
func (ix *Index) Load(ctx context.Context) error {
	ix.mu.Lock()
	if ix.state == StateLoading || ix.reloading {
		ix.mu.Unlock()
		return ErrLoadInProgress
	}
	if ix.state == StateLoaded {
		ix.reloading = true
	} else {
		ix.state = StateLoading
	}
	ix.mu.Unlock()

	return ix.fetch(ctx)
}

func (ix *Index) fetch(ctx context.Context) error {
	entries, err := ix.source.Fetch(ctx)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	reload := ix.reloading
	ix.reloading = false

	if err != nil {
		ix.err = err
		if reload {
			ix.logger.Warn().Err(err).Int("doc_count", len(ix.entries)).Msg("search index reload failed, keeping current entries")
			return err
		}
		ix.state = StateFailed
		ix.entries = nil
		ix.folded = nil
		ix.logger.Warn().Err(err).Msg("search index unavailable")
		return err
	}

	folded := make([]foldedEntry, len(entries))
	for i := range entries {
		folded[i] = foldedEntry{
			title:   fold(entries[i].Title),
			content: fold(entries[i].Content),
		}
	}

	ix.state = StateLoaded
	ix.entries = entries
	ix.folded = folded
	ix.err = nil
	ix.logger.Info().Int("doc_count", len(entries)).Msg("search index loaded")
	return nil
}

// State returns the current lifecycle state
func (ix *Index) State() State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

// Len returns the number of loaded entries
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Err returns the error from the last load, if it failed
func (ix *Index) Err() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.err
}

// Entries returns a copy of the loaded entries in index order
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Search returns up to MaxResults entries whose title or content contains
// term, ignoring case, in index order. An empty term, or an index that is
// not loaded, yields no matches.
func (ix *Index) Search(term string) []Match {
	term = fold(strings.TrimSpace(term))
	if term == "" {
		return []Match{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := make([]Match, 0)
	if ix.state != StateLoaded {
		return matches
	}

	for i := range ix.entries {
		f := ix.folded[i]
		if !strings.Contains(f.title, term) && !strings.Contains(f.content, term) {
			continue
		}
		e := ix.entries[i]
		matches = append(matches, Match{
			Title:   e.Title,
			URL:     e.URL,
			Snippet: snippet(e.Content, f.content, term),
		})
		if len(matches) == MaxResults {
			break
		}
	}

	return matches
}

// fold lowercases s rune by rune so that rune offsets in the result line
// up with rune offsets in s.
func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}
