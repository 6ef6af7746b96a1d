package livetrack

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sonic "github.com/bytedance/sonic"
)

// HistoryEntry pairs one merged snapshot with the changes inferred when it
// was captured.
type HistoryEntry struct {
	Data    Snapshot       `json:"data"`
	Changes []ChangeRecord `json:"changes"`
}

// HistoryDocument is the durable output of one tracking session.
type HistoryDocument struct {
	SourceURL            string         `json:"sourceUrl"`
	TotalSnapshots       int            `json:"totalSnapshots"`
	FirstScrapeTimestamp time.Time      `json:"firstScrapeTimestamp"`
	LastScrapeTimestamp  time.Time      `json:"lastScrapeTimestamp"`
	Snapshots            []HistoryEntry `json:"snapshots"`
}

// Session owns the previous snapshot for one live-tracking run. It is not
// safe for concurrent use; the polling loop is the only caller.
type Session struct {
	sourceURL string
	previous  *Snapshot
	entries   []HistoryEntry
}

func NewSession(sourceURL string) *Session {
	return &Session{sourceURL: sourceURL}
}

// Observe folds the next capture into the session and returns the inferred
// changes. Snapshots must arrive in capture order; the differ only ever
// compares against the immediate predecessor.
func (s *Session) Observe(next Snapshot) []ChangeRecord {
	merged, changes := Diff(s.previous, next)
	s.previous = &merged
	s.entries = append(s.entries, HistoryEntry{Data: merged, Changes: changes})
	return changes
}

func (s *Session) Previous() *Snapshot {
	return s.previous
}

func (s *Session) History() HistoryDocument {
	doc := HistoryDocument{
		SourceURL:      s.sourceURL,
		TotalSnapshots: len(s.entries),
		Snapshots:      s.entries,
	}
	if len(s.entries) > 0 {
		doc.FirstScrapeTimestamp = s.entries[0].Data.CapturedAt
		doc.LastScrapeTimestamp = s.entries[len(s.entries)-1].Data.CapturedAt
	}
	return doc
}

// WriteHistory persists the accumulated history as one timestamped JSON file
// and returns its path. An empty session writes nothing.
func (s *Session) WriteHistory(outputDir string) (string, error) {
	if len(s.entries) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	doc := s.History()
	raw, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot history: %w", err)
	}

	name := fmt.Sprintf("livetrack-%s.json", doc.LastScrapeTimestamp.UTC().Format("20060102T150405Z"))
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot history: %w", err)
	}

	return path, nil
}
