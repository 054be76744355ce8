// Package storage keeps finished pipeline runs addressable by ID so the
// API can serve them after the batch ends. It is a snapshot file, not a
// database: one JSON document, rewritten atomically on every save.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Camillamonteiros/big-data/internal/models"
)

type RunStore struct {
	mu       sync.RWMutex
	runs     map[string]*models.Result
	filename string
}

// NewRunStore loads the snapshot at filename when it exists. An empty
// filename keeps the store memory-only.
func NewRunStore(filename string) (*RunStore, error) {
	rs := &RunStore{
		runs:     make(map[string]*models.Result),
		filename: filename,
	}

	if filename != "" {
		if err := rs.load(); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return rs, nil
}

func (rs *RunStore) Save(result *models.Result) error {
	if result.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.runs[result.RunID] = result
	return rs.persist()
}

func (rs *RunStore) Get(runID string) (*models.Result, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	result, ok := rs.runs[runID]
	return result, ok
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	RunID      string `json:"run_id"`
	Query      string `json:"query"`
	Records    int    `json:"records"`
	FinishedAt string `json:"finished_at"`
}

func (rs *RunStore) List() []RunSummary {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	summaries := make([]RunSummary, 0, len(rs.runs))
	for _, r := range rs.runs {
		summaries = append(summaries, RunSummary{
			RunID:      r.RunID,
			Query:      r.Query,
			Records:    len(r.Records),
			FinishedAt: r.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].FinishedAt > summaries[j].FinishedAt
	})
	return summaries
}

// persist must be called with the write lock held.
func (rs *RunStore) persist() error {
	if rs.filename == "" {
		return nil
	}

	data, err := json.MarshalIndent(rs.runs, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temp file first so a crash never truncates the snapshot.
	tmp := rs.filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, rs.filename)
}

func (rs *RunStore) load() error {
	data, err := os.ReadFile(rs.filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &rs.runs)
}
