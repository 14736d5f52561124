package runner

import (
	"fmt"
	"sync"

	"github.com/sourcescan/sourcescan/internal/extractor"
)

// Registry maps run identifiers to pollable ExtractionResult snapshots. The
// presentation layer polls; it never subscribes. Stored snapshots are
// clones, so a caller can never observe a result mid-mutation, and a
// terminal snapshot is immutable.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*extractor.ExtractionResult
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*extractor.ExtractionResult)}
}

// Put stores a snapshot of result under runID, replacing any previous
// snapshot.
func (r *Registry) Put(runID string, result *extractor.ExtractionResult) {
	snapshot := result.Clone()
	snapshot.RunID = runID

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[runID] = snapshot
}

// Get returns a copy of the latest snapshot for runID.
func (r *Registry) Get(runID string) (*extractor.ExtractionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.runs[runID]
	if !ok {
		return nil, fmt.Errorf("unknown run %q", runID)
	}
	return result.Clone(), nil
}

// Delete removes a run's snapshot.
func (r *Registry) Delete(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, runID)
}
