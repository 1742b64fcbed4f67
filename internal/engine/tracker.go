package engine

import "sort"

// ExecutionTracker is the set of position IDs we have bought and not yet
// sold. It is the single source of truth for "are we currently mirroring
// this position".
//
// It carries no locking on purpose: the engine's single-flight guard
// guarantees at most one cycle mutates it at a time, and nothing outside
// a cycle touches it.
type ExecutionTracker struct {
	ids map[string]bool
}

// NewExecutionTracker builds a tracker seeded with ids (typically the
// persisted set from a previous run).
func NewExecutionTracker(ids ...string) *ExecutionTracker {
	t := &ExecutionTracker{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if id != "" {
			t.ids[id] = true
		}
	}
	return t
}

// MarkExecuted records a successful buy for id.
func (t *ExecutionTracker) MarkExecuted(id string) {
	t.ids[id] = true
}

// ClearExecuted records a successful sell for id.
func (t *ExecutionTracker) ClearExecuted(id string) {
	delete(t.ids, id)
}

// IsExecuted reports whether id is currently mirrored.
func (t *ExecutionTracker) IsExecuted(id string) bool {
	return t.ids[id]
}

// Len returns the number of mirrored positions.
func (t *ExecutionTracker) Len() int {
	return len(t.ids)
}

// IDs returns the mirrored position IDs, sorted for stable persistence.
func (t *ExecutionTracker) IDs() []string {
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
