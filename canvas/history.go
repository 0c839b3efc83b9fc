package canvas

// DefaultHistoryLimit bounds how many snapshots a history keeps before the
// oldest entries are evicted.
const DefaultHistoryLimit = 50

// History is a bounded linear undo/redo stack of snapshots. The cursor
// always points at a valid entry; pushing after an undo discards the
// redoable tail, classic linear-editor semantics.
type History struct {
	snapshots []*Snapshot
	cursor    int
	limit     int
}

// NewHistory creates a history seeded with the base snapshot, so that a
// full run of undos always lands back on the state the slide started in.
func NewHistory(limit int, base *Snapshot) *History {
	if limit < 2 {
		limit = DefaultHistoryLimit
	}
	return &History{
		snapshots: []*Snapshot{base},
		cursor:    0,
		limit:     limit,
	}
}

// Reset drops all entries and reseeds the history with base.
func (h *History) Reset(base *Snapshot) {
	h.snapshots = []*Snapshot{base}
	h.cursor = 0
}

// Push records a new snapshot after a completed mutating gesture. Any
// entries beyond the cursor are discarded, and the oldest entry is evicted
// once the limit is exceeded.
func (h *History) Push(snap *Snapshot) {
	h.snapshots = append(h.snapshots[:h.cursor+1], snap)
	h.cursor = len(h.snapshots) - 1
	if len(h.snapshots) > h.limit {
		overflow := len(h.snapshots) - h.limit
		h.snapshots = append(h.snapshots[:0], h.snapshots[overflow:]...)
		h.cursor -= overflow
	}
}

// Undo steps the cursor back and returns the snapshot to restore. It
// returns (nil, false) when there is nothing to undo.
func (h *History) Undo() (*Snapshot, bool) {
	if h.cursor == 0 {
		return nil, false
	}
	h.cursor--
	return h.snapshots[h.cursor], true
}

// Redo steps the cursor forward and returns the snapshot to restore. It
// returns (nil, false) when there is nothing to redo.
func (h *History) Redo() (*Snapshot, bool) {
	if h.cursor >= len(h.snapshots)-1 {
		return nil, false
	}
	h.cursor++
	return h.snapshots[h.cursor], true
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }
func (h *History) Len() int      { return len(h.snapshots) }
