package ink

import "sync"

// DefaultHistoryLimit is the number of actions the undo stack retains
// before the oldest entries are evicted.
const DefaultHistoryLimit = 50

// ActionType identifies what a history action did to the stroke store.
type ActionType int

// History action types.
const (
	// ActionAdd records a single committed stroke.
	ActionAdd ActionType = iota

	// ActionRemove records one or more erased strokes.
	ActionRemove

	// ActionClear records a full wipe of the drawing.
	ActionClear
)

// String returns the name of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionClear:
		return "clear"
	default:
		return "unknown"
	}
}

// valid reports whether t is a recognized action type.
func (t ActionType) valid() bool {
	return t == ActionAdd || t == ActionRemove || t == ActionClear
}

// Action is one reversible step: the kind of mutation and the strokes
// it touched. For ActionAdd that is the single committed stroke; for
// ActionRemove and ActionClear, the removed strokes in their original
// paint order, which is everything needed to restore them.
type Action struct {
	Type    ActionType
	Strokes []*Stroke
}

// HistoryState is a snapshot of history availability, shaped for
// driving UI affordances like enabled/disabled undo buttons.
type HistoryState struct {
	CanUndo   bool
	CanRedo   bool
	UndoDepth int
	RedoDepth int
}

// History is a bounded two-stack undo/redo model.
//
// Push records a new action, clearing any redo entries: once the user
// draws after undoing, the undone branch is gone. When the undo stack
// exceeds its limit the oldest action is evicted, so memory stays
// bounded on long sessions. History records actions; interpreting them
// against a Store is the caller's job (see Session).
//
// History is safe for concurrent use.
type History struct {
	mu       sync.Mutex
	undo     []*Action
	redo     []*Action
	limit    int
	onChange func(HistoryState)
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithLimit sets the maximum undo depth. Values below 1 keep the
// default.
func WithLimit(n int) HistoryOption {
	return func(h *History) {
		if n >= 1 {
			h.limit = n
		}
	}
}

// NewHistory creates an empty history with the default depth limit.
func NewHistory(opts ...HistoryOption) *History {
	h := &History{limit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetOnChange registers the observer called with the new state after
// every history mutation. Only one observer is supported; nil removes
// it. The callback runs outside the history lock.
func (h *History) SetOnChange(fn func(HistoryState)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Push records an action as the newest undoable step and clears the
// redo stack. A nil or unrecognized action is logged as a warning and
// ignored. If the undo stack is full, the oldest action is evicted.
func (h *History) Push(a *Action) {
	if a == nil || !a.Type.valid() {
		Logger().Warn("ignoring invalid history action")
		return
	}
	h.mu.Lock()
	h.undo = append(h.undo, a)
	if len(h.undo) > h.limit {
		copy(h.undo, h.undo[1:])
		h.undo[len(h.undo)-1] = nil
		h.undo = h.undo[:len(h.undo)-1]
	}
	h.redo = h.redo[:0]
	fn, state := h.stateLocked()
	h.mu.Unlock()

	notifyHistory(fn, state)
}

// Undo pops the newest action onto the redo stack and returns it for
// the caller to reverse. It returns nil when there is nothing to undo.
func (h *History) Undo() *Action {
	h.mu.Lock()
	if len(h.undo) == 0 {
		h.mu.Unlock()
		return nil
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, a)
	fn, state := h.stateLocked()
	h.mu.Unlock()

	notifyHistory(fn, state)
	return a
}

// Redo pops the newest undone action back onto the undo stack and
// returns it for the caller to replay. It returns nil when there is
// nothing to redo.
func (h *History) Redo() *Action {
	h.mu.Lock()
	if len(h.redo) == 0 {
		h.mu.Unlock()
		return nil
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, a)
	fn, state := h.stateLocked()
	h.mu.Unlock()

	notifyHistory(fn, state)
	return a
}

// CanUndo reports whether an undoable action exists.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether a redoable action exists.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// State returns the current availability snapshot.
func (h *History) State() HistoryState {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, state := h.stateLocked()
	return state
}

// Clear drops both stacks, e.g. after loading a new document whose
// strokes the recorded actions no longer describe.
func (h *History) Clear() {
	h.mu.Lock()
	h.undo = nil
	h.redo = nil
	fn, state := h.stateLocked()
	h.mu.Unlock()

	notifyHistory(fn, state)
}

// stateLocked builds the availability snapshot. Callers must hold mu.
func (h *History) stateLocked() (func(HistoryState), HistoryState) {
	state := HistoryState{
		CanUndo:   len(h.undo) > 0,
		CanRedo:   len(h.redo) > 0,
		UndoDepth: len(h.undo),
		RedoDepth: len(h.redo),
	}
	return h.onChange, state
}

func notifyHistory(fn func(HistoryState), state HistoryState) {
	if fn != nil {
		fn(state)
	}
}
