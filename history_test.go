package ink

import (
	"fmt"
	"testing"
)

func addAction(id string) *Action {
	return &Action{Type: ActionAdd, Strokes: []*Stroke{testStroke(id)}}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory()

	if h.CanUndo() {
		t.Error("CanUndo() = true on empty history")
	}
	if h.CanRedo() {
		t.Error("CanRedo() = true on empty history")
	}
	if h.Undo() != nil {
		t.Error("Undo() on empty history should return nil")
	}
	if h.Redo() != nil {
		t.Error("Redo() on empty history should return nil")
	}

	state := h.State()
	if state.UndoDepth != 0 || state.RedoDepth != 0 {
		t.Errorf("State() = %+v, want zero depths", state)
	}
}

func TestHistory_PushUndoRedo(t *testing.T) {
	h := NewHistory()

	a := addAction("a")
	h.Push(a)

	if !h.CanUndo() {
		t.Fatal("CanUndo() = false after Push")
	}

	undone := h.Undo()
	if undone != a {
		t.Fatalf("Undo() = %v, want the pushed action", undone)
	}
	if h.CanUndo() {
		t.Error("CanUndo() = true after undoing the only action")
	}
	if !h.CanRedo() {
		t.Fatal("CanRedo() = false after Undo")
	}

	redone := h.Redo()
	if redone != a {
		t.Fatalf("Redo() = %v, want the undone action", redone)
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Error("after Redo the action should be undoable again and redo empty")
	}
}

func TestHistory_UndoRedoSymmetry(t *testing.T) {
	// Push N actions, undo all N, redo all N: the Nth redo returns the
	// first action pushed and the stacks end where they started.
	const n = 5
	h := NewHistory()

	pushed := make([]*Action, n)
	for i := range pushed {
		pushed[i] = addAction(fmt.Sprintf("s%d", i))
		h.Push(pushed[i])
	}

	for i := n - 1; i >= 0; i-- {
		if got := h.Undo(); got != pushed[i] {
			t.Fatalf("Undo #%d = %v, want %v", n-i, got, pushed[i])
		}
	}
	if h.CanUndo() {
		t.Fatal("CanUndo() = true after undoing everything")
	}

	for i := 0; i < n; i++ {
		got := h.Redo()
		if got != pushed[i] {
			t.Fatalf("Redo #%d = %v, want %v", i+1, got, pushed[i])
		}
	}

	state := h.State()
	if state.UndoDepth != n || state.RedoDepth != 0 {
		t.Errorf("State() = %+v, want undo depth %d and empty redo", state, n)
	}
}

func TestHistory_PushClearsRedo(t *testing.T) {
	h := NewHistory()

	h.Push(addAction("a"))
	h.Push(addAction("b"))
	h.Undo()

	if !h.CanRedo() {
		t.Fatal("CanRedo() = false after Undo")
	}

	h.Push(addAction("c"))

	if h.CanRedo() {
		t.Error("CanRedo() = true after Push, want redo stack cleared")
	}
	if got := h.State().UndoDepth; got != 2 {
		t.Errorf("UndoDepth = %d, want 2", got)
	}
}

func TestHistory_LimitEvictsOldest(t *testing.T) {
	h := NewHistory()

	// One past the limit: the oldest action falls off, the rest shift.
	actions := make([]*Action, DefaultHistoryLimit+1)
	for i := range actions {
		actions[i] = addAction(fmt.Sprintf("s%d", i))
		h.Push(actions[i])
	}

	if got := h.State().UndoDepth; got != DefaultHistoryLimit {
		t.Fatalf("UndoDepth = %d, want %d", got, DefaultHistoryLimit)
	}

	// Undo everything: the last action out is the second ever pushed,
	// because the first was evicted.
	var last *Action
	for h.CanUndo() {
		last = h.Undo()
	}
	if last != actions[1] {
		t.Errorf("deepest surviving action = %v, want the second pushed", last)
	}
}

func TestHistory_CustomLimit(t *testing.T) {
	h := NewHistory(WithLimit(2))

	h.Push(addAction("a"))
	h.Push(addAction("b"))
	h.Push(addAction("c"))

	if got := h.State().UndoDepth; got != 2 {
		t.Fatalf("UndoDepth = %d, want 2", got)
	}

	// Non-positive limits keep the default.
	h2 := NewHistory(WithLimit(0))
	for i := 0; i < DefaultHistoryLimit+10; i++ {
		h2.Push(addAction(fmt.Sprintf("s%d", i)))
	}
	if got := h2.State().UndoDepth; got != DefaultHistoryLimit {
		t.Errorf("UndoDepth = %d with WithLimit(0), want default %d", got, DefaultHistoryLimit)
	}
}

func TestHistory_PushInvalid(t *testing.T) {
	h := NewHistory()

	h.Push(nil)
	h.Push(&Action{Type: ActionType(99)})

	if h.CanUndo() {
		t.Error("invalid pushes should not create undoable actions")
	}
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.Push(addAction("a"))
	h.Push(addAction("b"))
	h.Undo()

	h.Clear()

	if h.CanUndo() || h.CanRedo() {
		t.Error("Clear should empty both stacks")
	}
}

func TestHistory_OnChange(t *testing.T) {
	h := NewHistory()

	var states []HistoryState
	h.SetOnChange(func(s HistoryState) { states = append(states, s) })

	h.Push(addAction("a"))
	h.Undo()
	h.Redo()

	if len(states) != 3 {
		t.Fatalf("observer fired %d times, want 3", len(states))
	}
	if !states[0].CanUndo || states[0].CanRedo {
		t.Errorf("after Push: %+v, want undoable only", states[0])
	}
	if states[1].CanUndo || !states[1].CanRedo {
		t.Errorf("after Undo: %+v, want redoable only", states[1])
	}
	if !states[2].CanUndo || states[2].CanRedo {
		t.Errorf("after Redo: %+v, want undoable only", states[2])
	}

	// The callback may call back into the history without deadlocking.
	h.SetOnChange(func(HistoryState) { _ = h.CanUndo() })
	h.Push(addAction("b"))
}

func TestActionType_String(t *testing.T) {
	tests := []struct {
		name   string
		typ    ActionType
		expect string
	}{
		{"add", ActionAdd, "add"},
		{"remove", ActionRemove, "remove"},
		{"clear", ActionClear, "clear"},
		{"unknown", ActionType(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.expect {
				t.Errorf("ActionType(%d).String() = %q, want %q", tt.typ, got, tt.expect)
			}
		})
	}
}
