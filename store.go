package ink

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the committed strokes of a drawing.
//
// Strokes are append-ordered: paint order is insertion order. Stored
// strokes are treated as immutable; accessors hand out fresh slice
// copies so callers cannot corrupt store state, and loads deep-copy
// incoming data for the same reason.
//
// Every mutation that changes the collection emits a single change
// notification, including bulk removals and document loads. Store is
// safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	strokes  []*Stroke
	onChange func([]*Stroke)
	now      func() int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the timestamp source used to stamp CreatedAt on
// new strokes. Mainly useful in tests.
func WithClock(now func() int64) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty stroke store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now: func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOnChange registers the observer called after every collection
// change with a snapshot of the strokes in paint order. Only one
// observer is supported; passing nil removes it. The callback runs
// outside the store lock, so it may call back into the store.
func (s *Store) SetOnChange(fn func([]*Stroke)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Add commits a stroke to the drawing, assigning an ID if it has none
// and stamping CreatedAt if unset. It returns the stored stroke, or
// nil when st is nil (logged as a warning, not an error).
func (s *Store) Add(st *Stroke) *Stroke {
	if st == nil {
		Logger().Warn("ignoring nil stroke add")
		return nil
	}
	s.mu.Lock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.CreatedAt == 0 {
		st.CreatedAt = s.now()
	}
	s.strokes = append(s.strokes, st)
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
	return st
}

// Remove deletes the stroke with the given ID and returns it, or nil
// if no stroke matches. The collection keeps its relative order.
func (s *Store) Remove(id string) *Stroke {
	s.mu.Lock()
	var removed *Stroke
	for i, st := range s.strokes {
		if st.ID == id {
			removed = st
			s.strokes = append(s.strokes[:i], s.strokes[i+1:]...)
			break
		}
	}
	if removed == nil {
		s.mu.Unlock()
		return nil
	}
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
	return removed
}

// RemoveMany deletes every stroke whose ID is in ids and returns the
// removed strokes in their original paint order. A single change
// notification covers the whole batch; if nothing matches, no
// notification fires.
func (s *Store) RemoveMany(ids []string) []*Stroke {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	var removed []*Stroke
	kept := s.strokes[:0]
	for _, st := range s.strokes {
		if _, hit := want[st.ID]; hit {
			removed = append(removed, st)
		} else {
			kept = append(kept, st)
		}
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return nil
	}
	for i := len(kept); i < len(s.strokes); i++ {
		s.strokes[i] = nil
	}
	s.strokes = kept
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
	return removed
}

// Restore re-inserts previously removed strokes, keeping their IDs and
// timestamps. Strokes are appended in the order given with a single
// change notification. This is the inverse of Remove and Clear for
// undo purposes.
func (s *Store) Restore(strokes []*Stroke) {
	if len(strokes) == 0 {
		return
	}
	s.mu.Lock()
	for _, st := range strokes {
		if st == nil {
			continue
		}
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		s.strokes = append(s.strokes, st)
	}
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
}

// Clear removes all strokes and returns them in paint order. Clearing
// an already empty store returns nil and emits no notification.
func (s *Store) Clear() []*Stroke {
	s.mu.Lock()
	if len(s.strokes) == 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.strokes
	s.strokes = nil
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
	return removed
}

// Strokes returns the committed strokes in paint order. The slice is
// a fresh copy; the strokes themselves are shared and must be treated
// as read-only.
func (s *Store) Strokes() []*Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Stroke, len(s.strokes))
	copy(out, s.strokes)
	return out
}

// Len returns the number of committed strokes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.strokes)
}

// Document returns a deep-copied snapshot of the drawing in the
// current format version.
func (s *Store) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := &Document{Version: DocumentVersion, Strokes: make([]*Stroke, len(s.strokes))}
	for i, st := range s.strokes {
		doc.Strokes[i] = st.Clone()
	}
	return doc
}

// ToJSON encodes the drawing as a current-version document.
func (s *Store) ToJSON() ([]byte, error) {
	return EncodeDocument(s.Document())
}

// FromJSON replaces the drawing with the strokes decoded from an
// encoded document. It returns false, leaving the store untouched, on
// structural failure; invalid strokes inside a well-formed document
// are dropped, not fatal. On success the collection is replaced and a
// single change notification fires.
func (s *Store) FromJSON(data []byte) bool {
	doc, ok := DecodeDocument(data)
	if !ok {
		return false
	}
	s.replaceAll(doc.Strokes)
	return true
}

// LoadDocument replaces the drawing with the strokes of a pre-parsed
// document. Validation matches FromJSON: a nil document or an
// unsupported version is a failure, invalid strokes are dropped.
// Accepted strokes are deep-copied, so the caller keeps ownership of
// doc.
func (s *Store) LoadDocument(doc *Document) bool {
	if doc == nil {
		Logger().Warn("document load failed", "reason", "nil document")
		return false
	}
	if doc.Version > DocumentVersion {
		Logger().Warn("document load failed",
			"reason", "unsupported version", "version", doc.Version)
		return false
	}
	accepted := make([]*Stroke, 0, len(doc.Strokes))
	dropped := 0
	for _, st := range doc.Strokes {
		if !ValidStroke(st) {
			dropped++
			continue
		}
		accepted = append(accepted, st.Clone())
	}
	if dropped > 0 {
		Logger().Warn("dropped invalid strokes from document",
			"dropped", dropped, "kept", len(accepted))
	}
	s.replaceAll(accepted)
	return true
}

// replaceAll swaps in a new collection, assigning IDs to strokes that
// lack one, and notifies once.
func (s *Store) replaceAll(strokes []*Stroke) {
	s.mu.Lock()
	for _, st := range strokes {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
	}
	s.strokes = strokes
	fn, snap := s.snapshotLocked()
	s.mu.Unlock()

	notify(fn, snap)
}

// snapshotLocked captures the observer and a copy of the collection.
// Callers must hold mu.
func (s *Store) snapshotLocked() (func([]*Stroke), []*Stroke) {
	if s.onChange == nil {
		return nil, nil
	}
	snap := make([]*Stroke, len(s.strokes))
	copy(snap, s.strokes)
	return s.onChange, snap
}

func notify(fn func([]*Stroke), snap []*Stroke) {
	if fn != nil {
		fn(snap)
	}
}
