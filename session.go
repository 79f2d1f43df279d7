package ink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Session-level errors.
var (
	// ErrNoBlobStore is returned by Save and Load when no persistence
	// collaborator was configured.
	ErrNoBlobStore = errors.New("ink: no blob store configured")

	// ErrInvalidDocument is returned by Load when the persisted bytes
	// do not decode as a document.
	ErrInvalidDocument = errors.New("ink: invalid document")
)

// ToolMode selects how pointer gestures are interpreted.
type ToolMode int

// Session tool modes.
const (
	ModePen ToolMode = iota
	ModeHighlighter
	ModeEraser
)

// String returns the name of the tool mode.
func (m ToolMode) String() string {
	switch m {
	case ModePen:
		return "pen"
	case ModeHighlighter:
		return "highlighter"
	case ModeEraser:
		return "eraser"
	default:
		return "unknown"
	}
}

func (m ToolMode) valid() bool {
	return m == ModePen || m == ModeHighlighter || m == ModeEraser
}

// BlobStore is the persistence boundary: somewhere to put the encoded
// document, keyed by canvas ID. The engine does not care whether that
// is a database row, a file, or an object store. docstore.DB satisfies
// this interface.
type BlobStore interface {
	SaveDocument(ctx context.Context, canvasID string, data []byte) error
	LoadDocument(ctx context.Context, canvasID string) ([]byte, error)
}

// Session wires one drawing surface together: pipeline events drive
// the canvas, completed gestures commit to the store and push history
// actions, and store changes re-render the settled layer. One Session
// per canvas; independent canvases get independent sessions with no
// shared state.
//
// Tool semantics: pen and highlighter gestures author ink strokes; an
// eraser gesture accumulates hit strokes along the drag and removes
// them in one atomic action at the end, so a single undo restores the
// whole drag.
type Session struct {
	store    *Store
	history  *History
	canvas   *Canvas
	pipeline *Pipeline

	mu          sync.Mutex
	mode        ToolMode
	penStyle    StrokeStyle
	highlighter StrokeStyle
	eraserR     float64

	erasing bool
	hitIDs  map[string]struct{}
	hits    []*Stroke

	blobs    BlobStore
	canvasID string
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	historyLimit int
	scheduler    Scheduler
	eraserRadius float64
	blobs        BlobStore
	canvasID     string
	pipelineOpts []PipelineOption
}

// WithHistoryLimit sets the undo depth (default DefaultHistoryLimit).
func WithHistoryLimit(n int) SessionOption {
	return func(c *sessionConfig) { c.historyLimit = n }
}

// WithRenderScheduler overrides the live-repaint scheduler.
func WithRenderScheduler(s Scheduler) SessionOption {
	return func(c *sessionConfig) { c.scheduler = s }
}

// WithEraserRadius sets the eraser hit tolerance in unit coordinates
// (default DefaultHitTolerance). Non-positive values keep the default.
func WithEraserRadius(r float64) SessionOption {
	return func(c *sessionConfig) { c.eraserRadius = r }
}

// WithBlobStore wires the persistence collaborator and the canvas ID
// used as the document key.
func WithBlobStore(bs BlobStore, canvasID string) SessionOption {
	return func(c *sessionConfig) {
		c.blobs = bs
		c.canvasID = canvasID
	}
}

// WithPipelineOptions forwards options to the input pipeline.
func WithPipelineOptions(opts ...PipelineOption) SessionOption {
	return func(c *sessionConfig) {
		c.pipelineOpts = append(c.pipelineOpts, opts...)
	}
}

// NewSession builds and wires a full drawing session over a pointer
// source and a surface of the given pixel size. src must be non-nil;
// the size may be zero until the surface mounts (see Resize).
func NewSession(src PointerSource, width, height int, opts ...SessionOption) *Session {
	cfg := sessionConfig{eraserRadius: DefaultHitTolerance}
	for _, opt := range opts {
		opt(&cfg)
	}

	var canvasOpts []CanvasOption
	if cfg.scheduler != nil {
		canvasOpts = append(canvasOpts, WithScheduler(cfg.scheduler))
	}
	var historyOpts []HistoryOption
	if cfg.historyLimit > 0 {
		historyOpts = append(historyOpts, WithLimit(cfg.historyLimit))
	}
	if cfg.eraserRadius <= 0 {
		cfg.eraserRadius = DefaultHitTolerance
	}

	s := &Session{
		store:       NewStore(),
		history:     NewHistory(historyOpts...),
		canvas:      NewCanvas(width, height, canvasOpts...),
		mode:        ModePen,
		penStyle:    DefaultStyle(),
		highlighter: HighlighterStyle(),
		eraserR:     cfg.eraserRadius,
		hitIDs:      make(map[string]struct{}),
		blobs:       cfg.blobs,
		canvasID:    cfg.canvasID,
	}

	s.store.SetOnChange(func(strokes []*Stroke) {
		s.canvas.RenderAll(strokes)
	})

	p := NewPipeline(src, cfg.pipelineOpts...)
	p.OnStrokeStart = s.strokeStart
	p.OnStrokeMove = s.strokeMove
	p.OnStrokeEnd = s.strokeEnd
	p.OnHover = s.hover
	s.pipeline = p

	return s
}

// Attach starts consuming pointer events.
func (s *Session) Attach() { s.pipeline.Attach() }

// Detach stops consuming pointer events and discards any gesture in
// progress.
func (s *Session) Detach() {
	s.pipeline.Detach()
	s.canvas.CancelStroke()
	s.mu.Lock()
	s.resetEraserLocked()
	s.mu.Unlock()
	s.canvas.ClearOverlay()
}

// Close detaches and cancels pending repaints.
func (s *Session) Close() {
	s.Detach()
	s.canvas.Close()
}

// Store returns the session's stroke store.
func (s *Session) Store() *Store { return s.store }

// History returns the session's undo/redo history.
func (s *Session) History() *History { return s.history }

// Canvas returns the session's renderer.
func (s *Session) Canvas() *Canvas { return s.canvas }

// Pipeline returns the session's input pipeline.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// SetTool switches the active tool. Unrecognized modes are logged and
// ignored. Leaving eraser mode clears its overlay.
func (s *Session) SetTool(m ToolMode) {
	if !m.valid() {
		Logger().Warn("ignoring unknown tool mode", "mode", int(m))
		return
	}
	s.mu.Lock()
	prev := s.mode
	s.mode = m
	s.mu.Unlock()

	if prev == ModeEraser && m != ModeEraser {
		s.canvas.ClearOverlay()
	}
}

// Tool returns the active tool mode.
func (s *Session) Tool() ToolMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Style returns the stroke style of the active ink tool. In eraser
// mode it returns the pen style.
func (s *Session) Style() StrokeStyle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.activeStyleLocked()
}

// SetColor changes the active ink tool's color.
func (s *Session) SetColor(color string) {
	s.mu.Lock()
	st := s.activeStyleLocked()
	*st = st.WithColor(color)
	s.mu.Unlock()
}

// SetBaseWidth changes the active ink tool's width, clamped to
// [MinBaseWidth, MaxBaseWidth].
func (s *Session) SetBaseWidth(w float64) {
	s.mu.Lock()
	st := s.activeStyleLocked()
	*st = st.WithBaseWidth(w)
	s.mu.Unlock()
}

// SetOpacity changes the active ink tool's opacity, clamped to [0, 1].
func (s *Session) SetOpacity(a float64) {
	s.mu.Lock()
	st := s.activeStyleLocked()
	*st = st.WithOpacity(a)
	s.mu.Unlock()
}

// activeStyleLocked returns the style record edited by the style
// setters. Callers must hold mu.
func (s *Session) activeStyleLocked() *StrokeStyle {
	if s.mode == ModeHighlighter {
		return &s.highlighter
	}
	return &s.penStyle
}

// SetEraserRadius changes the eraser hit tolerance in unit
// coordinates. Non-positive values are ignored.
func (s *Session) SetEraserRadius(r float64) {
	if r <= 0 {
		return
	}
	s.mu.Lock()
	s.eraserR = r
	s.mu.Unlock()
}

// strokeStart handles the first point of a gesture.
func (s *Session) strokeStart(pt Point) {
	s.mu.Lock()
	if s.mode == ModeEraser {
		s.erasing = true
		s.hits = s.hits[:0]
		clear(s.hitIDs)
		radius := s.eraserR
		s.mu.Unlock()

		hits := s.accumulateHits(pt)
		s.canvas.ShowEraserCursor(pt, radius)
		s.canvas.HighlightStrokes(hits)
		return
	}
	style := *s.activeStyleLocked()
	if s.mode == ModeHighlighter {
		style.Tool = ToolHighlighter
	} else {
		style.Tool = ToolPen
	}
	s.mu.Unlock()

	s.canvas.BeginStroke(style, pt)
}

// strokeMove handles intermediate gesture points.
func (s *Session) strokeMove(pt Point) {
	s.mu.Lock()
	if s.erasing {
		radius := s.eraserR
		s.mu.Unlock()

		hits := s.accumulateHits(pt)
		s.canvas.ShowEraserCursor(pt, radius)
		s.canvas.HighlightStrokes(hits)
		return
	}
	s.mu.Unlock()

	s.canvas.AddPoint(pt)
}

// strokeEnd completes a gesture: an ink gesture commits its stroke and
// records an add action; an eraser gesture removes every accumulated
// hit in one atomic action. Aborted gestures leave no trace.
func (s *Session) strokeEnd(pt Point, aborted bool) {
	s.mu.Lock()
	if s.erasing {
		if aborted {
			s.resetEraserLocked()
			s.mu.Unlock()
			s.canvas.ClearOverlay()
			return
		}
		s.mu.Unlock()
		s.accumulateHits(pt)

		s.mu.Lock()
		hits := s.hits
		s.hits = nil
		s.resetEraserLocked()
		s.mu.Unlock()
		s.canvas.ClearOverlay()

		if len(hits) > 0 {
			ids := make([]string, len(hits))
			for i, st := range hits {
				ids[i] = st.ID
			}
			removed := s.store.RemoveMany(ids)
			if len(removed) > 0 {
				s.history.Push(&Action{Type: ActionRemove, Strokes: removed})
			}
		}
		return
	}
	s.mu.Unlock()

	if aborted {
		s.canvas.CancelStroke()
		return
	}
	// The stroke closes over the points the canvas holds; a tap with
	// no moves stays a single point and renders as a dot.
	st := s.canvas.EndStroke()
	if st == nil {
		return
	}
	committed := s.store.Add(st)
	if committed == nil {
		return
	}
	s.history.Push(&Action{Type: ActionAdd, Strokes: []*Stroke{committed}})
}

// hover previews the eraser: cursor plus candidate highlights, with no
// accumulation.
func (s *Session) hover(pt Point) {
	s.mu.Lock()
	mode := s.mode
	radius := s.eraserR
	s.mu.Unlock()
	if mode != ModeEraser {
		return
	}

	hits := StrokesAtPoint(s.store.Strokes(), pt.X, pt.Y, radius)
	s.canvas.ShowEraserCursor(pt, radius)
	s.canvas.HighlightStrokes(hits)
}

// accumulateHits merges the strokes struck at pt into the gesture's
// hit set, de-duplicated by ID in first-encountered order, and returns
// the set so far.
func (s *Session) accumulateHits(pt Point) []*Stroke {
	strokes := s.store.Strokes()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range StrokesAtPoint(strokes, pt.X, pt.Y, s.eraserR) {
		if _, dup := s.hitIDs[st.ID]; dup {
			continue
		}
		s.hitIDs[st.ID] = struct{}{}
		s.hits = append(s.hits, st)
	}
	out := make([]*Stroke, len(s.hits))
	copy(out, s.hits)
	return out
}

func (s *Session) resetEraserLocked() {
	s.erasing = false
	s.hits = nil
	clear(s.hitIDs)
}

// CommitStroke inserts a fully-formed stroke programmatically,
// bypassing the input pipeline, and records it in history. Returns the
// committed stroke, or nil when points is empty.
func (s *Session) CommitStroke(style StrokeStyle, points []Point) *Stroke {
	if len(points) == 0 {
		return nil
	}
	st := s.store.Add(NewStroke(style, points))
	if st == nil {
		return nil
	}
	s.history.Push(&Action{Type: ActionAdd, Strokes: []*Stroke{st}})
	return st
}

// EraseAlongPath removes every stroke struck along the given path in
// one atomic action, as if an eraser drag had sampled those points.
// Returns the number of strokes removed.
func (s *Session) EraseAlongPath(path []Point) int {
	s.mu.Lock()
	radius := s.eraserR
	s.mu.Unlock()

	hits := StrokesAlongPath(s.store.Strokes(), path, radius)
	if len(hits) == 0 {
		return 0
	}
	ids := make([]string, len(hits))
	for i, st := range hits {
		ids[i] = st.ID
	}
	removed := s.store.RemoveMany(ids)
	if len(removed) > 0 {
		s.history.Push(&Action{Type: ActionRemove, Strokes: removed})
	}
	return len(removed)
}

// ClearAll removes every stroke and records one clear action. Returns
// false when the drawing was already empty.
func (s *Session) ClearAll() bool {
	removed := s.store.Clear()
	if len(removed) == 0 {
		return false
	}
	s.history.Push(&Action{Type: ActionClear, Strokes: removed})
	return true
}

// Undo reverses the most recent action: removing an added stroke, or
// restoring removed or cleared strokes. Returns false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	a := s.history.Undo()
	if a == nil {
		return false
	}
	switch a.Type {
	case ActionAdd:
		for _, st := range a.Strokes {
			s.store.Remove(st.ID)
		}
	case ActionRemove, ActionClear:
		s.store.Restore(a.Strokes)
	}
	return true
}

// Redo replays the most recently undone action. Returns false when
// there is nothing to redo.
func (s *Session) Redo() bool {
	a := s.history.Redo()
	if a == nil {
		return false
	}
	switch a.Type {
	case ActionAdd:
		s.store.Restore(a.Strokes)
	case ActionRemove:
		ids := make([]string, len(a.Strokes))
		for i, st := range a.Strokes {
			ids[i] = st.ID
		}
		s.store.RemoveMany(ids)
	case ActionClear:
		s.store.Clear()
	}
	return true
}

// HistoryState returns the current undo/redo availability.
func (s *Session) HistoryState() HistoryState {
	return s.history.State()
}

// Resize forwards a surface size change: both raster layers resize as
// a pair and the settled layer re-renders from the store.
func (s *Session) Resize(width, height int) {
	s.canvas.SetSize(width, height)
	s.canvas.RenderAll(s.store.Strokes())
}

// Save encodes the drawing and hands it to the blob store under the
// session's canvas ID.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	bs, id := s.blobs, s.canvasID
	s.mu.Unlock()
	if bs == nil {
		return ErrNoBlobStore
	}
	data, err := s.store.ToJSON()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bs.SaveDocument(ctx, id, data); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Load replaces the drawing with the document persisted under the
// session's canvas ID and clears history, since recorded actions no
// longer describe the collection.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	bs, id := s.blobs, s.canvasID
	s.mu.Unlock()
	if bs == nil {
		return ErrNoBlobStore
	}
	data, err := bs.LoadDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if !s.store.FromJSON(data) {
		return ErrInvalidDocument
	}
	s.history.Clear()
	return nil
}

// ExportPNG returns the drawing as a PNG data URL.
func (s *Session) ExportPNG() (string, error) {
	return s.canvas.ExportPNG()
}

// Thumbnail returns a bounded-size preview as a PNG data URL.
func (s *Session) Thumbnail(maxWidth, maxHeight int) (string, error) {
	return s.canvas.Thumbnail(maxWidth, maxHeight)
}

// ExportPDF writes the drawing as vector ink on an A4 page.
func (s *Session) ExportPDF(w io.Writer) error {
	cw, ch := s.canvas.Size()
	if cw <= 0 || ch <= 0 {
		return ErrSurfaceNotReady
	}
	return WritePDF(w, s.store.Strokes(), float64(cw), float64(ch))
}
