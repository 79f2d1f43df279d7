package ink

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
)

// Overlay paint constants, in pixels.
const (
	eraserCursorWidth = 1.5
	highlightPad      = 4.0
)

var (
	eraserCursorColor = RGBA{R: 0.2, G: 0.2, B: 0.2, A: 0.8}
	highlightColor    = RGBA{R: 1, G: 0.23, B: 0.19, A: 0.45}
)

// Canvas is the dual-layer renderer. Committed strokes paint onto the
// settled surface, repainted only when the stroke set changes; the
// stroke being drawn paints onto the live surface every input frame.
// The two layers stack visually: settled below, live above.
//
// Point coordinates stay normalized until paint time, when they are
// denormalized to the current surface size, so the same stroke data
// renders correctly after a resize.
//
// A Canvas may be constructed unsized; every operation on an unsized
// canvas is a no-op rather than an error, so callers can wire the
// renderer before its surface is mounted. Canvas is safe for
// concurrent use; live repaints arrive on the scheduler's goroutine.
type Canvas struct {
	mu      sync.Mutex
	width   int
	height  int
	settled *gg.Context
	live    *gg.Context
	sched   Scheduler

	// in-progress stroke
	drawing bool
	style   StrokeStyle
	points  []Point

	// eraser overlay, painted above the live stroke, never persisted
	cursorSet  bool
	cursorPt   Point
	cursorR    float64
	highlights []*Stroke
}

// CanvasOption configures a Canvas.
type CanvasOption func(*Canvas)

// WithScheduler overrides the repaint scheduler. The default coalesces
// to DefaultFrameInterval; tests typically pass DirectScheduler.
func WithScheduler(s Scheduler) CanvasOption {
	return func(c *Canvas) {
		if s != nil {
			c.sched = s
		}
	}
}

// NewCanvas creates a renderer with the given surface size in pixels.
// Non-positive dimensions leave the canvas unsized until SetSize.
func NewCanvas(width, height int, opts ...CanvasOption) *Canvas {
	c := &Canvas{sched: NewFrameScheduler(DefaultFrameInterval)}
	for _, opt := range opts {
		opt(c)
	}
	c.SetSize(width, height)
	return c
}

// SetSize resizes both surfaces as a pair. Raster content does not
// survive a resize: the live stroke is repainted from its points, and
// the caller re-renders the settled surface from the store (see
// Session.Resize). Non-positive dimensions unmount the surfaces.
func (c *Canvas) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width == c.width && height == c.height && c.settled != nil {
		return
	}
	c.width, c.height = width, height
	if width <= 0 || height <= 0 {
		c.settled = nil
		c.live = nil
		return
	}
	c.settled = gg.NewContext(width, height)
	c.live = gg.NewContext(width, height)
	c.repaintLiveLocked()
}

// Size returns the current surface dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Ready reports whether the surfaces are mounted.
func (c *Canvas) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

// SettledImage returns the settled layer's backing image, or nil when
// unsized. The pixels are live memory: they change on the next
// repaint, so embedders blitting to screen should copy or upload
// before returning to the event loop.
func (c *Canvas) SettledImage() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.readyLocked() {
		return nil
	}
	return c.settled.Image()
}

// LiveImage returns the live layer's backing image, or nil when
// unsized. Same aliasing caveat as SettledImage.
func (c *Canvas) LiveImage() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.readyLocked() {
		return nil
	}
	return c.live.Image()
}

func (c *Canvas) readyLocked() bool {
	return c.settled != nil && c.width > 0 && c.height > 0
}

// Close cancels any pending repaint. The canvas stays usable; Close
// exists so teardown does not leave a timer firing into freed state.
func (c *Canvas) Close() {
	c.sched.Cancel()
}

// BeginStroke starts authoring a stroke on the live surface.
func (c *Canvas) BeginStroke(style StrokeStyle, first Point) {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	c.drawing = true
	c.style = style
	c.points = append(c.points[:0], first)
	c.mu.Unlock()

	c.sched.Request(c.repaintLive)
}

// AddPoint extends the in-progress stroke and schedules a coalesced
// live repaint: bursts of points within one frame collapse into a
// single paint that includes the latest point.
func (c *Canvas) AddPoint(pt Point) {
	c.mu.Lock()
	if !c.drawing {
		c.mu.Unlock()
		return
	}
	c.points = append(c.points, pt)
	c.mu.Unlock()

	c.sched.Request(c.repaintLive)
}

// EndStroke finishes authoring and returns the captured stroke, not
// yet committed: the caller owns adding it to a Store. The live
// surface is cleared synchronously. Returns nil when no stroke was in
// progress.
func (c *Canvas) EndStroke() *Stroke {
	c.mu.Lock()
	if !c.drawing || len(c.points) == 0 {
		c.drawing = false
		c.points = c.points[:0]
		c.mu.Unlock()
		return nil
	}
	st := NewStroke(c.style, c.points)
	c.drawing = false
	c.points = c.points[:0]
	c.repaintLiveLocked()
	c.mu.Unlock()
	return st
}

// CancelStroke discards the in-progress stroke and clears the live
// surface.
func (c *Canvas) CancelStroke() {
	c.mu.Lock()
	c.drawing = false
	c.points = c.points[:0]
	c.repaintLiveLocked()
	c.mu.Unlock()
}

// Drawing reports whether a stroke is being authored.
func (c *Canvas) Drawing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawing
}

// RenderAll clears and fully repaints the settled surface from the
// given strokes in paint order. Wire it to Store.SetOnChange so the
// settled layer tracks every collection change.
func (c *Canvas) RenderAll(strokes []*Stroke) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.readyLocked() {
		return
	}
	clearSurface(c.settled)
	w, h := float64(c.width), float64(c.height)
	for _, st := range strokes {
		paintStroke(c.settled, st, w, h)
	}
}

// ShowEraserCursor places the dashed circular eraser cursor on the
// live surface. Center is in unit coordinates; radius is in unit
// coordinates and scales with surface width.
func (c *Canvas) ShowEraserCursor(center Point, radius float64) {
	c.mu.Lock()
	c.cursorSet = true
	c.cursorPt = center
	c.cursorR = radius
	c.mu.Unlock()

	c.sched.Request(c.repaintLive)
}

// HighlightStrokes marks eraser candidates with a translucent outline
// on the live surface until the next overlay change.
func (c *Canvas) HighlightStrokes(strokes []*Stroke) {
	c.mu.Lock()
	c.highlights = append(c.highlights[:0], strokes...)
	c.mu.Unlock()

	c.sched.Request(c.repaintLive)
}

// ClearOverlay removes the eraser cursor and highlights.
func (c *Canvas) ClearOverlay() {
	c.mu.Lock()
	c.cursorSet = false
	c.highlights = c.highlights[:0]
	c.mu.Unlock()

	c.sched.Request(c.repaintLive)
}

// repaintLive repaints the live surface from current state: the
// in-progress stroke, then the eraser overlay.
func (c *Canvas) repaintLive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repaintLiveLocked()
}

func (c *Canvas) repaintLiveLocked() {
	if !c.readyLocked() {
		return
	}
	dc := c.live
	clearSurface(dc)
	w, h := float64(c.width), float64(c.height)

	if c.drawing && len(c.points) > 0 {
		live := &Stroke{
			Tool:      c.style.Tool,
			Color:     c.style.Color,
			BaseWidth: c.style.BaseWidth,
			Opacity:   c.style.Opacity,
			Points:    c.points,
		}
		paintStroke(dc, live, w, h)
	}

	for _, st := range c.highlights {
		paintStrokeWith(dc, st, w, h, highlightColor, highlightPad)
	}
	if c.cursorSet {
		dc.SetRGBA(eraserCursorColor.R, eraserCursorColor.G, eraserCursorColor.B, eraserCursorColor.A)
		dc.SetLineWidth(eraserCursorWidth)
		dc.SetDash(6, 4)
		dc.DrawCircle(c.cursorPt.X*w, c.cursorPt.Y*h, c.cursorR*w)
		dc.Stroke()
		dc.SetDash()
	}
}

// clearSurface resets a layer to full transparency.
func clearSurface(dc *gg.Context) {
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
}

// paintStroke draws one stroke with its own style.
func paintStroke(dc *gg.Context, st *Stroke, w, h float64) {
	if st == nil || len(st.Points) == 0 {
		return
	}
	col := ParseColor(st.Color).ScaleAlpha(st.Opacity)
	paintStrokeWith(dc, st, w, h, col, 0)
}

// paintStrokeWith draws a stroke's geometry with an explicit color and
// extra width padding. The overlay highlighter uses the padding to
// draw a halo around the candidate stroke.
//
// A single-point stroke is a filled circle with radius proportional to
// baseWidth and pressure. Multi-point strokes draw per-segment: each
// segment's width is baseWidth times the mean pressure of its two
// endpoints, and each segment curves through its end point toward the
// midpoint of the following pair when a further point exists, which
// keeps variable-width ink continuous without visible faceting.
func paintStrokeWith(dc *gg.Context, st *Stroke, w, h float64, col RGBA, pad float64) {
	if st == nil || len(st.Points) == 0 {
		return
	}
	dc.SetRGBA(col.R, col.G, col.B, col.A)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	pts := st.Points
	if len(pts) == 1 {
		p := pts[0]
		r := st.BaseWidth*p.Pressure/2 + pad/2
		if r > 0 {
			dc.DrawCircle(p.X*w, p.Y*h, r)
			dc.Fill()
		}
		return
	}
	for i := 1; i < len(pts); i++ {
		p0, p1 := pts[i-1], pts[i]
		dc.SetLineWidth(st.BaseWidth*(p0.Pressure+p1.Pressure)/2 + pad)
		dc.MoveTo(p0.X*w, p0.Y*h)
		if i+1 < len(pts) {
			p2 := pts[i+1]
			dc.QuadraticTo(p1.X*w, p1.Y*h, (p1.X+p2.X)/2*w, (p1.Y+p2.Y)/2*h)
		} else {
			dc.LineTo(p1.X*w, p1.Y*h)
		}
		dc.Stroke()
	}
}
