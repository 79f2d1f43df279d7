package ink

import (
	"sync"
	"time"
)

// Input pipeline tuning constants.
const (
	// DefaultPressure substitutes for the spurious zero pressure that
	// mice and many touchscreens report while pressed.
	DefaultPressure = 0.5

	// DefaultPalmRejectWindow is how long after a pen event touch
	// input keeps being treated as a resting palm.
	DefaultPalmRejectWindow = 100 * time.Millisecond

	// smoothWindow caps the recent-point buffer used for smoothing.
	smoothWindow = 5

	// Exponential moving average weights: the previous recorded point
	// and the new raw sample.
	smoothPrevWeight = 0.3
	smoothRawWeight  = 0.7
)

// Device classifies the pointer hardware behind an event.
type Device int

// Pointer device types.
const (
	DeviceMouse Device = iota
	DeviceTouch
	DevicePen
)

// String returns the name of the device type.
func (d Device) String() string {
	switch d {
	case DeviceMouse:
		return "mouse"
	case DeviceTouch:
		return "touch"
	case DevicePen:
		return "pen"
	default:
		return "unknown"
	}
}

// EventKind classifies a pointer event.
type EventKind int

// Pointer event kinds.
const (
	EventDown EventKind = iota
	EventMove
	EventUp
	EventCancel
	EventLeave
)

// String returns the name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventDown:
		return "down"
	case EventMove:
		return "move"
	case EventUp:
		return "up"
	case EventCancel:
		return "cancel"
	case EventLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// PointerEvent is one raw event from a pointer source, in surface
// pixel coordinates. Pressure is the device reading in [0, 1], zero
// when unsupported. Time is milliseconds since the Unix epoch; zero
// means the pipeline stamps the wall clock on arrival.
type PointerEvent struct {
	Kind     EventKind
	Device   Device
	Pointer  int64
	Position Vec2
	Pressure float64
	Time     int64
}

// PointerSource is the surface-side half of the input boundary: an
// event bridge over whatever widget or window hosts the drawing
// surface. Implementations deliver events sequentially from a single
// goroutine and must not call back into the Pipeline from these
// methods.
type PointerSource interface {
	// Bind registers the sink that receives every pointer event.
	Bind(sink func(PointerEvent))

	// Unbind removes a previously bound sink.
	Unbind()

	// Size returns the surface dimensions in pixels.
	Size() Vec2

	// SetPointerCapture routes subsequent events for the pointer
	// exclusively to the bound sink until release.
	SetPointerCapture(pointer int64)

	// ReleasePointerCapture undoes SetPointerCapture.
	ReleasePointerCapture(pointer int64)

	// SetNativeGestures toggles the platform's default touch gesture
	// handling (panning, zooming) on the surface.
	SetNativeGestures(enabled bool)
}

// Pipeline turns raw pointer events into a normalized stroke-point
// stream: coordinates scaled to the unit square, pressure defaulted
// and clamped, palm touches rejected, move samples smoothed with an
// exponential moving average.
//
// One pointer draws at a time. The first pointer to go down becomes
// the active pointer and is captured exclusively; other downs are
// ignored until it lifts. Moves without an active pointer surface as
// hover signals.
//
// Set the On* handlers before calling Attach; they fire from the
// goroutine delivering source events.
type Pipeline struct {
	// OnStrokeStart fires with the first normalized point of a stroke.
	OnStrokeStart func(Point)

	// OnStrokeMove fires with each subsequent smoothed point.
	OnStrokeMove func(Point)

	// OnStrokeEnd fires with the final point; aborted marks strokes
	// ended by a cancel event rather than a lift.
	OnStrokeEnd func(pt Point, aborted bool)

	// OnHover fires for moves while no stroke is active. Optional.
	OnHover func(Point)

	src PointerSource

	mu            sync.Mutex
	attached      bool
	smoothing     bool
	palmWindowMs  int64
	lastPenSeen   int64
	active        bool
	activePointer int64
	activeDevice  Device
	buf           []Point
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPalmRejectWindow sets how long after any pen event touch downs
// are rejected as palm contact. Non-positive durations disable the
// window (touch is then rejected only while a pen stroke is active).
func WithPalmRejectWindow(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.palmWindowMs = d.Milliseconds()
	}
}

// WithSmoothing sets the initial smoothing state. Smoothing is on by
// default and can be toggled at runtime with SetSmoothing.
func WithSmoothing(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.smoothing = enabled
	}
}

// NewPipeline creates a pipeline over a pointer source. src must be
// non-nil.
func NewPipeline(src PointerSource, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		src:          src,
		smoothing:    true,
		palmWindowMs: DefaultPalmRejectWindow.Milliseconds(),
		buf:          make([]Point, 0, smoothWindow),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach binds the pipeline to its source and disables native touch
// gestures on the surface. Attach is idempotent.
func (p *Pipeline) Attach() {
	p.mu.Lock()
	if p.attached {
		p.mu.Unlock()
		return
	}
	p.attached = true
	p.mu.Unlock()

	p.src.Bind(p.handle)
	p.src.SetNativeGestures(false)
}

// Detach unbinds from the source, restores native gestures, and drops
// any in-progress stroke state without firing a stroke-end. Safe to
// call without a prior Attach.
func (p *Pipeline) Detach() {
	p.mu.Lock()
	if !p.attached {
		p.mu.Unlock()
		return
	}
	p.attached = false
	wasActive := p.active
	pointer := p.activePointer
	p.resetStrokeLocked()
	p.mu.Unlock()

	if wasActive {
		p.src.ReleasePointerCapture(pointer)
	}
	p.src.Unbind()
	p.src.SetNativeGestures(true)
}

// SetSmoothing toggles exponential smoothing of move samples.
func (p *Pipeline) SetSmoothing(enabled bool) {
	p.mu.Lock()
	p.smoothing = enabled
	p.mu.Unlock()
}

// SmoothingEnabled reports whether move samples are smoothed.
func (p *Pipeline) SmoothingEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.smoothing
}

// Active reports whether a stroke is currently being captured.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// handle is the sink bound to the pointer source. State changes happen
// under the lock; capture calls and handler invocations are deferred
// until after it is released.
func (p *Pipeline) handle(ev PointerEvent) {
	if ev.Time == 0 {
		ev.Time = time.Now().UnixMilli()
	}

	p.mu.Lock()
	if ev.Device == DevicePen {
		p.lastPenSeen = ev.Time
	}
	var emit func()
	switch ev.Kind {
	case EventDown:
		emit = p.downLocked(ev)
	case EventMove:
		emit = p.moveLocked(ev)
	case EventUp:
		emit = p.endLocked(ev, false)
	case EventCancel:
		emit = p.endLocked(ev, true)
	case EventLeave:
		// Leaving the surface mid-stroke ends it like a lift.
		emit = p.endLocked(ev, false)
	}
	p.mu.Unlock()

	if emit != nil {
		emit()
	}
}

func (p *Pipeline) downLocked(ev PointerEvent) func() {
	if p.isPalmLocked(ev) {
		Logger().Debug("palm-rejected touch down", "pointer", ev.Pointer)
		return nil
	}
	if p.active {
		return nil
	}
	pt, ok := p.normalizeLocked(ev)
	if !ok {
		return nil
	}
	p.active = true
	p.activePointer = ev.Pointer
	p.activeDevice = ev.Device
	p.buf = append(p.buf[:0], pt)

	start := p.OnStrokeStart
	return func() {
		p.src.SetPointerCapture(ev.Pointer)
		if start != nil {
			start(pt)
		}
	}
}

func (p *Pipeline) moveLocked(ev PointerEvent) func() {
	if !p.active {
		pt, ok := p.normalizeLocked(ev)
		if !ok {
			return nil
		}
		hover := p.OnHover
		if hover == nil {
			return nil
		}
		return func() { hover(pt) }
	}
	if ev.Pointer != p.activePointer {
		return nil
	}
	pt, ok := p.normalizeLocked(ev)
	if !ok {
		return nil
	}

	prev := p.buf[len(p.buf)-1]
	if p.smoothing {
		pt.X = smoothPrevWeight*prev.X + smoothRawWeight*pt.X
		pt.Y = smoothPrevWeight*prev.Y + smoothRawWeight*pt.Y
		pt.Pressure = smoothPrevWeight*prev.Pressure + smoothRawWeight*pt.Pressure
	}
	if pt.Timestamp < prev.Timestamp {
		pt.Timestamp = prev.Timestamp
	}
	if len(p.buf) == smoothWindow {
		copy(p.buf, p.buf[1:])
		p.buf[len(p.buf)-1] = pt
	} else {
		p.buf = append(p.buf, pt)
	}

	move := p.OnStrokeMove
	if move == nil {
		return nil
	}
	return func() { move(pt) }
}

func (p *Pipeline) endLocked(ev PointerEvent, aborted bool) func() {
	if !p.active || ev.Pointer != p.activePointer {
		return nil
	}
	pt, ok := p.normalizeLocked(ev)
	if !ok {
		// A lift with unresolvable coordinates still ends the stroke;
		// reuse the last recorded sample so capture never gets stuck.
		pt = p.buf[len(p.buf)-1]
	} else if last := p.buf[len(p.buf)-1]; pt.Timestamp < last.Timestamp {
		pt.Timestamp = last.Timestamp
	}
	pointer := p.activePointer
	p.resetStrokeLocked()

	end := p.OnStrokeEnd
	return func() {
		p.src.ReleasePointerCapture(pointer)
		if end != nil {
			end(pt, aborted)
		}
	}
}

// isPalmLocked classifies touch downs during or just after pen
// activity as palm contact. Mouse and pen input is never rejected.
func (p *Pipeline) isPalmLocked(ev PointerEvent) bool {
	if ev.Device != DeviceTouch {
		return false
	}
	if p.active && p.activeDevice == DevicePen {
		return true
	}
	if p.palmWindowMs > 0 && p.lastPenSeen != 0 && ev.Time-p.lastPenSeen <= p.palmWindowMs {
		return true
	}
	return false
}

// normalizeLocked maps an event into the unit square relative to the
// surface, with pressure defaults applied. It fails only when no
// coordinate is resolvable: non-finite positions or an unsized
// surface.
func (p *Pipeline) normalizeLocked(ev PointerEvent) (Point, bool) {
	if !ev.Position.IsFinite() {
		return Point{}, false
	}
	size := p.src.Size()
	if size.X <= 0 || size.Y <= 0 {
		return Point{}, false
	}
	pr := ev.Pressure
	if !isFinite(pr) {
		pr = DefaultPressure
	} else if pr == 0 && ev.Device != DevicePen {
		pr = DefaultPressure
	}
	return Point{
		X:         clamp01(ev.Position.X / size.X),
		Y:         clamp01(ev.Position.Y / size.Y),
		Pressure:  clamp01(pr),
		Timestamp: ev.Time,
	}, true
}

func (p *Pipeline) resetStrokeLocked() {
	p.active = false
	p.activePointer = 0
	p.activeDevice = 0
	p.buf = p.buf[:0]
}
