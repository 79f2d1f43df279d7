package ink

import (
	"math"
	"testing"
	"time"
)

// fakeSource is a scripted PointerSource for pipeline tests.
type fakeSource struct {
	sink     func(PointerEvent)
	size     Vec2
	captured []int64
	released []int64
	gestures []bool
	binds    int
	unbinds  int
}

func newFakeSource(w, h float64) *fakeSource {
	return &fakeSource{size: V2(w, h)}
}

func (f *fakeSource) Bind(sink func(PointerEvent)) { f.sink = sink; f.binds++ }
func (f *fakeSource) Unbind()                      { f.sink = nil; f.unbinds++ }
func (f *fakeSource) Size() Vec2                   { return f.size }
func (f *fakeSource) SetPointerCapture(p int64)    { f.captured = append(f.captured, p) }
func (f *fakeSource) ReleasePointerCapture(p int64) {
	f.released = append(f.released, p)
}
func (f *fakeSource) SetNativeGestures(on bool) { f.gestures = append(f.gestures, on) }

func (f *fakeSource) emit(ev PointerEvent) {
	if f.sink != nil {
		f.sink(ev)
	}
}

// strokeRecorder captures everything the pipeline emits.
type strokeRecorder struct {
	starts  []Point
	moves   []Point
	ends    []Point
	aborted []bool
	hovers  []Point
}

func (r *strokeRecorder) bind(p *Pipeline) {
	p.OnStrokeStart = func(pt Point) { r.starts = append(r.starts, pt) }
	p.OnStrokeMove = func(pt Point) { r.moves = append(r.moves, pt) }
	p.OnStrokeEnd = func(pt Point, aborted bool) {
		r.ends = append(r.ends, pt)
		r.aborted = append(r.aborted, aborted)
	}
	p.OnHover = func(pt Point) { r.hovers = append(r.hovers, pt) }
}

func pev(kind EventKind, dev Device, pointer int64, x, y, pressure float64, t int64) PointerEvent {
	return PointerEvent{
		Kind:     kind,
		Device:   dev,
		Pointer:  pointer,
		Position: V2(x, y),
		Pressure: pressure,
		Time:     t,
	}
}

func newTestPipeline(t *testing.T, src *fakeSource, opts ...PipelineOption) (*Pipeline, *strokeRecorder) {
	t.Helper()
	p := NewPipeline(src, opts...)
	rec := &strokeRecorder{}
	rec.bind(p)
	p.Attach()
	t.Cleanup(p.Detach)
	return p, rec
}

func TestPipeline_StrokeLifecycle(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 200, 0.8, 1000))
	src.emit(pev(EventMove, DevicePen, 1, 200, 300, 0.6, 1016))
	src.emit(pev(EventUp, DevicePen, 1, 300, 400, 0.4, 1032))

	if len(rec.starts) != 1 {
		t.Fatalf("starts = %d, want 1", len(rec.starts))
	}
	start := rec.starts[0]
	if math.Abs(start.X-0.1) > 1e-10 || math.Abs(start.Y-0.2) > 1e-10 {
		t.Errorf("start = (%v, %v), want normalized (0.1, 0.2)", start.X, start.Y)
	}
	if start.Pressure != 0.8 || start.Timestamp != 1000 {
		t.Errorf("start pressure/time = %v/%d, want 0.8/1000", start.Pressure, start.Timestamp)
	}

	if len(rec.moves) != 1 {
		t.Fatalf("moves = %d, want 1", len(rec.moves))
	}
	if len(rec.ends) != 1 {
		t.Fatalf("ends = %d, want 1", len(rec.ends))
	}
	if rec.aborted[0] {
		t.Error("lift reported aborted = true, want false")
	}

	// The up sample is recorded raw, never smoothed.
	end := rec.ends[0]
	if math.Abs(end.X-0.3) > 1e-10 || math.Abs(end.Y-0.4) > 1e-10 {
		t.Errorf("end = (%v, %v), want raw (0.3, 0.4)", end.X, end.Y)
	}
	if end.Timestamp != 1032 {
		t.Errorf("end timestamp = %d, want 1032", end.Timestamp)
	}
	if p.Active() {
		t.Error("Active() = true after lift")
	}
}

func TestPipeline_NormalizationClamps(t *testing.T) {
	src := newFakeSource(800, 600)
	_, rec := newTestPipeline(t, src)

	// Coordinates outside the surface clamp to the unit square.
	src.emit(pev(EventDown, DeviceMouse, 1, 1200, -50, 0, 1000))

	if len(rec.starts) != 1 {
		t.Fatalf("starts = %d, want 1", len(rec.starts))
	}
	start := rec.starts[0]
	if start.X != 1 || start.Y != 0 {
		t.Errorf("start = (%v, %v), want clamped (1, 0)", start.X, start.Y)
	}
}

func TestPipeline_PressureDefaults(t *testing.T) {
	tests := []struct {
		name     string
		device   Device
		pressure float64
		expect   float64
	}{
		{"mouse zero pressure", DeviceMouse, 0, DefaultPressure},
		{"touch zero pressure", DeviceTouch, 0, DefaultPressure},
		{"pen zero pressure stays", DevicePen, 0, 0},
		{"pen real pressure", DevicePen, 0.7, 0.7},
		{"nan pressure", DevicePen, math.NaN(), DefaultPressure},
		{"overrange clamps", DevicePen, 1.5, 1},
		{"negative clamps", DeviceMouse, -0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource(1000, 1000)
			_, rec := newTestPipeline(t, src)

			src.emit(pev(EventDown, tt.device, 1, 500, 500, tt.pressure, 1000))

			if len(rec.starts) != 1 {
				t.Fatalf("starts = %d, want 1", len(rec.starts))
			}
			if got := rec.starts[0].Pressure; got != tt.expect {
				t.Errorf("pressure = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestPipeline_Smoothing(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.8, 1000))
	src.emit(pev(EventMove, DevicePen, 1, 200, 200, 0.4, 1016))

	if len(rec.moves) != 1 {
		t.Fatalf("moves = %d, want 1", len(rec.moves))
	}
	got := rec.moves[0]

	// EMA with 0.3 previous / 0.7 raw: 0.3*0.1 + 0.7*0.2 = 0.17.
	if math.Abs(got.X-0.17) > 1e-10 || math.Abs(got.Y-0.17) > 1e-10 {
		t.Errorf("smoothed = (%v, %v), want (0.17, 0.17)", got.X, got.Y)
	}
	if math.Abs(got.Pressure-0.52) > 1e-10 {
		t.Errorf("smoothed pressure = %v, want 0.52", got.Pressure)
	}
	// Timestamps pass through unsmoothed.
	if got.Timestamp != 1016 {
		t.Errorf("timestamp = %d, want raw 1016", got.Timestamp)
	}

	// The smoothed point lies between the previous recorded point and
	// the raw sample.
	if got.X < 0.1 || got.X > 0.2 {
		t.Errorf("smoothed X = %v, want within [0.1, 0.2]", got.X)
	}

	// The next move smooths against the recorded (smoothed) point, not
	// the raw one: 0.3*0.17 + 0.7*0.3 = 0.261.
	src.emit(pev(EventMove, DevicePen, 1, 300, 300, 0.4, 1032))
	if len(rec.moves) != 2 {
		t.Fatalf("moves = %d, want 2", len(rec.moves))
	}
	if math.Abs(rec.moves[1].X-0.261) > 1e-10 {
		t.Errorf("second smoothed X = %v, want 0.261", rec.moves[1].X)
	}
}

func TestPipeline_SmoothingDisabled(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src, WithSmoothing(false))

	if p.SmoothingEnabled() {
		t.Fatal("SmoothingEnabled() = true, want false via option")
	}

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.8, 1000))
	src.emit(pev(EventMove, DevicePen, 1, 200, 200, 0.4, 1016))

	if len(rec.moves) != 1 {
		t.Fatalf("moves = %d, want 1", len(rec.moves))
	}
	got := rec.moves[0]
	if math.Abs(got.X-0.2) > 1e-10 || got.Pressure != 0.4 {
		t.Errorf("unsmoothed move = (%v, pr %v), want raw (0.2, 0.4)", got.X, got.Pressure)
	}

	// Toggle back on at runtime.
	p.SetSmoothing(true)
	src.emit(pev(EventMove, DevicePen, 1, 300, 300, 0.4, 1032))
	want := 0.3*0.2 + 0.7*0.3
	if math.Abs(rec.moves[1].X-want) > 1e-10 {
		t.Errorf("re-enabled smoothing X = %v, want %v", rec.moves[1].X, want)
	}
}

func TestPipeline_TimestampsMonotonic(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 2000))
	// Out-of-order device timestamp clamps to the previous sample.
	src.emit(pev(EventMove, DevicePen, 1, 200, 200, 0.5, 1990))
	src.emit(pev(EventUp, DevicePen, 1, 300, 300, 0.5, 1980))

	if got := rec.moves[0].Timestamp; got != 2000 {
		t.Errorf("move timestamp = %d, want clamped 2000", got)
	}
	if got := rec.ends[0].Timestamp; got != 2000 {
		t.Errorf("end timestamp = %d, want clamped 2000", got)
	}
}

func TestPipeline_PalmRejection(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src)

	// Pen stroke from t=1000 to t=1100.
	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	src.emit(pev(EventUp, DevicePen, 1, 200, 200, 0.5, 1100))

	// Touch down 50ms after the last pen event: a resting palm.
	src.emit(pev(EventDown, DeviceTouch, 2, 500, 500, 0.5, 1150))
	if len(rec.starts) != 1 {
		t.Fatalf("palm touch started a stroke: starts = %d, want 1", len(rec.starts))
	}
	if p.Active() {
		t.Fatal("Active() = true after rejected touch down")
	}

	// Touch down after the window expires draws normally.
	src.emit(pev(EventDown, DeviceTouch, 3, 500, 500, 0.5, 1201))
	if len(rec.starts) != 2 {
		t.Errorf("late touch down did not start a stroke: starts = %d, want 2", len(rec.starts))
	}
}

func TestPipeline_PalmRejectionDuringPenStroke(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	// Touch lands while the pen is still drawing, far outside any
	// window based check.
	src.emit(pev(EventDown, DeviceTouch, 2, 500, 500, 0.5, 5000))

	if len(rec.starts) != 1 {
		t.Errorf("starts = %d, want 1: touch during a pen stroke is a palm", len(rec.starts))
	}
	if !p.Active() {
		t.Error("pen stroke should still be active")
	}
}

func TestPipeline_PalmWindowDisabled(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src, WithPalmRejectWindow(0))

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	src.emit(pev(EventUp, DevicePen, 1, 200, 200, 0.5, 1100))

	// With the window disabled, a touch right after pen lift draws.
	src.emit(pev(EventDown, DeviceTouch, 2, 500, 500, 0.5, 1101))
	if len(rec.starts) != 2 {
		t.Errorf("starts = %d, want 2 with the palm window disabled", len(rec.starts))
	}
}

func TestPipeline_MouseNeverPalmRejected(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	src.emit(pev(EventUp, DevicePen, 1, 200, 200, 0.5, 1100))

	// Mouse input inside the palm window still draws.
	src.emit(pev(EventDown, DeviceMouse, 2, 500, 500, 0, 1110))
	if len(rec.starts) != 2 {
		t.Errorf("starts = %d, want 2: mouse input is never palm-rejected", len(rec.starts))
	}
}

func TestPipeline_SingleActivePointer(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DeviceMouse, 1, 100, 100, 0, 1000))
	// A second pointer going down is ignored entirely.
	src.emit(pev(EventDown, DeviceMouse, 2, 500, 500, 0, 1010))
	if len(rec.starts) != 1 {
		t.Fatalf("starts = %d, want 1", len(rec.starts))
	}

	// Moves and lifts from the non-active pointer are ignored.
	src.emit(pev(EventMove, DeviceMouse, 2, 600, 600, 0, 1020))
	src.emit(pev(EventUp, DeviceMouse, 2, 600, 600, 0, 1030))
	if len(rec.moves) != 0 || len(rec.ends) != 0 {
		t.Fatalf("foreign pointer leaked: moves = %d, ends = %d", len(rec.moves), len(rec.ends))
	}

	// The active pointer still works.
	src.emit(pev(EventUp, DeviceMouse, 1, 200, 200, 0, 1040))
	if len(rec.ends) != 1 {
		t.Errorf("ends = %d, want 1", len(rec.ends))
	}
}

func TestPipeline_Hover(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	src.emit(pev(EventMove, DevicePen, 1, 250, 750, 0.5, 1000))

	if len(rec.hovers) != 1 {
		t.Fatalf("hovers = %d, want 1", len(rec.hovers))
	}
	if len(rec.moves) != 0 {
		t.Errorf("moves = %d, want 0 without an active stroke", len(rec.moves))
	}
	h := rec.hovers[0]
	if math.Abs(h.X-0.25) > 1e-10 || math.Abs(h.Y-0.75) > 1e-10 {
		t.Errorf("hover = (%v, %v), want (0.25, 0.75)", h.X, h.Y)
	}
}

func TestPipeline_CancelAborts(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	src.emit(pev(EventCancel, DevicePen, 1, 150, 150, 0.5, 1016))

	if len(rec.ends) != 1 {
		t.Fatalf("ends = %d, want 1", len(rec.ends))
	}
	if !rec.aborted[0] {
		t.Error("cancel reported aborted = false, want true")
	}
}

func TestPipeline_LeaveEndsStroke(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	src.emit(pev(EventLeave, DevicePen, 1, 900, 900, 0.5, 1016))

	if len(rec.ends) != 1 {
		t.Fatalf("ends = %d, want 1", len(rec.ends))
	}
	if rec.aborted[0] {
		t.Error("leave reported aborted = true, want a normal end")
	}
	if p.Active() {
		t.Error("Active() = true after leave")
	}

	// A leave with no stroke active is a no-op.
	src.emit(pev(EventLeave, DevicePen, 1, 900, 900, 0.5, 1032))
	if len(rec.ends) != 1 {
		t.Errorf("ends = %d after idle leave, want 1", len(rec.ends))
	}
}

func TestPipeline_MalformedUpFallsBack(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1000))
	src.emit(pev(EventMove, DevicePen, 1, 200, 200, 0.5, 1016))

	// An up event with unresolvable coordinates must still end the
	// stroke, reusing the last recorded point.
	src.emit(pev(EventUp, DevicePen, 1, math.NaN(), math.NaN(), 0.5, 1032))

	if len(rec.ends) != 1 {
		t.Fatalf("ends = %d, want 1: capture must not get stuck", len(rec.ends))
	}
	if p.Active() {
		t.Fatal("Active() = true after malformed up")
	}
	end := rec.ends[0]
	last := rec.moves[len(rec.moves)-1]
	if end != last {
		t.Errorf("fallback end = %+v, want last recorded point %+v", end, last)
	}
}

func TestPipeline_MalformedDownIgnored(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p, rec := newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 1, math.Inf(1), 100, 0.5, 1000))
	if len(rec.starts) != 0 || p.Active() {
		t.Error("non-finite down should be ignored")
	}

	// An unsized surface cannot normalize anything.
	src.size = V2(0, 0)
	src.emit(pev(EventDown, DevicePen, 1, 100, 100, 0.5, 1010))
	if len(rec.starts) != 0 || p.Active() {
		t.Error("down on an unsized surface should be ignored")
	}
}

func TestPipeline_StampsMissingTime(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, rec := newTestPipeline(t, src)

	before := time.Now().UnixMilli()
	src.emit(pev(EventDown, DeviceMouse, 1, 100, 100, 0, 0))

	if len(rec.starts) != 1 {
		t.Fatalf("starts = %d, want 1", len(rec.starts))
	}
	if got := rec.starts[0].Timestamp; got < before {
		t.Errorf("timestamp = %d, want wall clock >= %d", got, before)
	}
}

func TestPipeline_PointerCapture(t *testing.T) {
	src := newFakeSource(1000, 1000)
	_, _ = newTestPipeline(t, src)

	src.emit(pev(EventDown, DevicePen, 7, 100, 100, 0.5, 1000))
	src.emit(pev(EventUp, DevicePen, 7, 200, 200, 0.5, 1016))

	if len(src.captured) != 1 || src.captured[0] != 7 {
		t.Errorf("captured = %v, want [7]", src.captured)
	}
	if len(src.released) != 1 || src.released[0] != 7 {
		t.Errorf("released = %v, want [7]", src.released)
	}
}

func TestPipeline_AttachDetach(t *testing.T) {
	src := newFakeSource(1000, 1000)
	p := NewPipeline(src)
	rec := &strokeRecorder{}
	rec.bind(p)

	p.Attach()
	p.Attach() // idempotent
	if src.binds != 1 {
		t.Errorf("binds = %d after double Attach, want 1", src.binds)
	}
	if len(src.gestures) != 1 || src.gestures[0] {
		t.Errorf("gestures = %v, want native gestures disabled once", src.gestures)
	}

	// Detach mid-stroke drops the stroke silently and releases capture.
	src.emit(pev(EventDown, DevicePen, 3, 100, 100, 0.5, 1000))
	p.Detach()

	if p.Active() {
		t.Error("Active() = true after Detach")
	}
	if len(rec.ends) != 0 {
		t.Errorf("ends = %d, want 0: Detach drops state without a stroke-end", len(rec.ends))
	}
	if len(src.released) != 1 || src.released[0] != 3 {
		t.Errorf("released = %v, want [3]", src.released)
	}
	if src.unbinds != 1 {
		t.Errorf("unbinds = %d, want 1", src.unbinds)
	}
	if len(src.gestures) != 2 || !src.gestures[1] {
		t.Errorf("gestures = %v, want native gestures restored", src.gestures)
	}

	p.Detach() // idempotent
	if src.unbinds != 1 {
		t.Errorf("unbinds = %d after double Detach, want 1", src.unbinds)
	}
}

func TestDevice_String(t *testing.T) {
	tests := []struct {
		name   string
		dev    Device
		expect string
	}{
		{"mouse", DeviceMouse, "mouse"},
		{"touch", DeviceTouch, "touch"},
		{"pen", DevicePen, "pen"},
		{"unknown", Device(9), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dev.String(); got != tt.expect {
				t.Errorf("Device(%d).String() = %q, want %q", tt.dev, got, tt.expect)
			}
		})
	}
}

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		name   string
		kind   EventKind
		expect string
	}{
		{"down", EventDown, "down"},
		{"move", EventMove, "move"},
		{"up", EventUp, "up"},
		{"cancel", EventCancel, "cancel"},
		{"leave", EventLeave, "leave"},
		{"unknown", EventKind(9), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expect {
				t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.expect)
			}
		})
	}
}
