// Command inkdemo drives a drawing session with synthetic pointer
// input and exercises persistence and export: it draws a few strokes,
// demonstrates palm rejection and erasing, saves the document to a
// SQLite store, and writes PNG, thumbnail, and PDF exports.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/inklab/ink"
	"github.com/inklab/ink/docstore"
)

func main() {
	var (
		width   = flag.Int("width", 1024, "surface width in pixels")
		height  = flag.Int("height", 768, "surface height in pixels")
		dbPath  = flag.String("db", "canvases.db", "document store path")
		pngOut  = flag.String("png", "drawing.png", "PNG export path")
		pdfOut  = flag.String("pdf", "drawing.pdf", "PDF export path")
		thumb   = flag.String("thumb", "thumb.png", "thumbnail export path")
		verbose = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	ink.SetLogger(logger)

	db, err := docstore.Open(*dbPath)
	if err != nil {
		slog.Error("open document store failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	src := &scriptSource{width: float64(*width), height: float64(*height)}
	sess := ink.NewSession(src, *width, *height,
		ink.WithBlobStore(db, "demo-canvas"),
		ink.WithRenderScheduler(ink.DirectScheduler{}),
	)
	sess.Attach()
	defer sess.Close()

	drawScene(sess, src)

	ctx := context.Background()
	if err := sess.Save(ctx); err != nil {
		slog.Error("save failed", "error", err)
		os.Exit(1)
	}

	exportAll(ctx, sess, db, *pngOut, *thumb, *pdfOut)

	docs, err := db.ListDocuments(ctx)
	if err != nil {
		slog.Error("list documents failed", "error", err)
		os.Exit(1)
	}
	for _, d := range docs {
		slog.Info("stored document", "canvas_id", d.CanvasID, "bytes", d.Bytes, "updated_at", d.UpdatedAt)
	}
	slog.Info("done", "strokes", sess.Store().Len())
}

// drawScene replays a scripted drawing: pen waves, a highlighter bar,
// a dot, a palm-rejected touch, and an eraser pass that is then
// undone.
func drawScene(sess *ink.Session, src *scriptSource) {
	clock := int64(1_700_000_000_000)

	// Two pen waves in different colors.
	sess.SetColor("#1d6ef7")
	sess.SetBaseWidth(4)
	clock = src.penWave(1, 0.2, 0.08, clock)

	sess.SetColor("#d62828")
	sess.SetBaseWidth(6)
	clock = src.penWave(2, 0.45, 0.1, clock)

	// A highlighter band across the middle.
	sess.SetTool(ink.ModeHighlighter)
	clock = src.drag(3, ink.DevicePen, [][2]float64{{0.1, 0.6}, {0.5, 0.6}, {0.9, 0.6}}, 0.8, clock)

	// A single tap leaves a dot, not a degenerate line.
	sess.SetTool(ink.ModePen)
	clock = src.tap(4, ink.DeviceMouse, 0.85, 0.15, clock)

	// A touch right after pen activity is rejected as a palm.
	before := sess.Store().Len()
	clock = src.drag(5, ink.DeviceTouch, [][2]float64{{0.3, 0.3}, {0.4, 0.4}}, 0.9, clock+20)
	slog.Info("palm rejection", "strokes_before", before, "strokes_after", sess.Store().Len())

	// Wait out the palm window, then erase across the waves and undo it.
	clock += 500
	sess.SetTool(ink.ModeEraser)
	sess.SetEraserRadius(0.05)
	var sweep [][2]float64
	for y := 0.10; y <= 0.65; y += 0.025 {
		sweep = append(sweep, [2]float64{0.5, y})
	}
	clock = src.drag(6, ink.DeviceTouch, sweep, 1, clock)
	slog.Info("after erase", "strokes", sess.Store().Len(), "history", sess.HistoryState())

	sess.Undo()
	slog.Info("after undo", "strokes", sess.Store().Len(), "history", sess.HistoryState())

	_ = clock
}

func exportAll(ctx context.Context, sess *ink.Session, db *docstore.DB, pngOut, thumbOut, pdfOut string) {
	url, err := sess.ExportPNG()
	if err != nil {
		slog.Error("png export failed", "error", err)
		os.Exit(1)
	}
	if err := writeDataURL(pngOut, url); err != nil {
		slog.Error("write png failed", "error", err)
		os.Exit(1)
	}
	if err := db.SaveAsset(ctx, "demo-canvas/full", "demo-canvas", "image/png", rawDataURL(url)); err != nil {
		slog.Error("store png asset failed", "error", err)
		os.Exit(1)
	}

	turl, err := sess.Thumbnail(256, 256)
	if err != nil {
		slog.Error("thumbnail failed", "error", err)
		os.Exit(1)
	}
	if err := writeDataURL(thumbOut, turl); err != nil {
		slog.Error("write thumbnail failed", "error", err)
		os.Exit(1)
	}

	f, err := os.Create(pdfOut)
	if err != nil {
		slog.Error("create pdf failed", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := sess.ExportPDF(f); err != nil {
		slog.Error("pdf export failed", "error", err)
		os.Exit(1)
	}

	slog.Info("exports written", "png", pngOut, "thumb", thumbOut, "pdf", pdfOut)
}

// writeDataURL decodes a base64 data URL and writes its payload.
func writeDataURL(path, dataURL string) error {
	return os.WriteFile(path, rawDataURL(dataURL), 0o644)
}

func rawDataURL(dataURL string) []byte {
	i := strings.IndexByte(dataURL, ',')
	if i < 0 {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[i+1:])
	if err != nil {
		return nil
	}
	return raw
}

// scriptSource is an in-process pointer bridge that replays synthetic
// gestures into the pipeline.
type scriptSource struct {
	width, height float64
	sink          func(ink.PointerEvent)
}

func (s *scriptSource) Bind(sink func(ink.PointerEvent)) { s.sink = sink }
func (s *scriptSource) Unbind()                          { s.sink = nil }
func (s *scriptSource) Size() ink.Vec2                   { return ink.V2(s.width, s.height) }
func (s *scriptSource) SetPointerCapture(int64)          {}
func (s *scriptSource) ReleasePointerCapture(int64)      {}
func (s *scriptSource) SetNativeGestures(bool)           {}

func (s *scriptSource) emit(ev ink.PointerEvent) {
	if s.sink != nil {
		s.sink(ev)
	}
}

// penWave draws a pressure-modulated sine wave with a pen across the
// surface at the given vertical center. Returns the advanced clock.
func (s *scriptSource) penWave(pointer int64, yCenter, amplitude float64, clock int64) int64 {
	const samples = 48
	pos := func(i int) (float64, float64, float64) {
		t := float64(i) / float64(samples-1)
		x := (0.05 + 0.9*t) * s.width
		y := (yCenter + amplitude*math.Sin(t*4*math.Pi)) * s.height
		pressure := 0.4 + 0.5*math.Abs(math.Sin(t*2*math.Pi))
		return x, y, pressure
	}

	x, y, pr := pos(0)
	s.emit(ink.PointerEvent{Kind: ink.EventDown, Device: ink.DevicePen, Pointer: pointer,
		Position: ink.V2(x, y), Pressure: pr, Time: clock})
	for i := 1; i < samples; i++ {
		clock += 8
		x, y, pr = pos(i)
		s.emit(ink.PointerEvent{Kind: ink.EventMove, Device: ink.DevicePen, Pointer: pointer,
			Position: ink.V2(x, y), Pressure: pr, Time: clock})
	}
	clock += 8
	s.emit(ink.PointerEvent{Kind: ink.EventUp, Device: ink.DevicePen, Pointer: pointer,
		Position: ink.V2(x, y), Pressure: pr, Time: clock})
	return clock + 8
}

// drag replays a down-move-up run through the given unit-space
// waypoints.
func (s *scriptSource) drag(pointer int64, dev ink.Device, waypoints [][2]float64, pressure float64, clock int64) int64 {
	first := waypoints[0]
	s.emit(ink.PointerEvent{Kind: ink.EventDown, Device: dev, Pointer: pointer,
		Position: ink.V2(first[0]*s.width, first[1]*s.height), Pressure: pressure, Time: clock})
	for _, wp := range waypoints[1:] {
		clock += 12
		s.emit(ink.PointerEvent{Kind: ink.EventMove, Device: dev, Pointer: pointer,
			Position: ink.V2(wp[0]*s.width, wp[1]*s.height), Pressure: pressure, Time: clock})
	}
	last := waypoints[len(waypoints)-1]
	clock += 12
	s.emit(ink.PointerEvent{Kind: ink.EventUp, Device: dev, Pointer: pointer,
		Position: ink.V2(last[0]*s.width, last[1]*s.height), Pressure: pressure, Time: clock})
	return clock + 12
}

// tap presses and releases at one spot.
func (s *scriptSource) tap(pointer int64, dev ink.Device, x, y float64, clock int64) int64 {
	px, py := x*s.width, y*s.height
	s.emit(ink.PointerEvent{Kind: ink.EventDown, Device: dev, Pointer: pointer,
		Position: ink.V2(px, py), Time: clock})
	s.emit(ink.PointerEvent{Kind: ink.EventUp, Device: dev, Pointer: pointer,
		Position: ink.V2(px, py), Time: clock + 30})
	return clock + 60
}
