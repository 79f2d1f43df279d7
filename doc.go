// Package ink provides a freehand drawing engine for canvas-style apps.
//
// # Overview
//
// ink covers the full path from raw pointer events to committed,
// persistable strokes: input normalization and smoothing, a stroke
// store with a versioned JSON document format, dual-surface raster
// rendering, spatial hit-testing for erasers, and bounded undo/redo.
//
// # Quick Start
//
//	import "github.com/inklab/ink"
//
//	// Wire a session to a pointer source (e.g. a UI event bridge)
//	sess := ink.NewSession(src, 1024, 768)
//	sess.Attach()
//
//	// Pointer events now flow into strokes; switch tools at will
//	sess.SetTool(ink.ModeEraser)
//	sess.Undo()
//
//	// Snapshot the drawing
//	url, _ := sess.ExportPNG()
//
// # Architecture
//
// The engine is organized around small composable pieces:
//   - Pipeline: normalizes pointer events into stroke points
//     (palm rejection, pressure defaults, exponential smoothing)
//   - Store: owns committed strokes and the document encoding
//   - Canvas: paints a settled surface for committed strokes and a
//     live surface for the stroke in progress, coalescing repaints
//     through a Scheduler
//   - History: bounded two-stack undo/redo over stroke actions
//   - Session: tool logic and glue between the pieces
//
// # Coordinate System
//
// Stroke points are normalized to the unit square with pressure in
// the unit range, so documents are independent of surface size.
// Denormalization happens only at render and export time. Raster
// coordinates follow the usual convention: origin at top-left,
// X right, Y down.
package ink

// Version information
const (
	// Version is the current version of the engine
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
