package ink

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"
	xdraw "golang.org/x/image/draw"
)

// ErrSurfaceNotReady is returned by export operations on an unsized
// canvas. Drawing operations in the same state are silent no-ops, but
// an export has to produce a value, so it reports the condition.
var ErrSurfaceNotReady = errors.New("ink: surface not ready")

const pngDataURLPrefix = "data:image/png;base64,"

// PDF page geometry, in millimeters (A4 landscape).
const (
	pdfPageWidth  = 297.0
	pdfPageHeight = 210.0
	pdfMargin     = 12.0
)

// CompositeImage returns the settled surface composited over an
// opaque white background, which is the printable form of the
// drawing: the raster layers themselves are transparent. Returns nil
// when the canvas is unsized.
func (c *Canvas) CompositeImage() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	img := c.compositeLocked()
	if img == nil {
		// Return an untyped nil: a nil *image.RGBA boxed in the
		// interface would not compare equal to nil for callers.
		return nil
	}
	return img
}

func (c *Canvas) compositeLocked() *image.RGBA {
	if !c.readyLocked() {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), c.settled.Image(), image.Point{}, draw.Over)
	return out
}

// ExportPNG encodes the composited drawing as a self-contained PNG
// data URL, suitable for upload to any blob store or direct download.
func (c *Canvas) ExportPNG() (string, error) {
	img := c.CompositeImage()
	if img == nil {
		return "", ErrSurfaceNotReady
	}
	return encodePNGDataURL(img)
}

// Thumbnail rescales the composited drawing to fit within the given
// bounds, preserving aspect ratio over a white background, and returns
// it as a PNG data URL.
func (c *Canvas) Thumbnail(maxWidth, maxHeight int) (string, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return "", fmt.Errorf("ink: invalid thumbnail bounds %dx%d", maxWidth, maxHeight)
	}

	c.mu.Lock()
	src := c.compositeLocked()
	w, h := c.width, c.height
	c.mu.Unlock()
	if src == nil {
		return "", ErrSurfaceNotReady
	}

	scale := math.Min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	outW := int(math.Round(float64(w) * scale))
	outH := int(math.Round(float64(h) * scale))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return encodePNGDataURL(dst)
}

func encodePNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// WritePDF renders strokes as vector ink on a single A4 landscape
// page and writes the document to w. The width and height give the
// source surface's pixel dimensions; the drawing is scaled to fit the
// page margins with its aspect ratio preserved, and stroke widths
// scale with it, so the page reproduces what the raster surfaces
// show.
func WritePDF(w io.Writer, strokes []*Stroke, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("ink: invalid pdf source size %gx%g", width, height)
	}

	availW := pdfPageWidth - 2*pdfMargin
	availH := pdfPageHeight - 2*pdfMargin
	scale := math.Min(availW/width, availH/height)
	offX := pdfMargin + (availW-width*scale)/2
	offY := pdfMargin + (availH-height*scale)/2

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	for _, st := range strokes {
		if st == nil || len(st.Points) == 0 {
			continue
		}
		col := ParseColor(st.Color)
		r, g, b := int(col.R*255), int(col.G*255), int(col.B*255)
		pdf.SetAlpha(clamp01(col.A*st.Opacity), "Normal")

		px := func(p Point) (float64, float64) {
			return offX + p.X*width*scale, offY + p.Y*height*scale
		}

		pts := st.Points
		if len(pts) == 1 {
			radius := st.BaseWidth * pts[0].Pressure / 2 * scale
			if radius <= 0 {
				continue
			}
			x, y := px(pts[0])
			pdf.SetFillColor(r, g, b)
			pdf.Circle(x, y, radius, "F")
			continue
		}

		pdf.SetDrawColor(r, g, b)
		for i := 1; i < len(pts); i++ {
			p0, p1 := pts[i-1], pts[i]
			pdf.SetLineWidth(st.BaseWidth * (p0.Pressure + p1.Pressure) / 2 * scale)
			x0, y0 := px(p0)
			pdf.MoveTo(x0, y0)
			if i+1 < len(pts) {
				p2 := pts[i+1]
				cx, cy := px(p1)
				mx, my := px(Point{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2})
				pdf.CurveTo(cx, cy, mx, my)
			} else {
				x1, y1 := px(p1)
				pdf.LineTo(x1, y1)
			}
			pdf.DrawPath("D")
		}
	}
	pdf.SetAlpha(1, "Normal")

	return pdf.Output(w)
}
