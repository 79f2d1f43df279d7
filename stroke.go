package ink

// Width and opacity bounds for stroke styles. Values outside these
// ranges are clamped on the way in and rejected by document validation
// on the way back in.
const (
	MinBaseWidth = 1.0
	MaxBaseWidth = 20.0
)

// Tool identifies the drawing tool that produced a stroke.
// It serializes as a lowercase string in the document format.
type Tool string

// Supported stroke tools.
const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
)

// Valid reports whether t is a recognized tool.
func (t Tool) Valid() bool {
	return t == ToolPen || t == ToolHighlighter
}

// StrokeStyle defines the visual properties applied to a stroke.
// It is a value type; the With* methods return modified copies so a
// base style can be shared and tweaked without aliasing.
type StrokeStyle struct {
	// Tool selects the stroke tool. Default: ToolPen
	Tool Tool

	// Color is a hex color token like "#1d1d1f" or a named color.
	// Unparseable colors render as black.
	Color string

	// BaseWidth is the stroke width in pixels at full pressure,
	// clamped to [MinBaseWidth, MaxBaseWidth].
	BaseWidth float64

	// Opacity is the overall stroke alpha in [0, 1].
	Opacity float64
}

// DefaultStyle returns the pen style used when nothing else is configured:
// a dark 3-pixel pen at full opacity.
func DefaultStyle() StrokeStyle {
	return StrokeStyle{
		Tool:      ToolPen,
		Color:     "#1d1d1f",
		BaseWidth: 3,
		Opacity:   1,
	}
}

// HighlighterStyle returns the conventional highlighter style: a wide,
// translucent yellow band.
func HighlighterStyle() StrokeStyle {
	return StrokeStyle{
		Tool:      ToolHighlighter,
		Color:     "#ffd60a",
		BaseWidth: 12,
		Opacity:   0.35,
	}
}

// WithTool returns a copy of the style with the given tool.
// Unrecognized tools are ignored.
func (s StrokeStyle) WithTool(t Tool) StrokeStyle {
	if t.Valid() {
		s.Tool = t
	}
	return s
}

// WithColor returns a copy of the style with the given color token.
func (s StrokeStyle) WithColor(color string) StrokeStyle {
	s.Color = color
	return s
}

// WithBaseWidth returns a copy of the style with the width clamped to
// [MinBaseWidth, MaxBaseWidth].
func (s StrokeStyle) WithBaseWidth(w float64) StrokeStyle {
	s.BaseWidth = clamp(w, MinBaseWidth, MaxBaseWidth)
	return s
}

// WithOpacity returns a copy of the style with the opacity clamped to [0, 1].
func (s StrokeStyle) WithOpacity(a float64) StrokeStyle {
	s.Opacity = clamp01(a)
	return s
}

// Stroke is one committed freehand mark: an ordered run of normalized
// points plus the style it was drawn with.
//
// ID and CreatedAt are assigned by the Store when the stroke is added;
// a stroke built by NewStroke carries neither until then. Strokes are
// treated as immutable once stored.
type Stroke struct {
	ID        string  `json:"id"`
	Tool      Tool    `json:"tool"`
	Color     string  `json:"color"`
	BaseWidth float64 `json:"baseWidth"`
	Opacity   float64 `json:"opacity"`
	Points    []Point `json:"points"`
	CreatedAt int64   `json:"createdAt"`
}

// NewStroke builds an uncommitted stroke from a style and a point run.
// The points slice is copied.
func NewStroke(style StrokeStyle, points []Point) *Stroke {
	pts := make([]Point, len(points))
	copy(pts, points)
	return &Stroke{
		Tool:      style.Tool,
		Color:     style.Color,
		BaseWidth: style.BaseWidth,
		Opacity:   style.Opacity,
		Points:    pts,
	}
}

// Style returns the visual properties of the stroke as a StrokeStyle.
func (s *Stroke) Style() StrokeStyle {
	return StrokeStyle{
		Tool:      s.Tool,
		Color:     s.Color,
		BaseWidth: s.BaseWidth,
		Opacity:   s.Opacity,
	}
}

// Clone creates a deep copy of the stroke.
func (s *Stroke) Clone() *Stroke {
	if s == nil {
		return nil
	}
	out := *s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return &out
}
