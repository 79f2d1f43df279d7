package ink

import "encoding/json"

// DocumentVersion is the current document format version. Documents
// reporting a newer version are rejected; documents with no version
// field are treated as legacy version-1 files.
const DocumentVersion = 1

// Document is the serializable snapshot of a drawing: a format version
// and the committed strokes in paint order.
type Document struct {
	Version int       `json:"version"`
	Strokes []*Stroke `json:"strokes"`
}

// NewDocument returns an empty current-version document.
func NewDocument() *Document {
	return &Document{Version: DocumentVersion, Strokes: []*Stroke{}}
}

// Clone creates a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Version: d.Version, Strokes: make([]*Stroke, len(d.Strokes))}
	for i, s := range d.Strokes {
		out.Strokes[i] = s.Clone()
	}
	return out
}

// rawDocument defers stroke decoding so one corrupt stroke cannot
// poison the rest of the document.
type rawDocument struct {
	Version int               `json:"version"`
	Strokes []json.RawMessage `json:"strokes"`
}

// DecodeDocument parses an encoded document.
//
// The second return value is false only for structural failures: data
// that is not a JSON object, or a document written by a newer format
// version. Individual strokes that fail to decode or validate are
// dropped with a warning, not treated as failure, so one corrupt
// stroke never takes the whole drawing down. A document with no
// strokes array decodes to an empty drawing.
func DecodeDocument(data []byte) (*Document, bool) {
	var raw *rawDocument
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		Logger().Warn("document decode failed", "reason", "not an object")
		return nil, false
	}
	if raw.Version > DocumentVersion {
		Logger().Warn("document decode failed",
			"reason", "unsupported version", "version", raw.Version)
		return nil, false
	}

	doc := &Document{Version: DocumentVersion, Strokes: make([]*Stroke, 0, len(raw.Strokes))}
	dropped := 0
	for _, msg := range raw.Strokes {
		var st *Stroke
		if err := json.Unmarshal(msg, &st); err != nil || !ValidStroke(st) {
			dropped++
			continue
		}
		doc.Strokes = append(doc.Strokes, st)
	}
	if dropped > 0 {
		Logger().Warn("dropped invalid strokes from document",
			"dropped", dropped, "kept", len(doc.Strokes))
	}
	return doc, true
}

// EncodeDocument marshals a document in the current format.
func EncodeDocument(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

// ValidStroke reports whether a stroke satisfies the document format:
// a recognized tool, width and opacity within bounds, and at least one
// point with all coordinates in normalized range. Strokes that fail
// are dropped at load time rather than failing the load.
func ValidStroke(s *Stroke) bool {
	if s == nil {
		return false
	}
	if !s.Tool.Valid() {
		return false
	}
	if !isFinite(s.BaseWidth) || s.BaseWidth < MinBaseWidth || s.BaseWidth > MaxBaseWidth {
		return false
	}
	if !isFinite(s.Opacity) || s.Opacity < 0 || s.Opacity > 1 {
		return false
	}
	if len(s.Points) == 0 {
		return false
	}
	for _, p := range s.Points {
		if !p.InUnitRange() {
			return false
		}
	}
	return true
}
