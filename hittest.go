package ink

// DefaultHitTolerance is the eraser hit radius in unit coordinates.
// All hit-testing runs in the same normalized space as stored points,
// so tolerance is resolution-independent.
const DefaultHitTolerance = 0.02

// hitReferenceSize is the nominal surface size, in pixels, used to
// translate a stroke's pixel width into normalized units for the
// width-derived hit margin.
const hitReferenceSize = 1000.0

// hitMargin widens the hit radius for thick strokes so ink that
// visually covers the query point is erasable even when the recorded
// centerline misses it.
func hitMargin(st *Stroke) float64 {
	w := st.BaseWidth
	if w < 0 {
		w = 0
	}
	return w / (2 * hitReferenceSize)
}

// segmentDistance returns the distance from q to the segment ab, using
// the standard projection clamped to the segment's extent.
func segmentDistance(q, a, b Vec2) float64 {
	ab := b.Sub(a)
	lenSq := ab.LengthSq()
	if lenSq == 0 {
		return q.Distance(a)
	}
	t := clamp01(q.Sub(a).Dot(ab) / lenSq)
	return q.Distance(a.Add(ab.Mul(t)))
}

// StrokeIntersectsPoint reports whether the query point strikes the
// stroke: within tolerance plus the stroke's width-derived margin of
// any recorded point, or within tolerance of any segment between
// consecutive points. Coordinates and tolerance are in unit space.
func StrokeIntersectsPoint(st *Stroke, x, y, tolerance float64) bool {
	if st == nil || len(st.Points) == 0 {
		return false
	}
	q := V2(x, y)
	reach := tolerance + hitMargin(st)

	pts := st.Points
	if pts[0].Vec().Distance(q) <= reach {
		return true
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Vec().Distance(q) <= reach {
			return true
		}
		if segmentDistance(q, pts[i-1].Vec(), pts[i].Vec()) <= tolerance {
			return true
		}
	}
	return false
}

// StrokesAtPoint returns every stroke struck by the query point, in
// the order they appear in strokes (store order).
func StrokesAtPoint(strokes []*Stroke, x, y, tolerance float64) []*Stroke {
	var hits []*Stroke
	for _, st := range strokes {
		if StrokeIntersectsPoint(st, x, y, tolerance) {
			hits = append(hits, st)
		}
	}
	return hits
}

// StrokesAlongPath unions the strokes struck by each sample of an
// eraser drag, de-duplicated by stroke ID in first-encountered order.
// One stroke crossed by many samples appears once, which lets a whole
// drag gesture collapse into a single atomic removal.
func StrokesAlongPath(strokes []*Stroke, path []Point, tolerance float64) []*Stroke {
	if len(path) == 0 {
		return nil
	}
	var hits []*Stroke
	seen := make(map[string]struct{})
	for _, p := range path {
		for _, st := range StrokesAtPoint(strokes, p.X, p.Y, tolerance) {
			if _, dup := seen[st.ID]; dup {
				continue
			}
			seen[st.ID] = struct{}{}
			hits = append(hits, st)
		}
	}
	return hits
}
