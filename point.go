package ink

// Point is a single stroke sample in normalized coordinates.
//
// X and Y are fractions of the surface width and height, clamped to
// the unit square. Pressure is in [0, 1]; devices without pressure
// report DefaultPressure. Timestamp is milliseconds since the Unix
// epoch and is non-decreasing within a stroke.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressure  float64 `json:"pressure"`
	Timestamp int64   `json:"timestamp"`
}

// P is a convenience function to create a Point.
func P(x, y, pressure float64, timestamp int64) Point {
	return Point{X: x, Y: y, Pressure: pressure, Timestamp: timestamp}
}

// Vec returns the point position as a Vec2, dropping pressure and time.
func (p Point) Vec() Vec2 {
	return Vec2{X: p.X, Y: p.Y}
}

// InUnitRange reports whether the point's coordinates and pressure
// are finite and within the normalized [0, 1] ranges.
func (p Point) InUnitRange() bool {
	return isFinite(p.X) && p.X >= 0 && p.X <= 1 &&
		isFinite(p.Y) && p.Y >= 0 && p.Y <= 1 &&
		isFinite(p.Pressure) && p.Pressure >= 0 && p.Pressure <= 1
}
