// Bézier spline fitting for curved routes.
// Smooths a polyline into piecewise cubic Bézier segments and samples it.

package geo

// DefaultSharpness controls how tightly the spline hugs its waypoints.
const DefaultSharpness = 0.85

// FitSpline builds a piecewise cubic Bézier through the waypoints.
// The result has the layout [P0, C1, C2, P1, C3, C4, P2, ...], one segment
// per consecutive waypoint pair. Inner control points are derived from the
// midpoints of the neighbouring legs, pulled toward the waypoint by
// (1 - sharpness).
func FitSpline(waypoints []Point, sharpness float64) []Point {
	if len(waypoints) < 2 {
		return waypoints
	}

	centers := make([]Point, len(waypoints)-1)
	for i := range centers {
		centers[i] = Point{
			X: (waypoints[i].X + waypoints[i+1].X) / 2,
			Y: (waypoints[i].Y + waypoints[i+1].Y) / 2,
		}
	}

	// controls[i] holds the incoming and outgoing handle of waypoint i
	controls := make([][2]Point, len(waypoints))
	controls[0] = [2]Point{waypoints[0], waypoints[0]}
	last := len(waypoints) - 1
	controls[last] = [2]Point{waypoints[last], waypoints[last]}

	for i := 0; i < len(centers)-1; i++ {
		p := waypoints[i+1]
		dx := p.X - (centers[i].X+centers[i+1].X)/2
		dy := p.Y - (centers[i].Y+centers[i+1].Y)/2
		controls[i+1] = [2]Point{
			{
				X: (1-sharpness)*p.X + sharpness*(centers[i].X+dx),
				Y: (1-sharpness)*p.Y + sharpness*(centers[i].Y+dy),
			},
			{
				X: (1-sharpness)*p.X + sharpness*(centers[i+1].X+dx),
				Y: (1-sharpness)*p.Y + sharpness*(centers[i+1].Y+dy),
			},
		}
	}

	result := []Point{waypoints[0]}
	for i := 0; i < last; i++ {
		result = append(result, controls[i][1], controls[i+1][0], waypoints[i+1])
	}
	return result
}

func cubic(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	return Point{
		X: mt3*p0.X + 3*mt2*t*p1.X + 3*mt*t2*p2.X + t3*p3.X,
		Y: mt3*p0.Y + 3*mt2*t*p1.Y + 3*mt*t2*p2.Y + t3*p3.Y,
	}
}

// SampleSpline samples every cubic segment at perSegment even steps and
// returns the joined polyline. Shared segment endpoints appear once, so the
// result has numSegments*perSegment + 1 points.
func SampleSpline(spline []Point, perSegment int) []Point {
	if perSegment < 1 {
		perSegment = 1
	}
	if len(spline) < 4 {
		return append([]Point(nil), spline...)
	}

	numSegments := (len(spline) - 1) / 3
	out := make([]Point, 0, numSegments*perSegment+1)
	out = append(out, spline[0])
	for s := 0; s < numSegments; s++ {
		i := s * 3
		for k := 1; k <= perSegment; k++ {
			t := float64(k) / float64(perSegment)
			out = append(out, cubic(spline[i], spline[i+1], spline[i+2], spline[i+3], t))
		}
	}
	return out
}
