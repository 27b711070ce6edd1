package analyze

import "sort"

// Point is one measurement on a performance curve: X the swept
// parameter, Y the observed throughput.
type Point struct {
	X float64
	Y float64
}

// FindKnee implements the Kneedle construction to find the point of
// diminishing returns on a concave rising curve: normalize both axes to
// [0, 1] and take the point furthest above the diagonal. Fewer than
// three points have no interior, so the last point wins by convention.
func FindKnee(points []Point) Point {
	if len(points) < 3 {
		if len(points) > 0 {
			return points[len(points)-1]
		}
		return Point{}
	}

	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	minX, maxX := pts[0].X, pts[len(pts)-1].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	// A flat or vertical curve has no knee to speak of.
	if maxX == minX || maxY == minY {
		return pts[len(pts)-1]
	}

	maxDist := -1.0
	var knee Point
	for _, p := range pts {
		xNorm := (p.X - minX) / (maxX - minX)
		yNorm := (p.Y - minY) / (maxY - minY)
		if dist := yNorm - xNorm; dist > maxDist {
			maxDist = dist
			knee = p
		}
	}
	return knee
}
