package risk

// curvePoint pairs an input breakpoint with its exact output score
type curvePoint struct {
	x float64
	y float64
}

// curve is a piecewise-linear breakpoint table. Points are sorted by ascending
// x. Inputs strictly between two breakpoints interpolate linearly; inputs at a
// breakpoint return its output exactly. Inputs outside the table fall to the
// optional tail functions, or to the edge output when no tail is set.
//
// Expressing each normalizer as a table plus one shared interpolation routine
// keeps the threshold curves independently testable instead of duplicating the
// interpolation arithmetic five times.
type curve struct {
	points []curvePoint
	below  func(x float64) float64
	above  func(x float64) float64
}

// score evaluates the curve at x
func (c curve) score(x float64) float64 {
	first, last := c.points[0], c.points[len(c.points)-1]

	if x < first.x {
		if c.below != nil {
			return c.below(x)
		}
		return first.y
	}
	if x > last.x {
		if c.above != nil {
			return c.above(x)
		}
		return last.y
	}

	for i := 1; i < len(c.points); i++ {
		p := c.points[i]
		if x > p.x {
			continue
		}
		if x == p.x {
			return p.y
		}
		prev := c.points[i-1]
		frac := (x - prev.x) / (p.x - prev.x)
		return prev.y + frac*(p.y-prev.y)
	}

	return first.y
}
