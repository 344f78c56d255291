package market

// Handle identifies a connected client. Handles are small integers, unique
// among live clients and handed out again once a client is released.
type Handle int

// NoHandle marks a free slot.
const NoHandle Handle = -1

// Point is a position on the grid.
type Point struct {
	X, Y int
}

// Distance returns the Manhattan distance between p and q, saturated at
// maxDistance when it does not fit in an int.
func (p Point) Distance(q Point) int {
	dx, dy := absDiff(p.X, q.X), absDiff(p.Y, q.Y)
	if dx > maxDistance-dy {
		return maxDistance
	}
	return dx + dy
}

// Bundle is a quantity of each of the three resources.
type Bundle struct {
	A, B, C int
}

// Valid reports whether no amount is negative.
func (b Bundle) Valid() bool {
	return b.A >= 0 && b.B >= 0 && b.C >= 0
}

// IsZero reports whether all three amounts are zero.
func (b Bundle) IsZero() bool {
	return b.A == 0 && b.B == 0 && b.C == 0
}

// Covers reports whether b holds at least o of every resource.
func (b Bundle) Covers(o Bundle) bool {
	return b.A >= o.A && b.B >= o.B && b.C >= o.C
}

// Sub returns b minus o, componentwise.
func (b Bundle) Sub(o Bundle) Bundle {
	return Bundle{A: b.A - o.A, B: b.B - o.B, C: b.C - o.C}
}

// Supply is an offer of Bundle deliverable to any demand strictly closer than
// Distance to Pos.
type Supply struct {
	Pos Point
	Bundle
	Distance int
	Owner    Handle
}

// Eligible reports whether the supply may still take part in a match: no
// amount is negative and at least one is positive.
func (s Supply) Eligible() bool {
	return s.Bundle.Valid() && !s.Bundle.IsZero()
}

// Demand is a request for Bundle delivered at Pos. It is settled in one go.
type Demand struct {
	Pos Point
	Bundle
	Owner Handle
}

// Watch subscribes Owner to new supplies within Radius of Pos. Pos is the
// owner's position when the watch was placed and does not follow later moves.
type Watch struct {
	Pos    Point
	Radius int
	Owner  Handle
}

// Stats is a point-in-time count of the marketplace tables.
type Stats struct {
	Clients  int
	Supplies int
	Demands  int
	Watches  int
}

const maxDistance = int(^uint(0) >> 1)

// absDiff returns |a-b|, or maxDistance if that overflows.
func absDiff(a, b int) int {
	if a < b {
		a, b = b, a
	}
	d := a - b
	if d < 0 {
		return maxDistance
	}
	return d
}
