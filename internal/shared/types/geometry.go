package types

// Size is the available pixel area of a workspace container
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a pointer position within a container
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a pane rectangle in container pixel coordinates
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether the point falls inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// CenterX returns the horizontal center of the rectangle
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center of the rectangle
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Resizer is a draggable handle between two adjacent split children.
// Index identifies the boundary: the handle governs the weights of
// children Index and Index+1.
type Resizer struct {
	SplitID   string         `json:"split_id"`
	Index     int            `json:"index"`
	Direction SplitDirection `json:"direction"`
	Rect      Rect           `json:"rect"`
}

// FocusDirection is a directional focus-move request
type FocusDirection string

const (
	FocusUp    FocusDirection = "up"
	FocusDown  FocusDirection = "down"
	FocusLeft  FocusDirection = "left"
	FocusRight FocusDirection = "right"
)
