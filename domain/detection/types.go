package detection

// BoundingBox is an axis-aligned rectangle in source-image pixel coordinates.
// X1 <= X2 and Y1 <= Y2 for well-formed boxes.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns X2-X1.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Scale multiplies the coordinates by independent per-axis factors.
func (b BoundingBox) Scale(sx, sy float64) BoundingBox {
	return BoundingBox{X1: b.X1 * sx, Y1: b.Y1 * sy, X2: b.X2 * sx, Y2: b.Y2 * sy}
}

// Detection is one recognized object.
type Detection struct {
	ClassName  string      `json:"class_name"`
	ClassID    int         `json:"class_id"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// ImageDimensions is the size of the original image as reported by the service.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Known reports whether both sides are positive.
func (d ImageDimensions) Known() bool { return d.Width > 0 && d.Height > 0 }

// Result is a detection set together with the dimensions it is expressed in.
type Result struct {
	Detections []Detection
	Dimensions ImageDimensions
}

// Clone returns a deep copy so callers cannot alias the detection slice.
func (r Result) Clone() Result {
	out := Result{Dimensions: r.Dimensions}
	if r.Detections != nil {
		out.Detections = append(make([]Detection, 0, len(r.Detections)), r.Detections...)
	}
	return out
}
