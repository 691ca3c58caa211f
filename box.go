package detmetrics

// PadValue is the reserved sentinel used to mark an absent box inside a
// fixed shape (padded) batch.  A box with all four coordinates and the
// class set to PadValue is padding and is dropped before any geometry or
// matching operation.
const PadValue = -1

// BoxFormat identifies the coordinate layout of bounding boxes supplied by
// the caller.  The evaluation pipeline only consumes FormatXYXY, any
// conversion from other layouts must be done by the caller before batching.
type BoxFormat int

const (
	// FormatXYXY is the corner format (x1, y1, x2, y2)
	FormatXYXY BoxFormat = iota
	// FormatXYWH is the top left corner plus width and height
	FormatXYWH
	// FormatCXCYWH is the box center plus width and height
	FormatCXCYWH
)

// String returns the format tag name
func (f BoxFormat) String() string {
	switch f {
	case FormatXYXY:
		return "xyxy"
	case FormatXYWH:
		return "xywh"
	case FormatCXCYWH:
		return "cxcywh"
	}
	return "unknown"
}

// Box is a ground truth bounding box in corner format with its object
// class.  Coordinates must satisfy X2 >= X1 and Y2 >= Y1 for a valid box.
type Box struct {
	X1, Y1, X2, Y2 float32
	// Class is the object class ID, eg: the line number in the labels
	// file the Model was trained on
	Class int
}

// Prediction is a predicted bounding box, a Box plus the confidence score
// of the detection in the range [0,1]
type Prediction struct {
	Box
	// Score is the confidence of the object detected
	Score float32
}

// Area returns the area of the bounding box
func (b Box) Area() float32 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// IsPad returns true if the box is a padding sentinel
func (b Box) IsPad() bool {
	return b.X1 == PadValue && b.Y1 == PadValue &&
		b.X2 == PadValue && b.Y2 == PadValue && b.Class == PadValue
}

// Valid returns true if the box coordinates are well formed
func (b Box) Valid() bool {
	return b.X2 >= b.X1 && b.Y2 >= b.Y1
}

// StripPadding returns the ground truth box list with padding sentinels
// removed.  All geometry and matching code receives box lists through this
// filter so it never has to special case padding.
func StripPadding(boxes []Box) []Box {
	n := 0

	for _, b := range boxes {
		if b.IsPad() {
			n++
		}
	}

	if n == 0 {
		return boxes
	}

	out := make([]Box, 0, len(boxes)-n)

	for _, b := range boxes {
		if !b.IsPad() {
			out = append(out, b)
		}
	}

	return out
}

// StripPaddingPredictions returns the prediction list with padding
// sentinels removed
func StripPaddingPredictions(preds []Prediction) []Prediction {
	n := 0

	for _, p := range preds {
		if p.IsPad() {
			n++
		}
	}

	if n == 0 {
		return preds
	}

	out := make([]Prediction, 0, len(preds)-n)

	for _, p := range preds {
		if !p.IsPad() {
			out = append(out, p)
		}
	}

	return out
}
