package detmetrics

import (
	"testing"
)

func TestBoxArea(t *testing.T) {

	b := Box{X1: 2, Y1: 3, X2: 12, Y2: 8}

	if area := b.Area(); area != 50 {
		t.Errorf("Area() = %f; want 50", area)
	}

	// degenerate box has zero area
	z := Box{X1: 5, Y1: 5, X2: 5, Y2: 10}

	if area := z.Area(); area != 0 {
		t.Errorf("Area() = %f; want 0 for zero width box", area)
	}
}

func TestBoxValid(t *testing.T) {

	if !(Box{X1: 0, Y1: 0, X2: 1, Y2: 1}).Valid() {
		t.Error("well formed box reported invalid")
	}

	if (Box{X1: 2, Y1: 0, X2: 1, Y2: 1}).Valid() {
		t.Error("inverted x coordinates reported valid")
	}

	if (Box{X1: 0, Y1: 2, X2: 1, Y2: 1}).Valid() {
		t.Error("inverted y coordinates reported valid")
	}
}

func TestBoxIsPad(t *testing.T) {

	pad := Box{X1: PadValue, Y1: PadValue, X2: PadValue, Y2: PadValue, Class: PadValue}

	if !pad.IsPad() {
		t.Error("padding sentinel not detected")
	}

	// a real box touching the sentinel value in one coordinate is not
	// padding
	notPad := Box{X1: PadValue, Y1: 0, X2: 5, Y2: 5, Class: 1}

	if notPad.IsPad() {
		t.Error("real box misreported as padding")
	}
}

func TestStripPadding(t *testing.T) {

	pad := Box{X1: PadValue, Y1: PadValue, X2: PadValue, Y2: PadValue, Class: PadValue}
	box := Box{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 2}

	out := StripPadding([]Box{pad, box, pad})

	if len(out) != 1 || out[0] != box {
		t.Errorf("StripPadding = %+v; want just the real box", out)
	}

	// a list without padding is returned unchanged
	in := []Box{box, box}
	out = StripPadding(in)

	if len(out) != 2 {
		t.Errorf("len = %d; want 2", len(out))
	}

	preds := StripPaddingPredictions([]Prediction{
		{Box: pad},
		{Box: box, Score: 0.7},
	})

	if len(preds) != 1 || preds[0].Score != 0.7 {
		t.Errorf("StripPaddingPredictions = %+v; want just the real prediction", preds)
	}
}

func TestBoxFormatString(t *testing.T) {

	cases := []struct {
		format BoxFormat
		want   string
	}{
		{FormatXYXY, "xyxy"},
		{FormatXYWH, "xywh"},
		{FormatCXCYWH, "cxcywh"},
		{BoxFormat(99), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.format.String(); got != tc.want {
			t.Errorf("String() = %q; want %q", got, tc.want)
		}
	}
}
