package evaluate

import (
	"testing"

	"github.com/swdee/go-detmetrics"
)

// testParams returns a minimal single threshold configuration used across
// the metric tests
func testParams() Params {
	return Params{
		Format:        detmetrics.FormatXYXY,
		AreaRanges:    []AreaRange{{Name: "all", Min: 0, Max: 1e9}},
		IoUThresholds: []float32{0.5},
	}
}

// mixedScene is a single image with one matched and one missed class 1
// box, two stray class 1 predictions, and one missed class 2 box.  Class 1
// recall is 1/2, class 2 recall 0, pooled recall across classes 1/3.
func mixedScene() ([][]detmetrics.Box, [][]detmetrics.Prediction) {

	gt := [][]detmetrics.Box{{
		{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 1},
		{X1: 100, Y1: 100, X2: 110, Y2: 110, Class: 1},
		{X1: 200, Y1: 200, X2: 210, Y2: 210, Class: 2},
	}}

	preds := [][]detmetrics.Prediction{{
		{Box: detmetrics.Box{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 1}, Score: 0.9},
		{Box: detmetrics.Box{X1: 300, Y1: 300, X2: 310, Y2: 310, Class: 1}, Score: 0.8},
		{Box: detmetrics.Box{X1: 400, Y1: 400, X2: 410, Y2: 410, Class: 1}, Score: 0.7},
	}}

	return gt, preds
}

func TestRecallMetricMixedScene(t *testing.T) {

	m, err := NewRecallMetric(testParams())

	if err != nil {
		t.Fatalf("NewRecallMetric failed: %v", err)
	}

	gt, preds := mixedScene()

	if err := m.Update(gt, preds); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	out := m.Result()

	if !almostEqual(out["class_1/all"], 0.5, 1e-9) {
		t.Errorf("class_1/all = %g; want 0.5", out["class_1/all"])
	}

	if !almostEqual(out["class_2/all"], 0, 1e-9) {
		t.Errorf("class_2/all = %g; want 0", out["class_2/all"])
	}

	if !almostEqual(out["overall/all"], 1.0/3.0, 1e-9) {
		t.Errorf("overall/all = %g; want 1/3", out["overall/all"])
	}

	if !almostEqual(out["mean"], 1.0/3.0, 1e-9) {
		t.Errorf("mean = %g; want 1/3", out["mean"])
	}
}

func TestRecallMetricLabels(t *testing.T) {

	p := testParams()
	p.Labels = []string{"background", "person", "car"}

	m, err := NewRecallMetric(p)

	if err != nil {
		t.Fatalf("NewRecallMetric failed: %v", err)
	}

	gt, preds := mixedScene()

	if err := m.Update(gt, preds); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	out := m.Result()

	if _, ok := out["person/all"]; !ok {
		t.Errorf("result keys %v missing person/all", out)
	}

	if _, ok := out["car/all"]; !ok {
		t.Errorf("result keys %v missing car/all", out)
	}
}

// TestRecallMetricUpdateOrder confirms streaming order does not change the
// result, two updates in either order equal one combined update
func TestRecallMetricUpdateOrder(t *testing.T) {

	imgA := detmetrics.Image{
		GroundTruth: []detmetrics.Box{
			{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 1},
		},
		Predictions: []detmetrics.Prediction{
			{Box: detmetrics.Box{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 1}, Score: 0.9},
		},
	}

	imgB := detmetrics.Image{
		GroundTruth: []detmetrics.Box{
			{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 1},
			{X1: 50, Y1: 50, X2: 60, Y2: 60, Class: 1},
		},
		Predictions: []detmetrics.Prediction{
			{Box: detmetrics.Box{X1: 80, Y1: 80, X2: 90, Y2: 90, Class: 1}, Score: 0.7},
		},
	}

	update := func(m *RecallMetric, imgs ...detmetrics.Image) {
		for _, img := range imgs {
			err := m.Update([][]detmetrics.Box{img.GroundTruth},
				[][]detmetrics.Prediction{img.Predictions})

			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
		}
	}

	ab, _ := NewRecallMetric(testParams())
	update(ab, imgA, imgB)

	ba, _ := NewRecallMetric(testParams())
	update(ba, imgB, imgA)

	joint, _ := NewRecallMetric(testParams())

	err := joint.Update(
		[][]detmetrics.Box{imgA.GroundTruth, imgB.GroundTruth},
		[][]detmetrics.Prediction{imgA.Predictions, imgB.Predictions},
	)

	if err != nil {
		t.Fatalf("joint Update failed: %v", err)
	}

	resAB := ab.Result()
	resBA := ba.Result()
	resJoint := joint.Result()

	for key, want := range resJoint {
		if !almostEqual(resAB[key], want, 1e-9) {
			t.Errorf("A then B: %s = %g; combined = %g", key, resAB[key], want)
		}

		if !almostEqual(resBA[key], want, 1e-9) {
			t.Errorf("B then A: %s = %g; combined = %g", key, resBA[key], want)
		}
	}
}

func TestRecallMetricReset(t *testing.T) {

	m, err := NewRecallMetric(testParams())

	if err != nil {
		t.Fatalf("NewRecallMetric failed: %v", err)
	}

	gt, preds := mixedScene()

	if err := m.Update(gt, preds); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	m.Reset()

	out := m.Result()

	for key, val := range out {
		if val != 0 {
			t.Errorf("after reset %s = %g; want 0", key, val)
		}
	}

	// the metric keeps accumulating normally after a reset
	if err := m.Update(gt, preds); err != nil {
		t.Fatalf("Update after reset failed: %v", err)
	}

	out = m.Result()

	if !almostEqual(out["overall/all"], 1.0/3.0, 1e-9) {
		t.Errorf("overall/all after reset and update = %g; want 1/3", out["overall/all"])
	}
}

func TestRecallMetricRejectsBadBatch(t *testing.T) {

	m, err := NewRecallMetric(testParams())

	if err != nil {
		t.Fatalf("NewRecallMetric failed: %v", err)
	}

	gt, preds := mixedScene()

	if err := m.Update(gt, preds); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	before := m.Result()

	// score outside [0,1] rejects the whole batch
	badPreds := [][]detmetrics.Prediction{{
		{Box: detmetrics.Box{X1: 0, Y1: 0, X2: 10, Y2: 10, Class: 1}, Score: 1.5},
	}}

	err = m.Update([][]detmetrics.Box{{}}, badPreds)

	if err == nil {
		t.Fatal("expected validation error for out of range score")
	}

	after := m.Result()

	for key, want := range before {
		if !almostEqual(after[key], want, 1e-9) {
			t.Errorf("rejected batch changed %s from %g to %g", key, want, after[key])
		}
	}
}

func TestRecallMetricRestrictedClasses(t *testing.T) {

	p := testParams()
	p.Classes = []int{1}

	m, err := NewRecallMetric(p)

	if err != nil {
		t.Fatalf("NewRecallMetric failed: %v", err)
	}

	gt, preds := mixedScene()

	if err := m.Update(gt, preds); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	out := m.Result()

	if _, ok := out["class_2/all"]; ok {
		t.Errorf("result %v contains class_2/all despite class restriction", out)
	}

	// pooling only covers class 1 counts, TP=1 FN=1
	if !almostEqual(out["overall/all"], 0.5, 1e-9) {
		t.Errorf("overall/all = %g; want 0.5", out["overall/all"])
	}
}

// TestRecallMetricPaddedEquivalence feeds the same scene as jagged lists
// and as a padded flat buffer and expects identical results
func TestRecallMetricPaddedEquivalence(t *testing.T) {

	gt, preds := mixedScene()

	jagged, _ := NewRecallMetric(testParams())

	if err := jagged.Update(gt, preds); err != nil {
		t.Fatalf("jagged Update failed: %v", err)
	}

	pad := float32(detmetrics.PadValue)

	// 1 image, 4 ground truth slots (one padded), 4 prediction slots
	// (one padded)
	gtFlat := []float32{
		0, 0, 10, 10, 1,
		100, 100, 110, 110, 1,
		200, 200, 210, 210, 2,
		pad, pad, pad, pad, pad,
	}

	predFlat := []float32{
		0, 0, 10, 10, 1, 0.9,
		300, 300, 310, 310, 1, 0.8,
		400, 400, 410, 410, 1, 0.7,
		pad, pad, pad, pad, pad, pad,
	}

	b, err := detmetrics.FromPadded(gtFlat, predFlat, 1, 4, 4)

	if err != nil {
		t.Fatalf("FromPadded failed: %v", err)
	}

	padded, _ := NewRecallMetric(testParams())

	if err := padded.UpdateBatch(b); err != nil {
		t.Fatalf("UpdateBatch failed: %v", err)
	}

	want := jagged.Result()
	got := padded.Result()

	if len(got) != len(want) {
		t.Fatalf("result sizes differ: padded %d, jagged %d", len(got), len(want))
	}

	for key, w := range want {
		if !almostEqual(got[key], w, 1e-9) {
			t.Errorf("%s: padded %g, jagged %g", key, got[key], w)
		}
	}
}
