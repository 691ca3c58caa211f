package evaluate

import (
	"math"

	"github.com/swdee/go-detmetrics"
	"gonum.org/v1/gonum/mat"
)

// IoU calculates the Intersection over Union (IoU) value of two boxes.  A
// box with zero area yields an IoU of 0 by convention rather than a
// division error.
func IoU(a, b detmetrics.Box) float64 {

	w := math.Min(float64(a.X2), float64(b.X2)) - math.Max(float64(a.X1), float64(b.X1))
	h := math.Min(float64(a.Y2), float64(b.Y2)) - math.Max(float64(a.Y1), float64(b.Y1))

	if w <= 0 || h <= 0 {
		return 0.0
	}

	intersection := w * h

	// Calculate union
	union := float64(a.Area()) + float64(b.Area()) - intersection

	if union <= 0 {
		return 0.0
	}

	// Return Intersection of Union (IoU)
	return intersection / union
}

// IoUMatrix computes the dense matrix of pairwise IoU values between the
// ground truth boxes (rows) and predictions (columns) of one image.  Both
// lists must already have padding sentinels stripped.  Returns nil when
// either list is empty, as a zero sized matrix cannot be represented.
func IoUMatrix(gt []detmetrics.Box, preds []detmetrics.Prediction) *mat.Dense {

	if len(gt) == 0 || len(preds) == 0 {
		return nil
	}

	m := mat.NewDense(len(gt), len(preds), nil)

	for i, g := range gt {
		for j, p := range preds {
			m.Set(i, j, IoU(g, p.Box))
		}
	}

	return m
}
