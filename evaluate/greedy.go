package evaluate

import (
	"sort"

	"github.com/swdee/go-detmetrics"
	"gonum.org/v1/gonum/mat"
)

// Decision records the outcome of a single prediction, in confidence
// descending order
type Decision struct {
	// Score is the confidence of the prediction
	Score float32
	// TP is true when the prediction claimed a ground truth box
	TP bool
}

// imageStats is the result of matching one image for a single
// (class, area range, IoU threshold) combination
type imageStats struct {
	tp, fp, fn int
	// gt is the number of eligible ground truth boxes
	gt int
	// decisions are the per prediction outcomes in confidence order
	decisions []Decision
}

// ImageMatch is the detailed outcome of matching one image for a single
// (class, area range, IoU threshold) combination
type ImageMatch struct {
	TP, FP, FN int
	// Decisions are the per prediction outcomes in confidence order
	Decisions []Decision
}

// MatchImage runs the greedy assignment for one image, restricted to a
// single class, area range and IoU threshold.  Padding sentinels in the
// image are stripped first.  maxDet caps the number of predictions
// considered after confidence descending sort.
func MatchImage(img detmetrics.Image, class int, area AreaRange,
	thr float32, maxDet int) ImageMatch {

	img = detmetrics.Image{
		GroundTruth: detmetrics.StripPadding(img.GroundTruth),
		Predictions: detmetrics.StripPaddingPredictions(img.Predictions),
	}

	st := matchImage(img, IoUMatrix(img.GroundTruth, img.Predictions),
		class, area, thr, maxDet, nil)

	return ImageMatch{
		TP:        st.tp,
		FP:        st.fp,
		FN:        st.fn,
		Decisions: st.decisions,
	}
}

// matchImage performs the greedy COCO style assignment for one image.
// Each prediction, taken in confidence descending order with ties broken
// by ascending input index, claims the unclaimed eligible ground truth box
// with the highest IoU provided that IoU reaches the threshold.  Equal IoU
// ties select the lowest index unclaimed ground truth box.  Eligible
// ground truth boxes left unclaimed are false negatives.
//
// ious is the full IoU matrix of the image as built by IoUMatrix and may
// be nil when the image has no ground truth or no predictions.  buf may be
// nil to allocate the workspace instead of drawing from a pool.
func matchImage(img detmetrics.Image, ious *mat.Dense, class int,
	area AreaRange, thr float32, maxDet int, buf *bufferPool) imageStats {

	var gtIdx, predIdx, claimed []int

	if buf != nil {
		gtIdx = buf.Get(bufGtIdx, len(img.GroundTruth))[:0]
		predIdx = buf.Get(bufPredIdx, len(img.Predictions))[:0]
		defer func() {
			buf.Put(bufGtIdx, gtIdx[:cap(gtIdx)])
			buf.Put(bufPredIdx, predIdx[:cap(predIdx)])
			buf.Put(bufClaims, claimed[:cap(claimed)])
		}()
	}

	// restrict to eligible ground truth boxes of the target class.  a
	// ground truth box outside the area range is removed from the match
	// pool entirely, it counts as neither FN nor matchable for this bucket
	for i, g := range img.GroundTruth {
		if g.Class != class || !area.Contains(g.Area()) {
			continue
		}
		gtIdx = append(gtIdx, i)
	}

	// restrict to eligible predictions, an ineligible prediction is
	// excluded from consideration for this bucket
	for i, p := range img.Predictions {
		if p.Class != class || !area.Contains(p.Area()) {
			continue
		}
		predIdx = append(predIdx, i)
	}

	// confidence descending, stable so equal scores keep ascending input
	// index order
	sort.SliceStable(predIdx, func(i, j int) bool {
		return img.Predictions[predIdx[i]].Score > img.Predictions[predIdx[j]].Score
	})

	if len(predIdx) > maxDet {
		predIdx = predIdx[:maxDet]
	}

	if buf != nil {
		claimed = buf.Get(bufClaims, len(gtIdx))
	} else {
		claimed = make([]int, len(gtIdx))
	}

	st := imageStats{gt: len(gtIdx)}

	for _, pi := range predIdx {

		best := -1
		bestIoU := 0.0

		for k, gi := range gtIdx {
			if claimed[k] != 0 {
				continue
			}

			// strict comparison keeps the lowest index ground truth on
			// equal IoU
			if v := ious.At(gi, pi); v > bestIoU {
				bestIoU = v
				best = k
			}
		}

		tp := best >= 0 && bestIoU >= float64(thr)

		if tp {
			claimed[best] = 1
			st.tp++
		} else {
			st.fp++
		}

		st.decisions = append(st.decisions, Decision{
			Score: img.Predictions[pi].Score,
			TP:    tp,
		})
	}

	st.fn = st.gt - st.tp

	return st
}
