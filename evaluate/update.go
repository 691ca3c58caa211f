package evaluate

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/swdee/go-detmetrics"
)

// workspace buffer pool names
const (
	bufGtIdx   = "gtidx"
	bufPredIdx = "predidx"
	bufClaims  = "claims"
)

// initial workspace buffer sizes, Get grows past these when an image
// carries more boxes
const (
	defaultGtBufSize   = 64
	defaultPredBufSize = 128
)

// keyedStats pairs one matching outcome with its accumulation key
type keyedStats struct {
	class int
	cell  int
	st    imageStats
}

// pipeline drives the matching assignment shared by the metric facades.
// It validates update batches, runs the greedy matcher for every
// (image, class, area range, IoU threshold) combination and hands the
// results to a fold callback.
type pipeline struct {
	params Params
	buf    *bufferPool
}

// newPipeline returns a pipeline with its workspace pools registered
func newPipeline(p Params) *pipeline {

	buf := newBufferPool()
	_ = buf.Create(bufGtIdx, defaultGtBufSize)
	_ = buf.Create(bufPredIdx, defaultPredBufSize)
	_ = buf.Create(bufClaims, defaultGtBufSize)

	return &pipeline{
		params: p,
		buf:    buf,
	}
}

// validate checks an update batch against the input contract and returns
// the per image box lists with padding sentinels stripped.  A failed
// validation rejects the whole batch, no partial fold occurs.
func (p *pipeline) validate(gt [][]detmetrics.Box,
	preds [][]detmetrics.Prediction) ([]detmetrics.Image, error) {

	if len(gt) != len(preds) {
		return nil, &ValidationError{
			Image: -1,
			Reason: fmt.Sprintf("ground truth batch has %d images but prediction batch has %d",
				len(gt), len(preds)),
		}
	}

	images := make([]detmetrics.Image, len(gt))

	for i := range gt {

		g := detmetrics.StripPadding(gt[i])
		pr := detmetrics.StripPaddingPredictions(preds[i])

		for _, box := range g {
			if !box.Valid() {
				return nil, &ValidationError{
					Image: i,
					Reason: fmt.Sprintf("malformed ground truth box (%g,%g,%g,%g)",
						box.X1, box.Y1, box.X2, box.Y2),
				}
			}

			if box.Class < 0 {
				return nil, &ValidationError{
					Image:  i,
					Reason: fmt.Sprintf("negative ground truth class id %d", box.Class),
				}
			}
		}

		for _, pred := range pr {
			if !pred.Valid() {
				return nil, &ValidationError{
					Image: i,
					Reason: fmt.Sprintf("malformed predicted box (%g,%g,%g,%g)",
						pred.X1, pred.Y1, pred.X2, pred.Y2),
				}
			}

			if pred.Class < 0 {
				return nil, &ValidationError{
					Image:  i,
					Reason: fmt.Sprintf("negative predicted class id %d", pred.Class),
				}
			}

			if pred.Score < 0 || pred.Score > 1 {
				return nil, &ValidationError{
					Image:  i,
					Reason: fmt.Sprintf("confidence %g outside [0,1]", pred.Score),
				}
			}
		}

		images[i] = detmetrics.Image{GroundTruth: g, Predictions: pr}
	}

	return images, nil
}

// run matches every image of a validated batch against every configured
// (class, area range, IoU threshold) combination.  Images are processed in
// parallel by striding them across workers, then results are folded
// sequentially in image order so accumulation is deterministic regardless
// of worker scheduling.
func (p *pipeline) run(images []detmetrics.Image,
	fold func(class, cell int, st imageStats)) {

	if len(images) == 0 {
		return
	}

	results := make([][]keyedStats, len(images))

	numWorkers := runtime.NumCPU()

	if numWorkers > len(images) {
		numWorkers = len(images)
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	// each worker handles images i = w, w+numWorkers, w+2*numWorkers
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()

			for i := w; i < len(images); i += numWorkers {
				results[i] = p.matchAll(images[i])
			}
		}(w)
	}

	wg.Wait()

	for _, ks := range results {
		for _, k := range ks {
			fold(k.class, k.cell, k.st)
		}
	}
}

// matchAll runs the greedy matcher over every key combination for one
// image.  The IoU matrix is computed once and shared across combinations.
func (p *pipeline) matchAll(img detmetrics.Image) []keyedStats {

	ious := IoUMatrix(img.GroundTruth, img.Predictions)

	classes := p.params.Classes

	if len(classes) == 0 {
		classes = observedClasses(img)
	}

	out := make([]keyedStats, 0, len(classes)*p.params.numCells())

	for _, class := range classes {
		for ai, area := range p.params.AreaRanges {
			for ti, thr := range p.params.IoUThresholds {

				st := matchImage(img, ious, class, area, thr,
					p.params.MaxDetections, p.buf)

				out = append(out, keyedStats{
					class: class,
					cell:  p.params.cellIdx(ai, ti),
					st:    st,
				})
			}
		}
	}

	return out
}

// observedClasses returns the sorted distinct class ids present in the
// image across both ground truth and predictions
func observedClasses(img detmetrics.Image) []int {

	set := make(map[int]bool)

	for _, g := range img.GroundTruth {
		set[g.Class] = true
	}

	for _, p := range img.Predictions {
		set[p.Class] = true
	}

	classes := make([]int, 0, len(set))

	for class := range set {
		classes = append(classes, class)
	}

	sort.Ints(classes)

	return classes
}
