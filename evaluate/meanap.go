package evaluate

import (
	"fmt"
	"sort"
	"sync"

	"github.com/swdee/go-detmetrics"
	"gonum.org/v1/gonum/stat"
)

// apCell retains the per prediction decisions and the running ground truth
// count of one (class, area range, IoU threshold) combination, enough to
// reconstruct the precision-recall curve at result time
type apCell struct {
	dec []Decision
	gt  int
}

// apAccumulator holds the retained precision-recall state, one cell per
// (class, area range, IoU threshold) combination
type apAccumulator struct {
	cells   int
	byClass map[int][]apCell
	classes []int
}

// newAPAccumulator returns an accumulator with cells pre created for the
// configured classes, cells for further classes are created as observed
func newAPAccumulator(cells int, classes []int) *apAccumulator {

	a := &apAccumulator{
		cells:   cells,
		byClass: make(map[int][]apCell),
	}

	for _, class := range classes {
		a.cellsFor(class)
	}

	return a
}

// cellsFor returns the cell slice for the given class, creating it on
// first use
func (a *apAccumulator) cellsFor(class int) []apCell {

	if c, ok := a.byClass[class]; ok {
		return c
	}

	c := make([]apCell, a.cells)
	a.byClass[class] = c
	a.classes = insertSorted(a.classes, class)

	return c
}

// fold appends one image's decisions and eligible ground truth count into
// the cell
func (a *apAccumulator) fold(class, cell int, dec []Decision, gt int) {
	c := a.cellsFor(class)
	c[cell].dec = append(c[cell].dec, dec...)
	c[cell].gt += gt
}

// reset clears all retained state
func (a *apAccumulator) reset() {
	for _, c := range a.byClass {
		for i := range c {
			c[i] = apCell{}
		}
	}
}

// MeanAPMetric accumulates per prediction match decisions over streamed
// batches and reports COCO style mean Average Precision using 101 point
// interpolation of the precision-recall curve
type MeanAPMetric struct {
	mu     sync.Mutex
	params Params
	pipe   *pipeline
	acc    *apAccumulator
}

// NewMeanAPMetric returns a mean Average Precision metric instance for the
// given parameters.  Configuration errors are rejected here rather than at
// first update.
func NewMeanAPMetric(p Params) (*MeanAPMetric, error) {

	p, err := p.withDefaults()

	if err != nil {
		return nil, err
	}

	return &MeanAPMetric{
		params: p,
		pipe:   newPipeline(p),
		acc:    newAPAccumulator(p.numCells(), p.Classes),
	}, nil
}

// Update folds one batch of ground truth boxes and predictions into the
// retained state.  gt and preds are parallel per image lists.  A contract
// violation rejects the whole batch with a ValidationError and leaves the
// retained state untouched.
func (m *MeanAPMetric) Update(gt [][]detmetrics.Box,
	preds [][]detmetrics.Prediction) error {

	images, err := m.pipe.validate(gt, preds)

	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pipe.run(images, func(class, cell int, st imageStats) {
		m.acc.fold(class, cell, st.decisions, st.gt)
	})

	return nil
}

// UpdateBatch folds a filled batch container into the retained state
func (m *MeanAPMetric) UpdateBatch(b *detmetrics.Batch) error {
	gt, preds := splitBatch(b)
	return m.Update(gt, preds)
}

// Reset clears the retained state for a new evaluation epoch
func (m *MeanAPMetric) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acc.reset()
}

// Result computes Average Precision from the retained state without
// mutating it, it may be called any number of times.  The returned map
// holds one entry per (class, area range) combination with at least one
// ground truth box observed, averaged over the IoU thresholds that
// combination was evaluated at, plus the overall mean AP under "mean" and
// the familiar AP@0.50 / AP@0.75 aggregates when those thresholds are
// configured.  Combinations with zero ground truth are excluded from the
// averages rather than treated as zero.
func (m *MeanAPMetric) Result() map[string]float64 {

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]float64)

	var all []float64
	byThr := make([][]float64, len(m.params.IoUThresholds))

	for _, class := range m.acc.classes {

		cells := m.acc.byClass[class]

		for ai, area := range m.params.AreaRanges {

			var aps []float64

			for ti := range m.params.IoUThresholds {
				cell := cells[m.params.cellIdx(ai, ti)]

				if cell.gt == 0 {
					// no ground truth ever observed for this combination,
					// excluded from the average
					continue
				}

				ap := averagePrecision(cell.dec, cell.gt)
				aps = append(aps, ap)
				all = append(all, ap)
				byThr[ti] = append(byThr[ti], ap)
			}

			if len(aps) > 0 {
				out[m.params.metricName(class, area.Name)] = stat.Mean(aps, nil)
			}
		}
	}

	if len(all) > 0 {
		out["mean"] = stat.Mean(all, nil)
	} else {
		out["mean"] = 0
	}

	for ti, thr := range m.params.IoUThresholds {
		if (thr == 0.5 || thr == 0.75) && len(byThr[ti]) > 0 {
			out[fmt.Sprintf("AP@%.2f", thr)] = stat.Mean(byThr[ti], nil)
		}
	}

	return out
}

// averagePrecision interpolates the area under the precision-recall curve
// at 101 equally spaced recall points in [0,1].  For each recall point r
// the precision is the maximum precision achieved at any recall >= r (the
// monotonic envelope), AP is the mean over the 101 points.
func averagePrecision(dec []Decision, gt int) float64 {

	// confidence descending across all folded images, stable so equal
	// scores keep fold order
	sorted := make([]Decision, len(dec))
	copy(sorted, dec)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	n := len(sorted)

	// cumulative precision and recall along the sorted sequence
	prec := make([]float64, n)
	rec := make([]float64, n)
	tp := 0

	for i, d := range sorted {
		if d.TP {
			tp++
		}
		prec[i] = float64(tp) / float64(i+1)
		rec[i] = float64(tp) / float64(gt)
	}

	// monotonic precision envelope from the right
	for i := n - 2; i >= 0; i-- {
		if prec[i+1] > prec[i] {
			prec[i] = prec[i+1]
		}
	}

	samples := make([]float64, 101)
	j := 0

	for k := 0; k <= 100; k++ {
		r := float64(k) / 100.0

		// recall is non decreasing so the scan position only moves forward
		for j < n && rec[j] < r {
			j++
		}

		if j < n {
			samples[k] = prec[j]
		}

		// past the achieved recall the interpolated precision is 0
	}

	return stat.Mean(samples, nil)
}
