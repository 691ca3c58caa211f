package evaluate

import (
	"sync"

	"github.com/swdee/go-detmetrics"
	"gonum.org/v1/gonum/stat"
)

// RecallMetric accumulates match statistics over streamed batches and
// reports recall (TP / (TP + FN)) per class and area range, averaged over
// the configured IoU thresholds
type RecallMetric struct {
	mu     sync.Mutex
	params Params
	pipe   *pipeline
	acc    *statAccumulator
}

// NewRecallMetric returns a recall metric instance for the given
// parameters.  The configuration is fixed for the lifetime of the metric,
// configuration errors are rejected here rather than at first update.
func NewRecallMetric(p Params) (*RecallMetric, error) {

	p, err := p.withDefaults()

	if err != nil {
		return nil, err
	}

	return &RecallMetric{
		params: p,
		pipe:   newPipeline(p),
		acc:    newStatAccumulator(p.numCells(), p.Classes),
	}, nil
}

// Update folds one batch of ground truth boxes and predictions into the
// accumulated statistics.  gt and preds are parallel per image lists.
// Padding sentinels are stripped before matching.  A contract violation
// rejects the whole batch with a ValidationError and leaves the
// accumulated state untouched.
func (m *RecallMetric) Update(gt [][]detmetrics.Box,
	preds [][]detmetrics.Prediction) error {

	images, err := m.pipe.validate(gt, preds)

	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pipe.run(images, func(class, cell int, st imageStats) {
		m.acc.fold(class, cell, st.tp, st.fp, st.fn)
	})

	return nil
}

// UpdateBatch folds a filled batch container into the accumulated
// statistics
func (m *RecallMetric) UpdateBatch(b *detmetrics.Batch) error {
	gt, preds := splitBatch(b)
	return m.Update(gt, preds)
}

// Reset zeroes the accumulated statistics for a new evaluation epoch
func (m *RecallMetric) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acc.reset()
}

// Result computes recall from the accumulated counts without mutating
// them, it may be called any number of times.  The returned map holds one
// entry per (class, area range) combination named by Params.metricName, an
// "overall/<area>" entry per area range with counts pooled across classes,
// and the overall average of the pooled entries under "mean".  A
// combination with no ground truth observed yet reports the degenerate
// value 0.
func (m *RecallMetric) Result() map[string]float64 {

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]float64)

	pooledTP := make([]int, m.params.numCells())
	pooledFN := make([]int, m.params.numCells())

	for _, class := range m.acc.classList() {

		cells := m.acc.byClass[class]

		for ai, area := range m.params.AreaRanges {

			recalls := make([]float64, len(m.params.IoUThresholds))

			for ti := range m.params.IoUThresholds {
				cell := m.params.cellIdx(ai, ti)
				c := cells[cell]

				if c.tp+c.fn > 0 {
					recalls[ti] = float64(c.tp) / float64(c.tp+c.fn)
				}

				// no ground truth observed resolves to 0, not NaN

				pooledTP[cell] += c.tp
				pooledFN[cell] += c.fn
			}

			out[m.params.metricName(class, area.Name)] = stat.Mean(recalls, nil)
		}
	}

	// pooled recall across classes per area range, and the aggregate
	// scalar over all areas
	overall := make([]float64, len(m.params.AreaRanges))

	for ai, area := range m.params.AreaRanges {

		recalls := make([]float64, len(m.params.IoUThresholds))

		for ti := range m.params.IoUThresholds {
			cell := m.params.cellIdx(ai, ti)

			if pooledTP[cell]+pooledFN[cell] > 0 {
				recalls[ti] = float64(pooledTP[cell]) /
					float64(pooledTP[cell]+pooledFN[cell])
			}
		}

		overall[ai] = stat.Mean(recalls, nil)
		out["overall/"+area.Name] = overall[ai]
	}

	out["mean"] = stat.Mean(overall, nil)

	return out
}

// splitBatch converts a batch container into the parallel per image lists
// consumed by Update
func splitBatch(b *detmetrics.Batch) ([][]detmetrics.Box, [][]detmetrics.Prediction) {

	images := b.Images()

	gt := make([][]detmetrics.Box, len(images))
	preds := make([][]detmetrics.Prediction, len(images))

	for i, img := range images {
		gt[i] = img.GroundTruth
		preds[i] = img.Predictions
	}

	return gt, preds
}
