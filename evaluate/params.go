package evaluate

import (
	"fmt"
	"math"

	"github.com/swdee/go-detmetrics"
)

// AreaRange defines a named filter bucket restricting evaluation to boxes
// whose area falls within the closed range [Min, Max]
type AreaRange struct {
	// Name labels the bucket in metric results, eg: "all" or "small"
	Name string
	// Min is the smallest box area included in the bucket
	Min float32
	// Max is the largest box area included in the bucket
	Max float32
}

// Contains returns true if the given box area falls inside the bucket
func (a AreaRange) Contains(area float32) bool {
	return area >= a.Min && area <= a.Max
}

// Params defines the struct containing the evaluation parameters to use
// for metric construction.  Parameters are fixed for the lifetime of a
// metric instance.
type Params struct {
	// Format is the coordinate layout of input boxes.  Only FormatXYXY is
	// accepted, callers must convert other layouts before batching
	Format detmetrics.BoxFormat
	// Classes are the object class IDs to evaluate.  Leave empty to
	// evaluate all classes observed in the data
	Classes []int
	// AreaRanges are the area filter buckets to evaluate
	AreaRanges []AreaRange
	// IoUThresholds is the list of IoU cutoffs a prediction must reach
	// against a ground truth box to count as a true positive
	IoUThresholds []float32
	// MaxDetections is the maximum number of predictions considered per
	// image, applied after confidence descending sort.  Defaults to 100
	MaxDetections int
	// Labels are optional class label names, where the class ID is the
	// index into the list.  Used to build readable metric result names
	Labels []string
}

// COCOParams returns an instance of Params configured with the standard
// COCO evaluation protocol featuring:
//   - IoU thresholds 0.50 to 0.95 in steps of 0.05
//   - Area ranges: all, small (< 32x32), medium (32x32 to 96x96) and
//     large (> 96x96) measured in squared pixels
//   - Maximum Detections: 100
func COCOParams() Params {
	return Params{
		Format: detmetrics.FormatXYXY,
		AreaRanges: []AreaRange{
			{Name: "all", Min: 0, Max: float32(math.Inf(1))},
			{Name: "small", Min: 0, Max: 32 * 32},
			{Name: "medium", Min: 32 * 32, Max: 96 * 96},
			{Name: "large", Min: 96 * 96, Max: float32(math.Inf(1))},
		},
		IoUThresholds: []float32{
			0.50, 0.55, 0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90, 0.95,
		},
		MaxDetections: 100,
	}
}

// withDefaults fills unset optional parameters and validates the
// configuration.  Configuration errors are rejected here at metric
// construction, not at first update.
func (p Params) withDefaults() (Params, error) {

	if p.MaxDetections == 0 {
		p.MaxDetections = 100
	}

	if p.Format != detmetrics.FormatXYXY {
		return p, fmt.Errorf("box format %s is not supported, convert boxes to xyxy before evaluation",
			p.Format)
	}

	if len(p.IoUThresholds) == 0 {
		return p, fmt.Errorf("at least one IoU threshold is required")
	}

	for _, thr := range p.IoUThresholds {
		if thr <= 0 || thr > 1 {
			return p, fmt.Errorf("IoU threshold %g outside (0,1]", thr)
		}
	}

	if len(p.AreaRanges) == 0 {
		return p, fmt.Errorf("at least one area range is required")
	}

	for _, ar := range p.AreaRanges {
		if ar.Min < 0 {
			return p, fmt.Errorf("area range %q has negative minimum %g",
				ar.Name, ar.Min)
		}

		if ar.Max < ar.Min {
			return p, fmt.Errorf("area range %q is inverted: min %g > max %g",
				ar.Name, ar.Min, ar.Max)
		}
	}

	if p.MaxDetections < 0 {
		return p, fmt.Errorf("max detections must be positive, got %d",
			p.MaxDetections)
	}

	seen := make(map[int]bool)

	for _, class := range p.Classes {
		if class < 0 {
			return p, fmt.Errorf("negative class id %d", class)
		}

		if seen[class] {
			return p, fmt.Errorf("duplicate class id %d", class)
		}

		seen[class] = true
	}

	return p, nil
}

// numCells is the number of accumulation cells per class, one for each
// (area range, IoU threshold) combination
func (p Params) numCells() int {
	return len(p.AreaRanges) * len(p.IoUThresholds)
}

// cellIdx maps an (area range, IoU threshold) index pair to its cell slot
func (p Params) cellIdx(area, thr int) int {
	return area*len(p.IoUThresholds) + thr
}

// metricName builds the composite result name for a class and area bucket
func (p Params) metricName(class int, areaName string) string {
	return fmt.Sprintf("%s/%s", detmetrics.LabelName(p.Labels, class), areaName)
}
