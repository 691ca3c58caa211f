package evaluate

import (
	"fmt"
	"io"
)

// writeParams writes the metric configuration in human readable format
func writeParams(w io.Writer, p Params) {

	fmt.Fprintf(w, "Box Format: %s, Max Detections: %d\n",
		p.Format, p.MaxDetections)

	if len(p.Classes) == 0 {
		fmt.Fprintf(w, "Classes: all observed\n")
	} else {
		fmt.Fprintf(w, "Classes: %v\n", p.Classes)
	}

	fmt.Fprintf(w, "IoU Thresholds: %v\n", p.IoUThresholds)
	fmt.Fprintf(w, "Area Ranges:\n")

	for _, ar := range p.AreaRanges {
		fmt.Fprintf(w, "  %s: [%g, %g]\n", ar.Name, ar.Min, ar.Max)
	}
}

// Summary writes the metric configuration and the accumulated counts per
// (class, area range, IoU threshold) combination in human readable format
func (m *RecallMetric) Summary(w io.Writer) {

	m.mu.Lock()
	defer m.mu.Unlock()

	writeParams(w, m.params)

	fmt.Fprintf(w, "Accumulated counts:\n")

	for _, class := range m.acc.classList() {

		cells := m.acc.byClass[class]

		for ai, area := range m.params.AreaRanges {
			for ti, thr := range m.params.IoUThresholds {
				c := cells[m.params.cellIdx(ai, ti)]

				fmt.Fprintf(w, "  %s iou=%.2f: tp=%d fp=%d fn=%d\n",
					m.params.metricName(class, area.Name), thr,
					c.tp, c.fp, c.fn)
			}
		}
	}
}

// Summary writes the metric configuration and the retained decision counts
// per (class, area range, IoU threshold) combination in human readable
// format
func (m *MeanAPMetric) Summary(w io.Writer) {

	m.mu.Lock()
	defer m.mu.Unlock()

	writeParams(w, m.params)

	fmt.Fprintf(w, "Retained state:\n")

	for _, class := range m.acc.classes {

		cells := m.acc.byClass[class]

		for ai, area := range m.params.AreaRanges {
			for ti, thr := range m.params.IoUThresholds {
				cell := cells[m.params.cellIdx(ai, ti)]

				fmt.Fprintf(w, "  %s iou=%.2f: decisions=%d gt=%d\n",
					m.params.metricName(class, area.Name), thr,
					len(cell.dec), cell.gt)
			}
		}
	}
}
