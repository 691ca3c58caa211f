package evaluate

import (
	"sort"
)

// counts is one accumulation cell of running TP/FP/FN totals.  Counts only
// increase across update calls, reset is the only way they decrease.
type counts struct {
	tp, fp, fn int
}

// statAccumulator holds the running match statistic counts, one cell per
// (class, area range, IoU threshold) combination.  Cells are stored as an
// indexed slice per class rather than a dynamically keyed map, the cell
// slot layout comes from Params.cellIdx.
type statAccumulator struct {
	// cells is the number of cells per class
	cells int
	// byClass maps class id to its cell slice
	byClass map[int][]counts
	// classes is the sorted list of class ids present in byClass
	classes []int
}

// newStatAccumulator returns an accumulator with cells pre created for the
// configured classes.  When classes is empty, cells are created on demand
// as new classes are observed in the data.
func newStatAccumulator(cells int, classes []int) *statAccumulator {

	a := &statAccumulator{
		cells:   cells,
		byClass: make(map[int][]counts),
	}

	for _, class := range classes {
		a.cellsFor(class)
	}

	return a
}

// cellsFor returns the cell slice for the given class, creating it on
// first use
func (a *statAccumulator) cellsFor(class int) []counts {

	if c, ok := a.byClass[class]; ok {
		return c
	}

	c := make([]counts, a.cells)
	a.byClass[class] = c
	a.classes = insertSorted(a.classes, class)

	return c
}

// fold adds the given counts into the running totals for the cell, it
// never overwrites
func (a *statAccumulator) fold(class, cell, tp, fp, fn int) {
	c := a.cellsFor(class)
	c[cell].tp += tp
	c[cell].fp += fp
	c[cell].fn += fn
}

// reset zeroes all counts
func (a *statAccumulator) reset() {
	for _, c := range a.byClass {
		for i := range c {
			c[i] = counts{}
		}
	}
}

// classList returns the sorted class ids with cells allocated
func (a *statAccumulator) classList() []int {
	return a.classes
}

// insertSorted inserts class into the sorted id list if not present
func insertSorted(classes []int, class int) []int {

	i := sort.SearchInts(classes, class)

	if i < len(classes) && classes[i] == class {
		return classes
	}

	classes = append(classes, 0)
	copy(classes[i+1:], classes[i:])
	classes[i] = class

	return classes
}
