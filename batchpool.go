package detmetrics

import (
	"sync"
)

// BatchPool is a pool of reusable batch containers.  Pipelines that feed a
// metric from multiple producer goroutines can draw a batch, fill it, pass
// it to the metric, then return it instead of allocating one per update.
type BatchPool struct {
	// pool of batches
	batches chan *Batch
	// size of pool
	size  int
	close sync.Once
}

// NewBatchPool returns a pool of Batches with the given image capacity
func NewBatchPool(size int, batchSize int) *BatchPool {

	p := &BatchPool{
		batches: make(chan *Batch, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		batch := NewBatch(batchSize)

		// attach to pool
		p.Return(batch)
	}

	return p
}

// Gets a batch from the pool
func (p *BatchPool) Get() *Batch {
	return <-p.batches
}

// Return a batch to the pool
func (p *BatchPool) Return(batch *Batch) {

	batch.Clear()

	select {
	case p.batches <- batch:
	default:
		// pool is full or closed
	}
}

// Close the pool and discard the batches in it
func (p *BatchPool) Close() {
	p.close.Do(func() {
		close(p.batches)

		for range p.batches {
		}
	})
}
