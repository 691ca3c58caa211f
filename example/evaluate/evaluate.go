package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/swdee/go-detmetrics"
	"github.com/swdee/go-detmetrics/evaluate"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	numImages := flag.Int("n", 256, "Number of images to generate detections for")
	batchSize := flag.Int("b", 16, "Number of images per update batch")
	poolSize := flag.Int("s", 4, "Size of the batch container pool")
	labelFile := flag.String("l", "", "Optional labels file, one class name per line")
	noise := flag.Float64("e", 0.25, "Detector error rate, fraction of boxes missed or hallucinated")
	seed := flag.Int64("r", 42, "Random seed for the synthetic detections")

	flag.Parse()

	var labels []string

	if *labelFile != "" {
		var err error
		labels, err = detmetrics.LoadLabels(*labelFile)

		if err != nil {
			log.Fatalf("Error reading labels file: %v\n", err)
		}
	}

	params := evaluate.COCOParams()
	params.Labels = labels

	recall, err := evaluate.NewRecallMetric(params)

	if err != nil {
		log.Fatalf("Error creating recall metric: %v\n", err)
	}

	meanAP, err := evaluate.NewMeanAPMetric(params)

	if err != nil {
		log.Fatalf("Error creating mAP metric: %v\n", err)
	}

	// batch containers are pooled so concurrent producers reuse them
	pool := detmetrics.NewBatchPool(*poolSize, *batchSize)
	defer pool.Close()

	rng := rand.New(rand.NewSource(*seed))

	log.Println("Running...")

	// metric updates are safe to call concurrently, each filled batch is
	// handed to a goroutine which returns it to the pool when done
	var wg sync.WaitGroup

	for done := 0; done < *numImages; {

		// pool.Get() blocks if no batch containers are available
		batch := pool.Get()

		for i := 0; i < *batchSize && done < *numImages; i++ {
			gt, preds := syntheticImage(rng, *noise)

			if err := batch.Add(detmetrics.Image{
				GroundTruth: gt,
				Predictions: preds,
			}); err != nil {
				log.Fatalf("Error adding image to batch: %v\n", err)
			}

			done++
		}

		wg.Add(1)

		go func(b *detmetrics.Batch) {
			defer wg.Done()

			if err := recall.UpdateBatch(b); err != nil {
				log.Printf("Recall update error: %v\n", err)
			}

			if err := meanAP.UpdateBatch(b); err != nil {
				log.Printf("mAP update error: %v\n", err)
			}

			pool.Return(b)
		}(batch)
	}

	wg.Wait()

	recall.Summary(os.Stdout)

	printResults("Recall", recall.Result())
	printResults("Average Precision", meanAP.Result())
}

// printResults writes a result map in sorted key order
func printResults(title string, results map[string]float64) {

	log.Printf("%s:\n", title)

	keys := make([]string, 0, len(results))

	for key := range results {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		log.Printf("  %s = %.4f\n", key, results[key])
	}
}

// syntheticImage builds a random scene and a noisy detector response for
// it.  With probability noise a ground truth box is missed, and the same
// fraction of stray predictions is added.
func syntheticImage(rng *rand.Rand, noise float64) ([]detmetrics.Box,
	[]detmetrics.Prediction) {

	var gt []detmetrics.Box
	var preds []detmetrics.Prediction

	numBoxes := 1 + rng.Intn(8)

	for i := 0; i < numBoxes; i++ {

		x := rng.Float32() * 500
		y := rng.Float32() * 500
		w := 10 + rng.Float32()*120
		h := 10 + rng.Float32()*120

		box := detmetrics.Box{
			X1: x, Y1: y, X2: x + w, Y2: y + h,
			Class: rng.Intn(4),
		}

		gt = append(gt, box)

		if rng.Float64() < noise {
			// detector missed this one
			continue
		}

		// jitter the detection around the truth
		dx := (rng.Float32() - 0.5) * w * 0.2
		dy := (rng.Float32() - 0.5) * h * 0.2

		preds = append(preds, detmetrics.Prediction{
			Box: detmetrics.Box{
				X1: box.X1 + dx, Y1: box.Y1 + dy,
				X2: box.X2 + dx, Y2: box.Y2 + dy,
				Class: box.Class,
			},
			Score: 0.5 + rng.Float32()*0.5,
		})

		if rng.Float64() < noise {
			// hallucinated detection somewhere else
			x := rng.Float32() * 500
			y := rng.Float32() * 500

			preds = append(preds, detmetrics.Prediction{
				Box: detmetrics.Box{
					X1: x, Y1: y, X2: x + 30, Y2: y + 30,
					Class: rng.Intn(4),
				},
				Score: rng.Float32() * 0.5,
			})
		}
	}

	return gt, preds
}
