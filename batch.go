package detmetrics

import (
	"fmt"
)

// gtStride is the number of values per ground truth box in a flat padded
// buffer (x1, y1, x2, y2, class)
const gtStride = 5

// predStride is the number of values per prediction in a flat padded
// buffer (x1, y1, x2, y2, class, score)
const predStride = 6

// Image holds the ground truth boxes and predictions of one image
type Image struct {
	GroundTruth []Box
	Predictions []Prediction
}

// Batch defines a fixed capacity container holding the per image ground
// truth and prediction lists of one evaluation batch.  Padding sentinels
// are stripped on Add so downstream matching code never sees them.
type Batch struct {
	images []Image
	// size is the image capacity of the batch
	size int
	// imgCnt is a counter for how many images have been added with Add()
	imgCnt int
}

// NewBatch creates a batch with capacity for the given number of images
func NewBatch(size int) *Batch {
	return &Batch{
		images: make([]Image, size),
		size:   size,
		imgCnt: 0,
	}
}

// Add an image to the batch
func (b *Batch) Add(img Image) error {

	// check if batch is full
	if b.imgCnt >= b.size {
		return fmt.Errorf("batch full")
	}

	res := b.addAt(b.imgCnt, img)

	if res != nil {
		return res
	}

	// increment image counter
	b.imgCnt++
	return nil
}

// AddAt adds an image to the batch at the specific index location
func (b *Batch) AddAt(idx int, img Image) error {

	if idx < 0 || idx >= b.size {
		return fmt.Errorf("index %d out of range [0-%d)", idx, b.size)
	}

	return b.addAt(idx, img)
}

// addAt adds an image to the specified index location
func (b *Batch) addAt(idx int, img Image) error {

	b.images[idx] = Image{
		GroundTruth: StripPadding(img.GroundTruth),
		Predictions: StripPaddingPredictions(img.Predictions),
	}

	return nil
}

// Len returns the number of images added to the batch
func (b *Batch) Len() int {
	return b.imgCnt
}

// Images returns the images added to the batch
func (b *Batch) Images() []Image {
	return b.images[:b.imgCnt]
}

// Clear the batch so it can be reused again
func (b *Batch) Clear() {
	// just reset the counter, the underlying images will be overwritten
	// when Add() is called with new data
	b.imgCnt = 0
}

// FromPadded builds a batch from flat fixed shape buffers.  gt holds
// images*maxGT ground truth boxes of 5 values each (x1, y1, x2, y2, class)
// and preds holds images*maxPred predictions of 6 values each (x1, y1, x2,
// y2, class, score).  Entries with all values set to PadValue are padding
// and are dropped.  The resulting batch is semantically equivalent to
// adding the same boxes as jagged per image lists.
func FromPadded(gt, preds []float32, images, maxGT, maxPred int) (*Batch, error) {

	if len(gt) != images*maxGT*gtStride {
		return nil, fmt.Errorf("ground truth buffer length %d does not match %d images of %d boxes",
			len(gt), images, maxGT)
	}

	if len(preds) != images*maxPred*predStride {
		return nil, fmt.Errorf("prediction buffer length %d does not match %d images of %d boxes",
			len(preds), images, maxPred)
	}

	b := NewBatch(images)

	for i := 0; i < images; i++ {

		img := Image{}

		for j := 0; j < maxGT; j++ {
			off := (i*maxGT + j) * gtStride

			box := Box{
				X1:    gt[off],
				Y1:    gt[off+1],
				X2:    gt[off+2],
				Y2:    gt[off+3],
				Class: int(gt[off+4]),
			}

			img.GroundTruth = append(img.GroundTruth, box)
		}

		for j := 0; j < maxPred; j++ {
			off := (i*maxPred + j) * predStride

			pred := Prediction{
				Box: Box{
					X1:    preds[off],
					Y1:    preds[off+1],
					X2:    preds[off+2],
					Y2:    preds[off+3],
					Class: int(preds[off+4]),
				},
				Score: preds[off+5],
			}

			img.Predictions = append(img.Predictions, pred)
		}

		if err := b.Add(img); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// FromFloat16Padded builds a batch from flat fixed shape buffers of
// float16 values encoded as uint16 bits, as produced by models with
// float16 output tensors.  The layout matches FromPadded.
func FromFloat16Padded(gt, preds []uint16, images, maxGT, maxPred int) (*Batch, error) {
	return FromPadded(DecodeFloat16(gt), DecodeFloat16(preds),
		images, maxGT, maxPred)
}
