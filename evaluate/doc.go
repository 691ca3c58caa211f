/*
Package evaluate implements COCO style evaluation of object detection
results.  A metric instance is constructed once with a fixed configuration
of object classes, area ranges, IoU thresholds and a max detections limit,
then fed batches of ground truth and predicted boxes with Update.  Result
computes the final statistic from the accumulated state and may be called
any number of times.  Reset clears the accumulated state for a new
evaluation epoch.

Two metric facades are provided, RecallMetric and MeanAPMetric.  Both run
the same greedy confidence ordered matching assignment per image, class,
area range and IoU threshold.
*/
package evaluate
