/*
go-detmetrics evaluates object detection model output against ground truth
using the COCO evaluation protocol.  It accumulates true positive, false
positive, and false negative counts over streamed batches of predicted and
ground truth bounding boxes, across object classes, area ranges, and a set
of IoU thresholds, then derives recall and mean Average Precision from the
accumulated state.

The root package provides the bounding box and batch container types used
to feed the metrics.  See the evaluate subpackage for the matching pipeline
and the RecallMetric and MeanAPMetric facades.
*/
package detmetrics
