package reconcile

import "time"

// Recorder observes the outcome of every write job.
type Recorder interface {
	AutoAbsentDone(rep Report, took time.Duration, err error)
	CascadeDone(rep CascadeReport, took time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) AutoAbsentDone(Report, time.Duration, error) {}
func (nopRecorder) CascadeDone(CascadeReport, time.Duration, error) {}

// NopRecorder discards everything.
var NopRecorder Recorder = nopRecorder{}

// chunk splits entries into batches of at most size.
func chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = len(items)
	}
	var batches [][]T
	for size > 0 && len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		batches = append(batches, items[:n])
		items = items[n:]
	}
	return batches
}
