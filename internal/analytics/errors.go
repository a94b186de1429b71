package analytics

import (
	"errors"
	"fmt"
)

// ErrMalformedTimestamp marks a single record whose stored timestamp
// cannot be parsed. The record is skipped by the stage that needed
// the timestamp; the request keeps going.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// AggregationError is an unexpected internal fault in the pipeline.
// The metric contracts guard every division, so seeing one of these
// means a bug, not a runtime condition to handle.
type AggregationError struct {
	Stage string
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed in %s: %v", e.Stage, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
