package models

import "time"

// StepCount is the aggregated step total for one provider-defined calendar
// day. Measured is false when the provider returned no buckets for the
// window, so a zero can be told apart from a confirmed zero.
type StepCount struct {
	Steps     int64     `json:"steps"`
	Date      string    `json:"date"` // YYYY-MM-DD, UTC
	Measured  bool      `json:"measured"`
	FetchedAt time.Time `json:"fetched_at"`
}
