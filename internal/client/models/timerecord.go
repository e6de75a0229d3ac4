package models

import "time"

// TimeRecordKind distinguishes shift boundaries.
type TimeRecordKind string

const (
	TimeRecordClockIn  TimeRecordKind = "clock_in"
	TimeRecordClockOut TimeRecordKind = "clock_out"
)

// TimeRecord is a clock-in/clock-out event captured in the field. The sync
// core is the only writer of IsSynced after creation.
type TimeRecord struct {
	ID         int64
	Kind       TimeRecordKind
	RecordedAt time.Time
	Latitude   float64
	Longitude  float64
	Note       string
	IsSynced   bool
}
