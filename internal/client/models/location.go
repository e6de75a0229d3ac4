package models

import "time"

// Location is a single tracked position sample.
type Location struct {
	ID         int64
	Latitude   float64
	Longitude  float64
	Accuracy   float64 // horizontal accuracy in meters, 0 if unknown
	RecordedAt time.Time
	IsSynced   bool
}
