package models

import "time"

// ReportSeverity classifies activity reports.
type ReportSeverity string

const (
	SeverityInfo     ReportSeverity = "info"
	SeverityIncident ReportSeverity = "incident"
	SeverityCritical ReportSeverity = "critical"
)

// Report is a free-form activity report. RemoteId is assigned by the backend
// on acceptance.
type Report struct {
	ID        int64
	Title     string
	Body      string
	Severity  ReportSeverity
	CreatedAt time.Time
	RemoteId  string
	IsSynced  bool
}
