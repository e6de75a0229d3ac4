package models

import "time"

// Photo is a captured image kept on disk until the backend confirms the
// upload. RemoteId is assigned by the backend when it issues the upload URL
// and stored once the upload is confirmed.
type Photo struct {
	ID        string // UUID, assigned locally at capture time
	LocalPath string
	Checksum  string // hex SHA-256 of the file contents
	Note      string
	TakenAt   time.Time
	RemoteId  string
	IsSynced  bool
}
