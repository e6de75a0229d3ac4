// Package models defines the client-side data model: the four field-captured
// entities (time records, locations, photos, reports) and the sync queue
// bookkeeping types.
package models

import (
	"fmt"

	"github.com/mkravets/fieldops/internal/common"
)

// EntityType tags the kind of local record a sync item refers to.
type EntityType string

const (
	EntityTimeRecord EntityType = "timerecord"
	EntityLocation   EntityType = "location"
	EntityPhoto      EntityType = "photo"
	EntityReport     EntityType = "report"

	// EntityAll is a sentinel used by status events that cover a whole
	// sync pass rather than a single entity type. It is never stored.
	EntityAll EntityType = "all"
)

// Valid reports whether t is one of the four storable entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTimeRecord, EntityLocation, EntityPhoto, EntityReport:
		return true
	}
	return false
}

// ParseEntityType converts a string tag into an EntityType, failing with
// common.ErrInvalidArgument for anything that is not storable.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown entity type %q", common.ErrInvalidArgument, s)
	}
	return t, nil
}
