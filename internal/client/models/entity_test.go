package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/fieldops/internal/common"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		input   string
		want    EntityType
		wantErr bool
	}{
		{"timerecord", EntityTimeRecord, false},
		{"location", EntityLocation, false},
		{"photo", EntityPhoto, false},
		{"report", EntityReport, false},
		{"all", "", true}, // sentinel is not storable
		{"", "", true},
		{"banana", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEntityType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntityTypeValid(t *testing.T) {
	assert.True(t, EntityPhoto.Valid())
	assert.False(t, EntityAll.Valid())
	assert.False(t, EntityType("x").Valid())
}
