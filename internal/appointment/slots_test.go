package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  []string
	}{
		{"three hour day", "09:00", "12:00", []string{"09:00", "10:00", "11:00"}},
		{"end excluded", "09:00", "10:00", []string{"09:00"}},
		{"half hour offset", "09:30", "12:00", []string{"09:30", "10:30", "11:30"}},
		{"partial last hour dropped", "16:00", "17:59", []string{"16:00", "17:00"}},
		{"full day", "00:00", "03:00", []string{"00:00", "01:00", "02:00"}},
		{"start equals end", "10:00", "10:00", []string{}},
		{"start after end", "17:00", "09:00", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSlots(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateSlots_EmptyIsNotNil(t *testing.T) {
	got, err := GenerateSlots("12:00", "08:00")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerateSlots_InvalidHours(t *testing.T) {
	for _, pair := range [][2]string{
		{"9am", "17:00"},
		{"09:00", "25:00"},
		{"", "17:00"},
		{"09:00", "17:60"},
	} {
		_, err := GenerateSlots(pair[0], pair[1])
		assert.ErrorIs(t, err, ErrInvalidWorkingHours, "start=%q end=%q", pair[0], pair[1])
	}
}

func TestValidSlotLabel(t *testing.T) {
	valid := []string{"00:00", "09:00", "09:30", "23:59"}
	for _, s := range valid {
		assert.True(t, ValidSlotLabel(s), s)
	}

	invalid := []string{"", "9:00", "09:0", "24:00", "09:60", "0900", "09:00:00", "ab:cd"}
	for _, s := range invalid {
		assert.False(t, ValidSlotLabel(s), s)
	}
}
