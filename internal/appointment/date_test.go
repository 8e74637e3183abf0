package appointment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-10-19", "2026-10-19"},
		{"2026-10-19T00:00:00Z", "2026-10-19"},
		{"2026-10-19T23:30:00-05:00", "2026-10-19"},
		{"2026-10-19T01:00:00+09:00", "2026-10-19"},
	}

	for _, tt := range tests {
		d, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d.String())
		assert.Equal(t, time.UTC, d.Time().Location())
		assert.Zero(t, d.Time().Hour())
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "19-10-2026", "2026-13-01", "2026-02-30", "tomorrow"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestDate_EqualAcrossInputForms(t *testing.T) {
	a, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	b, err := ParseDate("2026-10-19T18:45:00+02:00")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.IsZero())
	assert.True(t, Date{}.IsZero())
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-10-19T08:00:00Z"}`), &payload))
	assert.Equal(t, "2026-10-19", payload.Date.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-10-19"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":20261019}`), &payload))
	assert.Error(t, json.Unmarshal([]byte(`{"date":"19/10/2026"}`), &payload))
}
