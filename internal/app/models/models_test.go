package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-09-12")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-12", d.String())

	_, err = ParseDate("09/12/2026")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.September, 12)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-12"`, string(raw))

	var parsed Date
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.True(t, parsed.SameDay(d))
}

func TestDateSameDay_IgnoresTimeOfDay(t *testing.T) {
	morning := Date{Time: time.Date(2026, time.September, 12, 8, 0, 0, 0, time.UTC)}
	evening := Date{Time: time.Date(2026, time.September, 12, 22, 30, 0, 0, time.UTC)}
	nextDay := NewDate(2026, time.September, 13)

	assert.True(t, morning.SameDay(evening))
	assert.False(t, morning.SameDay(nextDay))
}
