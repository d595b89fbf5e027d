package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	date := NewDate(2026, time.September, 14)

	raw, err := json.Marshal(date)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-14"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(date.Time))
}

func TestDateUnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	err := json.Unmarshal([]byte(`"14.09.2026"`), &d)
	require.Error(t, err)
}

func TestDateScanVariants(t *testing.T) {
	want := NewDate(2025, time.December, 31)

	var fromTime Date
	require.NoError(t, fromTime.Scan(want.Time))
	assert.True(t, fromTime.Equal(want.Time))

	var fromBytes Date
	require.NoError(t, fromBytes.Scan([]byte("2025-12-31")))
	assert.True(t, fromBytes.Equal(want.Time))

	var fromString Date
	require.NoError(t, fromString.Scan("2025-12-31"))
	assert.True(t, fromString.Equal(want.Time))

	var fromNil Date
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	var fromInt Date
	require.Error(t, fromInt.Scan(12345))
}

func TestDateValueIsTime(t *testing.T) {
	date := NewDate(2026, time.January, 2)
	v, err := date.Value()
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(date.Time))
}
