package userdata

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserNumber(t *testing.T) {
	tests := []struct {
		userID string
		want   int
	}{
		{userID: "abc", want: 294},
		{userID: "", want: 0},
		{userID: "u1", want: 166},
		{userID: "zzzzzzzzzz", want: 220}, // 10 * 122 = 1220
		{userID: "😀", want: 189},          // 0xD83D + 0xDE00 = 112189
		{userID: "é", want: 233},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			assert.Equal(t, tt.want, UserNumber(tt.userID))
		})
	}
}

func TestUserNumber_AlwaysInRange(t *testing.T) {
	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("user-%d-%x", i, i*7919)
		n := UserNumber(id)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 1000)
		assert.Equal(t, n, UserNumber(id), "UserNumber must be deterministic for %q", id)
	}
}

func TestGenerate(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC))
	gen := NewGenerator(mock)

	rec := gen.Generate("abc")

	assert.Equal(t, Record{
		UserID:     "abc",
		Message:    "Hello, user abc!",
		Timestamp:  "2025-03-14T09:26:53.589Z",
		UserNumber: 294,
	}, rec)
}

func TestGenerate_OnlyTimestampVaries(t *testing.T) {
	mock := clock.NewMock()
	gen := NewGenerator(mock)

	first := gen.Generate("u1")
	mock.Add(1500 * time.Millisecond)
	second := gen.Generate("u1")

	assert.Equal(t, "1970-01-01T00:00:00.000Z", first.Timestamp)
	assert.Equal(t, "1970-01-01T00:00:01.500Z", second.Timestamp)
	assert.NotEqual(t, first.Timestamp, second.Timestamp)

	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, first.UserNumber, second.UserNumber)
}

func TestGenerate_TimestampIsUTC(t *testing.T) {
	mock := clock.NewMock()
	tokyo := time.FixedZone("JST", 9*60*60)
	mock.Set(time.Date(2025, 1, 1, 9, 0, 0, 0, tokyo))

	rec := NewGenerator(mock).Generate("abc")

	parsed, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00.000Z", rec.Timestamp)
	assert.True(t, parsed.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNewGenerator_DefaultsToWallClock(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Millisecond)
	rec := NewGenerator(nil).Generate("abc")

	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	require.NoError(t, err)
	assert.False(t, ts.Before(before))
}
