package campfire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func walkDays(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func TestDateRange(t *testing.T) {
	room := &Room{
		Name:       "Den",
		CreatedAt:  mustTime(t, "2020-01-05T10:00:00Z"),
		LastUpdate: mustTime(t, "2020-01-08T09:00:00Z"),
	}

	t.Run("no bounds covers the full activity span inclusive", func(t *testing.T) {
		from, to := room.dateRange(time.Time{}, time.Time{})
		days := walkDays(from, to)
		require.Len(t, days, 4)
		assert.Equal(t, "2020-01-05", days[0].Format("2006-01-02"))
		assert.Equal(t, "2020-01-08", days[3].Format("2006-01-02"))
	})

	t.Run("start inside the span narrows the walk", func(t *testing.T) {
		from, to := room.dateRange(mustTime(t, "2020-01-07T00:00:00Z"), time.Time{})
		assert.Len(t, walkDays(from, to), 2)
	})

	t.Run("start before creation is clamped to creation", func(t *testing.T) {
		from, _ := room.dateRange(mustTime(t, "2019-12-01T00:00:00Z"), time.Time{})
		assert.Equal(t, "2020-01-05", from.Format("2006-01-02"))
	})

	t.Run("end after last activity is clamped to last activity", func(t *testing.T) {
		_, to := room.dateRange(time.Time{}, mustTime(t, "2020-06-01T00:00:00Z"))
		assert.Equal(t, "2020-01-08", to.Format("2006-01-02"))
	})

	t.Run("end before start yields an empty walk", func(t *testing.T) {
		from, to := room.dateRange(mustTime(t, "2020-01-07T00:00:00Z"), mustTime(t, "2020-01-06T00:00:00Z"))
		assert.Empty(t, walkDays(from, to))
	})

	t.Run("bounds are read as calendar dates in the room zone", func(t *testing.T) {
		chicago := mustLocation(t, "America/Chicago")
		localRoom := &Room{
			CreatedAt:  mustTime(t, "2020-01-05T10:00:00Z").In(chicago),
			LastUpdate: mustTime(t, "2020-01-08T09:00:00Z").In(chicago),
		}
		// A UTC-midnight flag date must still select the same calendar day.
		from, to := localRoom.dateRange(mustTime(t, "2020-01-05T00:00:00Z"), mustTime(t, "2020-01-05T00:00:00Z"))
		days := walkDays(from, to)
		require.Len(t, days, 1)
		assert.Equal(t, "2020-01-05", days[0].Format("2006-01-02"))
	})
}
