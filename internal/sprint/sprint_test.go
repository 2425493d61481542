package sprint

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want Sprint
	}{
		{"first day", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), New(2025, 3, 1)},
		{"day 15", time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC), New(2025, 3, 1)},
		{"day 16", time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), New(2025, 3, 2)},
		{"last day", time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC), New(2025, 12, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Current(tt.now))
		})
	}
}

func TestSprint_Next(t *testing.T) {
	assert.Equal(t, New(2026, 1, 1), New(2025, 12, 2).Next())
	assert.Equal(t, New(2025, 1, 2), New(2025, 1, 1).Next())
	assert.Equal(t, New(2025, 2, 1), New(2025, 1, 2).Next())
}

func TestSprint_Prev(t *testing.T) {
	assert.Equal(t, New(2025, 12, 2), New(2026, 1, 1).Prev())
	assert.Equal(t, New(2025, 1, 1), New(2025, 1, 2).Prev())

	s := New(2024, 7, 2)
	assert.Equal(t, s, s.Next().Prev())
}

func TestSprint_NextCoversYear(t *testing.T) {
	s := New(2025, 1, 1)
	for i := 0; i < SprintsPerYear; i++ {
		s = s.Next()
	}
	assert.Equal(t, New(2026, 1, 1), s)
}

func TestSprint_DateRange(t *testing.T) {
	start, end := New(2025, 3, 1).DateRange()
	assert.Equal(t, 1, start)
	assert.Equal(t, 15, end)

	start, end = New(2025, 3, 2).DateRange()
	assert.Equal(t, 16, start)
	assert.Equal(t, 31, end)

	_, end = New(2024, 2, 2).DateRange()
	assert.Equal(t, 29, end)

	_, end = New(2025, 2, 2).DateRange()
	assert.Equal(t, 28, end)

	_, end = New(2025, 4, 2).DateRange()
	assert.Equal(t, 30, end)
}

func TestSprint_Dates(t *testing.T) {
	start, end := New(2025, 4, 2).Dates(nil)
	assert.Equal(t, time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestSprint_IsPast(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, New(2025, 3, 1).IsPast(now))
	assert.True(t, New(2024, 12, 2).IsPast(now))
	assert.False(t, New(2025, 3, 2).IsPast(now))
	assert.False(t, New(2025, 4, 1).IsPast(now))
}

func TestSprint_Compare(t *testing.T) {
	assert.Equal(t, 0, New(2025, 3, 1).Compare(New(2025, 3, 1)))
	assert.Equal(t, -1, New(2025, 3, 1).Compare(New(2025, 3, 2)))
	assert.Equal(t, 1, New(2025, 4, 1).Compare(New(2025, 3, 2)))
	assert.Equal(t, 1, New(2026, 1, 1).Compare(New(2025, 12, 2)))
}

func TestSprint_Valid(t *testing.T) {
	assert.True(t, New(2025, 1, 1).Valid())
	assert.False(t, New(2025, 0, 1).Valid())
	assert.False(t, New(2025, 13, 1).Valid())
	assert.False(t, New(2025, 6, 3).Valid())
}

func TestWindow(t *testing.T) {
	w := Window(New(2025, 12, 1), 3)
	assert.Equal(t, []Sprint{New(2025, 12, 1), New(2025, 12, 2), New(2026, 1, 1)}, w)
	assert.Nil(t, Window(New(2025, 1, 1), 0))
}

func TestKey_RoundTrip(t *testing.T) {
	s := New(2025, 3, 2)
	assert.Equal(t, "2025-3-2", s.Key())

	parsed, err := ParseKey("2025-3-2")
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestParseKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "2025-3", "2025-x-1", "2025-13-1", "2025-3-3"} {
		_, err := ParseKey(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestEntityKey_RoundTrip(t *testing.T) {
	id := uuid.MustParse("5f0c9a2e-8d1b-4c3a-9e7f-1a2b3c4d5e6f")
	k := NewEntityKey(id, New(2025, 11, 1))

	assert.Equal(t, "5f0c9a2e-8d1b-4c3a-9e7f-1a2b3c4d5e6f-2025-11-1", k.String())

	parsed, err := ParseEntityKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestParseEntityKey_Invalid(t *testing.T) {
	_, err := ParseEntityKey("2025-3-1")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParseEntityKey("not-a-uuid-2025-3-1")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
