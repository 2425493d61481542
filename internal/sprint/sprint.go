// Package sprint models the planning calendar: every month is split into two
// sprints, days 1-15 and day 16 through the end of the month.
package sprint

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SprintsPerYear = 24
	FirstHalfEnd   = 15
)

var ErrInvalidKey = errors.New("invalid sprint key")

type Sprint struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Index int `json:"sprint"`
}

func New(year, month, index int) Sprint {
	return Sprint{Year: year, Month: month, Index: index}
}

// Current returns the sprint containing now.
func Current(now time.Time) Sprint {
	index := 1
	if now.Day() > FirstHalfEnd {
		index = 2
	}
	return Sprint{Year: now.Year(), Month: int(now.Month()), Index: index}
}

func (s Sprint) Valid() bool {
	return s.Month >= 1 && s.Month <= 12 && (s.Index == 1 || s.Index == 2)
}

func (s Sprint) Next() Sprint {
	if s.Index == 1 {
		return Sprint{Year: s.Year, Month: s.Month, Index: 2}
	}
	if s.Month == 12 {
		return Sprint{Year: s.Year + 1, Month: 1, Index: 1}
	}
	return Sprint{Year: s.Year, Month: s.Month + 1, Index: 1}
}

func (s Sprint) Prev() Sprint {
	if s.Index == 2 {
		return Sprint{Year: s.Year, Month: s.Month, Index: 1}
	}
	if s.Month == 1 {
		return Sprint{Year: s.Year - 1, Month: 12, Index: 2}
	}
	return Sprint{Year: s.Year, Month: s.Month - 1, Index: 2}
}

// DateRange returns the first and last day of month covered by the sprint.
func (s Sprint) DateRange() (int, int) {
	if s.Index == 1 {
		return 1, FirstHalfEnd
	}
	return FirstHalfEnd + 1, LastDayOfMonth(s.Year, s.Month)
}

// Dates returns midnight of the first day and midnight of the last day.
func (s Sprint) Dates(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	startDay, endDay := s.DateRange()
	start := time.Date(s.Year, time.Month(s.Month), startDay, 0, 0, 0, 0, loc)
	end := time.Date(s.Year, time.Month(s.Month), endDay, 0, 0, 0, 0, loc)
	return start, end
}

func (s Sprint) Compare(other Sprint) int {
	switch {
	case s.Year != other.Year:
		return cmp.Compare(s.Year, other.Year)
	case s.Month != other.Month:
		return cmp.Compare(s.Month, other.Month)
	default:
		return cmp.Compare(s.Index, other.Index)
	}
}

func (s Sprint) Before(other Sprint) bool {
	return s.Compare(other) < 0
}

// IsPast reports whether s ends before the sprint containing now.
func (s Sprint) IsPast(now time.Time) bool {
	return s.Before(Current(now))
}

// Key is the canonical "{year}-{month}-{sprint}" form used by persisted maps.
func (s Sprint) Key() string {
	return fmt.Sprintf("%d-%d-%d", s.Year, s.Month, s.Index)
}

func (s Sprint) String() string {
	return s.Key()
}

func ParseKey(key string) (Sprint, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return Sprint{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return parseParts(key, parts)
}

// Window returns n consecutive sprints starting at from.
func Window(from Sprint, n int) []Sprint {
	if n <= 0 {
		return nil
	}
	out := make([]Sprint, 0, n)
	cur := from
	for i := 0; i < n; i++ {
		out = append(out, cur)
		cur = cur.Next()
	}
	return out
}

func LastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EntityKey scopes a sprint to a project or member.
type EntityKey struct {
	EntityID uuid.UUID
	Sprint
}

func NewEntityKey(id uuid.UUID, s Sprint) EntityKey {
	return EntityKey{EntityID: id, Sprint: s}
}

// String renders "{entityId}-{year}-{month}-{sprint}".
func (k EntityKey) String() string {
	return k.EntityID.String() + "-" + k.Sprint.Key()
}

// ParseEntityKey reads the key from the right because the id itself contains hyphens.
func ParseEntityKey(key string) (EntityKey, error) {
	parts := strings.Split(key, "-")
	if len(parts) < 4 {
		return EntityKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	n := len(parts)
	s, err := parseParts(key, parts[n-3:])
	if err != nil {
		return EntityKey{}, err
	}
	id, err := uuid.Parse(strings.Join(parts[:n-3], "-"))
	if err != nil {
		return EntityKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}
	return EntityKey{EntityID: id, Sprint: s}, nil
}

func parseParts(key string, parts []string) (Sprint, error) {
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Sprint{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		nums[i] = n
	}
	s := Sprint{Year: nums[0], Month: nums[1], Index: nums[2]}
	if !s.Valid() {
		return Sprint{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return s, nil
}
