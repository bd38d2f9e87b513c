package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func period(from, to string) Period {
	return NewPeriod(MustParseDate(from), MustParseDate(to))
}

func TestPeriod_Validate(t *testing.T) {
	assert.NoError(t, period("2025-01-01", "2025-01-02").Validate())
	assert.ErrorIs(t, period("2025-01-01", "2025-01-01").Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, period("2025-02-01", "2025-01-01").Validate(), ErrInvalidPeriod)
}

func TestPeriod_Relations(t *testing.T) {
	year := period("2025-01-01", "2025-12-31")

	assert.True(t, year.Contains(MustParseDate("2025-12-31")))
	assert.False(t, year.Contains(MustParseDate("2026-01-01")))

	assert.True(t, year.Covers(period("2025-03-01", "2025-03-31")))
	assert.False(t, year.Covers(period("2025-12-30", "2026-01-02")))

	// Sharing one day is an overlap
	assert.True(t, year.Overlaps(period("2025-12-31", "2026-06-30")))
	assert.False(t, year.Overlaps(period("2026-01-01", "2026-06-30")))
}

func TestPeriod_Intersect(t *testing.T) {
	inter, ok := period("2025-03-30", "2025-04-02").Intersect(period("2025-04-01", "2025-04-30"))
	assert.True(t, ok)
	assert.Equal(t, "[2025-04-01, 2025-04-02]", inter.String())
	assert.Equal(t, 2, inter.DaysInclusive())
	assert.Len(t, inter.Days(), 2)

	_, ok = period("2025-01-01", "2025-01-31").Intersect(period("2025-02-01", "2025-02-28"))
	assert.False(t, ok)
}
