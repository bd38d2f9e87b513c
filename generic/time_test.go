package generic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2025-03-31", -1, "2025-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2025-01-31", 1, "2025-02-28"},
		{"2025-01-15", -1, "2024-12-15"},
		{"2025-05-31", 13, "2026-06-30"},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParseDate(tt.from).AddMonths(tt.n).String())
		})
	}
	assert.Equal(t, "2025-02-28", MustParseDate("2024-02-29").AddYears(1).String())
}

func TestTimePoint_JSON(t *testing.T) {
	var v struct {
		Date TimePoint `json:"date"`
		None TimePoint `json:"none"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-06-15","none":""}`), &v))
	assert.Equal(t, "2025-06-15", v.Date.String())
	assert.True(t, v.None.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-06-15","none":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"15/06/2025"}`), &v))
}

func TestStaticHolidayCalendar(t *testing.T) {
	cal := &StaticHolidayCalendar{Holidays: []Holiday{
		{CompanyID: "Acme", Date: MustParseDate("2025-07-14"), Name: "Founders Day"},
		{Date: MustParseDate("2020-12-25"), Name: "Christmas Day", Recurring: true},
	}}

	assert.True(t, cal.IsHoliday("Acme", MustParseDate("2025-07-14")))
	assert.False(t, cal.IsHoliday("Globex", MustParseDate("2025-07-14")))
	assert.True(t, cal.IsHoliday("Globex", MustParseDate("2031-12-25")))
	assert.False(t, cal.IsHoliday("Acme", MustParseDate("2026-07-14")))

	got := cal.GetHolidays("Acme", 2025)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-12-25", got[1].Date.String())
}
