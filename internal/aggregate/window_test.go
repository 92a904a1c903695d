package aggregate

import (
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name     string
		t        time.Time
		scheme   WeekScheme
		wantYear int
		wantWeek int
	}{
		{"monday scheme, year starts on monday", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), WeekMonday, 2024, 1},
		{"monday scheme, sunday before first monday", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), WeekMonday, 2023, 0},
		{"monday scheme, first monday", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), WeekMonday, 2023, 1},
		{"monday scheme, last day of 2024", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), WeekMonday, 2024, 53},
		{"monday scheme, new year wednesday", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), WeekMonday, 2025, 0},
		{"sunday scheme, year starts on sunday", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), WeekSunday, 2023, 1},
		{"sunday scheme, saturday before first sunday", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), WeekSunday, 2022, 0},
		{"iso scheme, new year belongs to week 1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), WeekISO, 2025, 1},
		{"iso scheme, december day in next iso year", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), WeekISO, 2025, 1},
		{"iso scheme, january day in previous iso year", time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), WeekISO, 2020, 53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, w := WeekKey(tt.t, tt.scheme)
			if y != tt.wantYear || w != tt.wantWeek {
				t.Errorf("WeekKey() = (%d, %d), want (%d, %d)", y, w, tt.wantYear, tt.wantWeek)
			}
		})
	}
}

func TestWeekMatcher_YearBoundary(t *testing.T) {
	monday := time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	if (WeekMatcher{Scheme: WeekMonday}).Contains(monday, wednesday) {
		t.Errorf("monday scheme should split the week at the year boundary")
	}
	if !(WeekMatcher{Scheme: WeekISO}).Contains(monday, wednesday) {
		t.Errorf("iso scheme should keep both days in the same week")
	}
}

func TestWindowMatchers(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) // Wednesday
	m := Matchers(WeekMonday)

	tests := []struct {
		name string
		ts   time.Time
		want map[Window]bool
	}{
		{
			name: "same day",
			ts:   time.Date(2024, 3, 13, 0, 0, 1, 0, time.UTC),
			want: map[Window]bool{Day: true, Week: true, Month: true, Year: true},
		},
		{
			name: "monday of the same week",
			ts:   time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
			want: map[Window]bool{Day: false, Week: true, Month: true, Year: true},
		},
		{
			name: "sunday of the previous week",
			ts:   time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC),
			want: map[Window]bool{Day: false, Week: false, Month: true, Year: true},
		},
		{
			name: "previous month",
			ts:   time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			want: map[Window]bool{Day: false, Week: false, Month: false, Year: true},
		},
		{
			name: "same date last year",
			ts:   time.Date(2023, 3, 13, 12, 0, 0, 0, time.UTC),
			want: map[Window]bool{Day: false, Week: false, Month: false, Year: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for w, want := range tt.want {
				if got := m[w].Contains(tt.ts, now); got != want {
					t.Errorf("%s.Contains() = %v, want %v", w, got, want)
				}
			}
		})
	}
}

func TestParseWeekScheme(t *testing.T) {
	for _, in := range []string{"monday", "SUNDAY", " iso "} {
		if _, err := ParseWeekScheme(in); err != nil {
			t.Errorf("ParseWeekScheme(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseWeekScheme("tuesday"); err == nil {
		t.Errorf("expected error for unknown scheme")
	}
}
