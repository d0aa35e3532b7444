package backtest

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDates_QuarterlyFirstDate(t *testing.T) {
	dates, err := GenerateDates(RuleQuarterly, date(2024, 1, 1), date(2024, 12, 31))
	if err != nil {
		t.Fatalf("GenerateDates failed: %v", err)
	}

	if len(dates) != 4 {
		t.Fatalf("expected 4 dates, got %d: %v", len(dates), dates)
	}
	if !dates[0].Equal(date(2024, 3, 31)) {
		t.Errorf("expected first date 2024-03-31, got %s", dates[0].Format(DateLayout))
	}

	want := []time.Time{
		date(2024, 3, 31), date(2024, 6, 30), date(2024, 9, 30), date(2024, 12, 31),
	}
	for i, w := range want {
		if !dates[i].Equal(w) {
			t.Errorf("date %d: expected %s, got %s", i, w.Format(DateLayout), dates[i].Format(DateLayout))
		}
	}
}

func TestGenerateDates_InitialOnQuarterEnd(t *testing.T) {
	dates, err := GenerateDates(RuleQuarterly, date(2024, 3, 31), date(2024, 4, 15))
	if err != nil {
		t.Fatalf("GenerateDates failed: %v", err)
	}

	if len(dates) != 1 || !dates[0].Equal(date(2024, 3, 31)) {
		t.Errorf("initial quarter-end should be included, got %v", dates)
	}
}

func TestGenerateDates_AsOfTruncation(t *testing.T) {
	// asOf one day before the quarter-end excludes it.
	dates, err := GenerateDates(RuleQuarterly, date(2024, 1, 1), date(2024, 3, 30))
	if err != nil {
		t.Fatalf("GenerateDates failed: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("expected no dates before the first quarter-end, got %v", dates)
	}

	// asOf exactly on the quarter-end includes it.
	dates, err = GenerateDates(RuleQuarterly, date(2024, 1, 1), date(2024, 3, 31))
	if err != nil {
		t.Fatalf("GenerateDates failed: %v", err)
	}
	if len(dates) != 1 {
		t.Errorf("expected exactly the quarter-end, got %v", dates)
	}
}

func TestGenerateDates_YearBoundary(t *testing.T) {
	dates, err := GenerateDates(RuleQuarterly, date(2023, 11, 15), date(2024, 4, 1))
	if err != nil {
		t.Fatalf("GenerateDates failed: %v", err)
	}

	want := []time.Time{date(2023, 12, 31), date(2024, 3, 31)}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i, w := range want {
		if !dates[i].Equal(w) {
			t.Errorf("date %d: expected %s, got %s", i, w.Format(DateLayout), dates[i].Format(DateLayout))
		}
	}
}

func TestGenerateDates_StrictlyIncreasing(t *testing.T) {
	dates, err := GenerateDates(RuleQuarterly, date(2020, 1, 1), date(2025, 6, 30))
	if err != nil {
		t.Fatalf("GenerateDates failed: %v", err)
	}
	if len(dates) == 0 {
		t.Fatal("expected dates")
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Errorf("sequence not strictly increasing at %d: %s then %s",
				i, dates[i-1].Format(DateLayout), dates[i].Format(DateLayout))
		}
	}
}

func TestGenerateDates_UnknownRule(t *testing.T) {
	_, err := GenerateDates("Monthly", date(2024, 1, 1), date(2024, 12, 31))
	if err == nil {
		t.Fatal("expected error for unknown rule")
	}
	if !IsKind(err, KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestQuarterEnd(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2024, 1, 1), date(2024, 3, 31)},
		{date(2024, 3, 31), date(2024, 3, 31)},
		{date(2024, 5, 10), date(2024, 6, 30)},
		{date(2024, 10, 1), date(2024, 12, 31)},
		{date(2024, 12, 31), date(2024, 12, 31)},
	}

	for _, c := range cases {
		if got := quarterEnd(c.in); !got.Equal(c.want) {
			t.Errorf("quarterEnd(%s): expected %s, got %s",
				c.in.Format(DateLayout), c.want.Format(DateLayout), got.Format(DateLayout))
		}
	}
}
