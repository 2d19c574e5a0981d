package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		frequency Frequency
		anchorDay int
		want      time.Time
	}{
		{
			name:      "weekly adds seven days",
			start:     date(2024, 1, 15),
			frequency: FrequencyWeekly,
			want:      date(2024, 1, 22),
		},
		{
			name:      "weekly crosses month boundary",
			start:     date(2024, 1, 29),
			frequency: FrequencyWeekly,
			want:      date(2024, 2, 5),
		},
		{
			name:      "monthly preserves day",
			start:     date(2024, 3, 15),
			frequency: FrequencyMonthly,
			anchorDay: 15,
			want:      date(2024, 4, 15),
		},
		{
			name:      "monthly clamps 31st into leap february",
			start:     date(2024, 1, 31),
			frequency: FrequencyMonthly,
			anchorDay: 31,
			want:      date(2024, 2, 29),
		},
		{
			name:      "monthly clamps 31st into 30-day month",
			start:     date(2024, 3, 31),
			frequency: FrequencyMonthly,
			anchorDay: 31,
			want:      date(2024, 4, 30),
		},
		{
			name:      "monthly restores anchor after clamp",
			start:     date(2024, 2, 29),
			frequency: FrequencyMonthly,
			anchorDay: 31,
			want:      date(2024, 3, 31),
		},
		{
			name:      "monthly december wraps year",
			start:     date(2024, 12, 10),
			frequency: FrequencyMonthly,
			anchorDay: 10,
			want:      date(2025, 1, 10),
		},
		{
			name:      "yearly adds one year",
			start:     date(2024, 6, 15),
			frequency: FrequencyYearly,
			anchorDay: 15,
			want:      date(2025, 6, 15),
		},
		{
			name:      "yearly clamps leap day",
			start:     date(2024, 2, 29),
			frequency: FrequencyYearly,
			anchorDay: 29,
			want:      date(2025, 2, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.start, tt.frequency, tt.anchorDay)
			if err != nil {
				t.Fatalf("Advance() error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Advance(%v, %s) = %v, want %v", tt.start, tt.frequency, got, tt.want)
			}
		})
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	start := date(2024, 1, 31)
	first, err := Advance(start, FrequencyMonthly, 31)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Advance(start, FrequencyMonthly, 31)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) {
		t.Errorf("repeated Advance disagrees: %v vs %v", first, second)
	}
}

func TestRollbackInvertsAdvance(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		frequency Frequency
		anchorDay int
	}{
		{name: "weekly", start: date(2024, 1, 15), frequency: FrequencyWeekly},
		{name: "monthly plain", start: date(2024, 3, 15), frequency: FrequencyMonthly, anchorDay: 15},
		{name: "monthly clamped", start: date(2024, 1, 31), frequency: FrequencyMonthly, anchorDay: 31},
		{name: "monthly from 30th", start: date(2024, 4, 30), frequency: FrequencyMonthly, anchorDay: 30},
		{name: "yearly", start: date(2023, 7, 4), frequency: FrequencyYearly, anchorDay: 4},
		{name: "yearly leap day", start: date(2024, 2, 29), frequency: FrequencyYearly, anchorDay: 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advanced, err := Advance(tt.start, tt.frequency, tt.anchorDay)
			if err != nil {
				t.Fatal(err)
			}
			back, err := Rollback(advanced, tt.frequency, tt.anchorDay)
			if err != nil {
				t.Fatal(err)
			}
			if !back.Equal(tt.start) {
				t.Errorf("Rollback(Advance(%v)) = %v, want original", tt.start, back)
			}
		})
	}
}

func TestRuleForUnknownFrequency(t *testing.T) {
	if _, err := RuleFor(Frequency("fortnightly")); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
