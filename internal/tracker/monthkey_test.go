package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
)

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"2025-01", false},
		{"2024-12", false},
		{"", true},
		{"2025-1", true},
		{"2025-13", true},
		{"2025/01", true},
		{"2025-01-05", true},
	}
	for _, tt := range tests {
		_, err := ParseMonthKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMonthKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("ParseMonthKey(%q) should return a validation error", tt.key)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := map[string]int{
		"2024-02": 29,
		"2025-02": 28,
		"2025-04": 30,
		"2025-12": 31,
	}
	for key, want := range tests {
		got, err := DaysInMonth(key)
		if err != nil {
			t.Fatalf("DaysInMonth(%q) error = %v", key, err)
		}
		if got != want {
			t.Errorf("DaysInMonth(%q) = %d, want %d", key, got, want)
		}
	}
}

func TestCheckDay(t *testing.T) {
	now := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		monthKey string
		day      int
		wantErr  bool
	}{
		{"today is allowed", "2025-03", 15, false},
		{"past day", "2025-03", 1, false},
		{"past month", "2025-02", 28, false},
		{"tomorrow", "2025-03", 16, true},
		{"future month", "2025-04", 1, true},
		{"day zero", "2025-02", 0, true},
		{"beyond month length", "2025-02", 29, true},
		{"bad key", "March", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDay(tt.monthKey, tt.day, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckDay(%q, %d) error = %v, wantErr %v", tt.monthKey, tt.day, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("CheckDay() error = %v, want validation error", err)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	if err := ValidateDate("2025-01-31"); err != nil {
		t.Errorf("ValidateDate(valid) error = %v", err)
	}
	for _, bad := range []string{"", "2025-1-31", "2025-02-30", "31/01/2025"} {
		if err := ValidateDate(bad); err == nil {
			t.Errorf("ValidateDate(%q) should fail", bad)
		}
	}
}
