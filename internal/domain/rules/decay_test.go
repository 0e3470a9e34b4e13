package rules

import "testing"

func TestDeactivationDaysWorstCaseAtZeroGap(t *testing.T) {
	if got := DeactivationDays(0); got != MaxDeactivationDays {
		t.Fatalf("unexpected days for zero gap: got %d want %d", got, MaxDeactivationDays)
	}
}

func TestDeactivationDaysNegativeGapClampedToZero(t *testing.T) {
	if got := DeactivationDays(-5); got != MaxDeactivationDays {
		t.Fatalf("unexpected days for negative gap: got %d want %d", got, MaxDeactivationDays)
	}
}

func TestDeactivationDaysNonIncreasingAndBounded(t *testing.T) {
	prev := DeactivationDays(0)
	for gap := 1; gap <= 400; gap++ {
		days := DeactivationDays(gap)
		if days > prev {
			t.Fatalf("days increased at gap %d: prev=%d got=%d", gap, prev, days)
		}
		if days < MinDeactivationDays || days > MaxDeactivationDays {
			t.Fatalf("days out of bounds at gap %d: %d", gap, days)
		}
		prev = days
	}
}

func TestDeactivationDaysApproachesMinimum(t *testing.T) {
	if got := DeactivationDays(365); got != MinDeactivationDays {
		t.Fatalf("unexpected days for year-long gap: got %d want %d", got, MinDeactivationDays)
	}
}

func TestDeactivationDaysMidRange(t *testing.T) {
	// floor(1 + 29*e^(-30/30)) = floor(11.66...) = 11
	if got := DeactivationDays(30); got != 11 {
		t.Fatalf("unexpected days for 30-day gap: got %d want 11", got)
	}
}
