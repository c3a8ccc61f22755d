package domain

import (
	"testing"
	"time"
)

func float64Ptr(v float64) *float64 { return &v }

func TestComputeAlertsLowStock(t *testing.T) {
	settings := DefaultSettings()

	at := ComputeAlerts(Item{Name: "acetone", Quantity: DefaultLowThreshold}, settings)
	if !at.Low {
		t.Fatalf("quantity equal to threshold should flag low")
	}
	above := ComputeAlerts(Item{Name: "acetone", Quantity: DefaultLowThreshold + 0.001}, settings)
	if above.Low {
		t.Fatalf("quantity above threshold should not flag low")
	}
}

func TestComputeAlertsThresholdOverride(t *testing.T) {
	settings := DefaultSettings()
	it := Item{Name: "ethanol", Quantity: 50, Threshold: float64Ptr(100)}
	if !ComputeAlerts(it, settings).Low {
		t.Fatalf("per-item threshold override should apply")
	}
	it.Threshold = float64Ptr(20)
	if ComputeAlerts(it, settings).Low {
		t.Fatalf("quantity above override should not flag low")
	}
}

func TestComputeAlertsNearExpiryWindow(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 9, 0, 0, 0, time.Local))
	settings := DefaultSettings()
	base := time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)

	cases := []struct {
		name string
		days int
		want bool
	}{
		{"expires today", 0, true},
		{"last day of window", DefaultNearExpiryDays, true},
		{"just past window", DefaultNearExpiryDays + 1, false},
		{"already expired", -1, false},
	}
	for _, tc := range cases {
		it := Item{Name: "x", Quantity: 100, Expiry: FormatDate(base.AddDate(0, 0, tc.days))}
		got := ComputeAlerts(it, settings).NearExpiry
		if got != tc.want {
			t.Fatalf("%s: near expiry = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestComputeAlertsIgnoresMissingOrBadExpiry(t *testing.T) {
	settings := DefaultSettings()
	if ComputeAlerts(Item{Name: "x", Quantity: 100}, settings).NearExpiry {
		t.Fatalf("no expiry must not flag near expiry")
	}
	if ComputeAlerts(Item{Name: "x", Quantity: 100, Expiry: "soon"}, settings).NearExpiry {
		t.Fatalf("unparsable expiry must not flag near expiry")
	}
}
