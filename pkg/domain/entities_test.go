package domain

import (
	"encoding/json"
	"testing"
)

func TestSettingsUnmarshalSubstitutesDefaults(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{}`), &s); err != nil {
		t.Fatalf("unmarshal empty settings: %v", err)
	}
	if s != DefaultSettings() {
		t.Fatalf("empty payload should hydrate to defaults, got %+v", s)
	}

	if err := json.Unmarshal([]byte(`{"low_threshold": 5}`), &s); err != nil {
		t.Fatalf("unmarshal partial settings: %v", err)
	}
	if s.LowThreshold != 5 {
		t.Fatalf("low threshold = %v, want 5", s.LowThreshold)
	}
	if s.NearExpiryDays != DefaultNearExpiryDays || s.PIN != DefaultPIN {
		t.Fatalf("absent fields should default, got %+v", s)
	}

	if err := json.Unmarshal([]byte(`{"low_threshold": 2, "near_expiry_days": 7, "pin": "1234"}`), &s); err != nil {
		t.Fatalf("unmarshal full settings: %v", err)
	}
	if s.LowThreshold != 2 || s.NearExpiryDays != 7 || s.PIN != "1234" {
		t.Fatalf("full payload not honoured: %+v", s)
	}
}

func TestCloneItemIsDeep(t *testing.T) {
	threshold := 5.0
	original := Item{
		ID:             "a",
		Name:           "acetone",
		Quantity:       10,
		Threshold:      &threshold,
		ConsumptionLog: []LogEntry{{Date: "01/01/2024", Amount: 1, Original: 11, Balance: 10}},
	}
	clone := CloneItem(original)
	*clone.Threshold = 99
	clone.ConsumptionLog[0].Amount = 42
	clone.ConsumptionLog = append(clone.ConsumptionLog, LogEntry{})

	if *original.Threshold != 5 {
		t.Fatalf("threshold aliased between clone and original")
	}
	if original.ConsumptionLog[0].Amount != 1 || len(original.ConsumptionLog) != 1 {
		t.Fatalf("consumption log aliased between clone and original")
	}
}
