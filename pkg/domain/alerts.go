package domain

// Alerts holds the derived stock flags for a single item.
type Alerts struct {
	Low        bool `json:"low"`
	NearExpiry bool `json:"near_expiry"`
}

// EffectiveThreshold returns the item's own threshold override when set,
// falling back to the global low-stock setting.
func EffectiveThreshold(it Item, s Settings) float64 {
	if it.Threshold != nil {
		return *it.Threshold
	}
	return s.LowThreshold
}

// ComputeAlerts derives the low-stock and near-expiry flags for an item.
// It is pure: the result depends only on the inputs and the current date.
//
// An item whose expiry has already passed is not flagged near-expiry; the
// window covers day 0 through NearExpiryDays inclusive.
func ComputeAlerts(it Item, s Settings) Alerts {
	var a Alerts
	if it.Quantity <= EffectiveThreshold(it, s) {
		a.Low = true
	}
	if it.Expiry != "" {
		if days, ok := DaysUntil(it.Expiry); ok && days >= 0 && days <= s.NearExpiryDays {
			a.NearExpiry = true
		}
	}
	return a
}
