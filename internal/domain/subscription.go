package domain

// Subscription is a recurring charge, either detected from transaction
// history or asserted by the user.
type Subscription struct {
	Merchant       string  `json:"merchant"`
	IntervalDays   int     `json:"interval_days"`
	MonthlyCost    float64 `json:"monthly_cost"`
	NextChargeDate string  `json:"next_charge_date"`
	// Confidence is nil for manually declared subscriptions.
	Confidence *float64 `json:"confidence"`
}

// Detected reports whether the subscription was inferred rather than declared.
func (s Subscription) Detected() bool {
	return s.Confidence != nil
}
