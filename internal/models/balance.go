package models

// Balances maps participant ID to net balance.
// Positive = owed money, negative = owes money.
type Balances map[string]float64

// Sum returns the total of all balances. It is zero (within Tolerance) when
// every expense is fully split.
func (b Balances) Sum() float64 {
	var total float64
	for _, v := range b {
		total += v
	}
	return total
}

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// MemberBalance is the per-participant summary shown on the dashboard.
type MemberBalance struct {
	ParticipantID string  `json:"participantId"`
	Paid          float64 `json:"paid"` // Total paid across pending expenses
	Owed          float64 `json:"owed"` // Total share of pending expenses
	Net           float64 `json:"net"`  // Paid - Owed
}
