package models

// Settlement is a suggested payment: From should pay To the given Amount.
// Settlements are derived from balances and never persisted.
type Settlement struct {
	// From is the debtor's participant ID.
	From string `json:"from"`

	// To is the creditor's participant ID.
	To string `json:"to"`

	// Amount is always greater than Tolerance.
	Amount float64 `json:"amount"`
}
