package models

import "github.com/shopspring/decimal"

// Settlement is one persisted transfer produced by the settlement engine:
// debtor pays creditor the given amount within the event.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// EventID is the event this settlement belongs to.
	EventID string

	// DebtorID is the participant who owes.
	DebtorID string

	// CreditorID is the participant who is owed.
	CreditorID string

	// Amount is the transfer amount, quantized to 2 decimal places.
	Amount decimal.Decimal

	// Settled is false until the debtor marks the transfer as paid.
	Settled bool

	// SettledAt is the Unix timestamp of settling (0 while unsettled).
	SettledAt int64

	// CreatedAt is the Unix timestamp when the settlement was computed.
	CreatedAt int64
}
