package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// SplitType tells how an expense is divided among its split targets.
type SplitType string

const (
	// SplitEqual divides the amount evenly across split entries, with family
	// entries weighted by member count.
	SplitEqual SplitType = "equal"

	// SplitCustom divides by explicit per-target percentages or amounts.
	SplitCustom SplitType = "custom"

	// SplitSpecific assigns an exact amount to every target.
	SplitSpecific SplitType = "specific"
)

// TargetKind is the discriminator of a SplitTarget.
type TargetKind string

const (
	TargetParticipant TargetKind = "participant"
	TargetFamily      TargetKind = "family"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidSplitType   = errors.New("invalid split type")
	ErrInvalidSplitTarget = errors.New("invalid split target")
	ErrInvalidPercentage  = errors.New("percentage must be between 0 and 100")
	ErrNoSplits           = errors.New("expense needs at least one split")
	ErrSplitSumMismatch   = errors.New("split amounts do not sum to the expense amount")
	ErrPercentSumMismatch = errors.New("split percentages do not sum to 100")
)

// MaxAmount is the largest accepted expense amount.
var MaxAmount = decimal.NewFromInt(1_000_000)

// splitTolerance absorbs rounding drift when checking that shares add up.
var splitTolerance = decimal.New(1, -2) // 0.01

// SplitTarget names who a split entry belongs to: exactly one participant or
// exactly one family. The tagged form keeps "either-or" explicit instead of
// spreading it across two nullable references.
type SplitTarget struct {
	Kind TargetKind
	ID   string
}

// ParticipantTarget builds a SplitTarget pointing at a participant.
func ParticipantTarget(id string) SplitTarget {
	return SplitTarget{Kind: TargetParticipant, ID: id}
}

// FamilyTarget builds a SplitTarget pointing at a family.
func FamilyTarget(id string) SplitTarget {
	return SplitTarget{Kind: TargetFamily, ID: id}
}

// Validate checks the target names a known kind and a non-empty ID.
func (t SplitTarget) Validate() error {
	switch t.Kind {
	case TargetParticipant, TargetFamily:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidSplitTarget, t.Kind)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: empty target ID", ErrInvalidSplitTarget)
	}
	return nil
}

// ExpenseSplit is one entry of an expense's split: a target plus an optional
// explicit share. Which fields matter depends on the expense's SplitType:
// equal ignores both, specific uses ShareAmount, custom uses whichever is set.
type ExpenseSplit struct {
	ID        string
	ExpenseID string

	// Target is the participant or family this entry assigns a share to.
	Target SplitTarget

	// ShareAmount is the explicit amount for this target, nil when unset.
	ShareAmount *decimal.Decimal

	// SharePercentage is the explicit percentage for this target, nil when
	// unset. Only meaningful for SplitCustom.
	SharePercentage *decimal.Decimal

	CreatedAt int64
}

// Expense is money paid by one participant on behalf of the split targets.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// EventID is the event this expense belongs to.
	EventID string

	// Description says what the money was spent on, 3-200 characters.
	Description string

	// Category is an optional free-form label used by expense summaries.
	Category string

	// Amount is the total paid, always quantized to 2 decimal places.
	Amount decimal.Decimal

	// PayerID is the participant who fronted the money.
	PayerID string

	// SplitType tells how Splits divide the amount.
	SplitType SplitType

	// Splits lists who owes a share of this expense.
	Splits []ExpenseSplit

	// CreatedBy is the external user ID of whoever recorded the expense.
	CreatedBy string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64

	// DeletedAt and DeletedBy record soft deletion (zero values while live).
	DeletedAt int64
	DeletedBy string
}

// Deleted reports whether the expense has been soft-deleted.
func (e *Expense) Deleted() bool { return e.DeletedAt != 0 }

// Validate checks the expense fields and that its split distribution is
// consistent with the amount. Referential checks (does the payer exist, is
// the target in this event) belong to the service layer.
func (e *Expense) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s > %s", ErrAmountTooLarge, e.Amount, MaxAmount)
	}
	if e.PayerID == "" {
		return errors.New("expense has no payer")
	}
	switch e.SplitType {
	case SplitEqual, SplitCustom, SplitSpecific:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSplitType, e.SplitType)
	}
	return e.validateDistribution()
}

// validateDistribution checks that the splits actually account for the
// expense amount, within a one-cent tolerance for rounding drift.
func (e *Expense) validateDistribution() error {
	if len(e.Splits) == 0 {
		return ErrNoSplits
	}
	for i := range e.Splits {
		if err := e.Splits[i].Target.Validate(); err != nil {
			return err
		}
		if p := e.Splits[i].SharePercentage; p != nil {
			if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("%w: %s", ErrInvalidPercentage, p)
			}
		}
		if a := e.Splits[i].ShareAmount; a != nil && a.IsNegative() {
			return fmt.Errorf("%w: share %s", ErrInvalidAmount, a)
		}
	}

	switch e.SplitType {
	case SplitEqual:
		// Equal needs targets only; shares are derived.
		return nil

	case SplitCustom:
		// Entries may carry percentages, amounts, or a mix. Whichever form
		// appears must add up on its own: percentages to 100, amounts to the
		// expense total. Missing values count as zero.
		var pctSum, amtSum decimal.Decimal
		hasPct, hasAmt := false, false
		for i := range e.Splits {
			if p := e.Splits[i].SharePercentage; p != nil {
				hasPct = true
				pctSum = pctSum.Add(*p)
			}
			if a := e.Splits[i].ShareAmount; a != nil {
				hasAmt = true
				amtSum = amtSum.Add(*a)
			}
		}
		if hasPct && pctSum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(splitTolerance) {
			return fmt.Errorf("%w: got %s%%", ErrPercentSumMismatch, pctSum)
		}
		if hasAmt && amtSum.Sub(e.Amount).Abs().GreaterThan(splitTolerance) {
			return fmt.Errorf("%w: got %s, want %s", ErrSplitSumMismatch, amtSum, e.Amount)
		}
		if !hasPct && !hasAmt {
			return fmt.Errorf("%w: custom split without shares", ErrSplitSumMismatch)
		}
		return nil

	case SplitSpecific:
		var sum decimal.Decimal
		for i := range e.Splits {
			if a := e.Splits[i].ShareAmount; a != nil {
				sum = sum.Add(*a)
			}
		}
		if sum.Sub(e.Amount).Abs().GreaterThan(splitTolerance) {
			return fmt.Errorf("%w: got %s, want %s", ErrSplitSumMismatch, sum, e.Amount)
		}
		return nil
	}
	return nil
}

func validateDescription(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n < 3:
		return fmt.Errorf("%w: shorter than 3 characters", ErrInvalidDescription)
	case n > 200:
		return fmt.Errorf("%w: longer than 200 characters", ErrInvalidDescription)
	}
	return nil
}
