package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/models"
)

// Snapshot is an immutable, event-scoped view of everything the engine needs:
// active participants, families with members and heads, and live expenses
// with their splits. Callers assemble it from a single consistent read and
// run Validate before handing it to the fold; the fold itself never errors.
type Snapshot struct {
	EventID      string
	Participants []Participant
	Families     []Family
	Expenses     []Expense
}

// Participant carries the minimal participant information needed for balance
// calculations and report assembly.
type Participant struct {
	ID          string
	DisplayName string
}

// Family carries a family's head and member list. MemberIDs drives both the
// member-to-head redirection and the member-count weighting of equal splits.
type Family struct {
	ID        string
	HeadID    string // empty when no head is assigned
	MemberIDs []string
}

// Expense carries the minimal expense information needed for the fold.
type Expense struct {
	ID        string
	PayerID   string
	Amount    decimal.Decimal
	SplitType models.SplitType
	Splits    []Split
}

// Split is one attribution line of an expense.
type Split struct {
	Target          models.SplitTarget
	ShareAmount     *decimal.Decimal
	SharePercentage *decimal.Decimal
}

// Snapshot validation errors. A snapshot failing any of these would make the
// fold silently produce wrong balances, so assembly must reject it instead.
var (
	ErrUnknownPayer       = errors.New("payer is not an active participant of the event")
	ErrUnknownParticipant = errors.New("split targets an unknown participant")
	ErrUnknownFamily      = errors.New("split targets an unknown family")
	ErrUnknownHead        = errors.New("family head is not an active participant of the event")
	ErrHeadlessFamily     = errors.New("split targets a family without a head")
	ErrNonPositiveAmount  = errors.New("expense amount must be positive")
	ErrNegativeShare      = errors.New("split share must not be negative")
	ErrPercentageRange    = errors.New("split percentage must be between 0 and 100")
	ErrMissingShare       = errors.New("split entry carries no usable share")
	ErrUnknownSplitType   = errors.New("unknown split type")
	ErrNoSplitEntries     = errors.New("expense has no split entries")
)

var hundred = decimal.NewFromInt(100)

// snapshotIndex is the derived lookup the fold and report run on.
type snapshotIndex struct {
	names    map[string]string  // participant id -> display name
	families map[string]*Family // family id -> family
	headOf   map[string]string  // member participant id -> family head id
}

// index builds the participant, family and member-to-head lookups.
// Members of headless families get no entry in headOf and keep their own
// balances, matching the head-only redirection rule.
func (s *Snapshot) index() snapshotIndex {
	idx := snapshotIndex{
		names:    make(map[string]string, len(s.Participants)),
		families: make(map[string]*Family, len(s.Families)),
		headOf:   make(map[string]string),
	}
	for i := range s.Participants {
		idx.names[s.Participants[i].ID] = s.Participants[i].DisplayName
	}
	for i := range s.Families {
		f := &s.Families[i]
		idx.families[f.ID] = f
		if f.HeadID == "" {
			continue
		}
		for _, member := range f.MemberIDs {
			idx.headOf[member] = f.HeadID
		}
	}
	return idx
}

// redirect resolves a participant to the balance owner: the family head when
// the participant belongs to a headed family, the participant otherwise.
func (idx snapshotIndex) redirect(participantID string) string {
	if head, ok := idx.headOf[participantID]; ok {
		return head
	}
	return participantID
}

// Validate rejects snapshots the fold cannot process meaningfully. It checks
// referential integrity and share well-formedness once, up front, so the fold
// stays a plain arithmetic pass.
func (s *Snapshot) Validate() error {
	idx := s.index()

	for i := range s.Families {
		f := &s.Families[i]
		if f.HeadID == "" {
			continue
		}
		if _, ok := idx.names[f.HeadID]; !ok {
			return fmt.Errorf("family %s: %w", f.ID, ErrUnknownHead)
		}
	}

	for i := range s.Expenses {
		if err := s.validateExpense(&s.Expenses[i], idx); err != nil {
			return fmt.Errorf("expense %s: %w", s.Expenses[i].ID, err)
		}
	}
	return nil
}

func (s *Snapshot) validateExpense(exp *Expense, idx snapshotIndex) error {
	if !exp.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNonPositiveAmount, exp.Amount)
	}
	if _, ok := idx.names[exp.PayerID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPayer, exp.PayerID)
	}
	switch exp.SplitType {
	case models.SplitEqual, models.SplitCustom, models.SplitSpecific:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSplitType, exp.SplitType)
	}
	if len(exp.Splits) == 0 {
		return ErrNoSplitEntries
	}

	for j := range exp.Splits {
		if err := validateSplit(&exp.Splits[j], exp.SplitType, idx); err != nil {
			return fmt.Errorf("split %d: %w", j, err)
		}
	}
	return nil
}

func validateSplit(sp *Split, splitType models.SplitType, idx snapshotIndex) error {
	if err := sp.Target.Validate(); err != nil {
		return err
	}
	switch sp.Target.Kind {
	case models.TargetParticipant:
		if _, ok := idx.names[sp.Target.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, sp.Target.ID)
		}
	case models.TargetFamily:
		f, ok := idx.families[sp.Target.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFamily, sp.Target.ID)
		}
		if f.HeadID == "" {
			return fmt.Errorf("%w: %s", ErrHeadlessFamily, sp.Target.ID)
		}
	}

	if sp.ShareAmount != nil && sp.ShareAmount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeShare, sp.ShareAmount)
	}
	if p := sp.SharePercentage; p != nil {
		if p.IsNegative() || p.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s", ErrPercentageRange, p)
		}
	}

	switch splitType {
	case models.SplitCustom:
		// A zero explicit amount falls through to the percentage, so an
		// entry is usable only with a nonzero amount or a percentage.
		hasAmount := sp.ShareAmount != nil && !sp.ShareAmount.IsZero()
		if !hasAmount && sp.SharePercentage == nil {
			return ErrMissingShare
		}
	case models.SplitSpecific:
		if sp.ShareAmount == nil {
			return ErrMissingShare
		}
	}
	return nil
}
