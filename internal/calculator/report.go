package calculator

import "github.com/shopspring/decimal"

// DebtEntry is one outgoing transfer from a participant's point of view.
type DebtEntry struct {
	ToID   string
	ToName string
	Amount decimal.Decimal
}

// CreditEntry is one incoming transfer from a participant's point of view.
type CreditEntry struct {
	FromID   string
	FromName string
	Amount   decimal.Decimal
}

// ParticipantReport is one participant's settled view: their net balance and
// the transfers they take part in. Participants with no activity get a zero
// balance and empty lists.
type ParticipantReport struct {
	Name    string
	Balance decimal.Decimal
	Debts   []DebtEntry
	Credits []CreditEntry
}

// Report maps participant id to that participant's settled view.
type Report map[string]ParticipantReport

// BuildReport shapes balances and transfers into the per-participant view.
// Every snapshot participant gets an entry, including ones the fold never
// touched. Counterparty names come from the snapshot's participant list.
func BuildReport(snap *Snapshot, balances map[string]decimal.Decimal, transfers []Transfer) Report {
	idx := snap.index()
	report := make(Report, len(snap.Participants))

	for i := range snap.Participants {
		p := &snap.Participants[i]

		var debts []DebtEntry
		var credits []CreditEntry
		for _, tr := range transfers {
			switch p.ID {
			case tr.DebtorID:
				debts = append(debts, DebtEntry{
					ToID:   tr.CreditorID,
					ToName: idx.names[tr.CreditorID],
					Amount: tr.Amount,
				})
			case tr.CreditorID:
				credits = append(credits, CreditEntry{
					FromID:   tr.DebtorID,
					FromName: idx.names[tr.DebtorID],
					Amount:   tr.Amount,
				})
			}
		}

		report[p.ID] = ParticipantReport{
			Name:    p.DisplayName,
			Balance: balances[p.ID],
			Debts:   debts,
			Credits: credits,
		}
	}
	return report
}
