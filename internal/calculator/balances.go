package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/models"
)

// ComputeBalances folds the snapshot's expenses into one net balance per
// participant. Positive means the participant is owed money, negative means
// they owe. Only participants touched as payer or split target appear in the
// result; absent participants are implicitly zero.
//
// Algorithm, per expense:
//   - Credit the full amount to the payer, redirected to the family head when
//     the payer belongs to a headed family.
//   - Debit the split targets according to the expense's split type. Debits
//     against members of headed families land on the head as well.
//
// Equal splits divide by the number of split entries, not people: an entry
// targeting a family is then weighted by the family's member count. Mixing
// family and participant entries under equal therefore debits more than the
// expense amount in total. That weighting is intentional and kept as is.
//
// The fold assumes a snapshot that passed Validate and never errors; on
// malformed data it would silently drop shares, which is exactly what
// Validate exists to prevent.
func ComputeBalances(snap *Snapshot) map[string]decimal.Decimal {
	idx := snap.index()
	balances := make(map[string]decimal.Decimal)

	for i := range snap.Expenses {
		exp := &snap.Expenses[i]

		payer := idx.redirect(exp.PayerID)
		balances[payer] = balances[payer].Add(exp.Amount)

		switch exp.SplitType {
		case models.SplitEqual:
			base := exp.Amount.Div(decimal.NewFromInt(int64(len(exp.Splits))))
			for j := range exp.Splits {
				debitEqual(balances, idx, &exp.Splits[j], base)
			}

		case models.SplitCustom:
			for j := range exp.Splits {
				debit(balances, idx, &exp.Splits[j], customShare(exp, &exp.Splits[j]))
			}

		case models.SplitSpecific:
			for j := range exp.Splits {
				var amount decimal.Decimal
				if a := exp.Splits[j].ShareAmount; a != nil {
					amount = *a
				}
				debit(balances, idx, &exp.Splits[j], amount)
			}
		}
	}
	return balances
}

// debitEqual applies one equal-mode split entry: the base share for a
// participant target, base share times member count for a family target.
func debitEqual(balances map[string]decimal.Decimal, idx snapshotIndex, sp *Split, base decimal.Decimal) {
	switch sp.Target.Kind {
	case models.TargetParticipant:
		owner := idx.redirect(sp.Target.ID)
		balances[owner] = balances[owner].Sub(base)

	case models.TargetFamily:
		f, ok := idx.families[sp.Target.ID]
		if !ok || f.HeadID == "" {
			return
		}
		share := base.Mul(decimal.NewFromInt(int64(len(f.MemberIDs))))
		balances[f.HeadID] = balances[f.HeadID].Sub(share)
	}
}

// debit applies one custom- or specific-mode split entry. Family targets are
// debited on the head at face value, with no member-count weighting.
func debit(balances map[string]decimal.Decimal, idx snapshotIndex, sp *Split, amount decimal.Decimal) {
	switch sp.Target.Kind {
	case models.TargetParticipant:
		owner := idx.redirect(sp.Target.ID)
		balances[owner] = balances[owner].Sub(amount)

	case models.TargetFamily:
		f, ok := idx.families[sp.Target.ID]
		if !ok || f.HeadID == "" {
			return
		}
		balances[f.HeadID] = balances[f.HeadID].Sub(amount)
	}
}

// customShare resolves a custom entry's amount: a nonzero explicit amount
// wins, otherwise the percentage of the expense amount. Specific entries do
// not use this; they take the explicit amount as is.
func customShare(exp *Expense, sp *Split) decimal.Decimal {
	if sp.ShareAmount != nil && !sp.ShareAmount.IsZero() {
		return *sp.ShareAmount
	}
	if sp.SharePercentage != nil {
		return exp.Amount.Mul(*sp.SharePercentage).Div(hundred)
	}
	return decimal.Zero
}
