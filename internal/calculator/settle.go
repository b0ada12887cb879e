package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is one proposed payment that reduces outstanding balances.
type Transfer struct {
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
}

// noiseFloor is the one-cent threshold below which amounts are treated as
// rounding noise: transfers must exceed it to be recorded, and a remainder
// below it retires its debtor or creditor.
var noiseFloor = decimal.New(1, -2)

// side is one debtor or creditor with their remaining magnitude.
type side struct {
	id     string
	amount decimal.Decimal
}

// MinimizeTransfers turns a balance map into an ordered transfer list using
// greedy largest-debtor/largest-creditor matching.
//
// Algorithm:
//  1. Partition balances into debtors (negative, magnitude kept positive)
//     and creditors (positive). Zeros are dropped.
//  2. Sort both sides descending by magnitude; equal magnitudes order by
//     participant id ascending, so output is reproducible regardless of map
//     iteration order.
//  3. Walk both lists with two pointers, transferring
//     min(currentDebt, currentCredit) rounded half-to-even to 2 places.
//     Transfers of one cent or less are dropped, not carried forward.
//  4. Advance a pointer once its side's remainder falls below one cent.
//
// With k nonzero balances the result holds at most k-1 transfers. Remainders
// left when one side runs out are rounding drift and stay unreported.
func MinimizeTransfers(balances map[string]decimal.Decimal) []Transfer {
	var debtors, creditors []side
	for id, bal := range balances {
		switch {
		case bal.IsNegative():
			debtors = append(debtors, side{id: id, amount: bal.Neg()})
		case bal.IsPositive():
			creditors = append(creditors, side{id: id, amount: bal})
		}
	}
	sortByMagnitude(debtors)
	sortByMagnitude(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := decimal.Min(debtor.amount, creditor.amount).RoundBank(2)
		if amount.GreaterThan(noiseFloor) {
			transfers = append(transfers, Transfer{
				DebtorID:   debtor.id,
				CreditorID: creditor.id,
				Amount:     amount,
			})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if debtor.amount.LessThan(noiseFloor) {
			i++
		}
		if creditor.amount.LessThan(noiseFloor) {
			j++
		}
	}
	return transfers
}

// sortByMagnitude orders a side descending by amount, breaking ties by id
// ascending so equal magnitudes always settle in the same order.
func sortByMagnitude(s []side) {
	sort.Slice(s, func(a, b int) bool {
		if c := s[a].amount.Cmp(s[b].amount); c != 0 {
			return c > 0
		}
		return s[a].id < s[b].id
	})
}

// Residual reports the conservation drift of a balance map: the sum of all
// balances, which is zero for a conserving snapshot. Callers surface values
// beyond a few cents as a data-integrity signal.
func Residual(balances map[string]decimal.Decimal) decimal.Decimal {
	var sum decimal.Decimal
	for _, bal := range balances {
		sum = sum.Add(bal)
	}
	return sum
}
