package calculator

import (
	"testing"

	"github.com/evenup-dev/evenup/internal/models"
)

// Full pipeline over the canonical three-person scenario: A pays 300 split
// equally among A, B and C. Checks the report fields that downstream
// formatting and persistence read.
func TestBuildReportEndToEnd(t *testing.T) {
	snap := &Snapshot{
		EventID: "ev1",
		Participants: []Participant{
			{ID: "a", DisplayName: "Alice"},
			{ID: "b", DisplayName: "Bob"},
			{ID: "c", DisplayName: "Carol"},
			{ID: "d", DisplayName: "Dave"},
		},
		Expenses: []Expense{{
			ID: "e1", PayerID: "a", Amount: dec("300"), SplitType: models.SplitEqual,
			Splits: []Split{
				{Target: models.ParticipantTarget("a")},
				{Target: models.ParticipantTarget("b")},
				{Target: models.ParticipantTarget("c")},
			},
		}},
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	balances := ComputeBalances(snap)
	transfers := MinimizeTransfers(balances)
	report := BuildReport(snap, balances, transfers)

	if len(report) != 4 {
		t.Fatalf("got %d report entries, want 4", len(report))
	}

	alice := report["a"]
	if alice.Name != "Alice" {
		t.Errorf("report[a].Name = %q, want Alice", alice.Name)
	}
	if !alice.Balance.Equal(dec("200")) {
		t.Errorf("report[a].Balance = %s, want 200", alice.Balance)
	}
	if len(alice.Debts) != 0 {
		t.Errorf("report[a].Debts = %v, want none", alice.Debts)
	}
	if len(alice.Credits) != 2 {
		t.Fatalf("report[a].Credits = %v, want 2 entries", alice.Credits)
	}
	if alice.Credits[0].FromID != "b" || alice.Credits[0].FromName != "Bob" || !alice.Credits[0].Amount.Equal(dec("100")) {
		t.Errorf("report[a].Credits[0] = %+v, want 100 from Bob", alice.Credits[0])
	}
	if alice.Credits[1].FromID != "c" || alice.Credits[1].FromName != "Carol" {
		t.Errorf("report[a].Credits[1] = %+v, want from Carol", alice.Credits[1])
	}

	bob := report["b"]
	if !bob.Balance.Equal(dec("-100")) {
		t.Errorf("report[b].Balance = %s, want -100", bob.Balance)
	}
	if len(bob.Debts) != 1 || len(bob.Credits) != 0 {
		t.Fatalf("report[b] has %d debts and %d credits, want 1 and 0", len(bob.Debts), len(bob.Credits))
	}
	if bob.Debts[0].ToID != "a" || bob.Debts[0].ToName != "Alice" || !bob.Debts[0].Amount.Equal(dec("100")) {
		t.Errorf("report[b].Debts[0] = %+v, want 100 to Alice", bob.Debts[0])
	}

	// Dave had no part in anything but still gets a zeroed entry.
	dave := report["d"]
	if !dave.Balance.IsZero() {
		t.Errorf("report[d].Balance = %s, want 0", dave.Balance)
	}
	if len(dave.Debts) != 0 || len(dave.Credits) != 0 {
		t.Errorf("report[d] = %+v, want empty transfer lists", dave)
	}
}
