package server

import (
	"net/http"
	"testing"
)

// seedEqualExpense posts an equal-split expense across the given targets.
func (ts *testServer) seedEqualExpense(t *testing.T, actorID, eventID, payerID, amount string, targetIDs ...string) string {
	t.Helper()
	splits := make([]map[string]interface{}, 0, len(targetIDs))
	for _, id := range targetIDs {
		splits = append(splits, map[string]interface{}{
			"target_kind": "participant",
			"target_id":   id,
		})
	}
	rec := ts.request(t, http.MethodPost, "/v1/events/"+eventID+"/expenses", actorID, map[string]interface{}{
		"description": "Shared expense",
		"amount":      amount,
		"payer_id":    payerID,
		"split_type":  "equal",
		"splits":      splits,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed expense: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["id"].(string)
}

func TestSettlementFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	eventID := ts.createEvent(t, creatorUser, "Settlement Weekend")
	aliceID := ts.addParticipant(t, creatorUser, eventID, "Alice", creatorUser)
	bobID := ts.addParticipant(t, creatorUser, eventID, "Bob", memberUser)
	carolID := ts.addParticipant(t, creatorUser, eventID, "Carol", "")

	ts.seedEqualExpense(t, creatorUser, eventID, aliceID, "90", aliceID, bobID, carolID)

	t.Run("balances preview", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/v1/events/"+eventID+"/balances", creatorUser, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody(t, rec)

		transfers := resp["transfers"].([]interface{})
		if len(transfers) != 2 {
			t.Fatalf("expected 2 transfers, got %d", len(transfers))
		}
		assertAmount(t, resp["residual"], "0")

		report := resp["report"].(map[string]interface{})
		alice := report[aliceID].(map[string]interface{})
		assertAmount(t, alice["balance"], "60")

		// Preview must not persist anything.
		listed := ts.request(t, http.MethodGet, "/v1/events/"+eventID+"/settlements", creatorUser, nil)
		if got := len(decodeList(t, listed)); got != 0 {
			t.Errorf("expected no persisted settlements after preview, got %d", got)
		}
	})

	t.Run("compute persists the plan", func(t *testing.T) {
		rec := ts.request(t, http.MethodPost, "/v1/events/"+eventID+"/settlements/compute", creatorUser, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody(t, rec)

		settlements := resp["settlements"].([]interface{})
		if len(settlements) != 2 {
			t.Fatalf("expected 2 settlements, got %d", len(settlements))
		}
		for _, raw := range settlements {
			entry := raw.(map[string]interface{})
			if entry["creditor_id"] != aliceID {
				t.Errorf("expected alice as creditor, got %v", entry["creditor_id"])
			}
			assertAmount(t, entry["amount"], "30")
			if entry["settled"] != false {
				t.Errorf("expected unsettled, got %v", entry["settled"])
			}
		}

		listed := ts.request(t, http.MethodGet, "/v1/events/"+eventID+"/settlements", creatorUser, nil)
		if got := len(decodeList(t, listed)); got != 2 {
			t.Errorf("expected 2 persisted settlements, got %d", got)
		}
	})

	t.Run("debtor settles their transfer", func(t *testing.T) {
		listed := ts.request(t, http.MethodGet, "/v1/events/"+eventID+"/settlements", creatorUser, nil)
		var bobSettlement string
		for _, raw := range decodeList(t, listed) {
			entry := raw.(map[string]interface{})
			if entry["debtor_id"] == bobID {
				bobSettlement = entry["id"].(string)
			}
		}
		if bobSettlement == "" {
			t.Fatal("expected a settlement owed by bob")
		}

		t.Run("stranger is refused", func(t *testing.T) {
			rec := ts.request(t, http.MethodPost, "/v1/settlements/"+bobSettlement+"/settle", "user-stranger", nil)
			if rec.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d: %s", rec.Code, rec.Body.String())
			}
		})

		rec := ts.request(t, http.MethodPost, "/v1/settlements/"+bobSettlement+"/settle", memberUser, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody(t, rec)
		if resp["settled"] != true {
			t.Errorf("expected settled true, got %v", resp["settled"])
		}
		if resp["settled_at"] == nil {
			t.Error("expected settled_at to be set")
		}
	})
}

func TestUserDebtsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	eventID := ts.createEvent(t, creatorUser, "Debts Weekend")
	aliceID := ts.addParticipant(t, creatorUser, eventID, "Alice", creatorUser)
	bobID := ts.addParticipant(t, creatorUser, eventID, "Bob", memberUser)

	ts.seedEqualExpense(t, creatorUser, eventID, aliceID, "60", aliceID, bobID)

	t.Run("own debts", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/v1/users/"+memberUser+"/debts", memberUser, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		debts := decodeList(t, rec)
		if len(debts) != 1 {
			t.Fatalf("expected 1 event entry, got %d", len(debts))
		}
		entry := debts[0].(map[string]interface{})
		assertAmount(t, entry["balance"], "-30")
		if owes := entry["owes"].([]interface{}); len(owes) != 1 {
			t.Errorf("expected 1 outgoing transfer, got %d", len(owes))
		}
	})

	t.Run("reading another user is refused", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/v1/users/"+memberUser+"/debts", creatorUser, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin may read anyone", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/v1/users/"+memberUser+"/debts", adminUser, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
