package server

import (
	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/calculator"
	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/service"
	"github.com/evenup-dev/evenup/internal/storage"
)

// Response shapes for the JSON API. Amounts serialize as decimal
// strings; timestamps are Unix seconds.

type eventResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatorID   string `json:"creator_id"`
	ChatID      string `json:"chat_id,omitempty"`
	Status      string `json:"status"`
	Currency    string `json:"currency"`
	CreatedAt   int64  `json:"created_at"`
	ClosedAt    int64  `json:"closed_at,omitempty"`
}

func toEventResponse(e *models.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		CreatorID:   e.CreatorID,
		ChatID:      e.ChatID,
		Status:      string(e.Status),
		Currency:    e.Currency,
		CreatedAt:   e.CreatedAt,
		ClosedAt:    e.ClosedAt,
	}
}

func toEventResponses(events []*models.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

type participantResponse struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	UserID      string `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
	AddedBy     string `json:"added_by"`
	CreatedAt   int64  `json:"created_at"`
}

func toParticipantResponse(p *models.Participant) participantResponse {
	return participantResponse{
		ID:          p.ID,
		EventID:     p.EventID,
		UserID:      p.UserID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Type:        string(p.Type),
		Active:      p.Active,
		AddedBy:     p.AddedBy,
		CreatedAt:   p.CreatedAt,
	}
}

func toParticipantResponses(participants []*models.Participant) []participantResponse {
	out := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, toParticipantResponse(p))
	}
	return out
}

type familyResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	TemplateID string `json:"template_id,omitempty"`
	Name       string `json:"name"`
	HeadID     string `json:"head_id,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

func toFamilyResponse(f *models.Family) familyResponse {
	return familyResponse{
		ID:         f.ID,
		EventID:    f.EventID,
		TemplateID: f.TemplateID,
		Name:       f.Name,
		HeadID:     f.HeadID,
		CreatedAt:  f.CreatedAt,
	}
}

func toFamilyResponses(families []*models.Family) []familyResponse {
	out := make([]familyResponse, 0, len(families))
	for _, f := range families {
		out = append(out, toFamilyResponse(f))
	}
	return out
}

type templateMemberResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
	IsHead      bool   `json:"is_head"`
}

type templateResponse struct {
	ID          string                   `json:"id"`
	CreatorID   string                   `json:"creator_id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Members     []templateMemberResponse `json:"members"`
	CreatedAt   int64                    `json:"created_at"`
}

func toTemplateResponse(t *models.FamilyTemplate) templateResponse {
	members := make([]templateMemberResponse, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, templateMemberResponse{
			ID:          m.ID,
			UserID:      m.UserID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			IsHead:      m.IsHead,
		})
	}
	return templateResponse{
		ID:          t.ID,
		CreatorID:   t.CreatorID,
		Name:        t.Name,
		Description: t.Description,
		Members:     members,
		CreatedAt:   t.CreatedAt,
	}
}

func toTemplateResponses(templates []*models.FamilyTemplate) []templateResponse {
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	return out
}

type splitResponse struct {
	TargetKind      string           `json:"target_kind"`
	TargetID        string           `json:"target_id"`
	ShareAmount     *decimal.Decimal `json:"share_amount,omitempty"`
	SharePercentage *decimal.Decimal `json:"share_percentage,omitempty"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payer_id"`
	SplitType   string          `json:"split_type"`
	Splits      []splitResponse `json:"splits"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	splits := make([]splitResponse, 0, len(e.Splits))
	for _, sp := range e.Splits {
		splits = append(splits, splitResponse{
			TargetKind:      string(sp.Target.Kind),
			TargetID:        sp.Target.ID,
			ShareAmount:     sp.ShareAmount,
			SharePercentage: sp.SharePercentage,
		})
	}
	return expenseResponse{
		ID:          e.ID,
		EventID:     e.EventID,
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount,
		PayerID:     e.PayerID,
		SplitType:   string(e.SplitType),
		Splits:      splits,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toExpenseResponses(expenses []*models.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

type categoryTotalResponse struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

type payerTotalResponse struct {
	ParticipantID string          `json:"participant_id"`
	DisplayName   string          `json:"display_name"`
	Count         int             `json:"count"`
	Total         decimal.Decimal `json:"total"`
}

type summaryResponse struct {
	EventID      string                  `json:"event_id"`
	Currency     string                  `json:"currency"`
	ExpenseCount int                     `json:"expense_count"`
	TotalAmount  decimal.Decimal         `json:"total_amount"`
	ByCategory   []categoryTotalResponse `json:"by_category"`
	ByPayer      []payerTotalResponse    `json:"by_payer"`
}

func toSummaryResponse(s *service.ExpenseSummary) summaryResponse {
	byCategory := make([]categoryTotalResponse, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		byCategory = append(byCategory, categoryTotalResponse{
			Category: c.Category,
			Count:    c.Count,
			Total:    c.Total,
		})
	}
	byPayer := make([]payerTotalResponse, 0, len(s.ByPayer))
	for _, p := range s.ByPayer {
		byPayer = append(byPayer, payerTotalResponse{
			ParticipantID: p.ParticipantID,
			DisplayName:   p.DisplayName,
			Count:         p.Count,
			Total:         p.Total,
		})
	}
	return summaryResponse{
		EventID:      s.EventID,
		Currency:     s.Currency,
		ExpenseCount: s.ExpenseCount,
		TotalAmount:  s.TotalAmount,
		ByCategory:   byCategory,
		ByPayer:      byPayer,
	}
}

type settlementResponse struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"`
	DebtorID   string          `json:"debtor_id"`
	CreditorID string          `json:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"`
	Settled    bool            `json:"settled"`
	SettledAt  int64           `json:"settled_at,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         s.ID,
		EventID:    s.EventID,
		DebtorID:   s.DebtorID,
		CreditorID: s.CreditorID,
		Amount:     s.Amount,
		Settled:    s.Settled,
		SettledAt:  s.SettledAt,
		CreatedAt:  s.CreatedAt,
	}
}

func toSettlementResponses(settlements []*models.Settlement) []settlementResponse {
	out := make([]settlementResponse, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, toSettlementResponse(s))
	}
	return out
}

type transferResponse struct {
	DebtorID   string          `json:"debtor_id"`
	CreditorID string          `json:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func toTransferResponses(transfers []calculator.Transfer) []transferResponse {
	out := make([]transferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, transferResponse{
			DebtorID:   t.DebtorID,
			CreditorID: t.CreditorID,
			Amount:     t.Amount,
		})
	}
	return out
}

type debtEntryResponse struct {
	ToID   string          `json:"to_id"`
	ToName string          `json:"to_name"`
	Amount decimal.Decimal `json:"amount"`
}

type creditEntryResponse struct {
	FromID   string          `json:"from_id"`
	FromName string          `json:"from_name"`
	Amount   decimal.Decimal `json:"amount"`
}

type participantReportResponse struct {
	Name    string                `json:"name"`
	Balance decimal.Decimal       `json:"balance"`
	Debts   []debtEntryResponse   `json:"debts"`
	Credits []creditEntryResponse `json:"credits"`
}

func toReportResponse(report calculator.Report) map[string]participantReportResponse {
	out := make(map[string]participantReportResponse, len(report))
	for id, pr := range report {
		debts := make([]debtEntryResponse, 0, len(pr.Debts))
		for _, d := range pr.Debts {
			debts = append(debts, debtEntryResponse{ToID: d.ToID, ToName: d.ToName, Amount: d.Amount})
		}
		credits := make([]creditEntryResponse, 0, len(pr.Credits))
		for _, c := range pr.Credits {
			credits = append(credits, creditEntryResponse{FromID: c.FromID, FromName: c.FromName, Amount: c.Amount})
		}
		out[id] = participantReportResponse{
			Name:    pr.Name,
			Balance: pr.Balance,
			Debts:   debts,
			Credits: credits,
		}
	}
	return out
}

type balancesResponse struct {
	EventID   string                               `json:"event_id"`
	Report    map[string]participantReportResponse `json:"report"`
	Transfers []transferResponse                   `json:"transfers"`
	Residual  decimal.Decimal                      `json:"residual"`
}

func toBalancesResponse(v *service.BalanceView) balancesResponse {
	return balancesResponse{
		EventID:   v.EventID,
		Report:    toReportResponse(v.Report),
		Transfers: toTransferResponses(v.Transfers),
		Residual:  v.Residual,
	}
}

type computeResponse struct {
	EventID     string                               `json:"event_id"`
	Report      map[string]participantReportResponse `json:"report"`
	Settlements []settlementResponse                 `json:"settlements"`
	Residual    decimal.Decimal                      `json:"residual"`
	ComputedAt  int64                                `json:"computed_at"`
}

func toComputeResponse(res *service.ComputeResult) computeResponse {
	return computeResponse{
		EventID:     res.EventID,
		Report:      toReportResponse(res.Report),
		Settlements: toSettlementResponses(res.Settlements),
		Residual:    res.Residual,
		ComputedAt:  res.ComputedAt,
	}
}

type userEventDebtsResponse struct {
	EventID       string             `json:"event_id"`
	EventName     string             `json:"event_name"`
	Currency      string             `json:"currency"`
	ParticipantID string             `json:"participant_id"`
	Balance       decimal.Decimal    `json:"balance"`
	Owes          []transferResponse `json:"owes"`
	OwedTo        []transferResponse `json:"owed_to"`
}

func toUserDebtsResponses(debts []*service.UserEventDebts) []userEventDebtsResponse {
	out := make([]userEventDebtsResponse, 0, len(debts))
	for _, d := range debts {
		out = append(out, userEventDebtsResponse{
			EventID:       d.EventID,
			EventName:     d.EventName,
			Currency:      d.Currency,
			ParticipantID: d.ParticipantID,
			Balance:       d.Balance,
			Owes:          toTransferResponses(d.Owes),
			OwedTo:        toTransferResponses(d.OwedTo),
		})
	}
	return out
}

type systemStatsResponse struct {
	TotalEvents       int64           `json:"total_events"`
	ActiveEvents      int64           `json:"active_events"`
	TotalParticipants int64           `json:"total_participants"`
	UniqueUsers       int64           `json:"unique_users"`
	TotalExpenses     int64           `json:"total_expenses"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalFamilies     int64           `json:"total_families"`
	TotalTemplates    int64           `json:"total_templates"`
	TotalSettlements  int64           `json:"total_settlements"`
}

type topSpenderResponse struct {
	ParticipantID string          `json:"participant_id"`
	DisplayName   string          `json:"display_name"`
	UserID        string          `json:"user_id,omitempty"`
	ExpenseCount  int64           `json:"expense_count"`
	Total         decimal.Decimal `json:"total"`
}

type overviewResponse struct {
	Stats       systemStatsResponse  `json:"stats"`
	TopSpenders []topSpenderResponse `json:"top_spenders"`
}

func toOverviewResponse(o *service.SystemOverview) overviewResponse {
	spenders := make([]topSpenderResponse, 0, len(o.TopSpenders))
	for _, sp := range o.TopSpenders {
		spenders = append(spenders, topSpenderResponse{
			ParticipantID: sp.ParticipantID,
			DisplayName:   sp.DisplayName,
			UserID:        sp.UserID,
			ExpenseCount:  sp.ExpenseCount,
			Total:         sp.Total,
		})
	}
	return overviewResponse{
		Stats:       toStatsResponse(o.Stats),
		TopSpenders: spenders,
	}
}

func toStatsResponse(s *storage.SystemStats) systemStatsResponse {
	return systemStatsResponse{
		TotalEvents:       s.TotalEvents,
		ActiveEvents:      s.ActiveEvents,
		TotalParticipants: s.TotalParticipants,
		UniqueUsers:       s.UniqueUsers,
		TotalExpenses:     s.TotalExpenses,
		TotalAmount:       s.TotalAmount,
		TotalFamilies:     s.TotalFamilies,
		TotalTemplates:    s.TotalTemplates,
		TotalSettlements:  s.TotalSettlements,
	}
}
