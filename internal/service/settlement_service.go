package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/evenup-dev/evenup/internal/calculator"
	"github.com/evenup-dev/evenup/internal/metrics"
	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

// residualAlertThreshold is the rounding drift, in currency units, beyond
// which a computation logs a data-integrity warning. A few cents of drift
// is expected from per-split rounding.
var residualAlertThreshold = decimal.New(5, -2)

// maxConcurrentComputes caps parallel per-event computations in UserDebts.
const maxConcurrentComputes = 4

// Publisher notifies downstream consumers that an event's settlement plan
// was recomputed.
type Publisher interface {
	PublishSettlementComputed(ctx context.Context, eventID string, transferCount int, totalAmount, residual decimal.Decimal) error
}

// SettlementService runs the settlement engine over stored events: it loads
// a snapshot, folds expenses into balances, minimizes transfers and persists
// the resulting plan.
type SettlementService struct {
	store     storage.Store
	publisher Publisher
}

// NewSettlementService creates a new SettlementService. publisher may be
// nil, in which case computations are not announced.
func NewSettlementService(store storage.Store, publisher Publisher) *SettlementService {
	return &SettlementService{store: store, publisher: publisher}
}

// BalanceView is a computed view of an event's balances: the
// per-participant report and the transfer plan that would settle it.
type BalanceView struct {
	EventID   string
	Report    calculator.Report
	Transfers []calculator.Transfer
	Residual  decimal.Decimal
}

// ComputeResult is the outcome of one persisted settlement computation.
type ComputeResult struct {
	EventID     string
	Report      calculator.Report
	Settlements []*models.Settlement
	Residual    decimal.Decimal
	ComputedAt  int64
}

// computeView loads the event's snapshot and runs the engine over it.
func (s *SettlementService) computeView(ctx context.Context, eventID string) (*BalanceView, error) {
	snap, err := s.store.LoadSnapshot(ctx, eventID)
	if err != nil {
		slog.Error("LoadSnapshot failed", "event_id", eventID, "error", err)
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}

	balances := calculator.ComputeBalances(snap)
	transfers := calculator.MinimizeTransfers(balances)
	return &BalanceView{
		EventID:   eventID,
		Report:    calculator.BuildReport(snap, balances, transfers),
		Transfers: transfers,
		Residual:  calculator.Residual(balances),
	}, nil
}

// Balances computes the event's current balances and transfer plan without
// persisting anything.
func (s *SettlementService) Balances(ctx context.Context, eventID string) (*BalanceView, error) {
	if _, err := liveEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}
	return s.computeView(ctx, eventID)
}

// Compute runs the engine and replaces the event's unsettled plan with the
// fresh one. Already settled transfers are kept as history.
func (s *SettlementService) Compute(ctx context.Context, actorID, eventID string) (*ComputeResult, error) {
	if _, err := liveEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}

	start := time.Now()
	view, err := s.computeView(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	settlements := make([]*models.Settlement, len(view.Transfers))
	total := decimal.Zero
	for i, tr := range view.Transfers {
		settlements[i] = &models.Settlement{
			DebtorID:   tr.DebtorID,
			CreditorID: tr.CreditorID,
			Amount:     tr.Amount,
			CreatedAt:  now,
		}
		total = total.Add(tr.Amount)
	}

	if err := s.store.ReplaceSettlements(ctx, eventID, settlements); err != nil {
		slog.Error("ReplaceSettlements failed", "event_id", eventID, "error", err)
		return nil, err
	}

	metrics.SettlementComputeDuration.Observe(time.Since(start).Seconds())
	metrics.SettlementTransfers.Add(float64(len(settlements)))
	residualCents, _ := view.Residual.Abs().Shift(2).Float64()
	metrics.SettlementResidualCents.Observe(residualCents)

	if view.Residual.Abs().GreaterThan(residualAlertThreshold) {
		slog.Warn("Balances do not cancel out after rounding",
			"event_id", eventID,
			"residual", view.Residual,
		)
	}
	slog.Info("Computed settlements",
		"event_id", eventID,
		"transfer_count", len(settlements),
		"total_amount", total,
		"computed_by", actorID,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishSettlementComputed(ctx, eventID, len(settlements), total, view.Residual); err != nil {
			slog.Warn("Settlement notification failed", "event_id", eventID, "error", err)
		}
	}

	return &ComputeResult{
		EventID:     eventID,
		Report:      view.Report,
		Settlements: settlements,
		Residual:    view.Residual,
		ComputedAt:  now,
	}, nil
}

// List returns the event's settlements, unsettled plan first, then settled
// history.
func (s *SettlementService) List(ctx context.Context, eventID string) ([]*models.Settlement, error) {
	if _, err := liveEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}
	return s.store.ListSettlements(ctx, eventID)
}

// MarkSettled records that the debtor paid. Allowed for the event creator
// and the linked users behind either side of the transfer.
func (s *SettlementService) MarkSettled(ctx context.Context, actorID, settlementID string) (*models.Settlement, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, settlement.EventID)
	if err != nil {
		return nil, err
	}
	allowed := event.CreatorID == actorID
	for _, participantID := range []string{settlement.DebtorID, settlement.CreditorID} {
		if allowed {
			break
		}
		allowed, err = s.actsForParticipant(ctx, actorID, participantID)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, fmt.Errorf("user %s cannot settle %s: %w", actorID, settlementID, ErrPermissionDenied)
	}

	settledAt := time.Now().Unix()
	if err := s.store.MarkSettlementSettled(ctx, settlementID, settledAt); err != nil {
		return nil, err
	}
	settlement.Settled = true
	settlement.SettledAt = settledAt
	slog.Info("Settled transfer",
		"settlement_id", settlementID,
		"event_id", settlement.EventID,
		"settled_by", actorID,
	)
	return settlement, nil
}

// actsForParticipant reports whether the user is the linked identity behind
// the participant.
func (s *SettlementService) actsForParticipant(ctx context.Context, userID, participantID string) (bool, error) {
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return participant.UserID != "" && participant.UserID == userID, nil
}

// UserEventDebts is one event's view of a user's standing: their net
// balance and the transfers they take part in.
type UserEventDebts struct {
	EventID       string
	EventName     string
	Currency      string
	ParticipantID string

	// Balance is negative when the user owes, positive when they are owed.
	Balance decimal.Decimal

	Owes   []calculator.Transfer
	OwedTo []calculator.Transfer
}

// UserDebts computes the user's standing across every active event they
// take part in. Events are computed concurrently; ones with inconsistent
// data are skipped with a warning instead of failing the whole listing.
func (s *SettlementService) UserDebts(ctx context.Context, userID string) ([]*UserEventDebts, error) {
	events, err := s.store.ListEventsWithUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]*UserEventDebts, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentComputes)
	for i, event := range events {
		if event.Status != models.EventActive {
			continue
		}
		i, event := i, event
		g.Go(func() error {
			entry, err := s.eventDebts(gctx, userID, event)
			if err != nil {
				return err
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	debts := make([]*UserEventDebts, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			debts = append(debts, entry)
		}
	}
	return debts, nil
}

// eventDebts computes one event's entry. Returns nil when the user has no
// seat in the event or its data cannot be settled.
func (s *SettlementService) eventDebts(ctx context.Context, userID string, event *models.Event) (*UserEventDebts, error) {
	participant, err := s.store.GetParticipantByUser(ctx, event.ID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	snap, err := s.store.LoadSnapshot(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		slog.Warn("Skipping event with inconsistent data", "event_id", event.ID, "error", err)
		return nil, nil
	}

	balances := calculator.ComputeBalances(snap)
	entry := &UserEventDebts{
		EventID:       event.ID,
		EventName:     event.Name,
		Currency:      event.Currency,
		ParticipantID: participant.ID,
		Balance:       balances[participant.ID],
	}
	for _, tr := range calculator.MinimizeTransfers(balances) {
		switch participant.ID {
		case tr.DebtorID:
			entry.Owes = append(entry.Owes, tr)
		case tr.CreditorID:
			entry.OwedTo = append(entry.OwedTo, tr)
		}
	}
	return entry, nil
}
