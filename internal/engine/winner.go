package engine

import (
	"context"
	"fmt"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// ResolveWinner re-runs winner resolution on a closed lot. It never creates a second
// winner; for a lot already resolved it returns the existing outcome.
func (e *Engine) ResolveWinner(ctx context.Context, lotID string) (LotView, error) {
	ls, err := e.lot(lotID)
	if err != nil {
		return LotView{}, err
	}
	as := ls.auction
	as.mu.Lock()
	defer as.mu.Unlock()

	if !ls.lot.Closed {
		return LotView{}, fmt.Errorf("engine: resolve lot %s: %w", lotID, biddingerrors.ErrLotNotActive)
	}
	res, err := e.resolver.Resolve(ls.lot, ls.ledger, ls.winner, e.now())
	if err != nil {
		return LotView{}, invariant("resolve winner", err, map[string]any{"lot_id": lotID})
	}
	if res.Created {
		// a closed lot always carries its resolution, so this only happens on corrupt state
		return LotView{}, invariant("resolve winner",
			fmt.Errorf("%w: closed lot %s resolved a new winner", biddingerrors.ErrInvariantViolation, lotID),
			map[string]any{"lot_id": lotID})
	}
	view := LotView{Lot: res.Lot, TimerState: ls.timer.State()}
	if res.Winner != nil {
		w := *res.Winner
		view.Winner = &w
	}
	return view, nil
}

// winnerTransition moves a lot's winner through its lifecycle. Locks: auction read, lot.
func (e *Engine) winnerTransition(ctx context.Context, lotID, op string, apply func(lot *models.Lot, w *models.Winner) error) (models.Winner, error) {
	ls, err := e.lot(lotID)
	if err != nil {
		return models.Winner{}, err
	}
	as := ls.auction
	as.mu.RLock()
	defer as.mu.RUnlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.winner == nil {
		return models.Winner{}, fmt.Errorf("engine: %s lot %s: %w", op, lotID, biddingerrors.ErrWinnerNotFound)
	}
	lot := ls.lot
	w := *ls.winner
	from := lot.WinnerStatus
	if err := apply(&lot, &w); err != nil {
		return models.Winner{}, fmt.Errorf("engine: %s lot %s: %w", op, lotID, err)
	}

	if err := e.store.Commit(ctx, repository.Changeset{Lots: []models.Lot{lot}, Winners: []models.Winner{w}}); err != nil {
		return models.Winner{}, fmt.Errorf("engine: persist %s of lot %s: %w", op, lotID, err)
	}
	ls.lot = lot
	ls.winner = &w

	utils.Info("engine: winner updated", map[string]any{
		"lot_id":         lotID,
		"op":             op,
		"from":           from,
		"to":             lot.WinnerStatus,
		"payment_status": w.PaymentStatus,
	})
	return w, nil
}

func transitionErr(from models.WinnerStatus, to models.WinnerStatus) error {
	return fmt.Errorf("%w: winner %s -> %s", biddingerrors.ErrInvalidTransition, from, to)
}

// ConfirmWinner accepts the hammer price on behalf of the seller
func (e *Engine) ConfirmWinner(ctx context.Context, lotID string) (models.Winner, error) {
	return e.winnerTransition(ctx, lotID, "confirm", func(lot *models.Lot, _ *models.Winner) error {
		if lot.WinnerStatus != models.WinnerPending {
			return transitionErr(lot.WinnerStatus, models.WinnerConfirmed)
		}
		lot.WinnerStatus = models.WinnerConfirmed
		return nil
	})
}

// RejectWinner refuses the sale; the winner row stays for the record
func (e *Engine) RejectWinner(ctx context.Context, lotID string) (models.Winner, error) {
	return e.winnerTransition(ctx, lotID, "reject", func(lot *models.Lot, _ *models.Winner) error {
		if lot.WinnerStatus != models.WinnerPending && lot.WinnerStatus != models.WinnerConfirmed {
			return transitionErr(lot.WinnerStatus, models.WinnerRejected)
		}
		lot.WinnerStatus = models.WinnerRejected
		return nil
	})
}

// RecordPayment adds a payment against the hammer price. Full payment completes the lot.
func (e *Engine) RecordPayment(ctx context.Context, lotID string, amount decimal.Decimal) (models.Winner, error) {
	return e.winnerTransition(ctx, lotID, "record payment", func(lot *models.Lot, w *models.Winner) error {
		if lot.WinnerStatus != models.WinnerConfirmed {
			return transitionErr(lot.WinnerStatus, models.WinnerCompleted)
		}
		if !amount.IsPositive() {
			return fmt.Errorf("%w - amount must be positive", biddingerrors.ErrInvalidPayment)
		}
		paid := w.PaidAmount.Add(amount)
		if paid.GreaterThan(w.Amount) {
			return fmt.Errorf("%w - %s exceeds outstanding %s", biddingerrors.ErrInvalidPayment, amount, w.Amount.Sub(w.PaidAmount))
		}
		w.PaidAmount = paid
		if paid.Equal(w.Amount) {
			w.PaymentStatus = models.PaymentPaid
			lot.WinnerStatus = models.WinnerCompleted
		} else {
			w.PaymentStatus = models.PaymentPartial
		}
		return nil
	})
}

// MarkPaymentFailed records that the winner did not pay
func (e *Engine) MarkPaymentFailed(ctx context.Context, lotID string) (models.Winner, error) {
	return e.winnerTransition(ctx, lotID, "mark payment failed", func(lot *models.Lot, w *models.Winner) error {
		if lot.WinnerStatus != models.WinnerPending && lot.WinnerStatus != models.WinnerConfirmed {
			return transitionErr(lot.WinnerStatus, models.WinnerPaymentFailed)
		}
		lot.WinnerStatus = models.WinnerPaymentFailed
		w.PaymentStatus = models.PaymentFailed
		return nil
	})
}
