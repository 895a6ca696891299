package engine

import (
	"fmt"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// Resolution is the outcome of closing a lot
type Resolution struct {
	Lot     models.Lot
	Winner  *models.Winner
	Created bool // a new Winner row must be persisted
}

// WinnerResolver assigns or withholds the winner of a lot leaving the active state
type WinnerResolver struct {
	newID func() string
}

// NewWinnerResolver creates a resolver generating UUID winner ids
func NewWinnerResolver() WinnerResolver {
	return WinnerResolver{newID: utils.GenerateID}
}

// Resolve closes lot against its ledger. Re-running it on a closed lot, or on a lot
// that already has a winner, returns the existing outcome unchanged.
func (r WinnerResolver) Resolve(lot models.Lot, ledger *Ledger, existing *models.Winner, now time.Time) (Resolution, error) {
	if existing != nil && lot.WinnerStatus == models.WinnerNone {
		return Resolution{}, fmt.Errorf("lot %s: %w", lot.LotID, biddingerrors.ErrWinnerWithoutAssignment)
	}
	if existing == nil && lot.WinnerStatus != models.WinnerNone {
		return Resolution{}, fmt.Errorf("%w: lot %s has winner status %s but no winner", biddingerrors.ErrInvariantViolation, lot.LotID, lot.WinnerStatus)
	}
	if lot.Closed || existing != nil {
		return Resolution{Lot: lot, Winner: existing}, nil
	}

	closedAt := now
	lot.Active = false
	lot.Closed = true
	lot.ClosedAt = &closedAt

	highest, ok := ledger.Highest()
	if !ok {
		return Resolution{Lot: lot}, nil
	}
	if lot.HasReserve() && highest.Amount.LessThan(lot.ReservePrice.Decimal) {
		return Resolution{Lot: lot}, nil
	}

	winner := models.Winner{
		WinnerID:      r.newID(),
		LotID:         lot.LotID,
		UserID:        highest.BidderID,
		BidID:         highest.BidID,
		Amount:        highest.Amount,
		PaidAmount:    decimal.Zero,
		PaymentStatus: models.PaymentUnpaid,
		AssignedAt:    now,
	}
	lot.WinnerStatus = models.WinnerPending
	lot.HammerPrice = decimal.NewNullDecimal(highest.Amount)
	return Resolution{Lot: lot, Winner: &winner, Created: true}, nil
}
