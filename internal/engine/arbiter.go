package engine

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/events"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// BidRequest is an incoming bid on a lot
type BidRequest struct {
	LotID    string
	BidderID string
	Amount   decimal.Decimal
	Kind     models.BidKind // PreBid, Live or ProxySeed
	ProxyMax decimal.NullDecimal
	Notes    string
	// SeenSequence is the last sequence the bidder observed. When set and the
	// ledger moved past it, a bid that no longer clears the minimum is reported
	// as superseded instead of below the increment.
	SeenSequence *int64
}

// BidResult is the outcome of an accepted bid
type BidResult struct {
	Bid             models.Bid      `json:"bid"`
	Cascade         []models.Bid    `json:"cascade,omitempty"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	HighestBidderID string          `json:"highest_bidder_id"`
	LastSequence    int64           `json:"last_sequence"`
	IsReserveMet    bool            `json:"is_reserve_met"`
	Remaining       time.Duration   `json:"-"`
}

// ValidationReport is the read-only verdict on a prospective bid
type ValidationReport struct {
	Valid            bool            `json:"valid"`
	Reason           string          `json:"reason,omitempty"`
	Kind             string          `json:"kind,omitempty"`
	MinAcceptable    decimal.Decimal `json:"min_acceptable"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	LastSequence     int64           `json:"last_sequence"`
	RemainingSeconds float64         `json:"remaining_seconds"`
}

// minAcceptable is the lowest amount the next bid may carry
func minAcceptable(ls *lotState) decimal.Decimal {
	if ls.ledger.Len() == 0 {
		return ls.lot.MinimumPreBid
	}
	return ls.lot.CurrentPrice.Add(ls.auction.auction.MinIncrement)
}

// checkBid applies the arbitration rules in order; the first failure wins.
// The caller holds the auction read lock and the lot lock.
func checkBid(ls *lotState, req BidRequest, now time.Time) *biddingerrors.Rejection {
	a := ls.auction.auction
	reject := func(reason error, detail string) *biddingerrors.Rejection {
		return &biddingerrors.Rejection{
			Reason:        reason,
			LotID:         ls.lot.LotID,
			BidderID:      req.BidderID,
			Amount:        req.Amount,
			MinAcceptable: minAcceptable(ls),
			CurrentPrice:  ls.lot.CurrentPrice,
			LastSequence:  ls.ledger.LastSequence(),
			Detail:        detail,
		}
	}

	switch req.Kind {
	case models.BidPreBid:
		if a.Status != models.AuctionScheduled && a.Status != models.AuctionRunning {
			return reject(biddingerrors.ErrAuctionNotRunning, string(a.Status))
		}
		if !a.AllowPreBids {
			return reject(biddingerrors.ErrPreBidNotAllowed, "")
		}
		if ls.lot.Closed {
			return reject(biddingerrors.ErrLotClosed, "")
		}
		if ls.lot.Active {
			return reject(biddingerrors.ErrLotNotActive, "lot is live, pre-bidding is over")
		}
	case models.BidLive, models.BidProxySeed:
		if a.Status != models.AuctionRunning {
			return reject(biddingerrors.ErrAuctionNotRunning, string(a.Status))
		}
		if ls.lot.Closed {
			return reject(biddingerrors.ErrLotClosed, "")
		}
		if cur := ls.auction.currentLot(); cur != ls || !ls.lot.Active {
			return reject(biddingerrors.ErrLotNotActive, "lot is not the current lot")
		}
		if !ls.timer.Open(now) {
			return reject(biddingerrors.ErrLotNotActive, "lot timer expired")
		}
	default:
		return reject(biddingerrors.ErrInvalidBid, fmt.Sprintf("unsupported kind %q", req.Kind))
	}

	if !req.Amount.IsPositive() {
		return reject(biddingerrors.ErrInvalidBid, "amount must be positive")
	}
	if floor := minAcceptable(ls); req.Amount.LessThan(floor) {
		if req.SeenSequence != nil && *req.SeenSequence < ls.ledger.LastSequence() {
			return reject(biddingerrors.ErrConcurrentBidSuperseded,
				fmt.Sprintf("seen sequence %d, ledger at %d", *req.SeenSequence, ls.ledger.LastSequence()))
		}
		return reject(biddingerrors.ErrBelowMinimumIncrement, "needs at least "+floor.String())
	}
	if req.Kind == models.BidProxySeed {
		if !req.ProxyMax.Valid || req.ProxyMax.Decimal.LessThan(req.Amount) {
			return reject(biddingerrors.ErrProxyMaxBelowAmount, "")
		}
	}
	return nil
}

// nextPlacedAt keeps placed-at timestamps strictly increasing per lot
func nextPlacedAt(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

// PlaceBid arbitrates one bid. Bids on the same lot are serialized; bids on different
// lots proceed in parallel. A rejection is returned as *biddingerrors.Rejection and
// leaves the lot untouched.
func (e *Engine) PlaceBid(ctx context.Context, req BidRequest) (BidResult, error) {
	ls, err := e.lot(req.LotID)
	if err != nil {
		return BidResult{}, err
	}
	as := ls.auction
	as.mu.RLock()
	defer as.mu.RUnlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()

	now := e.now()
	if rej := checkBid(ls, req, now); rej != nil {
		utils.Warn("engine: bid rejected", map[string]any{
			"lot_id":    req.LotID,
			"bidder_id": req.BidderID,
			"amount":    req.Amount.String(),
			"reason":    rej.Reason.Error(),
		})
		return BidResult{}, rej
	}

	increment := as.auction.MinIncrement
	last, hasLast := ls.ledger.Last()
	placedAt := now
	if hasLast {
		placedAt = nextPlacedAt(last.PlacedAt, now)
	}
	seq := ls.ledger.LastSequence() + 1

	primary := models.Bid{
		BidID:    utils.GenerateID(),
		LotID:    ls.lot.LotID,
		BidderID: req.BidderID,
		Amount:   req.Amount,
		Kind:     req.Kind,
		PlacedAt: placedAt,
		Status:   models.BidAccepted,
		Sequence: seq,
		Notes:    req.Notes,
	}
	proxies := ls.proxies
	if req.Kind == models.BidProxySeed {
		primary.ProxyMax = req.ProxyMax
		proxies = RegisterProxy(ls.proxies, StandingProxy{
			BidderID: req.BidderID,
			Max:      req.ProxyMax.Decimal,
			Sequence: seq,
		})
	}

	steps, err := Cascade(req.Amount, req.BidderID, increment, proxies)
	if err != nil {
		return BidResult{}, invariant("cascade", err, map[string]any{"lot_id": ls.lot.LotID})
	}

	pending := make([]models.Bid, 0, len(steps)+1)
	pending = append(pending, primary)
	for _, step := range steps {
		seq++
		placedAt = nextPlacedAt(placedAt, now)
		pending = append(pending, models.Bid{
			BidID:    utils.GenerateID(),
			LotID:    ls.lot.LotID,
			BidderID: step.BidderID,
			Amount:   step.Amount,
			Kind:     models.BidProxyCascade,
			PlacedAt: placedAt,
			ProxyMax: decimal.NewNullDecimal(step.ProxyMax),
			Status:   models.BidAccepted,
			Sequence: seq,
		})
	}
	if err := ls.ledger.Check(pending); err != nil {
		return BidResult{}, invariant("place bid", err, map[string]any{"lot_id": ls.lot.LotID})
	}

	top := pending[len(pending)-1]
	lot := ls.lot
	lot.CurrentPrice = top.Amount
	lot.HighestBidID = top.BidID
	lot.LastSequence = top.Sequence
	lot.IsReserveMet = lot.HasReserve() && !top.Amount.LessThan(lot.ReservePrice.Decimal)

	if err := e.store.Commit(ctx, repository.Changeset{Lots: []models.Lot{lot}, Bids: pending}); err != nil {
		return BidResult{}, fmt.Errorf("engine: persist bid on lot %s: %w", lot.LotID, err)
	}

	if err := ls.ledger.Append(pending...); err != nil {
		return BidResult{}, invariant("append bid", err, map[string]any{"lot_id": lot.LotID})
	}
	ls.lot = lot
	ls.proxies = proxies

	auctionID := as.auction.AuctionID
	evts := make([]events.Event, 0, 2*len(pending)+1)
	for _, b := range pending {
		evts = append(evts,
			events.BidPlaced(auctionID, b),
			events.HighestBidUpdated(auctionID, lot.LotID, b.Amount, b.PlacedAt),
		)
	}
	var remaining time.Duration
	if req.Kind != models.BidPreBid {
		remaining = ls.timer.OnAcceptedBid(now)
		evts = append(evts, events.LotTimerReset(auctionID, lot.LotID, remaining, now))
	}
	e.publish(evts)

	result := BidResult{
		Bid:             primary,
		CurrentPrice:    lot.CurrentPrice,
		HighestBidderID: top.BidderID,
		LastSequence:    lot.LastSequence,
		IsReserveMet:    lot.IsReserveMet,
		Remaining:       remaining,
	}
	if len(pending) > 1 {
		result.Bid.Status = models.BidSuperseded
		result.Cascade = append([]models.Bid(nil), pending[1:]...)
	}

	utils.Info("engine: bid accepted", map[string]any{
		"lot_id":        lot.LotID,
		"bidder_id":     req.BidderID,
		"kind":          req.Kind,
		"amount":        req.Amount.String(),
		"sequence":      primary.Sequence,
		"cascade_steps": len(steps),
		"current_price": lot.CurrentPrice.String(),
	})
	return result, nil
}

// ValidateBid runs the arbitration rules without mutating anything
func (e *Engine) ValidateBid(_ context.Context, req BidRequest) (ValidationReport, error) {
	ls, err := e.lot(req.LotID)
	if err != nil {
		return ValidationReport{}, err
	}
	as := ls.auction
	as.mu.RLock()
	defer as.mu.RUnlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()

	now := e.now()
	report := ValidationReport{
		Valid:            true,
		MinAcceptable:    minAcceptable(ls),
		CurrentPrice:     ls.lot.CurrentPrice,
		LastSequence:     ls.ledger.LastSequence(),
		RemainingSeconds: ls.timer.Remaining(now).Seconds(),
	}
	if rej := checkBid(ls, req, now); rej != nil {
		report.Valid = false
		report.Reason = rej.Error()
		report.Kind = biddingerrors.Kind(rej).String()
	}
	return report, nil
}
