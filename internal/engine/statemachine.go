package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/events"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

var transitions = map[models.AuctionStatus][]models.AuctionStatus{
	models.AuctionDraft:     {models.AuctionScheduled},
	models.AuctionScheduled: {models.AuctionRunning, models.AuctionCancelled},
	models.AuctionRunning:   {models.AuctionEnded, models.AuctionCancelled},
	models.AuctionEnded:     {models.AuctionSettled},
}

// CanTransition reports whether an auction may move from one status to another
func CanTransition(from, to models.AuctionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(a models.Auction, to models.AuctionStatus) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("engine: auction %s %s -> %s: %w", a.AuctionID, a.Status, to, biddingerrors.ErrInvalidTransition)
	}
	return nil
}

// AuctionSpec describes a new auction
type AuctionSpec struct {
	Name         string
	LocationID   string
	StartsAt     time.Time
	EndsAt       time.Time
	MinIncrement decimal.Decimal
	AllowPreBids bool
}

// LotSpec describes a lot added to an auction
type LotSpec struct {
	CarID         string
	LotNumber     int
	ItemNumber    int
	MinimumPreBid decimal.Decimal
	ReservePrice  decimal.NullDecimal
}

// CreateAuction registers a Draft auction
func (e *Engine) CreateAuction(ctx context.Context, spec AuctionSpec) (models.Auction, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return models.Auction{}, fmt.Errorf("engine: %w - empty name", biddingerrors.ErrInvalidAuction)
	}
	if !spec.MinIncrement.IsPositive() {
		return models.Auction{}, fmt.Errorf("engine: %w - minimum increment must be positive", biddingerrors.ErrInvalidAuction)
	}
	if err := checkSchedule(spec.StartsAt, spec.EndsAt); err != nil {
		return models.Auction{}, err
	}

	now := e.now()
	a := models.Auction{
		AuctionID:    utils.GenerateID(),
		Name:         spec.Name,
		LocationID:   spec.LocationID,
		StartsAt:     spec.StartsAt.UTC(),
		EndsAt:       spec.EndsAt.UTC(),
		MinIncrement: spec.MinIncrement,
		AllowPreBids: spec.AllowPreBids,
		Status:       models.AuctionDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.CreateAuction(ctx, a); err != nil {
		return models.Auction{}, fmt.Errorf("engine: create auction: %w", err)
	}

	e.mu.Lock()
	e.auctions[a.AuctionID] = &auctionState{auction: a, current: -1}
	e.mu.Unlock()

	utils.Info("engine: auction created", map[string]any{"auction_id": a.AuctionID, "name": a.Name})
	return a, nil
}

func checkSchedule(startsAt, endsAt time.Time) error {
	if !startsAt.IsZero() && !endsAt.IsZero() && !endsAt.After(startsAt) {
		return fmt.Errorf("engine: %w - end %s not after start %s", biddingerrors.ErrInvalidAuction,
			endsAt.Format(time.RFC3339), startsAt.Format(time.RFC3339))
	}
	return nil
}

// ScheduleAuction sets the schedule and moves a Draft auction to Scheduled
func (e *Engine) ScheduleAuction(ctx context.Context, auctionID string, startsAt, endsAt time.Time) (models.Auction, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if err := checkTransition(as.auction, models.AuctionScheduled); err != nil {
		return models.Auction{}, err
	}
	next := as.auction
	if !startsAt.IsZero() {
		next.StartsAt = startsAt.UTC()
	}
	if !endsAt.IsZero() {
		next.EndsAt = endsAt.UTC()
	}
	if err := checkSchedule(next.StartsAt, next.EndsAt); err != nil {
		return models.Auction{}, err
	}

	if err := e.commitStatus(ctx, as, next, models.AuctionScheduled, e.now()); err != nil {
		return models.Auction{}, err
	}
	return as.auction, nil
}

// commitStatus persists a status change of the auction alone and publishes it
func (e *Engine) commitStatus(ctx context.Context, as *auctionState, next models.Auction, to models.AuctionStatus, now time.Time) error {
	from := next.Status
	next.Status = to
	next.UpdatedAt = now
	if err := e.store.Commit(ctx, repository.Changeset{Auction: &next}); err != nil {
		return fmt.Errorf("engine: persist auction %s: %w", next.AuctionID, err)
	}
	as.auction = next
	e.publish([]events.Event{events.AuctionStatusChanged(next.AuctionID, to, now)})
	utils.Info("engine: auction status changed", map[string]any{
		"auction_id": next.AuctionID,
		"from":       from,
		"to":         to,
	})
	return nil
}

// AddLot registers a lot while the auction has not started
func (e *Engine) AddLot(ctx context.Context, auctionID string, spec LotSpec) (models.Lot, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Lot{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if s := as.auction.Status; s != models.AuctionDraft && s != models.AuctionScheduled {
		return models.Lot{}, fmt.Errorf("engine: add lot to %s auction %s: %w", s, auctionID, biddingerrors.ErrInvalidTransition)
	}
	if spec.LotNumber <= 0 || spec.ItemNumber < 0 {
		return models.Lot{}, fmt.Errorf("engine: %w - lot number must be positive", biddingerrors.ErrInvalidLot)
	}
	if !spec.MinimumPreBid.IsPositive() {
		return models.Lot{}, fmt.Errorf("engine: %w - minimum pre-bid must be positive", biddingerrors.ErrInvalidLot)
	}
	if spec.ReservePrice.Valid && spec.ReservePrice.Decimal.LessThan(spec.MinimumPreBid) {
		return models.Lot{}, fmt.Errorf("engine: %w - reserve %s, minimum %s", biddingerrors.ErrReserveBelowMinimum,
			spec.ReservePrice.Decimal, spec.MinimumPreBid)
	}
	for _, ls := range as.lots {
		if ls.lot.LotNumber == spec.LotNumber {
			return models.Lot{}, fmt.Errorf("engine: %w - lot number %d", biddingerrors.ErrDuplicateLotNumber, spec.LotNumber)
		}
	}

	lot := models.Lot{
		LotID:         utils.GenerateID(),
		AuctionID:     auctionID,
		CarID:         spec.CarID,
		LotNumber:     spec.LotNumber,
		ItemNumber:    spec.ItemNumber,
		MinimumPreBid: spec.MinimumPreBid,
		ReservePrice:  spec.ReservePrice,
		CurrentPrice:  decimal.Zero,
		WinnerStatus:  models.WinnerNone,
	}
	if err := e.store.CreateLot(ctx, lot); err != nil {
		return models.Lot{}, fmt.Errorf("engine: create lot: %w", err)
	}

	ls := &lotState{
		auction: as,
		lot:     lot,
		ledger:  NewLedger(lot.LotID),
		timer:   e.newTimer(),
	}
	lots := append(as.lots, ls)
	sortLotStates(lots)
	as.lots = lots

	e.mu.Lock()
	e.lots[lot.LotID] = ls
	e.mu.Unlock()

	utils.Info("engine: lot added", map[string]any{
		"auction_id": auctionID,
		"lot_id":     lot.LotID,
		"lot_number": lot.LotNumber,
	})
	return lot, nil
}

func sortLotStates(lots []*lotState) {
	plain := make([]models.Lot, len(lots))
	byID := make(map[string]*lotState, len(lots))
	for i, ls := range lots {
		plain[i] = ls.lot
		byID[ls.lot.LotID] = ls
	}
	repository.SortLots(plain)
	for i, l := range plain {
		lots[i] = byID[l.LotID]
		lots[i].index = i
	}
}

// StartAuction moves a Scheduled auction to Running and activates its first lot
func (e *Engine) StartAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if err := e.startLocked(ctx, as, e.now()); err != nil {
		return models.Auction{}, err
	}
	return as.auction, nil
}

// EndAuction closes the current lot and moves a Running auction to Ended
func (e *Engine) EndAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if err := e.endLocked(ctx, as, e.now()); err != nil {
		return models.Auction{}, err
	}
	return as.auction, nil
}

// CloseCurrentLot closes the active lot, resolves its winner and advances the auction
func (e *Engine) CloseCurrentLot(ctx context.Context, auctionID string) (models.Auction, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.auction.Status != models.AuctionRunning {
		return models.Auction{}, fmt.Errorf("engine: close lot of auction %s: %w", auctionID, biddingerrors.ErrAuctionNotRunning)
	}
	if err := e.closeCurrentLocked(ctx, as, e.now()); err != nil {
		return models.Auction{}, err
	}
	return as.auction, nil
}

// CancelAuction cancels a Scheduled or Running auction that has no live bids
func (e *Engine) CancelAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if err := checkTransition(as.auction, models.AuctionCancelled); err != nil {
		return models.Auction{}, err
	}
	for _, ls := range as.lots {
		if ls.ledger.HasLiveBids() {
			return models.Auction{}, fmt.Errorf("engine: cancel auction %s: %w - lot %s", auctionID,
				biddingerrors.ErrAuctionHasLiveBids, ls.lot.LotID)
		}
	}

	now := e.now()
	next := as.auction
	next.Status = models.AuctionCancelled
	next.CurrentLotID = ""
	next.UpdatedAt = now
	cs := repository.Changeset{Auction: &next}

	// the current lot is withdrawn, not hammered: it stays unclosed and no winner is resolved
	cur := as.currentLot()
	var curLot models.Lot
	if cur != nil {
		curLot = cur.lot
		curLot.Active = false
		cs.Lots = append(cs.Lots, curLot)
	}
	if err := e.store.Commit(ctx, cs); err != nil {
		return models.Auction{}, fmt.Errorf("engine: persist cancel of auction %s: %w", auctionID, err)
	}

	if cur != nil {
		cur.lot = curLot
		cur.timer.Cancel()
	}
	as.auction = next
	as.current = -1

	e.publish([]events.Event{events.AuctionStatusChanged(auctionID, models.AuctionCancelled, now)})
	utils.Info("engine: auction cancelled", map[string]any{"auction_id": auctionID})
	return next, nil
}

// SettleAuction moves an Ended auction to Settled once every winner is finalized
func (e *Engine) SettleAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	if err := checkTransition(as.auction, models.AuctionSettled); err != nil {
		return models.Auction{}, err
	}
	for _, ls := range as.lots {
		if !ls.lot.WinnerStatus.Finalized() {
			return models.Auction{}, fmt.Errorf("engine: settle auction %s: %w - lot %s is %s", auctionID,
				biddingerrors.ErrWinnersNotFinalized, ls.lot.LotID, ls.lot.WinnerStatus)
		}
	}
	if err := e.commitStatus(ctx, as, as.auction, models.AuctionSettled, e.now()); err != nil {
		return models.Auction{}, err
	}
	return as.auction, nil
}

// nextOpenLot returns the index of the first lot after from that has not closed, or -1
func nextOpenLot(as *auctionState, from int) int {
	for i := from + 1; i < len(as.lots); i++ {
		if !as.lots[i].lot.Closed {
			return i
		}
	}
	return -1
}

// startLocked requires the auction write lock
func (e *Engine) startLocked(ctx context.Context, as *auctionState, now time.Time) error {
	if err := checkTransition(as.auction, models.AuctionRunning); err != nil {
		return err
	}
	for _, ls := range as.lots {
		if ls.lot.Active {
			return invariant("start", fmt.Errorf("%w: lot %s already active", biddingerrors.ErrInvariantViolation, ls.lot.LotID),
				map[string]any{"auction_id": as.auction.AuctionID})
		}
	}

	next := as.auction
	next.Status = models.AuctionRunning
	next.UpdatedAt = now
	cs := repository.Changeset{Auction: &next}

	first := nextOpenLot(as, -1)
	var firstLot models.Lot
	if first >= 0 {
		firstLot = activated(as.lots[first].lot, now)
		next.CurrentLotID = firstLot.LotID
		cs.Lots = append(cs.Lots, firstLot)
	} else {
		next.Status = models.AuctionEnded
		next.CurrentLotID = ""
	}
	if err := e.store.Commit(ctx, cs); err != nil {
		return fmt.Errorf("engine: persist start of auction %s: %w", next.AuctionID, err)
	}

	as.auction = next
	as.current = first
	evts := []events.Event{events.AuctionStatusChanged(next.AuctionID, models.AuctionRunning, now)}
	if first >= 0 {
		ls := as.lots[first]
		ls.lot = firstLot
		ls.timer.Start(now)
		evts = append(evts, events.LotTimerReset(next.AuctionID, firstLot.LotID, ls.timer.Remaining(now), now))
	} else {
		evts = append(evts, events.AuctionStatusChanged(next.AuctionID, models.AuctionEnded, now))
	}
	e.publish(evts)

	utils.Info("engine: auction started", map[string]any{
		"auction_id":     next.AuctionID,
		"current_lot_id": next.CurrentLotID,
		"status":         next.Status,
	})
	return nil
}

func activated(l models.Lot, now time.Time) models.Lot {
	since := now
	l.Active = true
	l.ActiveSince = &since
	return l
}

// closeCurrentLocked requires the auction write lock
func (e *Engine) closeCurrentLocked(ctx context.Context, as *auctionState, now time.Time) error {
	cur := as.currentLot()
	if cur == nil {
		return fmt.Errorf("engine: auction %s has no current lot: %w", as.auction.AuctionID, biddingerrors.ErrLotNotActive)
	}
	res, err := e.resolver.Resolve(cur.lot, cur.ledger, cur.winner, now)
	if err != nil {
		return invariant("close lot", err, map[string]any{"lot_id": cur.lot.LotID})
	}

	next := as.auction
	next.UpdatedAt = now
	cs := repository.Changeset{Auction: &next, Lots: []models.Lot{res.Lot}}
	if res.Created {
		cs.Winners = append(cs.Winners, *res.Winner)
	}

	nextIdx := nextOpenLot(as, cur.index)
	var nextLot models.Lot
	if nextIdx >= 0 {
		nextLot = activated(as.lots[nextIdx].lot, now)
		next.CurrentLotID = nextLot.LotID
		cs.Lots = append(cs.Lots, nextLot)
	} else {
		next.Status = models.AuctionEnded
		next.CurrentLotID = ""
	}
	if err := e.store.Commit(ctx, cs); err != nil {
		return fmt.Errorf("engine: persist close of lot %s: %w", cur.lot.LotID, err)
	}

	evts := e.applyClose(as, cur, res, now)
	as.auction = next
	as.current = nextIdx
	if nextIdx >= 0 {
		ls := as.lots[nextIdx]
		ls.lot = nextLot
		ls.timer.Start(now)
		evts = append(evts, events.LotTimerReset(next.AuctionID, nextLot.LotID, ls.timer.Remaining(now), now))
	} else {
		evts = append(evts, events.AuctionStatusChanged(next.AuctionID, models.AuctionEnded, now))
	}
	e.publish(evts)
	return nil
}

// endLocked requires the auction write lock
func (e *Engine) endLocked(ctx context.Context, as *auctionState, now time.Time) error {
	if err := checkTransition(as.auction, models.AuctionEnded); err != nil {
		return err
	}

	next := as.auction
	next.Status = models.AuctionEnded
	next.CurrentLotID = ""
	next.UpdatedAt = now
	cs := repository.Changeset{Auction: &next}

	cur := as.currentLot()
	var res Resolution
	if cur != nil {
		var err error
		res, err = e.resolver.Resolve(cur.lot, cur.ledger, cur.winner, now)
		if err != nil {
			return invariant("end auction", err, map[string]any{"lot_id": cur.lot.LotID})
		}
		cs.Lots = append(cs.Lots, res.Lot)
		if res.Created {
			cs.Winners = append(cs.Winners, *res.Winner)
		}
	}
	if err := e.store.Commit(ctx, cs); err != nil {
		return fmt.Errorf("engine: persist end of auction %s: %w", next.AuctionID, err)
	}

	var evts []events.Event
	if cur != nil {
		evts = e.applyClose(as, cur, res, now)
	}
	as.auction = next
	as.current = -1
	evts = append(evts, events.AuctionStatusChanged(next.AuctionID, models.AuctionEnded, now))
	e.publish(evts)

	utils.Info("engine: auction ended", map[string]any{"auction_id": next.AuctionID})
	return nil
}

// applyClose installs a persisted resolution on the lot and returns its events
func (e *Engine) applyClose(as *auctionState, ls *lotState, res Resolution, now time.Time) []events.Event {
	ls.lot = res.Lot
	ls.winner = res.Winner
	ls.timer.Cancel()

	evts := []events.Event{events.LotClosed(as.auction.AuctionID, ls.lot.LotID, now)}
	fields := map[string]any{
		"auction_id":    as.auction.AuctionID,
		"lot_id":        ls.lot.LotID,
		"winner_status": ls.lot.WinnerStatus,
	}
	if res.Created {
		evts = append(evts, events.WinnerAssigned(as.auction.AuctionID, *res.Winner))
		fields["winner_id"] = res.Winner.UserID
		fields["hammer_price"] = res.Winner.Amount.String()
	}
	utils.Info("engine: lot closed", fields)
	return evts
}
