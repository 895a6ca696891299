package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/events"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/benbjohnson/clock"
)

// Config holds the timing parameters of the engine
type Config struct {
	LotDuration    time.Duration // countdown restored on every accepted bid
	MaxLotDuration time.Duration // hard ceiling on a lot's total live time, 0 disables it
	TickInterval   time.Duration
}

// DefaultConfig returns a 10 second countdown, 10 minute ceiling, 250ms tick
func DefaultConfig() Config {
	return Config{
		LotDuration:    10 * time.Second,
		MaxLotDuration: 10 * time.Minute,
		TickInterval:   250 * time.Millisecond,
	}
}

// lotState is the in-memory owner of one lot.
//
// Lock order is auction before lot. Its fields are guarded by mu while the owning
// auction's read lock is held, or by the owning auction's write lock alone.
type lotState struct {
	mu      sync.Mutex
	auction *auctionState
	index   int
	lot     models.Lot
	ledger  *Ledger
	proxies []StandingProxy
	timer   *LotTimer
	winner  *models.Winner
}

// auctionState is the state machine instance of one auction
type auctionState struct {
	mu      sync.RWMutex
	auction models.Auction
	lots    []*lotState // ordered by item number, then lot number
	current int         // index into lots, -1 when no lot is active
}

func (a *auctionState) currentLot() *lotState {
	if a.current < 0 || a.current >= len(a.lots) {
		return nil
	}
	return a.lots[a.current]
}

// Engine is the lot bidding engine: it owns auction and lot state, arbitrates bids
// and drives lot timers.
type Engine struct {
	cfg      Config
	clock    clock.Clock
	store    repository.AuctionDB
	pub      events.Publisher
	resolver WinnerResolver

	mu       sync.RWMutex // guards the registries only
	auctions map[string]*auctionState
	lots     map[string]*lotState
}

// New creates an engine. Call Load to restore persisted state before serving.
func New(store repository.AuctionDB, pub events.Publisher, clk clock.Clock, cfg Config) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.LotDuration <= 0 {
		cfg.LotDuration = DefaultConfig().LotDuration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return &Engine{
		cfg:      cfg,
		clock:    clk,
		store:    store,
		pub:      pub,
		resolver: NewWinnerResolver(),
		auctions: make(map[string]*auctionState),
		lots:     make(map[string]*lotState),
	}
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func (e *Engine) newTimer() *LotTimer {
	return NewLotTimer(e.cfg.LotDuration, e.cfg.MaxLotDuration)
}

func (e *Engine) auction(auctionID string) (*auctionState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("engine: auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return a, nil
}

func (e *Engine) lot(lotID string) (*lotState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.lots[lotID]
	if !ok {
		return nil, fmt.Errorf("engine: lot %s: %w", lotID, biddingerrors.ErrLotNotFound)
	}
	return l, nil
}

func (e *Engine) allAuctions() []*auctionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*auctionState, 0, len(e.auctions))
	for _, a := range e.auctions {
		out = append(out, a)
	}
	return out
}

func (e *Engine) publish(evts []events.Event) {
	if e.pub == nil || len(evts) == 0 {
		return
	}
	e.pub.Publish(evts...)
}

// invariant logs and returns an invariant violation. These are never swallowed.
func invariant(op string, err error, fields map[string]any) error {
	fields["op"] = op
	fields["error"] = err.Error()
	utils.Error("engine: invariant violation", fields)
	return fmt.Errorf("engine: %s: %w", op, err)
}

// Load rebuilds the in-memory state from the store
func (e *Engine) Load(ctx context.Context) error {
	auctions, err := e.store.ListAuctions(ctx)
	if err != nil {
		return fmt.Errorf("engine: load auctions: %w", err)
	}

	now := e.now()
	for _, a := range auctions {
		lots, err := e.store.ListLotsByAuction(ctx, a.AuctionID)
		if err != nil {
			return fmt.Errorf("engine: load lots of auction %s: %w", a.AuctionID, err)
		}
		repository.SortLots(lots)

		as := &auctionState{auction: a, current: -1}
		for i, l := range lots {
			bids, err := e.store.GetBidsByLot(ctx, l.LotID)
			if err != nil && !errors.Is(err, biddingerrors.ErrNoBids) {
				return fmt.Errorf("engine: load bids of lot %s: %w", l.LotID, err)
			}
			ledger, err := RestoreLedger(l.LotID, bids)
			if err != nil {
				return invariant("load", err, map[string]any{"lot_id": l.LotID})
			}

			ls := &lotState{
				auction: as,
				index:   i,
				lot:     l,
				ledger:  ledger,
				proxies: ProxiesFromLedger(bids),
				timer:   e.newTimer(),
			}
			w, err := e.store.GetWinner(ctx, l.LotID)
			switch {
			case err == nil:
				ls.winner = &w
			case !errors.Is(err, biddingerrors.ErrWinnerNotFound):
				return fmt.Errorf("engine: load winner of lot %s: %w", l.LotID, err)
			}

			if l.LotID == a.CurrentLotID && a.Status == models.AuctionRunning && l.Active {
				as.current = i
				startedAt := now
				if l.ActiveSince != nil {
					startedAt = *l.ActiveSince
				}
				ls.timer.Resume(startedAt, now)
			}
			as.lots = append(as.lots, ls)
		}

		e.mu.Lock()
		e.auctions[a.AuctionID] = as
		for _, ls := range as.lots {
			e.lots[ls.lot.LotID] = ls
		}
		e.mu.Unlock()
	}

	utils.Info("engine: state loaded", map[string]any{"auctions": len(auctions)})
	return nil
}

// Run drives Tick from the clock until ctx is cancelled
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.Ticker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick applies time-driven transitions: scheduled start, scheduled end and lot expiry
func (e *Engine) Tick(ctx context.Context) {
	for _, as := range e.allAuctions() {
		if err := e.tickAuction(ctx, as); err != nil {
			utils.Error("engine: tick failed", map[string]any{"error": err.Error()})
		}
	}
}

func (e *Engine) tickAuction(ctx context.Context, as *auctionState) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	now := e.now()
	a := as.auction
	switch a.Status {
	case models.AuctionScheduled:
		if !a.StartsAt.IsZero() && !now.Before(a.StartsAt) {
			return e.startLocked(ctx, as, now)
		}
	case models.AuctionRunning:
		if !a.EndsAt.IsZero() && !now.Before(a.EndsAt) {
			return e.endLocked(ctx, as, now)
		}
		// an expired timer whose close failed to persist is retried on the next tick
		if cur := as.currentLot(); cur != nil && (cur.timer.OnTick(now) || cur.timer.State() == TimerExpired) {
			utils.Info("engine: lot timer expired", map[string]any{
				"auction_id": a.AuctionID,
				"lot_id":     cur.lot.LotID,
			})
			return e.closeCurrentLocked(ctx, as, now)
		}
	}
	return nil
}

// AuctionView is a consistent snapshot of an auction and its lots
type AuctionView struct {
	Auction models.Auction `json:"auction"`
	Lots    []models.Lot   `json:"lots"`
}

// LotView is a consistent snapshot of a lot with its countdown
type LotView struct {
	Lot              models.Lot     `json:"lot"`
	TimerState       TimerState     `json:"timer_state"`
	RemainingSeconds float64        `json:"remaining_seconds"`
	Winner           *models.Winner `json:"winner,omitempty"`
}

// GetAuction returns a snapshot of an auction
func (e *Engine) GetAuction(_ context.Context, auctionID string) (AuctionView, error) {
	as, err := e.auction(auctionID)
	if err != nil {
		return AuctionView{}, err
	}
	as.mu.RLock()
	defer as.mu.RUnlock()

	view := AuctionView{Auction: as.auction, Lots: make([]models.Lot, 0, len(as.lots))}
	for _, ls := range as.lots {
		ls.mu.Lock()
		view.Lots = append(view.Lots, ls.lot)
		ls.mu.Unlock()
	}
	return view, nil
}

// GetLot returns a snapshot of a lot
func (e *Engine) GetLot(_ context.Context, lotID string) (LotView, error) {
	ls, err := e.lot(lotID)
	if err != nil {
		return LotView{}, err
	}
	ls.auction.mu.RLock()
	defer ls.auction.mu.RUnlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()

	view := LotView{
		Lot:              ls.lot,
		TimerState:       ls.timer.State(),
		RemainingSeconds: ls.timer.Remaining(e.now()).Seconds(),
	}
	if ls.winner != nil {
		w := *ls.winner
		view.Winner = &w
	}
	return view, nil
}

// ListBids returns the ledger of a lot in sequence order
func (e *Engine) ListBids(_ context.Context, lotID string) ([]models.Bid, error) {
	ls, err := e.lot(lotID)
	if err != nil {
		return nil, err
	}
	ls.auction.mu.RLock()
	defer ls.auction.mu.RUnlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.ledger.Bids(), nil
}

// GetWinner returns the winner of a closed lot
func (e *Engine) GetWinner(_ context.Context, lotID string) (models.Winner, error) {
	ls, err := e.lot(lotID)
	if err != nil {
		return models.Winner{}, err
	}
	ls.auction.mu.RLock()
	defer ls.auction.mu.RUnlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.winner == nil {
		return models.Winner{}, fmt.Errorf("engine: lot %s: %w", lotID, biddingerrors.ErrWinnerNotFound)
	}
	return *ls.winner, nil
}
