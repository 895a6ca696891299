package repository

import (
	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"context"
	"fmt"
	"sort"
	"sync"
)

//go:generate mockgen -destination=mock_repository.go -package=repository auction-engine/internal/repository AuctionDB,UserDirectory,CarCatalog

// Changeset is the unit of durable work produced by one critical section.
// All of it is applied or none of it is.
type Changeset struct {
	Auction *model.Auction
	Lots    []model.Lot
	Bids    []model.Bid    // appended to the lot ledgers, sequence must continue each ledger
	Winners []model.Winner // upserted by WinnerID; at most one per lot
}

// Empty reports whether the changeset carries nothing to persist
func (c Changeset) Empty() bool {
	return c.Auction == nil && len(c.Lots) == 0 && len(c.Bids) == 0 && len(c.Winners) == 0
}

// AuctionDB defines the storage interface of the bidding engine
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	CreateLot(ctx context.Context, lot model.Lot) error
	GetLot(ctx context.Context, lotID string) (model.Lot, error)
	ListLotsByAuction(ctx context.Context, auctionID string) ([]model.Lot, error)
	GetBidsByLot(ctx context.Context, lotID string) ([]model.Bid, error)
	GetWinner(ctx context.Context, lotID string) (model.Winner, error)
	Commit(ctx context.Context, cs Changeset) error
}

// UserDirectory resolves bidder identities
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// CarCatalog is the car/location read model
type CarCatalog interface {
	GetCar(ctx context.Context, carID string) (model.Car, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction
	lots     map[string]model.Lot
	bids     map[string][]model.Bid  // key: lotID -> value: ledger in sequence order
	winners  map[string]model.Winner // key: lotID -> value: winner
	users    map[string]model.User
	cars     map[string]model.Car
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]model.Auction),
		lots:     make(map[string]model.Lot),
		bids:     make(map[string][]model.Bid),
		winners:  make(map[string]model.Winner),
		users:    make(map[string]model.User),
		cars:     make(map[string]model.Car),
	}
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists", auction.AuctionID)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns an auction by id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// ListAuctions returns every auction ordered by start time
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].AuctionID < out[j].AuctionID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

// CreateLot stores a new lot; lot numbers are unique within an auction
func (r *MemoryRepo) CreateLot(_ context.Context, lot model.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[lot.AuctionID]; !ok {
		return fmt.Errorf("create lot %s: %w", lot.LotID, biddingerrors.ErrAuctionNotFound)
	}
	for _, l := range r.lots {
		if l.AuctionID == lot.AuctionID && l.LotNumber == lot.LotNumber {
			return fmt.Errorf("create lot %s: %w - lot number %d", lot.LotID, biddingerrors.ErrDuplicateLotNumber, lot.LotNumber)
		}
	}
	r.lots[lot.LotID] = lot
	return nil
}

// GetLot returns a lot by id
func (r *MemoryRepo) GetLot(_ context.Context, lotID string) (model.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lots[lotID]
	if !ok {
		return model.Lot{}, fmt.Errorf("get lot %s: %w", lotID, biddingerrors.ErrLotNotFound)
	}
	return l, nil
}

// ListLotsByAuction returns the lots of an auction by item number, then lot number
func (r *MemoryRepo) ListLotsByAuction(_ context.Context, auctionID string) ([]model.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("list lots for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	var out []model.Lot
	for _, l := range r.lots {
		if l.AuctionID == auctionID {
			out = append(out, l)
		}
	}
	SortLots(out)
	return out, nil
}

// GetBidsByLot returns the ledger of a lot in sequence order
func (r *MemoryRepo) GetBidsByLot(_ context.Context, lotID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[lotID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for lot %s: %w", lotID, biddingerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetWinner returns the winner of a lot
func (r *MemoryRepo) GetWinner(_ context.Context, lotID string) (model.Winner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.winners[lotID]
	if !ok {
		return model.Winner{}, fmt.Errorf("get winner for lot %s: %w", lotID, biddingerrors.ErrWinnerNotFound)
	}
	return w, nil
}

// Commit validates the whole changeset before applying any of it
func (r *MemoryRepo) Commit(_ context.Context, cs Changeset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs.Auction != nil {
		if _, ok := r.auctions[cs.Auction.AuctionID]; !ok {
			return fmt.Errorf("commit: auction %s: %w", cs.Auction.AuctionID, biddingerrors.ErrAuctionNotFound)
		}
	}
	for _, l := range cs.Lots {
		if _, ok := r.lots[l.LotID]; !ok {
			return fmt.Errorf("commit: lot %s: %w", l.LotID, biddingerrors.ErrLotNotFound)
		}
	}

	next := make(map[string]int64)
	for _, b := range cs.Bids {
		if _, ok := r.lots[b.LotID]; !ok {
			return fmt.Errorf("commit: bid %s: %w", b.BidID, biddingerrors.ErrLotNotFound)
		}
		expected, seen := next[b.LotID]
		if !seen {
			expected = int64(len(r.bids[b.LotID])) + 1
		}
		if b.Sequence < 0 {
			return fmt.Errorf("commit: bid %s: %w", b.BidID, biddingerrors.ErrNegativeSequence)
		}
		if b.Sequence != expected {
			return fmt.Errorf("commit: bid %s sequence %d, expected %d: %w", b.BidID, b.Sequence, expected, biddingerrors.ErrLedgerGap)
		}
		next[b.LotID] = expected + 1
	}

	for _, w := range cs.Winners {
		if existing, ok := r.winners[w.LotID]; ok && existing.WinnerID != w.WinnerID {
			return fmt.Errorf("commit: second winner for lot %s: %w", w.LotID, biddingerrors.ErrInvariantViolation)
		}
	}

	if cs.Auction != nil {
		r.auctions[cs.Auction.AuctionID] = *cs.Auction
	}
	for _, l := range cs.Lots {
		r.lots[l.LotID] = l
	}
	for _, b := range cs.Bids {
		r.bids[b.LotID] = append(r.bids[b.LotID], b)
	}
	for _, w := range cs.Winners {
		r.winners[w.LotID] = w
	}
	return nil
}

// GetUser resolves a bidder
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrBidderNotFound)
	}
	return u, nil
}

// GetCar returns the car read model
func (r *MemoryRepo) GetCar(_ context.Context, carID string) (model.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cars[carID]
	if !ok {
		return model.Car{}, fmt.Errorf("get car %s: %w", carID, biddingerrors.ErrCarNotFound)
	}
	return c, nil
}

// AddUser registers a user. This method is intended for seeding and tests.
func (r *MemoryRepo) AddUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
}

// AddCar registers a car. This method is intended for seeding and tests.
func (r *MemoryRepo) AddCar(car model.Car) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cars[car.CarID] = car
}

// SortLots orders lots by item number, then lot number
func SortLots(lots []model.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].ItemNumber != lots[j].ItemNumber {
			return lots[i].ItemNumber < lots[j].ItemNumber
		}
		return lots[i].LotNumber < lots[j].LotNumber
	})
}
