package repository

import (
	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormRepo is the durable AuctionDB backed by a SQL database through gorm
type GormRepo struct {
	db *gorm.DB
}

// OpenSQLite connects to a SQLite file and migrates the schema
func OpenSQLite(path string) (*GormRepo, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite %s: %w", path, err)
	}
	return NewGormRepo(db)
}

// NewGormRepo wraps an open connection and migrates the schema
func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(
		&model.Auction{},
		&model.Lot{},
		&model.Bid{},
		&model.Winner{},
		&model.User{},
		&model.Car{},
	); err != nil {
		return nil, fmt.Errorf("repository: migrate: %w", err)
	}
	return &GormRepo{db: db}, nil
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

// CreateAuction stores a new auction
func (r *GormRepo) CreateAuction(ctx context.Context, auction model.Auction) error {
	if err := r.db.WithContext(ctx).Create(&auction).Error; err != nil {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, err)
	}
	return nil
}

// GetAuction returns an auction by id
func (r *GormRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	if err := r.db.WithContext(ctx).First(&a, "auction_id = ?", auctionID).Error; err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, notFound(err, biddingerrors.ErrAuctionNotFound))
	}
	return a, nil
}

// ListAuctions returns every auction ordered by start time
func (r *GormRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	var out []model.Auction
	if err := r.db.WithContext(ctx).Order("starts_at, auction_id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	return out, nil
}

// CreateLot stores a new lot; the unique index on (auction_id, lot_number) backs the duplicate check
func (r *GormRepo) CreateLot(ctx context.Context, lot model.Lot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Auction{}).Where("auction_id = ?", lot.AuctionID).Count(&n).Error; err != nil {
			return fmt.Errorf("create lot %s: %w", lot.LotID, err)
		}
		if n == 0 {
			return fmt.Errorf("create lot %s: %w", lot.LotID, biddingerrors.ErrAuctionNotFound)
		}
		if err := tx.Model(&model.Lot{}).
			Where("auction_id = ? AND lot_number = ?", lot.AuctionID, lot.LotNumber).
			Count(&n).Error; err != nil {
			return fmt.Errorf("create lot %s: %w", lot.LotID, err)
		}
		if n > 0 {
			return fmt.Errorf("create lot %s: %w - lot number %d", lot.LotID, biddingerrors.ErrDuplicateLotNumber, lot.LotNumber)
		}
		if err := tx.Create(&lot).Error; err != nil {
			return fmt.Errorf("create lot %s: %w", lot.LotID, err)
		}
		return nil
	})
}

// GetLot returns a lot by id
func (r *GormRepo) GetLot(ctx context.Context, lotID string) (model.Lot, error) {
	var l model.Lot
	if err := r.db.WithContext(ctx).First(&l, "lot_id = ?", lotID).Error; err != nil {
		return model.Lot{}, fmt.Errorf("get lot %s: %w", lotID, notFound(err, biddingerrors.ErrLotNotFound))
	}
	return l, nil
}

// ListLotsByAuction returns the lots of an auction by item number, then lot number
func (r *GormRepo) ListLotsByAuction(ctx context.Context, auctionID string) ([]model.Lot, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	var out []model.Lot
	if err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("item_number, lot_number").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list lots for auction %s: %w", auctionID, err)
	}
	return out, nil
}

// GetBidsByLot returns the ledger of a lot in sequence order
func (r *GormRepo) GetBidsByLot(ctx context.Context, lotID string) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("lot_id = ?", lotID).Order("sequence").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("get bids for lot %s: %w", lotID, err)
	}
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for lot %s: %w", lotID, biddingerrors.ErrNoBids)
	}
	return bids, nil
}

// GetWinner returns the winner of a lot
func (r *GormRepo) GetWinner(ctx context.Context, lotID string) (model.Winner, error) {
	var w model.Winner
	if err := r.db.WithContext(ctx).First(&w, "lot_id = ?", lotID).Error; err != nil {
		return model.Winner{}, fmt.Errorf("get winner for lot %s: %w", lotID, notFound(err, biddingerrors.ErrWinnerNotFound))
	}
	return w, nil
}

// Commit applies the changeset in a single transaction
func (r *GormRepo) Commit(ctx context.Context, cs Changeset) error {
	if cs.Empty() {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cs.Auction != nil {
			res := tx.Model(&model.Auction{}).Where("auction_id = ?", cs.Auction.AuctionID).Select("*").Updates(cs.Auction)
			if res.Error != nil {
				return fmt.Errorf("commit: auction %s: %w", cs.Auction.AuctionID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("commit: auction %s: %w", cs.Auction.AuctionID, biddingerrors.ErrAuctionNotFound)
			}
		}
		for i := range cs.Lots {
			l := cs.Lots[i]
			res := tx.Model(&model.Lot{}).Where("lot_id = ?", l.LotID).Select("*").Updates(&l)
			if res.Error != nil {
				return fmt.Errorf("commit: lot %s: %w", l.LotID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("commit: lot %s: %w", l.LotID, biddingerrors.ErrLotNotFound)
			}
		}

		next := make(map[string]int64)
		for _, b := range cs.Bids {
			expected, seen := next[b.LotID]
			if !seen {
				var last struct{ Max int64 }
				if err := tx.Model(&model.Bid{}).Select("COALESCE(MAX(sequence), 0) AS max").
					Where("lot_id = ?", b.LotID).Scan(&last).Error; err != nil {
					return fmt.Errorf("commit: ledger head for lot %s: %w", b.LotID, err)
				}
				expected = last.Max + 1
			}
			if b.Sequence < 0 {
				return fmt.Errorf("commit: bid %s: %w", b.BidID, biddingerrors.ErrNegativeSequence)
			}
			if b.Sequence != expected {
				return fmt.Errorf("commit: bid %s sequence %d, expected %d: %w", b.BidID, b.Sequence, expected, biddingerrors.ErrLedgerGap)
			}
			next[b.LotID] = expected + 1
		}
		if len(cs.Bids) > 0 {
			if err := tx.Create(&cs.Bids).Error; err != nil {
				return fmt.Errorf("commit: append bids: %w", err)
			}
		}

		for i := range cs.Winners {
			w := cs.Winners[i]
			var existing model.Winner
			err := tx.First(&existing, "lot_id = ?", w.LotID).Error
			switch {
			case err == nil && existing.WinnerID != w.WinnerID:
				return fmt.Errorf("commit: second winner for lot %s: %w", w.LotID, biddingerrors.ErrInvariantViolation)
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("commit: winner for lot %s: %w", w.LotID, err)
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&w).Error; err != nil {
				return fmt.Errorf("commit: winner for lot %s: %w", w.LotID, err)
			}
		}
		return nil
	})
}

// GetUser resolves a bidder
func (r *GormRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, notFound(err, biddingerrors.ErrBidderNotFound))
	}
	return u, nil
}

// GetCar returns the car read model
func (r *GormRepo) GetCar(ctx context.Context, carID string) (model.Car, error) {
	var c model.Car
	if err := r.db.WithContext(ctx).First(&c, "car_id = ?", carID).Error; err != nil {
		return model.Car{}, fmt.Errorf("get car %s: %w", carID, notFound(err, biddingerrors.ErrCarNotFound))
	}
	return c, nil
}

// AddUser upserts a user
func (r *GormRepo) AddUser(ctx context.Context, user model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&user).Error
}

// AddCar upserts a car
func (r *GormRepo) AddCar(ctx context.Context, car model.Car) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&car).Error
}
