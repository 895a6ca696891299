package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionDraft     AuctionStatus = "draft"
	AuctionScheduled AuctionStatus = "scheduled"
	AuctionRunning   AuctionStatus = "running"
	AuctionEnded     AuctionStatus = "ended"
	AuctionCancelled AuctionStatus = "cancelled"
	AuctionSettled   AuctionStatus = "settled"
)

// WinnerStatus tracks the outcome of a closed lot
type WinnerStatus string

const (
	WinnerNone          WinnerStatus = "none"
	WinnerPending       WinnerStatus = "pending"
	WinnerConfirmed     WinnerStatus = "confirmed"
	WinnerRejected      WinnerStatus = "rejected"
	WinnerPaymentFailed WinnerStatus = "payment_failed"
	WinnerCompleted     WinnerStatus = "completed"
)

// Finalized reports whether no further winner action is expected.
func (s WinnerStatus) Finalized() bool {
	switch s {
	case WinnerNone, WinnerCompleted, WinnerRejected, WinnerPaymentFailed:
		return true
	}
	return false
}

// BidKind distinguishes how a bid entered the ledger
type BidKind string

const (
	BidPreBid       BidKind = "pre_bid"
	BidLive         BidKind = "live"
	BidProxySeed    BidKind = "proxy_seed"
	BidProxyCascade BidKind = "proxy_cascade"
)

// BidStatus is the arbitration outcome of a bid
type BidStatus string

const (
	BidAccepted   BidStatus = "accepted"
	BidRejected   BidStatus = "rejected"
	BidSuperseded BidStatus = "superseded"
)

// PaymentStatus records the payment state of a winner
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// User is a registered participant, resolved through the identity collaborator
type User struct {
	UserID      string `gorm:"primaryKey;size:64" json:"user_id"`
	DisplayName string `gorm:"size:128" json:"display_name"`
	CanBid      bool   `gorm:"not null" json:"can_bid"`
}

// Car is the read-model view of a listed vehicle
type Car struct {
	CarID      string `gorm:"primaryKey;size:64" json:"car_id"`
	Make       string `gorm:"size:64" json:"make"`
	Model      string `gorm:"size:64" json:"model"`
	Year       int    `json:"year"`
	LocationID string `gorm:"size:64" json:"location_id"`
}

// Auction groups lots under a schedule
type Auction struct {
	AuctionID    string          `gorm:"primaryKey;size:64" json:"auction_id"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	LocationID   string          `gorm:"size:64" json:"location_id"`
	StartsAt     time.Time       `json:"starts_at"`
	EndsAt       time.Time       `json:"ends_at"`
	MinIncrement decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"min_increment"`
	AllowPreBids bool            `gorm:"not null" json:"allow_pre_bids"`
	Status       AuctionStatus   `gorm:"size:16;not null;index" json:"status"`
	CurrentLotID string          `gorm:"size:64" json:"current_lot_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Lot is a car offered inside an auction
type Lot struct {
	LotID         string              `gorm:"primaryKey;size:64" json:"lot_id"`
	AuctionID     string              `gorm:"size:64;not null;uniqueIndex:idx_auction_lot_number" json:"auction_id"`
	CarID         string              `gorm:"size:64" json:"car_id"`
	LotNumber     int                 `gorm:"not null;uniqueIndex:idx_auction_lot_number" json:"lot_number"`
	ItemNumber    int                 `gorm:"not null" json:"item_number"`
	MinimumPreBid decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"minimum_pre_bid"`
	ReservePrice  decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"reserve_price"`
	CurrentPrice  decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"current_price"`
	HighestBidID  string              `gorm:"size:64" json:"highest_bid_id,omitempty"`
	IsReserveMet  bool                `gorm:"not null;default:false" json:"is_reserve_met"`
	WinnerStatus  WinnerStatus        `gorm:"size:16;not null" json:"winner_status"`
	Active        bool                `gorm:"not null;default:false" json:"active"`
	ActiveSince   *time.Time          `json:"active_since,omitempty"`
	Closed        bool                `gorm:"not null;default:false" json:"closed"`
	ClosedAt      *time.Time          `json:"closed_at,omitempty"`
	HammerPrice   decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"hammer_price"`
	LastSequence  int64               `gorm:"not null;default:0" json:"last_sequence"`
}

// Bid is an immutable ledger entry for a lot
type Bid struct {
	BidID    string              `gorm:"primaryKey;size:64" json:"bid_id"`
	LotID    string              `gorm:"size:64;not null;uniqueIndex:idx_lot_sequence" json:"lot_id"`
	BidderID string              `gorm:"size:64;not null;index" json:"bidder_id"`
	Amount   decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`
	Kind     BidKind             `gorm:"size:16;not null" json:"kind"`
	PlacedAt time.Time           `gorm:"not null" json:"placed_at"`
	ProxyMax decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"proxy_max"`
	Status   BidStatus           `gorm:"size:16;not null" json:"status"`
	Sequence int64               `gorm:"not null;uniqueIndex:idx_lot_sequence" json:"sequence"`
	Notes    string              `gorm:"size:255" json:"notes,omitempty"`
}

// Winner is the assignment of a closed lot to its highest qualifying bidder
type Winner struct {
	WinnerID      string          `gorm:"primaryKey;size:64" json:"winner_id"`
	LotID         string          `gorm:"size:64;not null;uniqueIndex" json:"lot_id"`
	UserID        string          `gorm:"size:64;not null;index" json:"user_id"`
	BidID         string          `gorm:"size:64;not null" json:"bid_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"paid_amount"`
	PaymentStatus PaymentStatus   `gorm:"size:16;not null" json:"payment_status"`
	AssignedAt    time.Time       `json:"assigned_at"`
}

// HasReserve reports whether a reserve price was set for the lot.
func (l Lot) HasReserve() bool {
	return l.ReservePrice.Valid
}
