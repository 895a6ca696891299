package helpers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs. Amounts travel as decimal strings ("1250.00"), plain JSON numbers are accepted too.

type CreateAuctionRequest struct {
	Name         string          `json:"name" binding:"required,max=128"`
	LocationID   string          `json:"location_id" binding:"max=64"`
	StartsAt     time.Time       `json:"starts_at" binding:"required"`
	EndsAt       time.Time       `json:"ends_at" binding:"required"`
	MinIncrement decimal.Decimal `json:"min_increment"`
	AllowPreBids bool            `json:"allow_pre_bids"`
}

// ScheduleAuctionRequest keeps the stored date for any zero field
type ScheduleAuctionRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type AddLotRequest struct {
	CarID         string              `json:"car_id" binding:"required"`
	LotNumber     int                 `json:"lot_number" binding:"required,gt=0"`
	ItemNumber    int                 `json:"item_number" binding:"gte=0"`
	MinimumPreBid decimal.Decimal     `json:"minimum_pre_bid"`
	ReservePrice  decimal.NullDecimal `json:"reserve_price"`
}

type PlaceBidRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes" binding:"max=255"`
	SeenSequence *int64          `json:"seen_sequence" binding:"omitempty,gte=0"`
}

type PlaceProxyBidRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	MaxAmount    decimal.Decimal `json:"max_amount"`
	SeenSequence *int64          `json:"seen_sequence" binding:"omitempty,gte=0"`
}

type ValidateBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   string          `json:"kind" binding:"omitempty,oneof=pre_bid live proxy_seed"`
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RejectionResponse lets a client re-price a refused bid without another round trip
type RejectionResponse struct {
	Reason        string          `json:"reason"`
	LotID         string          `json:"lot_id"`
	MinAcceptable decimal.Decimal `json:"min_acceptable"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	LastSequence  int64           `json:"last_sequence"`
}

type BidResponse struct {
	BidID           string          `json:"bid_id"`
	LotID           string          `json:"lot_id"`
	BidderID        string          `json:"bidder_id"`
	Amount          decimal.Decimal `json:"amount"`
	Kind            string          `json:"kind"`
	Status          string          `json:"status"`
	Sequence        int64           `json:"sequence"`
	PlacedAt        string          `json:"placed_at"`
	CascadeCount    int             `json:"cascade_count"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	HighestBidderID string          `json:"highest_bidder_id"`
	LastSequence    int64           `json:"last_sequence"`
	IsReserveMet    bool            `json:"is_reserve_met"`
}
