package events

import (
	"time"

	"auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// Type names a domain event emitted by the engine
type Type string

const (
	TypeBidPlaced            Type = "bid_placed"
	TypeHighestBidUpdated    Type = "highest_bid_updated"
	TypeLotTimerReset        Type = "lot_timer_reset"
	TypeLotClosed            Type = "lot_closed"
	TypeWinnerAssigned       Type = "winner_assigned"
	TypeAuctionStatusChanged Type = "auction_status_changed"
)

// Event is the wire shape shared by every sink
type Event struct {
	Type             Type                 `json:"type"`
	AuctionID        string               `json:"auction_id"`
	LotID            string               `json:"lot_id,omitempty"`
	BidderID         string               `json:"bidder_id,omitempty"`
	UserID           string               `json:"user_id,omitempty"`
	Amount           *decimal.Decimal     `json:"amount,omitempty"`
	Sequence         int64                `json:"sequence,omitempty"`
	RemainingSeconds float64              `json:"remaining_seconds,omitempty"`
	Status           models.AuctionStatus `json:"status,omitempty"`
	Timestamp        time.Time            `json:"timestamp"`
}

// Key is the partitioning key; events of one lot share a key so their order survives transport.
func (e Event) Key() string {
	if e.LotID != "" {
		return e.LotID
	}
	return e.AuctionID
}

func amountPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// BidPlaced is emitted for every ledger append, cascade entries included.
func BidPlaced(auctionID string, bid models.Bid) Event {
	return Event{
		Type:      TypeBidPlaced,
		AuctionID: auctionID,
		LotID:     bid.LotID,
		BidderID:  bid.BidderID,
		Amount:    amountPtr(bid.Amount),
		Sequence:  bid.Sequence,
		Timestamp: bid.PlacedAt,
	}
}

func HighestBidUpdated(auctionID, lotID string, amount decimal.Decimal, at time.Time) Event {
	return Event{
		Type:      TypeHighestBidUpdated,
		AuctionID: auctionID,
		LotID:     lotID,
		Amount:    amountPtr(amount),
		Timestamp: at,
	}
}

func LotTimerReset(auctionID, lotID string, remaining time.Duration, at time.Time) Event {
	return Event{
		Type:             TypeLotTimerReset,
		AuctionID:        auctionID,
		LotID:            lotID,
		RemainingSeconds: remaining.Seconds(),
		Timestamp:        at,
	}
}

func LotClosed(auctionID, lotID string, at time.Time) Event {
	return Event{
		Type:      TypeLotClosed,
		AuctionID: auctionID,
		LotID:     lotID,
		Timestamp: at,
	}
}

func WinnerAssigned(auctionID string, w models.Winner) Event {
	return Event{
		Type:      TypeWinnerAssigned,
		AuctionID: auctionID,
		LotID:     w.LotID,
		UserID:    w.UserID,
		Amount:    amountPtr(w.Amount),
		Timestamp: w.AssignedAt,
	}
}

func AuctionStatusChanged(auctionID string, status models.AuctionStatus, at time.Time) Event {
	return Event{
		Type:      TypeAuctionStatusChanged,
		AuctionID: auctionID,
		Status:    status,
		Timestamp: at,
	}
}
