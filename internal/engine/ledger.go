package engine

import (
	"fmt"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/models"
)

// Ledger is the append-only, sequence-ordered record of accepted bids for one lot
type Ledger struct {
	lotID string
	bids  []models.Bid
}

// NewLedger returns an empty ledger
func NewLedger(lotID string) *Ledger {
	return &Ledger{lotID: lotID}
}

// RestoreLedger rebuilds a ledger from persisted bids, checking its invariants
func RestoreLedger(lotID string, bids []models.Bid) (*Ledger, error) {
	l := NewLedger(lotID)
	if err := l.Check(bids); err != nil {
		return nil, fmt.Errorf("restore ledger for lot %s: %w", lotID, err)
	}
	l.bids = append(l.bids, bids...)
	return l, nil
}

// Len returns the number of accepted bids
func (l *Ledger) Len() int {
	return len(l.bids)
}

// LastSequence returns the sequence number of the latest bid, 0 when empty
func (l *Ledger) LastSequence() int64 {
	if len(l.bids) == 0 {
		return 0
	}
	return l.bids[len(l.bids)-1].Sequence
}

// Last returns the latest accepted bid
func (l *Ledger) Last() (models.Bid, bool) {
	if len(l.bids) == 0 {
		return models.Bid{}, false
	}
	return l.bids[len(l.bids)-1], true
}

// Highest returns the highest accepted bid; the earliest sequence wins a tie
func (l *Ledger) Highest() (models.Bid, bool) {
	if len(l.bids) == 0 {
		return models.Bid{}, false
	}
	best := l.bids[0]
	for _, b := range l.bids[1:] {
		if b.Amount.GreaterThan(best.Amount) {
			best = b
		}
	}
	return best, true
}

// Bids returns a copy of the ledger
func (l *Ledger) Bids() []models.Bid {
	return append([]models.Bid(nil), l.bids...)
}

// HasLiveBids reports whether any bid was placed outside the pre-bid phase
func (l *Ledger) HasLiveBids() bool {
	for _, b := range l.bids {
		if b.Kind != models.BidPreBid {
			return true
		}
	}
	return false
}

// Check verifies that pending would extend the ledger without a gap,
// without a negative sequence and without lowering the price.
func (l *Ledger) Check(pending []models.Bid) error {
	expected := l.LastSequence() + 1
	last, hasLast := l.Last()
	for _, b := range pending {
		if b.LotID != l.lotID {
			return fmt.Errorf("%w: bid %s belongs to lot %s, ledger is %s", biddingerrors.ErrInvariantViolation, b.BidID, b.LotID, l.lotID)
		}
		if b.Sequence < 0 {
			return fmt.Errorf("bid %s: %w", b.BidID, biddingerrors.ErrNegativeSequence)
		}
		if b.Sequence != expected {
			return fmt.Errorf("bid %s sequence %d, expected %d: %w", b.BidID, b.Sequence, expected, biddingerrors.ErrLedgerGap)
		}
		if hasLast && b.Amount.LessThan(last.Amount) {
			return fmt.Errorf("%w: bid %s amount %s below previous %s", biddingerrors.ErrInvariantViolation, b.BidID, b.Amount, last.Amount)
		}
		last, hasLast = b, true
		expected++
	}
	return nil
}

// Append adds bids that already passed Check and were persisted
func (l *Ledger) Append(bids ...models.Bid) error {
	if err := l.Check(bids); err != nil {
		return err
	}
	l.bids = append(l.bids, bids...)
	return nil
}
