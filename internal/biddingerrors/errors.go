package biddingerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation errors, user-correctable
var (
	ErrInvalidBid            = errors.New("invalid bid")
	ErrAuctionNotRunning     = errors.New("auction is not running")
	ErrLotNotActive          = errors.New("lot is not active")
	ErrPreBidNotAllowed      = errors.New("pre-bidding is not allowed")
	ErrBelowMinimumIncrement = errors.New("bid amount below minimum increment")
	ErrProxyMaxBelowAmount   = errors.New("proxy max below bid amount")
	ErrDuplicateLotNumber    = errors.New("duplicate lot number")
	ErrReserveBelowMinimum   = errors.New("reserve price below minimum pre-bid")
	ErrBidderNotAllowed      = errors.New("bidder is not allowed to bid")
	ErrInvalidPayment        = errors.New("invalid payment")
	ErrInvalidAuction        = errors.New("invalid auction details")
	ErrInvalidLot            = errors.New("invalid lot details")

	// ErrLotClosed is the LotNotActive case of a lot that was already hammered
	ErrLotClosed = fmt.Errorf("%w: lot is already closed", ErrLotNotActive)
)

// State conflict errors, retryable with fresh data
var (
	ErrConcurrentBidSuperseded = errors.New("another bid was accepted first")
	ErrInvalidTransition       = errors.New("invalid auction transition")
	ErrAuctionHasLiveBids      = errors.New("auction has accepted live bids")
	ErrWinnersNotFinalized     = errors.New("auction winners are not finalized")
)

// Invariant violations, must never surface from correct code
var (
	ErrInvariantViolation      = errors.New("invariant violation")
	ErrNegativeSequence        = fmt.Errorf("%w: negative sequence number", ErrInvariantViolation)
	ErrLedgerGap               = fmt.Errorf("%w: ledger gap", ErrInvariantViolation)
	ErrWinnerWithoutAssignment = fmt.Errorf("%w: winner created for a lot with none assigned", ErrInvariantViolation)
	ErrCascadeBound            = fmt.Errorf("%w: proxy cascade exceeded its bound", ErrInvariantViolation)
)

// Not-found errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrLotNotFound     = errors.New("lot not found")
	ErrBidderNotFound  = errors.New("bidder not found")
	ErrWinnerNotFound  = errors.New("winner not found")
	ErrCarNotFound     = errors.New("car not found")
	ErrNoBids          = errors.New("no bids found for lot")
)

// ErrorKind classifies an error along the propagation policy
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindInvariant
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindInvariant:
		return "invariant"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

var (
	validationErrs = []error{
		ErrInvalidBid, ErrAuctionNotRunning, ErrLotNotActive, ErrPreBidNotAllowed,
		ErrBelowMinimumIncrement, ErrProxyMaxBelowAmount, ErrDuplicateLotNumber,
		ErrReserveBelowMinimum, ErrBidderNotAllowed, ErrInvalidPayment,
		ErrInvalidAuction, ErrInvalidLot,
	}
	conflictErrs = []error{
		ErrConcurrentBidSuperseded, ErrInvalidTransition, ErrAuctionHasLiveBids,
		ErrWinnersNotFinalized,
	}
	notFoundErrs = []error{
		ErrAuctionNotFound, ErrLotNotFound, ErrBidderNotFound, ErrWinnerNotFound,
		ErrCarNotFound, ErrNoBids,
	}
)

// Kind returns the taxonomy class of err.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	if errors.Is(err, ErrInvariantViolation) {
		return KindInvariant
	}
	for _, e := range validationErrs {
		if errors.Is(err, e) {
			return KindValidation
		}
	}
	for _, e := range conflictErrs {
		if errors.Is(err, e) {
			return KindConflict
		}
	}
	for _, e := range notFoundErrs {
		if errors.Is(err, e) {
			return KindNotFound
		}
	}
	return KindInternal
}

// Rejection is the typed refusal of a bid. It unwraps to its reason.
type Rejection struct {
	Reason        error
	LotID         string
	BidderID      string
	Amount        decimal.Decimal
	MinAcceptable decimal.Decimal
	CurrentPrice  decimal.Decimal
	LastSequence  int64
	Detail        string
}

func (r *Rejection) Error() string {
	msg := fmt.Sprintf("bid on lot %s rejected: %v", r.LotID, r.Reason)
	if r.Detail != "" {
		msg += " - " + r.Detail
	}
	return msg
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
