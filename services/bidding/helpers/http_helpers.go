package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/biddingerrors"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrBidderNotAllowed):
		return http.StatusForbidden, "bidder is not allowed to bid"
	case errors.Is(err, biddingerrors.ErrBelowMinimumIncrement):
		return http.StatusUnprocessableEntity, "bid amount below minimum increment"
	case errors.Is(err, biddingerrors.ErrProxyMaxBelowAmount):
		return http.StatusUnprocessableEntity, "proxy max below bid amount"
	case errors.Is(err, biddingerrors.ErrReserveBelowMinimum):
		return http.StatusUnprocessableEntity, "reserve price below minimum pre-bid"
	case errors.Is(err, biddingerrors.ErrInvalidPayment):
		return http.StatusUnprocessableEntity, "invalid payment"
	case errors.Is(err, biddingerrors.ErrAuctionNotRunning):
		return http.StatusConflict, "auction is not running"
	case errors.Is(err, biddingerrors.ErrLotClosed):
		return http.StatusConflict, "lot is closed"
	case errors.Is(err, biddingerrors.ErrLotNotActive):
		return http.StatusConflict, "lot is not active"
	case errors.Is(err, biddingerrors.ErrPreBidNotAllowed):
		return http.StatusConflict, "pre-bidding is not allowed"
	case errors.Is(err, biddingerrors.ErrDuplicateLotNumber):
		return http.StatusConflict, "duplicate lot number"
	}

	switch biddingerrors.Kind(err) {
	case biddingerrors.KindValidation:
		return http.StatusBadRequest, "invalid request details"
	case biddingerrors.KindConflict:
		return http.StatusConflict, conflictMessage(err)
	case biddingerrors.KindNotFound:
		return http.StatusNotFound, notFoundMessage(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrConcurrentBidSuperseded):
		return "another bid was accepted first"
	case errors.Is(err, biddingerrors.ErrAuctionHasLiveBids):
		return "auction has accepted live bids"
	case errors.Is(err, biddingerrors.ErrWinnersNotFinalized):
		return "auction winners are not finalized"
	default:
		return "invalid state transition"
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return "auction not found"
	case errors.Is(err, biddingerrors.ErrLotNotFound):
		return "lot not found"
	case errors.Is(err, biddingerrors.ErrBidderNotFound):
		return "bidder not found"
	case errors.Is(err, biddingerrors.ErrWinnerNotFound):
		return "winner not found"
	case errors.Is(err, biddingerrors.ErrCarNotFound):
		return "car not found"
	default:
		return "not found"
	}
}

// RejectionData extracts the re-pricing payload of a bid rejection, nil for other errors
func RejectionData(err error) *RejectionResponse {
	rej, ok := biddingerrors.AsRejection(err)
	if !ok {
		return nil
	}
	return &RejectionResponse{
		Reason:        rej.Reason.Error(),
		LotID:         rej.LotID,
		MinAcceptable: rej.MinAcceptable,
		CurrentPrice:  rej.CurrentPrice,
		LastSequence:  rej.LastSequence,
	}
}

// RespondError writes the mapped error and logs it, at Error level for server faults
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	wrapped := fmt.Errorf("%s: %w", message, err)
	if data := RejectionData(err); data != nil {
		utils.JSONErrorWithData(c, status, wrapped, message, data)
	} else {
		utils.JSONError(c, status, wrapped, message)
	}

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request refused", fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
