package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/engine"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_bidding_service.go -package=handler auction-engine/services/bidding/handler BiddingServiceInterface,EventStream

// UserIDHeader carries the bidder identity, authenticated upstream
const UserIDHeader = "X-User-ID"

var errMissingIdentity = errors.New("missing " + UserIDHeader + " header")

type BiddingServiceInterface interface {
	CreateAuction(ctx context.Context, cmd bidding.CreateAuctionCommand) (model.Auction, error)
	ScheduleAuction(ctx context.Context, auctionID string, startsAt, endsAt time.Time) (model.Auction, error)
	AddLot(ctx context.Context, auctionID string, cmd bidding.AddLotCommand) (model.Lot, error)
	StartAuction(ctx context.Context, auctionID string) (model.Auction, error)
	EndAuction(ctx context.Context, auctionID string) (model.Auction, error)
	CancelAuction(ctx context.Context, auctionID string) (model.Auction, error)
	CloseCurrentLot(ctx context.Context, auctionID string) (model.Auction, error)
	SettleAuction(ctx context.Context, auctionID string) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (engine.AuctionView, error)

	PlacePreBid(ctx context.Context, lotID, bidderID string, amount decimal.Decimal, notes string, seen *int64) (engine.BidResult, error)
	PlaceLiveBid(ctx context.Context, lotID, bidderID string, amount decimal.Decimal, seen *int64) (engine.BidResult, error)
	PlaceProxyBid(ctx context.Context, lotID, bidderID string, startAmount, maxAmount decimal.Decimal, seen *int64) (engine.BidResult, error)
	ValidateBid(ctx context.Context, lotID, bidderID string, amount decimal.Decimal, kind model.BidKind) (engine.ValidationReport, error)
	GetLot(ctx context.Context, lotID string) (bidding.LotDetails, error)
	ListBids(ctx context.Context, lotID string) ([]model.Bid, error)

	GetWinner(ctx context.Context, lotID string) (model.Winner, error)
	ConfirmWinner(ctx context.Context, lotID string) (model.Winner, error)
	RejectWinner(ctx context.Context, lotID string) (model.Winner, error)
	RecordPayment(ctx context.Context, lotID string, amount decimal.Decimal) (model.Winner, error)
	MarkPaymentFailed(ctx context.Context, lotID string) (model.Winner, error)
}

// EventStream feeds the per-auction server-sent event stream
type EventStream interface {
	Subscribe(auctionID string) (<-chan events.Event, func())
}

type BiddingHandler struct {
	service BiddingServiceInterface
	stream  EventStream
}

func NewBiddingHandler(service BiddingServiceInterface, stream EventStream) *BiddingHandler {
	return &BiddingHandler{service: service, stream: stream}
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), bidding.CreateAuctionCommand{
		Name:         req.Name,
		LocationID:   req.LocationID,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		MinIncrement: req.MinIncrement,
		AllowPreBids: req.AllowPreBids,
	})
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"name": req.Name})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"name":       auction.Name,
	})
}

// ScheduleAuctionHandler handles POST /auctions/:auction_id/schedule
func (h *BiddingHandler) ScheduleAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.ScheduleAuctionRequest
	// an empty body keeps the dates given at creation
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.HandleBindError(c, "ScheduleAuctionHandler", err)
			return
		}
	}

	auction, err := h.service.ScheduleAuction(c.Request.Context(), auctionID, req.StartsAt, req.EndsAt)
	if err != nil {
		helpers.RespondError(c, "ScheduleAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, auction, "auction scheduled successfully")
	helpers.LogSuccess("ScheduleAuctionHandler", "auction scheduled successfully", map[string]any{
		"auction_id": auctionID,
		"starts_at":  auction.StartsAt,
	})
}

// AddLotHandler handles POST /auctions/:auction_id/lots
func (h *BiddingHandler) AddLotHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.AddLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddLotHandler", err)
		return
	}

	lot, err := h.service.AddLot(c.Request.Context(), auctionID, bidding.AddLotCommand{
		CarID:         req.CarID,
		LotNumber:     req.LotNumber,
		ItemNumber:    req.ItemNumber,
		MinimumPreBid: req.MinimumPreBid,
		ReservePrice:  req.ReservePrice,
	})
	if err != nil {
		helpers.RespondError(c, "AddLotHandler", err, map[string]any{
			"auction_id": auctionID,
			"lot_number": req.LotNumber,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, lot, "lot added successfully")
	helpers.LogSuccess("AddLotHandler", "lot added successfully", map[string]any{
		"auction_id": auctionID,
		"lot_id":     lot.LotID,
		"lot_number": lot.LotNumber,
	})
}

type auctionCommand func(ctx context.Context, auctionID string) (model.Auction, error)

func (h *BiddingHandler) runAuctionCommand(c *gin.Context, handlerName, message string, cmd auctionCommand) {
	auctionID := c.Param("auction_id")
	auction, err := cmd(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, handlerName, err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, auction, message)
	helpers.LogSuccess(handlerName, message, map[string]any{
		"auction_id": auctionID,
		"status":     auction.Status,
	})
}

// StartAuctionHandler handles POST /auctions/:auction_id/start
func (h *BiddingHandler) StartAuctionHandler(c *gin.Context) {
	h.runAuctionCommand(c, "StartAuctionHandler", "auction started successfully", h.service.StartAuction)
}

// EndAuctionHandler handles POST /auctions/:auction_id/end
func (h *BiddingHandler) EndAuctionHandler(c *gin.Context) {
	h.runAuctionCommand(c, "EndAuctionHandler", "auction ended successfully", h.service.EndAuction)
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *BiddingHandler) CancelAuctionHandler(c *gin.Context) {
	h.runAuctionCommand(c, "CancelAuctionHandler", "auction cancelled successfully", h.service.CancelAuction)
}

// CloseLotHandler handles POST /auctions/:auction_id/close-lot
func (h *BiddingHandler) CloseLotHandler(c *gin.Context) {
	h.runAuctionCommand(c, "CloseLotHandler", "current lot closed successfully", h.service.CloseCurrentLot)
}

// SettleAuctionHandler handles POST /auctions/:auction_id/settle
func (h *BiddingHandler) SettleAuctionHandler(c *gin.Context) {
	h.runAuctionCommand(c, "SettleAuctionHandler", "auction settled successfully", h.service.SettleAuction)
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	view, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	if view.Lots == nil {
		view.Lots = []model.Lot{}
	}

	utils.JSONResponse(c, http.StatusOK, view, "auction retrieved successfully")
}

// StreamAuctionHandler handles GET /auctions/:auction_id/stream as server-sent events
func (h *BiddingHandler) StreamAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if _, err := h.service.GetAuction(c.Request.Context(), auctionID); err != nil {
		helpers.RespondError(c, "StreamAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	ch, cancel := h.stream.Subscribe(auctionID)
	defer cancel()
	utils.Info("StreamAuctionHandler: subscriber connected", map[string]any{"auction_id": auctionID})

	delivered := 0
	c.Stream(func(io.Writer) bool {
		select {
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Type), evt)
			delivered++
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	utils.Info("StreamAuctionHandler: subscriber disconnected", map[string]any{
		"auction_id": auctionID,
		"delivered":  delivered,
	})
}

// bidderID reads the caller identity; a missing header ends the request
func bidderID(c *gin.Context, handlerName string) (string, bool) {
	id := c.GetHeader(UserIDHeader)
	if id == "" {
		utils.JSONError(c, http.StatusUnauthorized, errMissingIdentity, "missing bidder identity")
		utils.Warn(handlerName+": missing bidder identity", map[string]any{"path": c.FullPath()})
		return "", false
	}
	return id, true
}

func bidResponse(res engine.BidResult) helpers.BidResponse {
	return helpers.BidResponse{
		BidID:           res.Bid.BidID,
		LotID:           res.Bid.LotID,
		BidderID:        res.Bid.BidderID,
		Amount:          res.Bid.Amount,
		Kind:            string(res.Bid.Kind),
		Status:          string(res.Bid.Status),
		Sequence:        res.Bid.Sequence,
		PlacedAt:        res.Bid.PlacedAt.UTC().Format(time.RFC3339Nano),
		CascadeCount:    len(res.Cascade),
		CurrentPrice:    res.CurrentPrice,
		HighestBidderID: res.HighestBidderID,
		LastSequence:    res.LastSequence,
		IsReserveMet:    res.IsReserveMet,
	}
}

func (h *BiddingHandler) respondBid(c *gin.Context, handlerName string, res engine.BidResult, err error, lotID, bidder string) {
	if err != nil {
		helpers.RespondError(c, handlerName, err, map[string]any{
			"lot_id":    lotID,
			"bidder_id": bidder,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, bidResponse(res), "bid recorded successfully")
	helpers.LogSuccess(handlerName, "bid recorded successfully", map[string]any{
		"bid_id":        res.Bid.BidID,
		"lot_id":        lotID,
		"bidder_id":     bidder,
		"amount":        res.Bid.Amount.String(),
		"current_price": res.CurrentPrice.String(),
		"sequence":      res.Bid.Sequence,
	})
}

// PlacePreBidHandler handles POST /lots/:lot_id/prebids
func (h *BiddingHandler) PlacePreBidHandler(c *gin.Context) {
	bidder, ok := bidderID(c, "PlacePreBidHandler")
	if !ok {
		return
	}
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlacePreBidHandler", err)
		return
	}

	lotID := c.Param("lot_id")
	res, err := h.service.PlacePreBid(c.Request.Context(), lotID, bidder, req.Amount, req.Notes, req.SeenSequence)
	h.respondBid(c, "PlacePreBidHandler", res, err, lotID, bidder)
}

// PlaceBidHandler handles POST /lots/:lot_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	bidder, ok := bidderID(c, "PlaceBidHandler")
	if !ok {
		return
	}
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	lotID := c.Param("lot_id")
	res, err := h.service.PlaceLiveBid(c.Request.Context(), lotID, bidder, req.Amount, req.SeenSequence)
	h.respondBid(c, "PlaceBidHandler", res, err, lotID, bidder)
}

// PlaceProxyBidHandler handles POST /lots/:lot_id/proxy-bids
func (h *BiddingHandler) PlaceProxyBidHandler(c *gin.Context) {
	bidder, ok := bidderID(c, "PlaceProxyBidHandler")
	if !ok {
		return
	}
	var req helpers.PlaceProxyBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceProxyBidHandler", err)
		return
	}

	lotID := c.Param("lot_id")
	res, err := h.service.PlaceProxyBid(c.Request.Context(), lotID, bidder, req.Amount, req.MaxAmount, req.SeenSequence)
	h.respondBid(c, "PlaceProxyBidHandler", res, err, lotID, bidder)
}

// ValidateBidHandler handles POST /lots/:lot_id/validate
func (h *BiddingHandler) ValidateBidHandler(c *gin.Context) {
	bidder, ok := bidderID(c, "ValidateBidHandler")
	if !ok {
		return
	}
	var req helpers.ValidateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "ValidateBidHandler", err)
		return
	}

	lotID := c.Param("lot_id")
	report, err := h.service.ValidateBid(c.Request.Context(), lotID, bidder, req.Amount, model.BidKind(req.Kind))
	if err != nil {
		helpers.RespondError(c, "ValidateBidHandler", err, map[string]any{"lot_id": lotID, "bidder_id": bidder})
		return
	}

	utils.JSONResponse(c, http.StatusOK, report, "bid validated")
}

// GetLotHandler handles GET /lots/:lot_id
func (h *BiddingHandler) GetLotHandler(c *gin.Context) {
	lotID := c.Param("lot_id")
	details, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		helpers.RespondError(c, "GetLotHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, details, "lot retrieved successfully")
}

// GetBidsByLotHandler handles GET /lots/:lot_id/bids
func (h *BiddingHandler) GetBidsByLotHandler(c *gin.Context) {
	lotID := c.Param("lot_id")
	bids, err := h.service.ListBids(c.Request.Context(), lotID)
	if err != nil {
		helpers.RespondError(c, "GetBidsByLotHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByLotHandler", "bids retrieved successfully", map[string]any{
		"lot_id": lotID,
		"count":  len(bids),
	})
}

// GetWinnerHandler handles GET /lots/:lot_id/winner
func (h *BiddingHandler) GetWinnerHandler(c *gin.Context) {
	lotID := c.Param("lot_id")
	winner, err := h.service.GetWinner(c.Request.Context(), lotID)
	if err != nil {
		helpers.RespondError(c, "GetWinnerHandler", err, map[string]any{"lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, winner, "winner retrieved successfully")
}

type winnerCommand func(ctx context.Context, lotID string) (model.Winner, error)

func (h *BiddingHandler) runWinnerCommand(c *gin.Context, handlerName, message string, cmd winnerCommand) {
	lotID := c.Param("lot_id")
	winner, err := cmd(c.Request.Context(), lotID)
	if err != nil {
		helpers.RespondError(c, handlerName, err, map[string]any{"lot_id": lotID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, winner, message)
	helpers.LogSuccess(handlerName, message, map[string]any{
		"lot_id":         lotID,
		"winner_id":      winner.WinnerID,
		"payment_status": winner.PaymentStatus,
	})
}

// ConfirmWinnerHandler handles POST /lots/:lot_id/winner/confirm
func (h *BiddingHandler) ConfirmWinnerHandler(c *gin.Context) {
	h.runWinnerCommand(c, "ConfirmWinnerHandler", "winner confirmed", h.service.ConfirmWinner)
}

// RejectWinnerHandler handles POST /lots/:lot_id/winner/reject
func (h *BiddingHandler) RejectWinnerHandler(c *gin.Context) {
	h.runWinnerCommand(c, "RejectWinnerHandler", "winner rejected", h.service.RejectWinner)
}

// PaymentFailedHandler handles POST /lots/:lot_id/winner/payment-failed
func (h *BiddingHandler) PaymentFailedHandler(c *gin.Context) {
	h.runWinnerCommand(c, "PaymentFailedHandler", "payment marked as failed", h.service.MarkPaymentFailed)
}

// RecordPaymentHandler handles POST /lots/:lot_id/winner/payments
func (h *BiddingHandler) RecordPaymentHandler(c *gin.Context) {
	var req helpers.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordPaymentHandler", err)
		return
	}
	h.runWinnerCommand(c, "RecordPaymentHandler", "payment recorded", func(ctx context.Context, lotID string) (model.Winner, error) {
		return h.service.RecordPayment(ctx, lotID, req.Amount)
	})
}
