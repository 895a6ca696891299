package server

import (
	"time"

	handler "auction-engine/services/bidding/handler"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// RouterOptions tunes the optional parts of the HTTP surface
type RouterOptions struct {
	Redis     *rd.Client // enables bid rate limiting when set
	BidLimit  int
	BidWindow time.Duration
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.BiddingServiceInterface, stream handler.EventStream, opts RouterOptions) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(service, stream)

	var bidMiddleware []gin.HandlerFunc
	if opts.Redis != nil && opts.BidLimit > 0 {
		bidMiddleware = append(bidMiddleware, BidRateLimit(opts.Redis, opts.BidLimit, opts.BidWindow))
	}

	auctions := router.Group("/auctions")
	{
		auctions.POST("", biddingHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", biddingHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/stream", biddingHandler.StreamAuctionHandler)
		auctions.POST("/:auction_id/schedule", biddingHandler.ScheduleAuctionHandler)
		auctions.POST("/:auction_id/lots", biddingHandler.AddLotHandler)
		auctions.POST("/:auction_id/start", biddingHandler.StartAuctionHandler)
		auctions.POST("/:auction_id/end", biddingHandler.EndAuctionHandler)
		auctions.POST("/:auction_id/cancel", biddingHandler.CancelAuctionHandler)
		auctions.POST("/:auction_id/close-lot", biddingHandler.CloseLotHandler)
		auctions.POST("/:auction_id/settle", biddingHandler.SettleAuctionHandler)
	}

	lots := router.Group("/lots")
	{
		lots.GET("/:lot_id", biddingHandler.GetLotHandler)
		lots.GET("/:lot_id/bids", biddingHandler.GetBidsByLotHandler)
		lots.POST("/:lot_id/validate", biddingHandler.ValidateBidHandler)

		bids := lots.Group("", bidMiddleware...)
		bids.POST("/:lot_id/prebids", biddingHandler.PlacePreBidHandler)
		bids.POST("/:lot_id/bids", biddingHandler.PlaceBidHandler)
		bids.POST("/:lot_id/proxy-bids", biddingHandler.PlaceProxyBidHandler)

		winner := lots.Group("/:lot_id/winner")
		winner.GET("", biddingHandler.GetWinnerHandler)
		winner.POST("/confirm", biddingHandler.ConfirmWinnerHandler)
		winner.POST("/reject", biddingHandler.RejectWinnerHandler)
		winner.POST("/payments", biddingHandler.RecordPaymentHandler)
		winner.POST("/payment-failed", biddingHandler.PaymentFailedHandler)
	}

	return router
}
