package bidding

import (
	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/engine"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// BiddingService is the command surface of the lot bidding engine.
// It resolves bidders and cars through their collaborators and hands
// everything else to the engine.
type BiddingService struct {
	engine   *engine.Engine
	users    repository.UserDirectory
	cars     repository.CarCatalog
	validate *validator.Validate
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(eng *engine.Engine, users repository.UserDirectory, cars repository.CarCatalog) *BiddingService {
	return &BiddingService{
		engine:   eng,
		users:    users,
		cars:     cars,
		validate: newValidator(),
	}
}

// decimals are validated through their float value so numeric tags like gt=0 apply
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		case decimal.NullDecimal:
			if !d.Valid {
				return nil
			}
			f, _ := d.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})
	return v
}

// describe flattens validator errors into "field:tag" pairs
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+":"+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// CreateAuctionCommand registers a new auction
type CreateAuctionCommand struct {
	Name         string          `validate:"required,max=128"`
	LocationID   string          `validate:"max=64"`
	StartsAt     time.Time       `validate:"required"`
	EndsAt       time.Time       `validate:"required,gtfield=StartsAt"`
	MinIncrement decimal.Decimal `validate:"gt=0"`
	AllowPreBids bool
}

// AddLotCommand adds a car to an auction
type AddLotCommand struct {
	CarID         string              `validate:"required,max=64"`
	LotNumber     int                 `validate:"gt=0"`
	ItemNumber    int                 `validate:"gte=0"`
	MinimumPreBid decimal.Decimal     `validate:"gt=0"`
	ReservePrice  decimal.NullDecimal `validate:"omitempty,gt=0"`
}

type bidCommand struct {
	LotID    string `validate:"required"`
	BidderID string `validate:"required"`
}

// CreateAuction registers a Draft auction
func (s *BiddingService) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (models.Auction, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return models.Auction{}, fmt.Errorf("service: %w - %s", biddingerrors.ErrInvalidAuction, describe(err))
	}
	a, err := s.engine.CreateAuction(ctx, engine.AuctionSpec{
		Name:         cmd.Name,
		LocationID:   cmd.LocationID,
		StartsAt:     cmd.StartsAt,
		EndsAt:       cmd.EndsAt,
		MinIncrement: cmd.MinIncrement,
		AllowPreBids: cmd.AllowPreBids,
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction %q: %w", cmd.Name, err)
	}
	return a, nil
}

// ScheduleAuction moves a Draft auction to Scheduled, optionally moving its dates
func (s *BiddingService) ScheduleAuction(ctx context.Context, auctionID string, startsAt, endsAt time.Time) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	a, err := s.engine.ScheduleAuction(ctx, auctionID, startsAt, endsAt)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to schedule auction %s: %w", auctionID, err)
	}
	return a, nil
}

// AddLot adds a catalogued car to a Draft or Scheduled auction
func (s *BiddingService) AddLot(ctx context.Context, auctionID string, cmd AddLotCommand) (models.Lot, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return models.Lot{}, fmt.Errorf("service: %w - %s", biddingerrors.ErrInvalidLot, describe(err))
	}
	if _, err := s.cars.GetCar(ctx, cmd.CarID); err != nil {
		return models.Lot{}, fmt.Errorf("service: failed to resolve car %s: %w", cmd.CarID, err)
	}
	lot, err := s.engine.AddLot(ctx, auctionID, engine.LotSpec{
		CarID:         cmd.CarID,
		LotNumber:     cmd.LotNumber,
		ItemNumber:    cmd.ItemNumber,
		MinimumPreBid: cmd.MinimumPreBid,
		ReservePrice:  cmd.ReservePrice,
	})
	if err != nil {
		return models.Lot{}, fmt.Errorf("service: failed to add lot %d to auction %s: %w", cmd.LotNumber, auctionID, err)
	}
	return lot, nil
}

// checkBidder validates the command and makes sure the bidder exists and may bid
func (s *BiddingService) checkBidder(ctx context.Context, lotID, bidderID string) error {
	if err := s.validate.Struct(bidCommand{LotID: lotID, BidderID: bidderID}); err != nil {
		return fmt.Errorf("service: %w - %s", biddingerrors.ErrInvalidBid, describe(err))
	}
	user, err := s.users.GetUser(ctx, bidderID)
	if err != nil {
		return fmt.Errorf("service: failed to resolve bidder %s: %w", bidderID, err)
	}
	if !user.CanBid {
		return fmt.Errorf("service: %w - %s", biddingerrors.ErrBidderNotAllowed, bidderID)
	}
	return nil
}

func (s *BiddingService) place(ctx context.Context, req engine.BidRequest) (engine.BidResult, error) {
	if err := s.checkBidder(ctx, req.LotID, req.BidderID); err != nil {
		return engine.BidResult{}, err
	}
	res, err := s.engine.PlaceBid(ctx, req)
	if err != nil {
		return engine.BidResult{}, fmt.Errorf("service: failed to place %s bid on lot %s by %s: %w", req.Kind, req.LotID, req.BidderID, err)
	}
	return res, nil
}

// PlacePreBid records a bid before the lot goes live
func (s *BiddingService) PlacePreBid(ctx context.Context, lotID, bidderID string, amount decimal.Decimal, notes string, seen *int64) (engine.BidResult, error) {
	return s.place(ctx, engine.BidRequest{
		LotID:        lotID,
		BidderID:     bidderID,
		Amount:       amount,
		Kind:         models.BidPreBid,
		Notes:        notes,
		SeenSequence: seen,
	})
}

// PlaceLiveBid records a bid on the auction's current lot
func (s *BiddingService) PlaceLiveBid(ctx context.Context, lotID, bidderID string, amount decimal.Decimal, seen *int64) (engine.BidResult, error) {
	return s.place(ctx, engine.BidRequest{
		LotID:        lotID,
		BidderID:     bidderID,
		Amount:       amount,
		Kind:         models.BidLive,
		SeenSequence: seen,
	})
}

// PlaceProxyBid bids startAmount now and lets the engine answer rivals up to maxAmount
func (s *BiddingService) PlaceProxyBid(ctx context.Context, lotID, bidderID string, startAmount, maxAmount decimal.Decimal, seen *int64) (engine.BidResult, error) {
	return s.place(ctx, engine.BidRequest{
		LotID:        lotID,
		BidderID:     bidderID,
		Amount:       startAmount,
		Kind:         models.BidProxySeed,
		ProxyMax:     decimal.NewNullDecimal(maxAmount),
		SeenSequence: seen,
	})
}

// ValidateBid reports whether a bid would be accepted right now, without placing it
func (s *BiddingService) ValidateBid(ctx context.Context, lotID, bidderID string, amount decimal.Decimal, kind models.BidKind) (engine.ValidationReport, error) {
	if err := s.checkBidder(ctx, lotID, bidderID); err != nil {
		return engine.ValidationReport{}, err
	}
	if kind == "" {
		kind = models.BidLive
	}
	report, err := s.engine.ValidateBid(ctx, engine.BidRequest{
		LotID:    lotID,
		BidderID: bidderID,
		Amount:   amount,
		Kind:     kind,
		// a proxy is checked against its own start amount
		ProxyMax: decimal.NewNullDecimal(amount),
	})
	if err != nil {
		return engine.ValidationReport{}, fmt.Errorf("service: failed to validate bid on lot %s: %w", lotID, err)
	}
	return report, nil
}

type auctionCommand func(context.Context, string) (models.Auction, error)

func (s *BiddingService) runAuctionCommand(ctx context.Context, name, auctionID string, cmd auctionCommand) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidAuction)
	}
	a, err := cmd(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to %s auction %s: %w", name, auctionID, err)
	}
	return a, nil
}

// StartAuction moves a Scheduled auction to Running
func (s *BiddingService) StartAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	return s.runAuctionCommand(ctx, "start", auctionID, s.engine.StartAuction)
}

// EndAuction ends a Running auction, resolving its current lot
func (s *BiddingService) EndAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	return s.runAuctionCommand(ctx, "end", auctionID, s.engine.EndAuction)
}

// CancelAuction cancels an auction without live bids
func (s *BiddingService) CancelAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	return s.runAuctionCommand(ctx, "cancel", auctionID, s.engine.CancelAuction)
}

// CloseCurrentLot closes the active lot and advances the auction
func (s *BiddingService) CloseCurrentLot(ctx context.Context, auctionID string) (models.Auction, error) {
	return s.runAuctionCommand(ctx, "close current lot of", auctionID, s.engine.CloseCurrentLot)
}

// SettleAuction settles an Ended auction whose winners are all final
func (s *BiddingService) SettleAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	return s.runAuctionCommand(ctx, "settle", auctionID, s.engine.SettleAuction)
}

// GetAuction returns an auction with its lots
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (engine.AuctionView, error) {
	view, err := s.engine.GetAuction(ctx, auctionID)
	if err != nil {
		return engine.AuctionView{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return view, nil
}

// LotDetails is a lot snapshot enriched with its car
type LotDetails struct {
	engine.LotView
	Car *models.Car `json:"car,omitempty"`
}

// GetLot returns a lot snapshot with its car metadata when the catalog knows the car
func (s *BiddingService) GetLot(ctx context.Context, lotID string) (LotDetails, error) {
	view, err := s.engine.GetLot(ctx, lotID)
	if err != nil {
		return LotDetails{}, fmt.Errorf("service: failed to get lot %s: %w", lotID, err)
	}
	details := LotDetails{LotView: view}
	if view.Lot.CarID == "" {
		return details, nil
	}
	car, err := s.cars.GetCar(ctx, view.Lot.CarID)
	switch {
	case err == nil:
		details.Car = &car
	case errors.Is(err, biddingerrors.ErrCarNotFound):
		utils.Warn("service: lot references an unknown car", map[string]any{"lot_id": lotID, "car_id": view.Lot.CarID})
	default:
		return LotDetails{}, fmt.Errorf("service: failed to get car %s: %w", view.Lot.CarID, err)
	}
	return details, nil
}

// ListBids returns the ledger of a lot
func (s *BiddingService) ListBids(ctx context.Context, lotID string) ([]models.Bid, error) {
	bids, err := s.engine.ListBids(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for lot %s: %w", lotID, err)
	}
	return bids, nil
}

// GetWinner returns the winner of a closed lot
func (s *BiddingService) GetWinner(ctx context.Context, lotID string) (models.Winner, error) {
	w, err := s.engine.GetWinner(ctx, lotID)
	if err != nil {
		return models.Winner{}, fmt.Errorf("service: failed to get winner for lot %s: %w", lotID, err)
	}
	return w, nil
}

// ConfirmWinner confirms a pending winner
func (s *BiddingService) ConfirmWinner(ctx context.Context, lotID string) (models.Winner, error) {
	w, err := s.engine.ConfirmWinner(ctx, lotID)
	if err != nil {
		return models.Winner{}, fmt.Errorf("service: failed to confirm winner for lot %s: %w", lotID, err)
	}
	return w, nil
}

// RejectWinner rejects a pending or confirmed winner
func (s *BiddingService) RejectWinner(ctx context.Context, lotID string) (models.Winner, error) {
	w, err := s.engine.RejectWinner(ctx, lotID)
	if err != nil {
		return models.Winner{}, fmt.Errorf("service: failed to reject winner for lot %s: %w", lotID, err)
	}
	return w, nil
}

// RecordPayment records a payment by the winner
func (s *BiddingService) RecordPayment(ctx context.Context, lotID string, amount decimal.Decimal) (models.Winner, error) {
	w, err := s.engine.RecordPayment(ctx, lotID, amount)
	if err != nil {
		return models.Winner{}, fmt.Errorf("service: failed to record payment for lot %s: %w", lotID, err)
	}
	return w, nil
}

// MarkPaymentFailed records a failed payment
func (s *BiddingService) MarkPaymentFailed(ctx context.Context, lotID string) (models.Winner, error) {
	w, err := s.engine.MarkPaymentFailed(ctx, lotID)
	if err != nil {
		return models.Winner{}, fmt.Errorf("service: failed to mark payment failed for lot %s: %w", lotID, err)
	}
	return w, nil
}
