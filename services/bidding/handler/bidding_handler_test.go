package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/engine"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// decimalEq matches decimals by value rather than representation
type decimalEq struct{ want decimal.Decimal }

func (m decimalEq) Matches(x interface{}) bool {
	got, ok := x.(decimal.Decimal)
	return ok && got.Equal(m.want)
}

func (m decimalEq) String() string { return "is decimal " + m.want.String() }

func amount(v int64) gomock.Matcher { return decimalEq{want: d(v)} }

func newTestRouter(t *testing.T) (*gin.Engine, *MockBiddingServiceInterface, *MockEventStream) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := NewMockBiddingServiceInterface(ctrl)
	stream := NewMockEventStream(ctrl)
	h := NewBiddingHandler(service, stream)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", h.CreateAuctionHandler)
	router.POST("/auctions/:auction_id/schedule", h.ScheduleAuctionHandler)
	router.POST("/auctions/:auction_id/lots", h.AddLotHandler)
	router.POST("/auctions/:auction_id/start", h.StartAuctionHandler)
	router.POST("/auctions/:auction_id/end", h.EndAuctionHandler)
	router.POST("/auctions/:auction_id/cancel", h.CancelAuctionHandler)
	router.POST("/auctions/:auction_id/close-lot", h.CloseLotHandler)
	router.POST("/auctions/:auction_id/settle", h.SettleAuctionHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.GET("/auctions/:auction_id/stream", h.StreamAuctionHandler)
	router.POST("/lots/:lot_id/prebids", h.PlacePreBidHandler)
	router.POST("/lots/:lot_id/bids", h.PlaceBidHandler)
	router.POST("/lots/:lot_id/proxy-bids", h.PlaceProxyBidHandler)
	router.POST("/lots/:lot_id/validate", h.ValidateBidHandler)
	router.GET("/lots/:lot_id", h.GetLotHandler)
	router.GET("/lots/:lot_id/bids", h.GetBidsByLotHandler)
	router.GET("/lots/:lot_id/winner", h.GetWinnerHandler)
	router.POST("/lots/:lot_id/winner/confirm", h.ConfirmWinnerHandler)
	router.POST("/lots/:lot_id/winner/reject", h.RejectWinnerHandler)
	router.POST("/lots/:lot_id/winner/payments", h.RecordPaymentHandler)
	router.POST("/lots/:lot_id/winner/payment-failed", h.PaymentFailedHandler)
	return router, service, stream
}

func doRequest(router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func bidResult(bidder string, amount int64, seq int64) engine.BidResult {
	return engine.BidResult{
		Bid: model.Bid{
			BidID:    uuid.NewString(),
			LotID:    "lot1",
			BidderID: bidder,
			Amount:   d(amount),
			Kind:     model.BidLive,
			Status:   model.BidAccepted,
			Sequence: seq,
			PlacedAt: time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
		},
		CurrentPrice:    d(amount),
		HighestBidderID: bidder,
		LastSequence:    seq,
	}
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		userID         string
		requestBody    any
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_valid_bid",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100.00"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(bidResult("user1", 1100, 2), nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded successfully",
			validateData: func(t *testing.T, data map[string]any) {
				_, parseErr := uuid.Parse(data["bid_id"].(string))
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "lot1", data["lot_id"])
				require.Equal(t, "user1", data["bidder_id"])
				require.Equal(t, "1100", data["amount"])
				require.Equal(t, "1100", data["current_price"])
				require.Equal(t, 2.0, data["sequence"])
			},
		},
		{
			name:        "numeric_amount_with_seen_sequence",
			userID:      "user1",
			requestBody: map[string]any{"amount": 1200, "seen_sequence": 4},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1200), gomock.Any()).
					DoAndReturn(func(_, _, _ any, _ decimal.Decimal, seen *int64) (engine.BidResult, error) {
						if seen == nil || *seen != 4 {
							return engine.BidResult{}, fmt.Errorf("unexpected seen sequence %v", seen)
						}
						return bidResult("user1", 1200, 5), nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded successfully",
		},
		{
			name:           "missing_identity",
			requestBody:    map[string]any{"amount": "1100"},
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "missing bidder identity",
		},
		{
			name:           "invalid_json",
			userID:         "user1",
			requestBody:    `{invalid json}`,
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "malformed_amount",
			userID:         "user1",
			requestBody:    map[string]any{"amount": "eleven hundred"},
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "below_minimum_increment",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1050"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1050), gomock.Nil()).
					Return(engine.BidResult{}, fmt.Errorf("service: %w", &biddingerrors.Rejection{
						Reason:        biddingerrors.ErrBelowMinimumIncrement,
						LotID:         "lot1",
						Amount:        d(1050),
						MinAcceptable: d(1100),
						CurrentPrice:  d(1000),
						LastSequence:  1,
					}))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "bid amount below minimum increment",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "1100", data["min_acceptable"])
				require.Equal(t, "1000", data["current_price"])
				require.Equal(t, 1.0, data["last_sequence"])
			},
		},
		{
			name:        "superseded",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, &biddingerrors.Rejection{Reason: biddingerrors.ErrConcurrentBidSuperseded, LotID: "lot1"})
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "another bid was accepted first",
		},
		{
			name:        "lot_not_active",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, &biddingerrors.Rejection{Reason: biddingerrors.ErrLotNotActive, LotID: "lot1"})
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "lot is not active",
		},
		{
			name:        "lot_closed",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, &biddingerrors.Rejection{Reason: biddingerrors.ErrLotClosed, LotID: "lot1"})
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "lot is closed",
		},
		{
			name:        "bidder_not_allowed",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, fmt.Errorf("service: %w - user1", biddingerrors.ErrBidderNotAllowed))
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "bidder is not allowed to bid",
		},
		{
			name:        "lot_not_found",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, fmt.Errorf("engine: lot lot1: %w", biddingerrors.ErrLotNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "lot not found",
		},
		{
			name:        "invariant_violation",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, biddingerrors.ErrLedgerGap)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
		{
			name:        "service_generic_error",
			userID:      "user1",
			requestBody: map[string]any{"amount": "1100"},
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().
					PlaceLiveBid(gomock.Any(), "lot1", "user1", amount(1100), gomock.Nil()).
					Return(engine.BidResult{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, service, _ := newTestRouter(t)
			tc.mockSetup(service)

			w := doRequest(router, http.MethodPost, "/lots/lot1/bids", tc.userID, tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)

			resp := decode(t, w)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil {
				data := resp["data"].(map[string]any)
				tc.validateData(t, data)
			}
		})
	}
}

func TestPlacePreAndProxyBidHandlers(t *testing.T) {
	t.Parallel()

	t.Run("pre_bid_with_notes", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		res := bidResult("user1", 1000, 1)
		res.Bid.Kind = model.BidPreBid
		service.EXPECT().
			PlacePreBid(gomock.Any(), "lot1", "user1", amount(1000), "phone bidder", gomock.Nil()).
			Return(res, nil)

		w := doRequest(router, http.MethodPost, "/lots/lot1/prebids", "user1", map[string]any{
			"amount": "1000",
			"notes":  "phone bidder",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		require.Equal(t, "pre_bid", data["kind"])
	})

	t.Run("pre_bid_not_allowed", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().
			PlacePreBid(gomock.Any(), "lot1", "user1", amount(1000), "", gomock.Nil()).
			Return(engine.BidResult{}, &biddingerrors.Rejection{Reason: biddingerrors.ErrPreBidNotAllowed, LotID: "lot1"})

		w := doRequest(router, http.MethodPost, "/lots/lot1/prebids", "user1", map[string]any{"amount": "1000"})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("proxy_with_cascade", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		res := bidResult("user1", 1100, 2)
		res.Bid.Kind = model.BidProxySeed
		res.Bid.Status = model.BidSuperseded
		res.Cascade = []model.Bid{{BidID: uuid.NewString(), BidderID: "user2", Amount: d(1200), Kind: model.BidProxyCascade}}
		res.CurrentPrice = d(1200)
		res.HighestBidderID = "user2"
		service.EXPECT().
			PlaceProxyBid(gomock.Any(), "lot1", "user1", amount(1100), amount(1500), gomock.Nil()).
			Return(res, nil)

		w := doRequest(router, http.MethodPost, "/lots/lot1/proxy-bids", "user1", map[string]any{
			"amount":     "1100",
			"max_amount": "1500",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		require.Equal(t, 1.0, data["cascade_count"])
		require.Equal(t, "user2", data["highest_bidder_id"])
		require.Equal(t, "superseded", data["status"])
	})

	t.Run("proxy_max_below_amount", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().
			PlaceProxyBid(gomock.Any(), "lot1", "user1", amount(1500), amount(1100), gomock.Nil()).
			Return(engine.BidResult{}, &biddingerrors.Rejection{Reason: biddingerrors.ErrProxyMaxBelowAmount, LotID: "lot1"})

		w := doRequest(router, http.MethodPost, "/lots/lot1/proxy-bids", "user1", map[string]any{
			"amount":     "1500",
			"max_amount": "1100",
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestValidateBidHandler(t *testing.T) {
	t.Parallel()

	router, service, _ := newTestRouter(t)
	service.EXPECT().
		ValidateBid(gomock.Any(), "lot1", "user1", amount(900), model.BidLive).
		Return(engine.ValidationReport{
			Valid:         false,
			Reason:        "bid amount below minimum increment",
			Kind:          "validation",
			MinAcceptable: d(1000),
		}, nil)

	w := doRequest(router, http.MethodPost, "/lots/lot1/validate", "user1", map[string]any{"amount": "900", "kind": "live"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	require.Equal(t, false, data["valid"])
	require.Equal(t, "1000", data["min_acceptable"])

	w = doRequest(router, http.MethodPost, "/lots/lot1/validate", "user1", map[string]any{"amount": "900", "kind": "proxy_cascade"})
	require.Equal(t, http.StatusBadRequest, w.Code, "cascade bids are engine-generated only")
}

func TestCreateAuctionHandler(t *testing.T) {
	t.Parallel()

	startsAt := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	valid := map[string]any{
		"name":           "Evening sale",
		"location_id":    "loc-1",
		"starts_at":      startsAt.Format(time.RFC3339),
		"ends_at":        startsAt.Add(3 * time.Hour).Format(time.RFC3339),
		"min_increment":  "100",
		"allow_pre_bids": true,
	}

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: valid,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, cmd bidding.CreateAuctionCommand) (model.Auction, error) {
						return model.Auction{
							AuctionID:    uuid.NewString(),
							Name:         cmd.Name,
							StartsAt:     cmd.StartsAt,
							EndsAt:       cmd.EndsAt,
							MinIncrement: cmd.MinIncrement,
							AllowPreBids: cmd.AllowPreBids,
							Status:       model.AuctionDraft,
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "missing_name",
			requestBody:    map[string]any{"starts_at": valid["starts_at"], "ends_at": valid["ends_at"]},
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "service_rejects_schedule",
			requestBody: valid,
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).
					Return(model.Auction{}, fmt.Errorf("service: %w - EndsAt:gtfield", biddingerrors.ErrInvalidAuction))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request details",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, service, _ := newTestRouter(t)
			tc.mockSetup(service)

			w := doRequest(router, http.MethodPost, "/auctions", "", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, decode(t, w)["message"], tc.expectedMsg)
		})
	}
}

func TestAddLotHandler(t *testing.T) {
	t.Parallel()

	t.Run("success_with_reserve", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().AddLot(gomock.Any(), "auc1", gomock.Any()).
			DoAndReturn(func(_ any, auctionID string, cmd bidding.AddLotCommand) (model.Lot, error) {
				require.Equal(t, "car-1", cmd.CarID)
				require.True(t, cmd.ReservePrice.Valid)
				require.True(t, cmd.ReservePrice.Decimal.Equal(d(5000)))
				return model.Lot{LotID: "lot1", AuctionID: auctionID, LotNumber: cmd.LotNumber}, nil
			})

		w := doRequest(router, http.MethodPost, "/auctions/auc1/lots", "", map[string]any{
			"car_id":          "car-1",
			"lot_number":      7,
			"item_number":     1,
			"minimum_pre_bid": "1000",
			"reserve_price":   "5000",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("duplicate_lot_number", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().AddLot(gomock.Any(), "auc1", gomock.Any()).
			Return(model.Lot{}, biddingerrors.ErrDuplicateLotNumber)

		w := doRequest(router, http.MethodPost, "/auctions/auc1/lots", "", map[string]any{
			"car_id":          "car-1",
			"lot_number":      7,
			"minimum_pre_bid": "1000",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		require.Contains(t, decode(t, w)["message"], "duplicate lot number")
	})

	t.Run("missing_lot_number", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newTestRouter(t)
		w := doRequest(router, http.MethodPost, "/auctions/auc1/lots", "", map[string]any{"car_id": "car-1"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuctionCommandHandlers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		mockSetup      func(m *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "schedule_with_empty_body",
			path: "/auctions/auc1/schedule",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().ScheduleAuction(gomock.Any(), "auc1", time.Time{}, time.Time{}).
					Return(model.Auction{AuctionID: "auc1", Status: model.AuctionScheduled}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction scheduled successfully",
		},
		{
			name: "start",
			path: "/auctions/auc1/start",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().StartAuction(gomock.Any(), "auc1").
					Return(model.Auction{AuctionID: "auc1", Status: model.AuctionRunning}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction started successfully",
		},
		{
			name: "start_from_draft",
			path: "/auctions/auc1/start",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().StartAuction(gomock.Any(), "auc1").Return(model.Auction{}, biddingerrors.ErrInvalidTransition)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "invalid state transition",
		},
		{
			name: "end_unknown",
			path: "/auctions/auc1/end",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().EndAuction(gomock.Any(), "auc1").Return(model.Auction{}, biddingerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name: "cancel_with_live_bids",
			path: "/auctions/auc1/cancel",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().CancelAuction(gomock.Any(), "auc1").Return(model.Auction{}, biddingerrors.ErrAuctionHasLiveBids)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction has accepted live bids",
		},
		{
			name: "close_lot_not_running",
			path: "/auctions/auc1/close-lot",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().CloseCurrentLot(gomock.Any(), "auc1").Return(model.Auction{}, biddingerrors.ErrAuctionNotRunning)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not running",
		},
		{
			name: "settle_pending_winners",
			path: "/auctions/auc1/settle",
			mockSetup: func(m *MockBiddingServiceInterface) {
				m.EXPECT().SettleAuction(gomock.Any(), "auc1").Return(model.Auction{}, biddingerrors.ErrWinnersNotFinalized)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction winners are not finalized",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, service, _ := newTestRouter(t)
			tc.mockSetup(service)

			w := doRequest(router, http.MethodPost, tc.path, "", nil)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, decode(t, w)["message"], tc.expectedMsg)
		})
	}
}

func TestReadHandlers(t *testing.T) {
	t.Parallel()

	t.Run("auction_without_lots", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().GetAuction(gomock.Any(), "auc1").
			Return(engine.AuctionView{Auction: model.Auction{AuctionID: "auc1"}}, nil)

		w := doRequest(router, http.MethodGet, "/auctions/auc1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		require.Equal(t, []any{}, data["lots"])
	})

	t.Run("lot_with_car", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().GetLot(gomock.Any(), "lot1").Return(bidding.LotDetails{
			LotView: engine.LotView{
				Lot:              model.Lot{LotID: "lot1", CarID: "car-1"},
				TimerState:       engine.TimerRunning,
				RemainingSeconds: 7.5,
			},
			Car: &model.Car{CarID: "car-1", Make: "Toyota"},
		}, nil)

		w := doRequest(router, http.MethodGet, "/lots/lot1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		require.Equal(t, 7.5, data["remaining_seconds"])
		require.Equal(t, "Toyota", data["car"].(map[string]any)["make"])
	})

	t.Run("empty_ledger", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().ListBids(gomock.Any(), "lot1").Return(nil, nil)

		w := doRequest(router, http.MethodGet, "/lots/lot1/bids", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []any{}, decode(t, w)["data"])
	})

	t.Run("bids_in_sequence", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().ListBids(gomock.Any(), "lot1").Return([]model.Bid{
			bidResult("user1", 1000, 1).Bid,
			bidResult("user2", 1100, 2).Bid,
		}, nil)

		w := doRequest(router, http.MethodGet, "/lots/lot1/bids", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]any)
		require.Len(t, data, 2)
		require.Equal(t, 2.0, data[1].(map[string]any)["sequence"])
	})

	t.Run("winner_not_found", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().GetWinner(gomock.Any(), "lot1").Return(model.Winner{}, biddingerrors.ErrWinnerNotFound)

		w := doRequest(router, http.MethodGet, "/lots/lot1/winner", "", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Contains(t, decode(t, w)["message"], "winner not found")
	})
}

func TestWinnerCommandHandlers(t *testing.T) {
	t.Parallel()

	winner := model.Winner{WinnerID: "w1", LotID: "lot1", UserID: "user1", Amount: d(1000), PaymentStatus: model.PaymentUnpaid}

	t.Run("confirm", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().ConfirmWinner(gomock.Any(), "lot1").Return(winner, nil)

		w := doRequest(router, http.MethodPost, "/lots/lot1/winner/confirm", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, decode(t, w)["message"], "winner confirmed")
	})

	t.Run("reject_twice", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().RejectWinner(gomock.Any(), "lot1").Return(model.Winner{}, biddingerrors.ErrInvalidTransition)

		w := doRequest(router, http.MethodPost, "/lots/lot1/winner/reject", "", nil)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("partial_payment", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		paid := winner
		paid.PaidAmount = d(400)
		paid.PaymentStatus = model.PaymentPartial
		service.EXPECT().RecordPayment(gomock.Any(), "lot1", amount(400)).Return(paid, nil)

		w := doRequest(router, http.MethodPost, "/lots/lot1/winner/payments", "", map[string]any{"amount": "400"})
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		require.Equal(t, "partial", data["payment_status"])
	})

	t.Run("overpayment", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().RecordPayment(gomock.Any(), "lot1", amount(5000)).Return(model.Winner{}, biddingerrors.ErrInvalidPayment)

		w := doRequest(router, http.MethodPost, "/lots/lot1/winner/payments", "", map[string]any{"amount": "5000"})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("payment_failed", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		failed := winner
		failed.PaymentStatus = model.PaymentFailed
		service.EXPECT().MarkPaymentFailed(gomock.Any(), "lot1").Return(failed, nil)

		w := doRequest(router, http.MethodPost, "/lots/lot1/winner/payment-failed", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestStreamAuctionHandler(t *testing.T) {
	t.Parallel()

	t.Run("streams_until_closed", func(t *testing.T) {
		t.Parallel()
		router, service, stream := newTestRouter(t)
		service.EXPECT().GetAuction(gomock.Any(), "auc1").Return(engine.AuctionView{}, nil)

		at := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
		ch := make(chan events.Event, 2)
		ch <- events.BidPlaced("auc1", model.Bid{LotID: "lot1", BidderID: "user1", Amount: d(1000), Sequence: 1, PlacedAt: at})
		ch <- events.LotClosed("auc1", "lot1", at)
		close(ch)
		cancelled := false
		stream.EXPECT().Subscribe("auc1").Return((<-chan events.Event)(ch), func() { cancelled = true })

		req := httptest.NewRequest(http.MethodGet, "/auctions/auc1/stream", nil)
		w := createTestResponseRecorder()
		router.ServeHTTP(w, req)

		body := w.Body.String()
		require.Contains(t, body, "event:bid_placed")
		require.Contains(t, body, "event:lot_closed")
		require.Contains(t, body, `"bidder_id":"user1"`)
		require.True(t, cancelled, "subscription must be released")
	})

	t.Run("unknown_auction", func(t *testing.T) {
		t.Parallel()
		router, service, _ := newTestRouter(t)
		service.EXPECT().GetAuction(gomock.Any(), "missing").Return(engine.AuctionView{}, biddingerrors.ErrAuctionNotFound)

		w := doRequest(router, http.MethodGet, "/auctions/missing/stream", "", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// testResponseRecorder mirrors gin's internal test recorder: an
// httptest.ResponseRecorder that also implements http.CloseNotifier, which
// gin's Context.Stream requires.
type testResponseRecorder struct {
	*httptest.ResponseRecorder
	closeChannel chan bool
}

func (r *testResponseRecorder) CloseNotify() <-chan bool {
	return r.closeChannel
}

func createTestResponseRecorder() *testResponseRecorder {
	return &testResponseRecorder{
		httptest.NewRecorder(),
		make(chan bool, 1),
	}
}
