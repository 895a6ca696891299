package integrationtests

import (
	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/engine"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/services/bidding/handler"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
)

var t0 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

// store is a repository serving the engine and both collaborators
type store interface {
	repository.AuctionDB
	repository.UserDirectory
	repository.CarCatalog
}

// testEnv is a full stack over a mock clock: router, service, engine and store
type testEnv struct {
	router      *gin.Engine
	eng         *engine.Engine
	clk         *clock.Mock
	store       store
	broadcaster *events.Broadcaster
}

var testUsers = []model.User{
	{UserID: "user1", CanBid: true},
	{UserID: "user2", CanBid: true},
	{UserID: "user3", CanBid: true},
	{UserID: "viewer", CanBid: false},
}

var testCars = []model.Car{
	{CarID: "car1", Make: "Toyota", Model: "Land Cruiser", Year: 2021},
	{CarID: "car2", Make: "Nissan", Model: "Patrol", Year: 2022},
}

// SetupTestEnv initializes the stack with a seeded in-memory repository.
func SetupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := repository.NewMemoryRepo()
	for _, u := range testUsers {
		repo.AddUser(u)
	}
	for _, c := range testCars {
		repo.AddCar(c)
	}
	clk := clock.NewMock()
	clk.Set(t0)
	return newEnv(t, repo, clk)
}

func newEnv(t *testing.T, st store, clk *clock.Mock) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	broadcaster := events.NewBroadcaster(256)
	eng := engine.New(st, broadcasterPublisher{broadcaster}, clk, engine.Config{
		LotDuration:    10 * time.Second,
		MaxLotDuration: 10 * time.Minute,
		TickInterval:   time.Second,
	})
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("failed to load engine: %v", err)
	}
	service := bidding.NewBiddingService(eng, st, st)
	router := server.SetupRouter(service, broadcaster, server.RouterOptions{})
	return &testEnv{router: router, eng: eng, clk: clk, store: st, broadcaster: broadcaster}
}

// broadcasterPublisher delivers synchronously so tests observe events without a dispatcher goroutine
type broadcasterPublisher struct{ b *events.Broadcaster }

func (p broadcasterPublisher) Publish(evts ...events.Event) {
	for _, evt := range evts {
		_ = p.b.Deliver(context.Background(), evt)
	}
}

// advance moves the clock and runs one scheduler tick
func (e *testEnv) advance(d time.Duration) {
	e.clk.Add(d)
	e.eng.Tick(context.Background())
}

// ExecuteRequestAndParse executes an HTTP request on the router and returns the decoded envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, userID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(handler.UserIDHeader, userID)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data extracts the object payload of a response envelope
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no object payload: %v", resp)
	}
	return d
}
