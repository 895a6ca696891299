package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/engine"
	"auction-engine/internal/events"
	model "auction-engine/internal/models"
	repository "auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name         string
	NumUsers     int
	NumLots      int
	ReadRatio    int
	ProxyRatio   int
	MaxIncrement int  // in multiples of the auction increment
	Burst        bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()
	if len(om.latencies) == 0 {
		return
	}
	latencies := om.latencies
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)))]
	p99 = latencies[int(0.99*float64(len(latencies)))]
	return
}

// discard drops engine events so sinks don't skew the numbers
type discard struct{}

func (discard) Publish(...events.Event) {}

var increment = decimal.NewFromInt(100)

// setupLots starts numLots auctions with one live lot each and registers numUsers bidders.
// The mock clock never moves, so lots stay open for the whole run.
func setupLots(tb testing.TB, numLots, numUsers int) (*bidding.BiddingService, []string) {
	tb.Helper()
	_ = utils.SetLevel("error")

	repo := repository.NewMemoryRepo()
	for i := 0; i < numUsers; i++ {
		repo.AddUser(model.User{UserID: fmt.Sprintf("user_%d", i), CanBid: true})
	}
	repo.AddCar(model.Car{CarID: "car_bench", Make: "Toyota", Model: "Supra", Year: 2020})

	clk := clock.NewMock()
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	clk.Set(start)
	cfg := engine.DefaultConfig()
	cfg.MaxLotDuration = 0
	eng := engine.New(repo, discard{}, clk, cfg)
	svc := bidding.NewBiddingService(eng, repo, repo)

	ctx := context.Background()
	lotIDs := make([]string, 0, numLots)
	for i := 0; i < numLots; i++ {
		a, err := svc.CreateAuction(ctx, bidding.CreateAuctionCommand{
			Name:         fmt.Sprintf("bench_%d", i),
			StartsAt:     start,
			EndsAt:       start.Add(24 * time.Hour),
			MinIncrement: increment,
		})
		if err != nil {
			tb.Fatalf("failed to create auction: %v", err)
		}
		lot, err := svc.AddLot(ctx, a.AuctionID, bidding.AddLotCommand{
			CarID:         "car_bench",
			LotNumber:     1,
			MinimumPreBid: increment,
		})
		if err != nil {
			tb.Fatalf("failed to add lot: %v", err)
		}
		if _, err := svc.ScheduleAuction(ctx, a.AuctionID, time.Time{}, time.Time{}); err != nil {
			tb.Fatalf("failed to schedule auction: %v", err)
		}
		if _, err := svc.StartAuction(ctx, a.AuctionID); err != nil {
			tb.Fatalf("failed to start auction: %v", err)
		}
		lotIDs = append(lotIDs, lot.LotID)
	}
	return svc, lotIDs
}

// Benchmark_Load_BiddingSystem runs multiple scenarios
func Benchmark_Load_BiddingSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 200, 200, 0, 0, 3, false},
		{"High-Contention-WriteHeavy", 500, 10, 0, 1, 3, false},
		{"Mixed-Workload", 300, 50, 7, 1, 3, false},
		{"ReadHeavy", 200, 50, 9, 0, 3, false},
		{"Edge-Case-SingleLot", 100, 1, 5, 2, 2, false},
		{"Peak-Burst", 500, 50, 0, 1, 3, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	svc, lotIDs := setupLots(b, s.NumLots, s.NumUsers)
	ctx := context.Background()

	var totalOps, acceptedBids, rejectedBids, totalReads int64
	lotAccepted := make([]int64, s.NumLots)
	// best guess of each lot's price, in increments; racing bids fall behind and get rejected
	lotPrice := make([]int64, s.NumLots)
	metrics := &OperationMetrics{}

	start := time.Now()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			lotIndex := rnd.Intn(s.NumLots)
			lotID := lotIDs[lotIndex]
			bidder := fmt.Sprintf("user_%d", rnd.Intn(s.NumUsers))
			opType := rnd.Intn(10)

			opStart := time.Now()
			switch {
			case opType < s.ReadRatio:
				if _, err := svc.GetLot(ctx, lotID); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			default:
				steps := atomic.AddInt64(&lotPrice[lotIndex], int64(1+rnd.Intn(s.MaxIncrement)))
				amount := increment.Mul(decimal.NewFromInt(steps))
				var err error
				if opType < s.ReadRatio+s.ProxyRatio {
					_, err = svc.PlaceProxyBid(ctx, lotID, bidder, amount, amount.Add(increment.Mul(decimal.NewFromInt(5))), nil)
				} else {
					_, err = svc.PlaceLiveBid(ctx, lotID, bidder, amount, nil)
				}
				if err != nil {
					atomic.AddInt64(&rejectedBids, 1)
				} else {
					atomic.AddInt64(&acceptedBids, 1)
					atomic.AddInt64(&lotAccepted[lotIndex], 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Lots: %d | Total Ops: %d | Accepted Bids: %d | Rejected Bids: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumLots, totalOps, acceptedBids, rejectedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	for i, v := range lotAccepted {
		if v > 0 {
			b.Logf("Lot %d accepted bids: %d", i, v)
		}
	}
}

// TestConcurrentBiddingKeepsLedgerConsistent hammers one lot and checks the ledger afterwards
func TestConcurrentBiddingKeepsLedgerConsistent(t *testing.T) {
	svc, lotIDs := setupLots(t, 1, 20)
	ctx := context.Background()
	lotID := lotIDs[0]

	var wg sync.WaitGroup
	var accepted int64
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			bidder := fmt.Sprintf("user_%d", w)
			for i := 1; i <= 50; i++ {
				amount := increment.Mul(decimal.NewFromInt(int64(i*20 + w)))
				if _, err := svc.PlaceLiveBid(ctx, lotID, bidder, amount, nil); err == nil {
					atomic.AddInt64(&accepted, 1)
				}
			}
		}(w)
	}
	wg.Wait()

	bids, err := svc.ListBids(ctx, lotID)
	if err != nil {
		t.Fatalf("failed to list bids: %v", err)
	}
	if int64(len(bids)) != accepted {
		t.Fatalf("ledger has %d bids, %d were accepted", len(bids), accepted)
	}
	for i, bid := range bids {
		if bid.Sequence != int64(i+1) {
			t.Fatalf("bid %d has sequence %d", i, bid.Sequence)
		}
		if i > 0 {
			if bid.Amount.LessThan(bids[i-1].Amount.Add(increment)) {
				t.Fatalf("bid %d amount %s does not clear %s", i, bid.Amount, bids[i-1].Amount)
			}
			if !bid.PlacedAt.After(bids[i-1].PlacedAt) {
				t.Fatalf("bid %d placed-at not increasing", i)
			}
		}
	}

	lot, err := svc.GetLot(ctx, lotID)
	if err != nil {
		t.Fatalf("failed to get lot: %v", err)
	}
	if !lot.Lot.CurrentPrice.Equal(bids[len(bids)-1].Amount) {
		t.Fatalf("current price %s, last bid %s", lot.Lot.CurrentPrice, bids[len(bids)-1].Amount)
	}
}
