package engine

import (
	"fmt"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/models"

	"github.com/shopspring/decimal"
)

// StandingProxy is a bidder's registered ceiling on a lot
type StandingProxy struct {
	BidderID string
	Max      decimal.Decimal
	Sequence int64 // sequence of the seed bid, breaks ties between equal ceilings
}

// CascadeStep is one automatic raise on behalf of a standing proxy
type CascadeStep struct {
	BidderID string
	Amount   decimal.Decimal
	ProxyMax decimal.Decimal
}

// RegisterProxy replaces the bidder's standing proxy with the new ceiling
func RegisterProxy(proxies []StandingProxy, p StandingProxy) []StandingProxy {
	out := make([]StandingProxy, 0, len(proxies)+1)
	for _, existing := range proxies {
		if existing.BidderID != p.BidderID {
			out = append(out, existing)
		}
	}
	return append(out, p)
}

// ProxiesFromLedger rebuilds standing proxies: the latest seed per bidder wins
func ProxiesFromLedger(bids []models.Bid) []StandingProxy {
	var proxies []StandingProxy
	for _, b := range bids {
		if b.Kind == models.BidProxySeed && b.ProxyMax.Valid {
			proxies = RegisterProxy(proxies, StandingProxy{
				BidderID: b.BidderID,
				Max:      b.ProxyMax.Decimal,
				Sequence: b.Sequence,
			})
		}
	}
	return proxies
}

// Cascade computes the automatic raises triggered by a new current price set by leader.
//
// At each step the standing proxy of another bidder with the highest ceiling above the
// price (earliest seed on a tie) raises to min(ceiling, price+increment). It stops when
// no other bidder's proxy can out-bid the price. Every step strictly raises the price, so
// the loop is bounded by the proxies count plus the increments between price and the
// highest ceiling.
func Cascade(price decimal.Decimal, leader string, increment decimal.Decimal, proxies []StandingProxy) ([]CascadeStep, error) {
	if !increment.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive increment %s", biddingerrors.ErrInvariantViolation, increment)
	}
	if len(proxies) == 0 {
		return nil, nil
	}

	bound := cascadeBound(price, increment, proxies)
	var steps []CascadeStep
	for i := 0; ; i++ {
		best, ok := strongestChallenger(price, leader, proxies)
		if !ok {
			return steps, nil
		}
		if i >= bound {
			return nil, fmt.Errorf("cascade from %s: %w", price, biddingerrors.ErrCascadeBound)
		}

		amount := decimal.Min(best.Max, price.Add(increment))
		if !amount.GreaterThan(price) {
			return nil, fmt.Errorf("%w: cascade step %s does not raise price %s", biddingerrors.ErrInvariantViolation, amount, price)
		}
		steps = append(steps, CascadeStep{
			BidderID: best.BidderID,
			Amount:   amount,
			ProxyMax: best.Max,
		})
		price, leader = amount, best.BidderID
	}
}

func strongestChallenger(price decimal.Decimal, leader string, proxies []StandingProxy) (StandingProxy, bool) {
	var best StandingProxy
	found := false
	for _, p := range proxies {
		if p.BidderID == leader || !p.Max.GreaterThan(price) {
			continue
		}
		if !found || p.Max.GreaterThan(best.Max) || (p.Max.Equal(best.Max) && p.Sequence < best.Sequence) {
			best, found = p, true
		}
	}
	return best, found
}

func cascadeBound(price, increment decimal.Decimal, proxies []StandingProxy) int {
	highest := price
	for _, p := range proxies {
		highest = decimal.Max(highest, p.Max)
	}
	steps := highest.Sub(price).Div(increment).Ceil().IntPart()
	return int(steps) + len(proxies) + 1
}
