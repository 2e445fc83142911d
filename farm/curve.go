package farm

import (
	"errors"
	"math/big"
)

// ErrSaleNotStarted is returned by price-gated operations before the
// configured starting instant.
var ErrSaleNotStarted = errors.New("Sale not started yet")

// PriceCurve maps elapsed time since the sale start to a monotonically
// non-increasing stepped price. It is pure: the price for a given instant
// is always the same, replayable from the configuration alone, so
// concurrent callers observe a consistent price with no stored state.
type PriceCurve struct {
	cfg SaleConfig
}

// NewPriceCurve builds a curve over a validated configuration.
func NewPriceCurve(cfg SaleConfig) PriceCurve {
	return PriceCurve{cfg: cfg}
}

// CurrentStep returns the curve step active at now (unix seconds). The
// configured grace window is added to now before the comparison, so a step
// boundary crossed within the same transaction cannot produce a race
// between the price check and the payment. The step saturates at the last
// one instead of decaying further.
func (p PriceCurve) CurrentStep(now uint64) (uint64, error) {
	shifted := now + p.cfg.GraceSeconds
	if shifted < p.cfg.StartingTimestamp {
		return 0, ErrSaleNotStarted
	}
	step := (shifted - p.cfg.StartingTimestamp) / (p.cfg.MinutesBetweenDecrements * 60)
	if step > p.cfg.NumberOfSteps-1 {
		step = p.cfg.NumberOfSteps - 1
	}
	return step, nil
}

// PriceInUnits returns the price at a step, in price units (hundredths of
// the native coin). Each step multiplies the previous step's price by
// (100-DecrementPercentage)/100, truncating, which is how the published
// price table was produced; a closed-form power would round differently.
// A configured MinPrice floor clamps the result upward.
func (p PriceCurve) PriceInUnits(step uint64) uint64 {
	if step > p.cfg.NumberOfSteps-1 {
		step = p.cfg.NumberOfSteps - 1
	}
	price := p.cfg.MaxPrice
	for i := uint64(0); i < step; i++ {
		price = price * (100 - p.cfg.DecrementPercentage) / 100
	}
	if price < p.cfg.MinPrice {
		price = p.cfg.MinPrice
	}
	return price
}

// CurrentPrice returns the price at a step in wei.
func (p PriceCurve) CurrentPrice(step uint64) *big.Int {
	units := new(big.Int).SetUint64(p.PriceInUnits(step))
	return units.Mul(units, new(big.Int).SetUint64(PriceUnitWei))
}

// DiscountedPrice returns the wei price whitelisted wallets pay: the price
// at the fixed discounted step, independent of elapsed time.
func (p PriceCurve) DiscountedPrice() *big.Int {
	return p.CurrentPrice(p.cfg.DiscountedStep)
}
