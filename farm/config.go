// Package farm implements the sale engine: a stepped descending-price
// public sale combined with signature-gated and Merkle-proof-gated claim
// lanes, giveaway distribution, and proportional revenue accounting.
//
// This package provides:
//   - SaleConfig, the immutable sale parameters set once at initialization
//   - PriceCurve, the pure time-to-price mapping
//   - Farm, the orchestrating state machine behind every entry point
//
// The Farm serializes entry points with a mutex, mirroring the serialized
// transaction model the design assumes: every shared counter is
// read-modify-written within a single call, and validation always precedes
// mutation so a failed call leaves no trace.
package farm

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndujaLabs/everdragons2-core/inventory"
)

// Network identification constants
const (
	// PolygonChainID is the chain ID of the Polygon mainnet, where the
	// main sale runs.
	PolygonChainID uint64 = 137

	// MumbaiChainID is the chain ID of the Polygon Mumbai testnet.
	MumbaiChainID uint64 = 80001

	// FakeChainID is the chain ID used by local/fake networks in testing.
	FakeChainID uint64 = 31337

	// PriceUnitWei is the wei value of one price unit. Prices are tracked
	// in hundredths of the native coin, so one unit is 10^16 wei.
	PriceUnitWei uint64 = 1e16
)

var (
	// ErrBadConfig rejects configurations that cannot describe a sale.
	ErrBadConfig = errors.New("Invalid sale configuration")
)

// SaleConfig describes a complete sale deployment. It is set once via
// Farm.Init and never mutated afterwards; entry points read it by value.
//
// Note: when adding fields, keep Copy() correct — the struct is currently
// free of pointer types, so a plain value copy is deep.
type SaleConfig struct {
	Name      string // deployment name ("main", "test", "fake")
	NetworkID uint64 // chain ID bound into voucher digests

	// Validator is the address whose signature authorizes voucher claims.
	Validator common.Address

	// StartingTimestamp is the instant (unix seconds) before which no
	// price-gated operation succeeds.
	StartingTimestamp uint64

	// Price curve parameters. MaxPrice and MinPrice are in price units
	// (hundredths of the native coin); MinPrice of zero means no floor.
	MaxPrice                 uint64
	MinPrice                 uint64
	DecrementPercentage      uint64
	MinutesBetweenDecrements uint64
	NumberOfSteps            uint64

	// DiscountedStep is the fixed curve step whitelisted wallets buy at,
	// regardless of elapsed time.
	DiscountedStep uint64

	// GraceSeconds widens the step computation so a step boundary crossed
	// mid-transaction cannot race the payment check.
	GraceSeconds uint64

	// Public sale id range.
	NextTokenID       uint64
	MaxTokenIDForSale uint64

	// Reserved claim-lane sizes, laid out contiguously after the sale
	// range in this order.
	OnEthereum    uint64
	OnPoa         uint64
	OnTron        uint64
	WhitelistSize uint64
	GiveawaySize  uint64

	// MaxTokensPerWhitelistedWallet caps the discounted lane per wallet.
	MaxTokensPerWhitelistedWallet uint64
}

// Validate checks the internal consistency of the configuration.
func (c SaleConfig) Validate() error {
	if c.NumberOfSteps == 0 || c.MinutesBetweenDecrements == 0 {
		return ErrBadConfig
	}
	if c.DecrementPercentage >= 100 {
		return ErrBadConfig
	}
	if c.NextTokenID == 0 || c.MaxTokenIDForSale < c.NextTokenID {
		return ErrBadConfig
	}
	if c.MinPrice > c.MaxPrice {
		return ErrBadConfig
	}
	return nil
}

// Layout derives the inventory lane layout from the configured range
// bounds. The lane bases are cumulative offsets, never stored redundantly,
// so the sub-ranges cannot overlap.
func (c SaleConfig) Layout() inventory.Layout {
	return inventory.Layout{
		NextTokenID:       c.NextTokenID,
		MaxTokenIDForSale: c.MaxTokenIDForSale,
		OnEthereum:        c.OnEthereum,
		OnPoa:             c.OnPoa,
		OnTron:            c.OnTron,
		Whitelist:         c.WhitelistSize,
		Giveaway:          c.GiveawaySize,
	}
}

// Copy creates a deep copy of the configuration.
func (c SaleConfig) Copy() SaleConfig {
	return c
}

// String returns a JSON representation for debugging and logging.
func (c SaleConfig) String() string {
	b, _ := json.Marshal(&c)
	return string(b)
}

// MainNetConfig returns the production sale configuration: 10000 tokens,
// price descending from 50 native coins by 10% every 10 minutes over 5
// steps, with reserved lanes for the legacy cross-chain collections.
func MainNetConfig() SaleConfig {
	return SaleConfig{
		Name:                          "main",
		NetworkID:                     PolygonChainID,
		MaxPrice:                      50 * 100,
		DecrementPercentage:           10,
		MinutesBetweenDecrements:      10,
		NumberOfSteps:                 5,
		DiscountedStep:                2,
		GraceSeconds:                  10,
		NextTokenID:                   1,
		MaxTokenIDForSale:             9000,
		OnEthereum:                    520,
		OnPoa:                         150,
		OnTron:                        130,
		WhitelistSize:                 100,
		GiveawaySize:                  100,
		MaxTokensPerWhitelistedWallet: 3,
	}
}

// TestNetConfig returns the testnet configuration. Same curve as mainnet
// over a reduced supply.
func TestNetConfig() SaleConfig {
	cfg := MainNetConfig()
	cfg.Name = "test"
	cfg.NetworkID = MumbaiChainID
	cfg.MaxTokenIDForSale = 900
	cfg.OnEthereum = 52
	cfg.OnPoa = 15
	cfg.OnTron = 13
	cfg.WhitelistSize = 10
	cfg.GiveawaySize = 10
	return cfg
}

// FakeNetConfig returns the configuration used by local networks and the
// test suite: a 100-token sale with small reserved lanes, matching the
// fixtures the engine's behavior was specified against.
func FakeNetConfig() SaleConfig {
	return SaleConfig{
		Name:                          "fake",
		NetworkID:                     FakeChainID,
		MaxPrice:                      50 * 100,
		DecrementPercentage:           10,
		MinutesBetweenDecrements:      10,
		NumberOfSteps:                 5,
		DiscountedStep:                2,
		GraceSeconds:                  10,
		NextTokenID:                   1,
		MaxTokenIDForSale:             100,
		OnEthereum:                    10,
		OnPoa:                         5,
		OnTron:                        5,
		WhitelistSize:                 10,
		GiveawaySize:                  20,
		MaxTokensPerWhitelistedWallet: 3,
	}
}
