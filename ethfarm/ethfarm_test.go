package ethfarm

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/voucher"
)

var (
	operator = common.HexToAddress("0x000000000000000000000000000000000000000e")
	buyer    = common.HexToAddress("0x00000000000000000000000000000000000000b4")
	other    = common.HexToAddress("0x00000000000000000000000000000000000000b5")
)

func newTestFarm(t *testing.T) (*Farm, *ecdsa.PrivateKey) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return New(operator, crypto.PubkeyToAddress(key.PublicKey), nil), key
}

func signedPurchase(t *testing.T, key *ecdsa.PrivateKey, buyer common.Address, quantity, nonce uint64, cost *big.Int) []byte {
	digest := voucher.EncodePurchase(buyer, quantity, nonce, cost)
	sig, err := voucher.Sign(digest, key)
	require.NoError(t, err)
	return sig
}

func TestBuyTokenCrossChain(t *testing.T) {
	require := require.New(t)
	farm, key := newTestFarm(t)

	// 0.06 ETH each
	cost := new(big.Int).Mul(big.NewInt(6e16), big.NewInt(2))
	sig := signedPurchase(t, key, buyer, 2, 1, cost)

	require.NoError(farm.BuyTokenCrossChain(Call{Sender: buyer, Value: cost}, 2, 1, cost, sig))

	p, ok := farm.PurchasedTokens(1)
	require.True(ok)
	require.Equal(buyer, p.Buyer)
	require.Equal(uint64(2), p.Quantity)
	require.Equal(0, cost.Cmp(farm.ProceedsBalance()))

	// the nonce is burned even with a fresh payment
	require.ErrorIs(
		farm.BuyTokenCrossChain(Call{Sender: buyer, Value: cost}, 2, 1, cost, sig),
		ErrNonceAlreadyUsed,
	)

	_, ok = farm.PurchasedTokens(2)
	require.False(ok)
}

func TestBuyTokenCrossChainRejectsBadSignatures(t *testing.T) {
	require := require.New(t)
	farm, key := newTestFarm(t)

	cost := big.NewInt(6e16)
	sig := signedPurchase(t, key, buyer, 1, 1, cost)

	// quote is bound to the buyer
	require.ErrorIs(
		farm.BuyTokenCrossChain(Call{Sender: other, Value: cost}, 1, 1, cost, sig),
		voucher.ErrInvalidSignature,
	)

	// and to the quantity
	require.ErrorIs(
		farm.BuyTokenCrossChain(Call{Sender: buyer, Value: cost}, 2, 1, cost, sig),
		voucher.ErrInvalidSignature,
	)

	// and to the cost: paying less than signed fails on the signature,
	// lying about the signed cost fails on payment
	require.ErrorIs(
		farm.BuyTokenCrossChain(Call{Sender: buyer, Value: big.NewInt(1)}, 1, 1, big.NewInt(1), sig),
		voucher.ErrInvalidSignature,
	)
	require.ErrorIs(
		farm.BuyTokenCrossChain(Call{Sender: buyer, Value: big.NewInt(1)}, 1, 1, cost, sig),
		ErrInsufficientPayment,
	)

	// a failed purchase burns nothing
	require.NoError(farm.BuyTokenCrossChain(Call{Sender: buyer, Value: cost}, 1, 1, cost, sig))
}

func TestWithdrawProceeds(t *testing.T) {
	require := require.New(t)

	key, err := crypto.GenerateKey()
	require.NoError(err)
	payouts := make(map[common.Address]*big.Int)
	farm := New(operator, crypto.PubkeyToAddress(key.PublicKey), func(to common.Address, amount *big.Int) error {
		if payouts[to] == nil {
			payouts[to] = new(big.Int)
		}
		payouts[to].Add(payouts[to], amount)
		return nil
	})

	cost := big.NewInt(12e16)
	sig := signedPurchase(t, key, buyer, 2, 1, cost)
	require.NoError(farm.BuyTokenCrossChain(Call{Sender: buyer, Value: cost}, 2, 1, cost, sig))

	require.ErrorIs(farm.WithdrawProceeds(Call{Sender: buyer}, buyer, nil), ErrForbidden)

	over := new(big.Int).Add(cost, big.NewInt(1))
	require.ErrorIs(farm.WithdrawProceeds(Call{Sender: operator}, other, over), earnings.ErrInsufficientFunds)

	part := big.NewInt(2e16)
	require.NoError(farm.WithdrawProceeds(Call{Sender: operator}, other, part))
	require.Equal(0, part.Cmp(payouts[other]))

	// zero amount drains the rest
	require.NoError(farm.WithdrawProceeds(Call{Sender: operator}, other, nil))
	require.Equal(0, farm.ProceedsBalance().Sign())
	require.Equal(0, cost.Cmp(payouts[other]))
}
