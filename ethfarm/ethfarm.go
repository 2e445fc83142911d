// Package ethfarm implements the origin-chain side of a cross-chain
// purchase. Buyers pay here, on the chain where they hold funds, against a
// price quote signed by the validator; the sale engine on the destination
// chain later mints the tokens when the operator delivers the recorded
// purchase. The nonce is the join key between the two chains and is burned
// exactly once on each side.
package ethfarm

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/voucher"
)

var (
	// ErrNonceAlreadyUsed rejects a second purchase under a burned nonce.
	ErrNonceAlreadyUsed = errors.New("Nonce already used")
	// ErrInsufficientPayment is returned when the attached value does not
	// cover the signed cost.
	ErrInsufficientPayment = errors.New("Insufficient payment")
	// ErrForbidden gates the operator-only calls.
	ErrForbidden = errors.New("Forbidden")
)

// Purchase is one recorded cross-chain purchase, written once per nonce.
type Purchase struct {
	Buyer    common.Address
	Quantity uint64
}

// Call is the environment of one invocation.
type Call struct {
	Sender common.Address
	Value  *big.Int
	Now    uint64
}

func (c Call) value() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// Farm collects origin-chain purchases. It never mints; it only records
// what the destination chain must deliver.
type Farm struct {
	mu  sync.Mutex
	log *logrus.Entry

	operator  common.Address
	validator common.Address
	pay       earnings.Payout

	purchases map[uint64]Purchase
	proceeds  *big.Int
	withdrawn *big.Int
}

// New creates an empty origin-chain farm trusting the given validator for
// price quotes.
func New(operator, validator common.Address, pay earnings.Payout) *Farm {
	return &Farm{
		log:       logrus.WithField("module", "ethfarm"),
		operator:  operator,
		validator: validator,
		pay:       pay,
		purchases: make(map[uint64]Purchase),
		proceeds:  new(big.Int),
		withdrawn: new(big.Int),
	}
}

// Validator returns the trusted quote signer.
func (f *Farm) Validator() common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validator
}

// BuyTokenCrossChain records a purchase of quantity tokens at the signed
// cost. The signature binds buyer, quantity, nonce and cost, so a quote
// cannot be reused by someone else, for a different amount, or twice.
func (f *Farm) BuyTokenCrossChain(c Call, quantity uint64, nonce uint64, cost *big.Int, sig []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, used := f.purchases[nonce]; used {
		return ErrNonceAlreadyUsed
	}
	digest := voucher.EncodePurchase(c.Sender, quantity, nonce, cost)
	if err := voucher.Verify(digest, sig, f.validator); err != nil {
		return err
	}
	if c.value().Cmp(cost) < 0 {
		return ErrInsufficientPayment
	}
	f.purchases[nonce] = Purchase{Buyer: c.Sender, Quantity: quantity}
	f.proceeds.Add(f.proceeds, c.value())
	f.log.WithFields(logrus.Fields{
		"nonce":    nonce,
		"buyer":    c.Sender.Hex(),
		"quantity": quantity,
	}).Info("Cross-chain purchase recorded")
	return nil
}

// PurchasedTokens returns the purchase recorded under a nonce, if any.
func (f *Farm) PurchasedTokens(nonce uint64) (Purchase, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.purchases[nonce]
	return p, ok
}

// Nonces returns every burned nonce, for delivery tooling.
func (f *Farm) Nonces() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint64, 0, len(f.purchases))
	for n := range f.purchases {
		out = append(out, n)
	}
	return out
}

// ProceedsBalance returns the pooled proceeds not yet withdrawn.
func (f *Farm) ProceedsBalance() *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Sub(f.proceeds, f.withdrawn)
}

// WithdrawProceeds moves up to the un-withdrawn pooled proceeds to any
// address. Operator-only; a zero amount withdraws everything.
func (f *Farm) WithdrawProceeds(c Call, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c.Sender != f.operator {
		return ErrForbidden
	}
	available := new(big.Int).Sub(f.proceeds, f.withdrawn)
	if amount == nil || amount.Sign() == 0 {
		amount = available
	}
	if amount.Cmp(available) > 0 {
		return earnings.ErrInsufficientFunds
	}
	f.withdrawn.Add(f.withdrawn, amount)
	if f.pay != nil && amount.Sign() > 0 {
		return f.pay(to, amount)
	}
	return nil
}
