// Package earnings accumulates sale proceeds and splits them between a
// fixed set of beneficiaries. Shares are expressed in basis points and
// never change; what a beneficiary can withdraw is recomputed on demand
// from the lifetime proceeds, so it always reflects every booking even if
// the beneficiary never touched the splitter before.
//
// All arithmetic truncates. The remainder a truncating split leaves behind
// stays in the pool; it is bounded by one smallest unit per beneficiary.
package earnings

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrAddressNull rejects the zero address at setup.
	ErrAddressNull = errors.New("Address null not allowed")
	// ErrAddressRepeated rejects duplicate beneficiary addresses at setup.
	ErrAddressRepeated = errors.New("Address repeated")
	// ErrBadShares rejects share tables that do not sum to 100%.
	ErrBadShares = errors.New("Shares must sum to 10000 basis points")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the
	// caller's entitlement.
	ErrInsufficientFunds = errors.New("Insufficient funds")
	// ErrUnauthorizedOrDepleted is returned by ClaimAll for callers that
	// are not beneficiaries or have nothing left to withdraw.
	ErrUnauthorizedOrDepleted = errors.New("Unauthorized or depleted")
)

// totalBps is the denominator of every share.
const totalBps = 10000

// Payout transfers native value out of the pool. It is injected so the
// splitter never talks to the environment directly; bookkeeping is always
// finalized before it runs.
type Payout func(to common.Address, amount *big.Int) error

// Beneficiary pairs an address with its fixed share.
type Beneficiary struct {
	Addr     common.Address
	ShareBps uint64
}

type account struct {
	addr      common.Address
	shareBps  uint64
	withdrawn *big.Int
}

// Splitter is the revenue pool.
type Splitter struct {
	accounts      []*account
	index         map[common.Address]int
	totalProceeds *big.Int
	pay           Payout
}

// New validates the beneficiary table and creates an empty pool.
func New(beneficiaries []Beneficiary, pay Payout) (*Splitter, error) {
	s := &Splitter{
		index:         make(map[common.Address]int, len(beneficiaries)),
		totalProceeds: new(big.Int),
		pay:           pay,
	}
	var sum uint64
	for _, b := range beneficiaries {
		if b.Addr == (common.Address{}) {
			return nil, ErrAddressNull
		}
		if _, dup := s.index[b.Addr]; dup {
			return nil, ErrAddressRepeated
		}
		s.index[b.Addr] = len(s.accounts)
		s.accounts = append(s.accounts, &account{
			addr:      b.Addr,
			shareBps:  b.ShareBps,
			withdrawn: new(big.Int),
		})
		sum += b.ShareBps
	}
	if sum != totalBps {
		return nil, ErrBadShares
	}
	return s, nil
}

// Book records incoming proceeds. Called by the sale paths after payment
// validation.
func (s *Splitter) Book(amount *big.Int) {
	s.totalProceeds.Add(s.totalProceeds, amount)
}

// TotalProceeds returns the lifetime proceeds received.
func (s *Splitter) TotalProceeds() *big.Int {
	return new(big.Int).Set(s.totalProceeds)
}

// Withdrawn returns the lifetime amount a beneficiary has withdrawn.
func (s *Splitter) Withdrawn(addr common.Address) *big.Int {
	if i, ok := s.index[addr]; ok {
		return new(big.Int).Set(s.accounts[i].withdrawn)
	}
	return new(big.Int)
}

func (s *Splitter) allocated(a *account) *big.Int {
	alloc := new(big.Int).Mul(s.totalProceeds, new(big.Int).SetUint64(a.shareBps))
	return alloc.Div(alloc, big.NewInt(totalBps))
}

// Withdrawable returns what a beneficiary could withdraw right now:
// totalProceeds × share − already withdrawn. Zero for unknown addresses.
func (s *Splitter) Withdrawable(addr common.Address) *big.Int {
	i, ok := s.index[addr]
	if !ok {
		return new(big.Int)
	}
	a := s.accounts[i]
	return new(big.Int).Sub(s.allocated(a), a.withdrawn)
}

// Claim withdraws amount of the beneficiary's entitlement. A zero amount
// withdraws everything available. Bookkeeping is updated before the payout
// capability runs, so a reentrant payout observes the final state.
func (s *Splitter) Claim(addr common.Address, amount *big.Int) error {
	i, ok := s.index[addr]
	if !ok {
		return ErrUnauthorizedOrDepleted
	}
	a := s.accounts[i]
	available := new(big.Int).Sub(s.allocated(a), a.withdrawn)
	if amount == nil || amount.Sign() == 0 {
		amount = available
	}
	if amount.Cmp(available) > 0 {
		return ErrInsufficientFunds
	}
	a.withdrawn.Add(a.withdrawn, amount)
	if s.pay != nil && amount.Sign() > 0 {
		return s.pay(a.addr, amount)
	}
	return nil
}

// ClaimAll withdraws the caller's full entitlement, failing when there is
// nothing to withdraw.
func (s *Splitter) ClaimAll(addr common.Address) error {
	if _, ok := s.index[addr]; !ok {
		return ErrUnauthorizedOrDepleted
	}
	if s.Withdrawable(addr).Sign() == 0 {
		return ErrUnauthorizedOrDepleted
	}
	return s.Claim(addr, nil)
}

// Rotate replaces a beneficiary's address, keeping its share and
// accounting. Only the current holder of the share may rotate it.
func (s *Splitter) Rotate(caller, next common.Address) error {
	i, ok := s.index[caller]
	if !ok {
		return ErrUnauthorizedOrDepleted
	}
	if next == (common.Address{}) {
		return ErrAddressNull
	}
	if _, dup := s.index[next]; dup {
		return ErrAddressRepeated
	}
	delete(s.index, caller)
	s.index[next] = i
	s.accounts[i].addr = next
	return nil
}

// Beneficiaries returns the current address/share table.
func (s *Splitter) Beneficiaries() []Beneficiary {
	out := make([]Beneficiary, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = Beneficiary{Addr: a.addr, ShareBps: a.shareBps}
	}
	return out
}

// Snapshot captures the pool's mutable state for persistence.
type Snapshot struct {
	TotalProceeds *big.Int
	Withdrawn     map[common.Address]*big.Int
}

// Snapshot returns a deep copy of the mutable state.
func (s *Splitter) Snapshot() Snapshot {
	snap := Snapshot{
		TotalProceeds: new(big.Int).Set(s.totalProceeds),
		Withdrawn:     make(map[common.Address]*big.Int, len(s.accounts)),
	}
	for _, a := range s.accounts {
		snap.Withdrawn[a.addr] = new(big.Int).Set(a.withdrawn)
	}
	return snap
}

// Restore applies a snapshot taken over the same beneficiary table.
func (s *Splitter) Restore(snap Snapshot) {
	s.totalProceeds = new(big.Int).Set(snap.TotalProceeds)
	for addr, w := range snap.Withdrawn {
		if i, ok := s.index[addr]; ok {
			s.accounts[i].withdrawn = new(big.Int).Set(w)
		}
	}
}
