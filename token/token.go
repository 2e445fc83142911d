// Package token models the ERC-721-style ledger the sale engine mints into.
// The engine never embeds the ledger; it holds it as a capability and every
// mutating call is checked against the single authorized manager, so manager
// rotation (farm migrations) leaves no caller with stale permission.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Minter is the capability surface the sale engine depends on. The concrete
// Ledger below implements it; tests may substitute their own.
type Minter interface {
	Mint(caller, to common.Address, ids []uint64) error
	MintBatch(caller common.Address, tos []common.Address, ids []uint64) error
}

// The original contract reported both conditions as one overloaded
// "Minting ended or not allowed" revert. They are distinct failures and are
// kept separate here.
var (
	// ErrForbidden is returned when the caller is not the current manager
	// (or, for admin calls, not the owner).
	ErrForbidden = errors.New("Forbidden")
	// ErrMintingEnded is returned once the terminal flag is set. It is
	// permanent: no manager assignment or mint can follow.
	ErrMintingEnded = errors.New("Minting ended")
	// ErrTokenExists is returned when an id has already been minted.
	ErrTokenExists = errors.New("Token already minted")
	// ErrUnknownToken is returned by OwnerOf for never-minted ids.
	ErrUnknownToken = errors.New("Unknown token")
	// ErrInconsistentLengths is returned by MintBatch when the parallel
	// arrays disagree.
	ErrInconsistentLengths = errors.New("Inconsistent lengths")
	// ErrFrozen is returned when the metadata root can no longer change.
	ErrFrozen = errors.New("Frozen")
)

// Ledger is an append-only ownership record with unique ids. Ownership
// never leaves the ledger once written; there are no burns or transfers
// here because the engine only ever mints.
type Ledger struct {
	mu sync.Mutex

	owner    common.Address
	manager  common.Address
	owners   map[uint64]common.Address
	balances map[common.Address]uint64

	baseURI   string
	uriFrozen bool
	mintEnded bool
}

// NewLedger creates an empty ledger administered by owner.
func NewLedger(owner common.Address) *Ledger {
	return &Ledger{
		owner:    owner,
		owners:   make(map[uint64]common.Address),
		balances: make(map[common.Address]uint64),
	}
}

// Manager returns the currently authorized minter.
func (l *Ledger) Manager() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.manager
}

// SetManager authorizes exactly one sale controller to mint. Reassignment
// is allowed until EndMint: the previous manager loses authority the moment
// the new one is set.
func (l *Ledger) SetManager(caller, manager common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrForbidden
	}
	if l.mintEnded {
		return ErrMintingEnded
	}
	l.manager = manager
	return nil
}

// EndMint sets the terminal flag. One-way.
func (l *Ledger) EndMint(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrForbidden
	}
	l.mintEnded = true
	return nil
}

// MintEnded reports whether the terminal flag is set.
func (l *Ledger) MintEnded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mintEnded
}

func (l *Ledger) authorize(caller common.Address) error {
	if l.mintEnded {
		return ErrMintingEnded
	}
	if l.manager == (common.Address{}) || caller != l.manager {
		return ErrForbidden
	}
	return nil
}

// Mint assigns the given ids to a single recipient. All-or-nothing: if any
// id already exists, nothing is written.
func (l *Ledger) Mint(caller, to common.Address, ids []uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(caller); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := l.owners[id]; ok {
			return ErrTokenExists
		}
	}
	for _, id := range ids {
		l.owners[id] = to
	}
	l.balances[to] += uint64(len(ids))
	return nil
}

// MintBatch mints parallel arrays, one id per recipient.
func (l *Ledger) MintBatch(caller common.Address, tos []common.Address, ids []uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.authorize(caller); err != nil {
		return err
	}
	if len(tos) != len(ids) {
		return ErrInconsistentLengths
	}
	for _, id := range ids {
		if _, ok := l.owners[id]; ok {
			return ErrTokenExists
		}
	}
	for i, id := range ids {
		l.owners[id] = tos[i]
		l.balances[tos[i]]++
	}
	return nil
}

// OwnerOf returns the holder of id.
func (l *Ledger) OwnerOf(id uint64) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.owners[id]
	if !ok {
		return common.Address{}, ErrUnknownToken
	}
	return owner, nil
}

// BalanceOf returns how many tokens an address holds.
func (l *Ledger) BalanceOf(addr common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// TotalSupply returns how many tokens have been minted.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.owners))
}

// UpdateBaseURI replaces the metadata root. Owner only, and only until the
// root is frozen.
func (l *Ledger) UpdateBaseURI(caller common.Address, uri string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrForbidden
	}
	if l.uriFrozen {
		return ErrFrozen
	}
	l.baseURI = uri
	return nil
}

// FreezeBaseURI makes the metadata root permanent. One-way.
func (l *Ledger) FreezeBaseURI(caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrForbidden
	}
	l.uriFrozen = true
	return nil
}

// TokenURI returns the metadata URI of a minted id.
func (l *Ledger) TokenURI(id uint64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.owners[id]; !ok {
		return "", ErrUnknownToken
	}
	return fmt.Sprintf("%s%d", l.baseURI, id), nil
}
