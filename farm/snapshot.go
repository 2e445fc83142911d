package farm

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/inventory"
	"github.com/ndujaLabs/everdragons2-core/token"
)

// Snapshot is the farm's complete mutable state, detached from the
// capabilities (minter, payout) it runs against. The storage layer
// persists and reloads it; a restored farm continues exactly where the
// snapshot was taken.
type Snapshot struct {
	Phase         Phase
	Config        SaleConfig
	Root          common.Hash
	Whitelist     map[common.Address]uint64
	Winners       map[common.Address]uint64
	Nonces        []uint64
	Inventory     inventory.Snapshot
	Beneficiaries []earnings.Beneficiary
	Earnings      *earnings.Snapshot
	Proceeds      *big.Int
	Withdrawn     *big.Int
}

// Snapshot returns a deep copy of the farm's state. Zero value for an
// unconfigured farm.
func (f *Farm) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{
		Phase:     f.phase,
		Config:    f.cfg.Copy(),
		Root:      f.root,
		Whitelist: make(map[common.Address]uint64, len(f.whitelist)),
		Winners:   make(map[common.Address]uint64, len(f.winners)),
		Proceeds:  new(big.Int).Set(f.proceeds),
		Withdrawn: new(big.Int).Set(f.withdrawn),
	}
	for w, a := range f.whitelist {
		snap.Whitelist[w] = a
	}
	for w, a := range f.winners {
		snap.Winners[w] = a
	}
	for n := range f.nonces {
		snap.Nonces = append(snap.Nonces, n)
	}
	sort.Slice(snap.Nonces, func(i, j int) bool { return snap.Nonces[i] < snap.Nonces[j] })
	if f.inv != nil {
		snap.Inventory = f.inv.Snapshot()
	}
	if f.splitter != nil {
		snap.Beneficiaries = f.splitter.Beneficiaries()
		e := f.splitter.Snapshot()
		snap.Earnings = &e
	}
	return snap
}

// RestoreFarm rebuilds a farm from a snapshot, reattaching the runtime
// capabilities. The snapshot must come from a configured farm.
func RestoreFarm(addr, operator common.Address, minter token.Minter, pay earnings.Payout, snap Snapshot) (*Farm, error) {
	f := New(addr, operator, minter, pay)
	if snap.Phase == Unconfigured {
		return f, nil
	}
	if err := snap.Config.Validate(); err != nil {
		return nil, err
	}
	f.cfg = snap.Config.Copy()
	f.curve = NewPriceCurve(f.cfg)
	f.phase = snap.Phase
	f.root = snap.Root
	for w, a := range snap.Whitelist {
		f.whitelist[w] = a
	}
	for w, a := range snap.Winners {
		f.winners[w] = a
	}
	for _, n := range snap.Nonces {
		f.nonces[n] = true
	}
	f.inv = inventory.Restore(f.cfg.Layout(), snap.Inventory)
	if len(snap.Beneficiaries) > 0 {
		splitter, err := earnings.New(snap.Beneficiaries, pay)
		if err != nil {
			return nil, err
		}
		if snap.Earnings != nil {
			splitter.Restore(*snap.Earnings)
		}
		f.splitter = splitter
	}
	if snap.Proceeds != nil {
		f.proceeds = new(big.Int).Set(snap.Proceeds)
	}
	if snap.Withdrawn != nil {
		f.withdrawn = new(big.Int).Set(snap.Withdrawn)
	}
	return f, nil
}
