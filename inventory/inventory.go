// Package inventory tracks the numbered token slots of one sale: who can
// still be issued what. The id space is split into disjoint lanes laid out
// contiguously — the public sale range first, then one reserved range per
// claim class, then the whitelist range, then the giveaway range. Lane
// bounds are derived from cumulative offsets, never stored redundantly, so
// the ranges cannot overlap by construction.
//
// The public sale lane issues sequentially from a cursor; claim lanes issue
// by explicit raw id, with a per-lane bitset recording consumption forever.
// No id is ever issued twice and no lane is ever over-issued.
package inventory

import (
	"errors"

	"github.com/ndujaLabs/everdragons2-core/utils/bitset"
)

var (
	// ErrNotEnoughTokensLeft is returned when the sale lane cannot cover a
	// requested quantity.
	ErrNotEnoughTokensLeft = errors.New("Not enough tokens left")
	// ErrIDOutOfRange is returned for ids outside the addressed lane.
	ErrIDOutOfRange = errors.New("Id out of range")
	// ErrTokenAlreadyMinted is returned when a claim-lane id was consumed
	// before. Claim records are permanent; this never resets.
	ErrTokenAlreadyMinted = errors.New("Token already minted")
)

// Lane identifies one disjoint id range.
type Lane uint8

const (
	// LaneSale is the publicly sellable range.
	LaneSale Lane = iota
	// LaneEthereum, LanePoa, LaneTron are the per-chain claim ranges.
	LaneEthereum
	LanePoa
	LaneTron
	// LaneWhitelist is the Merkle-proof claim range.
	LaneWhitelist
	// LaneGiveaway is the operator giveaway range.
	LaneGiveaway

	laneCount
)

// Layout fixes the size of every lane. The sale lane spans
// [NextTokenID .. MaxTokenIDForSale]; each following lane spans the next
// Size ids. Ids inside claim lanes are addressed by raw id 1..Size and
// translated to absolute ids by adding the lane base.
type Layout struct {
	NextTokenID      uint64 // first sellable id, normally 1
	MaxTokenIDForSale uint64
	OnEthereum       uint64
	OnPoa            uint64
	OnTron           uint64
	Whitelist        uint64
	Giveaway         uint64
}

// Base returns the id immediately before the lane's first id, so that
// absolute = Base + raw for raw in 1..Size.
func (lay Layout) Base(lane Lane) uint64 {
	base := lay.MaxTokenIDForSale
	for l := LaneEthereum; l <= LaneGiveaway; l++ {
		if l == lane {
			return base
		}
		base += lay.Size(l)
	}
	return base
}

// Size returns how many ids the lane holds.
func (lay Layout) Size(lane Lane) uint64 {
	switch lane {
	case LaneSale:
		return lay.MaxTokenIDForSale - lay.NextTokenID + 1
	case LaneEthereum:
		return lay.OnEthereum
	case LanePoa:
		return lay.OnPoa
	case LaneTron:
		return lay.OnTron
	case LaneWhitelist:
		return lay.Whitelist
	case LaneGiveaway:
		return lay.Giveaway
	default:
		return 0
	}
}

// End returns the last id of the whole layout.
func (lay Layout) End() uint64 {
	return lay.Base(LaneGiveaway) + lay.Giveaway
}

// Ledger is the mutable issuance state over a fixed Layout.
type Ledger struct {
	layout Layout

	nextTokenID uint64 // sale cursor: the next unsold id
	claimed     [laneCount]*bitset.Set
	sweepCursor uint64 // next absolute id the sweep path will examine
}

// NewLedger creates a fresh ledger over the layout.
func NewLedger(layout Layout) *Ledger {
	l := &Ledger{
		layout:      layout,
		nextTokenID: layout.NextTokenID,
		sweepCursor: layout.NextTokenID,
	}
	for lane := LaneEthereum; lane <= LaneGiveaway; lane++ {
		l.claimed[lane] = bitset.New(layout.Size(lane) + 1)
	}
	return l
}

// Layout returns the immutable lane layout.
func (l *Ledger) Layout() Layout {
	return l.layout
}

// NextTokenID returns the sale cursor.
func (l *Ledger) NextTokenID() uint64 {
	return l.nextTokenID
}

// Remaining returns how many sale-lane ids are still unsold.
func (l *Ledger) Remaining() uint64 {
	if l.nextTokenID > l.layout.MaxTokenIDForSale {
		return 0
	}
	return l.layout.MaxTokenIDForSale - l.nextTokenID + 1
}

// IssueNext reserves the next quantity contiguous sale-lane ids and
// advances the cursor. The caller is responsible for collecting payment in
// the same entry point, before calling here.
func (l *Ledger) IssueNext(quantity uint64) ([]uint64, error) {
	if quantity == 0 || l.Remaining() < quantity {
		return nil, ErrNotEnoughTokensLeft
	}
	ids := make([]uint64, quantity)
	for i := range ids {
		ids[i] = l.nextTokenID + uint64(i)
	}
	l.nextTokenID += quantity
	return ids, nil
}

// IssueInLane consumes the given raw ids of a claim lane and returns their
// absolute ids. All-or-nothing: every id is validated against the lane
// bounds and the claim records before any bit is set, so a partial failure
// leaves no trace.
func (l *Ledger) IssueInLane(lane Lane, rawIds []uint64) ([]uint64, error) {
	if lane == LaneSale || lane >= laneCount {
		return nil, ErrIDOutOfRange
	}
	size := l.layout.Size(lane)
	set := l.claimed[lane]
	seen := make(map[uint64]struct{}, len(rawIds))
	for _, raw := range rawIds {
		if raw == 0 || raw > size {
			return nil, ErrIDOutOfRange
		}
		if _, dup := seen[raw]; dup {
			return nil, ErrTokenAlreadyMinted
		}
		seen[raw] = struct{}{}
		if set.Test(raw) {
			return nil, ErrTokenAlreadyMinted
		}
	}
	base := l.layout.Base(lane)
	ids := make([]uint64, len(rawIds))
	for i, raw := range rawIds {
		set.Set(raw)
		ids[i] = base + raw
	}
	return ids, nil
}

// IssueGiveaway consumes explicit absolute ids of the giveaway lane.
func (l *Ledger) IssueGiveaway(ids []uint64) error {
	base := l.layout.Base(LaneGiveaway)
	set := l.claimed[LaneGiveaway]
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id <= base || id > base+l.layout.Giveaway {
			return ErrIDOutOfRange
		}
		if _, dup := seen[id]; dup {
			return ErrTokenAlreadyMinted
		}
		seen[id] = struct{}{}
		if set.Test(id - base) {
			return ErrTokenAlreadyMinted
		}
	}
	for _, id := range ids {
		set.Set(id - base)
	}
	return nil
}

// IssueNextGiveaway consumes the quantity lowest free giveaway-lane ids,
// used by the winner claim path where ids are not chosen by the caller.
func (l *Ledger) IssueNextGiveaway(quantity uint64) ([]uint64, error) {
	set := l.claimed[LaneGiveaway]
	base := l.layout.Base(LaneGiveaway)

	ids := make([]uint64, 0, quantity)
	raw := uint64(1)
	for uint64(len(ids)) < quantity {
		raw = set.NextClear(raw)
		if raw > l.layout.Giveaway {
			return nil, ErrNotEnoughTokensLeft
		}
		ids = append(ids, base+raw)
		raw++
	}
	for _, id := range ids {
		set.Set(id - base)
	}
	return ids, nil
}

// IssueRemaining sweeps forward from the persisted cursor, skipping every
// id already sold or claimed, and returns up to count fresh ids. The cursor
// advances past whatever was scanned, so repeated calls never re-examine
// resolved ids. Only meaningful once the sale and claim windows are closed;
// the farm enforces that gating.
func (l *Ledger) IssueRemaining(count uint64) []uint64 {
	ids := make([]uint64, 0, count)
	for uint64(len(ids)) < count && l.sweepCursor <= l.layout.End() {
		id := l.sweepCursor
		l.sweepCursor++
		if l.consumed(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// consumed reports whether an absolute id has been issued through any lane.
func (l *Ledger) consumed(id uint64) bool {
	if id < l.layout.NextTokenID {
		return true
	}
	if id <= l.layout.MaxTokenIDForSale {
		return id < l.nextTokenID
	}
	for lane := LaneEthereum; lane <= LaneGiveaway; lane++ {
		base := l.layout.Base(lane)
		if id > base && id <= base+l.layout.Size(lane) {
			return l.claimed[lane].Test(id - base)
		}
	}
	return true
}

// Snapshot captures the ledger's mutable state for persistence.
type Snapshot struct {
	NextTokenID uint64
	SweepCursor uint64
	Claimed     map[Lane][]uint64 // raw bitset words per lane
}

// Snapshot returns a deep copy of the mutable state.
func (l *Ledger) Snapshot() Snapshot {
	snap := Snapshot{
		NextTokenID: l.nextTokenID,
		SweepCursor: l.sweepCursor,
		Claimed:     make(map[Lane][]uint64, laneCount-1),
	}
	for lane := LaneEthereum; lane <= LaneGiveaway; lane++ {
		snap.Claimed[lane] = l.claimed[lane].Copy().Words()
	}
	return snap
}

// Restore rebuilds a ledger from a snapshot taken over the same layout.
func Restore(layout Layout, snap Snapshot) *Ledger {
	l := NewLedger(layout)
	l.nextTokenID = snap.NextTokenID
	l.sweepCursor = snap.SweepCursor
	for lane, words := range snap.Claimed {
		l.claimed[lane] = bitset.FromWords(words)
	}
	return l
}
