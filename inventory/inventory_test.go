package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The layout used by most tests: sale 1..100, then 10 Ethereum, 5 Poa,
// 5 Tron, 10 whitelist, 20 giveaway — ids 1..150 total.
func testLayout() Layout {
	return Layout{
		NextTokenID:       1,
		MaxTokenIDForSale: 100,
		OnEthereum:        10,
		OnPoa:             5,
		OnTron:            5,
		Whitelist:         10,
		Giveaway:          20,
	}
}

func TestLayoutBasesAreCumulative(t *testing.T) {
	require := require.New(t)

	lay := testLayout()
	require.Equal(uint64(100), lay.Base(LaneEthereum))
	require.Equal(uint64(110), lay.Base(LanePoa))
	require.Equal(uint64(115), lay.Base(LaneTron))
	require.Equal(uint64(120), lay.Base(LaneWhitelist))
	require.Equal(uint64(130), lay.Base(LaneGiveaway))
	require.Equal(uint64(150), lay.End())
	require.Equal(uint64(100), lay.Size(LaneSale))
}

func TestIssueNext(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())
	require.Equal(uint64(100), l.Remaining())

	ids, err := l.IssueNext(3)
	require.NoError(err)
	require.Equal([]uint64{1, 2, 3}, ids)
	require.Equal(uint64(4), l.NextTokenID())
	require.Equal(uint64(97), l.Remaining())
}

func TestIssueNextExhaustion(t *testing.T) {
	require := require.New(t)

	lay := testLayout()
	lay.MaxTokenIDForSale = 25
	l := NewLedger(lay)

	// 10 + 9 + 4 = 23 sold, 2 remain.
	for _, q := range []uint64{10, 9, 4} {
		_, err := l.IssueNext(q)
		require.NoError(err)
	}
	require.Equal(uint64(2), l.Remaining())

	_, err := l.IssueNext(3)
	require.ErrorIs(err, ErrNotEnoughTokensLeft)

	ids, err := l.IssueNext(2)
	require.NoError(err)
	require.Equal([]uint64{24, 25}, ids)

	_, err = l.IssueNext(1)
	require.ErrorIs(err, ErrNotEnoughTokensLeft)
}

func TestIssueInLaneTranslatesIds(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())

	ids, err := l.IssueInLane(LaneEthereum, []uint64{4, 7, 1})
	require.NoError(err)
	require.Equal([]uint64{104, 107, 101}, ids)

	ids, err = l.IssueInLane(LanePoa, []uint64{3, 5})
	require.NoError(err)
	require.Equal([]uint64{113, 115}, ids)

	ids, err = l.IssueInLane(LaneTron, []uint64{2, 3, 4, 5})
	require.NoError(err)
	require.Equal([]uint64{117, 118, 119, 120}, ids)
}

func TestIssueInLaneRejectsReplay(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())

	_, err := l.IssueInLane(LaneEthereum, []uint64{4, 7, 1})
	require.NoError(err)

	_, err = l.IssueInLane(LaneEthereum, []uint64{4, 7, 1})
	require.ErrorIs(err, ErrTokenAlreadyMinted)

	// The same raw id on a different lane is a different slot.
	_, err = l.IssueInLane(LanePoa, []uint64{4})
	require.NoError(err)
}

func TestIssueInLaneIsAtomic(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())
	_, err := l.IssueInLane(LaneEthereum, []uint64{7})
	require.NoError(err)

	// 2 is fresh, 7 is consumed: the whole call fails and 2 stays free.
	_, err = l.IssueInLane(LaneEthereum, []uint64{2, 7})
	require.ErrorIs(err, ErrTokenAlreadyMinted)

	ids, err := l.IssueInLane(LaneEthereum, []uint64{2})
	require.NoError(err)
	require.Equal([]uint64{102}, ids)
}

func TestIssueInLaneOutOfRange(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())

	_, err := l.IssueInLane(LaneTron, []uint64{34, 560})
	require.ErrorIs(err, ErrIDOutOfRange)

	_, err = l.IssueInLane(LaneTron, []uint64{0})
	require.ErrorIs(err, ErrIDOutOfRange)

	_, err = l.IssueInLane(LaneSale, []uint64{1})
	require.ErrorIs(err, ErrIDOutOfRange)
}

func TestIssueInLaneRejectsInCallDuplicates(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())
	_, err := l.IssueInLane(LaneEthereum, []uint64{5, 5})
	require.ErrorIs(err, ErrTokenAlreadyMinted)

	// Neither instance was consumed.
	_, err = l.IssueInLane(LaneEthereum, []uint64{5})
	require.NoError(err)
}

func TestIssueGiveaway(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())

	// In-range absolute ids.
	require.NoError(l.IssueGiveaway([]uint64{132, 145}))

	// Sale-range, claim-range and beyond-the-end ids are all rejected.
	require.ErrorIs(l.IssueGiveaway([]uint64{56}), ErrIDOutOfRange)
	require.ErrorIs(l.IssueGiveaway([]uint64{112}), ErrIDOutOfRange)
	require.ErrorIs(l.IssueGiveaway([]uint64{300}), ErrIDOutOfRange)

	// Replay.
	require.ErrorIs(l.IssueGiveaway([]uint64{132}), ErrTokenAlreadyMinted)
}

func TestIssueNextGiveawaySkipsConsumed(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())
	require.NoError(l.IssueGiveaway([]uint64{131, 133}))

	ids, err := l.IssueNextGiveaway(3)
	require.NoError(err)
	require.Equal([]uint64{132, 134, 135}, ids)

	// Exhaustion: lane holds 20, 5 already gone.
	_, err = l.IssueNextGiveaway(16)
	require.ErrorIs(err, ErrNotEnoughTokensLeft)
}

func TestIssueRemainingSweep(t *testing.T) {
	require := require.New(t)

	lay := testLayout()
	lay.MaxTokenIDForSale = 5
	lay.OnEthereum = 3
	lay.OnPoa = 0
	lay.OnTron = 0
	lay.Whitelist = 0
	lay.Giveaway = 2
	// Ids: sale 1..5, Ethereum 6..8, giveaway 9..10.
	l := NewLedger(lay)

	_, err := l.IssueNext(2) // 1, 2 sold
	require.NoError(err)
	_, err = l.IssueInLane(LaneEthereum, []uint64{2}) // 7 claimed
	require.NoError(err)
	require.NoError(l.IssueGiveaway([]uint64{10}))

	// Unconsumed: 3, 4, 5, 6, 8, 9.
	require.Equal([]uint64{3, 4, 5, 6}, l.IssueRemaining(4))
	// The cursor advanced: the next call continues where the last ended.
	require.Equal([]uint64{8, 9}, l.IssueRemaining(10))
	// Exhausted.
	require.Empty(l.IssueRemaining(10))
}

func TestSnapshotRestore(t *testing.T) {
	require := require.New(t)

	l := NewLedger(testLayout())
	_, err := l.IssueNext(7)
	require.NoError(err)
	_, err = l.IssueInLane(LaneEthereum, []uint64{4, 7})
	require.NoError(err)
	require.NoError(l.IssueGiveaway([]uint64{131}))
	l.IssueRemaining(5)

	restored := Restore(testLayout(), l.Snapshot())

	require.Equal(l.NextTokenID(), restored.NextTokenID())
	require.Equal(l.Remaining(), restored.Remaining())

	// Claim records survived.
	_, err = restored.IssueInLane(LaneEthereum, []uint64{4})
	require.ErrorIs(err, ErrTokenAlreadyMinted)
	require.ErrorIs(restored.IssueGiveaway([]uint64{131}), ErrTokenAlreadyMinted)

	// The sweep cursor survived too.
	require.Equal(l.IssueRemaining(3), restored.IssueRemaining(3))
}
