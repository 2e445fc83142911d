package token

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	farm1    = common.HexToAddress("0x0000000000000000000000000000000000000010")
	farm2    = common.HexToAddress("0x0000000000000000000000000000000000000020")
	buyer    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

func TestMintRequiresManager(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)

	// No manager assigned yet.
	require.ErrorIs(l.Mint(farm1, buyer, []uint64{1}), ErrForbidden)

	require.NoError(l.SetManager(owner, farm1))
	require.NoError(l.Mint(farm1, buyer, []uint64{1, 2, 3}))
	require.Equal(uint64(3), l.BalanceOf(buyer))
	require.Equal(uint64(3), l.TotalSupply())

	got, err := l.OwnerOf(2)
	require.NoError(err)
	require.Equal(buyer, got)

	require.ErrorIs(l.Mint(stranger, buyer, []uint64{4}), ErrForbidden)
}

func TestSetManagerIsOwnerOnly(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.ErrorIs(l.SetManager(stranger, farm1), ErrForbidden)
	require.NoError(l.SetManager(owner, farm1))
	require.Equal(farm1, l.Manager())
}

func TestManagerRotationRevokesOldManager(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.NoError(l.SetManager(owner, farm1))
	require.NoError(l.Mint(farm1, buyer, []uint64{1}))

	require.NoError(l.SetManager(owner, farm2))

	// Old manager's calls fail with a well-defined error.
	require.ErrorIs(l.Mint(farm1, buyer, []uint64{2}), ErrForbidden)
	require.NoError(l.Mint(farm2, buyer, []uint64{2}))
}

func TestEndMintIsTerminal(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.NoError(l.SetManager(owner, farm1))
	require.NoError(l.Mint(farm1, buyer, []uint64{1}))

	require.ErrorIs(l.EndMint(stranger), ErrForbidden)
	require.NoError(l.EndMint(owner))
	require.True(l.MintEnded())

	// After the terminal flag, both minting and manager assignment fail,
	// each with its own error.
	require.ErrorIs(l.Mint(farm1, buyer, []uint64{2}), ErrMintingEnded)
	require.ErrorIs(l.SetManager(owner, farm2), ErrMintingEnded)
	require.Equal(uint64(1), l.TotalSupply())
}

func TestMintRejectsDuplicateIdsAtomically(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.NoError(l.SetManager(owner, farm1))
	require.NoError(l.Mint(farm1, buyer, []uint64{10, 11}))

	// 12 is fresh but 11 is taken: nothing must be written.
	require.ErrorIs(l.Mint(farm1, stranger, []uint64{12, 11}), ErrTokenExists)
	require.Equal(uint64(0), l.BalanceOf(stranger))
	_, err := l.OwnerOf(12)
	require.ErrorIs(err, ErrUnknownToken)
}

func TestMintBatch(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.NoError(l.SetManager(owner, farm1))

	require.ErrorIs(
		l.MintBatch(farm1, []common.Address{buyer, stranger}, []uint64{130}),
		ErrInconsistentLengths)

	require.NoError(l.MintBatch(farm1, []common.Address{buyer, stranger}, []uint64{122, 135}))
	require.Equal(uint64(1), l.BalanceOf(buyer))
	require.Equal(uint64(1), l.BalanceOf(stranger))

	got, err := l.OwnerOf(135)
	require.NoError(err)
	require.Equal(stranger, got)
}

func TestBaseURIFreeze(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.NoError(l.SetManager(owner, farm1))
	require.NoError(l.Mint(farm1, buyer, []uint64{1}))

	require.ErrorIs(l.UpdateBaseURI(stranger, "ipfs://x/"), ErrForbidden)
	require.NoError(l.UpdateBaseURI(owner, "ipfs://meta/"))

	uri, err := l.TokenURI(1)
	require.NoError(err)
	require.Equal("ipfs://meta/1", uri)

	_, err = l.TokenURI(2)
	require.ErrorIs(err, ErrUnknownToken)

	require.ErrorIs(l.FreezeBaseURI(stranger), ErrForbidden)
	require.NoError(l.FreezeBaseURI(owner))
	require.ErrorIs(l.UpdateBaseURI(owner, "ipfs://other/"), ErrFrozen)
}

func TestConcurrentMintsAndAdmin(t *testing.T) {
	require := require.New(t)

	l := NewLedger(owner)
	require.NoError(l.SetManager(owner, farm1))

	// Farm-driven mints race owner-side metadata updates; run with -race.
	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for g := 0; g < 4; g++ {
		g := g
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				id := uint64(g*25 + i + 1)
				if err := l.Mint(farm1, buyer, []uint64{id}); err != nil {
					errs <- err
				}
			}
		}()
		go func() {
			defer wg.Done()
			_ = l.UpdateBaseURI(owner, "ipfs://meta/")
			_ = l.TotalSupply()
			_, _ = l.TokenURI(1)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}

	require.Equal(uint64(100), l.TotalSupply())
	require.Equal(uint64(100), l.BalanceOf(buyer))
}
