package storage

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/farm"
	"github.com/ndujaLabs/everdragons2-core/token"
)

var (
	farmAddr = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	operator = common.HexToAddress("0x000000000000000000000000000000000000000e")
	buyer    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	member   = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

func openStore(t *testing.T) *SqliteStore {
	s, err := NewSqliteStore(filepath.Join(t.TempDir(), "farm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// configuredFarm builds a farm with some of every kind of state.
func configuredFarm(t *testing.T, beneficiaries []earnings.Beneficiary) *farm.Farm {
	cfg := farm.FakeNetConfig()
	cfg.StartingTimestamp = 1_000_000
	cfg.GraceSeconds = 0

	tok := token.NewLedger(operator)
	require.NoError(t, tok.SetManager(operator, farmAddr))

	f := farm.New(farmAddr, operator, tok, nil)
	require.NoError(t, f.Init(cfg, beneficiaries))

	call := farm.Call{Sender: operator, Now: 1_000_000}
	require.NoError(t, f.AddWalletsToWhitelists(call, []common.Address{member}, 3))
	require.NoError(t, f.AddWinnerWallets(call, []common.Address{member}, []uint64{2}))
	_, err := f.DeliverCrossChainPurchase(call, 9, buyer, 2)
	require.NoError(t, err)

	price, err := f.CurrentPrice(0)
	require.NoError(t, err)
	_, err = f.BuyTokens(farm.Call{
		Sender: buyer,
		Value:  new(big.Int).Mul(price, big.NewInt(2)),
		Now:    1_000_000,
	}, 2)
	require.NoError(t, err)
	return f
}

func TestFarmRoundTrip(t *testing.T) {
	require := require.New(t)
	s := openStore(t)

	f := configuredFarm(t, nil)
	require.NoError(s.SaveFarm(f.Snapshot()))

	snap, ok, err := s.LoadFarm()
	require.NoError(err)
	require.True(ok)

	restored, err := farm.RestoreFarm(farmAddr, operator, nil, nil, snap)
	require.NoError(err)

	require.Equal(f.Phase(), restored.Phase())
	require.Equal(f.Config(), restored.Config())
	require.Equal(uint64(3), restored.WhitelistAllowance(member))
	require.Equal(uint64(3), restored.WinnerAllowance(member))
	require.Equal(0, f.ProceedsBalance().Cmp(restored.ProceedsBalance()))

	// the delivered nonce survives the round trip
	_, err = restored.DeliverCrossChainPurchase(
		farm.Call{Sender: operator, Now: 1_000_000}, 9, buyer, 2)
	require.ErrorIs(err, farm.ErrNonceAlreadyUsed)
}

func TestLoadFarmEmpty(t *testing.T) {
	require := require.New(t)
	s := openStore(t)

	_, ok, err := s.LoadFarm()
	require.NoError(err)
	require.False(ok)
}

func TestSaveFarmReplaces(t *testing.T) {
	require := require.New(t)
	s := openStore(t)

	f := configuredFarm(t, nil)
	require.NoError(s.SaveFarm(f.Snapshot()))

	// claim something more, save again
	call := farm.Call{Sender: member, Now: 1_000_000}
	_, err := f.ClaimWonTokens(call)
	require.NoError(err)
	require.NoError(s.SaveFarm(f.Snapshot()))

	snap, ok, err := s.LoadFarm()
	require.NoError(err)
	require.True(ok)
	require.Equal(uint64(1), snap.Winners[member])
}

func TestEarningsRoundTrip(t *testing.T) {
	require := require.New(t)
	s := openStore(t)

	beneficiaries := []earnings.Beneficiary{
		{Addr: member, ShareBps: 7000},
		{Addr: buyer, ShareBps: 3000},
	}
	f := configuredFarm(t, beneficiaries)
	require.NoError(f.ClaimEarnings(farm.Call{Sender: member}, big.NewInt(1000)))
	require.NoError(s.SaveFarm(f.Snapshot()))

	snap, ok, err := s.LoadFarm()
	require.NoError(err)
	require.True(ok)
	require.Equal(beneficiaries, snap.Beneficiaries)

	restored, err := farm.RestoreFarm(farmAddr, operator, nil, nil, snap)
	require.NoError(err)
	require.Equal(0, f.Withdrawable(member).Cmp(restored.Withdrawable(member)))
	require.Equal(0, f.Withdrawable(buyer).Cmp(restored.Withdrawable(buyer)))
}

func TestInventoryBlobRoundTrip(t *testing.T) {
	require := require.New(t)
	s := openStore(t)

	f := configuredFarm(t, nil)
	// consume giveaway-lane ids so the claim bitmaps are non-trivial
	_, err := f.ClaimWonTokens(farm.Call{Sender: member, Now: 1_000_000})
	require.NoError(err)

	snapBefore := f.Snapshot()
	require.Nil(snapBefore.Earnings)

	require.NoError(s.SaveFarm(snapBefore))
	snap, ok, err := s.LoadFarm()
	require.NoError(err)
	require.True(ok)
	require.Equal(snapBefore.Inventory.NextTokenID, snap.Inventory.NextTokenID)
	require.Equal(snapBefore.Inventory.SweepCursor, snap.Inventory.SweepCursor)
	require.Equal(snapBefore.Inventory.Claimed, snap.Inventory.Claimed)
	require.Equal(snapBefore.Nonces, snap.Nonces)
}

func TestMigrationStateSurvival(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "old.db")

	// simulate a database written by the first schema release
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(err)
	require.NoError(db.AutoMigrate(&schemaMeta{}))
	require.NoError(migrations[0].run(db))
	require.NoError(db.Create(&schemaMeta{ID: 1, Version: 1}).Error)
	require.NoError(db.Create(&FarmState{
		ID:            1,
		SchemaVersion: 1,
		Phase:         1,
		ConfigJSON:    farm.FakeNetConfig().String(),
		MerkleRoot:    common.Hash{}.Hex(),
		Proceeds:      "12345",
		Withdrawn:     "45",
	}).Error)
	require.NoError(db.Create(&WhitelistEntry{Address: member.Hex(), Allowance: 2}).Error)
	sqlDB, err := db.DB()
	require.NoError(err)
	require.NoError(sqlDB.Close())

	// reopening runs the remaining steps
	s, err := NewSqliteStore(path)
	require.NoError(err)
	defer s.Close()

	version, err := SchemaVersion(s.db)
	require.NoError(err)
	require.Equal(CurrentSchemaVersion, version)

	snap, ok, err := s.LoadFarm()
	require.NoError(err)
	require.True(ok)
	require.Equal(farm.Configured, snap.Phase)
	require.Equal("12345", snap.Proceeds.String())
	require.Equal(uint64(2), snap.Whitelist[member])

	// the new tables are usable after the upgrade
	require.NoError(s.RecordPurchase(1, buyer, 2))
}

func TestMigrationIdempotent(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "farm.db")

	s, err := NewSqliteStore(path)
	require.NoError(err)
	require.NoError(s.Close())

	// reopening an up-to-date database runs nothing and changes nothing
	s, err = NewSqliteStore(path)
	require.NoError(err)
	defer s.Close()

	version, err := SchemaVersion(s.db)
	require.NoError(err)
	require.Equal(CurrentSchemaVersion, version)
}

func TestPurchases(t *testing.T) {
	require := require.New(t)
	s := openStore(t)

	require.NoError(s.RecordPurchase(1, buyer, 2))
	require.NoError(s.RecordPurchase(2, member, 1))
	require.ErrorIs(s.RecordPurchase(1, buyer, 2), ErrNonceExists)

	rows, err := s.UndeliveredPurchases()
	require.NoError(err)
	require.Len(rows, 2)
	require.Equal(uint64(1), rows[0].Nonce)
	require.Equal(buyer.Hex(), rows[0].Buyer)

	require.NoError(s.MarkDelivered(1))
	rows, err = s.UndeliveredPurchases()
	require.NoError(err)
	require.Len(rows, 1)
	require.Equal(uint64(2), rows[0].Nonce)

	require.ErrorIs(s.MarkDelivered(99), gorm.ErrRecordNotFound)
}
