// Package storage persists the sale engine's state in sqlite via gorm.
// The engine itself is storage-agnostic: it exposes a snapshot of its
// mutable state and this package maps the snapshot onto relational rows,
// with the claim bitmaps and burned nonces packed into compact binary
// blobs. Schema changes run as explicit versioned migration steps, so a
// database written by an older release is upgraded in place exactly once
// per step.
package storage

import (
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/farm"
)

var (
	// ErrCorrupted is returned when stored state cannot be decoded.
	ErrCorrupted = errors.New("stored state is corrupted")
	// ErrNonceExists rejects a second purchase record under one nonce.
	ErrNonceExists = errors.New("Nonce already used")
)

// Store is the persistence surface the engine and the CLI run against.
type Store interface {
	SaveFarm(snap farm.Snapshot) error
	LoadFarm() (farm.Snapshot, bool, error)
	RecordPurchase(nonce uint64, buyer common.Address, quantity uint64) error
	MarkDelivered(nonce uint64) error
	UndeliveredPurchases() ([]CrossChainPurchase, error)
	Close() error
}

// SqliteStore implements Store over a sqlite file.
type SqliteStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewSqliteStore opens (or creates) the database at path and brings its
// schema up to date.
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := MigrateSchema(db); err != nil {
		return nil, err
	}
	return &SqliteStore{
		db:  db,
		log: logrus.WithField("module", "storage"),
	}, nil
}

// Close releases the underlying connection.
func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveFarm writes the whole engine snapshot in one transaction, replacing
// whatever was stored before.
func (s *SqliteStore) SaveFarm(snap farm.Snapshot) error {
	state := FarmState{
		ID:            1,
		SchemaVersion: CurrentSchemaVersion,
		Phase:         uint8(snap.Phase),
		ConfigJSON:    snap.Config.String(),
		MerkleRoot:    snap.Root.Hex(),
		NextTokenID:   snap.Inventory.NextTokenID,
		SweepCursor:   snap.Inventory.SweepCursor,
		ClaimedBlob:   encodeClaimed(snap.Inventory.Claimed),
		NoncesBlob:    encodeNonces(snap.Nonces),
		Proceeds:      "0",
		Withdrawn:     "0",
	}
	if snap.Proceeds != nil {
		state.Proceeds = snap.Proceeds.String()
	}
	if snap.Withdrawn != nil {
		state.Withdrawn = snap.Withdrawn.String()
	}
	if snap.Earnings != nil {
		state.Proceeds = snap.Earnings.TotalProceeds.String()
		state.Withdrawn = "0"
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&state).Error; err != nil {
			return err
		}

		if err := tx.Where("1 = 1").Delete(&WhitelistEntry{}).Error; err != nil {
			return err
		}
		for addr, allowance := range snap.Whitelist {
			row := WhitelistEntry{Address: addr.Hex(), Allowance: allowance}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("1 = 1").Delete(&WinnerEntry{}).Error; err != nil {
			return err
		}
		for addr, allowance := range snap.Winners {
			row := WinnerEntry{Address: addr.Hex(), Allowance: allowance}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("1 = 1").Delete(&RevenueAccount{}).Error; err != nil {
			return err
		}
		for i, b := range snap.Beneficiaries {
			row := RevenueAccount{
				Address:   b.Addr.Hex(),
				Position:  i,
				ShareBps:  b.ShareBps,
				Withdrawn: "0",
			}
			if snap.Earnings != nil {
				if w, ok := snap.Earnings.Withdrawn[b.Addr]; ok {
					row.Withdrawn = w.String()
				}
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadFarm reads the stored snapshot. The second return is false when the
// database holds no farm yet.
func (s *SqliteStore) LoadFarm() (farm.Snapshot, bool, error) {
	var state FarmState
	err := s.db.First(&state, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return farm.Snapshot{}, false, nil
	}
	if err != nil {
		return farm.Snapshot{}, false, err
	}

	snap := farm.Snapshot{
		Phase:     farm.Phase(state.Phase),
		Root:      common.HexToHash(state.MerkleRoot),
		Whitelist: make(map[common.Address]uint64),
		Winners:   make(map[common.Address]uint64),
	}
	if err := json.Unmarshal([]byte(state.ConfigJSON), &snap.Config); err != nil {
		return farm.Snapshot{}, false, ErrCorrupted
	}

	claimed, err := decodeClaimed(state.ClaimedBlob)
	if err != nil {
		return farm.Snapshot{}, false, ErrCorrupted
	}
	snap.Inventory.NextTokenID = state.NextTokenID
	snap.Inventory.SweepCursor = state.SweepCursor
	snap.Inventory.Claimed = claimed

	snap.Nonces, err = decodeNonces(state.NoncesBlob)
	if err != nil {
		return farm.Snapshot{}, false, ErrCorrupted
	}

	proceeds, ok := new(big.Int).SetString(state.Proceeds, 10)
	if !ok {
		return farm.Snapshot{}, false, ErrCorrupted
	}
	withdrawn, ok := new(big.Int).SetString(state.Withdrawn, 10)
	if !ok {
		return farm.Snapshot{}, false, ErrCorrupted
	}
	snap.Proceeds = proceeds
	snap.Withdrawn = withdrawn

	var wl []WhitelistEntry
	if err := s.db.Find(&wl).Error; err != nil {
		return farm.Snapshot{}, false, err
	}
	for _, row := range wl {
		snap.Whitelist[common.HexToAddress(row.Address)] = row.Allowance
	}

	var winners []WinnerEntry
	if err := s.db.Find(&winners).Error; err != nil {
		return farm.Snapshot{}, false, err
	}
	for _, row := range winners {
		snap.Winners[common.HexToAddress(row.Address)] = row.Allowance
	}

	var accounts []RevenueAccount
	if err := s.db.Order("position").Find(&accounts).Error; err != nil {
		return farm.Snapshot{}, false, err
	}
	if len(accounts) > 0 {
		esnap := earnings.Snapshot{
			TotalProceeds: proceeds,
			Withdrawn:     make(map[common.Address]*big.Int, len(accounts)),
		}
		for _, row := range accounts {
			addr := common.HexToAddress(row.Address)
			snap.Beneficiaries = append(snap.Beneficiaries, earnings.Beneficiary{
				Addr:     addr,
				ShareBps: row.ShareBps,
			})
			w, ok := new(big.Int).SetString(row.Withdrawn, 10)
			if !ok {
				return farm.Snapshot{}, false, ErrCorrupted
			}
			esnap.Withdrawn[addr] = w
		}
		snap.Earnings = &esnap
	}
	return snap, true, nil
}

// RecordPurchase stores an origin-chain purchase, write-once per nonce.
func (s *SqliteStore) RecordPurchase(nonce uint64, buyer common.Address, quantity uint64) error {
	var existing CrossChainPurchase
	err := s.db.First(&existing, nonce).Error
	if err == nil {
		return ErrNonceExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	row := CrossChainPurchase{Nonce: nonce, Buyer: buyer.Hex(), Quantity: quantity}
	return s.db.Create(&row).Error
}

// MarkDelivered flags a recorded purchase as delivered on this chain.
func (s *SqliteStore) MarkDelivered(nonce uint64) error {
	res := s.db.Model(&CrossChainPurchase{}).Where("nonce = ?", nonce).Update("delivered", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UndeliveredPurchases lists purchases still awaiting delivery, in nonce
// order.
func (s *SqliteStore) UndeliveredPurchases() ([]CrossChainPurchase, error) {
	var rows []CrossChainPurchase
	err := s.db.Where("delivered = ?", false).Order("nonce").Find(&rows).Error
	return rows, err
}
