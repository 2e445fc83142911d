package storage

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CurrentSchemaVersion is the version this release writes.
const CurrentSchemaVersion uint64 = 3

// migration is one irreversible schema step.
type migration struct {
	version uint64
	name    string
	run     func(db *gorm.DB) error
}

// The steps mirror the releases that shipped them: the base sale schema,
// then the winner/cross-chain additions, then the sweep-cursor and blob
// columns. A step runs at most once; the reached version is recorded in
// the same transaction as the step itself.
var migrations = []migration{
	{
		version: 1,
		name:    "base sale schema",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(&FarmState{}, &WhitelistEntry{}, &RevenueAccount{})
		},
	},
	{
		version: 2,
		name:    "winners and cross-chain purchases",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(&WinnerEntry{}, &CrossChainPurchase{})
		},
	},
	{
		version: 3,
		name:    "sweep cursor and state blobs",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(&FarmState{})
		},
	},
}

// MigrateSchema brings the database schema up to CurrentSchemaVersion,
// running each pending step exactly once.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaMeta{}); err != nil {
		return err
	}
	var meta schemaMeta
	if err := db.FirstOrCreate(&meta, schemaMeta{ID: 1}).Error; err != nil {
		return err
	}

	log := logrus.WithField("module", "storage")
	for _, m := range migrations {
		if meta.Version >= m.version {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.run(tx); err != nil {
				return err
			}
			meta.Version = m.version
			return tx.Save(&meta).Error
		})
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"version": m.version,
			"step":    m.name,
		}).Info("Schema migrated")
	}
	return nil
}

// SchemaVersion reports the version the database has reached.
func SchemaVersion(db *gorm.DB) (uint64, error) {
	var meta schemaMeta
	if err := db.First(&meta, 1).Error; err != nil {
		return 0, err
	}
	return meta.Version, nil
}
