package storage

// FarmState is the singleton engine record: lifecycle phase, configuration,
// cursors and the claim bitmaps, plus the pooled-proceeds accounting. Big
// integers are stored as decimal strings, hashes as hex.
type FarmState struct {
	ID            uint   `gorm:"primaryKey"`
	SchemaVersion uint64 `gorm:"not null"`
	Phase         uint8  `gorm:"not null"`
	ConfigJSON    string `gorm:"not null"`
	MerkleRoot    string `gorm:"not null"`
	NextTokenID   uint64 `gorm:"default:0"`
	SweepCursor   uint64 `gorm:"default:0"`
	ClaimedBlob   []byte
	NoncesBlob    []byte
	Proceeds      string `gorm:"not null"`
	Withdrawn     string `gorm:"not null"`
}

// WhitelistEntry is a wallet's remaining discounted-lane allowance.
type WhitelistEntry struct {
	Address   string `gorm:"primaryKey"`
	Allowance uint64 `gorm:"not null"`
}

// WinnerEntry is a giveaway winner's allowance, stored with the same
// quantity+1 sentinel the engine uses in memory.
type WinnerEntry struct {
	Address   string `gorm:"primaryKey"`
	Allowance uint64 `gorm:"not null"`
}

// RevenueAccount is one beneficiary of the revenue splitter.
type RevenueAccount struct {
	Address   string `gorm:"primaryKey"`
	Position  int    `gorm:"not null"`
	ShareBps  uint64 `gorm:"not null"`
	Withdrawn string `gorm:"not null"`
}

// CrossChainPurchase is a purchase recorded on the origin chain, awaiting
// delivery on this one. Nonces are write-once.
type CrossChainPurchase struct {
	Nonce     uint64 `gorm:"primaryKey"`
	Buyer     string `gorm:"not null"`
	Quantity  uint64 `gorm:"not null"`
	Delivered bool   `gorm:"default:false"`
}

// schemaMeta tracks which migration steps have run.
type schemaMeta struct {
	ID      uint `gorm:"primaryKey"`
	Version uint64
}
