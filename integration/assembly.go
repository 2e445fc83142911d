// Package integration assembles complete sale deployments: the farm
// state machine, the token ledger it mints through, and the sqlite
// store it persists to, wired together the way a real deployment runs
// them. Presets bundle the built-in sale configurations into named
// profiles so operators and tests can spin up a working stack without
// hand-wiring every component.
//
// Usage:
//
//	cfg := integration.FakeStackConfig(dbPath, operator, validator)
//	stack, err := integration.Assemble(cfg, payments.Pay)
//
// Assemble resumes from the database when it holds a configured farm,
// so restarting a deployment picks up where it left off.
package integration

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/farm"
	"github.com/ndujaLabs/everdragons2-core/storage"
	"github.com/ndujaLabs/everdragons2-core/token"
)

// StackConfig captures everything needed to assemble one deployment.
type StackConfig struct {
	DBPath        string         // sqlite file backing the deployment
	FarmAddress   common.Address // identity the token ledger authorizes as manager
	Operator      common.Address
	Sale          farm.SaleConfig
	Beneficiaries []earnings.Beneficiary // empty means pooled proceeds
}

// FakeStackConfig returns a local/testing deployment profile built on the
// fake sale configuration: a tiny id space, a short grace window, and no
// revenue split.
func FakeStackConfig(dbPath string, operator, validator common.Address) StackConfig {
	sale := farm.FakeNetConfig()
	sale.Validator = validator
	return StackConfig{
		DBPath:      dbPath,
		FarmAddress: common.HexToAddress("0xFA12"),
		Operator:    operator,
		Sale:        sale,
	}
}

// TestStackConfig returns the testnet deployment profile.
func TestStackConfig(dbPath string, operator, validator common.Address) StackConfig {
	sale := farm.TestNetConfig()
	sale.Validator = validator
	return StackConfig{
		DBPath:      dbPath,
		FarmAddress: common.HexToAddress("0xFA12"),
		Operator:    operator,
		Sale:        sale,
	}
}

// Stack is an assembled deployment.
type Stack struct {
	Farm   *farm.Farm
	Tokens *token.Ledger
	Store  storage.Store

	log *logrus.Entry
}

// Assemble builds a running stack from the configuration. When the
// database already holds a configured farm the persisted state wins and
// cfg.Sale is ignored; otherwise a fresh farm is initialized and saved.
func Assemble(cfg StackConfig, pay earnings.Payout) (*Stack, error) {
	store, err := storage.NewSqliteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	ledger := token.NewLedger(cfg.Operator)
	if err := ledger.SetManager(cfg.Operator, cfg.FarmAddress); err != nil {
		store.Close()
		return nil, err
	}

	log := logrus.WithField("module", "integration")

	snap, found, err := store.LoadFarm()
	if err != nil {
		store.Close()
		return nil, err
	}
	if found {
		f, err := farm.RestoreFarm(cfg.FarmAddress, cfg.Operator, ledger, pay, snap)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("resuming from %s: %w", cfg.DBPath, err)
		}
		log.WithFields(logrus.Fields{
			"db":    cfg.DBPath,
			"phase": f.Phase().String(),
		}).Info("Resumed sale deployment")
		return &Stack{Farm: f, Tokens: ledger, Store: store, log: log}, nil
	}

	f := farm.New(cfg.FarmAddress, cfg.Operator, ledger, pay)
	if err := f.Init(cfg.Sale, cfg.Beneficiaries); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.SaveFarm(f.Snapshot()); err != nil {
		store.Close()
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"db":   cfg.DBPath,
		"sale": cfg.Sale.Name,
	}).Info("Initialized sale deployment")
	return &Stack{Farm: f, Tokens: ledger, Store: store, log: log}, nil
}

// Persist writes the farm's current state to the store.
func (s *Stack) Persist() error {
	return s.Store.SaveFarm(s.Farm.Snapshot())
}

// Close persists and releases the store.
func (s *Stack) Close() error {
	if err := s.Persist(); err != nil {
		s.Store.Close()
		return err
	}
	return s.Store.Close()
}

// PaymentLog is an earnings.Payout capability that records transfers
// instead of moving native value. Deployments embed it in tests and
// dry runs to observe where withdrawals would go.
type PaymentLog struct {
	mu   sync.Mutex
	sent map[common.Address]*big.Int
}

func NewPaymentLog() *PaymentLog {
	return &PaymentLog{sent: make(map[common.Address]*big.Int)}
}

// Pay records the transfer. It never fails.
func (l *PaymentLog) Pay(to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	total, ok := l.sent[to]
	if !ok {
		total = new(big.Int)
		l.sent[to] = total
	}
	total.Add(total, amount)
	return nil
}

// Sent returns the total recorded for one recipient.
func (l *PaymentLog) Sent(to common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if total, ok := l.sent[to]; ok {
		return new(big.Int).Set(total)
	}
	return new(big.Int)
}
