package farm

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/ndujaLabs/everdragons2-core/earnings"
	"github.com/ndujaLabs/everdragons2-core/inventory"
	"github.com/ndujaLabs/everdragons2-core/merkle"
	"github.com/ndujaLabs/everdragons2-core/token"
	"github.com/ndujaLabs/everdragons2-core/voucher"
)

// Entry-point failures, surfaced verbatim to callers.
var (
	ErrAlreadyConfigured   = errors.New("Already configured")
	ErrNotConfigured       = errors.New("Not configured yet")
	ErrForbidden           = errors.New("Forbidden")
	ErrInsufficientPayment = errors.New("Insufficient payment")
	ErrNotWhitelisted      = errors.New("Not whitelisted")
	ErrTooManyTokens       = errors.New("You are trying to get too many tokens")
	ErrInconsistentLengths = errors.New("Inconsistent lengths")
	ErrNotWinner           = errors.New("Not a winner")
	ErrTokensAlreadyMinted = errors.New("Tokens already minted")
	ErrNonceAlreadyUsed    = errors.New("Nonce already used")
	ErrClaimingNotEnded    = errors.New("Claiming not ended")
	ErrMintNotEnded        = errors.New("Mint not ended")
	ErrClaimingEnded       = errors.New("Claiming ended")
	ErrMintingEnded        = errors.New("Minting ended")
	ErrRootAlreadySet      = errors.New("Root already set")
	ErrRootNotSet          = errors.New("Root not set")
)

// Phase is the farm's lifecycle stage. Transitions are monotone and
// operator-gated; there are no reverse transitions.
type Phase uint8

const (
	Unconfigured Phase = iota
	Configured
	RootSet
	ClaimingEnded
	MintingEnded
)

func (p Phase) String() string {
	switch p {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case RootSet:
		return "root-set"
	case ClaimingEnded:
		return "claiming-ended"
	case MintingEnded:
		return "minting-ended"
	}
	return "unknown"
}

// Call is the environment of one entry-point invocation: who is calling,
// how much native value they attached, and the current time (unix
// seconds). Entry points never consult an ambient clock or identity.
type Call struct {
	Sender common.Address
	Value  *big.Int
	Now    uint64
}

func (c Call) value() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// Farm is the sale controller. A mutex serializes entry points; within
// each one, all validation precedes all mutation, so an error implies no
// state change.
type Farm struct {
	mu  sync.Mutex
	log *logrus.Entry

	// addr is the farm's own identity, the one authorized as the token
	// ledger's manager.
	addr     common.Address
	operator common.Address
	minter   token.Minter
	pay      earnings.Payout

	phase Phase
	cfg   SaleConfig
	curve PriceCurve
	inv   *inventory.Ledger
	root  common.Hash

	whitelist map[common.Address]uint64
	// winners holds the quantity+1 sentinel: 0 = never registered,
	// 1 = already claimed, n+1 = n tokens claimable.
	winners map[common.Address]uint64
	nonces  map[uint64]bool

	// Revenue. With beneficiaries configured, the splitter owns the
	// accounting; otherwise proceeds pool up and the operator withdraws.
	splitter  *earnings.Splitter
	proceeds  *big.Int
	withdrawn *big.Int
}

// New creates an unconfigured farm. addr is the identity the token ledger
// must authorize as manager; pay is the native-transfer capability used
// for withdrawals.
func New(addr, operator common.Address, minter token.Minter, pay earnings.Payout) *Farm {
	return &Farm{
		log:       logrus.WithField("module", "farm"),
		addr:      addr,
		operator:  operator,
		minter:    minter,
		pay:       pay,
		whitelist: make(map[common.Address]uint64),
		winners:   make(map[common.Address]uint64),
		nonces:    make(map[uint64]bool),
		proceeds:  new(big.Int),
		withdrawn: new(big.Int),
	}
}

// Init configures the farm, a one-way transition. With a non-empty
// beneficiary table the revenue splitter is installed; beneficiary
// validation errors (zero or duplicated addresses, shares not summing to
// 100%) surface unchanged.
func (f *Farm) Init(cfg SaleConfig, beneficiaries []earnings.Beneficiary) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase != Unconfigured {
		return ErrAlreadyConfigured
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var splitter *earnings.Splitter
	if len(beneficiaries) > 0 {
		var err error
		splitter, err = earnings.New(beneficiaries, f.pay)
		if err != nil {
			return err
		}
	}
	f.cfg = cfg.Copy()
	f.curve = NewPriceCurve(f.cfg)
	f.inv = inventory.NewLedger(f.cfg.Layout())
	f.splitter = splitter
	f.phase = Configured
	f.log.WithFields(logrus.Fields{
		"name":    cfg.Name,
		"network": cfg.NetworkID,
		"supply":  f.cfg.Layout().End(),
	}).Info("Sale configured")
	return nil
}

// live fails unless buys and claims are still allowed.
func (f *Farm) live() error {
	switch {
	case f.phase == Unconfigured:
		return ErrNotConfigured
	case f.phase >= MintingEnded:
		return ErrMintingEnded
	case f.phase >= ClaimingEnded:
		return ErrClaimingEnded
	}
	return nil
}

func (f *Farm) operatorOnly(c Call) error {
	if c.Sender != f.operator {
		return ErrForbidden
	}
	return nil
}

// book records incoming payment after all validation has passed.
func (f *Farm) book(amount *big.Int) {
	if f.splitter != nil {
		f.splitter.Book(amount)
		return
	}
	f.proceeds.Add(f.proceeds, amount)
}

// CurrentStep exposes the curve step at now, for callers quoting prices.
func (f *Farm) CurrentStep(now uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Unconfigured {
		return 0, ErrNotConfigured
	}
	return f.curve.CurrentStep(now)
}

// CurrentPrice returns the wei price at a curve step.
func (f *Farm) CurrentPrice(step uint64) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == Unconfigured {
		return nil, ErrNotConfigured
	}
	return f.curve.CurrentPrice(step), nil
}

// BuyTokens sells quantity tokens from the public range at the price the
// curve quotes for c.Now. The attached value must cover price × quantity;
// overpayment is kept as proceeds.
func (f *Farm) BuyTokens(c Call, quantity uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.live(); err != nil {
		return nil, err
	}
	step, err := f.curve.CurrentStep(c.Now)
	if err != nil {
		return nil, err
	}
	cost := new(big.Int).Mul(f.curve.CurrentPrice(step), new(big.Int).SetUint64(quantity))
	if c.value().Cmp(cost) < 0 {
		return nil, ErrInsufficientPayment
	}
	ids, err := f.inv.IssueNext(quantity)
	if err != nil {
		return nil, err
	}
	if err := f.minter.Mint(f.addr, c.Sender, ids); err != nil {
		return nil, err
	}
	f.book(c.value())
	f.log.WithFields(logrus.Fields{
		"buyer": c.Sender.Hex(),
		"ids":   ids,
		"step":  step,
	}).Debug("Public sale")
	return ids, nil
}

// BuyDiscountedTokens sells to a whitelisted wallet at the fixed
// discounted step's price, decrementing the wallet's allowance.
func (f *Farm) BuyDiscountedTokens(c Call, quantity uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.live(); err != nil {
		return nil, err
	}
	if _, err := f.curve.CurrentStep(c.Now); err != nil {
		return nil, err
	}
	allowance := f.whitelist[c.Sender]
	if allowance == 0 {
		return nil, ErrNotWhitelisted
	}
	if quantity > allowance {
		return nil, ErrTooManyTokens
	}
	cost := new(big.Int).Mul(f.curve.DiscountedPrice(), new(big.Int).SetUint64(quantity))
	if c.value().Cmp(cost) < 0 {
		return nil, ErrInsufficientPayment
	}
	ids, err := f.inv.IssueNext(quantity)
	if err != nil {
		return nil, err
	}
	if err := f.minter.Mint(f.addr, c.Sender, ids); err != nil {
		return nil, err
	}
	f.whitelist[c.Sender] = allowance - quantity
	f.book(c.value())
	return ids, nil
}

// AddWalletsToWhitelists registers wallets for the discounted lane. The
// allowance is set, never added: a wallet that already holds an equal or
// greater allowance is left untouched, so re-submitting a list cannot
// inflate anyone's cap.
func (f *Farm) AddWalletsToWhitelists(c Call, wallets []common.Address, allowance uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if f.phase == Unconfigured {
		return ErrNotConfigured
	}
	if allowance > f.cfg.MaxTokensPerWhitelistedWallet {
		return ErrTooManyTokens
	}
	for _, w := range wallets {
		if f.whitelist[w] >= allowance {
			continue
		}
		f.whitelist[w] = allowance
	}
	return nil
}

func laneFor(class voucher.ClaimClass) (inventory.Lane, bool) {
	switch class {
	case voucher.ClassEthereum:
		return inventory.LaneEthereum, true
	case voucher.ClassPoa:
		return inventory.LanePoa, true
	case voucher.ClassTron:
		return inventory.LaneTron, true
	}
	return 0, false
}

// ClaimTokens mints the reserved ids a validator-signed voucher
// authorizes. The ids are raw within the claim class's lane; the minted
// ids are the absolute translations. Replay is impossible because the
// lane's claim record is permanent.
func (f *Farm) ClaimTokens(c Call, ids []uint64, class voucher.ClaimClass, sig []byte) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.live(); err != nil {
		return nil, err
	}
	if _, err := f.curve.CurrentStep(c.Now); err != nil {
		return nil, err
	}
	lane, ok := laneFor(class)
	if !ok {
		return nil, voucher.ErrInvalidSignature
	}
	digest := voucher.EncodeForSignature(c.Sender, ids, class, f.cfg.NetworkID)
	if err := voucher.Verify(digest, sig, f.cfg.Validator); err != nil {
		return nil, err
	}
	abs, err := f.inv.IssueInLane(lane, ids)
	if err != nil {
		return nil, err
	}
	if err := f.minter.Mint(f.addr, c.Sender, abs); err != nil {
		return nil, err
	}
	f.log.WithFields(logrus.Fields{
		"claimant": c.Sender.Hex(),
		"class":    class,
		"ids":      abs,
	}).Debug("Voucher claim")
	return abs, nil
}

// SetMerkleRoot publishes the whitelist claim tree's root, once.
func (f *Farm) SetMerkleRoot(c Call, root common.Hash) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if err := f.live(); err != nil {
		return err
	}
	if f.phase >= RootSet {
		return ErrRootAlreadySet
	}
	f.root = root
	f.phase = RootSet
	f.log.WithField("root", root.Hex()).Info("Merkle root set")
	return nil
}

// claimWhitelisted is the shared body of the Merkle claim variants.
// Caller holds the lock.
func (f *Farm) claimWhitelisted(claimant common.Address, now uint64, ids []uint64, proof []common.Hash) ([]uint64, error) {
	if err := f.live(); err != nil {
		return nil, err
	}
	if _, err := f.curve.CurrentStep(now); err != nil {
		return nil, err
	}
	if f.phase < RootSet {
		return nil, ErrRootNotSet
	}
	leaf := merkle.EncodeLeaf(claimant, ids)
	if err := merkle.Verify(leaf, proof, f.root); err != nil {
		return nil, err
	}
	abs, err := f.inv.IssueInLane(inventory.LaneWhitelist, ids)
	if err != nil {
		return nil, err
	}
	if err := f.minter.Mint(f.addr, claimant, abs); err != nil {
		return nil, err
	}
	return abs, nil
}

// ClaimWhitelistedTokens mints the whitelist-lane ids proven by a Merkle
// proof against the published root.
func (f *Farm) ClaimWhitelistedTokens(c Call, ids []uint64, proof []common.Hash) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimWhitelisted(c.Sender, c.Now, ids, proof)
}

// ClaimWhitelistedTokensFor is the delegated variant: the operator submits
// a claim on a claimant's behalf. The tokens go to the claimant.
func (f *Farm) ClaimWhitelistedTokensFor(c Call, claimant common.Address, ids []uint64, proof []common.Hash) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return nil, err
	}
	return f.claimWhitelisted(claimant, c.Now, ids, proof)
}

// WhitelistClaim is one entry of a batch delegated claim.
type WhitelistClaim struct {
	Claimant common.Address
	Ids      []uint64
	Proof    []common.Hash
}

// BatchClaimWhitelistedTokens processes delegated claims atomically: one
// invalid entry aborts the whole batch and no inventory is consumed.
// Minting happens only after every entry has been issued.
func (f *Farm) BatchClaimWhitelistedTokens(c Call, claims []WhitelistClaim) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if err := f.live(); err != nil {
		return err
	}
	if _, err := f.curve.CurrentStep(c.Now); err != nil {
		return err
	}
	if f.phase < RootSet {
		return ErrRootNotSet
	}

	snap := f.inv.Snapshot()
	minted := make([][]uint64, 0, len(claims))
	for _, cl := range claims {
		leaf := merkle.EncodeLeaf(cl.Claimant, cl.Ids)
		if err := merkle.Verify(leaf, cl.Proof, f.root); err != nil {
			f.inv = inventory.Restore(f.cfg.Layout(), snap)
			return err
		}
		abs, err := f.inv.IssueInLane(inventory.LaneWhitelist, cl.Ids)
		if err != nil {
			f.inv = inventory.Restore(f.cfg.Layout(), snap)
			return err
		}
		minted = append(minted, abs)
	}
	for i, cl := range claims {
		if err := f.minter.Mint(f.addr, cl.Claimant, minted[i]); err != nil {
			return err
		}
	}
	return nil
}

// GiveAwayTokens mints giveaway-lane ids to the given addresses, one id
// per address, bypassing payment and time gating.
func (f *Farm) GiveAwayTokens(c Call, addresses []common.Address, ids []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if err := f.live(); err != nil {
		return err
	}
	if len(addresses) != len(ids) {
		return ErrInconsistentLengths
	}
	if err := f.inv.IssueGiveaway(ids); err != nil {
		return err
	}
	return f.minter.MintBatch(f.addr, addresses, ids)
}

// GiveExtraTokens airdrops quantity tokens per wallet from the giveaway
// lane, auto-selecting the lowest free ids. The push counterpart of
// ClaimWonTokens: all-or-nothing, like the batch whitelist claim.
func (f *Farm) GiveExtraTokens(c Call, wallets []common.Address, quantities []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if err := f.live(); err != nil {
		return err
	}
	if len(wallets) != len(quantities) {
		return ErrInconsistentLengths
	}
	snap := f.inv.Snapshot()
	issued := make([][]uint64, len(wallets))
	for i, q := range quantities {
		ids, err := f.inv.IssueNextGiveaway(q)
		if err != nil {
			f.inv = inventory.Restore(f.cfg.Layout(), snap)
			return err
		}
		issued[i] = ids
	}
	for i, w := range wallets {
		if err := f.minter.Mint(f.addr, w, issued[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddWinnerWallets registers giveaway winners. The stored allowance is
// quantity+1 so that zero means "never registered" and one means "already
// claimed"; a live allowance is never increased by re-registration.
func (f *Farm) AddWinnerWallets(c Call, wallets []common.Address, quantities []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if f.phase == Unconfigured {
		return ErrNotConfigured
	}
	if len(wallets) != len(quantities) {
		return ErrInconsistentLengths
	}
	for i, w := range wallets {
		if f.winners[w] != 0 {
			continue
		}
		f.winners[w] = quantities[i] + 1
	}
	return nil
}

// WinnerAllowance exposes the raw sentinel value for a wallet.
func (f *Farm) WinnerAllowance(wallet common.Address) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.winners[wallet]
}

// ClaimWonTokens mints a registered winner's tokens from the giveaway
// lane, sequentially from the first unclaimed id.
func (f *Farm) ClaimWonTokens(c Call) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.live(); err != nil {
		return nil, err
	}
	switch f.winners[c.Sender] {
	case 0:
		return nil, ErrNotWinner
	case 1:
		return nil, ErrTokensAlreadyMinted
	}
	quantity := f.winners[c.Sender] - 1
	ids, err := f.inv.IssueNextGiveaway(quantity)
	if err != nil {
		return nil, err
	}
	if err := f.minter.Mint(f.addr, c.Sender, ids); err != nil {
		return nil, err
	}
	f.winners[c.Sender] = 1
	return ids, nil
}

// DeliverCrossChainPurchase mints a purchase paid for on the origin chain.
// Operator-only and replay-safe per nonce; no payment is taken here.
func (f *Farm) DeliverCrossChainPurchase(c Call, nonce uint64, buyer common.Address, quantity uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return nil, err
	}
	if err := f.live(); err != nil {
		return nil, err
	}
	if f.nonces[nonce] {
		return nil, ErrNonceAlreadyUsed
	}
	ids, err := f.inv.IssueNext(quantity)
	if err != nil {
		return nil, err
	}
	if err := f.minter.Mint(f.addr, buyer, ids); err != nil {
		return nil, err
	}
	f.nonces[nonce] = true
	f.log.WithFields(logrus.Fields{
		"nonce": nonce,
		"buyer": buyer.Hex(),
		"ids":   ids,
	}).Info("Cross-chain purchase delivered")
	return ids, nil
}

// EndClaiming closes the claim window, a one-way transition enabling the
// remaining-token sweep. Idempotent once closed.
func (f *Farm) EndClaiming(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if f.phase == Unconfigured {
		return ErrNotConfigured
	}
	if f.phase < ClaimingEnded {
		f.phase = ClaimingEnded
	}
	return nil
}

// EndMinting permanently closes the farm. It implies the end of claiming.
func (f *Farm) EndMinting(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if f.phase == Unconfigured {
		return ErrNotConfigured
	}
	f.phase = MintingEnded
	return nil
}

// ClaimRemainingTokens sweeps up to count never-claimed ids to a
// beneficiary once the claim window is closed. The persisted cursor makes
// repeated calls cheap; they never re-scan resolved ids.
func (f *Farm) ClaimRemainingTokens(c Call, to common.Address, count uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return nil, err
	}
	if f.phase < ClaimingEnded {
		return nil, ErrClaimingNotEnded
	}
	ids := f.inv.IssueRemaining(count)
	if len(ids) == 0 {
		return nil, nil
	}
	if err := f.minter.Mint(f.addr, to, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MintUnmintedTokens sweeps up to count unminted ids to the operator after
// minting has been permanently ended.
func (f *Farm) MintUnmintedTokens(c Call, count uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return nil, err
	}
	if f.phase < MintingEnded {
		return nil, ErrMintNotEnded
	}
	ids := f.inv.IssueRemaining(count)
	if len(ids) == 0 {
		return nil, nil
	}
	if err := f.minter.Mint(f.addr, f.operator, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// WithdrawProceeds pays out collected proceeds. Without a revenue
// splitter, the operator may move any un-withdrawn amount to any address;
// with one, the operator triggers a beneficiary's own withdrawal. A zero
// amount withdraws everything available.
func (f *Farm) WithdrawProceeds(c Call, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.operatorOnly(c); err != nil {
		return err
	}
	if f.splitter != nil {
		return f.splitter.Claim(to, amount)
	}
	available := new(big.Int).Sub(f.proceeds, f.withdrawn)
	if amount == nil || amount.Sign() == 0 {
		amount = available
	}
	if amount.Cmp(available) > 0 {
		return earnings.ErrInsufficientFunds
	}
	f.withdrawn.Add(f.withdrawn, amount)
	if f.pay != nil && amount.Sign() > 0 {
		return f.pay(to, amount)
	}
	return nil
}

// ProceedsBalance returns the pooled proceeds not yet withdrawn.
func (f *Farm) ProceedsBalance() *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.splitter != nil {
		return f.splitter.TotalProceeds()
	}
	return new(big.Int).Sub(f.proceeds, f.withdrawn)
}

// ClaimEarnings lets a beneficiary withdraw part of their entitlement.
func (f *Farm) ClaimEarnings(c Call, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.splitter == nil {
		return earnings.ErrUnauthorizedOrDepleted
	}
	return f.splitter.Claim(c.Sender, amount)
}

// ClaimAllEarnings withdraws the caller's full entitlement.
func (f *Farm) ClaimAllEarnings(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.splitter == nil {
		return earnings.ErrUnauthorizedOrDepleted
	}
	return f.splitter.ClaimAll(c.Sender)
}

// Withdrawable exposes a beneficiary's current entitlement.
func (f *Farm) Withdrawable(addr common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.splitter == nil {
		return new(big.Int)
	}
	return f.splitter.Withdrawable(addr)
}

// RotateBeneficiary replaces the caller's beneficiary address, keeping the
// share and its accounting.
func (f *Farm) RotateBeneficiary(c Call, next common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.splitter == nil {
		return earnings.ErrUnauthorizedOrDepleted
	}
	return f.splitter.Rotate(c.Sender, next)
}

// Phase returns the current lifecycle stage.
func (f *Farm) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Config returns a copy of the sale configuration.
func (f *Farm) Config() SaleConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.Copy()
}

// MerkleRoot returns the published root, zero until set.
func (f *Farm) MerkleRoot() common.Hash {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root
}

// WhitelistAllowance returns a wallet's remaining discounted-lane cap.
func (f *Farm) WhitelistAllowance(wallet common.Address) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whitelist[wallet]
}
