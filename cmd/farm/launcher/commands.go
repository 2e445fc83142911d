package launcher

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/ndujaLabs/everdragons2-core/farm"
	"github.com/ndujaLabs/everdragons2-core/merkle"
	"github.com/ndujaLabs/everdragons2-core/voucher"
)

func scheduleCommand(ctx *cli.Context) error {
	cfg, err := saleConfig(ctx)
	if err != nil {
		return err
	}
	curve := farm.NewPriceCurve(cfg)

	w := ctx.App.Writer
	fmt.Fprintf(w, "sale %q starts at %d, %d steps of %d minutes\n",
		cfg.Name, cfg.StartingTimestamp, cfg.NumberOfSteps, cfg.MinutesBetweenDecrements)
	for step := uint64(0); step < cfg.NumberOfSteps; step++ {
		at := cfg.StartingTimestamp + step*cfg.MinutesBetweenDecrements*60
		fmt.Fprintf(w, "step %2d\tfrom %d\t%d units\t%s wei\n",
			step, at, curve.PriceInUnits(step), curve.CurrentPrice(step))
	}
	fmt.Fprintf(w, "discounted lane\t%s wei (step %d)\n",
		curve.DiscountedPrice(), cfg.DiscountedStep)
	return nil
}

func voucherDigest(ctx *cli.Context) (common.Hash, error) {
	claimant, err := parseAddress(ctx, "claimant")
	if err != nil {
		return common.Hash{}, err
	}
	ids, err := parseIds(ctx.String("ids"))
	if err != nil {
		return common.Hash{}, err
	}
	class := voucher.ClaimClass(ctx.Uint("class"))
	return voucher.EncodeForSignature(claimant, ids, class, ctx.Uint64("chainid")), nil
}

func voucherSignCommand(ctx *cli.Context) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(ctx.String("key"), "0x"))
	if err != nil {
		return fmt.Errorf("invalid --key: %w", err)
	}
	digest, err := voucherDigest(ctx)
	if err != nil {
		return err
	}
	sig, err := voucher.Sign(digest, key)
	if err != nil {
		return err
	}
	pub, err := voucher.KeyFromBytes(crypto.FromECDSAPub(&key.PublicKey))
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "validator %s\npubkey %s\ndigest %s\nsignature %s\n",
		crypto.PubkeyToAddress(key.PublicKey), pub.String(), digest, hexutil.Encode(sig))
	return nil
}

func voucherVerifyCommand(ctx *cli.Context) error {
	validator, err := validatorAddress(ctx)
	if err != nil {
		return err
	}
	sig, err := hexutil.Decode(ctx.String("signature"))
	if err != nil {
		return fmt.Errorf("invalid --signature: %w", err)
	}
	digest, err := voucherDigest(ctx)
	if err != nil {
		return err
	}
	if err := voucher.Verify(digest, sig, validator); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "signature valid")
	return nil
}

// validatorAddress resolves the signer to verify against, from the full
// public key when given, otherwise from the plain address flag.
func validatorAddress(ctx *cli.Context) (common.Address, error) {
	if s := ctx.String("pubkey"); s != "" {
		key, err := voucher.KeyFromString(s)
		if err != nil {
			return common.Address{}, fmt.Errorf("invalid --pubkey: %w", err)
		}
		return key.Address()
	}
	return parseAddress(ctx, "validator")
}

// loadEntries reads a whitelist entries file mapping address to raw ids.
func loadEntries(path string) ([]merkle.Entry, error) {
	if path == "" {
		return nil, fmt.Errorf("no entries file given")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var byAddr map[string][]uint64
	if err := json.Unmarshal(raw, &byAddr); err != nil {
		return nil, fmt.Errorf("malformed entries file: %w", err)
	}
	entries := make([]merkle.Entry, 0, len(byAddr))
	for addr, ids := range byAddr {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid address %q in entries file", addr)
		}
		entries = append(entries, merkle.Entry{
			Account: common.HexToAddress(addr),
			Ids:     ids,
		})
	}
	// map iteration order is random, keep the file deterministic
	sort.Slice(entries, func(i, j int) bool {
		return strings.Compare(entries[i].Account.Hex(), entries[j].Account.Hex()) < 0
	})
	return entries, nil
}

func merkleRootCommand(ctx *cli.Context) error {
	entries, err := loadEntries(ctx.String("entries"))
	if err != nil {
		return err
	}
	tree := merkle.BuildTree(entries)
	fmt.Fprintf(ctx.App.Writer, "%d entries\nroot %s\n", len(entries), tree.Root())
	return nil
}

func merkleProofCommand(ctx *cli.Context) error {
	entries, err := loadEntries(ctx.String("entries"))
	if err != nil {
		return err
	}
	account, err := parseAddress(ctx, "account")
	if err != nil {
		return err
	}
	var ids []uint64
	for _, e := range entries {
		if e.Account == account {
			ids = e.Ids
		}
	}
	tree := merkle.BuildTree(entries)
	proof, err := tree.Proof(account, ids)
	if err != nil {
		return err
	}
	hexes := make([]string, len(proof))
	for i, h := range proof {
		hexes[i] = h.Hex()
	}
	fmt.Fprintf(ctx.App.Writer, "root %s\nproof %s\n",
		tree.Root(), strings.Join(hexes, ","))
	return nil
}

func merkleVerifyCommand(ctx *cli.Context) error {
	account, err := parseAddress(ctx, "account")
	if err != nil {
		return err
	}
	ids, err := parseIds(ctx.String("ids"))
	if err != nil {
		return err
	}
	root := common.HexToHash(ctx.String("root"))
	var proof []common.Hash
	if s := ctx.String("proof"); s != "" {
		for _, p := range strings.Split(s, ",") {
			proof = append(proof, common.HexToHash(strings.TrimSpace(p)))
		}
	}
	leaf := merkle.EncodeLeaf(account, ids)
	if err := merkle.Verify(leaf, proof, root); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, "proof valid")
	return nil
}
