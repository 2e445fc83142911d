package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// SaleFlags covers the sale configuration knobs. The preset picks one of
// the built-in configurations; the remaining flags override single fields.
func SaleFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "preset",
			Usage: "Sale configuration preset (main|test|fake)",
			Value: "main",
		},
		cli.Uint64Flag{
			Name:  "start",
			Usage: "Sale starting timestamp (unix seconds, 0 keeps the preset)",
		},
		cli.StringFlag{
			Name:  "validator",
			Usage: "Validator address authorizing voucher claims",
		},
	}
}

// VoucherFlags covers the voucher issue/verify tooling.
func VoucherFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "Validator private key (hex, sign only)",
		},
		cli.StringFlag{
			Name:  "claimant",
			Usage: "Claimant address the voucher is bound to",
		},
		cli.StringFlag{
			Name:  "ids",
			Usage: "Comma-separated raw token ids",
		},
		cli.UintFlag{
			Name:  "class",
			Usage: "Claim class (1=ethereum, 2=poa, 3=tron)",
			Value: 1,
		},
		cli.Uint64Flag{
			Name:  "chainid",
			Usage: "Chain ID bound into the digest",
			Value: 137,
		},
		cli.StringFlag{
			Name:  "signature",
			Usage: "Signature to verify (hex)",
		},
		cli.StringFlag{
			Name:  "pubkey",
			Usage: "Validator public key (uncompressed hex, alternative to --validator)",
		},
	}
}

// MerkleFlags covers the whitelist tree tooling.
func MerkleFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "entries",
			Usage: "Path to a JSON file of whitelist entries ({address: [ids]})",
		},
		cli.StringFlag{
			Name:  "account",
			Usage: "Account to build or check a proof for",
		},
		cli.StringFlag{
			Name:  "ids",
			Usage: "Comma-separated raw token ids of the entry (verify only)",
		},
		cli.StringFlag{
			Name:  "root",
			Usage: "Tree root to verify against (hex)",
		},
		cli.StringFlag{
			Name:  "proof",
			Usage: "Comma-separated proof hashes (hex)",
		},
	}
}
