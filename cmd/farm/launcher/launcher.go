// Package launcher wires the e2farm command line: sale schedule
// inspection, voucher issuing and checking, whitelist tree tooling,
// database migrations and cross-chain delivery listings.
package launcher

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/ndujaLabs/everdragons2-core/flags"
	"github.com/ndujaLabs/everdragons2-core/storage"
)

var app = flags.NewApp()

func init() {
	app.Flags = flags.CommonFlags()
	app.Before = func(ctx *cli.Context) error {
		// .env values fill in what the flags leave unset
		_ = godotenv.Load(ctx.GlobalString("env"))
		return setupLogging(ctx)
	}
	app.Commands = []cli.Command{
		{
			Name:   "schedule",
			Usage:  "Print the price schedule for a sale configuration",
			Flags:  flags.SaleFlags(),
			Action: scheduleCommand,
		},
		{
			Name:  "voucher",
			Usage: "Issue and check claim vouchers",
			Subcommands: []cli.Command{
				{
					Name:   "sign",
					Usage:  "Sign a claim voucher with the validator key",
					Flags:  flags.VoucherFlags(),
					Action: voucherSignCommand,
				},
				{
					Name:   "verify",
					Usage:  "Verify a claim voucher signature",
					Flags:  append(flags.VoucherFlags(), flags.SaleFlags()...),
					Action: voucherVerifyCommand,
				},
			},
		},
		{
			Name:  "merkle",
			Usage: "Whitelist tree tooling",
			Subcommands: []cli.Command{
				{
					Name:   "root",
					Usage:  "Compute the root of a whitelist entries file",
					Flags:  flags.MerkleFlags(),
					Action: merkleRootCommand,
				},
				{
					Name:   "proof",
					Usage:  "Print the proof for one account's entry",
					Flags:  flags.MerkleFlags(),
					Action: merkleProofCommand,
				},
				{
					Name:   "verify",
					Usage:  "Verify a proof against a root",
					Flags:  flags.MerkleFlags(),
					Action: merkleVerifyCommand,
				},
			},
		},
		{
			Name:   "migrate",
			Usage:  "Bring the sale database schema up to date",
			Action: migrateCommand,
		},
		{
			Name:   "deliver",
			Usage:  "List cross-chain purchases awaiting delivery",
			Action: deliverCommand,
		},
	}
}

// Launch runs the CLI.
func Launch(args []string) error {
	return app.Run(args)
}

func migrateCommand(ctx *cli.Context) error {
	store, err := storage.NewSqliteStore(ctx.GlobalString("db"))
	if err != nil {
		return err
	}
	defer store.Close()
	logrus.Info("Database schema is up to date")
	return nil
}

func deliverCommand(ctx *cli.Context) error {
	store, err := storage.NewSqliteStore(ctx.GlobalString("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.UndeliveredPurchases()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(ctx.App.Writer, "no purchases awaiting delivery")
		return nil
	}
	for _, row := range rows {
		fmt.Fprintf(ctx.App.Writer, "nonce %d\tbuyer %s\tquantity %d\n",
			row.Nonce, row.Buyer, row.Quantity)
	}
	return nil
}
