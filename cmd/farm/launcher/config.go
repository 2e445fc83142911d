package launcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/ndujaLabs/everdragons2-core/farm"
)

var verbosityLevels = []logrus.Level{
	logrus.FatalLevel,
	logrus.ErrorLevel,
	logrus.WarnLevel,
	logrus.InfoLevel,
	logrus.DebugLevel,
	logrus.TraceLevel,
}

func setupLogging(ctx *cli.Context) error {
	v := ctx.GlobalInt("log.verbosity")
	if v < 0 || v >= len(verbosityLevels) {
		return fmt.Errorf("invalid log verbosity %d", v)
	}
	logrus.SetLevel(verbosityLevels[v])

	switch ctx.GlobalString("log.format") {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors: ctx.GlobalBool("log.color"),
		})
	default:
		return fmt.Errorf("unknown log format %q", ctx.GlobalString("log.format"))
	}

	if dsn := ctx.GlobalString("sentry.dsn"); dsn != "" {
		hook, err := logrus_sentry.NewSentryHook(dsn, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return err
		}
		logrus.AddHook(hook)
	}
	return nil
}

// saleConfig assembles a configuration from the preset plus overrides.
func saleConfig(ctx *cli.Context) (farm.SaleConfig, error) {
	var cfg farm.SaleConfig
	switch preset := ctx.String("preset"); preset {
	case "main":
		cfg = farm.MainNetConfig()
	case "test":
		cfg = farm.TestNetConfig()
	case "fake":
		cfg = farm.FakeNetConfig()
	default:
		return cfg, fmt.Errorf("unknown preset %q", preset)
	}
	if start := ctx.Uint64("start"); start != 0 {
		cfg.StartingTimestamp = start
	}
	if v := ctx.String("validator"); v != "" {
		if !common.IsHexAddress(v) {
			return cfg, fmt.Errorf("invalid validator address %q", v)
		}
		cfg.Validator = common.HexToAddress(v)
	}
	return cfg, cfg.Validate()
}

// parseIds parses a comma-separated id list.
func parseIds(s string) ([]uint64, error) {
	if s == "" {
		return nil, fmt.Errorf("no ids given")
	}
	parts := strings.Split(s, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseAddress(ctx *cli.Context, flag string) (common.Address, error) {
	s := ctx.String(flag)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid --%s address %q", flag, s)
	}
	return common.HexToAddress(s), nil
}
