package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "e2farm"
	app.Usage = "Everdragons2 sale engine tooling"
	app.Version = "1.0.0"
	app.Writer = os.Stdout
	return app
}
