package main

import (
	"fmt"
	"os"

	"github.com/ndujaLabs/everdragons2-core/cmd/farm/launcher"
)

func main() {
	if err := launcher.Launch(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
