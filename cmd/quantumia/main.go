package main

import (
	"os"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
