package main

import (
	"os"

	"github.com/majorcontext/hostprobe/cmd/hostprobe/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
