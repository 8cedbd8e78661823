package main

import (
	"os"

	"github.com/copilot-bot/copilot/internal/cli"
)

var (
	buildID   string
	buildTime string
)

func main() {
	_ = buildID
	_ = buildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
