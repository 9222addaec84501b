package main

import (
	"os"

	"riskmc/cmd/riskmc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
