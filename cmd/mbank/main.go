package main

import (
	"os"

	"mbank/cmd/mbank/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
