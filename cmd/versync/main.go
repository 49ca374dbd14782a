package main

import (
	"os"

	"versync/cmd/versync/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
