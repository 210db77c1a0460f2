package main

import (
	"os"

	"ghostchat/cmd/ghostchat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
