package main

import (
	"os"

	"github.com/MikeSquared-Agency/Strategix/cmd/strategix/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
