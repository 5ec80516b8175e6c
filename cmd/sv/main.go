package main

import (
	"os"

	"github.com/subvault-dev/subvault-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
