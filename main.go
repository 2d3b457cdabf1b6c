package main

import (
	"os"

	"github.com/maleon-core-poc/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
