// Package main is the entry point for the nab CLI.
package main

import (
	"os"

	"github.com/jameskraus/nab/cmd/nab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
