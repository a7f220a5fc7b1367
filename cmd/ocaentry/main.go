// Package main is the entry point for the ocaentry CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/ocaentry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
