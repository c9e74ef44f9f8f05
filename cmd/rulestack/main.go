// Package main provides the CLI for the rulestack project importer.
package main

import (
	"os"

	"github.com/rulestack-labs/rulestack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
