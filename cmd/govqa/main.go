// Package main provides the govqa command-line client.
package main

import (
	"fmt"
	"os"

	"github.com/mehulvora/govqa-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
