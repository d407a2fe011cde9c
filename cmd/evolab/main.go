// Package main is the evolab command-line entry point.
package main

import (
	"os"

	"github.com/apenaflor/evolab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
