package main

import (
	"os"

	"github.com/sourcescan/sourcescan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
