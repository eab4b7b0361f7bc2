package main

import (
	"os"

	"github.com/solatis/rulegate/cmd/rulegate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
