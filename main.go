package main

import (
	"os"

	"github.com/conneroisu/afmt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
