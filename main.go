package main

import (
	"os"

	"github.com/telhawk-systems/gmfetch/cmd"
	"github.com/telhawk-systems/gmfetch/pkg/output"
)

func main() {
	if err := cmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}
