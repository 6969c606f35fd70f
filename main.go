package main

import (
	"os"

	"github.com/dstanwick/perch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
