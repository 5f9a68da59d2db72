package main

import (
	"os"

	"github.com/solaproject/sola/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
