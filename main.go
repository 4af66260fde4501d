package main

import (
	"fmt"
	"os"

	"stocksim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stocksim:", err)
		os.Exit(1)
	}
}
