package main

import (
	"errors"
	"os"

	"credit-simulator/cmd/simctl/cmd"
	"credit-simulator/internal/amortization"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, amortization.ErrNonViableCredit) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
