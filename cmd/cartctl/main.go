package main

import (
	"fmt"
	"os"

	"github.com/Skotchmaster/rocketshoes/internal/cart"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		// Cart failures were already reported through the notifier.
		if cart.Message(err) == "" {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
