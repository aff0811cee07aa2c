package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "update-country-listing: %v\n", err)
		os.Exit(1)
	}
}
