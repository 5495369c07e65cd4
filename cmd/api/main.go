// Package main is the entry point for the Tourdesk API.
// Its sole responsibility is wiring dependencies together behind the cobra
// commands in this package. No business logic belongs here.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
