package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/reoring/ocppskema/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrInvalid) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "ocppskema:", err)
		os.Exit(1)
	}
}
