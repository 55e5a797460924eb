package main

import (
	"fmt"
	"os"

	"github.com/bambumate/bambumate/internal/adapters/inbound/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
