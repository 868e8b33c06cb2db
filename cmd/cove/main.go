package main

import (
	"fmt"
	"os"

	"github.com/gamerscove/cove/internal/cli"
	"github.com/gamerscove/cove/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", client.Message(err))
		os.Exit(1)
	}
}
