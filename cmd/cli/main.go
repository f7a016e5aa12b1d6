package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sentivault/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
