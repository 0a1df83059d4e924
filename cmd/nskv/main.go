package main

import (
	"context"
	"fmt"
	"os"

	"github.com/horockey/nskv/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "nskv:", err)
		os.Exit(1)
	}
}
