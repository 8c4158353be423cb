package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/peeksync/internal/client/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "peek: %v\n", err)
		os.Exit(1)
	}
}
