package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/peeksync/internal/server/admin"
)

func main() {
	if err := admin.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "peek-admin: %v\n", err)
		os.Exit(1)
	}
}
