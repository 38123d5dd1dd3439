package main

import (
	"context"
	"os"

	"github.com/quipper/poc/gradebook/internal/cli"
)

func main() {
	os.Exit(cli.Main(context.Background(), os.Args[1:]))
}
