package main // entry point of the conference-central binary

import (
	"context"
	"fmt"
	"os"

	"github.com/iliyamo/conference-central/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
