package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	// Entry point: create a root context and run the generator.
	ctx := context.Background()

	// Pass in the command line arguments, environment lookup, and standard output
	// so that run can be tested in isolation without touching the real process state.
	if err := run(ctx, os.Args, os.Getenv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
