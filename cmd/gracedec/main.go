// Command gracedec checks model structs and generates graceful decoder
// tables for them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/reoring/gracedec/internal/commands"
)

func main() {
	if err := commands.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
