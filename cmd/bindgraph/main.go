package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mazrean/bindgraph/internal/config"
	"github.com/mazrean/bindgraph/internal/diag"
)

func main() {
	if err := config.Run(); err != nil {
		if !errors.Is(err, diag.ErrHandled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
