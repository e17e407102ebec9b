package main

import (
	"errors"
	"os"

	"github.com/actionlock/actionlock/cmd/actionlock/cmd"
	"github.com/actionlock/actionlock/internal/engine"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var drift *engine.DriftError
		if errors.As(err, &drift) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
