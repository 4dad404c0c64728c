package main

import (
	"os"

	"github.com/blackwell-systems/gemindex/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		app.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}
