package main

import (
	"os"

	"github.com/wonny/fundamenta/cmd/fundamenta/commands"
)

// main is the entry point for the fundamenta CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fundamenta [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
