package logger_test

import (
	"errors"
	"os"

	"github.com/wonny/fundamenta/pkg/config"
	"github.com/wonny/fundamenta/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.NewWithWriter(cfg, os.Stderr)

	log.WithFields(map[string]interface{}{
		"ticker":    "PETR4",
		"indicator": "ROE",
		"tier":      "otimo",
	}).Info("Indicator classified")
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	err := errors.New("status invest returned 503")
	log.WithError(err).
		WithField("ticker", "VALE3").
		Error("Failed to fetch financial history")
}
