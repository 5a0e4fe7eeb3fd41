package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/fundamenta/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fundamenta",
	Short: "Fundamenta - 재무지표 기반 기업 평가 엔진",
	Long: `Fundamenta Unified CLI

재무제표와 시장 데이터로 P/L, P/VP, ROE 등 지표를 계산하고
기준표(threshold table)로 등급을 매긴 뒤 0~1 점수로 정규화합니다.

Usage:
  go run ./cmd/fundamenta [command]

Examples:
  go run ./cmd/fundamenta evaluate PETR4
  go run ./cmd/fundamenta evaluate PETR4 --format markdown --radar petr4.pdf
  go run ./cmd/fundamenta thresholds --check
  go run ./cmd/fundamenta api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production|test)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the environment config and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
