package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundamenta/internal/api"
	"github.com/wonny/fundamenta/internal/api/handlers"
	"github.com/wonny/fundamenta/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

DATABASE_URL 이 설정되어 있으면 분석 결과를 저장하고 조회할 수 있습니다.

Endpoints:
  GET  /health                              - Health check
  GET  /api/indicators                      - 지표 목록
  GET  /api/thresholds?name=                - 기준표
  GET  /api/analysis/{ticker}?indicators=   - 지표 평가
  GET  /api/analysis/{ticker}/report?format - 리포트 (text|markdown|html|json)
  GET  /api/analysis/{ticker}/radar         - 레이더 차트 PDF (?format=json)
  GET  /api/analysis/{ticker}/stored        - 저장된 최근 결과
  POST /api/analysis/batch                  - 여러 종목 평가

Example:
  go run ./cmd/fundamenta api
  go run ./cmd/fundamenta api --port 8080 --source statusinvest`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	apiSource     string
	apiThresholds string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().StringVar(&apiSource, "source", "", "data source: fixture | statusinvest")
	apiCmd.Flags().StringVar(&apiThresholds, "thresholds", "", "threshold table YAML path")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fundamenta API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Wire components (database only when configured)
	w, err := newWiring(context.Background(), cfg, log, wiringOptions{
		Source:         apiSource,
		FixturePath:    cfg.Analysis.FixturePath,
		ThresholdsPath: firstNonEmpty(apiThresholds, cfg.Analysis.ThresholdsPath),
		SaveIfEnabled:  true,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	// 4. Create handlers
	var resultStore handlers.ResultStore
	if w.repo != nil {
		resultStore = w.repo
	}
	indicatorHandler := handlers.NewIndicatorHandler(w.engine.Registry(), w.table, log)
	analysisHandler := handlers.NewAnalysisHandler(w.service, w.renderer, resultStore, cfg.Analysis.Concurrency, log)

	// 5. Create router and server
	router := api.NewRouter(indicatorHandler, analysisHandler, log)
	server := api.New(cfg, log, router)

	// 6. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s (source: %s)\n", cfg.Port, w.provider.Name())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
