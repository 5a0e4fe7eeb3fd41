package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundamenta/internal/store"
	"github.com/wonny/fundamenta/internal/thresholds"
	"github.com/wonny/fundamenta/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 풀 통계를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- 데이터베이스 연결 생성 및 Health Check
- --migrate: fundamentals.indicator_results 스키마 생성

Example:
  go run ./cmd/fundamenta test-db
  go run ./cmd/fundamenta test-db --migrate`,
	RunE: runTestDB,
}

var testDBMigrate bool

func init() {
	rootCmd.AddCommand(testDBCmd)

	testDBCmd.Flags().BoolVar(&testDBMigrate, "migrate", false, "create the results schema")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Fundamenta Database Connection Test ===")

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))
	PrintKeyValue(out, "Database URL", maskPassword(cfg.Database.URL), 12)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create database connection
	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrDisabled) {
		PrintWarning(out, "DATABASE_URL is not set; results will not be persisted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	PrintSuccess(out, "Database connection established")

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	PrintSuccess(out, "Health Check Results:")
	PrintKeyValue(out, "Healthy", fmt.Sprintf("%v", status.Healthy), 14)
	PrintKeyValue(out, "Response Time", status.ResponseTime.String(), 14)
	PrintKeyValue(out, "Total Conns", fmt.Sprintf("%d", status.TotalConns), 14)
	PrintKeyValue(out, "Idle Conns", fmt.Sprintf("%d", status.IdleConns), 14)
	PrintKeyValue(out, "Acquired", fmt.Sprintf("%d", status.AcquiredConns), 14)

	if testDBMigrate {
		repo := store.NewEvaluationRepository(db.Pool, thresholds.Reference().Hash())
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("❌ Migration failed: %w", err)
		}
		PrintSuccess(out, "Schema fundamentals.indicator_results ready")
	}

	fmt.Fprintln(out)
	PrintSuccess(out, "All tests passed!")
	return nil
}

// maskPassword hides the password in the database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
