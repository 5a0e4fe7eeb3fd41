package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/fundamenta/internal/report"
	"github.com/wonny/fundamenta/internal/thresholds"
)

// thresholdsCmd represents the thresholds command
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "기준표 조회 및 검증",
	Long: `지표별 등급 기준표를 출력하거나 검증합니다.

--check 는 구간 누락/중복 등 오류를 검사하고 경고와 해시를 표시합니다.

Example:
  go run ./cmd/fundamenta thresholds
  go run ./cmd/fundamenta thresholds --name P/L
  go run ./cmd/fundamenta thresholds --file config/thresholds/reference.yaml --check`,
	RunE: runThresholds,
}

var (
	thresholdsFile  string
	thresholdsName  string
	thresholdsCheck bool
	thresholdsJSON  bool
)

func init() {
	rootCmd.AddCommand(thresholdsCmd)

	thresholdsCmd.Flags().StringVar(&thresholdsFile, "file", "", "threshold table YAML path (default built-in reference)")
	thresholdsCmd.Flags().StringVar(&thresholdsName, "name", "", "show only this indicator")
	thresholdsCmd.Flags().BoolVar(&thresholdsCheck, "check", false, "validate the table and report warnings")
	thresholdsCmd.Flags().BoolVar(&thresholdsJSON, "json", false, "print the table as JSON")
}

func runThresholds(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	table, err := thresholds.LoadOrReference(thresholdsFile)
	if err != nil {
		if thresholdsCheck {
			PrintError(out, err.Error())
		}
		return err
	}

	if thresholdsCheck {
		source := thresholdsFile
		if source == "" {
			source = "built-in reference"
		}
		PrintHeader(out, "THRESHOLD TABLE CHECK")
		PrintKeyValue(out, "Source", source, 10)
		PrintKeyValue(out, "Indicators", fmt.Sprintf("%d", len(table.Names())), 10)
		PrintKeyValue(out, "Hash", table.Hash(), 10)
		PrintSeparator(out)

		warnings := thresholds.Warn(table)
		for _, w := range warnings {
			PrintWarning(out, fmt.Sprintf("%s: %s", w.Indicator, w.Message))
		}
		PrintSuccess(out, fmt.Sprintf("Table is valid (%d warnings)", len(warnings)))
		return nil
	}

	entries := table.Entries()
	if thresholdsName != "" {
		entry, err := table.Lookup(thresholdsName)
		if err != nil {
			return err
		}
		entries = []thresholds.Entry{entry}
	}

	if thresholdsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", e.Indicator)
		if e.Description != "" {
			fmt.Fprintf(out, "  %s\n", e.Description)
		}
		for _, t := range e.Tiers {
			marker := ""
			if t.OffScale {
				marker = " (fora da escala)"
			}
			fmt.Fprintf(out, "    - %-10s %s%s\n", t.Label+":", report.FormatRange(t), marker)
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", 59))
	fmt.Fprintf(out, "hash %s\n", table.Hash())
	return nil
}
