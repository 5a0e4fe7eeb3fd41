package report

import (
	"bufio"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wonny/fundamenta/internal/contracts"
)

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// Text writes the detailed plain-text report
func (r *Renderer) Text(w io.Writer, a *contracts.Analysis) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, doubleLine)
	fmt.Fprintf(bw, "  ANÁLISE FUNDAMENTALISTA %s\n", a.Ticker)
	fmt.Fprintln(bw, singleLine)
	fmt.Fprintf(bw, "  Ano base  : %d\n", a.Year)
	fmt.Fprintf(bw, "  Fonte     : %s\n", a.Source)
	if a.Snapshot.Sector != "" {
		fmt.Fprintf(bw, "  Setor     : %s\n", a.Snapshot.Sector)
	}
	fmt.Fprintf(bw, "  Avaliados : %d/%d classificados, score médio %.2f\n", a.ClassifiedCount(), len(a.Results), a.AverageScore())
	fmt.Fprintln(bw, doubleLine)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "INDICADORES PRINCIPAIS:")
	fmt.Fprintln(bw)
	for _, name := range a.Order {
		res, ok := a.Results[name]
		if !ok {
			continue
		}
		r.writeTextIndicator(bw, res, a.Scores)
	}

	if len(a.GrowthOrder) > 0 {
		fmt.Fprintln(bw, singleLine)
		fmt.Fprintln(bw, "CRESCIMENTO:")
		fmt.Fprintln(bw)
		for _, name := range a.GrowthOrder {
			res, ok := a.Growth[name]
			if !ok {
				continue
			}
			r.writeTextIndicator(bw, res, a.Scores)
		}
	}

	if names := seriesNames(a); len(names) > 0 {
		fmt.Fprintln(bw, singleLine)
		fmt.Fprintln(bw, "EVOLUÇÃO:")
		fmt.Fprintln(bw)

		tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprint(tw, "Indicador\t")
		for _, p := range a.Series {
			fmt.Fprintf(tw, "%d\t", p.Year)
		}
		fmt.Fprintln(tw)
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t", name)
			for _, p := range a.Series {
				res, ok := p.Results[name]
				if !ok {
					fmt.Fprint(tw, "-\t")
					continue
				}
				fmt.Fprintf(tw, "%s\t", formatValue(res))
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(bw)
	}

	if len(a.Reported) > 0 {
		fmt.Fprintln(bw, singleLine)
		fmt.Fprintf(bw, "INDICADORES REPORTADOS (%s):\n", a.Source)
		fmt.Fprintln(bw)
		for _, name := range reportedNames(a) {
			computed := "-"
			if res, ok := a.Result(name); ok {
				computed = formatValue(res)
			}
			fmt.Fprintf(bw, "  %-22s reportado %8.2f   calculado %8s\n", name, a.Reported[name], computed)
		}
		fmt.Fprintln(bw)
	}

	if len(a.Issues) > 0 {
		fmt.Fprintln(bw, singleLine)
		fmt.Fprintln(bw, "⚠️  OBSERVAÇÕES:")
		for _, issue := range a.Issues {
			fmt.Fprintf(bw, "  - %s\n", issue)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func (r *Renderer) writeTextIndicator(w io.Writer, res contracts.IndicatorResult, scores map[string]contracts.NormalizedScore) {
	fmt.Fprintf(w, "%s:\n", res.Name)
	fmt.Fprintf(w, "  Valor: %s\n", formatValue(res))
	fmt.Fprintf(w, "  Avaliação: %s\n", res.Tier)
	if s, ok := scores[res.Name]; ok {
		fmt.Fprintf(w, "  Score: %.2f\n", s.Score)
	}
	fmt.Fprintf(w, "  Referência: %s\n", res.Description)

	if tiers := r.tiers(res.Name); len(tiers) > 0 {
		fmt.Fprintln(w, "  Faixas de Referência:")
		for _, t := range tiers {
			fmt.Fprintf(w, "    - %s: %s\n", t.Label, FormatRange(t))
		}
	}
	fmt.Fprintln(w)
}
