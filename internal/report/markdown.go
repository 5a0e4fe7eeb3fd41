package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wonny/fundamenta/internal/contracts"
)

// Markdown writes the report as GitHub-flavoured markdown
func (r *Renderer) Markdown(w io.Writer, a *contracts.Analysis) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Análise Fundamentalista %s\n\n", a.Ticker)
	fmt.Fprintf(&b, "- **Ano base:** %d\n", a.Year)
	fmt.Fprintf(&b, "- **Fonte:** %s\n", a.Source)
	if a.Snapshot.Sector != "" {
		fmt.Fprintf(&b, "- **Setor:** %s\n", a.Snapshot.Sector)
	}
	fmt.Fprintf(&b, "- **Classificados:** %d/%d\n", a.ClassifiedCount(), len(a.Results))
	fmt.Fprintf(&b, "- **Score médio:** %.2f\n\n", a.AverageScore())

	b.WriteString("## Indicadores principais\n\n")
	r.writeMarkdownTable(&b, a.Order, a.Results, a.Scores)

	if len(a.GrowthOrder) > 0 {
		b.WriteString("## Crescimento\n\n")
		r.writeMarkdownTable(&b, a.GrowthOrder, a.Growth, a.Scores)
	}

	b.WriteString("### Referências\n\n")
	for _, name := range append(append([]string{}, a.Order...), a.GrowthOrder...) {
		if res, ok := a.Result(name); ok && res.Description != "" {
			fmt.Fprintf(&b, "- **%s**: %s\n", name, res.Description)
		}
	}
	b.WriteString("\n")

	if names := seriesNames(a); len(names) > 0 {
		b.WriteString("## Evolução\n\n| Indicador |")
		for _, p := range a.Series {
			fmt.Fprintf(&b, " %d |", p.Year)
		}
		b.WriteString("\n|---|")
		for range a.Series {
			b.WriteString("---:|")
		}
		b.WriteString("\n")
		for _, name := range names {
			fmt.Fprintf(&b, "| %s |", name)
			for _, p := range a.Series {
				cell := "-"
				if res, ok := p.Results[name]; ok {
					cell = formatValue(res)
				}
				fmt.Fprintf(&b, " %s |", cell)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(a.Reported) > 0 {
		fmt.Fprintf(&b, "## Indicadores reportados (%s)\n\n", a.Source)
		b.WriteString("| Indicador | Reportado | Calculado |\n|---|---:|---:|\n")
		for _, name := range reportedNames(a) {
			computed := "-"
			if res, ok := a.Result(name); ok {
				computed = formatValue(res)
			}
			fmt.Fprintf(&b, "| %s | %.2f | %s |\n", name, a.Reported[name], computed)
		}
		b.WriteString("\n")
	}

	if len(a.Issues) > 0 {
		b.WriteString("## Observações\n\n")
		for _, issue := range a.Issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeMarkdownTable(b *strings.Builder, order []string, results map[string]contracts.IndicatorResult, scores map[string]contracts.NormalizedScore) {
	b.WriteString("| Indicador | Valor | Avaliação | Score | Faixas de referência |\n")
	b.WriteString("|---|---:|---|---:|---|\n")
	for _, name := range order {
		res, ok := results[name]
		if !ok {
			continue
		}
		score := "-"
		if s, ok := scores[name]; ok {
			score = fmt.Sprintf("%.2f", s.Score)
		}

		ranges := make([]string, 0, 5)
		for _, t := range r.tiers(name) {
			ranges = append(ranges, fmt.Sprintf("%s: %s", t.Label, FormatRange(t)))
		}

		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			name, formatValue(res), res.Tier, score, strings.Join(ranges, "; "))
	}
	b.WriteString("\n")
}

// HTML converts the markdown report into a standalone HTML page
func (r *Renderer) HTML(w io.Writer, a *contracts.Analysis) error {
	var src bytes.Buffer
	if err := r.Markdown(&src, a); err != nil {
		return err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
	)

	var body bytes.Buffer
	if err := md.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("failed to convert markdown: %w", err)
	}

	title := html.EscapeString("Análise Fundamentalista " + a.Ticker)
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
</style>
</head>
<body>
%s</body>
</html>
`, title, body.String())
	return err
}
