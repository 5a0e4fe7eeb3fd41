package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/thresholds"
)

// Format is an output format of the renderer
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatHTML, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (text, markdown, html, json)", s)
	}
}

// ContentType returns the HTTP content type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Renderer turns analyses into reports. Reference ranges come from the table.
// ⭐ SSOT: 리포트 출력 포맷은 여기서만
type Renderer struct {
	table *thresholds.Table
}

// NewRenderer creates a renderer over the threshold table
func NewRenderer(table *thresholds.Table) *Renderer {
	return &Renderer{table: table}
}

// Render writes the analysis in the given format
func (r *Renderer) Render(w io.Writer, a *contracts.Analysis, format Format) error {
	switch format {
	case FormatText:
		return r.Text(w, a)
	case FormatMarkdown:
		return r.Markdown(w, a)
	case FormatHTML:
		return r.HTML(w, a)
	case FormatJSON:
		return r.JSON(w, a)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// RenderMany writes several analyses in one document
func (r *Renderer) RenderMany(w io.Writer, analyses []*contracts.Analysis, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analyses)
	}
	for i, a := range analyses {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, a, format); err != nil {
			return fmt.Errorf("render %s: %w", a.Ticker, err)
		}
	}
	return nil
}

// JSON writes the analysis as indented JSON
func (r *Renderer) JSON(w io.Writer, a *contracts.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// FormatRange renders a tier range the way the reference tables print it:
// "> min" when unbounded above, "< max" when unbounded below, "min a max" otherwise.
func FormatRange(t thresholds.Tier) string {
	switch {
	case math.IsInf(t.Max, 1) && math.IsInf(t.Min, -1):
		return "qualquer valor"
	case math.IsInf(t.Max, 1):
		return fmt.Sprintf("> %g", t.Min)
	case math.IsInf(t.Min, -1):
		return fmt.Sprintf("< %g", t.Max)
	default:
		return fmt.Sprintf("%g a %g", t.Min, t.Max)
	}
}

// formatValue prints a result value with two decimals, or the undefined tier label
func formatValue(res contracts.IndicatorResult) string {
	if !res.Defined {
		return contracts.TierUndefined
	}
	return fmt.Sprintf("%.2f", res.Value)
}

func (r *Renderer) tiers(name string) []thresholds.Tier {
	entry, err := r.table.Lookup(name)
	if err != nil {
		return nil
	}
	return entry.Tiers
}

// seriesNames returns the indicator names present in a series, in analysis order
func seriesNames(a *contracts.Analysis) []string {
	if len(a.Series) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	for _, p := range a.Series {
		for name := range p.Results {
			seen[name] = true
		}
	}

	var names []string
	for _, name := range a.Order {
		if seen[name] {
			names = append(names, name)
			delete(seen, name)
		}
	}
	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func reportedNames(a *contracts.Analysis) []string {
	names := make([]string, 0, len(a.Reported))
	for name := range a.Reported {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
