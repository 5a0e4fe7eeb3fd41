package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/wonny/fundamenta/internal/contracts"
)

// RadarPoint is one spoke of the radar chart
type RadarPoint struct {
	Indicator string  `json:"indicator"`
	Score     float64 `json:"score"`
	Angle     float64 `json:"angle"` // radians, i/n·2π
}

// Radar is the chart input: the normalized scores in analysis order
type Radar struct {
	Title  string       `json:"title"`
	Points []RadarPoint `json:"points"`
}

// NewRadar builds radar input from the normalized snapshot indicators.
// Indicators without a score are left out.
func NewRadar(a *contracts.Analysis) Radar {
	names := make([]string, 0, len(a.Order))
	for _, name := range a.Order {
		if _, ok := a.Scores[name]; ok {
			names = append(names, name)
		}
	}

	points := make([]RadarPoint, 0, len(names))
	for i, name := range names {
		points = append(points, RadarPoint{
			Indicator: name,
			Score:     a.Scores[name].Score,
			Angle:     float64(i) / float64(len(names)) * 2 * math.Pi,
		})
	}

	return Radar{
		Title:  fmt.Sprintf("Avaliação dos Indicadores (Normalizado) - %s", a.Ticker),
		Points: points,
	}
}

// Polygon returns the points with the first one repeated at the end
func (r Radar) Polygon() []RadarPoint {
	if len(r.Points) == 0 {
		return nil
	}
	closed := make([]RadarPoint, 0, len(r.Points)+1)
	closed = append(closed, r.Points...)
	return append(closed, r.Points[0])
}

const (
	radarCenterX = 105.0
	radarCenterY = 140.0
	radarRadius  = 65.0
)

// xy places a score on the page; angle 0 points up and angles grow clockwise
func xy(angle, score float64) (float64, float64) {
	theta := angle - math.Pi/2
	return radarCenterX + radarRadius*score*math.Cos(theta),
		radarCenterY + radarRadius*score*math.Sin(theta)
}

// RadarPDF draws the radar chart as a single-page A4 PDF
func (r *Renderer) RadarPDF(w io.Writer, a *contracts.Analysis) error {
	radar := NewRadar(a)
	if len(radar.Points) < 3 {
		return fmt.Errorf("radar for %s needs at least 3 normalized indicators, got %d", a.Ticker, len(radar.Points))
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(radar.Title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr(radar.Title), "", 1, "C", false, 0, "")

	// grid
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	for _, level := range []float64{0.25, 0.5, 0.75, 1} {
		ring := make([]fpdf.PointType, 0, len(radar.Points))
		for _, p := range radar.Points {
			x, y := xy(p.Angle, level)
			ring = append(ring, fpdf.PointType{X: x, Y: y})
		}
		pdf.Polygon(ring, "D")
	}

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for _, p := range radar.Points {
		x, y := xy(p.Angle, 1)
		pdf.Line(radarCenterX, radarCenterY, x, y)

		lx, ly := xy(p.Angle, 1.15)
		label := tr(fmt.Sprintf("%s (%.2f)", p.Indicator, p.Score))
		width := pdf.GetStringWidth(label)
		pdf.Text(lx-width/2, ly+1.5, label)
	}

	// scores
	shape := make([]fpdf.PointType, 0, len(radar.Points))
	for _, p := range radar.Points {
		x, y := xy(p.Angle, p.Score)
		shape = append(shape, fpdf.PointType{X: x, Y: y})
	}
	pdf.SetDrawColor(31, 119, 180)
	pdf.SetFillColor(31, 119, 180)
	pdf.SetLineWidth(0.6)
	pdf.SetAlpha(0.25, "Normal")
	pdf.Polygon(shape, "F")
	pdf.SetAlpha(1, "Normal")
	pdf.Polygon(shape, "D")
	for _, pt := range shape {
		pdf.Circle(pt.X, pt.Y, 0.8, "F")
	}

	pdf.SetY(radarCenterY + radarRadius + 20)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Ano base %d, fonte %s, score médio %.2f", a.Year, a.Source, a.AverageScore())), "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to generate radar PDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write radar PDF: %w", err)
	}
	return nil
}
