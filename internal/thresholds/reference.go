package thresholds

import "math"

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// negative is the off-scale tier that keeps higher-is-better tables total below zero
func negative() Tier {
	return Tier{Label: "negativo", Min: negInf, Max: 0, OffScale: true}
}

// ReferenceEntries returns the built-in reference ranges.
// config/thresholds/reference.yaml carries the same table.
func ReferenceEntries() []Entry {
	return []Entry{
		{
			Indicator:   "P/L",
			Description: "Preço em relação ao lucro. Quanto menor, mais barata a ação.",
			Tiers: []Tier{
				negative(),
				{Label: "otimo", Min: 0, Max: 10},
				{Label: "bom", Min: 10, Max: 15},
				{Label: "regular", Min: 15, Max: 20},
				{Label: "alto", Min: 20, Max: posInf},
			},
		},
		{
			Indicator:   "P/VP",
			Description: "Preço em relação ao valor patrimonial. Abaixo de 1 indica ação negociada abaixo do patrimônio.",
			Tiers: []Tier{
				negative(),
				{Label: "otimo", Min: 0, Max: 1},
				{Label: "bom", Min: 1, Max: 2},
				{Label: "regular", Min: 2, Max: 3},
				{Label: "alto", Min: 3, Max: posInf},
			},
		},
		{
			Indicator:   "Margem_EBITDA",
			Description: "Indica eficiência operacional. Quanto maior, melhor.",
			Tiers: []Tier{
				negative(),
				{Label: "ruim", Min: 0, Max: 15},
				{Label: "regular", Min: 15, Max: 25},
				{Label: "bom", Min: 25, Max: 35},
				{Label: "otimo", Min: 35, Max: posInf},
			},
		},
		{
			Indicator:   "Margem_Liquida",
			Description: "Lucratividade final. Quanto maior, melhor.",
			Tiers: []Tier{
				negative(),
				{Label: "ruim", Min: 0, Max: 10},
				{Label: "regular", Min: 10, Max: 20},
				{Label: "bom", Min: 20, Max: 30},
				{Label: "otimo", Min: 30, Max: posInf},
			},
		},
		{
			Indicator:   "ROE",
			Description: "Retorno sobre patrimônio. Maior que 15% é considerado bom.",
			Tiers: []Tier{
				negative(),
				{Label: "ruim", Min: 0, Max: 10},
				{Label: "regular", Min: 10, Max: 15},
				{Label: "bom", Min: 15, Max: 20},
				{Label: "otimo", Min: 20, Max: posInf},
			},
		},
		{
			Indicator:   "Dividend_Yield",
			Description: "Rendimento de dividendos. Acima de 6% é considerado bom.",
			Tiers: []Tier{
				negative(),
				{Label: "baixo", Min: 0, Max: 3},
				{Label: "regular", Min: 3, Max: 6},
				{Label: "bom", Min: 6, Max: 10},
				{Label: "otimo", Min: 10, Max: posInf},
			},
		},
		{
			Indicator:   "Divida_Liquida_EBITDA",
			Description: "Capacidade de pagar dívidas. Menor que 2.5 é considerado saudável.",
			Tiers: []Tier{
				{Label: "otimo", Min: negInf, Max: 1},
				{Label: "bom", Min: 1, Max: 2.5},
				{Label: "regular", Min: 2.5, Max: 3.5},
				{Label: "alto", Min: 3.5, Max: posInf},
			},
		},
		{
			Indicator:   "FCF_Yield",
			Description: "Rendimento do fluxo de caixa livre. Acima de 10% é considerado bom.",
			Tiers: []Tier{
				negative(),
				{Label: "baixo", Min: 0, Max: 5},
				{Label: "regular", Min: 5, Max: 10},
				{Label: "bom", Min: 10, Max: 15},
				{Label: "otimo", Min: 15, Max: posInf},
			},
		},
		{
			Indicator:   "Payout",
			Description: "Percentual do lucro distribuído em dividendos. Deve ser analisado junto com a consistência dos lucros.",
			Tiers: []Tier{
				negative(),
				{Label: "baixo", Min: 0, Max: 40},
				{Label: "moderado", Min: 40, Max: 80},
				{Label: "alto", Min: 80, Max: posInf},
			},
		},
		{
			Indicator:   "Liquidez_Corrente",
			Description: "Capacidade de pagar dívidas de curto prazo. Acima de 1 indica mais ativos que dívidas de curto prazo.",
			Tiers: []Tier{
				negative(),
				{Label: "ruim", Min: 0, Max: 1},
				{Label: "regular", Min: 1, Max: 1.5},
				{Label: "bom", Min: 1.5, Max: 2},
				{Label: "otimo", Min: 2, Max: posInf},
			},
		},
		{
			Indicator:   "CAGR_Receita",
			Description: "Crescimento anual composto da receita. Acima de 10% é considerado bom.",
			Tiers: []Tier{
				negative(),
				{Label: "baixo", Min: 0, Max: 5},
				{Label: "regular", Min: 5, Max: 10},
				{Label: "bom", Min: 10, Max: 15},
				{Label: "otimo", Min: 15, Max: posInf},
			},
		},
		{
			Indicator:   "CAGR_Lucro",
			Description: "Crescimento anual composto do lucro. Acima de 15% é considerado bom.",
			Tiers: []Tier{
				negative(),
				{Label: "baixo", Min: 0, Max: 10},
				{Label: "regular", Min: 10, Max: 15},
				{Label: "bom", Min: 15, Max: 20},
				{Label: "otimo", Min: 20, Max: posInf},
			},
		},
	}
}

// Reference returns the validated built-in table
func Reference() *Table {
	return MustNew(ReferenceEntries()...)
}
