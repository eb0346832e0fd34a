package domain

import "github.com/shopspring/decimal"

// Sale is one entry of the append-only sales ledger. Price, rate and SKU are
// captured at sale time so later product edits never alter history.
type Sale struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	UnitPriceHT float64 `json:"unit_price_ht"`
	VATRate     float64 `json:"vat_rate"`
	TotalHT     float64 `json:"total_ht"`
	TotalVAT    float64 `json:"total_vat"`
	TotalTTC    float64 `json:"total_ttc"`
	SoldAt      string  `json:"sold_at"`
}

// SaleTotals are the monetary amounts of a single sale.
type SaleTotals struct {
	TotalHT  float64 `json:"total_ht"`
	TotalVAT float64 `json:"total_vat"`
	TotalTTC float64 `json:"total_ttc"`
}

// Totals returns the amounts recorded on the sale.
func (s Sale) Totals() SaleTotals {
	return SaleTotals{TotalHT: s.TotalHT, TotalVAT: s.TotalVAT, TotalTTC: s.TotalTTC}
}

// Dashboard aggregates the whole sales ledger.
type Dashboard struct {
	SalesCount    int64   `json:"sales_count"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalHT       float64 `json:"total_ht"`
	TotalVAT      float64 `json:"total_vat"`
	TotalTTC      float64 `json:"total_ttc"`
}

const moneyPlaces = 2

// RoundMoney rounds v to cents, half away from zero.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(moneyPlaces).InexactFloat64()
}

// ComputeTotals derives HT, VAT and TTC for quantity units. Each amount is
// rounded on its own, in that order, from the previous rounded amount.
func ComputeTotals(unitPriceHT float64, quantity int, vatRate float64) SaleTotals {
	ht := decimal.NewFromFloat(unitPriceHT).Mul(decimal.NewFromInt(int64(quantity))).Round(moneyPlaces)
	vat := ht.Mul(decimal.NewFromFloat(vatRate)).Round(moneyPlaces)
	ttc := ht.Add(vat).Round(moneyPlaces)
	return SaleTotals{
		TotalHT:  ht.InexactFloat64(),
		TotalVAT: vat.InexactFloat64(),
		TotalTTC: ttc.InexactFloat64(),
	}
}
