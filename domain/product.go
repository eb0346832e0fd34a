// Package domain defines core business types and interfaces.
package domain

// DefaultVATRate is applied when neither the caller nor the import batch supplies a rate.
const DefaultVATRate = 0.20

// Product represents an inventory product. Prices are pre-tax (HT).
type Product struct {
	ID          int64   `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	UnitPriceHT float64 `json:"unit_price_ht"`
	VATRate     float64 `json:"vat_rate"`
	Quantity    int     `json:"quantity"`
	CreatedAt   string  `json:"created_at"`
}

// UnitPriceTTC is the tax-inclusive unit price, rounded to cents.
func (p Product) UnitPriceTTC() float64 {
	return RoundMoney(p.UnitPriceHT * (1 + p.VATRate))
}

// NewProduct carries the fields of a single add. A nil VATRate means the configured default.
type NewProduct struct {
	SKU         string
	Name        string
	Category    string
	UnitPriceHT float64
	Quantity    int
	VATRate     *float64
}

// ProductPatch is a partial update; nil fields are left untouched. The SKU is never patched.
type ProductPatch struct {
	Name        *string
	Category    *string
	UnitPriceHT *float64
	Quantity    *int
	VATRate     *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.UnitPriceHT == nil && p.Quantity == nil && p.VATRate == nil
}

// ListFilter narrows ListProducts. Results are always ordered by SKU ascending.
type ListFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Matches reports whether p passes the filter.
func (f ListFilter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.UnitPriceHT < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.UnitPriceHT > *f.MaxPrice {
		return false
	}
	return true
}

// ImportRecord is one normalized catalog entry produced by the importer.
type ImportRecord struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	UnitPriceHT float64 `json:"unit_price_ht"`
	Quantity    int     `json:"quantity"`
	VATRate     float64 `json:"vat_rate"`
}

// Catalog is a validated import payload.
type Catalog struct {
	DefaultVATRate float64        `json:"vat_rate_default"`
	Records        []ImportRecord `json:"products"`
}
