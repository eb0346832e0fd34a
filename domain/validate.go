package domain

import "strings"

// ValidateRequired rejects empty or whitespace-only text and returns it trimmed.
func ValidateRequired(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", NewValidationError(field, "cannot be empty", value)
	}
	return v, nil
}

// ValidateUnitPrice rejects negative pre-tax prices.
func ValidateUnitPrice(price float64) error {
	if price < 0 {
		return NewValidationError("unit_price_ht", "must be non-negative", price)
	}
	return nil
}

// ValidateStock rejects negative quantities on hand.
func ValidateStock(quantity int) error {
	if quantity < 0 {
		return NewValidationError("quantity", "must be non-negative", quantity)
	}
	return nil
}

// ValidateSaleQuantity rejects sales of zero or fewer units.
func ValidateSaleQuantity(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("quantity", "must be greater than zero", quantity)
	}
	return nil
}

// ValidateVATRate rejects rates outside [0,1].
func ValidateVATRate(rate float64) error {
	if rate < 0 || rate > 1 {
		return NewValidationError("vat_rate", "must be between 0 and 1", rate)
	}
	return nil
}

// ValidateProduct checks the invariants every stored product must hold.
func ValidateProduct(p Product) error {
	if _, err := ValidateRequired("sku", p.SKU); err != nil {
		return err
	}
	if _, err := ValidateRequired("name", p.Name); err != nil {
		return err
	}
	if _, err := ValidateRequired("category", p.Category); err != nil {
		return err
	}
	if err := ValidateUnitPrice(p.UnitPriceHT); err != nil {
		return err
	}
	if err := ValidateVATRate(p.VATRate); err != nil {
		return err
	}
	return ValidateStock(p.Quantity)
}
