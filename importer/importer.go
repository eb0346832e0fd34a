// Package importer turns a JSON catalog payload into validated import records.
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"stockctl/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// record mirrors domain.ImportRecord with the rules every entry must satisfy.
type record struct {
	SKU         string  `json:"sku" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	UnitPriceHT float64 `json:"unit_price_ht" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	VATRate     float64 `json:"vat_rate" validate:"gte=0,lte=1"`
}

// LoadFile reads and parses the catalog at path.
func LoadFile(path string) (domain.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Catalog{}, domain.NewImportError(0, "file", "path required", nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Catalog{}, domain.NewImportError(0, "file", "file not found: "+path, err)
		}
		return domain.Catalog{}, domain.NewImportError(0, "file", "cannot read file", err)
	}
	return Parse(b)
}

// Parse validates a catalog payload of the form
//
//	{"vat_rate_default": 0.2, "products": [{"sku": ..., "name": ..., ...}]}
//
// Numbers may be JSON numbers or numeric strings. Entries without a vat_rate
// take the batch default, itself 0.20 when absent.
func Parse(data []byte) (domain.Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return domain.Catalog{}, domain.NewImportError(0, "", "invalid JSON", err)
	}
	if dec.More() {
		return domain.Catalog{}, domain.NewImportError(0, "", "invalid JSON: trailing data", nil)
	}
	obj, ok := root.(map[string]interface{})
	if !ok {
		return domain.Catalog{}, domain.NewImportError(0, "", "root must be an object", nil)
	}

	items, ok := obj["products"].([]interface{})
	if !ok || len(items) == 0 {
		return domain.Catalog{}, domain.NewImportError(0, "products", "must be a non-empty array", nil)
	}

	vatDefault := domain.DefaultVATRate
	if raw, present := obj["vat_rate_default"]; present {
		v, err := toFloat(raw)
		if err != nil {
			return domain.Catalog{}, domain.NewImportError(0, "vat_rate_default", "must be a number", err)
		}
		if v < 0 || v > 1 {
			return domain.Catalog{}, domain.NewImportError(0, "vat_rate_default", "must be between 0 and 1", nil)
		}
		vatDefault = v
	}

	catalog := domain.Catalog{
		DefaultVATRate: vatDefault,
		Records:        make([]domain.ImportRecord, 0, len(items)),
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		index := i + 1
		entry, ok := item.(map[string]interface{})
		if !ok {
			return domain.Catalog{}, domain.NewImportError(index, "", "must be an object", nil)
		}
		rec, err := normalize(index, entry, vatDefault)
		if err != nil {
			return domain.Catalog{}, err
		}
		if _, dup := seen[rec.SKU]; dup {
			return domain.Catalog{}, domain.NewImportError(index, "sku", "duplicate sku: "+rec.SKU, nil)
		}
		seen[rec.SKU] = struct{}{}
		catalog.Records = append(catalog.Records, domain.ImportRecord(rec))
	}
	return catalog, nil
}

func normalize(index int, entry map[string]interface{}, vatDefault float64) (record, error) {
	rec := record{VATRate: vatDefault}
	var err error

	if rec.SKU, err = toText(entry["sku"]); err != nil {
		return record{}, domain.NewImportError(index, "sku", "must be text", err)
	}
	if rec.Name, err = toText(entry["name"]); err != nil {
		return record{}, domain.NewImportError(index, "name", "must be text", err)
	}
	if rec.Category, err = toText(entry["category"]); err != nil {
		return record{}, domain.NewImportError(index, "category", "must be text", err)
	}

	raw, present := entry["unit_price_ht"]
	if !present || raw == nil {
		return record{}, domain.NewImportError(index, "unit_price_ht", "is required", nil)
	}
	if rec.UnitPriceHT, err = toFloat(raw); err != nil {
		return record{}, domain.NewImportError(index, "unit_price_ht", "must be a decimal number", err)
	}

	raw, present = entry["quantity"]
	if !present || raw == nil {
		return record{}, domain.NewImportError(index, "quantity", "is required", nil)
	}
	if rec.Quantity, err = toInt(raw); err != nil {
		return record{}, domain.NewImportError(index, "quantity", "must be an integer", err)
	}

	if raw, present = entry["vat_rate"]; present && raw != nil {
		if rec.VATRate, err = toFloat(raw); err != nil {
			return record{}, domain.NewImportError(index, "vat_rate", "must be a decimal number", err)
		}
	}

	if err := validate.Struct(rec); err != nil {
		return record{}, fieldError(index, err)
	}
	return rec, nil
}

func fieldError(index int, err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return domain.NewImportError(index, "", "invalid product", err)
	}
	fe := errs[0]
	return domain.NewImportError(index, fe.Field(), validationMessage(fe), nil)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "cannot be empty"
	case "gte":
		if fe.Field() == "vat_rate" {
			return "must be between 0 and 1"
		}
		return "must be non-negative"
	case "lte":
		return "must be between 0 and 1"
	}
	return "is invalid"
}

// toText stringifies scalars and trims them; null reads as empty.
func toText(v interface{}) (string, error) {
	if n, ok := v.(json.Number); ok {
		return n.String(), nil
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return "", fmt.Errorf("unexpected %T", v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func toFloat(v interface{}) (float64, error) {
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	return cast.ToFloat64E(v)
}

// toInt accepts base-10 integers and integral decimals such as 5.0.
// Fractions, hex and octal spellings are rejected rather than truncated.
func toInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case json.Number:
		return parseInt(x.String())
	case string:
		return parseInt(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

func parseInt(s string) (int, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53
