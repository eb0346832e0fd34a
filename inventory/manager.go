// Package inventory holds the business rules for products and sales. It
// validates input, computes tax totals and delegates persistence to a
// domain.InventoryStore.
package inventory

import (
	"context"
	"log/slog"
	"time"

	"stockctl/domain"
	"stockctl/importer"
	"stockctl/logging"
	"stockctl/util"
)

// Manager runs inventory operations against a store. It keeps no product
// state between calls; every operation reads the store first.
type Manager struct {
	store      domain.InventoryStore
	defaultVAT float64
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultVATRate sets the rate used when AddProduct is given none.
func WithDefaultVATRate(rate float64) Option {
	return func(m *Manager) { m.defaultVAT = rate }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New returns a Manager over s.
func New(s domain.InventoryStore, opts ...Option) *Manager {
	m := &Manager{
		store:      s,
		defaultVAT: domain.DefaultVATRate,
		log:        logging.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultVATRate reports the rate applied to products added without one.
func (m *Manager) DefaultVATRate() float64 { return m.defaultVAT }

func (m *Manager) timestamp() string { return util.FormatTimestamp(m.now()) }

// rejected logs a failed operation and returns err unchanged. Domain
// rejections are expected input problems and log at warn.
func (m *Manager) rejected(op string, err error, attrs ...any) error {
	attrs = append(attrs, "error", err)
	if domain.IsDomainError(err) && !domain.IsStorageError(err) {
		m.log.Warn(op+" rejected", attrs...)
	} else {
		m.log.Error(op+" failed", attrs...)
	}
	return err
}

// EnsureSchema creates the tables if they are missing.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	if err := m.store.EnsureSchema(ctx); err != nil {
		return m.rejected("ensure schema", err)
	}
	return nil
}

// InitializeFromImport loads records in order, replacing the catalog when
// reset is true. The batch is stored all-or-nothing.
func (m *Manager) InitializeFromImport(ctx context.Context, records []domain.ImportRecord, reset bool) (int, error) {
	stamp := m.timestamp()
	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		p := domain.Product{
			SKU:         r.SKU,
			Name:        r.Name,
			Category:    r.Category,
			UnitPriceHT: r.UnitPriceHT,
			VATRate:     r.VATRate,
			Quantity:    r.Quantity,
			CreatedAt:   stamp,
		}
		if err := domain.ValidateProduct(p); err != nil {
			return 0, m.rejected("import", err, "sku", r.SKU)
		}
		products = append(products, p)
	}

	n, err := m.store.ImportProducts(ctx, products, reset)
	if err != nil {
		return 0, m.rejected("import", err, "records", len(records), "reset", reset)
	}
	m.log.Info("catalog imported", "count", n, "reset", reset)
	return n, nil
}

// InitializeFromFile parses the JSON catalog at path and imports it.
func (m *Manager) InitializeFromFile(ctx context.Context, path string, reset bool) (int, error) {
	m.log.Info("import requested", "path", path, "reset", reset)
	catalog, err := importer.LoadFile(path)
	if err != nil {
		return 0, m.rejected("import", err, "path", path)
	}
	return m.InitializeFromImport(ctx, catalog.Records, reset)
}

// ListInventory returns products matching filter, ordered by SKU.
func (m *Manager) ListInventory(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	if err := m.store.EnsureSchema(ctx); err != nil {
		return nil, m.rejected("list", err)
	}
	out, err := m.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, m.rejected("list", err)
	}
	return out, nil
}

// GetProduct returns the product stored under sku.
func (m *Manager) GetProduct(ctx context.Context, sku string) (domain.Product, error) {
	p, err := m.store.FindProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, m.rejected("get", err, "sku", sku)
	}
	return p, nil
}

// AddProduct validates and stores a new product. The price is rounded to
// cents and a missing VAT rate falls back to the configured default.
func (m *Manager) AddProduct(ctx context.Context, in domain.NewProduct) (domain.Product, error) {
	p, err := m.newProduct(in)
	if err != nil {
		return domain.Product{}, m.rejected("add product", err, "sku", in.SKU)
	}

	if _, err := m.store.FindProductBySKU(ctx, p.SKU); err == nil {
		return domain.Product{}, m.rejected("add product",
			domain.NewValidationError("sku", "already exists", p.SKU), "sku", p.SKU)
	} else if !domain.IsProductNotFoundError(err) {
		return domain.Product{}, m.rejected("add product", err, "sku", p.SKU)
	}

	if _, err := m.store.InsertProduct(ctx, &p); err != nil {
		if domain.IsConstraintViolationError(err) {
			err = &domain.ValidationError{Field: "sku", Reason: "already exists", Value: p.SKU, Cause: err}
		}
		return domain.Product{}, m.rejected("add product", err, "sku", p.SKU)
	}
	m.log.Info("product added", "sku", p.SKU, "id", p.ID)
	return p, nil
}

func (m *Manager) newProduct(in domain.NewProduct) (domain.Product, error) {
	sku, err := domain.ValidateRequired("sku", in.SKU)
	if err != nil {
		return domain.Product{}, err
	}
	name, err := domain.ValidateRequired("name", in.Name)
	if err != nil {
		return domain.Product{}, err
	}
	category, err := domain.ValidateRequired("category", in.Category)
	if err != nil {
		return domain.Product{}, err
	}
	if err := domain.ValidateUnitPrice(in.UnitPriceHT); err != nil {
		return domain.Product{}, err
	}
	if err := domain.ValidateStock(in.Quantity); err != nil {
		return domain.Product{}, err
	}
	rate := m.defaultVAT
	if in.VATRate != nil {
		if err := domain.ValidateVATRate(*in.VATRate); err != nil {
			return domain.Product{}, err
		}
		rate = *in.VATRate
	}
	return domain.Product{
		SKU:         sku,
		Name:        name,
		Category:    category,
		UnitPriceHT: domain.RoundMoney(in.UnitPriceHT),
		VATRate:     rate,
		Quantity:    in.Quantity,
		CreatedAt:   m.timestamp(),
	}, nil
}

// UpdateProduct applies the supplied fields and returns the stored result.
func (m *Manager) UpdateProduct(ctx context.Context, sku string, patch domain.ProductPatch) (domain.Product, error) {
	current, err := m.store.FindProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, m.rejected("update product", err, "sku", sku)
	}
	if patch.IsEmpty() {
		return current, nil
	}

	clean, err := sanitizePatch(patch)
	if err != nil {
		return domain.Product{}, m.rejected("update product", err, "sku", sku)
	}
	if err := m.store.UpdateProductFields(ctx, sku, clean); err != nil {
		return domain.Product{}, m.rejected("update product", err, "sku", sku)
	}

	updated, err := m.store.FindProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, m.rejected("update product", err, "sku", sku)
	}
	m.log.Info("product updated", "sku", sku)
	return updated, nil
}

func sanitizePatch(patch domain.ProductPatch) (domain.ProductPatch, error) {
	out := patch
	if patch.Name != nil {
		name, err := domain.ValidateRequired("name", *patch.Name)
		if err != nil {
			return domain.ProductPatch{}, err
		}
		out.Name = &name
	}
	if patch.Category != nil {
		category, err := domain.ValidateRequired("category", *patch.Category)
		if err != nil {
			return domain.ProductPatch{}, err
		}
		out.Category = &category
	}
	if patch.UnitPriceHT != nil {
		if err := domain.ValidateUnitPrice(*patch.UnitPriceHT); err != nil {
			return domain.ProductPatch{}, err
		}
		price := domain.RoundMoney(*patch.UnitPriceHT)
		out.UnitPriceHT = &price
	}
	if patch.Quantity != nil {
		if err := domain.ValidateStock(*patch.Quantity); err != nil {
			return domain.ProductPatch{}, err
		}
	}
	if patch.VATRate != nil {
		if err := domain.ValidateVATRate(*patch.VATRate); err != nil {
			return domain.ProductPatch{}, err
		}
	}
	return out, nil
}

// DeleteProduct removes a product that has never been sold.
func (m *Manager) DeleteProduct(ctx context.Context, sku string) error {
	if _, err := m.store.FindProductBySKU(ctx, sku); err != nil {
		return m.rejected("delete product", err, "sku", sku)
	}
	if err := m.store.DeleteProduct(ctx, sku); err != nil {
		if domain.IsReferentialConflictError(err) {
			err = &domain.ValidationError{
				Field:  "sku",
				Reason: "product has sales and cannot be removed",
				Value:  sku,
				Cause:  err,
			}
		}
		return m.rejected("delete product", err, "sku", sku)
	}
	m.log.Info("product deleted", "sku", sku)
	return nil
}

// SellProduct sells quantity units of sku at its current price and rate.
// Stock and the sales ledger change together or not at all.
func (m *Manager) SellProduct(ctx context.Context, sku string, quantity int) (domain.SaleTotals, error) {
	if err := domain.ValidateSaleQuantity(quantity); err != nil {
		return domain.SaleTotals{}, m.rejected("sell", err, "sku", sku)
	}
	p, err := m.store.FindProductBySKU(ctx, sku)
	if err != nil {
		return domain.SaleTotals{}, m.rejected("sell", err, "sku", sku)
	}
	if quantity > p.Quantity {
		return domain.SaleTotals{}, m.rejected("sell",
			domain.NewStockInsufficientError(sku, quantity, p.Quantity), "sku", sku)
	}

	totals := domain.ComputeTotals(p.UnitPriceHT, quantity, p.VATRate)
	sale := &domain.Sale{
		ProductID:   p.ID,
		SKU:         p.SKU,
		Quantity:    quantity,
		UnitPriceHT: p.UnitPriceHT,
		VATRate:     p.VATRate,
		TotalHT:     totals.TotalHT,
		TotalVAT:    totals.TotalVAT,
		TotalTTC:    totals.TotalTTC,
		SoldAt:      m.timestamp(),
	}
	if err := m.store.RecordSale(ctx, sale); err != nil {
		return domain.SaleTotals{}, m.rejected("sell", err, "sku", sku, "quantity", quantity)
	}
	m.log.Info("sale recorded", "sku", sku, "quantity", quantity, "sale_id", sale.ID, "total_ttc", totals.TotalTTC)
	return totals, nil
}

// GetDashboard aggregates the sales ledger with money rounded to cents.
func (m *Manager) GetDashboard(ctx context.Context) (domain.Dashboard, error) {
	d, err := m.store.DashboardAggregate(ctx)
	if err != nil {
		return domain.Dashboard{}, m.rejected("dashboard", err)
	}
	d.TotalHT = domain.RoundMoney(d.TotalHT)
	d.TotalVAT = domain.RoundMoney(d.TotalVAT)
	d.TotalTTC = domain.RoundMoney(d.TotalTTC)
	return d, nil
}

// ListSales returns the sales ledger in the order it was written.
func (m *Manager) ListSales(ctx context.Context) ([]domain.Sale, error) {
	out, err := m.store.ListSales(ctx)
	if err != nil {
		return nil, m.rejected("list sales", err)
	}
	return out, nil
}
