// Package store provides storage implementations for the inventory system.
package store

import (
	"context"
	"sort"
	"sync"

	"stockctl/domain"
)

// ledger is the complete state of a non-SQL store.
type ledger struct {
	products      map[string]domain.Product
	sales         []domain.Sale
	nextProductID int64
	nextSaleID    int64
}

func newLedger() *ledger {
	return &ledger{
		products:      make(map[string]domain.Product),
		nextProductID: 1,
		nextSaleID:    1,
	}
}

func (l *ledger) clone() *ledger {
	out := &ledger{
		products:      make(map[string]domain.Product, len(l.products)),
		sales:         make([]domain.Sale, len(l.sales)),
		nextProductID: l.nextProductID,
		nextSaleID:    l.nextSaleID,
	}
	for sku, p := range l.products {
		out.products[sku] = p
	}
	copy(out.sales, l.sales)
	return out
}

func (l *ledger) insert(p *domain.Product) error {
	// mirror the CHECK constraints of the SQL schema
	if err := domain.ValidateUnitPrice(p.UnitPriceHT); err != nil {
		return err
	}
	if err := domain.ValidateVATRate(p.VATRate); err != nil {
		return err
	}
	if err := domain.ValidateStock(p.Quantity); err != nil {
		return err
	}
	if _, exists := l.products[p.SKU]; exists {
		return domain.NewConstraintViolationError("sku", p.SKU)
	}
	p.ID = l.nextProductID
	l.nextProductID++
	l.products[p.SKU] = *p
	return nil
}

func (l *ledger) byID(id int64) (domain.Product, bool) {
	for _, p := range l.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (l *ledger) salesFor(productID int64) int {
	n := 0
	for _, s := range l.sales {
		if s.ProductID == productID {
			n++
		}
	}
	return n
}

// InMemoryStore is a thread-safe in-memory domain.InventoryStore.
// Every mutation works on a copy of the ledger that replaces the live one only
// once it is complete (and persisted, when a persist hook is set).
type InMemoryStore struct {
	mu      sync.RWMutex
	state   *ledger
	persist func(*ledger) error
}

// NewInMemoryStore constructs a new InMemoryStore
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{state: newLedger()}
}

// compile-time assertion that InMemoryStore implements domain.InventoryStore
var _ domain.InventoryStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) mutate(ctx context.Context, op string, fn func(l *ledger) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	if s.persist != nil {
		if err := s.persist(next); err != nil {
			return domain.NewStorageError(op, err)
		}
	}
	s.state = next
	return nil
}

func (s *InMemoryStore) read(ctx context.Context, op string, fn func(l *ledger) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *InMemoryStore) ResetSchema(ctx context.Context) error {
	return s.mutate(ctx, "reset schema", func(l *ledger) error {
		*l = *newLedger()
		return nil
	})
}

// EnsureSchema is a no-op: the ledger always exists.
func (s *InMemoryStore) EnsureSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError("ensure schema", err)
	}
	return nil
}

func (s *InMemoryStore) InsertProduct(ctx context.Context, product *domain.Product) (int64, error) {
	p := *product
	err := s.mutate(ctx, "insert product", func(l *ledger) error {
		return l.insert(&p)
	})
	if err != nil {
		return 0, err
	}
	product.ID = p.ID
	return p.ID, nil
}

func (s *InMemoryStore) ImportProducts(ctx context.Context, products []domain.Product, reset bool) (int, error) {
	count := 0
	err := s.mutate(ctx, "import products", func(l *ledger) error {
		if reset {
			*l = *newLedger()
		}
		for i := range products {
			p := products[i]
			if err := l.insert(&p); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *InMemoryStore) FindProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	var out domain.Product
	err := s.read(ctx, "find product", func(l *ledger) error {
		p, ok := l.products[sku]
		if !ok {
			return domain.NewProductNotFoundError(sku)
		}
		out = p
		return nil
	})
	return out, err
}

func (s *InMemoryStore) ListProducts(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	var out []domain.Product
	err := s.read(ctx, "list products", func(l *ledger) error {
		out = make([]domain.Product, 0, len(l.products))
		for _, p := range l.products {
			if filter.Matches(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (s *InMemoryStore) UpdateProductFields(ctx context.Context, sku string, patch domain.ProductPatch) error {
	return s.mutate(ctx, "update product", func(l *ledger) error {
		p, ok := l.products[sku]
		if !ok {
			return domain.NewProductNotFoundError(sku)
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.UnitPriceHT != nil {
			p.UnitPriceHT = *patch.UnitPriceHT
		}
		if patch.VATRate != nil {
			p.VATRate = *patch.VATRate
		}
		if patch.Quantity != nil {
			p.Quantity = *patch.Quantity
		}
		if err := domain.ValidateProduct(p); err != nil {
			return err
		}
		l.products[sku] = p
		return nil
	})
}

func (s *InMemoryStore) DeleteProduct(ctx context.Context, sku string) error {
	return s.mutate(ctx, "delete product", func(l *ledger) error {
		p, ok := l.products[sku]
		if !ok {
			return domain.NewProductNotFoundError(sku)
		}
		if l.salesFor(p.ID) > 0 {
			return domain.NewReferentialConflictError(sku)
		}
		delete(l.products, sku)
		return nil
	})
}

func (s *InMemoryStore) RecordSale(ctx context.Context, sale *domain.Sale) error {
	rec := *sale
	err := s.mutate(ctx, "record sale", func(l *ledger) error {
		p, ok := l.byID(sale.ProductID)
		if !ok {
			return domain.NewProductNotFoundError(sale.SKU)
		}
		if err := domain.ValidateSaleQuantity(sale.Quantity); err != nil {
			return err
		}
		if p.Quantity < rec.Quantity {
			return domain.NewStockInsufficientError(rec.SKU, rec.Quantity, p.Quantity)
		}
		p.Quantity -= rec.Quantity
		l.products[p.SKU] = p

		rec.ID = l.nextSaleID
		l.nextSaleID++
		l.sales = append(l.sales, rec)
		return nil
	})
	if err != nil {
		return err
	}
	sale.ID = rec.ID
	return nil
}

func (s *InMemoryStore) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var out []domain.Sale
	err := s.read(ctx, "list sales", func(l *ledger) error {
		out = make([]domain.Sale, len(l.sales))
		copy(out, l.sales)
		return nil
	})
	return out, err
}

func (s *InMemoryStore) DashboardAggregate(ctx context.Context) (domain.Dashboard, error) {
	var out domain.Dashboard
	err := s.read(ctx, "dashboard", func(l *ledger) error {
		for _, sale := range l.sales {
			out.SalesCount++
			out.TotalQuantity += int64(sale.Quantity)
			out.TotalHT += sale.TotalHT
			out.TotalVAT += sale.TotalVAT
			out.TotalTTC += sale.TotalTTC
		}
		return nil
	})
	return out, err
}

func (s *InMemoryStore) Close() error { return nil }
