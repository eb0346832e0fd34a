package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"stockctl/domain"
)

func TestInMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.InventoryStore {
		return NewInMemoryStore()
	})
}

func TestInMemoryInsertValidation_TableDriven(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	cases := []struct {
		name    string
		product domain.Product
		wantErr bool
	}{
		{"negative price", domain.Product{SKU: "x1", UnitPriceHT: -1, VATRate: 0.2, Quantity: 1}, true},
		{"negative quantity", domain.Product{SKU: "x2", UnitPriceHT: 1, VATRate: 0.2, Quantity: -5}, true},
		{"rate above one", domain.Product{SKU: "x3", UnitPriceHT: 1, VATRate: 1.5, Quantity: 1}, true},
		{"valid", domain.Product{SKU: "x4", UnitPriceHT: 1, VATRate: 0, Quantity: 0}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.InsertProduct(ctx, &tc.product)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for case %s", tc.name)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestInMemoryCanceledContext(t *testing.T) {
	s := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := sampleProduct("c1", 1, 1)
	if _, err := s.InsertProduct(ctx, &p); !domain.IsStorageError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected storage error wrapping context.Canceled, got %v", err)
	}
	if _, err := s.ListProducts(ctx, domain.ListFilter{}); !domain.IsStorageError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected storage error wrapping context.Canceled, got %v", err)
	}
	if _, err := s.DashboardAggregate(ctx); !domain.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestInMemoryPersistFailureKeepsState(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	p := sampleProduct("keep", 1, 4)
	if _, err := s.InsertProduct(ctx, &p); err != nil {
		t.Fatalf("setup insert failed: %v", err)
	}

	s.persist = func(*ledger) error { return errors.New("disk full") }
	sale := saleFor(p, 2)
	err := s.RecordSale(ctx, sale)
	if !domain.IsStorageError(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if sale.ID != 0 {
		t.Fatalf("sale id must stay unset on failure, got %d", sale.ID)
	}

	got, _ := s.FindProductBySKU(ctx, "keep")
	if got.Quantity != 4 {
		t.Fatalf("quantity changed after failed persist: %d", got.Quantity)
	}
	sales, _ := s.ListSales(ctx)
	if len(sales) != 0 {
		t.Fatalf("ledger changed after failed persist: %+v", sales)
	}
}

func TestInMemoryConcurrentSalesNeverOversell(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	p := sampleProduct("hot", 1, 50)
	if _, err := s.InsertProduct(ctx, &p); err != nil {
		t.Fatalf("setup insert failed: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sale := saleFor(p, 1)
			sale.SoldAt = "t" + strconv.Itoa(i)
			if err := s.RecordSale(ctx, sale); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !domain.IsStockInsufficientError(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 50 {
		t.Fatalf("expected 50 successful sales, got %d", ok)
	}
	got, _ := s.FindProductBySKU(ctx, "hot")
	if got.Quantity != 0 {
		t.Fatalf("expected stock 0, got %d", got.Quantity)
	}
}
