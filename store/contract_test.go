package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockctl/domain"
)

type storeFactory func(t *testing.T) domain.InventoryStore

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func sampleProduct(sku string, price float64, qty int) domain.Product {
	return domain.Product{
		SKU:         sku,
		Name:        "Item " + sku,
		Category:    "C1",
		UnitPriceHT: price,
		VATRate:     0.2,
		Quantity:    qty,
		CreatedAt:   "2024-01-02T03:04:05Z",
	}
}

func saleFor(p domain.Product, qty int) *domain.Sale {
	t := domain.ComputeTotals(p.UnitPriceHT, qty, p.VATRate)
	return &domain.Sale{
		ProductID:   p.ID,
		SKU:         p.SKU,
		Quantity:    qty,
		UnitPriceHT: p.UnitPriceHT,
		VATRate:     p.VATRate,
		TotalHT:     t.TotalHT,
		TotalVAT:    t.TotalVAT,
		TotalTTC:    t.TotalTTC,
		SoldAt:      "2024-01-02T04:00:00Z",
	}
}

// runStoreContract exercises behaviour every backend must share.
func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("insert assigns id and rejects duplicate sku", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p := sampleProduct("P001", 10, 5)
		id, err := s.InsertProduct(ctx, &p)
		require.NoError(t, err)
		assert.Positive(t, id)
		assert.Equal(t, id, p.ID)

		dup := sampleProduct("P001", 3, 1)
		_, err = s.InsertProduct(ctx, &dup)
		require.Error(t, err)
		assert.True(t, domain.IsConstraintViolationError(err), "got %v", err)
		assert.Zero(t, dup.ID)
	})

	t.Run("find missing sku", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindProductBySKU(context.Background(), "nope")
		assert.True(t, domain.IsProductNotFoundError(err), "got %v", err)
	})

	t.Run("list is ordered by sku and filtered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, p := range []domain.Product{
			sampleProduct("C3", 80, 1),
			sampleProduct("A1", 50, 4),
			sampleProduct("B2", 20, 2),
		} {
			p := p
			_, err := s.InsertProduct(ctx, &p)
			require.NoError(t, err)
		}
		require.NoError(t, s.UpdateProductFields(ctx, "B2", domain.ProductPatch{Category: strPtr("C2")}))

		all, err := s.ListProducts(ctx, domain.ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"A1", "B2", "C3"}, []string{all[0].SKU, all[1].SKU, all[2].SKU})

		c1, err := s.ListProducts(ctx, domain.ListFilter{Category: "C1"})
		require.NoError(t, err)
		assert.Len(t, c1, 2)

		cheap, err := s.ListProducts(ctx, domain.ListFilter{MaxPrice: floatPtr(30)})
		require.NoError(t, err)
		require.Len(t, cheap, 1)
		assert.Equal(t, "B2", cheap[0].SKU)

		mid, err := s.ListProducts(ctx, domain.ListFilter{MinPrice: floatPtr(30), MaxPrice: floatPtr(60)})
		require.NoError(t, err)
		require.Len(t, mid, 1)
		assert.Equal(t, "A1", mid[0].SKU)
	})

	t.Run("update applies only supplied fields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := sampleProduct("U1", 4.5, 3)
		_, err := s.InsertProduct(ctx, &p)
		require.NoError(t, err)

		require.NoError(t, s.UpdateProductFields(ctx, "U1", domain.ProductPatch{
			UnitPriceHT: floatPtr(7.75),
			Quantity:    intPtr(9),
		}))
		got, err := s.FindProductBySKU(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, 7.75, got.UnitPriceHT)
		assert.Equal(t, 9, got.Quantity)
		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, p.VATRate, got.VATRate)
		assert.Equal(t, p.ID, got.ID)

		require.NoError(t, s.UpdateProductFields(ctx, "U1", domain.ProductPatch{}))

		err = s.UpdateProductFields(ctx, "missing", domain.ProductPatch{Name: strPtr("x")})
		assert.True(t, domain.IsProductNotFoundError(err), "got %v", err)
		err = s.UpdateProductFields(ctx, "missing", domain.ProductPatch{})
		assert.True(t, domain.IsProductNotFoundError(err), "got %v", err)
	})

	t.Run("record sale decrements stock and appends ledger", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := sampleProduct("P001", 10, 5)
		_, err := s.InsertProduct(ctx, &p)
		require.NoError(t, err)

		sale := saleFor(p, 2)
		require.NoError(t, s.RecordSale(ctx, sale))
		assert.Positive(t, sale.ID)

		got, err := s.FindProductBySKU(ctx, "P001")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Quantity)

		sales, err := s.ListSales(ctx)
		require.NoError(t, err)
		require.Len(t, sales, 1)
		assert.Equal(t, *sale, sales[0])
	})

	t.Run("record sale beyond stock writes nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := sampleProduct("P002", 10, 1)
		_, err := s.InsertProduct(ctx, &p)
		require.NoError(t, err)

		err = s.RecordSale(ctx, saleFor(p, 2))
		var insufficient *domain.StockInsufficientError
		require.True(t, errors.As(err, &insufficient), "got %v", err)
		assert.Equal(t, 1, insufficient.Remaining)

		got, err := s.FindProductBySKU(ctx, "P002")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Quantity)
		sales, err := s.ListSales(ctx)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})

	t.Run("record sale for unknown product", func(t *testing.T) {
		s := newStore(t)
		ghost := sampleProduct("GHOST", 1, 1)
		ghost.ID = 999
		err := s.RecordSale(context.Background(), saleFor(ghost, 1))
		assert.True(t, domain.IsProductNotFoundError(err), "got %v", err)
	})

	t.Run("delete is restricted by sales", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		sold := sampleProduct("SOLD", 2, 4)
		idle := sampleProduct("IDLE", 2, 4)
		_, err := s.InsertProduct(ctx, &sold)
		require.NoError(t, err)
		_, err = s.InsertProduct(ctx, &idle)
		require.NoError(t, err)
		require.NoError(t, s.RecordSale(ctx, saleFor(sold, 1)))

		err = s.DeleteProduct(ctx, "SOLD")
		assert.True(t, domain.IsReferentialConflictError(err), "got %v", err)
		_, err = s.FindProductBySKU(ctx, "SOLD")
		assert.NoError(t, err)

		require.NoError(t, s.DeleteProduct(ctx, "IDLE"))
		_, err = s.FindProductBySKU(ctx, "IDLE")
		assert.True(t, domain.IsProductNotFoundError(err))

		err = s.DeleteProduct(ctx, "IDLE")
		assert.True(t, domain.IsProductNotFoundError(err), "got %v", err)
	})

	t.Run("dashboard sums the ledger", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		empty, err := s.DashboardAggregate(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Dashboard{}, empty)

		a := sampleProduct("A", 10, 10)
		b := sampleProduct("B", 19.99, 10)
		b.VATRate = 0.055
		_, err = s.InsertProduct(ctx, &a)
		require.NoError(t, err)
		_, err = s.InsertProduct(ctx, &b)
		require.NoError(t, err)
		require.NoError(t, s.RecordSale(ctx, saleFor(a, 2)))
		require.NoError(t, s.RecordSale(ctx, saleFor(b, 3)))

		d, err := s.DashboardAggregate(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), d.SalesCount)
		assert.Equal(t, int64(5), d.TotalQuantity)
		assert.InDelta(t, 79.97, d.TotalHT, 1e-9)
		assert.InDelta(t, 7.30, d.TotalVAT, 1e-9)
		assert.InDelta(t, 87.27, d.TotalTTC, 1e-9)
	})

	t.Run("import is all or nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		keep := sampleProduct("KEEP", 1, 1)
		_, err := s.InsertProduct(ctx, &keep)
		require.NoError(t, err)

		batch := []domain.Product{sampleProduct("N1", 1, 1), sampleProduct("N1", 2, 2)}
		for _, reset := range []bool{false, true} {
			n, err := s.ImportProducts(ctx, batch, reset)
			require.Error(t, err, "reset=%v", reset)
			assert.True(t, domain.IsConstraintViolationError(err), "got %v", err)
			assert.Zero(t, n)

			all, err := s.ListProducts(ctx, domain.ListFilter{})
			require.NoError(t, err)
			require.Len(t, all, 1, "reset=%v", reset)
			assert.Equal(t, "KEEP", all[0].SKU)
		}

		n, err := s.ImportProducts(ctx, []domain.Product{sampleProduct("N1", 1, 1), sampleProduct("N2", 1, 1)}, false)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		all, err := s.ListProducts(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		n, err = s.ImportProducts(ctx, []domain.Product{sampleProduct("Z9", 1, 1)}, true)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		all, err = s.ListProducts(ctx, domain.ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Z9", all[0].SKU)
	})

	t.Run("reset schema discards data and ensure is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		p := sampleProduct("R1", 1, 3)
		_, err := s.InsertProduct(ctx, &p)
		require.NoError(t, err)
		require.NoError(t, s.RecordSale(ctx, saleFor(p, 1)))

		require.NoError(t, s.EnsureSchema(ctx))
		require.NoError(t, s.EnsureSchema(ctx))
		all, err := s.ListProducts(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)

		require.NoError(t, s.ResetSchema(ctx))
		all, err = s.ListProducts(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
		sales, err := s.ListSales(ctx)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})
}
