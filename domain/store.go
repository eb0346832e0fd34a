package domain

import "context"

// InventoryStore defines the persistence contract for products and the sales ledger.
//
// Implementations wrap every underlying fault in a StorageError and surface
// constraint failures as ConstraintViolationError, ProductNotFoundError,
// ReferentialConflictError or StockInsufficientError.
type InventoryStore interface {
	// ResetSchema drops and recreates both tables. Existing data is lost.
	ResetSchema(ctx context.Context) error
	// EnsureSchema creates the tables if absent and never destroys data.
	EnsureSchema(ctx context.Context) error

	InsertProduct(ctx context.Context, product *Product) (int64, error)
	// ImportProducts resets or ensures the schema, then inserts products in order,
	// all inside one transaction. Either every product lands or none does.
	ImportProducts(ctx context.Context, products []Product, reset bool) (int, error)
	FindProductBySKU(ctx context.Context, sku string) (Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]Product, error)
	UpdateProductFields(ctx context.Context, sku string, patch ProductPatch) error
	DeleteProduct(ctx context.Context, sku string) error

	// RecordSale appends the sale and decrements stock atomically, filling sale.ID.
	RecordSale(ctx context.Context, sale *Sale) error
	ListSales(ctx context.Context) ([]Sale, error)
	DashboardAggregate(ctx context.Context) (Dashboard, error)

	Close() error
}
