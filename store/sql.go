package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stockctl/domain"
	"stockctl/logging"
)

type productRow struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	SKU         string  `gorm:"column:sku"`
	Name        string  `gorm:"column:name"`
	Category    string  `gorm:"column:category"`
	UnitPriceHT float64 `gorm:"column:unit_price_ht"`
	VATRate     float64 `gorm:"column:vat_rate"`
	Quantity    int     `gorm:"column:quantity"`
	CreatedAt   string  `gorm:"column:created_at;autoCreateTime:false"`
}

func (productRow) TableName() string { return "products" }

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		SKU:         r.SKU,
		Name:        r.Name,
		Category:    r.Category,
		UnitPriceHT: r.UnitPriceHT,
		VATRate:     r.VATRate,
		Quantity:    r.Quantity,
		CreatedAt:   r.CreatedAt,
	}
}

func productRowFrom(p domain.Product) productRow {
	return productRow{
		SKU:         p.SKU,
		Name:        p.Name,
		Category:    p.Category,
		UnitPriceHT: p.UnitPriceHT,
		VATRate:     p.VATRate,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
	}
}

type saleRow struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID   int64   `gorm:"column:product_id"`
	SKU         string  `gorm:"column:sku"`
	Quantity    int     `gorm:"column:quantity"`
	UnitPriceHT float64 `gorm:"column:unit_price_ht"`
	VATRate     float64 `gorm:"column:vat_rate"`
	TotalHT     float64 `gorm:"column:total_ht"`
	TotalVAT    float64 `gorm:"column:total_vat"`
	TotalTTC    float64 `gorm:"column:total_ttc"`
	SoldAt      string  `gorm:"column:sold_at"`
}

func (saleRow) TableName() string { return "sales" }

func (r saleRow) toDomain() domain.Sale {
	return domain.Sale{
		ID:          r.ID,
		ProductID:   r.ProductID,
		SKU:         r.SKU,
		Quantity:    r.Quantity,
		UnitPriceHT: r.UnitPriceHT,
		VATRate:     r.VATRate,
		TotalHT:     r.TotalHT,
		TotalVAT:    r.TotalVAT,
		TotalTTC:    r.TotalTTC,
		SoldAt:      r.SoldAt,
	}
}

type dashboardRow struct {
	SalesCount    int64   `gorm:"column:sales_count"`
	TotalQuantity int64   `gorm:"column:total_quantity"`
	TotalHT       float64 `gorm:"column:total_ht"`
	TotalVAT      float64 `gorm:"column:total_vat"`
	TotalTTC      float64 `gorm:"column:total_ttc"`
}

// SQLStore is a gorm-backed domain.InventoryStore for sqlite or postgres.
// Each method runs its statements on a pooled connection that is handed back
// before it returns; RecordSale, ImportProducts and DeleteProduct run inside a
// single transaction.
type SQLStore struct {
	db      *gorm.DB
	dialect string
	log     *slog.Logger
}

// compile-time assertion
var _ domain.InventoryStore = (*SQLStore)(nil)

// SQLOptions tunes the SQL store.
type SQLOptions struct {
	// Debug makes gorm log every statement.
	Debug  bool
	Logger *slog.Logger
}

// SQLiteDSN builds the go-sqlite3 DSN for path with foreign keys enforced on every connection.
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// OpenSQLite opens (creating if needed) the sqlite database at path.
func OpenSQLite(path string, opts SQLOptions) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.NewStorageError("open database", err)
		}
	}
	s, err := open(sqlite.Open(SQLiteDSN(path)), DialectSQLite, opts)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, domain.NewStorageError("open database", err)
	}
	// single writer: one connection also keeps a :memory: database alive
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// OpenPostgres connects to the postgres database described by dsn.
func OpenPostgres(dsn string, opts SQLOptions) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	return open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), DialectPostgres, opts)
}

func open(dialector gorm.Dialector, dialect string, opts SQLOptions) (*SQLStore, error) {
	level := gormlogger.Silent
	if opts.Debug {
		level = gormlogger.Info
	}
	cfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(level),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, domain.NewStorageError("open database", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger.Debug("database opened", "dialect", dialect)
	return &SQLStore{db: conn, dialect: dialect, log: logger}, nil
}

// Dialect reports which SQL dialect the store speaks.
func (s *SQLStore) Dialect() string { return s.dialect }

// withTx executes fn inside a transaction, rolling back on error/panic.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func execAll(tx *gorm.DB, stmts []string) error {
	for _, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) ResetSchema(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if err := execAll(tx, dropStatements); err != nil {
			return err
		}
		return execAll(tx, schemaStatements(s.dialect))
	})
	if err != nil {
		return translate("reset schema", "", err)
	}
	s.log.Info("schema reset", "dialect", s.dialect)
	return nil
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		return execAll(tx, schemaStatements(s.dialect))
	})
	return translate("ensure schema", "", err)
}

func (s *SQLStore) InsertProduct(ctx context.Context, product *domain.Product) (int64, error) {
	row := productRowFrom(*product)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, translate("insert product", product.SKU, err)
	}
	product.ID = row.ID
	return row.ID, nil
}

func (s *SQLStore) ImportProducts(ctx context.Context, products []domain.Product, reset bool) (int, error) {
	count := 0
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if reset {
			if err := execAll(tx, dropStatements); err != nil {
				return translate("reset schema", "", err)
			}
		}
		if err := execAll(tx, schemaStatements(s.dialect)); err != nil {
			return translate("ensure schema", "", err)
		}
		for _, p := range products {
			row := productRowFrom(p)
			if err := tx.Create(&row).Error; err != nil {
				return translate("import products", p.SKU, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, translate("import products", "", err)
	}
	return count, nil
}

func (s *SQLStore) FindProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&row).Error; err != nil {
		return domain.Product{}, translate("find product", sku, err)
	}
	return row.toDomain(), nil
}

func (s *SQLStore) ListProducts(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	q := s.db.WithContext(ctx).Model(&productRow{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("unit_price_ht >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("unit_price_ht <= ?", *filter.MaxPrice)
	}

	var rows []productRow
	if err := q.Order("sku ASC").Find(&rows).Error; err != nil {
		return nil, translate("list products", "", err)
	}
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func patchColumns(patch domain.ProductPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if patch.Name != nil {
		cols["name"] = *patch.Name
	}
	if patch.Category != nil {
		cols["category"] = *patch.Category
	}
	if patch.UnitPriceHT != nil {
		cols["unit_price_ht"] = *patch.UnitPriceHT
	}
	if patch.VATRate != nil {
		cols["vat_rate"] = *patch.VATRate
	}
	if patch.Quantity != nil {
		cols["quantity"] = *patch.Quantity
	}
	return cols
}

func (s *SQLStore) UpdateProductFields(ctx context.Context, sku string, patch domain.ProductPatch) error {
	cols := patchColumns(patch)
	if len(cols) == 0 {
		_, err := s.FindProductBySKU(ctx, sku)
		return err
	}

	res := s.db.WithContext(ctx).Model(&productRow{}).Where("sku = ?", sku).Updates(cols)
	if res.Error != nil {
		return translate("update product", sku, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewProductNotFoundError(sku)
	}
	return nil
}

func (s *SQLStore) DeleteProduct(ctx context.Context, sku string) error {
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var row productRow
		if err := tx.Where("sku = ?", sku).First(&row).Error; err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&saleRow{}).Where("product_id = ?", row.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return domain.NewReferentialConflictError(sku)
		}
		return tx.Delete(&productRow{}, row.ID).Error
	})
	return translate("delete product", sku, err)
}

// RecordSale decrements stock with a guarded update and appends the sale in
// the same transaction. The guard refuses to take quantity below zero even if
// the stock moved since the caller last read it.
func (s *SQLStore) RecordSale(ctx context.Context, sale *domain.Sale) error {
	var id int64
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&productRow{}).
			Where("id = ? AND quantity >= ?", sale.ProductID, sale.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", sale.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current productRow
			if err := tx.Where("id = ?", sale.ProductID).First(&current).Error; err != nil {
				return err
			}
			return domain.NewStockInsufficientError(sale.SKU, sale.Quantity, current.Quantity)
		}

		row := saleRow{
			ProductID:   sale.ProductID,
			SKU:         sale.SKU,
			Quantity:    sale.Quantity,
			UnitPriceHT: sale.UnitPriceHT,
			VATRate:     sale.VATRate,
			TotalHT:     sale.TotalHT,
			TotalVAT:    sale.TotalVAT,
			TotalTTC:    sale.TotalTTC,
			SoldAt:      sale.SoldAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewProductNotFoundError(sale.SKU)
		}
		return translate("record sale", sale.SKU, err)
	}
	sale.ID = id
	s.log.Debug("sale row written", "sale_id", id, "sku", sale.SKU, "quantity", sale.Quantity)
	return nil
}

func (s *SQLStore) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var rows []saleRow
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate("list sales", "", err)
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *SQLStore) DashboardAggregate(ctx context.Context) (domain.Dashboard, error) {
	var row dashboardRow
	if err := s.db.WithContext(ctx).Raw(dashboardQuery).Scan(&row).Error; err != nil {
		return domain.Dashboard{}, translate("dashboard aggregate", "", err)
	}
	return domain.Dashboard{
		SalesCount:    row.SalesCount,
		TotalQuantity: row.TotalQuantity,
		TotalHT:       row.TotalHT,
		TotalVAT:      row.TotalVAT,
		TotalTTC:      row.TotalTTC,
	}, nil
}

// Close shuts down the pooled connections.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return domain.NewStorageError("close database", err)
	}
	if err := sqlDB.Close(); err != nil {
		return domain.NewStorageError("close database", err)
	}
	return nil
}
