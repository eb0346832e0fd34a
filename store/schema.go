package store

import "strings"

// Dialect names accepted by the SQL store.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var dropStatements = []string{
	`DROP TABLE IF EXISTS sales`,
	`DROP TABLE IF EXISTS products`,
}

// schemaTemplate holds the DDL with {{id}}, {{real}} and {{ref}} placeholders
// filled per dialect.
var schemaTemplate = []string{
	`CREATE TABLE IF NOT EXISTS products (
  id {{id}},
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  unit_price_ht {{real}} NOT NULL CHECK(unit_price_ht >= 0),
  vat_rate {{real}} NOT NULL DEFAULT 0.20 CHECK(vat_rate >= 0 AND vat_rate <= 1),
  quantity INTEGER NOT NULL CHECK(quantity >= 0),
  created_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS sales (
  id {{id}},
  product_id {{ref}} NOT NULL,
  sku TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK(quantity > 0),
  unit_price_ht {{real}} NOT NULL CHECK(unit_price_ht >= 0),
  vat_rate {{real}} NOT NULL CHECK(vat_rate >= 0 AND vat_rate <= 1),
  total_ht {{real}} NOT NULL CHECK(total_ht >= 0),
  total_vat {{real}} NOT NULL CHECK(total_vat >= 0),
  total_ttc {{real}} NOT NULL CHECK(total_ttc >= 0),
  sold_at TEXT NOT NULL,
  FOREIGN KEY(product_id) REFERENCES products(id) ON DELETE RESTRICT
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_sku ON sales(sku)`,
}

var dialectTypes = map[string]*strings.Replacer{
	DialectSQLite: strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{real}}", "REAL",
		"{{ref}}", "INTEGER",
	),
	DialectPostgres: strings.NewReplacer(
		"{{id}}", "BIGSERIAL PRIMARY KEY",
		"{{real}}", "DOUBLE PRECISION",
		"{{ref}}", "BIGINT",
	),
}

// schemaStatements renders the create statements for dialect.
func schemaStatements(dialect string) []string {
	r, ok := dialectTypes[dialect]
	if !ok {
		r = dialectTypes[DialectSQLite]
	}
	out := make([]string, len(schemaTemplate))
	for i, stmt := range schemaTemplate {
		out[i] = r.Replace(stmt)
	}
	return out
}

const dashboardQuery = `SELECT
  COUNT(*) AS sales_count,
  CAST(COALESCE(SUM(quantity), 0) AS BIGINT) AS total_quantity,
  COALESCE(SUM(total_ht), 0) AS total_ht,
  COALESCE(SUM(total_vat), 0) AS total_vat,
  COALESCE(SUM(total_ttc), 0) AS total_ttc
FROM sales`
