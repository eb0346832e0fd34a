package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"stockctl/domain"
)

// FileStore is a JSON file-backed domain.InventoryStore. It keeps the full
// ledger in memory and rewrites the snapshot after every mutation; a failed
// write leaves both the file and the in-memory state untouched.
type FileStore struct {
	*InMemoryStore
	path string
}

// compile-time assertion
var _ domain.InventoryStore = (*FileStore)(nil)

type snapshot struct {
	Products      []domain.Product `json:"products"`
	Sales         []domain.Sale    `json:"sales"`
	NextProductID int64            `json:"next_product_id"`
	NextSaleID    int64            `json:"next_sale_id"`
}

// NewFileStore constructs a FileStore at the given path. If the file exists it will be loaded.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		InMemoryStore: NewInMemoryStore(),
		path:          path,
	}
	if err := s.loadFromFile(); err != nil {
		return nil, domain.NewStorageError("load snapshot", err)
	}
	s.persist = s.saveToFile
	return s, nil
}

// Path returns the snapshot location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) loadFromFile() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// no file yet; that's fine
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}

	l := newLedger()
	for _, p := range snap.Products {
		l.products[p.SKU] = p
		if p.ID >= l.nextProductID {
			l.nextProductID = p.ID + 1
		}
	}
	l.sales = snap.Sales
	for _, sale := range snap.Sales {
		if sale.ID >= l.nextSaleID {
			l.nextSaleID = sale.ID + 1
		}
	}
	if snap.NextProductID > l.nextProductID {
		l.nextProductID = snap.NextProductID
	}
	if snap.NextSaleID > l.nextSaleID {
		l.nextSaleID = snap.NextSaleID
	}

	s.mu.Lock()
	s.state = l
	s.mu.Unlock()
	return nil
}

func (s *FileStore) saveToFile(l *ledger) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	snap := snapshot{
		Products:      make([]domain.Product, 0, len(l.products)),
		Sales:         l.sales,
		NextProductID: l.nextProductID,
		NextSaleID:    l.nextSaleID,
	}
	if snap.Sales == nil {
		snap.Sales = []domain.Sale{}
	}
	for _, p := range l.products {
		snap.Products = append(snap.Products, p)
	}
	// stable order for deterministic files
	sort.Slice(snap.Products, func(i, j int) bool { return snap.Products[i].SKU < snap.Products[j].SKU })
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
