// Package tenant manages the product and sales collections of the active
// identity's partition. The service subscribes to session changes and
// swaps its in-memory state to the new partition; admin identities own no
// partition, so every operation is inert for them.
package tenant

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bizflow/bizflow/internal/identity"
	"github.com/bizflow/bizflow/internal/kvstore"
	"github.com/bizflow/bizflow/internal/models"
)

// ProductInput carries the caller-supplied product fields. Id and owner
// are assigned by the service.
type ProductInput struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	CostPrice     float64 `json:"costPrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	StockQuantity int     `json:"stockQuantity"`
	MinStockLevel int     `json:"minStockLevel"`
}

// Summary aggregates the tenant's sales log and flags low-stock products.
type Summary struct {
	TotalRevenue float64          `json:"totalRevenue"`
	TotalProfit  float64          `json:"totalProfit"`
	TotalUnits   int              `json:"totalUnits"`
	SaleCount    int              `json:"saleCount"`
	LowStock     []models.Product `json:"lowStock"`
}

type Service struct {
	store kvstore.Store
	log   *slog.Logger

	mu       sync.Mutex
	owner    *models.User
	products []models.Product
	sales    []models.Sale
}

// NewService loads the partition of the current session, if any, and
// subscribes to session changes so the partition follows the identity.
func NewService(store kvstore.Store, ids *identity.Service, log *slog.Logger) (*Service, error) {
	s := &Service{store: store, log: log, owner: ids.CurrentUser()}
	if err := s.reload(); err != nil {
		return nil, err
	}
	ids.Subscribe(s.sessionChanged)
	return s, nil
}

func (s *Service) sessionChanged(u *models.User) {
	s.mu.Lock()
	s.owner = u
	err := s.reloadLocked()
	s.mu.Unlock()
	if err != nil {
		s.log.Error("reload tenant partition", "error", err)
	}
}

// Reload rereads the active partition from storage, replacing the
// in-memory collections. Without a tenant identity it clears them.
func (s *Service) Reload() error {
	return s.reload()
}

func (s *Service) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

func (s *Service) reloadLocked() error {
	s.products = nil
	s.sales = nil
	if s.owner == nil || s.owner.Role == models.RoleAdmin {
		return nil
	}

	raw, ok, err := s.store.Get(kvstore.ProductsKey(s.owner.ID))
	if err != nil {
		return err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.products); err != nil {
			return fmt.Errorf("decode products partition: %w", err)
		}
	}

	raw, ok, err = s.store.Get(kvstore.SalesKey(s.owner.ID))
	if err != nil {
		return err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.sales); err != nil {
			return fmt.Errorf("decode sales partition: %w", err)
		}
	}
	return nil
}

// Products returns a copy of the in-memory product collection.
func (s *Service) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.products...)
}

// Sales returns a copy of the in-memory sales log, most recent first.
func (s *Service) Sales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.sales...)
}

// AddProduct appends a product owned by the active identity and persists
// the partition. Without an active identity it does nothing.
func (s *Service) AddProduct(in ProductInput) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == nil {
		return nil, nil
	}

	p := models.Product{
		ID:            uuid.NewString(),
		OwnerID:       s.owner.ID,
		Name:          in.Name,
		Category:      in.Category,
		CostPrice:     in.CostPrice,
		SellingPrice:  in.SellingPrice,
		StockQuantity: in.StockQuantity,
		MinStockLevel: in.MinStockLevel,
	}
	s.products = append(s.products, p)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct replaces the product with the same id. The supplied owner
// must match the active identity; any other caller changes nothing and
// gets nil back, like AddProduct without a session.
func (s *Service) UpdateProduct(p models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == nil || p.OwnerID != s.owner.ID {
		return nil, nil
	}
	idx := -1
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			idx = i
		}
	}
	if idx == -1 {
		return nil, nil
	}
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	stored := s.products[idx]
	return &stored, nil
}

// DeleteProduct removes the product with the given id, persists, and
// returns the removed product, nil if nothing matched. There is no
// owner-match check, unlike UpdateProduct; the in-memory collection only
// ever holds the active partition.
func (s *Service) DeleteProduct(id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == nil {
		return nil, nil
	}
	var removed *models.Product
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
			continue
		}
		rp := p
		removed = &rp
	}
	if removed == nil {
		return nil, nil
	}
	s.products = kept
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return removed, nil
}

// RecordSale snapshots the product's current price and cost into a new
// sale at the head of the log and decrements stock. A sale that would
// drive stock negative is rejected whole; there is no partial sale.
func (s *Service) RecordSale(productID string, quantity int) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == nil {
		return nil, nil
	}

	idx := -1
	for i := range s.products {
		if s.products[i].ID == productID {
			idx = i
			break
		}
	}
	if idx == -1 || s.products[idx].StockQuantity < quantity {
		return nil, nil
	}

	p := s.products[idx]
	sale := models.Sale{
		ID:          uuid.NewString(),
		OwnerID:     s.owner.ID,
		ProductID:   productID,
		ProductName: p.Name,
		Quantity:    quantity,
		UnitPrice:   p.SellingPrice,
		UnitCost:    p.CostPrice,
		TotalPrice:  p.SellingPrice * float64(quantity),
		TotalProfit: (p.SellingPrice - p.CostPrice) * float64(quantity),
		Timestamp:   models.NowMillis(),
	}

	s.sales = append([]models.Sale{sale}, s.sales...)
	s.products[idx].StockQuantity -= quantity
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &sale, nil
}

// Summary totals the sales log and collects products at or below their
// minimum stock level.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	for _, sale := range s.sales {
		sum.TotalRevenue += sale.TotalPrice
		sum.TotalProfit += sale.TotalProfit
		sum.TotalUnits += sale.Quantity
	}
	sum.SaleCount = len(s.sales)
	for _, p := range s.products {
		if p.StockQuantity <= p.MinStockLevel {
			sum.LowStock = append(sum.LowStock, p)
		}
	}
	return sum
}

// persistLocked writes both collections of the partition. The two blobs
// are independent writes; an interruption between them can leave one
// collection ahead of the other.
func (s *Service) persistLocked() error {
	if s.owner == nil || s.owner.Role == models.RoleAdmin {
		return nil
	}

	// empty collections serialize as [] to match the stored blob format
	if s.products == nil {
		s.products = []models.Product{}
	}
	if s.sales == nil {
		s.sales = []models.Sale{}
	}

	products, err := json.Marshal(s.products)
	if err != nil {
		return fmt.Errorf("encode products partition: %w", err)
	}
	if err := s.store.Set(kvstore.ProductsKey(s.owner.ID), string(products)); err != nil {
		return err
	}

	sales, err := json.Marshal(s.sales)
	if err != nil {
		return fmt.Errorf("encode sales partition: %w", err)
	}
	return s.store.Set(kvstore.SalesKey(s.owner.ID), string(sales))
}
