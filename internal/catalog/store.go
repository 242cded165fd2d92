package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

const productsKey = "farmerProducts"

// Form carries the farmer-editable product fields.
type Form struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Stock       *int    `json:"stock"`
}

// Store owns the merged catalog: the fixed sample set plus the
// persisted farmer-authored set. Only the farmer-authored set is ever
// written, and only under the "farmerProducts" key.
type Store struct {
	kv  storage.KeyValueStore
	bus signal.Bus

	// mu keeps every read-modify-persist a single step and guards the
	// id counter
	mu     sync.Mutex
	lastID int64
}

func NewStore(kv storage.KeyValueStore, bus signal.Bus) *Store {
	return &Store{kv: kv, bus: bus}
}

// nextID returns a fresh product id. Ids derive from the wall clock in
// milliseconds but advance monotonically, so rapid successive creates
// never collide with each other or with the sample ids 1..6.
func (s *Store) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) load(ctx context.Context) ([]Product, error) {
	raw, err := s.kv.Get(ctx, productsKey)
	if err == storage.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) save(ctx context.Context, products []Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, productsKey, string(data))
}

// List returns sample products first in declaration order, then
// farmer-authored products in persistence order. A non-empty query
// filters case-insensitively on name or category.
func (s *Store) List(ctx context.Context, query string) ([]Product, error) {
	farmerProducts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	merged := append(SampleProducts(), farmerProducts...)
	if query == "" {
		return merged, nil
	}

	q := strings.ToLower(query)
	out := make([]Product, 0, len(merged))
	for _, p := range merged {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns a single product from the merged catalog.
func (s *Store) Get(ctx context.Context, id int64) (Product, error) {
	products, err := s.List(ctx, "")
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, apperr.ErrNotFound
}

// Create adds a farmer-authored product owned by the identity.
func (s *Store) Create(ctx context.Context, id session.Identity, form Form) (Product, error) {
	if !id.IsFarmer() {
		return Product{}, apperr.ErrForbidden
	}
	if form.Name == "" {
		return Product{}, errors.New("product name is required")
	}
	if form.Price <= 0 {
		return Product{}, errors.New("product price must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return Product{}, err
	}

	farmName := id.Location
	if farmName == "" {
		farmName = id.DisplayName
	}

	product := Product{
		ID:          s.nextID(),
		Name:        form.Name,
		FarmName:    farmName,
		OwnerEmail:  id.Email,
		Location:    form.Location,
		Price:       form.Price,
		Unit:        form.Unit,
		Category:    form.Category,
		Image:       form.Image,
		Description: form.Description,
		Stock:       form.Stock,
	}

	if err := s.save(ctx, append(products, product)); err != nil {
		return Product{}, err
	}
	s.bus.Publish(signal.CatalogChanged)
	return product, nil
}

// Update replaces an owned product's editable fields in place, keeping
// its id and accumulated order/sales counters.
func (s *Store) Update(ctx context.Context, id session.Identity, productID int64, form Form) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return Product{}, err
	}

	for i, p := range products {
		if p.ID != productID {
			continue
		}
		if p.OwnerEmail != id.Email {
			return Product{}, apperr.ErrForbidden
		}

		p.Name = form.Name
		p.Location = form.Location
		p.Price = form.Price
		p.Unit = form.Unit
		p.Category = form.Category
		p.Image = form.Image
		p.Description = form.Description
		p.Stock = form.Stock

		products[i] = p
		if err := s.save(ctx, products); err != nil {
			return Product{}, err
		}
		s.bus.Publish(signal.CatalogChanged)
		return p, nil
	}

	// sample products and unknown ids are both off limits
	return Product{}, apperr.ErrForbidden
}

// Delete removes an owned product from the persisted set.
func (s *Store) Delete(ctx context.Context, id session.Identity, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i, p := range products {
		if p.ID != productID {
			continue
		}
		if p.OwnerEmail != id.Email {
			return apperr.ErrForbidden
		}
		if err := s.save(ctx, append(products[:i], products[i+1:]...)); err != nil {
			return err
		}
		s.bus.Publish(signal.CatalogChanged)
		return nil
	}
	return apperr.ErrForbidden
}

// RecordFulfillment accumulates a delivered farmer order into the
// product's counters and decrements its stock, never below zero. The
// whole update is a single write of the persisted set. Products that
// are not farmer-authored (or no longer exist) are left alone.
func (s *Store) RecordFulfillment(ctx context.Context, productID int64, unitsDelivered int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i, p := range products {
		if p.ID != productID {
			continue
		}
		p.Orders++
		p.Sales += unitsDelivered
		if p.Stock != nil {
			remaining := *p.Stock - unitsDelivered
			if remaining < 0 {
				remaining = 0
			}
			p.Stock = &remaining
		}
		products[i] = p
		if err := s.save(ctx, products); err != nil {
			return err
		}
		s.bus.Publish(signal.CatalogChanged)
		return nil
	}
	return nil
}
