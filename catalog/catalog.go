// Package catalog fetches product listings and applies the client-side
// refinements (type filter, price sort, discount filter) the listing page
// offers on top of the API's own search and category endpoints.
package catalog

import (
	"context"
	"sort"
	"strings"

	"trendora-client/api"
	"trendora-client/localstore"
	"trendora-client/logger"
	"trendora-client/models"
)

const keyProductCache = "productCache"

// Service fetches listings and keeps the last good full listing cached in
// the local store so the listing page still renders when the network is down.
type Service struct {
	api   *api.Client
	store localstore.Store
}

func NewService(client *api.Client, store localstore.Store) *Service {
	return &Service{api: client, store: store}
}

// Products returns the full catalog. On success the listing is cached; on
// network failure the last cached listing is served instead, and the error
// is only returned when there is no cache to fall back on.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	products, err := s.api.Products(ctx)
	if err != nil {
		var cached []models.Product
		if localstore.GetJSON(s.store, keyProductCache, &cached) {
			logger.Get().Warn().Err(err).Msg("serving cached product listing")
			return cached, nil
		}
		return nil, err
	}
	_ = localstore.PutJSON(s.store, keyProductCache, products)
	return products, nil
}

// Search passes the query through to the API.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	return s.api.SearchProducts(ctx, query)
}

// ByCategory passes the category name through to the API.
func (s *Service) ByCategory(ctx context.Context, name string) ([]models.Product, error) {
	return s.api.ProductsByCategory(ctx, name)
}

// FilterByType keeps only products of the given type (case-insensitive).
// An empty type keeps everything.
func FilterByType(products []models.Product, typ string) []models.Product {
	if typ == "" {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Type, typ) {
			out = append(out, p)
		}
	}
	return out
}

// DiscountedOnly keeps products with a strike-through price.
func DiscountedOnly(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Discounted() {
			out = append(out, p)
		}
	}
	return out
}

// SortByPrice returns a copy sorted by price. Equal prices keep their
// original relative order.
func SortByPrice(products []models.Product, ascending bool) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}
