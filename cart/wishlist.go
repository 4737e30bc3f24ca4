package cart

import (
	"trendora-client/localstore"
	"trendora-client/models"
)

// Wishlist returns a snapshot of the wishlist document. Missing or corrupt
// data reads as empty.
func (m *Manager) Wishlist() []models.WishlistEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readWishlist()
}

// AddToWishlist inserts the product, set semantics keyed by canonical product
// id. Adding an id that is already present is a no-op returning false.
func (m *Manager) AddToWishlist(p models.Product) bool {
	m.mu.Lock()
	entries := m.readWishlist()
	id := p.ID.String()
	for _, e := range entries {
		if e.ProductID == id {
			m.mu.Unlock()
			return false
		}
	}
	entries = append(entries, models.WishlistEntry{
		ProductID: id,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageRef(),
	})
	m.writeWishlist(entries)
	m.mu.Unlock()

	m.notify()
	return true
}

// RemoveFromWishlist removes the entry for the given product id. Removing an
// absent id is a no-op returning false.
func (m *Manager) RemoveFromWishlist(productID string) bool {
	id := models.CanonicalID(productID)

	m.mu.Lock()
	entries := m.readWishlist()
	found := -1
	for i, e := range entries {
		if e.ProductID == id {
			found = i
			break
		}
	}
	if found < 0 {
		m.mu.Unlock()
		return false
	}
	entries = append(entries[:found], entries[found+1:]...)
	m.writeWishlist(entries)
	m.mu.Unlock()

	m.notify()
	return true
}

// MoveToCart removes the entry from the wishlist and adds it to the cart, as
// the wishlist page's "add to cart" button does. Returns false when the id is
// not wishlisted.
func (m *Manager) MoveToCart(productID string) bool {
	id := models.CanonicalID(productID)

	m.mu.Lock()
	entries := m.readWishlist()
	found := -1
	for i, e := range entries {
		if e.ProductID == id {
			found = i
			break
		}
	}
	if found < 0 {
		m.mu.Unlock()
		return false
	}
	entry := entries[found]
	entries = append(entries[:found], entries[found+1:]...)
	m.writeWishlist(entries)
	m.mu.Unlock()

	m.AddItem(models.Product{
		ID:    models.FlexID(entry.ProductID),
		Name:  entry.Name,
		Price: entry.UnitPrice,
		Image: entry.ImageRef,
	})
	return true
}

// InWishlist reports whether the product id is currently wishlisted.
func (m *Manager) InWishlist(productID string) bool {
	id := models.CanonicalID(productID)
	for _, e := range m.Wishlist() {
		if e.ProductID == id {
			return true
		}
	}
	return false
}

func (m *Manager) readWishlist() []models.WishlistEntry {
	var entries []models.WishlistEntry
	localstore.GetJSON(m.store, keyWishlist, &entries)
	if entries == nil {
		entries = []models.WishlistEntry{}
	}
	return entries
}

func (m *Manager) writeWishlist(entries []models.WishlistEntry) {
	_ = localstore.PutJSON(m.store, keyWishlist, entries)
}

// migrateLegacyWishlist adopts wishlist data persisted by older frontend
// builds under the redundant "wishlist" key, then deletes that key. The
// canonical key wins when both exist.
func (m *Manager) migrateLegacyWishlist() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok, _ := m.store.Get(keyWishlist); !ok {
		var legacy []models.WishlistEntry
		if localstore.GetJSON(m.store, legacyKeyWishlist, &legacy) && len(legacy) > 0 {
			m.writeWishlist(legacy)
		}
	}
	_ = m.store.Delete(legacyKeyWishlist)
}
