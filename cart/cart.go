// Package cart owns the locally persisted cart and wishlist documents. The
// Manager is the only writer of those documents; the view layer and the sync
// coordinator only observe it through callbacks and snapshots.
package cart

import (
	"sync"

	"trendora-client/localstore"
	"trendora-client/models"

	"github.com/google/uuid"
)

const (
	keyCart           = "cart"
	keyWishlist       = "wishlistItems"
	legacyKeyWishlist = "wishlist"
)

// SyncScheduler is what the Manager needs from the sync coordinator. A nil
// scheduler (no session) means mutations stay local-only.
type SyncScheduler interface {
	// Schedule (re)arms the debounced push of the full cart document.
	Schedule()
	// ClearRemote issues a best-effort delete of the server-side cart.
	ClearRemote()
}

// Manager mutates the cart and wishlist documents. Every mutation persists
// synchronously before any notification or network scheduling happens, so the
// local documents are always durable independent of sync outcomes.
type Manager struct {
	mu       sync.Mutex
	store    localstore.Store
	sched    SyncScheduler
	onChange func()
}

func NewManager(store localstore.Store) *Manager {
	m := &Manager{store: store}
	m.migrateLegacyWishlist()
	return m
}

// SetScheduler installs (or with nil removes) the sync coordinator. Called on
// login and logout.
func (m *Manager) SetScheduler(s SyncScheduler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched = s
}

// OnChange registers a callback fired after every successful mutation, for
// the view layer to re-render from.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Items returns a snapshot of the cart document. A missing or corrupt
// document reads as an empty cart.
func (m *Manager) Items() models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCart()
}

// AddItem appends the product with quantity 1, or bumps the quantity of the
// existing line in place if the product is already carted. The line's
// position never changes on a repeat add.
func (m *Manager) AddItem(p models.Product) {
	m.mu.Lock()
	lines := m.readCart()
	id := p.ID.String()
	if i := lines.IndexOf(id); i >= 0 {
		lines[i].Quantity++
	} else {
		lines = append(lines, models.CartLine{
			LocalID:   uuid.NewString(),
			ProductID: id,
			Name:      p.Name,
			UnitPrice: p.Price,
			ImageRef:  p.ImageRef(),
			Quantity:  1,
		})
	}
	m.writeCart(lines)
	m.mu.Unlock()

	m.changed()
}

// RemoveItem removes the line at the given position and returns it. An
// out-of-range index is a no-op returning ok=false.
func (m *Manager) RemoveItem(index int) (models.CartLine, bool) {
	m.mu.Lock()
	lines := m.readCart()
	if index < 0 || index >= len(lines) {
		m.mu.Unlock()
		return models.CartLine{}, false
	}
	removed := lines[index]
	lines = append(lines[:index], lines[index+1:]...)
	m.writeCart(lines)
	m.mu.Unlock()

	m.changed()
	return removed, true
}

// ChangeQuantity adds delta (signed) to the line's quantity, flooring the
// result at 1. The line is never removed here, no matter how negative delta
// is. Returns false on an invalid index.
func (m *Manager) ChangeQuantity(index, delta int) bool {
	m.mu.Lock()
	lines := m.readCart()
	if index < 0 || index >= len(lines) {
		m.mu.Unlock()
		return false
	}
	lines[index].Quantity += delta
	if lines[index].Quantity < 1 {
		lines[index].Quantity = 1
	}
	m.writeCart(lines)
	m.mu.Unlock()

	m.changed()
	return true
}

// Clear replaces the cart with the empty document. With a session present it
// additionally requests a best-effort delete of the server-side cart; the
// outcome of that delete is reported on the coordinator's results channel,
// never here.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.writeCart(models.Cart{})
	sched := m.sched
	m.mu.Unlock()

	m.notify()
	if sched != nil {
		sched.ClearRemote()
	}
}

// ReplaceCart installs the given lines as the new cart document, discarding
// whatever was there. Used by the coordinator's pull; deliberately does not
// schedule a push.
func (m *Manager) ReplaceCart(lines []models.CartLine) {
	m.mu.Lock()
	m.writeCart(models.Cart(lines))
	m.mu.Unlock()

	m.notify()
}

// TotalPrice is the current cart total.
func (m *Manager) TotalPrice() float64 {
	return m.Items().TotalPrice()
}

// CountItems is the current total unit count.
func (m *Manager) CountItems() int {
	return m.Items().CountItems()
}

func (m *Manager) readCart() models.Cart {
	var lines models.Cart
	localstore.GetJSON(m.store, keyCart, &lines)
	if lines == nil {
		lines = models.Cart{}
	}
	return lines
}

func (m *Manager) writeCart(lines models.Cart) {
	// Persisting synchronously under the lock keeps the document ahead of any
	// pending network push.
	_ = localstore.PutJSON(m.store, keyCart, lines)
}

// changed fires the view notification and, when a session exists, schedules
// a debounced push. Called without the lock held.
func (m *Manager) changed() {
	m.notify()
	m.mu.Lock()
	sched := m.sched
	m.mu.Unlock()
	if sched != nil {
		sched.Schedule()
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
