// Package storefront holds the view-models of the shopping page: the
// product card, the shopping cart and the checkout wizard, plus the shared
// cart store they read and write.
package storefront

import (
	"slices"
	"sync"

	"github.com/prudhivi99/storefront/internal/models"
)

const (
	rowClassBase     = "cart-row"
	rowClassSelected = "cart-row selected-row"
)

// Item is one cart row as the page shows it.
type Item struct {
	models.CartItem
	FormattedPrice string
	Selected       bool
	RowClass       string
}

func newItem(ci models.CartItem) Item {
	return Item{
		CartItem:       ci,
		FormattedPrice: FormatPrice(ci.Price, 2),
		RowClass:       rowClassBase,
	}
}

func (i *Item) setSelected(selected bool) {
	i.Selected = selected
	if selected {
		i.RowClass = rowClassSelected
	} else {
		i.RowClass = rowClassBase
	}
}

// Listener receives the store contents after each mutation. Snapshots may
// arrive out of order under concurrent writers; version orders them.
type Listener func(version uint64, items []Item)

// Store is the ordered list of cart rows shared by the components of a
// page. Every mutation bumps the version and notifies listeners outside
// the lock.
type Store struct {
	mu        sync.Mutex
	version   uint64
	items     []Item
	nextID    uint64
	listeners map[uint64]Listener
}

func NewStore() *Store {
	return &Store{listeners: make(map[uint64]Listener)}
}

// Items returns a copy of the rows.
func (s *Store) Items() []Item {
	_, items := s.Snapshot()
	return items
}

// Snapshot returns the version together with a copy of the rows.
func (s *Store) Snapshot() (uint64, []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, slices.Clone(s.items)
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Replace swaps the whole list.
func (s *Store) Replace(items []Item) {
	s.mutate(func([]Item) []Item { return slices.Clone(items) })
}

// Update hands fn a copy of the rows and stores what it returns.
func (s *Store) Update(fn func(items []Item) []Item) {
	s.mutate(fn)
}

// Remove drops the rows with the given ids and reports how many went.
func (s *Store) Remove(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	s.mutate(func(items []Item) []Item {
		kept := items[:0]
		for _, it := range items {
			if _, ok := drop[it.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, it)
		}
		return kept
	})
	return removed
}

// Subscribe registers fn for later mutations. The returned func cancels.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) mutate(fn func([]Item) []Item) {
	s.mu.Lock()
	s.items = fn(slices.Clone(s.items))
	s.version++
	version := s.version
	// Later mutations replace s.items rather than writing into it.
	snapshot := s.items

	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(version, slices.Clone(snapshot))
	}
}
